package travel

import "errors"

type DayPlan struct {
	Day       int          `json:"day"`
	Morning   []Attraction `json:"morning"`
	Afternoon []Attraction `json:"afternoon"`
	Evening   []Attraction `json:"evening"`
}

type Itinerary struct {
	Destination string       `json:"destination"`
	Days        int          `json:"days"`
	Budget      string       `json:"budget,omitempty"`
	DailyPlans  []DayPlan    `json:"daily_plans"`
	Restaurants []Restaurant `json:"restaurants"`
	Transport   string       `json:"transport"`
}

const maxItineraryDays = 30

// QuickItinerary fills each day's morning, afternoon and evening slots in
// order from the destination's attraction list. Later days stay empty once
// the list runs out.
func QuickItinerary(destination string, days int, budget string) (*Itinerary, error) {
	if days < 1 {
		return nil, ErrInvalidDays
	}
	if days > maxItineraryDays {
		return nil, errors.New("days must be at most 30")
	}
	data := lookupItinerary(destination)

	plans := make([]DayPlan, 0, days)
	next := 0
	take := func() []Attraction {
		if next >= len(data.Attractions) {
			return []Attraction{}
		}
		a := data.Attractions[next]
		next++
		return []Attraction{a}
	}
	for day := 1; day <= days; day++ {
		p := DayPlan{Day: day}
		p.Morning = take()
		p.Afternoon = take()
		p.Evening = take()
		plans = append(plans, p)
	}

	return &Itinerary{
		Destination: destination,
		Days:        days,
		Budget:      budget,
		DailyPlans:  plans,
		Restaurants: data.Restaurants,
		Transport:   data.Transport,
	}, nil
}
