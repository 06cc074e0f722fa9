package travel

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	dateLayout = "2006-01-02"

	SourceOpenMeteo = "open-meteo"
	SourceEstimate  = "estimate"
)

type Temperature struct {
	High float64 `json:"high"`
	Low  float64 `json:"low"`
	Unit string  `json:"unit"`
}

type Forecast struct {
	Location       string       `json:"location"`
	Date           string       `json:"date"`
	Condition      string       `json:"condition"`
	Temperature    Temperature  `json:"temperature"`
	Precipitation  *float64     `json:"precipitation_mm,omitempty"`
	Humidity       string       `json:"humidity,omitempty"`
	Recommendation string       `json:"recommendation"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	Source         string       `json:"source"`
}

// WeatherService reads daily forecasts from an Open-Meteo compatible endpoint.
// With no endpoint it produces a stable estimate for each location and date.
type WeatherService struct {
	endpoint string
	geo      *Geocoder
	fetch    *fetcher
	now      func() time.Time
}

func NewWeatherService(endpoint string, geo *Geocoder, userAgent string, client *http.Client) *WeatherService {
	return &WeatherService{
		endpoint: endpoint,
		geo:      geo,
		fetch:    newFetcher(client, userAgent),
		now:      time.Now,
	}
}

func (w *WeatherService) Offline() bool {
	return w.endpoint == "" || w.geo == nil
}

// Forecast returns the forecast for location on date (YYYY-MM-DD, today when empty).
func (w *WeatherService) Forecast(ctx context.Context, location, date string) (*Forecast, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("location is required")
	}
	if date == "" {
		date = w.now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
	}

	if w.Offline() {
		return estimateWeather(location, date), nil
	}

	place, err := w.geo.Geocode(ctx, location)
	if err != nil {
		return nil, err
	}
	body, err := w.fetch.getJSON(ctx, w.endpoint, url.Values{
		"latitude":   {strconv.FormatFloat(place.Coordinates.Lat, 'f', 4, 64)},
		"longitude":  {strconv.FormatFloat(place.Coordinates.Lon, 'f', 4, 64)},
		"daily":      {"temperature_2m_max,temperature_2m_min,precipitation_sum,weathercode"},
		"timezone":   {"auto"},
		"start_date": {date},
		"end_date":   {date},
	})
	if err != nil {
		return nil, fmt.Errorf("weather for %s: %w", location, err)
	}

	daily := gjson.GetBytes(body, "daily")
	high := daily.Get("temperature_2m_max.0")
	low := daily.Get("temperature_2m_min.0")
	if !high.Exists() || !low.Exists() {
		return nil, fmt.Errorf("weather for %s on %s: %w", location, date, ErrNoResults)
	}
	precip := daily.Get("precipitation_sum.0").Float()
	condition := weatherCondition(int(daily.Get("weathercode.0").Int()))

	coords := place.Coordinates
	f := &Forecast{
		Location:      location,
		Date:          date,
		Condition:     condition,
		Temperature:   Temperature{High: high.Float(), Low: low.Float(), Unit: "°C"},
		Precipitation: &precip,
		Coordinates:   &coords,
		Source:        SourceOpenMeteo,
	}
	f.Recommendation = packingAdvice(f.Condition, f.Temperature, precip)
	return f, nil
}

// weatherCondition maps a WMO weather interpretation code to a label.
func weatherCondition(code int) string {
	switch {
	case code == 0:
		return "Clear"
	case code <= 2:
		return "Partly Cloudy"
	case code == 3:
		return "Cloudy"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67:
		return "Rain"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Rain Showers"
	case code == 85 || code == 86:
		return "Snow Showers"
	case code >= 95:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}

func packingAdvice(condition string, t Temperature, precipMM float64) string {
	switch {
	case strings.Contains(condition, "Snow"):
		return "Pack warm, waterproof clothing and good boots"
	case strings.Contains(condition, "Thunderstorm"), strings.Contains(condition, "Rain"),
		strings.Contains(condition, "Drizzle"), precipMM >= 1:
		return "Pack an umbrella and a waterproof layer"
	case t.High >= 30:
		return "Hot day: light clothing, sunscreen and plenty of water"
	case t.Low < 10:
		return "Pack layers and a warm jacket"
	default:
		return "Good weather for sightseeing"
	}
}

var estimateConditions = []string{"Sunny", "Partly Cloudy", "Cloudy", "Light Rain", "Clear"}

func estimateWeather(location, date string) *Forecast {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(location)))
	h.Write([]byte{0})
	h.Write([]byte(date))
	seed := h.Sum64()

	pick := func(n uint64) uint64 {
		v := seed % n
		seed /= n
		return v
	}
	base := 15 + float64(pick(14))
	condition := estimateConditions[pick(uint64(len(estimateConditions)))]
	high := base + 3 + float64(pick(6))
	low := base - 3 - float64(pick(6))
	humidity := 40 + pick(41)

	rec := "Pack layers"
	if base > 18 {
		rec = "Good weather for sightseeing"
	}
	return &Forecast{
		Location:       location,
		Date:           date,
		Condition:      condition,
		Temperature:    Temperature{High: high, Low: low, Unit: "°C"},
		Humidity:       strconv.FormatUint(humidity, 10) + "%",
		Recommendation: rec,
		Source:         SourceEstimate,
	}
}
