package travel

import "strings"

const defaultKey = "default"

type Destination struct {
	Name       string   `json:"name"`
	Rating     float64  `json:"rating"`
	Highlights []string `json:"highlights"`
}

type destinationGroup struct {
	key     string
	results []Destination
}

var destinationGroups = []destinationGroup{
	{key: "beaches europe", results: []Destination{
		{Name: "Santorini, Greece", Rating: 4.8, Highlights: []string{"Stunning sunsets", "White architecture", "Volcanic beaches"}},
		{Name: "Amalfi Coast, Italy", Rating: 4.7, Highlights: []string{"Dramatic cliffs", "Lemon groves", "Charming villages"}},
		{Name: "Algarve, Portugal", Rating: 4.6, Highlights: []string{"Golden beaches", "Rock formations", "Affordable"}},
	}},
	{key: "adventure asia", results: []Destination{
		{Name: "Nepal", Rating: 4.9, Highlights: []string{"Himalayan trekking", "Everest Base Camp", "Buddhist temples"}},
		{Name: "Vietnam", Rating: 4.7, Highlights: []string{"Ha Long Bay", "Motorbike tours", "Street food"}},
		{Name: "Bali, Indonesia", Rating: 4.6, Highlights: []string{"Surfing", "Rice terraces", "Temple exploration"}},
	}},
	{key: "cultural", results: []Destination{
		{Name: "Kyoto, Japan", Rating: 4.9, Highlights: []string{"Ancient temples", "Geisha districts", "Traditional gardens"}},
		{Name: "Rome, Italy", Rating: 4.8, Highlights: []string{"Colosseum", "Vatican", "Ancient history"}},
		{Name: "Marrakech, Morocco", Rating: 4.5, Highlights: []string{"Medina", "Souks", "Riad stays"}},
	}},
}

var attractionCategories = []string{"museums", "outdoor", "food", "nightlife", "shopping"}

var attractionsDB = map[string]map[string][]string{
	"paris": {
		"museums":   {"Louvre Museum", "Musée d'Orsay", "Centre Pompidou"},
		"outdoor":   {"Eiffel Tower", "Luxembourg Gardens", "Seine River Cruise"},
		"food":      {"Le Marais Food Tour", "Cooking Class", "Wine Tasting"},
		"nightlife": {"Moulin Rouge", "Jazz Clubs", "Rooftop Bars"},
		"shopping":  {"Champs-Élysées", "Le Marais Boutiques", "Galeries Lafayette"},
	},
	"tokyo": {
		"museums":   {"Tokyo National Museum", "teamLab Borderless", "Ghibli Museum"},
		"outdoor":   {"Senso-ji Temple", "Meiji Shrine", "Shinjuku Gyoen"},
		"food":      {"Tsukiji Market", "Ramen Alley", "Izakaya Hopping"},
		"nightlife": {"Shibuya Crossing", "Golden Gai", "Robot Restaurant"},
		"shopping":  {"Harajuku", "Akihabara", "Ginza"},
	},
	defaultKey: {
		"museums":   {"Local History Museum", "Art Gallery", "Science Center"},
		"outdoor":   {"City Park", "Nature Walk", "Viewpoint"},
		"food":      {"Local Market", "Food Tour", "Cooking Class"},
		"nightlife": {"Bar District", "Live Music Venue", "Night Market"},
		"shopping":  {"Shopping District", "Local Crafts", "Souvenir Shops"},
	},
}

// Daily per-person rates in USD.
var budgetRates = map[string]map[string]int64{
	"paris":    {"budget": 100, "moderate": 200, "luxury": 450},
	"tokyo":    {"budget": 80, "moderate": 180, "luxury": 400},
	"new york": {"budget": 120, "moderate": 250, "luxury": 500},
	"bali":     {"budget": 40, "moderate": 100, "luxury": 300},
	"bangkok":  {"budget": 35, "moderate": 80, "luxury": 250},
	defaultKey: {"budget": 70, "moderate": 150, "luxury": 350},
}

// Daily per-person rates in INR for domestic Indian travel.
var indiaRatesINR = map[string]int64{"budget": 2500, "moderate": 6000, "luxury": 15000}

const usdToINR = 86

var indiaMarkers = []string{"india", "mumbai", "delhi", "bangalore", "goa", "chikmagalur", "kerala"}

type localKnowledge struct {
	HiddenGems  []string          `json:"hidden_gems"`
	LocalTips   []string          `json:"local_tips"`
	MoneySaving []string          `json:"money_saving"`
	Safety      []string          `json:"safety"`
	BestTimes   map[string]string `json:"best_times"`
}

var localKnowledgeDB = map[string]localKnowledge{
	"paris": {
		HiddenGems: []string{
			"Promenade Plantée - Elevated park that inspired NYC's High Line, rarely crowded",
			"Canal Saint-Martin - Trendy area with cute cafes, perfect for afternoon stroll",
			"Rue Crémieux - Colorful street perfect for photos, locals-only vibe",
			"Shakespeare and Company - Historic bookstore, free readings upstairs",
			"Marché des Enfants Rouges - Oldest covered market, amazing food stalls",
		},
		LocalTips: []string{
			"Say 'Bonjour' when entering any shop - it's considered rude not to",
			"Metro tickets are cheaper in carnets (books of 10)",
			"Many museums are free on the first Sunday of each month",
			"Parisians eat dinner late (8-9 PM), lunch is usually 12-2 PM",
			"Tipping is not expected but rounding up is appreciated",
		},
		MoneySaving: []string{
			"Paris Museum Pass saves money if visiting 3+ museums",
			"Picnic in parks - buy baguettes, cheese, and wine from local shops",
			"Walk! Paris is very walkable and you'll discover more",
			"Avoid restaurants right next to major attractions - walk 2 blocks for better prices",
		},
		Safety: []string{
			"Watch for pickpockets at Eiffel Tower, Louvre, and Metro",
			"Keep bags zipped and in front of you",
			"Generally very safe, but avoid northern suburbs at night",
		},
		BestTimes: map[string]string{
			"Eiffel Tower": "Go at sunset for magical views and fewer crowds",
			"Louvre":       "Wednesday/Friday evenings - open late, much quieter",
			"Notre-Dame":   "Early morning for photos without crowds",
			"Montmartre":   "Weekday mornings to avoid weekend crowds",
		},
	},
	"tokyo": {
		HiddenGems: []string{
			"Yanaka district - Old Tokyo atmosphere, traditional shops, Yanaka Cemetery for peaceful walks",
			"Shimokitazawa - Vintage shops, indie cafes, bohemian vibe",
			"Golden Gai - Tiny bars in Shinjuku, incredibly atmospheric",
			"Omoide Yokocho - Yakitori stands in narrow alleys, authentic old Tokyo",
			"Nezu Shrine - Tunnel of torii gates, less crowded than Fushimi Inari",
		},
		LocalTips: []string{
			"Always carry cash - many places don't accept cards",
			"Bow slightly when thanking (especially in traditional settings)",
			"Don't eat while walking - find a spot to stand or sit",
			"Remove shoes when entering homes, some restaurants, temples",
			"Trains are extremely punctual - if it says 10:03, it leaves at 10:03",
		},
		MoneySaving: []string{
			"Convenience store food (7-Eleven, Lawson) is surprisingly good and cheap",
			"Get a Suica card for easy transport payment",
			"100-yen shops are great for snacks and souvenirs",
			"Lunch sets (teishoku) are much cheaper than dinner",
			"Free activities: shrines, temples, walking neighborhoods",
		},
		Safety: []string{
			"Tokyo is extremely safe, even at night",
			"Biggest 'danger' is getting lost in train stations",
			"Keep valuables safe but crime is very rare",
		},
		BestTimes: map[string]string{
			"Senso-ji Temple":  "Before 7 AM for empty photos",
			"Tsukiji Market":   "8-10 AM for fresh food, avoid Mondays",
			"Shibuya Crossing": "Evening for full energy and lights",
			"teamLab":          "Book 2+ weeks ahead, go on weekdays",
		},
	},
	defaultKey: {
		HiddenGems: []string{
			"Ask locals for their favorite neighborhood restaurant",
			"Visit the local market for authentic experience",
			"Walk through residential areas for real local life",
		},
		LocalTips: []string{
			"Learn basic greetings in the local language",
			"Research local customs and etiquette before arriving",
			"Carry local currency for small purchases",
		},
		MoneySaving: []string{
			"Eat where locals eat, away from tourist areas",
			"Use public transportation",
			"Look for free walking tours",
		},
		Safety: []string{
			"Keep copies of important documents",
			"Register with your embassy for emergencies",
			"Know emergency numbers",
		},
		BestTimes: map[string]string{},
	},
}

type Attraction struct {
	Name     string `json:"name"`
	Duration string `json:"duration"`
	Cost     string `json:"cost"`
	BestTime string `json:"best_time"`
}

type Restaurant struct {
	Name    string `json:"name"`
	Cuisine string `json:"cuisine"`
	Price   string `json:"price"`
	Area    string `json:"area"`
}

type destinationData struct {
	Attractions []Attraction
	Restaurants []Restaurant
	Transport   string
}

var itineraryDB = map[string]destinationData{
	"paris": {
		Attractions: []Attraction{
			{"Eiffel Tower", "2-3 hours", "$30", "morning or sunset"},
			{"Louvre Museum", "3-4 hours", "$20", "morning"},
			{"Notre-Dame", "1-2 hours", "Free", "morning"},
			{"Montmartre & Sacré-Cœur", "3 hours", "Free", "afternoon"},
			{"Champs-Élysées & Arc de Triomphe", "2-3 hours", "$15 for Arc", "afternoon"},
			{"Seine River Cruise", "1 hour", "$20", "evening"},
			{"Musée d'Orsay", "2-3 hours", "$18", "morning"},
			{"Latin Quarter", "2 hours", "Free", "evening"},
		},
		Restaurants: []Restaurant{
			{"Le Petit Cler", "French", "$$", "7th arr."},
			{"Bouillon Chartier", "Traditional", "$", "9th arr."},
			{"Pink Mamma", "Italian", "$$", "10th arr."},
		},
		Transport: "Metro pass €16.90/day, walk most areas",
	},
	"tokyo": {
		Attractions: []Attraction{
			{"Senso-ji Temple", "2 hours", "Free", "early morning"},
			{"Shibuya Crossing", "1 hour", "Free", "evening"},
			{"Meiji Shrine", "1-2 hours", "Free", "morning"},
			{"teamLab Borderless", "3 hours", "$30", "afternoon"},
			{"Tsukiji Outer Market", "2 hours", "Varies", "morning"},
			{"Akihabara", "3 hours", "Varies", "afternoon"},
			{"Tokyo Skytree", "2 hours", "$20", "sunset"},
		},
		Restaurants: []Restaurant{
			{"Ichiran Ramen", "Ramen", "$", "Shibuya"},
			{"Sushi Dai", "Sushi", "$$", "Tsukiji"},
			{"Gonpachi", "Izakaya", "$$", "Roppongi"},
		},
		Transport: "Suica card, JR Pass if traveling outside",
	},
	defaultKey: {
		Attractions: []Attraction{
			{"City Center Walk", "2 hours", "Free", "morning"},
			{"Main Museum", "3 hours", "$15", "morning"},
			{"Historic District", "2 hours", "Free", "afternoon"},
			{"Local Market", "2 hours", "Varies", "morning"},
			{"Viewpoint/Tower", "1 hour", "$10", "sunset"},
		},
		Restaurants: []Restaurant{
			{"Local Restaurant", "Local", "$$", "City Center"},
		},
		Transport: "Public transport or walking",
	},
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func lookupAttractions(destination string) map[string][]string {
	if a, ok := attractionsDB[normalizeKey(destination)]; ok {
		return a
	}
	return attractionsDB[defaultKey]
}

func lookupKnowledge(destination string) localKnowledge {
	if k, ok := localKnowledgeDB[normalizeKey(destination)]; ok {
		return k
	}
	return localKnowledgeDB[defaultKey]
}

func lookupItinerary(destination string) destinationData {
	if d, ok := itineraryDB[normalizeKey(destination)]; ok {
		return d
	}
	return itineraryDB[defaultKey]
}

func isIndianDestination(destination string) bool {
	d := normalizeKey(destination)
	for _, m := range indiaMarkers {
		if strings.Contains(d, m) {
			return true
		}
	}
	return false
}
