package travel

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	StyleBudget   = "budget"
	StyleModerate = "moderate"
	StyleLuxury   = "luxury"

	CurrencyUSD = "USD"
	CurrencyINR = "INR"

	budgetNote = "Estimated costs excluding major travel tickets (flights/trains) to the destination."
)

var ErrInvalidDays = errors.New("days must be at least 1")

var budgetSplit = []struct {
	key   string
	share decimal.Decimal
}{
	{"accommodation", decimal.RequireFromString("0.45")},
	{"food", decimal.RequireFromString("0.25")},
	{"activities", decimal.RequireFromString("0.20")},
	{"local_transport", decimal.RequireFromString("0.10")},
}

type BudgetEstimate struct {
	Destination   string            `json:"destination"`
	Days          int               `json:"days"`
	Travelers     int               `json:"travelers"`
	TravelStyle   string            `json:"travel_style"`
	Breakdown     map[string]string `json:"breakdown"`
	DailyPerson   string            `json:"daily_estimate_per_person"`
	TotalEstimate string            `json:"total_estimate"`
	Currency      string            `json:"currency"`
	Note          string            `json:"note"`
}

// NormalizeStyle maps anything other than budget or luxury to moderate.
func NormalizeStyle(style string) string {
	switch s := strings.ToLower(strings.TrimSpace(style)); s {
	case StyleBudget, StyleLuxury:
		return s
	default:
		return StyleModerate
	}
}

// CalculateBudget estimates trip costs from daily rates. Indian destinations
// priced in INR use domestic rates; other INR estimates convert the USD rate.
// Amounts are rounded half-to-even.
func CalculateBudget(destination string, days, travelers int, style, currency string) (*BudgetEstimate, error) {
	if days < 1 {
		return nil, ErrInvalidDays
	}
	if travelers < 1 {
		travelers = 1
	}
	style = NormalizeStyle(style)
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency != CurrencyINR {
		currency = CurrencyUSD
	}

	rates, ok := budgetRates[normalizeKey(destination)]
	if !ok {
		rates = budgetRates[defaultKey]
	}
	daily := rates[style]
	symbol := "$"
	if currency == CurrencyINR {
		symbol = "₹"
		if isIndianDestination(destination) {
			daily = indiaRatesINR[style]
		} else {
			daily *= usdToINR
		}
	}

	dailyDec := decimal.NewFromInt(daily)
	daysDec := decimal.NewFromInt(int64(days))
	groupDec := decimal.NewFromInt(int64(travelers))

	breakdown := make(map[string]string, len(budgetSplit))
	for _, part := range budgetSplit {
		amount := dailyDec.Mul(part.share).Mul(daysDec).Mul(groupDec).RoundBank(0)
		breakdown[part.key] = symbol + formatThousands(amount.IntPart())
	}
	total := dailyDec.Mul(daysDec).Mul(groupDec).RoundBank(0)

	return &BudgetEstimate{
		Destination:   destination,
		Days:          days,
		Travelers:     travelers,
		TravelStyle:   style,
		Breakdown:     breakdown,
		DailyPerson:   symbol + formatThousands(daily),
		TotalEstimate: symbol + formatThousands(total.IntPart()),
		Currency:      currency,
		Note:          budgetNote,
	}, nil
}

func formatThousands(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

type CostRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

var dailyCostTable = map[string]map[string][2]int64{
	"accommodation": {StyleBudget: {20, 50}, StyleModerate: {80, 150}, StyleLuxury: {200, 500}},
	"food":          {StyleBudget: {15, 30}, StyleModerate: {40, 70}, StyleLuxury: {100, 200}},
	"activities":    {StyleBudget: {10, 30}, StyleModerate: {40, 80}, StyleLuxury: {100, 300}},
	"transport":     {StyleBudget: {10, 25}, StyleModerate: {30, 60}, StyleLuxury: {80, 150}},
}

type TripBudget struct {
	DailyPerPerson map[string]CostRange `json:"daily_per_person"`
	TotalPerPerson CostRange            `json:"total_per_person"`
	TotalGroup     CostRange            `json:"total_group"`
	DurationDays   int                  `json:"duration_days"`
	GroupSize      int                  `json:"group_size"`
	TravelStyle    string               `json:"travel_style"`
}

// EstimateTripBudget gives per-category daily ranges scaled by multiplier
// (1.0 is an average-cost destination) and the resulting trip totals.
func EstimateTripBudget(days int, style string, groupSize int, multiplier float64) TripBudget {
	if days < 1 {
		days = 1
	}
	if groupSize < 1 {
		groupSize = 1
	}
	if multiplier <= 0 {
		multiplier = 1
	}
	style = NormalizeStyle(style)
	mult := decimal.NewFromFloat(multiplier)

	daily := make(map[string]CostRange, len(dailyCostTable)+1)
	minTotal, maxTotal := decimal.Zero, decimal.Zero
	for category, styles := range dailyCostTable {
		bounds := styles[style]
		lo := decimal.NewFromInt(bounds[0]).Mul(mult)
		hi := decimal.NewFromInt(bounds[1]).Mul(mult)
		daily[category] = CostRange{Min: lo.InexactFloat64(), Max: hi.InexactFloat64()}
		minTotal = minTotal.Add(lo)
		maxTotal = maxTotal.Add(hi)
	}
	daily["total"] = CostRange{Min: minTotal.InexactFloat64(), Max: maxTotal.InexactFloat64()}

	d := decimal.NewFromInt(int64(days))
	g := decimal.NewFromInt(int64(groupSize))
	return TripBudget{
		DailyPerPerson: daily,
		TotalPerPerson: CostRange{Min: minTotal.Mul(d).InexactFloat64(), Max: maxTotal.Mul(d).InexactFloat64()},
		TotalGroup:     CostRange{Min: minTotal.Mul(d).Mul(g).InexactFloat64(), Max: maxTotal.Mul(d).Mul(g).InexactFloat64()},
		DurationDays:   days,
		GroupSize:      groupSize,
		TravelStyle:    style,
	}
}
