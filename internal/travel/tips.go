package travel

const (
	TipHiddenGems  = "hidden_gems"
	TipLocal       = "local_tips"
	TipMoneySaving = "money_saving"
	TipBestTimes   = "best_times"
	TipAll         = "all"
)

// LocalTips returns the slice of local knowledge named by tipType. Unknown
// types fall back to everything known about the destination.
func LocalTips(destination, tipType string) map[string]any {
	k := lookupKnowledge(destination)
	out := map[string]any{"destination": destination}

	switch tipType {
	case TipHiddenGems:
		out["hidden_gems"] = k.HiddenGems
		out["tip"] = "These are places locals love but tourists often miss!"
	case TipLocal:
		out["local_tips"] = k.LocalTips
		out["money_saving"] = k.MoneySaving
		out["safety"] = k.Safety
	case TipMoneySaving:
		out["money_saving"] = k.MoneySaving
	case TipBestTimes:
		out["best_times"] = nonNilTimes(k.BestTimes)
		out["general_tip"] = "Early morning and weekdays are usually less crowded"
	default:
		out["hidden_gems"] = k.HiddenGems
		out["local_tips"] = k.LocalTips
		out["money_saving"] = k.MoneySaving
		out["safety"] = k.Safety
		out["best_times"] = nonNilTimes(k.BestTimes)
	}
	return out
}

func nonNilTimes(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
