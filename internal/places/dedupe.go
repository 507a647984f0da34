package places

// Dedupe merges result lists from multiple query variants into one list
// unique by place id, preserving first-seen order.
func Dedupe(lists ...[]Result) []Result {
	seen := make(map[string]struct{})
	var merged []Result
	for _, list := range lists {
		for _, r := range list {
			if r.PlaceID == "" {
				continue
			}
			if _, dup := seen[r.PlaceID]; dup {
				continue
			}
			seen[r.PlaceID] = struct{}{}
			merged = append(merged, r)
		}
	}
	return merged
}
