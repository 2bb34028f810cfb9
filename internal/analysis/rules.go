package analysis

// rule inspects analyzer state and produces at most one insight
type rule[T any] func(T) (Insight, bool)

// applyRules evaluates rules in order and collects the insights they produce
func applyRules[T any](state T, rules []rule[T]) []Insight {
	insights := []Insight{}
	for _, r := range rules {
		if insight, ok := r(state); ok {
			insights = append(insights, insight)
		}
	}
	return insights
}

// collectKeyInsights returns the warning and alert insights of all groups
// in first-seen order without duplicates
func collectKeyInsights(groups ...[]Insight) []Insight {
	key := []Insight{}
	for _, group := range groups {
		for _, insight := range group {
			if !insight.Severity.IsKey() {
				continue
			}
			if containsInsight(key, insight) {
				continue
			}
			key = append(key, insight)
		}
	}
	return key
}

func containsInsight(list []Insight, target Insight) bool {
	for _, i := range list {
		if i.Equal(target) {
			return true
		}
	}
	return false
}
