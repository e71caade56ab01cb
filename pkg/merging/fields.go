package merging

import "github.com/civicreach/govlead/pkg/models"

// UnionStrings merges two lists preserving keep-side order, then appends
// unseen values from the merge side.
func UnionStrings(keep, merge []string) []string {
	seen := make(map[string]struct{}, len(keep)+len(merge))
	result := make([]string, 0, len(keep)+len(merge))

	for _, v := range keep {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	for _, v := range merge {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}

// UnionDecisionMakers dedups by contact name; the keep side wins on conflicts.
func UnionDecisionMakers(keep, merge []models.DecisionMaker) []models.DecisionMaker {
	seen := make(map[string]struct{}, len(keep)+len(merge))
	result := make([]models.DecisionMaker, 0, len(keep)+len(merge))

	for _, dm := range keep {
		if _, ok := seen[dm.Name]; ok {
			continue
		}
		seen[dm.Name] = struct{}{}
		result = append(result, dm)
	}
	for _, dm := range merge {
		if _, ok := seen[dm.Name]; ok {
			continue
		}
		seen[dm.Name] = struct{}{}
		result = append(result, dm)
	}

	return result
}

// UnionNews dedups by URL; the keep side wins on conflicts.
func UnionNews(keep, merge []models.NewsItem) []models.NewsItem {
	seen := make(map[string]struct{}, len(keep)+len(merge))
	result := make([]models.NewsItem, 0, len(keep)+len(merge))

	for _, item := range keep {
		if _, ok := seen[item.URL]; ok {
			continue
		}
		seen[item.URL] = struct{}{}
		result = append(result, item)
	}
	for _, item := range merge {
		if _, ok := seen[item.URL]; ok {
			continue
		}
		seen[item.URL] = struct{}{}
		result = append(result, item)
	}

	return result
}
