package evaluation

// AveragePrecision walks the ranking up to min(|relevant|, |ranked|) and
// adds the precision at every position holding a relevant document. The sum
// is divided by |relevant|. An empty relevant set yields 0; callers exclude
// such queries from the mean.
func AveragePrecision(relevant map[string]struct{}, ranked []string) float64 {
	if len(relevant) == 0 {
		return 0
	}
	depth := min(len(relevant), len(ranked))
	var matches, sum float64
	for i := 0; i < depth; i++ {
		if _, ok := relevant[ranked[i]]; ok {
			matches++
			sum += matches / float64(i+1)
		}
	}
	return sum / float64(len(relevant))
}

// Precision is the share of the ranked list that is relevant. An empty list
// has precision 0.
func Precision(relevant map[string]struct{}, ranked []string) float64 {
	if len(ranked) == 0 {
		return 0
	}
	return float64(countRelevant(relevant, ranked)) / float64(len(ranked))
}

// Recall is the share of relevant documents found in the ranked list.
func Recall(relevant map[string]struct{}, ranked []string) float64 {
	if len(relevant) == 0 {
		return 0
	}
	return float64(countRelevant(relevant, ranked)) / float64(len(relevant))
}

func countRelevant(relevant map[string]struct{}, ranked []string) int {
	n := 0
	for _, id := range ranked {
		if _, ok := relevant[id]; ok {
			n++
		}
	}
	return n
}
