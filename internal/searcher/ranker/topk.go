package ranker

import (
	"container/heap"
)

// TopK returns the best limit documents in rank order. limit <= 0, or a
// limit at least len(docs), sorts everything. docs may be reordered.
func TopK(docs []ScoredDoc, limit int) []ScoredDoc {
	if limit <= 0 || limit >= len(docs) {
		Sort(docs)
		return docs
	}
	h := &scoredDocHeap{}
	heap.Init(h)
	for _, doc := range docs {
		heap.Push(h, doc)
		if h.Len() > limit {
			heap.Pop(h)
		}
	}
	result := make([]ScoredDoc, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(ScoredDoc)
	}
	return result
}

// scoredDocHeap is a min-heap on rank: the root is the worst document kept.
type scoredDocHeap []ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool {
	return Less(h[j], h[i])
}

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x interface{}) {
	*h = append(*h, x.(ScoredDoc))
}

func (h *scoredDocHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
