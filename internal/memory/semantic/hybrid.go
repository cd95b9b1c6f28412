package semantic

import (
	"sort"
	"strconv"

	"github.com/blevesearch/bleve"
)

const rrfK = 60

// HybridSearch fuses the cosine and keyword rankings with reciprocal rank
// fusion. Each record carries "similarity_score" and "fused_score".
func (s *Store) HybridSearch(query string, topK int) ([]Record, error) {
	if topK <= 0 {
		topK = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.vectors) == 0 {
		return []Record{}, nil
	}

	q := Embed(query)
	sims := make([]float64, len(s.vectors))
	byVector := make([]int, len(s.vectors))
	for i, v := range s.vectors {
		sims[i] = Cosine(q, v)
		byVector[i] = i
	}
	sort.SliceStable(byVector, func(i, j int) bool { return sims[byVector[i]] > sims[byVector[j]] })

	var byKeyword []int
	if s.index != nil {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), topK*3, 0, false)
		res, err := s.index.Search(req)
		if err != nil {
			return nil, err
		}
		for _, hit := range res.Hits {
			if idx, err := strconv.Atoi(hit.ID); err == nil && idx >= 0 && idx < len(s.metadata) {
				byKeyword = append(byKeyword, idx)
			}
		}
	}

	fused := map[int]float64{}
	add := func(ranked []int) {
		for rank, idx := range ranked {
			fused[idx] += 1.0 / float64(rrfK+rank+1)
		}
	}
	add(byVector[:min(len(byVector), topK*3)])
	add(byKeyword)

	order := make([]int, 0, len(fused))
	for idx := range fused {
		order = append(order, idx)
	}
	sort.Slice(order, func(i, j int) bool {
		if fused[order[i]] != fused[order[j]] {
			return fused[order[i]] > fused[order[j]]
		}
		return order[i] < order[j]
	})

	out := make([]Record, 0, min(topK, len(order)))
	for _, idx := range order[:min(topK, len(order))] {
		rec := copyRecord(s.metadata[idx])
		rec["similarity_score"] = sims[idx]
		rec["fused_score"] = fused[idx]
		out = append(out, rec)
	}
	return out, nil
}
