package semantic

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Search modes understood by Evaluate and the memory search surfaces.
const (
	ModeVector  = "vector"
	ModeKeyword = "keyword"
	ModeHybrid  = "hybrid"
)

// QueryExpectation captures the texts a memory query is expected to return.
type QueryExpectation struct {
	Query    string   `json:"query"`
	Relevant []string `json:"relevant"`
}

// QueryEvaluation summarises a single query execution.
type QueryEvaluation struct {
	Query   string        `json:"query"`
	Recall  float64       `json:"recall"`
	Latency time.Duration `json:"latency"`
	Hits    []string      `json:"hits"`
	Missed  []string      `json:"missed,omitempty"`
}

// EvaluationSummary aggregates recall and latency across expectations.
type EvaluationSummary struct {
	Mode             string            `json:"mode"`
	TopK             int               `json:"top_k"`
	Results          []QueryEvaluation `json:"results"`
	MeanRecall       float64           `json:"mean_recall"`
	MeanLatency      time.Duration     `json:"mean_latency"`
	QueriesEvaluated int               `json:"queries_evaluated"`
}

// Find runs query in the given mode. An empty mode means vector search.
func (s *Store) Find(query string, topK int, mode string) ([]Record, error) {
	switch mode {
	case "", ModeVector:
		return s.Search(query, topK), nil
	case ModeKeyword:
		return s.KeywordSearch(query, topK)
	case ModeHybrid:
		return s.HybridSearch(query, topK)
	default:
		return nil, fmt.Errorf("unknown search mode %q", mode)
	}
}

// Evaluate measures recall@topK of the store against expectations. Queries
// that are blank or have no relevant texts are skipped.
func Evaluate(s *Store, mode string, topK int, expectations []QueryExpectation) (EvaluationSummary, error) {
	if len(expectations) == 0 {
		return EvaluationSummary{}, fmt.Errorf("no query expectations supplied")
	}
	if topK <= 0 {
		topK = 5
	}
	if mode == "" {
		mode = ModeVector
	}
	summary := EvaluationSummary{Mode: mode, TopK: topK}
	for _, exp := range expectations {
		q := strings.TrimSpace(exp.Query)
		if q == "" || len(exp.Relevant) == 0 {
			continue
		}
		start := time.Now()
		records, err := s.Find(q, topK, mode)
		if err != nil {
			return EvaluationSummary{}, fmt.Errorf("search %q: %w", q, err)
		}
		eval := QueryEvaluation{Query: exp.Query, Latency: time.Since(start)}
		for _, r := range records {
			text, _ := r["text"].(string)
			eval.Hits = append(eval.Hits, text)
		}
		eval.Recall, eval.Missed = computeRecall(exp.Relevant, eval.Hits)
		summary.Results = append(summary.Results, eval)
		summary.MeanRecall += eval.Recall
		summary.MeanLatency += eval.Latency
		summary.QueriesEvaluated++
	}
	if summary.QueriesEvaluated > 0 {
		summary.MeanRecall /= float64(summary.QueriesEvaluated)
		summary.MeanLatency /= time.Duration(summary.QueriesEvaluated)
	}
	return summary, nil
}

func computeRecall(relevant, hits []string) (float64, []string) {
	relevantSet := make(map[string]struct{}, len(relevant))
	for _, t := range relevant {
		relevantSet[strings.TrimSpace(t)] = struct{}{}
	}
	hitSet := make(map[string]struct{}, len(hits))
	for _, t := range hits {
		hitSet[strings.TrimSpace(t)] = struct{}{}
	}
	var matches int
	var missed []string
	for t := range relevantSet {
		if _, ok := hitSet[t]; ok {
			matches++
		} else {
			missed = append(missed, t)
		}
	}
	sort.Strings(missed)
	return float64(matches) / float64(len(relevantSet)), missed
}
