package qdrant

import (
	"encoding/json"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// wirePoint is a point as sent to PUT /points.
type wirePoint struct {
	ID      string         `json:"id"`
	Vector  map[string]any `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// wireDocument asks Qdrant to build a sparse vector from raw text.
type wireDocument struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// wireHit is a point as returned by search, query and scroll.
type wireHit struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

type wireFilter struct {
	Must    []wireCondition `json:"must,omitempty"`
	MustNot []wireCondition `json:"must_not,omitempty"`
}

type wireCondition struct {
	Key   string     `json:"key"`
	Match *wireMatch `json:"match,omitempty"`
	Range *wireRange `json:"range,omitempty"`
}

type wireMatch struct {
	Value any `json:"value"`
}

type wireRange struct {
	GTE string `json:"gte,omitempty"`
	LTE string `json:"lte,omitempty"`
}

// collectionInfo is the subset of GET /collections/{name} we read.
type collectionInfo struct {
	Status       string `json:"status"`
	PointsCount  int    `json:"points_count"`
	VectorsCount int    `json:"vectors_count"`
	Config       struct {
		Params collectionParams `json:"params"`
	} `json:"config"`
}

type collectionParams struct {
	// Vectors is either a single unnamed vector config or a map of named ones.
	Vectors       json.RawMessage            `json:"vectors"`
	SparseVectors map[string]json.RawMessage `json:"sparse_vectors"`
}

// denseSize returns the configured size of the dense vector, or 0 if unknown.
func (p collectionParams) denseSize() int {
	var named map[string]struct {
		Size int `json:"size"`
	}
	if err := json.Unmarshal(p.Vectors, &named); err != nil {
		return 0
	}
	return named[denseVector].Size
}

func toWireFilter(f *domain.Filter) *wireFilter {
	if f.IsEmpty() {
		return nil
	}
	return &wireFilter{
		Must:    toWireConditions(f.Must),
		MustNot: toWireConditions(f.MustNot),
	}
}

func toWireConditions(conds []domain.Condition) []wireCondition {
	if len(conds) == 0 {
		return nil
	}
	out := make([]wireCondition, len(conds))
	for i, c := range conds {
		out[i] = wireCondition{Key: c.Key}
		if c.Range != nil {
			out[i].Range = &wireRange{GTE: c.Range.GTE, LTE: c.Range.LTE}
		} else {
			out[i].Match = &wireMatch{Value: c.Match}
		}
	}
	return out
}

func toScored(hits []wireHit) []domain.ScoredPoint {
	out := make([]domain.ScoredPoint, len(hits))
	for i, h := range hits {
		id, _ := h.Payload[domain.PayloadPointKey].(string)
		if id == "" {
			if s, ok := h.ID.(string); ok {
				id = s
			}
		}
		out[i] = domain.ScoredPoint{ID: id, Score: h.Score, Payload: h.Payload}
	}
	return out
}
