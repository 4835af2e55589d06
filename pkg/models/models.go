package models

import (
	"time"
)

// Mode selects how a plan is generated
type Mode string

const (
	// ModeHeuristic builds the plan from fixed time blocks
	ModeHeuristic Mode = "heuristic"
	// ModeLLM asks the language model for a plan
	ModeLLM Mode = "llm"
)

// Provenance records where a plan came from
type Provenance string

const (
	ProvenanceHeuristic Provenance = "heuristic"
	ProvenanceLLM       Provenance = "llm"
	// ProvenanceFallback marks a heuristic plan produced after the LLM failed
	ProvenanceFallback Provenance = "fallback"
)

// Step is a single timed step of a cooking plan
type Step struct {
	Label          string  `json:"label"`
	StartOffsetSec float64 `json:"start_offset_sec"`
	DurationSec    float64 `json:"duration_sec"`
}

// EndOffsetSec returns the offset at which the step window closes
func (s Step) EndOffsetSec() float64 {
	return s.StartOffsetSec + s.DurationSec
}

// Plan is a generated cooking plan
type Plan struct {
	Dish          string     `json:"dish"`
	Steps         []Step     `json:"steps"`
	Substitutions []string   `json:"substitutions"`
	Provenance    Provenance `json:"provenance,omitempty"`
}

// Clone returns a deep copy of the plan, so a new tracking session never shares
// step storage with another one
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	c := *p
	c.Steps = append([]Step(nil), p.Steps...)
	c.Substitutions = append([]string(nil), p.Substitutions...)
	return &c
}

// PlanRequest is the input of plan generation
type PlanRequest struct {
	Ingredients  string `json:"ingredients"`
	TimeLimitMin int    `json:"time_limit_min"`
	Mode         Mode   `json:"mode"`
}

// PlanRecord is a generated plan stored in the history
type PlanRecord struct {
	ID        string      `json:"id"`
	ChatID    int64       `json:"chat_id"`
	Request   PlanRequest `json:"request"`
	Plan      Plan        `json:"plan"`
	CreatedAt time.Time   `json:"created_at"`
}
