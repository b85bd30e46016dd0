// Package rules evaluates the Q1..Q9 question categories against one
// facility's structured fields.
package rules

import (
	"github.com/ppiankov/carescope/internal/model"
	"github.com/ppiankov/carescope/internal/reference"
)

// Input is everything a category handler may look at.
type Input struct {
	Fields model.StructuredFields
	// Region is optional cross-record context. Handlers degrade without it.
	Region *RegionContext
}

// Evaluation is the engine output for one record.
type Evaluation struct {
	Findings  []model.Finding
	Anomalies []model.AnomalyFlag
}

// Category is one independent rule handler. Handlers never see each other's output.
type Category struct {
	ID       model.Category
	Title    string
	Evaluate func(Input) []model.Finding
}

// Engine runs the fixed battery of category handlers.
type Engine struct {
	ref        *reference.Tables
	categories []Category
	anomalies  *AnomalyDetector
}

// NewEngine creates an engine over the given tables.
func NewEngine(ref *reference.Tables) *Engine {
	e := &Engine{ref: ref, anomalies: NewAnomalyDetector(ref)}
	handlers := map[model.Category]func(Input) []model.Finding{
		model.CategoryBasicLookups:   e.basicLookups,
		model.CategoryGeospatial:     e.geospatial,
		model.CategoryValidation:     e.validation,
		model.CategoryAnomaly:        e.misrepresentation,
		model.CategoryClassification: e.classification,
		model.CategoryWorkforce:      e.workforce,
		model.CategoryResourceGaps:   e.resourceGaps,
		model.CategoryNGO:            e.ngo,
		model.CategoryUnmetNeeds:     e.unmetNeeds,
	}
	for _, id := range model.Categories {
		e.categories = append(e.categories, Category{ID: id, Title: id.Title(), Evaluate: handlers[id]})
	}
	return e
}

// Categories returns the handlers in evaluation order.
func (e *Engine) Categories() []Category {
	out := make([]Category, len(e.categories))
	copy(out, e.categories)
	return out
}

// Evaluate runs every category in order. The result depends only on the input
// and the tables.
func (e *Engine) Evaluate(in Input) Evaluation {
	var ev Evaluation
	for _, c := range e.categories {
		ev.Findings = append(ev.Findings, c.Evaluate(in)...)
	}
	ev.Anomalies = e.anomalies.Detect(in.Fields)
	if ev.Findings == nil {
		ev.Findings = []model.Finding{}
	}
	if ev.Anomalies == nil {
		ev.Anomalies = []model.AnomalyFlag{}
	}
	return ev
}
