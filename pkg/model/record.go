package model

import (
	"fmt"
	"strings"
)

// DefaultReferenceGrams is the quantity food macros refer to when a source does not say.
const DefaultReferenceGrams = 100.0

type RecordKind string

const (
	RecordKindFood     RecordKind = "food"
	RecordKindExercise RecordKind = "exercise"
)

// Record is one entry of the structured knowledge catalog. It is implemented only by *Food and
// *Exercise; consumers switch on the concrete type.
type Record interface {
	Kind() RecordKind
	// EmbeddingText is the canonical text the record is embedded from.
	EmbeddingText() string

	isRecord()
}

// Food holds macro values for ReferenceGrams of a food.
type Food struct {
	Name           string  `json:"name"`
	Calories       float64 `json:"calories"`
	Protein        float64 `json:"protein"`
	Carbs          float64 `json:"carbs"`
	Fat            float64 `json:"fat"`
	ReferenceGrams float64 `json:"reference_grams"`
}

func (f *Food) Kind() RecordKind      { return RecordKindFood }
func (f *Food) EmbeddingText() string { return strings.TrimSpace(f.Name) }
func (f *Food) isRecord()             {}

// Macros returns the macro values for the reference quantity.
func (f *Food) Macros() Macros {
	return Macros{Calories: f.Calories, Protein: f.Protein, Carbs: f.Carbs, Fat: f.Fat}
}

// MacrosFor scales the reference macros to grams, rounded to 2 decimals.
func (f *Food) MacrosFor(grams float64) Macros {
	ref := f.ReferenceGrams
	if ref <= 0 {
		ref = DefaultReferenceGrams
	}
	return f.Macros().Scale(grams / ref).Round(2)
}

// Exercise is a catalog exercise with its demonstration video.
type Exercise struct {
	Name         string `json:"name" yaml:"name"`
	TargetMuscle string `json:"target-muscle" yaml:"target-muscle"`
	YoutubeLink  string `json:"youtube_link" yaml:"youtube_link"`
}

func (e *Exercise) Kind() RecordKind { return RecordKindExercise }
func (e *Exercise) isRecord()        {}

func (e *Exercise) EmbeddingText() string {
	return fmt.Sprintf("%s (Targets: %s)", strings.TrimSpace(e.Name), e.target())
}

func (e *Exercise) target() string {
	if t := strings.TrimSpace(e.TargetMuscle); t != "" {
		return t
	}
	return "N/A"
}

// CatalogLine renders the exercise as a bullet for prompts.
func (e *Exercise) CatalogLine() string {
	return "- " + e.EmbeddingText()
}

// KnowledgeChunk is a retrievable span of document text.
type KnowledgeChunk struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}
