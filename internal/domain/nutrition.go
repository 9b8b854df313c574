package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FoodRecord is a single entry of the local food store. Values are per 100g.
type FoodRecord struct {
	Name     string   `json:"name"`
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
}

// Facts returns the record as a structured nutrition answer
func (r FoodRecord) Facts() *NutritionFacts {
	return &NutritionFacts{Calories: r.Calories, Protein: r.Protein}
}

// NutritionFacts holds per-100g calories and protein. Either value may be unknown.
type NutritionFacts struct {
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Note     string   `json:"note,omitempty"`
}

// Summary renders the known values, e.g. "165 kcal, 31.0 g protein"
func (f *NutritionFacts) Summary() string {
	if f == nil {
		return ""
	}
	var parts []string
	if f.Calories != nil {
		parts = append(parts, formatCalories(*f.Calories)+" kcal")
	}
	if f.Protein != nil {
		parts = append(parts, formatProtein(*f.Protein)+" g protein")
	}
	return strings.Join(parts, ", ")
}

func formatCalories(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Protein always keeps at least one decimal so 31 reads as "31.0".
func formatProtein(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Float returns a pointer to v, for building optional nutrition values
func Float(v float64) *float64 {
	return &v
}

// NormalizeName converts a food name into its store key: trimmed and lower-cased
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Preference selects which provider a caller would like to use when no generative
// credential is configured.
type Preference string

const (
	PreferGenerative Preference = "generative"
	PreferRemote     Preference = "remote"
	PreferLocal      Preference = "local"
)

// ParsePreference accepts the canonical names plus the provider names used in the UI.
// An empty string selects PreferRemote.
func ParsePreference(s string) (Preference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "remote", "openfoodfacts":
		return PreferRemote, nil
	case "local":
		return PreferLocal, nil
	case "generative", "openai":
		return PreferGenerative, nil
	default:
		return "", fmt.Errorf("%w: unknown provider %q", ErrInvalidRequest, s)
	}
}

// Source tags written to the history log
const (
	SourceGenerative    = ""
	SourceRemote        = "remote"
	SourceLocal         = "local"
	SourceLocalFallback = "local-fallback"
)

// ResultKind discriminates LookupResult
type ResultKind string

const (
	KindStructured ResultKind = "structured"
	KindFreeText   ResultKind = "free_text"
	KindNotFound   ResultKind = "not_found"
)

// LookupResult is the outcome of one resolver call
type LookupResult struct {
	Kind    ResultKind      `json:"kind"`
	Query   string          `json:"query"`
	Facts   *NutritionFacts `json:"facts,omitempty"`
	Content string          `json:"content,omitempty"`
	Source  string          `json:"source,omitempty"`
	Message string          `json:"message,omitempty"`
	Notices []string        `json:"notices,omitempty"`
}

// Display renders the result the way the lookup form shows it
func (r *LookupResult) Display() string {
	switch r.Kind {
	case KindStructured:
		out := fmt.Sprintf("%s: %s", cases.Title(language.English).String(strings.TrimSpace(r.Query)), r.Facts.Summary())
		if r.Facts.Note != "" {
			out += fmt.Sprintf(" (%s)", r.Facts.Note)
		}
		return out
	case KindFreeText:
		return r.Content
	default:
		return r.Message
	}
}

// HistoryEntry is one line of the lookup history log
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Food      string    `json:"food"`
	Source    string    `json:"source,omitempty"`
}

// ErrorLogEntry is one line of the generative provider error log
type ErrorLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}
