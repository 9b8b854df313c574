package openfoodfacts

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/nutrihelper/backend/internal/domain"
)

const per100gMarker = "per 100g"

// MapToNutritionFacts returns facts from the first candidate, in response order,
// whose nutriments object is non-empty. It returns nil if no candidate qualifies.
func MapToNutritionFacts(products []Product, query string) *domain.NutritionFacts {
	for _, product := range products {
		nutriments := decodeNutriments(product.Nutriments)
		if len(nutriments) == 0 {
			continue
		}

		return &domain.NutritionFacts{
			Calories: coerceFloat(firstPresent(nutriments, KeyEnergyKcal100g, KeyEnergy100g)),
			Protein:  coerceFloat(firstPresent(nutriments, KeyProteins100g, KeyProtein100g)),
			Note:     displayName(product, query) + " - " + per100gMarker,
		}
	}
	return nil
}

// decodeNutriments returns nil for a missing, null or non-object nutriments field
func decodeNutriments(raw json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var nutriments map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nutriments); err != nil {
		return nil
	}
	return nutriments
}

// firstPresent returns the first key whose value is neither null nor an empty string
func firstPresent(nutriments map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, key := range keys {
		raw, ok := nutriments[key]
		if !ok || isBlank(raw) {
			continue
		}
		return raw
	}
	return nil
}

func isBlank(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`))
}

// coerceFloat accepts JSON numbers and numeric strings. Anything else,
// including negative or non-finite values, is treated as absent.
func coerceFloat(raw json.RawMessage) *float64 {
	if raw == nil {
		return nil
	}

	var value float64
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		f, err := number.Float64()
		if err != nil {
			return nil
		}
		value = f
	} else {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		value = f
	}

	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return nil
	}
	return &value
}

func displayName(product Product, query string) string {
	if name := strings.TrimSpace(product.ProductName); name != "" {
		return name
	}
	if name := strings.TrimSpace(product.GenericName); name != "" {
		return name
	}
	return query
}
