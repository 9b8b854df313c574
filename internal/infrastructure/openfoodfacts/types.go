package openfoodfacts

import "encoding/json"

// SearchResponse is the subset of the cgi/search.pl JSON response we read
type SearchResponse struct {
	Count    int       `json:"count"`
	PageSize int       `json:"page_size"`
	Products []Product `json:"products"`
}

// Product is one search candidate. Nutriments is kept raw because the API
// sometimes sends an empty array instead of an object.
type Product struct {
	Code        string          `json:"code,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	GenericName string          `json:"generic_name,omitempty"`
	Nutriments  json.RawMessage `json:"nutriments,omitempty"`
}

// Nutriment keys, per 100g
const (
	KeyEnergyKcal100g = "energy-kcal_100g"
	KeyEnergy100g     = "energy_100g"
	KeyProteins100g   = "proteins_100g"
	KeyProtein100g    = "protein_100g"
)
