// Package chemical is the local synchronous label lookup over the embedded
// product dataset. No network involved.
package chemical

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deep-ag/copilot/internal/agent/model"
)

//go:embed data/chemicals.json
var rawDataset []byte

// MaxMatches caps how many label rows a single lookup returns.
const MaxMatches = 3

// Dataset matches products by crop and by pest-keyword or product-name
// substring, in dataset order.
type Dataset struct {
	products []model.ChemicalProduct
}

// Load parses the embedded dataset.
func Load() (*Dataset, error) {
	var products []model.ChemicalProduct
	if err := json.Unmarshal(rawDataset, &products); err != nil {
		return nil, fmt.Errorf("parse chemical dataset: %w", err)
	}
	return &Dataset{products: products}, nil
}

// Lookup returns up to MaxMatches products for the query. When the crop is
// known, products not labelled for it are skipped; a product matches when the
// query mentions one of its target pests or its name.
func (d *Dataset) Lookup(query, crop string) []model.ChemicalProduct {
	queryLower := strings.ToLower(query)
	cropLower := strings.ToLower(crop)

	var matches []model.ChemicalProduct
	for _, product := range d.products {
		if cropLower != "" && cropLower != model.CropUnknown && !labelledFor(product, cropLower) {
			continue
		}
		if !pestMatch(product, queryLower) &&
			!strings.Contains(queryLower, strings.ToLower(product.ProductName)) {
			continue
		}
		matches = append(matches, product)
		if len(matches) == MaxMatches {
			break
		}
	}
	return matches
}

func labelledFor(product model.ChemicalProduct, cropLower string) bool {
	for _, c := range product.Crops {
		if strings.Contains(strings.ToLower(c), cropLower) || strings.Contains(cropLower, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

func pestMatch(product model.ChemicalProduct, queryLower string) bool {
	for _, pest := range product.Pests {
		if strings.Contains(queryLower, strings.ToLower(pest)) {
			return true
		}
	}
	return false
}

var _ model.ChemicalLookup = (*Dataset)(nil)
