package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Review rating bounds enforced by the schema
const (
	MinRating = 1
	MaxRating = 5
)

// CatalogRecord represents a single catalog item. Records are created by the
// synthetic data generator, validated once on parse, and immutable thereafter.
type CatalogRecord struct {
	ItemID              string   `json:"item_id" db:"item_id"`
	ItemName            string   `json:"item_name" db:"item_name"`
	ItemDescription     string   `json:"item_description" db:"item_description"`
	BrandName           string   `json:"brand_name" db:"brand_name"`
	ManufacturerAddress Address  `json:"manufacturer_address" db:"manufacturer_address"`
	Prices              Prices   `json:"prices" db:"prices"`
	Categories          []string `json:"categories" db:"categories"`
	UserReviews         []Review `json:"user_reviews" db:"user_reviews"`
	Notes               string   `json:"notes" db:"notes"`
}

// Address is the postal address of the item's manufacturer
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Prices holds the full and sale price of an item.
// Sale price is expected to be at or below full price but this is not enforced.
type Prices struct {
	FullPrice float64 `json:"full_price"`
	SalePrice float64 `json:"sale_price"`
}

// Review represents a single user review of an item
type Review struct {
	ReviewDate string  `json:"review_date"`
	Rating     float64 `json:"rating"`
	Comment    string  `json:"comment"`
}

// Validate checks the record for missing required fields and out-of-range values
func (r *CatalogRecord) Validate() error {
	if r.ItemID == "" {
		return fmt.Errorf("item_id is required")
	}
	if r.ItemName == "" {
		return fmt.Errorf("item_name is required: %s", r.ItemID)
	}
	if r.ItemDescription == "" {
		return fmt.Errorf("item_description is required: %s", r.ItemID)
	}
	if r.BrandName == "" {
		return fmt.Errorf("brand_name is required: %s", r.ItemID)
	}
	if r.ManufacturerAddress.Country == "" {
		return fmt.Errorf("manufacturer_address.country is required: %s", r.ItemID)
	}
	if r.Prices.FullPrice < 0 || r.Prices.SalePrice < 0 {
		return fmt.Errorf("prices must be non-negative: %s", r.ItemID)
	}
	if len(r.Categories) == 0 {
		return fmt.Errorf("categories must not be empty: %s", r.ItemID)
	}
	for i, rev := range r.UserReviews {
		if rev.ReviewDate == "" {
			return fmt.Errorf("user_reviews[%d].review_date is required: %s", i, r.ItemID)
		}
		if rev.Rating < MinRating || rev.Rating > MaxRating {
			return fmt.Errorf("user_reviews[%d].rating %.1f out of range [%d,%d]: %s",
				i, rev.Rating, MinRating, MaxRating, r.ItemID)
		}
	}
	return nil
}

// ParseRecords parses raw model output into validated catalog records.
// Parsing fails closed: any malformed record aborts the whole batch and an
// empty slice is returned alongside the error, never a partial result.
func ParseRecords(raw string) ([]CatalogRecord, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty generator output")
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()

	var records []CatalogRecord
	if err := dec.Decode(&records); err != nil {
		// Single-object output is accepted as a batch of one
		dec = json.NewDecoder(strings.NewReader(cleaned))
		dec.DisallowUnknownFields()
		var one CatalogRecord
		if err2 := dec.Decode(&one); err2 != nil {
			return nil, fmt.Errorf("failed to decode records: %w", err)
		}
		records = []CatalogRecord{one}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("generator output contained no records")
	}

	seen := make(map[string]struct{}, len(records))
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return nil, fmt.Errorf("record %d invalid: %w", i, err)
		}
		if _, dup := seen[records[i].ItemID]; dup {
			return nil, fmt.Errorf("duplicate item_id: %s", records[i].ItemID)
		}
		seen[records[i].ItemID] = struct{}{}
	}

	return records, nil
}

// stripCodeFences removes a surrounding markdown code fence from model output
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
