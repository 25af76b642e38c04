// Package summary renders a catalog record into the single natural-language
// paragraph used as its embeddable text. The compiler is pure and
// deterministic: the same record always yields a byte-identical summary.
// A field omitted here is permanently unsearchable by semantic similarity.
package summary

import (
	"strconv"
	"strings"

	"github.com/upb/catalog-assistant/models"
)

// Compile renders a catalog record into its embeddable summary.
// Field order is fixed: provenance, categories, reviews, item description
// and brand, price pair, notes.
func Compile(rec models.CatalogRecord) string {
	var b strings.Builder

	b.WriteString("Made in ")
	b.WriteString(rec.ManufacturerAddress.Country)
	b.WriteString(". ")

	b.WriteString("Categories: ")
	b.WriteString(strings.Join(rec.Categories, ","))
	b.WriteString(". ")

	if len(rec.UserReviews) > 0 {
		b.WriteString("Reviews: ")
		for i, rev := range rec.UserReviews {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString("Rated ")
			b.WriteString(formatNumber(rev.Rating))
			b.WriteString(" on ")
			b.WriteString(rev.ReviewDate)
			b.WriteString(": ")
			b.WriteString(rev.Comment)
		}
		b.WriteString(". ")
	}

	b.WriteString(rec.ItemName)
	b.WriteString(": ")
	b.WriteString(rec.ItemDescription)
	b.WriteString(" by ")
	b.WriteString(rec.BrandName)
	b.WriteString(". ")

	b.WriteString("Price: $")
	b.WriteString(formatNumber(rec.Prices.FullPrice))
	b.WriteString(", on sale for $")
	b.WriteString(formatNumber(rec.Prices.SalePrice))
	b.WriteString(".")

	if rec.Notes != "" {
		b.WriteString(" Notes: ")
		b.WriteString(rec.Notes)
	}

	return b.String()
}

// formatNumber renders a number without trailing zeros ("5", "4.5", "120")
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
