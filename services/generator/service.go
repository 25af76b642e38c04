// Package generator produces schema-conforming synthetic catalog records by
// prompting a generative model. This path runs offline at setup time; a
// generation or parse failure degrades to an empty set rather than raising.
package generator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/upb/catalog-assistant/models"
	"github.com/upb/catalog-assistant/services/providers"
	"go.uber.org/zap"
)

// Service generates synthetic catalog records
type Service struct {
	chat   providers.ChatClient
	logger *zap.Logger
}

// NewService creates a new generator service
func NewService(chat providers.ChatClient, logger *zap.Logger) *Service {
	return &Service{
		chat:   chat,
		logger: logger,
	}
}

// Generate asks the model for count schema-conforming records and validates
// the raw output. On any generation or parse failure it logs and returns an
// empty slice: malformed records never propagate downstream.
func (s *Service) Generate(ctx context.Context, count int) []models.CatalogRecord {
	if count <= 0 {
		return nil
	}

	prompt := fmt.Sprintf(
		"Generate %d synthetic furniture catalog records for an online store. "+
			"Vary brands, categories, prices and review sentiment.\n\n%s",
		count, FormatInstructions(),
	)

	raw, err := s.chat.Complete(ctx, []providers.Message{
		{Role: providers.RoleSystem, Content: "You generate structured test data. Reply with JSON only, no prose."},
		{Role: providers.RoleUser, Content: prompt},
	})
	if err != nil {
		s.logger.Warn("record generation failed", zap.Error(err))
		return []models.CatalogRecord{}
	}

	records, err := models.ParseRecords(raw)
	if err != nil {
		s.logger.Warn("generated records failed validation, dropping batch", zap.Error(err))
		return []models.CatalogRecord{}
	}

	s.logger.Info("synthetic records generated", zap.Int("count", len(records)))
	return records
}

// FormatInstructions returns the serialization contract sent to the model.
// It is derived from the record schema itself so schema changes regenerate
// the contract instead of drifting from a hand-written copy.
func FormatInstructions() string {
	example := models.CatalogRecord{
		ItemID:          "SKU123",
		ItemName:        "Oak Chair",
		ItemDescription: "A sturdy oak dining chair with a curved back.",
		BrandName:       "Northwood",
		ManufacturerAddress: models.Address{
			Street:     "12 Mill Road",
			City:       "Portland",
			State:      "OR",
			PostalCode: "97201",
			Country:    "USA",
		},
		Prices:     models.Prices{FullPrice: 120, SalePrice: 90},
		Categories: []string{"chairs", "oak"},
		UserReviews: []models.Review{
			{ReviewDate: "2024-01-01", Rating: 5, Comment: "sturdy"},
		},
		Notes: "limited edition",
	}

	schema, _ := json.MarshalIndent([]models.CatalogRecord{example}, "", "  ")

	return fmt.Sprintf(
		"Return a JSON array of records matching this example exactly in structure and field names. "+
			"All fields are required, prices are non-negative numbers, ratings are between %d and %d:\n%s",
		models.MinRating, models.MaxRating, schema,
	)
}
