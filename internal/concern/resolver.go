package concern

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mjoris/plaquier/internal/catalog"
	"github.com/mjoris/plaquier/pkg/labelkey"
)

// Resolver turns free-text relationship rows into canonical concerns using
// the catalog cache.
type Resolver struct {
	catalog *catalog.Cache
	logger  *slog.Logger
}

// NewResolver constructs a Resolver over the shared catalog cache.
func NewResolver(cache *catalog.Cache, logger *slog.Logger) *Resolver {
	return &Resolver{catalog: cache, logger: logger}
}

// Resolve maps every non-blank row onto a [Concern].
//
// # Totality
//
// The result is all-or-nothing: either every row resolves and the concerns
// are returned, or the full list of row errors is returned so the operator
// sees every problem at once instead of fixing them one submission at a time.
//
// # Pose
//
// A blank or non-positive pose defaults to 1; fractional input is floored and
// clamped to a minimum of 1.
func (resolver *Resolver) Resolve(context context.Context, rows []Row) ([]Concern, []RowError) {
	clients := resolver.catalog.Load(context, catalog.KindClient)
	products := resolver.catalog.Load(context, catalog.KindProduct)

	var concerns []Concern
	var rowErrors []RowError

	index := 0
	for _, row := range rows {
		if row.blank() {
			continue
		}
		index++

		clientID := resolver.resolveSide(row.ClientID, row.ClientText, clients)
		productID := resolver.resolveSide(row.ProductID, row.ProductText, products)

		if clientID == "" {
			rowErrors = append(rowErrors, RowError{Index: index, Side: SideClient, Text: row.ClientText})
		}
		if productID == "" {
			rowErrors = append(rowErrors, RowError{Index: index, Side: SideProduct, Text: row.ProductText})
		}
		if clientID == "" || productID == "" {
			continue
		}

		concerns = append(concerns, Concern{
			ClientID:  clientID,
			ProductID: productID,
			Pose:      normalizePose(row.Pose),
		})
	}

	if len(rowErrors) > 0 {
		resolver.logger.Info("concern_resolution_failed",
			slog.Int("rows", index),
			slog.Int("errors", len(rowErrors)),
		)
		return nil, rowErrors
	}

	return concerns, nil
}

// resolveSide returns the canonical id for one side of a row.
//
// A bound id from a selected suggestion wins outright; otherwise the text is
// matched against the catalog by exact label, ignoring case and accents.
func (resolver *Resolver) resolveSide(boundID, text string, entities []catalog.Entity) string {
	if trimmed := strings.TrimSpace(boundID); trimmed != "" {
		return trimmed
	}

	if strings.TrimSpace(text) == "" {
		return ""
	}

	for _, entity := range entities {
		if labelkey.Equal(entity.DisplayName, text) {
			return entity.ID
		}
	}
	return ""
}

// normalizePose floors the raw pose and clamps it to a minimum of 1.
func normalizePose(raw float64) int {
	pose := int(raw)
	if pose < 1 {
		return 1
	}
	return pose
}
