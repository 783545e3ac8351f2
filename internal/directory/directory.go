// Package directory exposes the restaurant directory as a read-only
// collaborator. The engine fetches an active-POI snapshot on each
// re-selection trigger; directory CRUD lives elsewhere in the product.
package directory

import (
	"context"

	"github.com/sells-group/proximity-cli/internal/model"
)

// Directory returns the POIs eligible for proximity monitoring.
type Directory interface {
	ActivePOIs(ctx context.Context) ([]model.PointOfInterest, error)
}
