package electricproviders

import (
	"time"

	"github.com/bher20/denkiyoho/pkg/demand"
	"github.com/bher20/denkiyoho/pkg/providers"
)

// ElectricProvider is the interface that all demand feed publishers implement.
type ElectricProvider interface {
	providers.Provider

	// Format returns the feed layout with its source URL resolved for the
	// publication day containing now.
	Format(now time.Time) demand.Format
}
