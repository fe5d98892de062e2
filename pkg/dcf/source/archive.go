package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

// RunHoldings is the part of the run archive ArchiveSource needs.
type RunHoldings interface {
	Holdings(ctx context.Context, runID string) ([]types.Holding, error)
}

// ArchiveSource replays the holdings of an archived run so it can be valued
// again with today's data.
type ArchiveSource struct {
	Store RunHoldings
}

// Load expects spec to be a run ID.
func (s ArchiveSource) Load(ctx context.Context, runID string) ([]types.Holding, error) {
	if s.Store == nil {
		return nil, fmt.Errorf("archive source: no store configured")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("archive source: empty run id")
	}
	hs, err := s.Store.Holdings(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return hs, nil
}
