package autoindex

import (
	"context"
	"fmt"

	"github.com/starford/autoindex/internal/models"
)

// FetchDetail returns the detail record for pageID. A nil or zero id yields
// no detail without a request; an unknown id yields nil from the API.
func FetchDetail(ctx context.Context, src Source, pageID *int) (*models.PageDetail, error) {
	if pageID == nil || *pageID == 0 {
		return nil, nil
	}
	d, err := src.Single(ctx, *pageID)
	if err != nil {
		return nil, fmt.Errorf("autoindex: detail %d: %w", *pageID, err)
	}
	return d, nil
}
