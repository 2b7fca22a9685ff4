package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/BillMorio/Video-Agent-sub002/internal/client"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// StockAdapter produces b-roll from stock footage search
type StockAdapter struct {
	searcher client.StockSearcher
	renderer client.MediaRenderer
	conform  bool
}

// NewStockAdapter creates the b-roll adapter. When conform is set the clip
// is retimed to the scene duration through renderer.
func NewStockAdapter(searcher client.StockSearcher, renderer client.MediaRenderer, conform bool) *StockAdapter {
	return &StockAdapter{searcher: searcher, renderer: renderer, conform: conform}
}

// Generate searches for the scene's query and picks the best clip
func (a *StockAdapter) Generate(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*Result, error) {
	query := strings.TrimSpace(scene.Payload.SearchQuery)
	if query == "" {
		return nil, missingPrerequisite("scene %d has no stock search query", scene.Index)
	}

	clip, err := a.searcher.SearchVideo(ctx, pc.APIKey(client.PexelsProviderID, ""), query, scene.Duration, pc.AspectRatio())
	if err != nil {
		return nil, err
	}
	if clip == nil {
		return nil, missingPrerequisite("no results found for query %q", query)
	}

	res := &Result{AssetURL: clip.URL, ThumbnailURL: clip.ThumbnailURL}
	if !a.conform || a.renderer == nil {
		return res, nil
	}

	out, err := a.renderer.ConformSpeed(ctx, clip.URL, scene.Duration)
	if err != nil {
		return nil, fmt.Errorf("failed to conform stock clip to %.2fs: %w", scene.Duration, err)
	}
	res.FinalVideoURL = out.PublicURL
	return res, nil
}
