package client

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/BillMorio/Video-Agent-sub002/internal/config"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// PexelsProviderID identifies the stock footage vendor
const PexelsProviderID = "pexels"

// StockSearcher finds stock footage for a query
type StockSearcher interface {
	SearchVideo(ctx context.Context, apiKey, query string, targetDuration float64, aspect string) (*StockClip, error)
}

// PexelsClient implements StockSearcher for the Pexels video API
type PexelsClient struct {
	api    *apiClient
	apiKey string
}

// StockClip is the chosen stock video for a scene
type StockClip struct {
	ID           int64   `json:"id"`
	URL          string  `json:"url"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	Duration     float64 `json:"duration"`
	Quality      string  `json:"quality"`
}

type pexelsSearchResponse struct {
	Videos []pexelsVideo `json:"videos"`
}

type pexelsVideo struct {
	ID         int64             `json:"id"`
	Duration   float64           `json:"duration"`
	Image      string            `json:"image"`
	VideoFiles []pexelsVideoFile `json:"video_files"`
}

type pexelsVideoFile struct {
	Quality string `json:"quality"`
	Link    string `json:"link"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// NewPexelsClient creates a new Pexels API client
func NewPexelsClient(cfg *config.PexelsConfig) *PexelsClient {
	return &PexelsClient{
		api: newAPIClient(PexelsProviderID, cfg.BaseURL, 30*time.Second, cfg.RequestsPerSec, func(req *http.Request, key string) {
			req.Header.Set("Authorization", key)
		}),
		apiKey: cfg.APIKey,
	}
}

// SearchVideo returns the clip whose duration is closest to targetDuration,
// preferring its hd file. It returns nil, nil when nothing matched.
func (c *PexelsClient) SearchVideo(ctx context.Context, apiKey, query string, targetDuration float64, aspect string) (*StockClip, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(10))
	if orientation := orientationFor(aspect); orientation != "" {
		params.Set("orientation", orientation)
	}

	key := apiKey
	if key == "" {
		key = c.apiKey
	}

	var result pexelsSearchResponse
	if _, err := c.api.getJSON(ctx, key, "/v1/videos/search?"+params.Encode(), &result); err != nil {
		return nil, err
	}

	return pickClip(result.Videos, targetDuration), nil
}

// IsConfigured returns true if the client has valid configuration
func (c *PexelsClient) IsConfigured() bool {
	return c.apiKey != ""
}

func pickClip(videos []pexelsVideo, target float64) *StockClip {
	var best *pexelsVideo
	bestDiff := math.MaxFloat64
	for i := range videos {
		if len(videos[i].VideoFiles) == 0 {
			continue
		}
		diff := math.Abs(videos[i].Duration - target)
		if diff < bestDiff {
			best = &videos[i]
			bestDiff = diff
		}
	}
	if best == nil {
		return nil
	}

	file := best.VideoFiles[0]
	for _, f := range best.VideoFiles {
		if f.Quality == "hd" {
			file = f
			break
		}
	}

	return &StockClip{
		ID:           best.ID,
		URL:          file.Link,
		ThumbnailURL: best.Image,
		Duration:     best.Duration,
		Quality:      file.Quality,
	}
}

func orientationFor(aspect string) string {
	switch aspect {
	case model.AspectPortrait:
		return "portrait"
	case model.AspectSquare:
		return "square"
	case model.AspectLandscape:
		return "landscape"
	default:
		return ""
	}
}
