package provider

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/BillMorio/Video-Agent-sub002/internal/client"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// Downloader fetches a generated file that is not publicly reachable
type Downloader interface {
	Download(ctx context.Context, apiKey, uri string) (io.ReadCloser, error)
}

// GraphicsAdapter produces motion graphics with a text-to-video model
type GraphicsAdapter struct {
	poller     *client.Poller
	vendor     client.JobProvider
	downloader Downloader
	storage    client.StorageClient
	poll       PollSettings
}

// NewGraphicsAdapter creates the graphics adapter. When both downloader and
// storage are set the generated video is copied to storage.
func NewGraphicsAdapter(poller *client.Poller, vendor client.JobProvider, downloader Downloader, storage client.StorageClient, poll PollSettings) *GraphicsAdapter {
	return &GraphicsAdapter{poller: poller, vendor: vendor, downloader: downloader, storage: storage, poll: poll}
}

// Generate submits the scene prompt and waits for the video
func (a *GraphicsAdapter) Generate(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*Result, error) {
	prompt := strings.TrimSpace(scene.Payload.Prompt)
	if prompt == "" {
		return nil, missingPrerequisite("scene %d has no graphics prompt", scene.Index)
	}

	apiKey := pc.APIKey(client.GoogleKeyID, "")
	job, err := a.poller.Run(ctx, a.vendor, &client.JobRequest{
		APIKey:          apiKey,
		Prompt:          prompt,
		AspectRatio:     pc.AspectRatio(),
		DurationSeconds: scene.Duration,
	}, a.poll.Interval, a.poll.MaxWait)
	if err != nil {
		return nil, err
	}

	url := job.ResultURL
	if a.downloader != nil && a.storage != nil {
		url, err = a.store(ctx, apiKey, scene, job.ResultURL)
		if err != nil {
			return nil, err
		}
	}

	return &Result{AssetURL: url, FinalVideoURL: url}, nil
}

func (a *GraphicsAdapter) store(ctx context.Context, apiKey string, scene *model.Scene, uri string) (string, error) {
	body, err := a.downloader.Download(ctx, apiKey, uri)
	if err != nil {
		return "", err
	}
	defer body.Close()

	key := fmt.Sprintf("projects/%s/graphics/scene-%03d.mp4", scene.ProjectID, scene.Index)
	url, err := a.storage.Upload(ctx, key, body, "video/mp4")
	if err != nil {
		return "", fmt.Errorf("failed to store graphics for scene %d: %w", scene.Index, err)
	}
	return url, nil
}
