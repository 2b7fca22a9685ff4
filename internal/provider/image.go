package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/BillMorio/Video-Agent-sub002/internal/client"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// PromptExpander rewrites a short visual idea into a full image prompt
type PromptExpander interface {
	ExpandPrompt(ctx context.Context, apiKey, idea string) (string, error)
}

// ImageAdapter produces still images, optionally animated with a Ken Burns
// move over the scene narration
type ImageAdapter struct {
	poller   *client.Poller
	vendor   client.JobProvider
	expander PromptExpander
	renderer client.MediaRenderer
	storage  client.StorageClient
	kenBurns bool
	poll     PollSettings
}

// ImageOptions are the optional collaborators of the image adapter
type ImageOptions struct {
	Expander PromptExpander
	Renderer client.MediaRenderer
	Storage  client.StorageClient
	KenBurns bool
}

// NewImageAdapter creates the image adapter
func NewImageAdapter(poller *client.Poller, vendor client.JobProvider, poll PollSettings, opts ImageOptions) *ImageAdapter {
	return &ImageAdapter{
		poller:   poller,
		vendor:   vendor,
		expander: opts.Expander,
		renderer: opts.Renderer,
		storage:  opts.Storage,
		kenBurns: opts.KenBurns,
		poll:     poll,
	}
}

// Generate uses the payload image when given, otherwise generates one
func (a *ImageAdapter) Generate(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*Result, error) {
	imageURL := strings.TrimSpace(scene.Payload.ImageURL)
	if imageURL == "" {
		var err error
		imageURL, err = a.generate(ctx, scene, pc)
		if err != nil {
			return nil, err
		}
	}

	res := &Result{AssetURL: imageURL, ThumbnailURL: imageURL}
	if !a.kenBurns || a.renderer == nil {
		return res, nil
	}

	audioURL, err := narrationSegment(ctx, a.renderer, a.storage, scene, pc)
	if err != nil {
		return nil, err
	}
	out, err := a.renderer.KenBurns(ctx, imageURL, audioURL, zoomFor(scene.Index))
	if err != nil {
		return nil, fmt.Errorf("failed to animate image for scene %d: %w", scene.Index, err)
	}
	res.FinalVideoURL = out.PublicURL
	return res, nil
}

func (a *ImageAdapter) generate(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (string, error) {
	prompt := strings.TrimSpace(scene.Payload.Prompt)
	if prompt == "" {
		prompt = strings.TrimSpace(scene.Payload.SearchQuery)
	}
	if prompt == "" {
		return "", missingPrerequisite("scene %d has neither an image url nor a prompt", scene.Index)
	}

	if a.expander != nil {
		expanded, err := a.expander.ExpandPrompt(ctx, pc.APIKey(client.GoogleKeyID, ""), prompt)
		if err != nil {
			log.Warn().Err(err).Str("scene_id", scene.ID).Msg("prompt expansion failed, using the raw prompt")
		} else if expanded != "" {
			prompt = expanded
		}
	}

	job, err := a.poller.Run(ctx, a.vendor, &client.JobRequest{
		APIKey:      pc.APIKey(a.vendor.ID(), ""),
		Prompt:      prompt,
		AspectRatio: pc.AspectRatio(),
	}, a.poll.Interval, a.poll.MaxWait)
	if err != nil {
		return "", err
	}
	return job.ResultURL, nil
}

// zoomFor alternates zoom direction from scene to scene
func zoomFor(index int) string {
	if index%2 == 0 {
		return "out"
	}
	return "in"
}
