package provider

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/BillMorio/Video-Agent-sub002/internal/client"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// AvatarAdapter produces a-roll: a talking avatar lip-synced to the scene's
// narration segment
type AvatarAdapter struct {
	poller   *client.Poller
	vendor   client.JobProvider
	renderer client.MediaRenderer
	storage  client.StorageClient
	poll     PollSettings
}

// NewAvatarAdapter creates the a-roll adapter. storage may be nil.
func NewAvatarAdapter(poller *client.Poller, vendor client.JobProvider, renderer client.MediaRenderer, storage client.StorageClient, poll PollSettings) *AvatarAdapter {
	return &AvatarAdapter{poller: poller, vendor: vendor, renderer: renderer, storage: storage, poll: poll}
}

// Generate cuts the narration, submits the avatar job and waits for it
func (a *AvatarAdapter) Generate(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*Result, error) {
	audioURL, err := narrationSegment(ctx, a.renderer, a.storage, scene, pc)
	if err != nil {
		return nil, err
	}

	log.Info().Str("scene_id", scene.ID).Str("audio_url", audioURL).Msg("a-roll narration ready")

	job, err := a.poller.Run(ctx, a.vendor, &client.JobRequest{
		APIKey:      pc.APIKey(a.vendor.ID(), ""),
		AvatarID:    scene.Payload.AvatarID,
		AvatarScale: scene.Payload.Scale,
		AudioURL:    audioURL,
		AspectRatio: pc.AspectRatio(),
	}, a.poll.Interval, a.poll.MaxWait)
	if err != nil {
		return nil, err
	}

	return &Result{
		AssetURL:      job.ResultURL,
		FinalVideoURL: job.ResultURL,
		ThumbnailURL:  job.ThumbnailURL,
	}, nil
}
