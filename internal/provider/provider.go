// Package provider turns a scene into a visual asset. One Adapter exists per
// visual type; the orchestrator looks them up in a Registry.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BillMorio/Video-Agent-sub002/internal/client"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// ErrMissingPrerequisite marks a scene that lacks something generation
// depends on: no search results, no prompt, no master audio. It is a
// permanent failure; retrying without changing the scene cannot help.
var ErrMissingPrerequisite = errors.New("missing prerequisite")

// PrerequisiteError says which prerequisite is missing
type PrerequisiteError struct {
	Reason string
}

func (e *PrerequisiteError) Error() string {
	return e.Reason
}

func (e *PrerequisiteError) Is(target error) bool {
	return target == ErrMissingPrerequisite
}

func missingPrerequisite(format string, args ...interface{}) error {
	return &PrerequisiteError{Reason: fmt.Sprintf(format, args...)}
}

// ErrMissingInput marks a scene parked until the user settles an ambiguity
// the adapter cannot decide on its own, e.g. several equally good matches.
var ErrMissingInput = errors.New("missing input")

// MissingInputError says what decision a scene is waiting for
type MissingInputError struct {
	Reason string
}

func (e *MissingInputError) Error() string {
	return "awaiting input: " + e.Reason
}

func (e *MissingInputError) Is(target error) bool {
	return target == ErrMissingInput
}

// Result holds the URLs an adapter produced for a scene
type Result struct {
	AssetURL      string
	FinalVideoURL string
	ThumbnailURL  string
}

// Adapter produces the asset for one visual type. Implementations hold no
// per-call state and are safe for concurrent use.
type Adapter interface {
	Generate(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*Result, error)
}

// PollSettings bound how a vendor job is awaited
type PollSettings struct {
	Interval time.Duration
	MaxWait  time.Duration
}

// Registry maps visual types to adapters
type Registry struct {
	adapters map[model.VisualType]Adapter
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[model.VisualType]Adapter)}
}

// Register binds an adapter to a visual type, replacing any previous one
func (r *Registry) Register(vt model.VisualType, a Adapter) {
	r.adapters[vt] = a
}

// Get returns the adapter for a visual type
func (r *Registry) Get(vt model.VisualType) (Adapter, error) {
	a, ok := r.adapters[vt]
	if !ok {
		return nil, fmt.Errorf("no provider registered for visual type %q", vt)
	}
	return a, nil
}

// narrationSegment cuts the scene's span out of the project master audio
// and, when storage is configured, mirrors it so vendors can fetch it.
func narrationSegment(ctx context.Context, renderer client.MediaRenderer, storage client.StorageClient, scene *model.Scene, pc *model.ProductionContext) (string, error) {
	if pc == nil || pc.Project == nil || pc.Project.MasterAudioURL == "" {
		return "", missingPrerequisite("project has no master audio to cut scene %d narration from", scene.Index)
	}

	out, err := renderer.TrimAudio(ctx, pc.Project.MasterAudioURL, scene.StartTime, scene.Duration)
	if err != nil {
		return "", fmt.Errorf("failed to cut narration for scene %d: %w", scene.Index, err)
	}
	if storage == nil {
		return out.PublicURL, nil
	}

	key := fmt.Sprintf("projects/%s/narration/scene-%03d", scene.ProjectID, scene.Index)
	url, err := storage.Mirror(ctx, key, out.PublicURL)
	if err != nil {
		return "", fmt.Errorf("failed to store narration for scene %d: %w", scene.Index, err)
	}
	return url, nil
}
