// Package storyboard turns a narration script into timed scenes.
//
// The Segmenter either asks a Planner (an LLM) for a proposal or falls back
// to a deterministic speaking-rate split. Proposals are always normalised
// into a contiguous timeline starting at zero. SnapToSilence then moves
// each boundary into the silence between two transcript words.
package storyboard

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/BillMorio/Video-Agent-sub002/internal/apperr"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// DefaultWordsPerSecond is a professional speaking rate of ~130 wpm
const DefaultWordsPerSecond = 2.1

// Range is a duration window in seconds. Zero Min means no lower bound.
type Range struct {
	Min float64
	Max float64
}

// Bounds holds the speaking rate and the per-type duration windows
type Bounds struct {
	WordsPerSecond float64
	Durations      map[model.VisualType]Range
}

// DefaultBounds returns the stock duration windows
func DefaultBounds() Bounds {
	return Bounds{
		WordsPerSecond: DefaultWordsPerSecond,
		Durations: map[model.VisualType]Range{
			model.VisualARoll:    {Max: 4},
			model.VisualBRoll:    {Min: 3, Max: 8},
			model.VisualImage:    {Min: 3, Max: 10},
			model.VisualGraphics: {Min: 3, Max: 15},
		},
	}
}

func (b Bounds) rate() float64 {
	if b.WordsPerSecond <= 0 {
		return DefaultWordsPerSecond
	}
	return b.WordsPerSecond
}

func (b Bounds) window(vt model.VisualType) Range {
	if r, ok := b.Durations[vt]; ok && r.Max > 0 {
		return r
	}
	return DefaultBounds().Durations[vt]
}

// Input is what a storyboard is built from
type Input struct {
	ProjectID   string
	Script      string
	Words       []model.Word
	VisualTypes []model.VisualType
	AvatarID    string
}

func (in *Input) allowedTypes() []model.VisualType {
	var types []model.VisualType
	for _, vt := range in.VisualTypes {
		if vt.IsValid() {
			types = append(types, vt)
		}
	}
	if len(types) == 0 {
		return model.ValidVisualTypes
	}
	return types
}

// Planner proposes scenes for a script. Timings in the proposal are
// estimates; the Segmenter normalises them.
type Planner interface {
	Plan(ctx context.Context, in *Input, bounds Bounds) ([]model.Scene, error)
}

// Segmenter builds storyboards
type Segmenter struct {
	bounds  Bounds
	planner Planner
}

// NewSegmenter creates a segmenter. planner may be nil.
func NewSegmenter(bounds Bounds, planner Planner) *Segmenter {
	return &Segmenter{bounds: bounds, planner: planner}
}

// Bounds returns the configured duration windows
func (s *Segmenter) Bounds() Bounds {
	return s.bounds
}

// Segment builds a normalised storyboard. When usePlanner is set and a
// planner is configured its proposal is used; if it fails the deterministic
// split takes over.
func (s *Segmenter) Segment(ctx context.Context, in *Input, usePlanner bool) ([]model.Scene, error) {
	if strings.TrimSpace(in.Script) == "" {
		return nil, apperr.Validation("script is empty", nil)
	}

	var scenes []model.Scene
	if usePlanner && s.planner != nil {
		planned, err := s.planner.Plan(ctx, in, s.bounds)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("project_id", in.ProjectID).Msg("storyboard planner failed, using speaking-rate split")
		case len(planned) == 0:
			log.Warn().Str("project_id", in.ProjectID).Msg("storyboard planner returned no scenes, using speaking-rate split")
		default:
			scenes = s.conform(planned, in)
		}
	}
	if scenes == nil {
		scenes = s.split(in)
	}

	scenes = Normalize(scenes, s.bounds.rate())
	assignIdentity(scenes, in.ProjectID)
	return scenes, nil
}

// conform replaces planner output the service cannot produce: visual types
// outside the allowed set and empty payloads.
func (s *Segmenter) conform(planned []model.Scene, in *Input) []model.Scene {
	allowed := in.allowedTypes()
	ok := make(map[model.VisualType]bool, len(allowed))
	for _, vt := range allowed {
		ok[vt] = true
	}

	out := make([]model.Scene, 0, len(planned))
	for i, sc := range planned {
		if strings.TrimSpace(sc.Script) == "" {
			continue
		}
		if !ok[sc.VisualType] {
			sc.VisualType = allowed[i%len(allowed)]
		}
		sc.Payload = fillPayload(sc.VisualType, sc.Payload, sc.Script, in.AvatarID)
		out = append(out, sc)
	}
	applyTransitions(out)
	return out
}

func assignIdentity(scenes []model.Scene, projectID string) {
	for i := range scenes {
		if scenes[i].ID == "" {
			scenes[i].ID = uuid.New().String()
		}
		scenes[i].ProjectID = projectID
		if scenes[i].Status == "" {
			scenes[i].Status = model.SceneTodo
		}
	}
}

// TotalDuration is the end of the last scene
func TotalDuration(scenes []model.Scene) float64 {
	if len(scenes) == 0 {
		return 0
	}
	return scenes[len(scenes)-1].EndTime
}
