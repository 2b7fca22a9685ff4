package model

import (
	"math"
	"time"
)

// Scene is one timed segment of the output video
type Scene struct {
	ID            string        `json:"id"`
	ProjectID     string        `json:"projectId"`
	Index         int           `json:"index"`
	StartTime     float64       `json:"startTime"`
	EndTime       float64       `json:"endTime"`
	Duration      float64       `json:"duration"`
	Script        string        `json:"script"`
	VisualType    VisualType    `json:"visualType"`
	Payload       VisualPayload `json:"visualPayload"`
	Status        SceneStatus   `json:"status"`
	AssetURL      string        `json:"assetUrl,omitempty"`
	FinalVideoURL string        `json:"finalVideoUrl,omitempty"`
	ThumbnailURL  string        `json:"thumbnailUrl,omitempty"`
	DirectorNote  string        `json:"directorNote,omitempty"`
	LastError     string        `json:"lastError,omitempty"`
	InputResolved bool          `json:"inputResolved,omitempty"`
	Transition    Transition    `json:"transition"`
	Version       int64         `json:"version"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// VisualPayload carries the per-type generation input. Only the fields of
// the scene's visual type are meaningful.
type VisualPayload struct {
	// a-roll
	AvatarID string  `json:"avatarId,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	// b-roll and image search
	SearchQuery string `json:"searchQuery,omitempty"`
	// graphics and generated image
	Prompt string `json:"prompt,omitempty"`
	// image supplied by the user
	ImageURL string `json:"imageUrl,omitempty"`
}

// Transition describes the cut into the next scene
type Transition struct {
	Type            TransitionType `json:"type"`
	DurationSeconds float64        `json:"durationSeconds"`
}

// Word is a transcript token with timing in seconds
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ResolvedURL returns the asset used for stitching, preferring the
// post-processed video
func (s *Scene) ResolvedURL() string {
	if s.FinalVideoURL != "" {
		return s.FinalVideoURL
	}
	return s.AssetURL
}

// RecomputeDuration sets Duration from the interval bounds
func (s *Scene) RecomputeDuration() {
	s.Duration = RoundTime(s.EndTime - s.StartTime)
}

// RoundTime trims float noise to the millisecond
func RoundTime(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// SceneUpdate is a partial scene write. Nil fields are left untouched.
type SceneUpdate struct {
	Status        *SceneStatus   `json:"status,omitempty"`
	AssetURL      *string        `json:"assetUrl,omitempty"`
	FinalVideoURL *string        `json:"finalVideoUrl,omitempty"`
	ThumbnailURL  *string        `json:"thumbnailUrl,omitempty"`
	LastError     *string        `json:"lastError,omitempty"`
	Script        *string        `json:"script,omitempty"`
	StartTime     *float64       `json:"startTime,omitempty"`
	EndTime       *float64       `json:"endTime,omitempty"`
	Payload       *VisualPayload `json:"visualPayload,omitempty"`
	Transition    *Transition    `json:"transition,omitempty"`
	DirectorNote  *string        `json:"directorNote,omitempty"`
	InputResolved *bool          `json:"inputResolved,omitempty"`
}

// Apply writes the non-nil fields onto s and recomputes its duration
func (u SceneUpdate) Apply(s *Scene) {
	if u.Status != nil {
		s.Status = *u.Status
	}
	if u.AssetURL != nil {
		s.AssetURL = *u.AssetURL
	}
	if u.FinalVideoURL != nil {
		s.FinalVideoURL = *u.FinalVideoURL
	}
	if u.ThumbnailURL != nil {
		s.ThumbnailURL = *u.ThumbnailURL
	}
	if u.LastError != nil {
		s.LastError = *u.LastError
	}
	if u.Script != nil {
		s.Script = *u.Script
	}
	if u.StartTime != nil {
		s.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		s.EndTime = *u.EndTime
	}
	if u.Payload != nil {
		s.Payload = *u.Payload
	}
	if u.Transition != nil {
		s.Transition = *u.Transition
	}
	if u.DirectorNote != nil {
		s.DirectorNote = *u.DirectorNote
	}
	if u.InputResolved != nil {
		s.InputResolved = *u.InputResolved
	}
	s.RecomputeDuration()
}

// Ptr returns a pointer to v, for building partial updates
func Ptr[T any](v T) *T {
	return &v
}
