package storyboard

import (
	"fmt"
	"math"

	"github.com/BillMorio/Video-Agent-sub002/internal/apperr"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// timeEpsilon is the tolerance used when comparing boundaries
const timeEpsilon = 1e-3

// Normalize rewrites estimated timings into a contiguous timeline: scene 1
// starts at 0, every start equals the previous end and indexes run 1..n.
// Each scene keeps its own duration (Duration, else EndTime-StartTime,
// else a speaking-rate estimate of its script).
func Normalize(scenes []model.Scene, wordsPerSecond float64) []model.Scene {
	if wordsPerSecond <= 0 {
		wordsPerSecond = DefaultWordsPerSecond
	}

	out := make([]model.Scene, len(scenes))
	prev := 0.0
	for i, sc := range scenes {
		d := sc.Duration
		if d <= 0 {
			d = sc.EndTime - sc.StartTime
		}
		if d <= 0 {
			d = estimateDuration(sc.Script, wordsPerSecond)
		}

		sc.Index = i + 1
		sc.StartTime = prev
		sc.EndTime = model.RoundTime(prev + d)
		sc.RecomputeDuration()
		if sc.Transition.DurationSeconds <= 0 {
			sc.Transition.DurationSeconds = model.DefaultTransitionDuration
		}
		if sc.Transition.Type == "" {
			sc.Transition.Type = model.TransitionFade
		}

		out[i] = sc
		prev = sc.EndTime
	}
	return out
}

// Validate checks the timeline invariants of a storyboard
func Validate(scenes []model.Scene) error {
	if len(scenes) == 0 {
		return apperr.Validation("storyboard has no scenes", nil)
	}
	if math.Abs(scenes[0].StartTime) > timeEpsilon {
		return invalid(scenes[0], "first scene must start at 0, starts at %.3f", scenes[0].StartTime)
	}

	for i, sc := range scenes {
		if sc.Index != i+1 {
			return invalid(sc, "scene at position %d has index %d", i+1, sc.Index)
		}
		if !sc.VisualType.IsValid() {
			return invalid(sc, "unknown visual type %q", sc.VisualType)
		}
		if sc.EndTime-sc.StartTime <= 0 {
			return invalid(sc, "scene %d has a non-positive duration (%.3f to %.3f)", sc.Index, sc.StartTime, sc.EndTime)
		}
		if i > 0 && math.Abs(sc.StartTime-scenes[i-1].EndTime) > timeEpsilon {
			return invalid(sc, "scene %d starts at %.3f but scene %d ends at %.3f", sc.Index, sc.StartTime, i, scenes[i-1].EndTime)
		}
	}
	return nil
}

func invalid(sc model.Scene, format string, args ...interface{}) error {
	return apperr.Validation(fmt.Sprintf(format, args...), map[string]interface{}{
		"index":     sc.Index,
		"startTime": sc.StartTime,
		"endTime":   sc.EndTime,
	})
}
