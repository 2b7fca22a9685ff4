package storyboard

import (
	"github.com/rs/zerolog/log"

	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// boundaryEpsilon catches words ending exactly on a boundary
const boundaryEpsilon = 0.01

// SnapToSilence moves every scene boundary into the middle of the silence
// that follows the word it falls on, so no word is cut between two scenes.
//
// Boundaries are visited left to right, once each. For the boundary between
// A and B the first word ending at or after A.EndTime-0.01 is found; the
// boundary moves to the midpoint of the gap to the next word, or to the
// word's end when there is no next word or no gap. A boundary with no
// matching word, or whose move would leave A or B without duration, stays
// where it is. It returns a new slice and the number of moved boundaries.
func SnapToSilence(scenes []model.Scene, words []model.Word) ([]model.Scene, int) {
	out := make([]model.Scene, len(scenes))
	copy(out, scenes)
	if len(out) < 2 || len(words) == 0 {
		return out, 0
	}

	moved := 0
	for i := 0; i < len(out)-1; i++ {
		a, b := &out[i], &out[i+1]

		w := boundaryWord(words, a.EndTime)
		if w < 0 {
			continue
		}

		snap := words[w].End
		if w+1 < len(words) {
			if gap := words[w+1].Start - words[w].End; gap > 0 {
				snap = words[w].End + gap/2
			}
		}
		snap = model.RoundTime(snap)

		if snap-a.StartTime <= 0 || b.EndTime-snap <= 0 {
			log.Debug().Int("scene", a.Index).Float64("snap", snap).Msg("snap skipped, would collapse a scene")
			continue
		}

		if snap != a.EndTime {
			moved++
		}
		a.EndTime = snap
		b.StartTime = snap
		a.RecomputeDuration()
		b.RecomputeDuration()
	}
	return out, moved
}

func boundaryWord(words []model.Word, end float64) int {
	for i, w := range words {
		if w.End >= end-boundaryEpsilon {
			return i
		}
	}
	return -1
}
