package storyboard

import (
	"math"
	"strings"
	"unicode"

	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// maxQueryWords caps generated stock search queries
const maxQueryWords = 6

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "this": true, "with": true,
	"you": true, "your": true, "are": true, "was": true, "were": true, "have": true,
	"has": true, "had": true, "but": true, "not": true, "from": true, "they": true,
	"their": true, "them": true, "what": true, "when": true, "where": true, "which": true,
	"will": true, "would": true, "could": true, "should": true, "into": true, "about": true,
	"there": true, "here": true, "just": true, "then": true, "than": true, "its": true,
	"our": true, "out": true, "all": true, "can": true, "how": true, "why": true,
}

var directorNotes = map[model.VisualType]string{
	model.VisualARoll:    "Host speaks directly to camera, confident and warm.",
	model.VisualBRoll:    "Supporting footage that shows what the narration describes.",
	model.VisualImage:    "A single striking still that anchors the idea.",
	model.VisualGraphics: "Clean animated text or diagram reinforcing the key point.",
}

// split is the deterministic speaking-rate segmenter. Sentences are packed
// into scenes up to the maximum duration of the scene's visual type; a
// sentence longer than that is cut on word boundaries. Visual types cycle
// through the allowed set.
func (s *Segmenter) split(in *Input) []model.Scene {
	sentences := splitSentences(in.Script)
	total := 0
	for _, sen := range sentences {
		total += len(sen)
	}

	types := in.allowedTypes()
	rate := s.bounds.rate()

	var scenes []model.Scene
	consumed := 0
	prevEnd := 0.0
	for len(sentences) > 0 {
		vt := types[len(scenes)%len(types)]
		maxWords := int(math.Floor(s.bounds.window(vt).Max * rate))
		if maxWords < 1 {
			maxWords = 1
		}

		var cur []string
		for len(sentences) > 0 {
			next := sentences[0]
			if len(cur) == 0 && len(next) > maxWords {
				cur = append(cur, next[:maxWords]...)
				sentences[0] = next[maxWords:]
				break
			}
			if len(cur)+len(next) > maxWords {
				break
			}
			cur = append(cur, next...)
			sentences = sentences[1:]
		}
		consumed += len(cur)

		script := strings.Join(cur, " ")
		duration := estimateDuration(script, rate)
		if len(in.Words) > 0 {
			end := transcriptTime(in.Words, consumed, total)
			if end-prevEnd > 0 {
				duration = model.RoundTime(end - prevEnd)
				prevEnd = end
			} else {
				prevEnd += duration
			}
		}

		scenes = append(scenes, model.Scene{
			Script:       script,
			Duration:     duration,
			VisualType:   vt,
			Payload:      fillPayload(vt, model.VisualPayload{}, script, in.AvatarID),
			DirectorNote: directorNotes[vt],
		})
	}

	applyTransitions(scenes)
	return scenes
}

// transcriptTime maps the end of the consumed-th script token onto the
// transcript. Script and transcript tokenise differently, so the position
// is scaled when their counts disagree.
func transcriptTime(words []model.Word, consumed, total int) float64 {
	if consumed >= total || total == 0 {
		return words[len(words)-1].End
	}
	idx := consumed - 1
	if len(words) != total {
		idx = int(math.Round(float64(consumed)*float64(len(words))/float64(total))) - 1
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(words) {
		idx = len(words) - 1
	}
	return words[idx].End
}

// splitSentences tokenises the script into sentences of words
func splitSentences(script string) [][]string {
	var (
		sentences [][]string
		cur       []string
	)
	for _, w := range strings.Fields(script) {
		cur = append(cur, w)
		if endsSentence(w) {
			sentences = append(sentences, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		sentences = append(sentences, cur)
	}
	return sentences
}

func endsSentence(word string) bool {
	word = strings.TrimRight(word, `"')]”’`)
	return strings.HasSuffix(word, ".") || strings.HasSuffix(word, "!") || strings.HasSuffix(word, "?")
}

func estimateDuration(script string, rate float64) float64 {
	n := len(strings.Fields(script))
	if n == 0 {
		n = 1
	}
	return model.RoundTime(float64(n) / rate)
}

// fillPayload completes the payload fields the visual type needs
func fillPayload(vt model.VisualType, p model.VisualPayload, script, avatarID string) model.VisualPayload {
	switch vt {
	case model.VisualARoll:
		if p.AvatarID == "" {
			p.AvatarID = avatarID
		}
		if p.Scale <= 0 {
			p.Scale = 1.0
		}
	case model.VisualBRoll:
		if p.SearchQuery == "" {
			p.SearchQuery = keywords(script)
		}
	case model.VisualImage:
		if p.ImageURL == "" && p.Prompt == "" && p.SearchQuery == "" {
			p.SearchQuery = keywords(script)
		}
	case model.VisualGraphics:
		if p.Prompt == "" {
			p.Prompt = "Animated motion graphic illustrating: " + strings.TrimSpace(script)
		}
	}
	return p
}

// keywords builds a short stock-search query out of a script line
func keywords(script string) string {
	var picked []string
	for _, w := range strings.Fields(strings.ToLower(script)) {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if len(w) < 3 || stopWords[w] {
			continue
		}
		picked = append(picked, w)
		if len(picked) == maxQueryWords {
			break
		}
	}
	return strings.Join(picked, " ")
}

// applyTransitions fills in missing transitions and restricts light-leak
// to cuts from a-roll into another visual type
func applyTransitions(scenes []model.Scene) {
	for i := range scenes {
		t := &scenes[i].Transition
		if t.DurationSeconds <= 0 {
			t.DurationSeconds = model.DefaultTransitionDuration
		}

		last := i == len(scenes)-1
		leakAllowed := !last &&
			scenes[i].VisualType == model.VisualARoll &&
			scenes[i+1].VisualType != model.VisualARoll

		switch {
		case leakAllowed && (t.Type == "" || t.Type == model.TransitionLightLeak):
			t.Type = model.TransitionLightLeak
		case t.Type == model.TransitionLightLeak:
			t.Type = model.TransitionFade
		case t.Type == "" && last:
			t.Type = model.TransitionNone
		case t.Type == "":
			t.Type = model.TransitionFade
		}
	}
}
