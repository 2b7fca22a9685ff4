package storyboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog/log"

	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// plannedStoryboard is the structured output requested from the model
type plannedStoryboard struct {
	Scenes []plannedScene `json:"scenes" jsonschema_description:"Sequential scenes covering the whole script without gaps or overlaps."`
}

type plannedScene struct {
	Script       string  `json:"script" jsonschema_description:"The exact part of the script narrated during this scene."`
	StartTime    float64 `json:"startTime" jsonschema_description:"Scene start in seconds. Scene 1 starts at 0; every other scene starts at the previous scene's end."`
	EndTime      float64 `json:"endTime" jsonschema_description:"Scene end in seconds."`
	VisualType   string  `json:"visualType" jsonschema:"enum=a-roll,enum=b-roll,enum=graphics,enum=image"`
	DirectorNote string  `json:"directorNote" jsonschema_description:"Specific, actionable note on tone and visual intent."`
	AvatarID     string  `json:"avatarId" jsonschema_description:"a-roll only: avatar identifier, empty otherwise."`
	Scale        float64 `json:"scale" jsonschema_description:"a-roll only: framing between 1.0 (medium shot) and 2.0 (close-up), 0 otherwise."`
	SearchQuery  string  `json:"searchQuery" jsonschema_description:"b-roll and image: a highly descriptive stock search query, empty otherwise."`
	Prompt       string  `json:"prompt" jsonschema_description:"graphics only: a description of the animation, empty otherwise."`
	Transition   string  `json:"transition" jsonschema:"enum=fade,enum=crossfade,enum=wipe,enum=dissolve,enum=light-leak,enum=none"`
}

// generateSchema reflects T into a strict JSON schema
func generateSchema[T any]() interface{} {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var storyboardSchema = generateSchema[plannedStoryboard]()

// OpenAIPlanner asks a chat model for a storyboard with structured outputs
type OpenAIPlanner struct {
	client openai.Client
	model  string
}

// NewOpenAIPlanner creates a planner. baseURL may be empty.
func NewOpenAIPlanner(apiKey, baseURL, chatModel string, opts ...option.RequestOption) *OpenAIPlanner {
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)
	if chatModel == "" {
		chatModel = openai.ChatModelGPT4oMini
	}
	return &OpenAIPlanner{client: openai.NewClient(reqOpts...), model: chatModel}
}

// Plan requests a storyboard for in.Script
func (p *OpenAIPlanner) Plan(ctx context.Context, in *Input, bounds Bounds) ([]model.Scene, error) {
	resp, err := getStructuredResponse[plannedStoryboard](ctx, p.client, p.model, plannerPrompt(in, bounds), userPrompt(in), storyboardSchema)
	if err != nil {
		return nil, err
	}

	log.Info().Str("project_id", in.ProjectID).Int("scenes", len(resp.Scenes)).Msg("storyboard planned")

	scenes := make([]model.Scene, 0, len(resp.Scenes))
	for _, ps := range resp.Scenes {
		scenes = append(scenes, model.Scene{
			Script:       strings.TrimSpace(ps.Script),
			StartTime:    ps.StartTime,
			EndTime:      ps.EndTime,
			Duration:     ps.EndTime - ps.StartTime,
			VisualType:   model.VisualType(ps.VisualType),
			DirectorNote: ps.DirectorNote,
			Payload: model.VisualPayload{
				AvatarID:    ps.AvatarID,
				Scale:       ps.Scale,
				SearchQuery: ps.SearchQuery,
				Prompt:      ps.Prompt,
			},
			Transition: model.Transition{Type: model.TransitionType(ps.Transition)},
		})
	}
	return scenes, nil
}

func plannerPrompt(in *Input, b Bounds) string {
	types := in.allowedTypes()
	names := make([]string, len(types))
	var limits strings.Builder
	for i, vt := range types {
		names[i] = string(vt)
		w := b.window(vt)
		if w.Min > 0 {
			fmt.Fprintf(&limits, "- %s: %.0fs - %.0fs.\n", vt, w.Min, w.Max)
		} else {
			fmt.Fprintf(&limits, "- %s: max %.0fs.\n", vt, w.Max)
		}
	}

	timing := fmt.Sprintf("Estimate startTime and endTime from the length of each script segment, assuming %.1f words per second.", b.rate())
	if len(in.Words) > 0 {
		timing = "startTime and endTime must match the word-level timestamps provided."
	}

	return fmt.Sprintf(`You are an expert video director and storyboard artist.
Segment the narration script into a professional video storyboard.

%s

SEQUENTIAL CONTINUITY:
- Scene 1 starts at 0.0.
- Every scene n starts exactly at scene n-1's endTime.
- The scenes cover the entire script.

VISUAL TYPES ALLOWED: [%s].

SCENE DURATION LIMITS:
%s
TRANSITIONS describe the cut into the NEXT scene. Use light-leak ONLY when an a-roll scene is followed by b-roll, image or graphics. Use fade or none otherwise.`,
		timing, strings.Join(names, ", "), limits.String())
}

func userPrompt(in *Input) string {
	if len(in.Words) == 0 {
		return "Script: " + in.Script
	}
	words, _ := json.Marshal(in.Words)
	return fmt.Sprintf("Script: %s\n\nTimestamps: %s", in.Script, words)
}

// getStructuredResponse calls the chat completions API with JSON schema
// enforcement and decodes the answer into T
func getStructuredResponse[T any](ctx context.Context, client openai.Client, chatModel, system, prompt string, schema interface{}) (*T, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "storyboard",
		Description: openai.String("Sequential video storyboard"),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}

	completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(chatModel),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no response from openai")
	}

	raw := completion.Choices[0].Message.Content
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to parse planner response: %w", err)
	}
	return &out, nil
}
