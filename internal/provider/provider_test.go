package provider

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BillMorio/Video-Agent-sub002/internal/client"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

var fastPoll = PollSettings{Interval: time.Millisecond, MaxWait: time.Second}

type fakeVendor struct {
	id      string
	result  string
	thumb   string
	lastReq *client.JobRequest
}

func (v *fakeVendor) ID() string { return v.id }

func (v *fakeVendor) Submit(ctx context.Context, req *client.JobRequest) (*model.RenderJob, error) {
	v.lastReq = req
	return &model.RenderJob{ExternalJobID: "job", Status: model.JobCreated}, nil
}

func (v *fakeVendor) Poll(ctx context.Context, apiKey, id string) (*model.RenderJob, error) {
	return &model.RenderJob{Status: model.JobCompleted, ResultURL: v.result, ThumbnailURL: v.thumb}, nil
}

type fakeRenderer struct {
	trimmed   []float64
	kenBurns  string
	speedErr  error
	stitchReq *client.StitchRequest
}

func (r *fakeRenderer) TrimAudio(ctx context.Context, src string, start, duration float64) (*client.RenderOutput, error) {
	r.trimmed = []float64{start, duration}
	return &client.RenderOutput{PublicURL: "https://render/seg.mp3"}, nil
}

func (r *fakeRenderer) ConformSpeed(ctx context.Context, src string, target float64) (*client.RenderOutput, error) {
	if r.speedErr != nil {
		return nil, r.speedErr
	}
	return &client.RenderOutput{PublicURL: "https://render/conformed.mp4"}, nil
}

func (r *fakeRenderer) KenBurns(ctx context.Context, image, audio, zoom string) (*client.RenderOutput, error) {
	r.kenBurns = image + "|" + audio + "|" + zoom
	return &client.RenderOutput{PublicURL: "https://render/kb.mp4"}, nil
}

func (r *fakeRenderer) Stitch(ctx context.Context, req *client.StitchRequest) (*client.StitchResponse, error) {
	r.stitchReq = req
	return &client.StitchResponse{PublicURL: "https://render/master.mp4"}, nil
}

type fakeStorage struct {
	mirrored map[string]string
	uploaded map[string]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{mirrored: map[string]string{}, uploaded: map[string]string{}}
}

func (s *fakeStorage) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	data, _ := io.ReadAll(body)
	s.uploaded[key] = string(data)
	return "https://r2/" + key, nil
}

func (s *fakeStorage) Mirror(ctx context.Context, prefix, src string) (string, error) {
	s.mirrored[prefix] = src
	return "https://r2/" + prefix + ".mp3", nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error { return nil }

func (s *fakeStorage) GetPublicURL(key string) string { return "https://r2/" + key }

type fakeSearcher struct {
	clip *client.StockClip
	key  string
}

func (s *fakeSearcher) SearchVideo(ctx context.Context, apiKey, query string, target float64, aspect string) (*client.StockClip, error) {
	s.key = apiKey
	return s.clip, nil
}

type fakeExpander struct{ err error }

func (e *fakeExpander) ExpandPrompt(ctx context.Context, apiKey, idea string) (string, error) {
	if e.err != nil {
		return idea, e.err
	}
	return "cinematic " + idea, nil
}

type fakeDownloader struct{}

func (fakeDownloader) Download(ctx context.Context, apiKey, uri string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("mp4-bytes")), nil
}

func testScene(vt model.VisualType, payload model.VisualPayload) *model.Scene {
	return &model.Scene{
		ID: "scene-1", ProjectID: "proj-1", Index: 3,
		StartTime: 8, EndTime: 12, Duration: 4,
		VisualType: vt, Payload: payload, Status: model.SceneProcessing,
	}
}

func testContext(masterAudio string, overrides map[string]string) *model.ProductionContext {
	return &model.ProductionContext{
		Project: &model.Project{ID: "proj-1", AspectRatio: model.AspectPortrait, MasterAudioURL: masterAudio},
		Memory:  &model.ProjectMemory{Metadata: model.MemoryMetadata{APIKeyOverrides: overrides}},
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	stock := NewStockAdapter(&fakeSearcher{}, nil, false)
	r.Register(model.VisualBRoll, stock)

	got, err := r.Get(model.VisualBRoll)
	require.NoError(t, err)
	assert.Same(t, stock, got)

	_, err = r.Get(model.VisualGraphics)
	assert.Error(t, err)
}

func TestAvatarAdapter(t *testing.T) {
	vendor := &fakeVendor{id: client.HeyGenProviderID, result: "https://heygen/v.mp4", thumb: "https://heygen/t.jpg"}
	renderer := &fakeRenderer{}
	storage := newFakeStorage()
	a := NewAvatarAdapter(client.NewPoller(), vendor, renderer, storage, fastPoll)

	scene := testScene(model.VisualARoll, model.VisualPayload{AvatarID: "av-1", Scale: 1.2})
	res, err := a.Generate(context.Background(), scene, testContext("https://cdn/master.mp3", map[string]string{"heygen": "proj-key"}))
	require.NoError(t, err)

	assert.Equal(t, "https://heygen/v.mp4", res.AssetURL)
	assert.Equal(t, "https://heygen/v.mp4", res.FinalVideoURL)
	assert.Equal(t, "https://heygen/t.jpg", res.ThumbnailURL)
	assert.Equal(t, []float64{8, 4}, renderer.trimmed)
	assert.Equal(t, "https://render/seg.mp3", storage.mirrored["projects/proj-1/narration/scene-003"])

	require.NotNil(t, vendor.lastReq)
	assert.Equal(t, "proj-key", vendor.lastReq.APIKey)
	assert.Equal(t, "av-1", vendor.lastReq.AvatarID)
	assert.Equal(t, "https://r2/projects/proj-1/narration/scene-003.mp3", vendor.lastReq.AudioURL)
	assert.Equal(t, model.AspectPortrait, vendor.lastReq.AspectRatio)
}

func TestAvatarAdapterWithoutMasterAudio(t *testing.T) {
	a := NewAvatarAdapter(client.NewPoller(), &fakeVendor{id: "heygen"}, &fakeRenderer{}, nil, fastPoll)
	_, err := a.Generate(context.Background(), testScene(model.VisualARoll, model.VisualPayload{}), testContext("", nil))
	assert.True(t, errors.Is(err, ErrMissingPrerequisite))
	assert.False(t, errors.Is(err, ErrMissingInput))
}

func TestStockAdapter(t *testing.T) {
	searcher := &fakeSearcher{clip: &client.StockClip{URL: "https://pexels/c.mp4", ThumbnailURL: "https://pexels/c.jpg"}}

	t.Run("plain clip", func(t *testing.T) {
		a := NewStockAdapter(searcher, nil, false)
		res, err := a.Generate(context.Background(), testScene(model.VisualBRoll, model.VisualPayload{SearchQuery: "rain"}), testContext("", nil))
		require.NoError(t, err)
		assert.Equal(t, "https://pexels/c.mp4", res.AssetURL)
		assert.Equal(t, "https://pexels/c.jpg", res.ThumbnailURL)
		assert.Empty(t, res.FinalVideoURL)
	})

	t.Run("conformed clip", func(t *testing.T) {
		a := NewStockAdapter(searcher, &fakeRenderer{}, true)
		res, err := a.Generate(context.Background(), testScene(model.VisualBRoll, model.VisualPayload{SearchQuery: "rain"}), testContext("", nil))
		require.NoError(t, err)
		assert.Equal(t, "https://render/conformed.mp4", res.FinalVideoURL)
	})

	t.Run("conform failure fails the scene", func(t *testing.T) {
		a := NewStockAdapter(searcher, &fakeRenderer{speedErr: &client.BackendError{StatusCode: 500, Message: "speed failed"}}, true)
		_, err := a.Generate(context.Background(), testScene(model.VisualBRoll, model.VisualPayload{SearchQuery: "rain"}), testContext("", nil))
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrMissingPrerequisite))
		assert.Contains(t, err.Error(), "speed failed")
	})

	t.Run("empty query fails the scene", func(t *testing.T) {
		a := NewStockAdapter(searcher, nil, false)
		_, err := a.Generate(context.Background(), testScene(model.VisualBRoll, model.VisualPayload{}), testContext("", nil))
		assert.True(t, errors.Is(err, ErrMissingPrerequisite))
		assert.False(t, errors.Is(err, ErrMissingInput))
	})

	t.Run("no results fails the scene", func(t *testing.T) {
		a := NewStockAdapter(&fakeSearcher{}, nil, false)
		_, err := a.Generate(context.Background(), testScene(model.VisualBRoll, model.VisualPayload{SearchQuery: "zzz"}), testContext("", nil))
		assert.True(t, errors.Is(err, ErrMissingPrerequisite))
		assert.False(t, errors.Is(err, ErrMissingInput))
		assert.Contains(t, err.Error(), "zzz")
	})
}

func TestGraphicsAdapterStoresVideo(t *testing.T) {
	vendor := &fakeVendor{id: client.VeoProviderID, result: "https://generativelanguage/files/v"}
	storage := newFakeStorage()
	a := NewGraphicsAdapter(client.NewPoller(), vendor, fakeDownloader{}, storage, fastPoll)

	res, err := a.Generate(context.Background(), testScene(model.VisualGraphics, model.VisualPayload{Prompt: "glowing chart"}), testContext("", map[string]string{"google": "g-key"}))
	require.NoError(t, err)
	assert.Equal(t, "https://r2/projects/proj-1/graphics/scene-003.mp4", res.AssetURL)
	assert.Equal(t, res.AssetURL, res.FinalVideoURL)
	assert.Equal(t, "mp4-bytes", storage.uploaded["projects/proj-1/graphics/scene-003.mp4"])
	assert.Equal(t, "g-key", vendor.lastReq.APIKey)
	assert.InDelta(t, 4.0, vendor.lastReq.DurationSeconds, 1e-9)
}

func TestGraphicsAdapterNeedsPrompt(t *testing.T) {
	a := NewGraphicsAdapter(client.NewPoller(), &fakeVendor{id: "veo"}, nil, nil, fastPoll)
	_, err := a.Generate(context.Background(), testScene(model.VisualGraphics, model.VisualPayload{}), testContext("", nil))
	assert.True(t, errors.Is(err, ErrMissingPrerequisite))
	assert.False(t, errors.Is(err, ErrMissingInput))
}

func TestImageAdapter(t *testing.T) {
	t.Run("generated and expanded", func(t *testing.T) {
		vendor := &fakeVendor{id: client.WavespeedProviderID, result: "https://ws/i.png"}
		a := NewImageAdapter(client.NewPoller(), vendor, fastPoll, ImageOptions{Expander: &fakeExpander{}})
		res, err := a.Generate(context.Background(), testScene(model.VisualImage, model.VisualPayload{Prompt: "city at dusk"}), testContext("", nil))
		require.NoError(t, err)
		assert.Equal(t, "https://ws/i.png", res.AssetURL)
		assert.Equal(t, "https://ws/i.png", res.ThumbnailURL)
		assert.Equal(t, "cinematic city at dusk", vendor.lastReq.Prompt)
	})

	t.Run("expansion failure keeps raw prompt", func(t *testing.T) {
		vendor := &fakeVendor{id: client.WavespeedProviderID, result: "https://ws/i.png"}
		a := NewImageAdapter(client.NewPoller(), vendor, fastPoll, ImageOptions{Expander: &fakeExpander{err: errors.New("quota")}})
		_, err := a.Generate(context.Background(), testScene(model.VisualImage, model.VisualPayload{SearchQuery: "forest"}), testContext("", nil))
		require.NoError(t, err)
		assert.Equal(t, "forest", vendor.lastReq.Prompt)
	})

	t.Run("provided image with ken burns", func(t *testing.T) {
		vendor := &fakeVendor{id: client.WavespeedProviderID}
		renderer := &fakeRenderer{}
		a := NewImageAdapter(client.NewPoller(), vendor, fastPoll, ImageOptions{Renderer: renderer, KenBurns: true})
		res, err := a.Generate(context.Background(), testScene(model.VisualImage, model.VisualPayload{ImageURL: "https://me/photo.jpg"}), testContext("https://cdn/master.mp3", nil))
		require.NoError(t, err)
		assert.Nil(t, vendor.lastReq)
		assert.Equal(t, "https://me/photo.jpg", res.AssetURL)
		assert.Equal(t, "https://render/kb.mp4", res.FinalVideoURL)
		assert.Equal(t, "https://me/photo.jpg|https://render/seg.mp3|in", renderer.kenBurns)
	})

	t.Run("nothing to draw fails the scene", func(t *testing.T) {
		a := NewImageAdapter(client.NewPoller(), &fakeVendor{id: "wavespeed"}, fastPoll, ImageOptions{})
		_, err := a.Generate(context.Background(), testScene(model.VisualImage, model.VisualPayload{}), testContext("", nil))
		assert.True(t, errors.Is(err, ErrMissingPrerequisite))
		assert.False(t, errors.Is(err, ErrMissingInput))
	})
}
