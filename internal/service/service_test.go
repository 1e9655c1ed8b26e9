package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/renatodap/snapmod-sub000/internal/database"
	"github.com/renatodap/snapmod-sub000/internal/entity"
	"github.com/renatodap/snapmod-sub000/internal/pkg/events"
	"github.com/renatodap/snapmod-sub000/internal/pkg/filters"
	"github.com/renatodap/snapmod-sub000/internal/pkg/presets"
	"github.com/renatodap/snapmod-sub000/internal/pkg/processor"
	"github.com/renatodap/snapmod-sub000/internal/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu       sync.Mutex
	state    events.State
	topics   []string
	messages []interface{}
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.messages = append(p.messages, message)
	return nil
}

func (p *fakePublisher) State() events.State { return p.state }

func (p *fakePublisher) Close() error { return nil }

type fixture struct {
	repos     *database.Repositories
	images    ImageService
	history   HistoryService
	presets   PresetService
	publisher *fakePublisher
}

func newFixture(t *testing.T, state events.State) *fixture {
	t.Helper()
	repos := database.NewRepositories(func(string) store.Backend { return store.NewMemoryBackend() }, database.DefaultLimits())
	require.NoError(t, repos.Open(context.Background()))
	t.Cleanup(func() { repos.Close() })

	publisher := &fakePublisher{state: state}
	renderer := filters.NewRenderer(filters.NewCodec(filters.FormatPNG, 0), filters.RendererOptions{ThumbnailSize: 8})
	proc := processor.NewRenderProcessor(repos.Versions, renderer, publisher)

	return &fixture{
		repos:     repos,
		images:    NewImageService(repos.Versions, renderer, proc, publisher),
		history:   NewHistoryService(repos.History),
		presets:   NewPresetService(repos.Presets),
		publisher: publisher,
	}
}

func solidPNG(t *testing.T, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 12, 12))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestPreview(t *testing.T) {
	f := newFixture(t, events.Unconfigured)

	res, err := f.images.Preview(map[string]float64{"brightness": 10, "Temperature": 50})
	require.NoError(t, err)
	assert.Equal(t, "brightness(1.1) hue-rotate(90deg)", res.CSS)
	assert.True(t, res.Modified)

	res, err = f.images.Preview(nil)
	require.NoError(t, err)
	assert.True(t, res.None)
	assert.Equal(t, "none", res.CSS)

	_, err = f.images.Preview(map[string]float64{"glow": 1})
	assert.ErrorIs(t, err, filters.ErrUnknownField)

	params := f.images.Parameters()
	assert.Len(t, params, 12)
	params[0].Max = -1
	assert.NotEqual(t, -1.0, f.images.Parameters()[0].Max)
}

func TestImportAndRender(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, events.Connected)

	sourceID, err := f.images.ImportImage(ctx, "s1", solidPNG(t, color.NRGBA{R: 128, G: 128, B: 128, A: 255}), entity.SourceAI, " Add snow ")
	require.NoError(t, err)

	source, err := f.images.GetVersion(ctx, sourceID)
	require.NoError(t, err)
	assert.Equal(t, entity.SourceAI, source.Payload.Source)
	assert.Equal(t, "Add snow", source.Payload.Prompt)
	assert.Equal(t, 12, source.Payload.Width)
	assert.NotEmpty(t, source.Payload.Thumbnail)

	id, err := f.images.Render(ctx, "s1", entity.RenderRequest{
		SourceID: sourceID,
		Filters:  map[string]float64{"brightness": 20},
	})
	require.NoError(t, err)

	timeline, err := f.images.Timeline(ctx, "s1", false)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, id, timeline[1].ID)
	assert.Equal(t, sourceID, timeline[1].Payload.ParentID)

	// one commit event for the import, one for the render
	require.Len(t, f.publisher.topics, 2)
	assert.Equal(t, entity.TopicVersionCommitted, f.publisher.topics[1])

	_, err = f.images.Render(ctx, "s1", entity.RenderRequest{SourceID: sourceID, Filters: map[string]float64{"bogus": 1}})
	assert.ErrorIs(t, err, filters.ErrUnknownField)

	_, err = f.images.ImportImage(ctx, "s1", []byte("garbage"), entity.SourceUpload, "")
	assert.ErrorIs(t, err, filters.ErrImageDecode)
}

func TestQueueRender(t *testing.T) {
	ctx := context.Background()

	t.Run("bus not configured", func(t *testing.T) {
		f := newFixture(t, events.Unconfigured)
		_, err := f.images.QueueRender(ctx, "s1", entity.RenderRequest{SourceID: "x"})
		assert.ErrorIs(t, err, entity.ErrEventsDisabled)
	})

	t.Run("queued", func(t *testing.T) {
		f := newFixture(t, events.Connected)
		sourceID, err := f.images.ImportImage(ctx, "s1", solidPNG(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}), entity.SourceUpload, "")
		require.NoError(t, err)

		taskID, err := f.images.QueueRender(ctx, "s1", entity.RenderRequest{
			SourceID: sourceID,
			Filters:  map[string]float64{"vignette": 40},
			Label:    "moody",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, taskID)

		last := f.publisher.messages[len(f.publisher.messages)-1]
		task, ok := last.(entity.RenderTask)
		require.True(t, ok)
		assert.Equal(t, entity.TopicRenderTasks, f.publisher.topics[len(f.publisher.topics)-1])
		assert.Equal(t, taskID, task.TaskID)
		assert.Equal(t, 40.0, task.Filters.Vignette)
		assert.Equal(t, "moody", task.Label)

		_, err = f.images.QueueRender(ctx, "other-session", entity.RenderRequest{SourceID: sourceID})
		assert.ErrorIs(t, err, entity.ErrSessionMismatch)
	})
}

func TestHistoryRecordChecksPresets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, events.Unconfigured)

	e, err := f.history.Record(ctx, entity.RecordPromptRequest{Prompt: "Make it golden", PresetIDs: []string{"golden-hour"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"golden-hour"}, e.Payload.PresetIDs)

	_, err = f.history.Record(ctx, entity.RecordPromptRequest{Prompt: "x", PresetIDs: []string{"missing"}})
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
	assert.ErrorIs(t, err, presets.ErrUnknownPreset)
}

func TestPresetCombine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, events.Unconfigured)

	custom, err := f.presets.Create(ctx, entity.PresetRequest{Name: "Snowy", Prompt: "Cover everything in fresh snow."})
	require.NoError(t, err)
	filterOnly, err := f.presets.Create(ctx, entity.PresetRequest{Name: "Punchy", Filters: map[string]float64{"contrast": 40}})
	require.NoError(t, err)

	res, err := f.presets.Combine(ctx, entity.CombineRequest{})
	require.NoError(t, err)
	assert.Equal(t, "", res.Prompt)

	noir, err := presets.Find("noir")
	require.NoError(t, err)
	res, err = f.presets.Combine(ctx, entity.CombineRequest{PresetIDs: []string{"noir"}})
	require.NoError(t, err)
	assert.Equal(t, noir.Prompt, res.Prompt)

	res, err = f.presets.Combine(ctx, entity.CombineRequest{PresetIDs: []string{"noir"}, Custom: []string{custom.ID}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.True(t, strings.HasPrefix(res.Prompt, "Apply the following edits to the image:\n1. "+noir.Prompt))
	assert.Contains(t, res.Prompt, "\n2. Cover everything in fresh snow.\n")

	_, err = f.presets.Combine(ctx, entity.CombineRequest{Custom: []string{filterOnly.ID}})
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
	_, err = f.presets.Combine(ctx, entity.CombineRequest{Custom: []string{"missing"}})
	assert.ErrorIs(t, err, entity.ErrPresetNotFound)
	_, err = f.presets.Combine(ctx, entity.CombineRequest{PresetIDs: []string{"missing"}})
	assert.ErrorIs(t, err, presets.ErrUnknownPreset)
}

func TestPresetRequests(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, events.Unconfigured)

	_, err := f.presets.Create(ctx, entity.PresetRequest{Name: "Bad", Filters: map[string]float64{"glow": 3}})
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
	assert.ErrorIs(t, err, filters.ErrUnknownField)

	p, err := f.presets.Create(ctx, entity.PresetRequest{Name: "Bright", Filters: map[string]float64{"brightness": 400}})
	require.NoError(t, err)
	assert.Equal(t, 100.0, p.Payload.Filters.Brightness)

	data, format, err := f.presets.Export(ctx, "yaml")
	require.NoError(t, err)
	assert.Equal(t, database.FormatYAML, format)
	assert.Contains(t, string(data), "name: Bright")

	_, _, err = f.presets.Export(ctx, "toml")
	assert.ErrorIs(t, err, entity.ErrInvalidInput)

	assert.Len(t, f.presets.Builtin(""), len(presets.Builtin()))
	assert.Len(t, f.presets.Builtin("portrait"), 2)
}
