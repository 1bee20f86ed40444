package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vodworks/internal/domain"
	"vodworks/internal/media"
)

type fakeAssetRepo struct {
	mu            sync.Mutex
	assets        map[string]*domain.Asset
	statusHistory map[string][]domain.AssetStatus
}

func newFakeAssetRepo(assets ...*domain.Asset) *fakeAssetRepo {
	r := &fakeAssetRepo{
		assets:        map[string]*domain.Asset{},
		statusHistory: map[string][]domain.AssetStatus{},
	}
	for _, a := range assets {
		r.assets[a.ID] = a
	}
	return r
}

func (r *fakeAssetRepo) Create(ctx context.Context, asset *domain.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets[asset.ID] = asset
	return nil
}

func (r *fakeAssetRepo) GetByID(ctx context.Context, assetID string) (*domain.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.assets[assetID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *asset
	return &copied, nil
}

func (r *fakeAssetRepo) ListQueued(ctx context.Context, limit int) ([]string, error) {
	return nil, nil
}

func (r *fakeAssetRepo) UpdateStatus(ctx context.Context, assetID string, status domain.AssetStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.assets[assetID]
	if !ok {
		return domain.ErrNotFound
	}
	asset.Status = status
	r.statusHistory[assetID] = append(r.statusHistory[assetID], status)
	return nil
}

func (r *fakeAssetRepo) UpdateMetadata(ctx context.Context, assetID string, meta domain.ProbeMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.assets[assetID]
	if !ok {
		return domain.ErrNotFound
	}
	duration := meta.Duration
	frameRate := meta.FrameRate
	asset.Duration = &duration
	asset.Resolution = meta.Resolution
	asset.AspectRatio = meta.AspectRatio
	asset.FrameRate = &frameRate
	return nil
}

func (r *fakeAssetRepo) AppendLog(ctx context.Context, assetID string, entry string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.assets[assetID]
	if !ok {
		return domain.ErrNotFound
	}
	asset.ProcessingLog += entry + "\n"
	return nil
}

func (r *fakeAssetRepo) get(assetID string) *domain.Asset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.assets[assetID]
}

func (r *fakeAssetRepo) history(assetID string) []domain.AssetStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AssetStatus(nil), r.statusHistory[assetID]...)
}

type fakeRenditionRepo struct {
	mu         sync.Mutex
	renditions []domain.Rendition
}

func (r *fakeRenditionRepo) Create(ctx context.Context, rendition *domain.Rendition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renditions = append(r.renditions, *rendition)
	return nil
}

func (r *fakeRenditionRepo) ListByAssetID(ctx context.Context, assetID string) ([]domain.Rendition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Rendition
	for _, rendition := range r.renditions {
		if rendition.AssetID == assetID {
			out = append(out, rendition)
		}
	}
	return out, nil
}

type fakeThumbnailRepo struct {
	mu         sync.Mutex
	thumbnails []domain.Thumbnail
}

func (r *fakeThumbnailRepo) Create(ctx context.Context, thumbnail *domain.Thumbnail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thumbnails = append(r.thumbnails, *thumbnail)
	return nil
}

func (r *fakeThumbnailRepo) ListByAssetID(ctx context.Context, assetID string) ([]domain.Thumbnail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Thumbnail
	for _, thumbnail := range r.thumbnails {
		if thumbnail.AssetID == assetID {
			out = append(out, thumbnail)
		}
	}
	return out, nil
}

type fakeProber struct {
	result *media.ProbeResult
	err    error
}

func (p *fakeProber) Probe(ctx context.Context, path string) (*media.ProbeResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

type fakeThumbnailer struct {
	failOffsets map[float64]error
}

func (t *fakeThumbnailer) Extract(ctx context.Context, req media.ThumbnailRequest) (media.Artifact, error) {
	if err, ok := t.failOffsets[req.Spec.OffsetSeconds]; ok {
		return media.Artifact{}, err
	}
	return media.Artifact{StorageKey: req.Key, Bytes: 2048}, nil
}

type fakeTranscoder struct {
	mu        sync.Mutex
	failTiers map[string]error
	calls     []string
}

func (t *fakeTranscoder) Transcode(ctx context.Context, req media.TranscodeRequest) (media.Artifact, error) {
	t.mu.Lock()
	t.calls = append(t.calls, req.Tier.Name)
	t.mu.Unlock()
	if err, ok := t.failTiers[req.Tier.Name]; ok {
		return media.Artifact{}, err
	}
	return media.Artifact{StorageKey: req.Key, Bytes: 1 << 20}, nil
}

func (t *fakeTranscoder) tierCalls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

type identityResolver struct{}

func (identityResolver) Abs(key string) (string, error) { return key, nil }

type harness struct {
	assets      *fakeAssetRepo
	renditions  *fakeRenditionRepo
	thumbnails  *fakeThumbnailRepo
	prober      *fakeProber
	thumbnailer *fakeThumbnailer
	transcoder  *fakeTranscoder
	pipe        *Pipeline
}

func newHarness(t *testing.T, assets ...*domain.Asset) *harness {
	t.Helper()
	h := &harness{
		assets:     newFakeAssetRepo(assets...),
		renditions: &fakeRenditionRepo{},
		thumbnails: &fakeThumbnailRepo{},
		prober: &fakeProber{result: &media.ProbeResult{
			Duration:    734.5,
			Width:       1920,
			Height:      1080,
			AspectRatio: "16:9",
			FrameRate:   29.97,
			Codec:       "h264",
		}},
		thumbnailer: &fakeThumbnailer{},
		transcoder:  &fakeTranscoder{},
	}
	cfg := Config{
		Tiers:       domain.DefaultTiers(),
		Thumbnails:  domain.DefaultThumbnailSpecs(),
		RetryBase:   time.Second,
		MaxAttempts: 3,
	}
	h.pipe = New(cfg, h.assets, h.renditions, h.thumbnails, h.prober, h.thumbnailer, h.transcoder, identityResolver{}, zerolog.Nop())
	return h
}

func queuedAsset(id string) *domain.Asset {
	return &domain.Asset{
		ID:        id,
		Title:     "clip",
		SourceKey: "uploads/" + id + ".mp4",
		Status:    domain.AssetStatusQueued,
		FileSize:  1 << 24,
	}
}

func TestProcessCompletesWithAllArtifacts(t *testing.T) {
	h := newHarness(t, queuedAsset("asset-a"))

	result := h.pipe.Process(context.Background(), "asset-a", 1)
	if result.Outcome != OutcomeCompleted {
		t.Fatalf("Process() outcome = %v, want OutcomeCompleted (err: %v)", result.Outcome, result.Err)
	}

	asset := h.assets.get("asset-a")
	if asset.Status != domain.AssetStatusCompleted {
		t.Fatalf("asset status = %q, want completed", asset.Status)
	}
	if asset.Duration == nil || asset.FrameRate == nil || asset.Resolution == "" || asset.AspectRatio == "" {
		t.Fatalf("completed asset has null metadata: %+v", asset)
	}
	if asset.Resolution != "1920x1080" {
		t.Fatalf("resolution = %q, want 1920x1080", asset.Resolution)
	}

	renditions, _ := h.renditions.ListByAssetID(context.Background(), "asset-a")
	if len(renditions) != 3 {
		t.Fatalf("rendition count = %d, want 3", len(renditions))
	}
	thumbnails, _ := h.thumbnails.ListByAssetID(context.Background(), "asset-a")
	if len(thumbnails) != 3 {
		t.Fatalf("thumbnail count = %d, want 3", len(thumbnails))
	}
	if !thumbnails[0].IsDefault || thumbnails[1].IsDefault || thumbnails[2].IsDefault {
		t.Fatalf("default flag should be set on the first thumbnail only: %+v", thumbnails)
	}

	history := h.assets.history("asset-a")
	want := []domain.AssetStatus{domain.AssetStatusProcessing, domain.AssetStatusCompleted}
	if len(history) != len(want) {
		t.Fatalf("status history = %v, want %v", history, want)
	}
	for i := range want {
		if history[i] != want[i] {
			t.Fatalf("status history = %v, want %v", history, want)
		}
	}
}

func TestProcessProbeFailureSchedulesRetry(t *testing.T) {
	h := newHarness(t, queuedAsset("asset-b"))
	h.prober.err = &media.ProbeError{Path: "uploads/asset-b.mp4", Reason: "source file not reachable"}

	result := h.pipe.Process(context.Background(), "asset-b", 1)
	if result.Outcome != OutcomeRetry {
		t.Fatalf("Process() outcome = %v, want OutcomeRetry", result.Outcome)
	}
	if result.RetryIn != 2*time.Second {
		t.Fatalf("RetryIn = %v, want 2s (base * 2^1)", result.RetryIn)
	}

	asset := h.assets.get("asset-b")
	if asset.Status != domain.AssetStatusFailed {
		t.Fatalf("asset status = %q, want failed", asset.Status)
	}
	if !strings.Contains(asset.ProcessingLog, "source file not reachable") {
		t.Fatalf("processing log missing failure entry: %q", asset.ProcessingLog)
	}
}

func TestProcessTierFailureIsIsolated(t *testing.T) {
	h := newHarness(t, queuedAsset("asset-c"))
	h.transcoder.failTiers = map[string]error{
		"1080p": &media.TranscodeError{Tier: "1080p", Reason: "encoder exited 1"},
	}

	result := h.pipe.Process(context.Background(), "asset-c", 1)
	if result.Outcome != OutcomeCompleted {
		t.Fatalf("Process() outcome = %v, want OutcomeCompleted", result.Outcome)
	}

	renditions, _ := h.renditions.ListByAssetID(context.Background(), "asset-c")
	if len(renditions) != 2 {
		t.Fatalf("rendition count = %d, want 2", len(renditions))
	}
	for _, rendition := range renditions {
		if rendition.Tier == "1080p" {
			t.Fatalf("failed tier must not produce a rendition record: %+v", rendition)
		}
	}

	asset := h.assets.get("asset-c")
	if asset.Status != domain.AssetStatusCompleted {
		t.Fatalf("asset status = %q, want completed", asset.Status)
	}
	if !strings.Contains(asset.ProcessingLog, "1080p") {
		t.Fatalf("processing log missing 1080p failure: %q", asset.ProcessingLog)
	}

	calls := h.transcoder.tierCalls()
	if len(calls) != 3 {
		t.Fatalf("all tiers must be attempted, got %v", calls)
	}
}

func TestProcessThumbnailFailureIsIsolated(t *testing.T) {
	h := newHarness(t, queuedAsset("asset-d"))
	h.thumbnailer.failOffsets = map[float64]error{
		30: &media.ExtractionError{OffsetSeconds: 30, Reason: "offset beyond stream duration"},
	}

	result := h.pipe.Process(context.Background(), "asset-d", 1)
	if result.Outcome != OutcomeCompleted {
		t.Fatalf("Process() outcome = %v, want OutcomeCompleted", result.Outcome)
	}

	thumbnails, _ := h.thumbnails.ListByAssetID(context.Background(), "asset-d")
	if len(thumbnails) != 2 {
		t.Fatalf("thumbnail count = %d, want 2", len(thumbnails))
	}
	renditions, _ := h.renditions.ListByAssetID(context.Background(), "asset-d")
	if len(renditions) != 3 {
		t.Fatalf("thumbnail failure must not affect renditions, got %d", len(renditions))
	}
}

func TestProcessRedeliveryOfCompletedAsset(t *testing.T) {
	h := newHarness(t, queuedAsset("asset-e"))

	first := h.pipe.Process(context.Background(), "asset-e", 1)
	if first.Outcome != OutcomeCompleted {
		t.Fatalf("first run outcome = %v, want OutcomeCompleted", first.Outcome)
	}
	second := h.pipe.Process(context.Background(), "asset-e", 1)
	if second.Outcome != OutcomeCompleted {
		t.Fatalf("second run outcome = %v, want OutcomeCompleted", second.Outcome)
	}

	renditions, _ := h.renditions.ListByAssetID(context.Background(), "asset-e")
	if len(renditions) != 3 {
		t.Fatalf("re-run must not duplicate tier renditions, got %d", len(renditions))
	}
	seen := map[string]int{}
	for _, rendition := range renditions {
		seen[rendition.Tier]++
	}
	for tier, n := range seen {
		if n != 1 {
			t.Fatalf("tier %s has %d records, want 1", tier, n)
		}
	}

	thumbnails, _ := h.thumbnails.ListByAssetID(context.Background(), "asset-e")
	if len(thumbnails) != 6 {
		t.Fatalf("re-run should append thumbnails, got %d, want 6", len(thumbnails))
	}

	if got := h.assets.get("asset-e").Status; got != domain.AssetStatusCompleted {
		t.Fatalf("final status = %q, want completed", got)
	}
}

func TestProcessRetryCompletesRemainingTiers(t *testing.T) {
	h := newHarness(t, queuedAsset("asset-f"))
	h.transcoder.failTiers = map[string]error{
		"720p": &media.TranscodeError{Tier: "720p", Reason: "disk full"},
	}

	if result := h.pipe.Process(context.Background(), "asset-f", 1); result.Outcome != OutcomeCompleted {
		t.Fatalf("first run outcome = %v, want OutcomeCompleted", result.Outcome)
	}

	h.transcoder.failTiers = nil
	if result := h.pipe.Process(context.Background(), "asset-f", 1); result.Outcome != OutcomeCompleted {
		t.Fatalf("second run outcome = %v, want OutcomeCompleted", result.Outcome)
	}

	renditions, _ := h.renditions.ListByAssetID(context.Background(), "asset-f")
	if len(renditions) != 3 {
		t.Fatalf("rendition count after re-run = %d, want 3", len(renditions))
	}
	seen := map[string]int{}
	for _, rendition := range renditions {
		seen[rendition.Tier]++
	}
	if seen["2160p"] != 1 || seen["1080p"] != 1 || seen["720p"] != 1 {
		t.Fatalf("tiers duplicated or missing: %v", seen)
	}
}

func TestProcessUnknownAssetIsPermanent(t *testing.T) {
	h := newHarness(t)

	result := h.pipe.Process(context.Background(), "no-such-asset", 1)
	if result.Outcome != OutcomePermanent {
		t.Fatalf("Process() outcome = %v, want OutcomePermanent", result.Outcome)
	}
	if !errors.Is(result.Err, domain.ErrNotFound) {
		t.Fatalf("Err = %v, want domain.ErrNotFound", result.Err)
	}
}

func TestProcessNoVideoStreamIsPermanent(t *testing.T) {
	h := newHarness(t, queuedAsset("asset-g"))
	h.prober.err = &media.ProbeError{Path: "uploads/asset-g.mp4", Reason: "no decodable video stream", NoStream: true}

	result := h.pipe.Process(context.Background(), "asset-g", 1)
	if result.Outcome != OutcomePermanent {
		t.Fatalf("Process() outcome = %v, want OutcomePermanent", result.Outcome)
	}
	if got := h.assets.get("asset-g").Status; got != domain.AssetStatusFailed {
		t.Fatalf("asset status = %q, want failed", got)
	}
}

func TestRetryBackoffIncreasesAndStops(t *testing.T) {
	h := newHarness(t, queuedAsset("asset-h"))
	h.prober.err = &media.ProbeError{Path: "uploads/asset-h.mp4", Reason: "ffprobe invocation failed"}

	var delays []time.Duration
	for attempt := 1; attempt < 3; attempt++ {
		result := h.pipe.Process(context.Background(), "asset-h", attempt)
		if result.Outcome != OutcomeRetry {
			t.Fatalf("attempt %d outcome = %v, want OutcomeRetry", attempt, result.Outcome)
		}
		delays = append(delays, result.RetryIn)
	}
	for i := 1; i < len(delays); i++ {
		if delays[i] <= delays[i-1] {
			t.Fatalf("backoff not strictly increasing: %v", delays)
		}
	}

	final := h.pipe.Process(context.Background(), "asset-h", 3)
	if final.Outcome != OutcomePermanent {
		t.Fatalf("attempt at bound outcome = %v, want OutcomePermanent", final.Outcome)
	}
	if !errors.Is(final.Err, ErrBackoffExhausted) {
		t.Fatalf("Err = %v, want ErrBackoffExhausted", final.Err)
	}
	if !strings.Contains(h.assets.get("asset-h").ProcessingLog, "giving up after 3 attempts") {
		t.Fatalf("processing log missing exhaustion entry: %q", h.assets.get("asset-h").ProcessingLog)
	}
}

func TestProcessLogRetainedAcrossRetries(t *testing.T) {
	h := newHarness(t, queuedAsset("asset-i"))
	h.prober.err = &media.ProbeError{Path: "uploads/asset-i.mp4", Reason: "source file not reachable"}

	h.pipe.Process(context.Background(), "asset-i", 1)
	h.prober.err = nil
	h.transcoder.failTiers = map[string]error{
		"2160p": &media.TranscodeError{Tier: "2160p", Reason: "encoder exited 1"},
	}
	h.pipe.Process(context.Background(), "asset-i", 2)

	log := h.assets.get("asset-i").ProcessingLog
	if !strings.Contains(log, "source file not reachable") {
		t.Fatalf("log lost first-attempt entry: %q", log)
	}
	if !strings.Contains(log, "2160p") {
		t.Fatalf("log missing second-attempt entry: %q", log)
	}
}
