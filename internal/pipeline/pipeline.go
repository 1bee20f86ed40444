package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vodworks/internal/domain"
	"vodworks/internal/media"
)

// Outcome is the three-valued result of one pipeline run. The dispatcher acts
// on it instead of relying on error propagation across the queue boundary.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeRetry
	OutcomePermanent
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeRetry:
		return "retry"
	default:
		return "permanent"
	}
}

// Result reports how a run ended. RetryIn is populated only for OutcomeRetry.
type Result struct {
	Outcome Outcome
	RetryIn time.Duration
	Err     error
}

// ErrBackoffExhausted marks a retryable failure whose retry budget is spent.
var ErrBackoffExhausted = errors.New("retry budget exhausted")

// Prober extracts technical metadata from a source file.
type Prober interface {
	Probe(ctx context.Context, path string) (*media.ProbeResult, error)
}

// Thumbnailer produces one still-frame artifact per request.
type Thumbnailer interface {
	Extract(ctx context.Context, req media.ThumbnailRequest) (media.Artifact, error)
}

// Transcoder produces one rendition artifact per request.
type Transcoder interface {
	Transcode(ctx context.Context, req media.TranscodeRequest) (media.Artifact, error)
}

// SourceResolver maps an asset's source storage key to a local path the media
// tools can read.
type SourceResolver interface {
	Abs(key string) (string, error)
}

// Config collects the pipeline policy: the rendition ladder, the thumbnail
// offsets, and the retry bounds.
type Config struct {
	Tiers       []domain.QualityTier
	Thumbnails  []domain.ThumbnailSpec
	RetryBase   time.Duration
	MaxAttempts int
}

// DefaultConfig returns the standard policy: three tiers, three offsets,
// exponential backoff from one minute, three attempts.
func DefaultConfig() Config {
	return Config{
		Tiers:       domain.DefaultTiers(),
		Thumbnails:  domain.DefaultThumbnailSpecs(),
		RetryBase:   time.Minute,
		MaxAttempts: 3,
	}
}

// Pipeline drives one asset through probe, thumbnail extraction and
// multi-tier transcoding, updating the persisted asset status throughout.
type Pipeline struct {
	cfg         Config
	assets      domain.AssetRepository
	renditions  domain.RenditionRepository
	thumbnails  domain.ThumbnailRepository
	prober      Prober
	thumbnailer Thumbnailer
	transcoder  Transcoder
	source      SourceResolver
	logger      zerolog.Logger
}

// New constructs a Pipeline with its collaborators injected.
func New(
	cfg Config,
	assets domain.AssetRepository,
	renditions domain.RenditionRepository,
	thumbnails domain.ThumbnailRepository,
	prober Prober,
	thumbnailer Thumbnailer,
	transcoder Transcoder,
	source SourceResolver,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		assets:      assets,
		renditions:  renditions,
		thumbnails:  thumbnails,
		prober:      prober,
		thumbnailer: thumbnailer,
		transcoder:  transcoder,
		source:      source,
		logger:      logger,
	}
}

// Process runs the state machine for one dispatched asset id. attempt is
// 1-based and owned by the dispatcher; redelivery of a completed asset is a
// safe re-run under the append-only artifact model.
func (p *Pipeline) Process(ctx context.Context, assetID string, attempt int) Result {
	start := time.Now()
	result := p.run(ctx, assetID, attempt)
	jobDuration.Observe(time.Since(start).Seconds())
	jobsTotal.WithLabelValues(result.Outcome.String()).Inc()
	return result
}

func (p *Pipeline) run(ctx context.Context, assetID string, attempt int) Result {
	asset, err := p.assets.GetByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The identifier itself is invalid; retrying cannot fix it.
			p.logger.Error().Str("asset_id", assetID).Msg("pipeline: unknown asset id")
			return Result{Outcome: OutcomePermanent, Err: err}
		}
		return p.retryable(ctx, assetID, attempt, fmt.Errorf("load asset: %w", err))
	}

	if err := p.assets.UpdateStatus(ctx, assetID, domain.AssetStatusProcessing); err != nil {
		return p.retryable(ctx, assetID, attempt, fmt.Errorf("mark processing: %w", err))
	}

	p.logger.Info().
		Str("asset_id", assetID).
		Int("attempt", attempt).
		Msg("pipeline: processing started")

	if err := p.execute(ctx, asset); err != nil {
		p.appendLog(ctx, assetID, fmt.Sprintf("processing failed: %v", err))
		if statusErr := p.assets.UpdateStatus(ctx, assetID, domain.AssetStatusFailed); statusErr != nil {
			p.logger.Error().Err(statusErr).Str("asset_id", assetID).Msg("pipeline: persist failed status")
		}
		var probeErr *media.ProbeError
		if errors.As(err, &probeErr) && probeErr.NoStream {
			// A content defect; no number of retries will grow a video stream.
			p.logger.Error().Err(err).Str("asset_id", assetID).Msg("pipeline: permanent content failure")
			return Result{Outcome: OutcomePermanent, Err: err}
		}
		return p.retryable(ctx, assetID, attempt, err)
	}

	if err := p.assets.UpdateStatus(ctx, assetID, domain.AssetStatusCompleted); err != nil {
		return p.retryable(ctx, assetID, attempt, fmt.Errorf("mark completed: %w", err))
	}

	p.logger.Info().Str("asset_id", assetID).Msg("pipeline: processing completed")
	return Result{Outcome: OutcomeCompleted}
}

// retryable classifies a top-level failure against the attempt budget.
func (p *Pipeline) retryable(ctx context.Context, assetID string, attempt int, err error) Result {
	if attempt >= p.cfg.MaxAttempts {
		p.appendLog(ctx, assetID, fmt.Sprintf("giving up after %d attempts", attempt))
		p.logger.Error().Err(err).Str("asset_id", assetID).Int("attempt", attempt).Msg("pipeline: retries exhausted")
		return Result{Outcome: OutcomePermanent, Err: fmt.Errorf("%w: %w", ErrBackoffExhausted, err)}
	}
	delay := p.cfg.RetryBase * (1 << attempt)
	retriesScheduled.Inc()
	p.logger.Warn().
		Err(err).
		Str("asset_id", assetID).
		Int("attempt", attempt).
		Dur("retry_in", delay).
		Msg("pipeline: attempt failed, retry scheduled")
	return Result{Outcome: OutcomeRetry, RetryIn: delay, Err: err}
}

// execute performs the fallible pipeline body. Any error it returns is a
// top-level failure; tier and offset failures are contained inside.
func (p *Pipeline) execute(ctx context.Context, asset *domain.Asset) error {
	sourcePath, err := p.source.Abs(asset.SourceKey)
	if err != nil {
		return &media.ProbeError{Path: asset.SourceKey, Reason: "resolve source location", Err: err}
	}

	probed, err := p.prober.Probe(ctx, sourcePath)
	if err != nil {
		return err
	}

	meta := domain.ProbeMetadata{
		Duration:    probed.Duration,
		Resolution:  probed.Resolution(),
		AspectRatio: probed.AspectRatio,
		FrameRate:   probed.FrameRate,
	}
	if err := p.assets.UpdateMetadata(ctx, asset.ID, meta); err != nil {
		return fmt.Errorf("persist metadata: %w", err)
	}

	// Distinct per run so a re-run appends artifacts instead of overwriting.
	runID := uuid.NewString()[:8]

	p.generateThumbnails(ctx, asset, sourcePath, runID)
	p.generateRenditions(ctx, asset, sourcePath)

	return nil
}

// generateThumbnails attempts every configured offset. One bad offset must
// not block the others or the overall job.
func (p *Pipeline) generateThumbnails(ctx context.Context, asset *domain.Asset, sourcePath, runID string) {
	for _, spec := range p.cfg.Thumbnails {
		artifact, err := p.thumbnailer.Extract(ctx, media.ThumbnailRequest{
			SourcePath: sourcePath,
			Key:        thumbnailKey(asset.ID, runID, spec),
			Spec:       spec,
		})
		if err != nil {
			thumbnailsTotal.WithLabelValues("failed").Inc()
			p.appendLog(ctx, asset.ID, err.Error())
			continue
		}
		thumb := &domain.Thumbnail{
			ID:            uuid.NewString(),
			AssetID:       asset.ID,
			StorageKey:    artifact.StorageKey,
			OffsetSeconds: spec.OffsetSeconds,
			Size:          fmt.Sprintf("%dx%d", spec.Width, spec.Height),
			IsDefault:     spec.Default,
		}
		if err := p.thumbnails.Create(ctx, thumb); err != nil {
			thumbnailsTotal.WithLabelValues("failed").Inc()
			p.appendLog(ctx, asset.ID, fmt.Sprintf("thumbnail at %.0fs: persist record: %v", spec.OffsetSeconds, err))
			continue
		}
		thumbnailsTotal.WithLabelValues("created").Inc()
	}
}

// generateRenditions attempts every configured tier, skipping tiers that
// already have a rendition from an earlier run so a retry never duplicates
// completed work.
func (p *Pipeline) generateRenditions(ctx context.Context, asset *domain.Asset, sourcePath string) {
	done := map[string]bool{}
	existing, err := p.renditions.ListByAssetID(ctx, asset.ID)
	if err != nil {
		p.logger.Error().Err(err).Str("asset_id", asset.ID).Msg("pipeline: list existing renditions")
	}
	for _, rendition := range existing {
		done[rendition.Tier] = true
	}

	for _, tier := range p.cfg.Tiers {
		if done[tier.Name] {
			renditionsTotal.WithLabelValues(tier.Name, "skipped").Inc()
			p.logger.Debug().Str("asset_id", asset.ID).Str("tier", tier.Name).Msg("pipeline: tier already rendered")
			continue
		}
		artifact, err := p.transcoder.Transcode(ctx, media.TranscodeRequest{
			SourcePath: sourcePath,
			Key:        renditionKey(asset.ID, tier),
			Tier:       tier,
		})
		if err != nil {
			renditionsTotal.WithLabelValues(tier.Name, "failed").Inc()
			p.appendLog(ctx, asset.ID, err.Error())
			continue
		}
		rendition := &domain.Rendition{
			ID:         uuid.NewString(),
			AssetID:    asset.ID,
			Tier:       tier.Name,
			StorageKey: artifact.StorageKey,
			Bitrate:    tier.VideoBitrate,
			Codec:      tier.Codec,
		}
		if err := p.renditions.Create(ctx, rendition); err != nil {
			renditionsTotal.WithLabelValues(tier.Name, "failed").Inc()
			p.appendLog(ctx, asset.ID, fmt.Sprintf("transcode %s: persist record: %v", tier.Name, err))
			continue
		}
		renditionsTotal.WithLabelValues(tier.Name, "created").Inc()
	}
}

// appendLog records a diagnostic line on the asset. Best effort: a logging
// failure must not fail the run.
func (p *Pipeline) appendLog(ctx context.Context, assetID, entry string) {
	if err := p.assets.AppendLog(ctx, assetID, entry); err != nil {
		p.logger.Error().Err(err).Str("asset_id", assetID).Str("entry", entry).Msg("pipeline: append processing log")
	}
}

func renditionKey(assetID string, tier domain.QualityTier) string {
	return fmt.Sprintf("videos/%s/%s_%s.mp4", assetID, assetID, tier.Name)
}

func thumbnailKey(assetID, runID string, spec domain.ThumbnailSpec) string {
	return fmt.Sprintf("videos/%s/thumbnails/%s_thumb_%.0fs_%s.jpg", assetID, assetID, spec.OffsetSeconds, runID)
}
