package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vodworks/internal/domain"
)

var allowedSourceExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".ogg":  true,
	".mov":  true,
	".mkv":  true,
}

type uploadResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// VideosUpload receives a source file, stores it durably, and creates the
// asset record in queued state. The worker's poller picks it up from there.
func (a *App) VideosUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "source exceeds upload size limit")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedSourceExtensions[ext] {
		a.error(w, http.StatusBadRequest, "unsupported_media", fmt.Sprintf("extension %q is not accepted", ext))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = header.Filename
	}

	assetID := uuid.NewString()
	key, size, err := a.Store.WriteFrom(r.Context(), fmt.Sprintf("uploads/%s%s", assetID, ext), file)
	if err != nil {
		a.Logger.Error().Err(err).Str("asset_id", assetID).Msg("api: store upload")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store upload")
		return
	}

	asset := &domain.Asset{
		ID:        assetID,
		Title:     title,
		SourceKey: key,
		Status:    domain.AssetStatusQueued,
		FileSize:  size,
	}
	if err := a.Assets.Create(r.Context(), asset); err != nil {
		a.Logger.Error().Err(err).Str("asset_id", assetID).Msg("api: create asset record")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create asset")
		return
	}

	a.json(w, http.StatusAccepted, uploadResponse{ID: assetID, Status: string(domain.AssetStatusQueued)})
}

type renditionView struct {
	ID         string    `json:"id"`
	Tier       string    `json:"tier"`
	StorageKey string    `json:"storage_key"`
	Bitrate    string    `json:"bitrate"`
	Codec      string    `json:"codec"`
	CreatedAt  time.Time `json:"created_at"`
}

type thumbnailView struct {
	ID            string    `json:"id"`
	StorageKey    string    `json:"storage_key"`
	OffsetSeconds float64   `json:"offset_seconds"`
	Size          string    `json:"size"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
}

type assetView struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Status        string          `json:"status"`
	Duration      *float64        `json:"duration"`
	Resolution    string          `json:"resolution,omitempty"`
	AspectRatio   string          `json:"aspect_ratio,omitempty"`
	FrameRate     *float64        `json:"frame_rate"`
	FileSize      int64           `json:"file_size"`
	ProcessingLog string          `json:"processing_log,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Renditions    []renditionView `json:"renditions"`
	Thumbnails    []thumbnailView `json:"thumbnails"`
}

// VideoStatus returns the asset's status, metadata, and the ordered list of
// its renditions and thumbnails. Readers may observe an in-progress snapshot
// while a worker is mutating the asset.
func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "id")
	if assetID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return
	}

	asset, err := a.Assets.GetByID(r.Context(), assetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "asset not found")
			return
		}
		a.Logger.Error().Err(err).Str("asset_id", assetID).Msg("api: load asset")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load asset")
		return
	}

	renditions, err := a.Renditions.ListByAssetID(r.Context(), assetID)
	if err != nil {
		a.Logger.Error().Err(err).Str("asset_id", assetID).Msg("api: list renditions")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load renditions")
		return
	}
	thumbnails, err := a.Thumbnails.ListByAssetID(r.Context(), assetID)
	if err != nil {
		a.Logger.Error().Err(err).Str("asset_id", assetID).Msg("api: list thumbnails")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load thumbnails")
		return
	}

	view := assetView{
		ID:            asset.ID,
		Title:         asset.Title,
		Status:        string(asset.Status),
		Duration:      asset.Duration,
		Resolution:    asset.Resolution,
		AspectRatio:   asset.AspectRatio,
		FrameRate:     asset.FrameRate,
		FileSize:      asset.FileSize,
		ProcessingLog: asset.ProcessingLog,
		CreatedAt:     asset.CreatedAt,
		UpdatedAt:     asset.UpdatedAt,
		Renditions:    make([]renditionView, 0, len(renditions)),
		Thumbnails:    make([]thumbnailView, 0, len(thumbnails)),
	}
	for _, rendition := range renditions {
		view.Renditions = append(view.Renditions, renditionView{
			ID:         rendition.ID,
			Tier:       rendition.Tier,
			StorageKey: rendition.StorageKey,
			Bitrate:    rendition.Bitrate,
			Codec:      rendition.Codec,
			CreatedAt:  rendition.CreatedAt,
		})
	}
	for _, thumbnail := range thumbnails {
		view.Thumbnails = append(view.Thumbnails, thumbnailView{
			ID:            thumbnail.ID,
			StorageKey:    thumbnail.StorageKey,
			OffsetSeconds: thumbnail.OffsetSeconds,
			Size:          thumbnail.Size,
			IsDefault:     thumbnail.IsDefault,
			CreatedAt:     thumbnail.CreatedAt,
		})
	}

	a.json(w, http.StatusOK, view)
}
