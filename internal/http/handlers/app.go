package handlers

import (
	"encoding/json"
	"net/http"

	"vodworks/internal/domain"
	"vodworks/internal/infra"
	"vodworks/internal/storage"
)

// App bundles the dependencies the HTTP handlers need.
type App struct {
	Assets         domain.AssetRepository
	Renditions     domain.RenditionRepository
	Thumbnails     domain.ThumbnailRepository
	Store          *storage.FileStore
	Logger         infra.Logger
	MaxUploadBytes int64
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}
