package handler

import (
	"github.com/marianozunino/dropqr/internal/config"
	"github.com/marianozunino/dropqr/internal/link"
	"github.com/marianozunino/dropqr/internal/qr"
	"github.com/marianozunino/dropqr/internal/shortener"
	"github.com/marianozunino/dropqr/internal/storage"
)

// Handler handles HTTP requests
type Handler struct {
	cfg       *config.Config
	store     *storage.Store
	shortener shortener.Shortener // nil disables the shortenedLink field
	encoder   qr.Encoder
	policy    *link.Policy
}

// NewHandler creates a new handler
func NewHandler(cfg *config.Config, store *storage.Store, sh shortener.Shortener, enc qr.Encoder) *Handler {
	return &Handler{
		cfg:       cfg,
		store:     store,
		shortener: sh,
		encoder:   enc,
		policy:    link.NewPolicy(cfg.AllowedOrigins),
	}
}
