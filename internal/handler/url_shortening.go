package handler

import (
	"context"
	"log"
)

// shortenLink asks the shortening service for a short version of fileURL.
// It cannot fail: a degraded result carries fileURL itself.
func (h *Handler) shortenLink(ctx context.Context, fileURL string) string {
	res := h.shortener.Shorten(ctx, fileURL)
	if res.Degraded {
		log.Printf("Warning: Using full link for %s, shortening degraded: %s", fileURL, res.Reason)
		return fileURL
	}

	log.Printf("Shortened %s to %s", fileURL, res.URL)
	return res.URL
}
