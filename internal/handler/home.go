package handler

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HandleHealth reports whether the storage directory is present
func (h *Handler) HandleHealth(c echo.Context) error {
	if err := h.store.Check(); err != nil {
		log.Printf("Error: Health check failed: %v", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "storage unavailable"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
