package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/marianozunino/dropqr/internal/link"
	"github.com/marianozunino/dropqr/internal/storage"
)

// Room for multipart boundaries and the host field on top of the file itself
const formOverhead = 1 << 20

// MaxRequestSize is the largest upload request body accepted for a file ceiling of maxSize
func MaxRequestSize(maxSize int64) int64 {
	return maxSize + formOverhead
}

const (
	msgNoFile        = "No file uploaded."
	msgInvalidForm   = "Invalid upload form."
	msgHostRejected  = "Host not allowed"
	msgProcessFailed = "Error processing file and generating links."
)

// UploadResponse is the JSON body returned for a successful upload
type UploadResponse struct {
	FileURL       string `json:"fileUrl"`
	QRCodeURL     string `json:"qrCodeUrl"`
	ShortenedLink string `json:"shortenedLink,omitempty"`
}

// HandleUpload stores a multipart file upload and answers with its download
// link, a QR code of that link and, when configured, a shortened link.
func (h *Handler) HandleUpload(c echo.Context) error {
	maxSize := h.store.MaxSize()
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, MaxRequestSize(maxSize))

	if err := h.parseRequestForm(c); err != nil {
		if isBodyTooLarge(err) {
			return h.tooLarge(c)
		}
		log.Printf("Warning: Failed to parse upload form from %s: %v", c.RealIP(), err)
		return c.String(http.StatusBadRequest, msgInvalidForm)
	}

	file, header, err := c.Request().FormFile("file")
	if err != nil {
		return c.String(http.StatusBadRequest, msgNoFile)
	}
	defer file.Close()

	if header.Size > maxSize {
		return h.tooLarge(c)
	}

	origin, err := h.declaredOrigin(c)
	if err != nil {
		log.Printf("Warning: Rejected upload from %s for host %q", c.RealIP(), c.FormValue("host"))
		return c.String(http.StatusBadRequest, msgHostRejected)
	}

	name := storage.NewName(header.Filename)
	progress := NewProgressReader(file, header.Size, name)
	log.Printf("Starting upload: %q (%s) as %s", header.Filename, formatBytes(header.Size), name)

	size, err := h.store.Save(c.Request().Context(), name, progress)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return h.tooLarge(c)
		}
		log.Printf("Error: Failed to store %s: %v", name, err)
		return c.String(http.StatusInternalServerError, msgProcessFailed)
	}
	log.Printf("✓ Upload completed: %s (%s) - %.2f MB/s", name, formatBytes(size), progress.Speed())

	resp := UploadResponse{FileURL: link.Build(origin, name)}

	if h.shortener != nil {
		resp.ShortenedLink = h.shortenLink(c.Request().Context(), resp.FileURL)
	}

	resp.QRCodeURL, err = h.encoder.Encode(resp.FileURL)
	if err != nil {
		log.Printf("Error: Failed to generate QR code for %s: %v", resp.FileURL, err)
		if rmErr := h.store.Remove(name); rmErr != nil {
			log.Printf("Warning: Failed to clean up %s after QR error: %v", name, rmErr)
		}
		return c.String(http.StatusInternalServerError, msgProcessFailed)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) parseRequestForm(c echo.Context) error {
	err := c.Request().ParseMultipartForm(32 << 20)
	if errors.Is(err, http.ErrNotMultipart) {
		return c.Request().ParseForm()
	}
	return err
}

// declaredOrigin returns the origin the client asked links to be built with,
// falling back to the origin the request was addressed to.
func (h *Handler) declaredOrigin(c echo.Context) (string, error) {
	origin := strings.TrimSpace(c.FormValue("host"))
	if origin == "" {
		origin = link.RequestOrigin(c.Scheme(), c.Request().Host)
	}
	return h.policy.Check(origin)
}

// isBodyTooLarge reports whether err comes from a request body cut off by
// either http.MaxBytesReader or echo's body-limit middleware.
func isBodyTooLarge(err error) bool {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return true
	}
	var he *echo.HTTPError
	return errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge
}

func (h *Handler) tooLarge(c echo.Context) error {
	return c.String(http.StatusBadRequest, fmt.Sprintf("File too large (max %d bytes)", h.store.MaxSize()))
}

// ErrorHandler answers body-limit rejections raised by middleware the same way
// HandleUpload does and hands every other error to next.
func (h *Handler) ErrorHandler(next echo.HTTPErrorHandler) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
			if c.Response().Committed {
				return
			}
			log.Printf("Warning: Rejected oversized request from %s", c.RealIP())
			if err := h.tooLarge(c); err != nil {
				log.Printf("Error: Failed to write response: %v", err)
			}
			return
		}
		next(err, c)
	}
}
