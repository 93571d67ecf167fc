package handler

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"github.com/marianozunino/dropqr/internal/storage"
)

const (
	msgNotFound       = "File not found or has expired."
	msgDownloadFailed = "File not found or download failed."
)

// HandleDownload streams a stored file back as an attachment.
// Missing files and read failures both answer 404; only the logs tell them apart.
func (h *Handler) HandleDownload(c echo.Context) error {
	filename := c.Param("filename")

	file, info, err := h.store.Open(filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Printf("Warning: Download of missing file %q by %s", filename, c.RealIP())
		} else {
			log.Printf("Error: Failed to open %q for download: %v", filename, err)
		}
		return c.String(http.StatusNotFound, msgNotFound)
	}
	defer file.Close()

	contentType, err := detectContentType(filename, file)
	if err != nil {
		log.Printf("Error: Failed to read %q for download: %v", filename, err)
		return c.String(http.StatusNotFound, msgDownloadFailed)
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentType, contentType)
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	header.Set("Cache-Control", "public, max-age=3600, must-revalidate")

	src := &trackingReader{ReadSeeker: file}
	dst := &trackingWriter{ResponseWriter: c.Response()}
	http.ServeContent(dst, c.Request(), filename, info.ModTime(), src)

	switch {
	case src.err != nil:
		log.Printf("Error: Download of %s failed after %s: %v", filename, formatBytes(dst.written), src.err)
	case dst.err != nil:
		log.Printf("Warning: Download of %s interrupted after %s: %v", filename, formatBytes(dst.written), dst.err)
	default:
		log.Printf("File downloaded: %s (%s) by %s", filename, formatBytes(dst.written), c.RealIP())
	}

	return nil
}

// detectContentType infers the content type from the extension and, failing
// that, from the first bytes of the file. The file is rewound afterwards.
func detectContentType(filename string, file io.ReadSeeker) (string, error) {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct, nil
	}

	mt, err := mimetype.DetectReader(file)
	if err != nil {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	return mt.String(), nil
}

type trackingReader struct {
	io.ReadSeeker
	err error
}

func (r *trackingReader) Read(p []byte) (int, error) {
	n, err := r.ReadSeeker.Read(p)
	if err != nil && err != io.EOF {
		r.err = err
	}
	return n, err
}

type trackingWriter struct {
	http.ResponseWriter
	written int64
	err     error
}

func (w *trackingWriter) Write(p []byte) (int, error) {
	n, err := w.ResponseWriter.Write(p)
	w.written += int64(n)
	if err != nil {
		w.err = err
	}
	return n, err
}
