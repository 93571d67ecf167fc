package app

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/marianozunino/dropqr/internal/config"
	"github.com/marianozunino/dropqr/internal/handler"
	middie "github.com/marianozunino/dropqr/internal/middleware"
	"github.com/marianozunino/dropqr/internal/qr"
	"github.com/marianozunino/dropqr/internal/shortener"
	"github.com/marianozunino/dropqr/internal/storage"
)

//go:embed public
var publicFS embed.FS

// App represents the application
type App struct {
	server   *echo.Echo
	config   *config.Config
	store    *storage.Store
	listener net.Listener
}

// New creates a new application instance from a validated configuration
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configData, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	log.Printf("Configuration:\n%s", string(configData))

	store := storage.NewOS(cfg.UploadPath, cfg.MaxSizeToBytes(), cfg.StreamingBufferSizeToBytes())
	if err := setup(store); err != nil {
		return nil, err
	}

	sh, err := newShortener(cfg)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Uploads can be large, so reads and writes get generous limits
	e.Server.ReadTimeout = 10 * time.Minute
	e.Server.WriteTimeout = 10 * time.Minute
	e.Server.IdleTimeout = 15 * time.Minute
	e.Server.ReadHeaderTimeout = 30 * time.Second

	log.Printf("Server timeouts configured: Read=%v, Write=%v, Idle=%v",
		e.Server.ReadTimeout, e.Server.WriteTimeout, e.Server.IdleTimeout)

	app := &App{
		server: e,
		config: cfg,
		store:  store,
	}

	e.Use(middie.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middie.SecurityHeaders())

	h := handler.NewHandler(cfg, store, sh, qr.NewPNGEncoder(cfg.QR.Size, cfg.QR.Level))
	e.HTTPErrorHandler = h.ErrorHandler(e.DefaultHTTPErrorHandler)

	registerRoutes(e, app, h)
	return app, nil
}

// ServeHTTP dispatches a request through the application router
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.server.ServeHTTP(w, r)
}

// Start binds the configured port and serves in the background
func (a *App) Start() error {
	serverAddr := fmt.Sprintf(":%d", a.config.Port)

	ln, err := net.Listen("tcp", serverAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", serverAddr, err)
	}
	a.listener = ln
	a.server.Listener = ln

	go func() {
		if err := a.server.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server stopped: %v", err)
		}
	}()

	log.Printf("Server started on %s", ln.Addr())
	return nil
}

// Addr returns the bound address once Start succeeded
func (a *App) Addr() net.Addr {
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Shutdown gracefully shuts down the server
func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// setup ensures the storage directory exists
func setup(store *storage.Store) error {
	if err := store.EnsureDir(); err != nil {
		return fmt.Errorf("failed to prepare upload directory: %w", err)
	}
	return nil
}

// newShortener returns nil when shortening is switched off so uploads omit the field
func newShortener(cfg *config.Config) (shortener.Shortener, error) {
	sh, err := shortener.FromConfig(cfg.Shortener)
	if err != nil {
		return nil, fmt.Errorf("failed to configure shortener: %w", err)
	}
	if sh == nil {
		log.Printf("Link shortening disabled")
		return nil, nil
	}
	log.Printf("Link shortening via %s (timeout %v)", cfg.Shortener.Provider, cfg.Shortener.Timeout)
	return sh, nil
}

// registerRoutes registers all HTTP routes
func registerRoutes(e *echo.Echo, app *App, h *handler.Handler) {
	limit := handler.MaxRequestSize(app.store.MaxSize())
	bodyLimit := middleware.BodyLimit(fmt.Sprintf("%dK", (limit+1023)/1024))

	e.POST("/upload", h.HandleUpload, bodyLimit)
	e.GET("/download/:filename", h.HandleDownload)
	e.HEAD("/download/:filename", h.HandleDownload)
	e.GET("/healthz", h.HandleHealth)

	if app.config.StaticPath != "" {
		log.Printf("Serving UI from %s", app.config.StaticPath)
		e.Static("/", app.config.StaticPath)
		return
	}
	e.StaticFS("/", echo.MustSubFS(publicFS, "public"))
}
