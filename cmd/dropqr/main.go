package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marianozunino/dropqr/internal/app"
	"github.com/marianozunino/dropqr/internal/config"
)

const shutdownTimeout = 10 * time.Second

// newRootCmd builds the server command; serve receives the resolved configuration
func newRootCmd(v *viper.Viper, serve func(*config.Config) error) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "dropqr",
		Short:         "Upload files and share them through a download link and QR code",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, configPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "Path to a YAML config file")
	flags.IntP("port", "p", 3000, "Port to listen on")
	flags.String("upload-path", "./uploads", "Directory uploaded files are stored in")

	_ = v.BindPFlag("port", flags.Lookup("port"))
	_ = v.BindPFlag("upload_path", flags.Lookup("upload-path"))

	return cmd
}

// loadConfig layers the optional config file under flags and environment
func loadConfig(v *viper.Viper, path string) (*config.Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		log.Printf("Loaded config from %s", path)
	}
	return config.FromViper(v)
}

func run(cfg *config.Config) error {
	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := application.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Printf("")
	log.Printf("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := application.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	log.Printf("Server shutdown complete")
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: Failed to load .env: %v", err)
	}

	if err := newRootCmd(config.New(), run).Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
