package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultServer = "http://localhost:3000"
	configDirName = ".dropqr"
	qrDataPrefix  = "data:image/png;base64,"
)

// UploadResponse mirrors the server's upload answer
type UploadResponse struct {
	FileURL       string `json:"fileUrl"`
	QRCodeURL     string `json:"qrCodeUrl"`
	ShortenedLink string `json:"shortenedLink,omitempty"`
}

type Client struct {
	BaseURL string
	HTTP    *resty.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    resty.New().SetTimeout(30 * time.Minute),
	}
}

// UploadFile posts filePath as the "file" form field. An empty host lets the
// server build links from the address it was reached on.
func (c *Client) UploadFile(filePath, host string) (*UploadResponse, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	req := c.HTTP.R().
		SetHeader("Accept", "application/json").
		SetFile("file", filePath).
		SetResult(&UploadResponse{})
	if host != "" {
		req.SetFormData(map[string]string{"host": host})
	}

	resp, err := req.Post(c.BaseURL + "/upload")
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("upload failed with status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	out, ok := resp.Result().(*UploadResponse)
	if !ok || out.FileURL == "" {
		return nil, fmt.Errorf("failed to decode response: %s", resp.String())
	}
	return out, nil
}

// Download fetches fileURL into dest and returns the number of bytes written
func (c *Client) Download(fileURL, dest string) (int64, error) {
	resp, err := c.HTTP.R().SetOutput(dest).Get(fileURL)
	if err != nil {
		return 0, fmt.Errorf("failed to download file: %w", err)
	}
	if resp.IsError() {
		os.Remove(dest)
		return 0, fmt.Errorf("download failed with status %d", resp.StatusCode())
	}

	info, err := os.Stat(dest)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// SaveQRCode decodes the PNG data URL returned by an upload into path
func SaveQRCode(dataURL, path string) error {
	if !strings.HasPrefix(dataURL, qrDataPrefix) {
		return errors.New("unexpected QR code format")
	}

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, qrDataPrefix))
	if err != nil {
		return fmt.Errorf("failed to decode QR code: %w", err)
	}

	return os.WriteFile(path, png, 0o644)
}

// downloadName picks a local filename from the last path segment of fileURL
func downloadName(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("cannot derive a filename from %s", fileURL)
	}
	return name, nil
}

func printUploadResponse(w io.Writer, resp *UploadResponse) {
	fmt.Fprintf(w, "Upload successful!\n")
	fmt.Fprintf(w, "URL: %s\n", resp.FileURL)
	if resp.ShortenedLink != "" && resp.ShortenedLink != resp.FileURL {
		fmt.Fprintf(w, "Short URL: %s\n", resp.ShortenedLink)
	}
}

// newRootCmd builds the CLI around v, which holds the persisted client settings
func newRootCmd(v *viper.Viper) *cobra.Command {
	var client *Client

	rootCmd := &cobra.Command{
		Use:   "dropqr-client",
		Short: "Upload files to a dropqr server and get a link plus QR code",
		Long: `dropqr-client uploads files to a dropqr server and prints the download link.

Quick start:
  dropqr-client upload photo.jpg --qr photo-qr.png   # Upload and save the QR code
  dropqr-client download https://drop.example.com/download/1700000000000-42.jpg
  dropqr-client config set server https://drop.example.com`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			server := v.GetString("server")
			if server == "" {
				server = defaultServer
			}
			client = NewClient(server)
		},
	}

	uploadCmd := &cobra.Command{
		Use:     "upload <file>",
		Aliases: []string{"u", "up"},
		Short:   "Upload a file to the server",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.UploadFile(args[0], v.GetString("host"))
			if err != nil {
				return err
			}
			printUploadResponse(cmd.OutOrStdout(), resp)

			if qrPath, _ := cmd.Flags().GetString("qr"); qrPath != "" {
				if err := SaveQRCode(resp.QRCodeURL, qrPath); err != nil {
					return fmt.Errorf("error saving QR code: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "QR code: %s\n", qrPath)
			}
			return nil
		},
	}
	uploadCmd.Flags().String("qr", "", "Write the QR code PNG to this path")

	downloadCmd := &cobra.Command{
		Use:     "download <url>",
		Aliases: []string{"d", "get"},
		Short:   "Download a file by its link",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, _ := cmd.Flags().GetString("output")
			if dest == "" {
				name, err := downloadName(args[0])
				if err != nil {
					return err
				}
				dest = name
			}

			n, err := client.Download(args[0], dest)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", dest, n)
			return nil
		},
	}
	downloadCmd.Flags().StringP("output", "o", "", "Destination path (default: name from the link)")

	configCmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"c", "cfg"},
		Short:   "Manage client configuration",
		Long: `Manage client configuration settings.

Available keys:
  • server: Server URL (e.g., https://drop.example.com)
  • host: Origin the server should build links with

Configuration is stored in ~/.dropqr/config.yaml`,
	}

	configSetCmd := &cobra.Command{
		Use:     "set <key> <value>",
		Aliases: []string{"s"},
		Short:   "Set a configuration value",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v.Set(args[0], args[1])
			if err := writeConfig(v); err != nil {
				return fmt.Errorf("error saving configuration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
			return nil
		},
	}

	configGetCmd := &cobra.Command{
		Use:     "get <key>",
		Aliases: []string{"g"},
		Short:   "Get a configuration value",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if value := v.GetString(args[0]); value != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], value)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not set\n", args[0])
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringP("server", "s", "", "Server URL (default: "+defaultServer+")")
	rootCmd.PersistentFlags().String("host", "", "Origin to build download links with (default: server decides)")
	_ = v.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = v.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host"))

	rootCmd.AddCommand(uploadCmd, downloadCmd, configCmd)
	configCmd.AddCommand(configSetCmd, configGetCmd)

	return rootCmd
}

// newViper reads the client config from dir when present
func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("DROPQR_CLIENT")
	v.AutomaticEnv()
	_ = v.ReadInConfig() // A missing config file means defaults
	return v
}

func writeConfig(v *viper.Viper) error {
	if file := v.ConfigFileUsed(); file != "" {
		return v.WriteConfig()
	}

	dir, err := configDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return v.WriteConfigAs(filepath.Join(dir, "config.yaml"))
}

func configDir() (string, error) {
	if dir := os.Getenv("DROPQR_CLIENT_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDirName), nil
}

func main() {
	dir, err := configDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(newViper(dir)).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
