package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured ceiling.
	ErrTooLarge = errors.New("file too large")
	// ErrNotFound is returned for names that are invalid or not present.
	ErrNotFound = errors.New("file not found")
)

const defaultBufferSize = 64 * 1024

// Store persists uploads in a single flat directory.
type Store struct {
	fs         afero.Fs
	maxSize    int64
	bufferSize int
}

// New creates a store on top of fs. fs is expected to be rooted at the
// upload directory.
func New(fs afero.Fs, maxSize int64, bufferSize int) *Store {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Store{
		fs:         fs,
		maxSize:    maxSize,
		bufferSize: bufferSize,
	}
}

// NewOS creates a store rooted at dir on the local filesystem.
func NewOS(dir string, maxSize int64, bufferSize int) *Store {
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir), maxSize, bufferSize)
}

// MaxSize returns the size ceiling in bytes.
func (s *Store) MaxSize() int64 {
	return s.maxSize
}

// EnsureDir creates the storage root if it does not exist yet.
// Concurrent callers are fine: MkdirAll tolerates a directory created in between.
func (s *Store) EnsureDir() error {
	if err := s.fs.MkdirAll(string(os.PathSeparator), 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	return nil
}

// Check reports whether the storage root exists and is a directory without
// creating anything.
func (s *Store) Check() error {
	info, err := s.fs.Stat(string(os.PathSeparator))
	if err != nil {
		return fmt.Errorf("storage directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root is not a directory")
	}
	return nil
}

// Save writes r to name and returns the number of bytes written.
// The file is removed on any failure, so a name either holds a complete upload
// or does not exist.
func (s *Store) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	if !ValidName(name) {
		return 0, fmt.Errorf("invalid storage name %q", name)
	}
	if err := s.EnsureDir(); err != nil {
		return 0, err
	}

	dst, err := s.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	src := io.LimitReader(&ctxReader{ctx: ctx, r: r}, s.maxSize+1)
	size, err := io.CopyBuffer(dst, src, make([]byte, s.bufferSize))
	if closeErr := dst.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close file: %w", closeErr)
	}
	if err == nil && size > s.maxSize {
		err = ErrTooLarge
	}

	if err != nil {
		if rmErr := s.fs.Remove(name); rmErr != nil && !os.IsNotExist(rmErr) {
			return 0, fmt.Errorf("%w (cleanup failed: %v)", err, rmErr)
		}
		if errors.Is(err, ErrTooLarge) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to save file: %w", err)
	}

	return size, nil
}

// Open returns the stored file called name along with its info.
func (s *Store) Open(name string) (afero.File, os.FileInfo, error) {
	if !ValidName(name) {
		return nil, nil, ErrNotFound
	}

	f, err := s.fs.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, ErrNotFound
	}

	return f, info, nil
}

// Remove deletes the stored file called name.
func (s *Store) Remove(name string) error {
	if !ValidName(name) {
		return ErrNotFound
	}
	if err := s.fs.Remove(name); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
