// Package blob stores small user uploads on an afero filesystem and hands
// back URLs the HTTP layer can serve.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"taskit/internal/logger"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const DefaultMaxBytes = 400 * 1024

var (
	ErrTooLarge        = errors.New("blob too large")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrNotFound        = errors.New("blob not found")
	ErrInvalidKey      = errors.New("invalid blob key")
)

type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type Store struct {
	fs       afero.Fs
	baseURL  string
	maxBytes int64
}

// New roots the store at dir on fs. baseURL is prefixed to keys to build URLs.
func New(fs afero.Fs, dir, baseURL string, maxBytes int64) (*Store, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create blob root: %w", err)
		}
		fs = afero.NewBasePathFs(fs, dir)
	}
	return &Store{
		fs:       fs,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
	}, nil
}

func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// PutImage writes an image under key, replacing what was there.
func (s *Store) PutImage(ctx context.Context, key string, r io.Reader) (Object, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return Object{}, err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return Object{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return Object{}, fmt.Errorf("%w: limit is %s", ErrTooLarge, humanize.Bytes(uint64(s.maxBytes)))
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return Object{}, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	if err := s.fs.MkdirAll(path.Dir(clean), 0o755); err != nil {
		return Object{}, fmt.Errorf("create blob dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, clean, data, 0o644); err != nil {
		logger.Error("Blob: failed to write", err, zap.String("key", clean))
		return Object{}, fmt.Errorf("write blob: %w", err)
	}

	logger.Info("Blob: stored",
		zap.String("key", clean),
		zap.String("size", humanize.Bytes(uint64(len(data)))))

	return Object{
		Key:         clean,
		URL:         s.baseURL + "/" + clean,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// Open returns the content and its sniffed content type.
func (s *Store) Open(key string) (io.ReadSeekCloser, string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return nil, "", err
	}
	f, err := s.fs.Open(clean)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("open blob: %w", err)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, "", fmt.Errorf("read blob: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, "", fmt.Errorf("rewind blob: %w", err)
	}
	return f, http.DetectContentType(bytes.Clone(head[:n])), nil
}

func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || key == "." || strings.HasPrefix(key, "..") {
		return "", ErrInvalidKey
	}
	return key, nil
}

func AvatarKey(userID string) string {
	return "profile-pictures/" + userID
}
