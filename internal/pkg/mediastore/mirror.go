// Package mediastore copies third-party avatars and thumbnails into our own
// bucket, since scraped CDN links expire.
package mediastore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
)

const (
	KindProfile = "profile"
	KindVideo   = "video"

	// MaxDownloadBytes caps a single source download.
	MaxDownloadBytes = 10 << 20
	// ThumbnailSize is the bounding box of the stored JPEG.
	ThumbnailSize = 320
)

var (
	ErrDisabled = errors.New("media mirroring disabled")
	ErrTooLarge = errors.New("source exceeds download limit")
)

// Mirror downloads, shrinks and re-uploads media.
type Mirror struct {
	config     *Config
	uploader   Uploader
	httpClient *http.Client
}

func NewMirror(cfg *Config, uploader Uploader) *Mirror {
	return &Mirror{
		config:   cfg,
		uploader: uploader,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (m *Mirror) Enabled() bool {
	return m != nil && m.config.IsEnabled() && m.uploader != nil
}

// Prefix is the URL prefix of already-mirrored media.
func (m *Mirror) Prefix() string {
	return m.config.BaseURL() + "/media/"
}

// IsMirrored reports whether url already points into our bucket.
func (m *Mirror) IsMirrored(url string) bool {
	return strings.HasPrefix(url, m.Prefix())
}

// Copy mirrors src and returns the public URL of the stored JPEG.
func (m *Mirror) Copy(ctx context.Context, kind string, id uint, src string) (string, error) {
	if !m.Enabled() {
		return "", ErrDisabled
	}
	data, err := m.fetch(ctx, src)
	if err != nil {
		return "", err
	}
	thumb, err := Thumbnail(data)
	if err != nil {
		return "", err
	}
	key := m.config.ObjectKey(kind, id)
	if err := m.uploader.Put(ctx, key, thumb, "image/jpeg"); err != nil {
		return "", err
	}
	log.Debugf("[MediaStore] Mirrored %s %d to %s", kind, id, key)
	return m.config.PublicURL(key), nil
}

func (m *Mirror) fetch(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "TrendHack-MediaMirror/1.0")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download %s: status %d", src, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	if len(data) > MaxDownloadBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// Thumbnail decodes an image, fits it into ThumbnailSize and encodes JPEG.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	img = imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
