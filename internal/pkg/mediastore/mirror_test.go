package mediastore

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	keys   []string
	bodies [][]byte
}

func (f *fakeUploader) Put(_ context.Context, key string, body []byte, _ string) error {
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, body)
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestThumbnailFitsBoundingBox(t *testing.T) {
	out, err := Thumbnail(pngBytes(t, 1080, 1920))
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 180, img.Bounds().Dx())
	assert.Equal(t, 320, img.Bounds().Dy())
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	_, err := Thumbnail([]byte("not an image"))
	assert.Error(t, err)
}

func TestMirrorCopy(t *testing.T) {
	src := pngBytes(t, 640, 640)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(src)
	}))
	defer srv.Close()

	up := &fakeUploader{}
	cfg := &Config{Enabled: true, BucketName: "media", PublicBaseURL: "https://cdn.example.com/"}
	m := NewMirror(cfg, up)

	url, err := m.Copy(context.Background(), KindProfile, 12, srv.URL+"/avatar.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/media/profile/12.jpg", url)
	assert.Equal(t, []string{"media/profile/12.jpg"}, up.keys)
	assert.True(t, m.IsMirrored(url))
	assert.False(t, m.IsMirrored(srv.URL+"/avatar.png"))
}

func TestMirrorCopyUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	m := NewMirror(&Config{Enabled: true, BucketName: "media"}, &fakeUploader{})
	_, err := m.Copy(context.Background(), KindVideo, 1, srv.URL)
	assert.Error(t, err)
}

func TestMirrorDisabled(t *testing.T) {
	m := NewMirror(&Config{Enabled: false}, &fakeUploader{})
	_, err := m.Copy(context.Background(), KindVideo, 1, "https://example.com/a.jpg")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestConfigURLs(t *testing.T) {
	cfg := &Config{BucketName: "b", Region: "sa-east-1"}
	assert.Equal(t, "https://b.s3.sa-east-1.amazonaws.com/media/video/3.jpg", cfg.PublicURL(cfg.ObjectKey(KindVideo, 3)))

	cfg.EndpointURL = "http://minio:9000/"
	assert.Equal(t, "http://minio:9000/b", cfg.BaseURL())
}
