package jobqueue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendhack/dashboard/app/models"
	"github.com/trendhack/dashboard/app/repository/memrepo"
	"github.com/trendhack/dashboard/internal/pkg/mediastore"
	"github.com/trendhack/dashboard/internal/pkg/statistics"
)

type fakeMirror struct {
	enabled bool
	copies  []string
	err     error
}

func (f *fakeMirror) Enabled() bool  { return f.enabled }
func (f *fakeMirror) Prefix() string { return "https://media.example.com/media/" }

func (f *fakeMirror) IsMirrored(url string) bool {
	return strings.HasPrefix(url, f.Prefix())
}

func (f *fakeMirror) Copy(_ context.Context, kind string, id uint, src string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.copies = append(f.copies, src)
	return f.Prefix() + kind + "/" + "x.jpg", nil
}

type fakeRefresher struct {
	users []uint
	err   error
}

func (f *fakeRefresher) Refresh(_ context.Context, userID uint) (*statistics.UserMetrics, error) {
	f.users = append(f.users, userID)
	return &statistics.UserMetrics{}, f.err
}

func mirrorJob(kind string, id uint, src string) *Job {
	return &Job{ID: "j", Type: JobTypeMirrorMedia, Payload: MirrorMediaJobPayload{Kind: kind, RowID: id, SourceURL: src}.ToMap()}
}

func TestProcessRefreshMetricsJob(t *testing.T) {
	r := &fakeRefresher{}
	p := &Processors{Metrics: r}

	job := &Job{Type: JobTypeRefreshMetrics, Payload: RefreshMetricsJobPayload{UserID: 3}.ToMap()}
	require.NoError(t, p.processRefreshMetricsJob(context.Background(), job))
	assert.Equal(t, []uint{3}, r.users)

	assert.Error(t, p.processRefreshMetricsJob(context.Background(), &Job{Payload: map[string]interface{}{}}))

	r.err = errors.New("db down")
	assert.Error(t, p.processRefreshMetricsJob(context.Background(), job))
}

func TestProcessMirrorMediaJobProfile(t *testing.T) {
	store := memrepo.New()
	profile := store.AddProfile(models.Profile{Username: "alice", Platform: models.PlatformInstagram, ProfilePicURL: "https://cdn.ig/alice.jpg"})
	repos := store.Repositories()
	mirror := &fakeMirror{enabled: true}
	p := &Processors{Mirror: mirror, Profiles: repos.Profile, Videos: repos.Video}

	require.NoError(t, p.processMirrorMediaJob(context.Background(), mirrorJob(mediastore.KindProfile, profile.ID, profile.ProfilePicURL)))
	assert.Equal(t, []string{"https://cdn.ig/alice.jpg"}, mirror.copies)
	assert.Equal(t, "https://media.example.com/media/profile/x.jpg", store.Profiles()[0].ProfilePicURL)

	// Already mirrored urls are skipped
	require.NoError(t, p.processMirrorMediaJob(context.Background(), mirrorJob(mediastore.KindProfile, profile.ID, "https://media.example.com/media/profile/x.jpg")))
	assert.Len(t, mirror.copies, 1)
}

func TestProcessMirrorMediaJobVideo(t *testing.T) {
	store := memrepo.New()
	video, _ := store.AddVideo(models.Video{ThumbnailURL: "https://cdn.tt/v.jpg"})
	repos := store.Repositories()
	p := &Processors{Mirror: &fakeMirror{enabled: true}, Profiles: repos.Profile, Videos: repos.Video}

	require.NoError(t, p.processMirrorMediaJob(context.Background(), mirrorJob(mediastore.KindVideo, video.ID, video.ThumbnailURL)))
	assert.Equal(t, "https://media.example.com/media/video/x.jpg", store.Video(video.ID).ThumbnailURL)
}

func TestProcessMirrorMediaJobDisabledIsNoop(t *testing.T) {
	mirror := &fakeMirror{enabled: false}
	p := &Processors{Mirror: mirror}

	require.NoError(t, p.processMirrorMediaJob(context.Background(), mirrorJob(mediastore.KindProfile, 1, "https://cdn.ig/a.jpg")))
	assert.Empty(t, mirror.copies)
}

func TestProcessMirrorMediaJobErrors(t *testing.T) {
	store := memrepo.New()
	repos := store.Repositories()
	mirror := &fakeMirror{enabled: true}
	p := &Processors{Mirror: mirror, Profiles: repos.Profile, Videos: repos.Video}

	err := p.processMirrorMediaJob(context.Background(), mirrorJob("banner", 1, "https://cdn/a.jpg"))
	assert.ErrorContains(t, err, "unknown media kind")

	err = p.processMirrorMediaJob(context.Background(), mirrorJob(mediastore.KindProfile, 999, "https://cdn/a.jpg"))
	assert.Error(t, err, "missing profile row")

	mirror.err = mediastore.ErrTooLarge
	err = p.processMirrorMediaJob(context.Background(), mirrorJob(mediastore.KindProfile, 1, "https://cdn/b.jpg"))
	assert.ErrorIs(t, err, mediastore.ErrTooLarge)
}
