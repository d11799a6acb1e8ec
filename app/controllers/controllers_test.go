package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/require"

	"github.com/trendhack/dashboard/app/repository/memrepo"
	"github.com/trendhack/dashboard/internal/pkg/billing"
	"github.com/trendhack/dashboard/internal/pkg/realtime"
	"github.com/trendhack/dashboard/internal/pkg/usercontext"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
	users  []uint
}

func (p *recordingPublisher) Publish(_ context.Context, userID uint, evt realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, userID)
	p.events = append(p.events, evt)
	return nil
}

type mirrorCall struct {
	Kind  string
	RowID uint
	Src   string
}

type recordingJobs struct {
	mu        sync.Mutex
	refreshed []uint
	mirrors   []mirrorCall
}

func (j *recordingJobs) EnqueueRefreshMetrics(_ context.Context, userID uint) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.refreshed = append(j.refreshed, userID)
	return nil
}

func (j *recordingJobs) EnqueueMirror(_ context.Context, kind string, rowID uint, src string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.mirrors = append(j.mirrors, mirrorCall{Kind: kind, RowID: rowID, Src: src})
	return nil
}

type fakeCheckout struct {
	got     billing.CheckoutParams
	session *billing.CheckoutSession
	err     error
}

func (f *fakeCheckout) CreateCheckoutSession(_ context.Context, p billing.CheckoutParams) (*billing.CheckoutSession, error) {
	f.got = p
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

type fakeMailer struct {
	to, subject, body string
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return nil
}

type testEnv struct {
	store    *memrepo.Store
	pub      *recordingPublisher
	jobs     *recordingJobs
	checkout *fakeCheckout
	mailer   *fakeMailer
	sessions *fibersession.Store
	ctrl     *Controllers
	now      time.Time
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{
		store:    memrepo.New(),
		pub:      &recordingPublisher{},
		jobs:     &recordingJobs{},
		checkout: &fakeCheckout{session: &billing.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}},
		mailer:   &fakeMailer{},
		sessions: fibersession.New(),
		now:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	e.ctrl = New(Dependencies{
		Repos:     e.store.Repositories(),
		Sessions:  e.sessions,
		Mailer:    e.mailer,
		Publisher: e.pub,
		Jobs:      e.jobs,
		Checkout:  e.checkout,
		BaseURL:   "https://app.example.com",
		Now:       func() time.Time { return e.now },
	})
	return e
}

// asUser stands in for the session middleware.
func asUser(id uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		usercontext.Set(c, usercontext.UserContext{UserID: id, IsLoggedIn: id != 0})
		return c.Next()
	}
}

func send(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
