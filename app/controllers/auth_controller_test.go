package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendhack/dashboard/app/models"
	"github.com/trendhack/dashboard/internal/pkg/middleware"
)

type fakeCaptcha struct{ err error }

func (f fakeCaptcha) Verify(context.Context, string, string) error { return f.err }

func newAuthApp(e *testEnv) *fiber.App {
	app := fiber.New()
	app.Use(middleware.UserContext(e.sessions))
	app.Post("/login", e.ctrl.Auth.HandleLogin)
	app.Post("/register", e.ctrl.Auth.HandleRegister)
	app.Get("/auth/callback", e.ctrl.Auth.HandleCallback)
	app.Post("/auth/logout", e.ctrl.Auth.HandleLogout)
	app.Post("/password/forgot", e.ctrl.Auth.HandleForgotPassword)
	app.Post("/password/reset", e.ctrl.Auth.HandleResetPassword)
	app.Get("/api/v1/session", e.ctrl.Auth.HandleSession)
	return app
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func get(t *testing.T, app *fiber.App, path string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	return nil
}

func pendingUser(e *testEnv, sentAgo time.Duration) models.User {
	sent := e.now.Add(-sentAgo)
	return e.store.AddUser(models.User{
		Name:             "Ana",
		Email:            "ana@example.com",
		Role:             models.ROLE_USER,
		Status:           models.STATUS_INACTIVE,
		ActivationToken:  "code-123",
		ActivationSentAt: &sent,
	})
}

func TestCallbackValidCodeSignsIn(t *testing.T) {
	e := newEnv(t)
	user := pendingUser(e, time.Hour)
	app := newAuthApp(e)

	resp := get(t, app, "/auth/callback?code=code-123")
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get(fiber.HeaderLocation))

	stored, err := e.store.Repositories().User.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.STATUS_ACTIVE, stored.Status)
	assert.Empty(t, stored.ActivationToken)
	require.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, e.now, *stored.LastLoginAt)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)

	resp = get(t, app, "/api/v1/session", cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, true, body["is_logged_in"])
	u := body["user"].(map[string]interface{})
	assert.EqualValues(t, user.ID, u["id"])
	assert.Equal(t, "ana@example.com", u["email"])
	assert.Contains(t, u["avatar"], "gravatar.com")
}

func TestCallbackRejectsBadCodes(t *testing.T) {
	e := newEnv(t)
	pendingUser(e, 25*time.Hour)
	app := newAuthApp(e)

	for _, path := range []string{"/auth/callback", "/auth/callback?code=nope", "/auth/callback?code=code-123"} {
		resp := get(t, app, path)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation), path)
		assert.Nil(t, sessionCookie(resp), path)
	}
}

func TestLogoutRedirectsToLogin(t *testing.T) {
	e := newEnv(t)
	pendingUser(e, time.Minute)
	app := newAuthApp(e)

	cookie := sessionCookie(get(t, app, "/auth/callback?code=code-123"))
	require.NotNil(t, cookie)

	req := httptest.NewRequest(fiber.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))

	body := decode(t, get(t, app, "/api/v1/session", cookie))
	assert.Equal(t, false, body["is_logged_in"])
}

func TestSessionAnonymous(t *testing.T) {
	e := newEnv(t)
	app := newAuthApp(e)

	body := decode(t, get(t, app, "/api/v1/session"))
	assert.Equal(t, false, body["is_logged_in"])
	assert.NotContains(t, body, "user")
}

func TestRegisterMailsCallbackLink(t *testing.T) {
	e := newEnv(t)
	app := newAuthApp(e)

	resp := postForm(t, app, "/register", url.Values{
		"name":             {"Carla Dias"},
		"email":            {"Carla@Example.com"},
		"password":         {"segredo123"},
		"password_confirm": {"segredo123"},
	})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))

	user, err := e.store.Repositories().User.GetByEmail(context.Background(), "carla@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.STATUS_INACTIVE, user.Status)
	assert.Equal(t, "carla@example.com", e.mailer.to)
	assert.Contains(t, e.mailer.body, "https://app.example.com/auth/callback?code="+user.ActivationToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := newEnv(t)
	e.store.AddUser(models.User{Name: "Ana", Email: "ana@example.com"})
	app := newAuthApp(e)

	resp := postForm(t, app, "/register", url.Values{
		"name":             {"Ana Maria"},
		"email":            {"ana@example.com"},
		"password":         {"segredo123"},
		"password_confirm": {"segredo123"},
	})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/register", resp.Header.Get(fiber.HeaderLocation))
	assert.Empty(t, e.mailer.to)
}

func TestRegisterCaptchaRejected(t *testing.T) {
	e := newEnv(t)
	e.ctrl.Auth.captcha = fakeCaptcha{err: errors.New("rejected")}
	app := newAuthApp(e)

	resp := postForm(t, app, "/register", url.Values{
		"name":             {"Carla Dias"},
		"email":            {"carla@example.com"},
		"password":         {"segredo123"},
		"password_confirm": {"segredo123"},
	})
	assert.Equal(t, "/register", resp.Header.Get(fiber.HeaderLocation))
	_, err := e.store.Repositories().User.GetByEmail(context.Background(), "carla@example.com")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	hash, err := models.HashPassword("segredo123")
	require.NoError(t, err)
	e.store.AddUser(models.User{Name: "Ana", Email: "ana@example.com", Password: hash, Status: models.STATUS_ACTIVE})
	e.store.AddUser(models.User{Name: "Bia", Email: "bia@example.com", Password: hash, Status: models.STATUS_INACTIVE})
	app := newAuthApp(e)

	resp := postForm(t, app, "/login", url.Values{"email": {"ana@example.com"}, "password": {"errada"}})
	assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))

	resp = postForm(t, app, "/login", url.Values{"email": {"bia@example.com"}, "password": {"segredo123"}})
	assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))

	resp = postForm(t, app, "/login", url.Values{"email": {"ana@example.com"}, "password": {"segredo123"}})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get(fiber.HeaderLocation))
	assert.NotNil(t, sessionCookie(resp))
}

func TestPasswordResetFlow(t *testing.T) {
	e := newEnv(t)
	hash, err := models.HashPassword("antiga123")
	require.NoError(t, err)
	user := e.store.AddUser(models.User{Name: "Ana", Email: "ana@example.com", Password: hash, Status: models.STATUS_ACTIVE})
	app := newAuthApp(e)

	resp := postForm(t, app, "/password/forgot", url.Values{"email": {"nobody@example.com"}})
	assert.Equal(t, "/password/reset", resp.Header.Get(fiber.HeaderLocation))
	assert.Empty(t, e.mailer.to)

	resp = postForm(t, app, "/password/forgot", url.Values{"email": {"ana@example.com"}})
	assert.Equal(t, "/password/reset", resp.Header.Get(fiber.HeaderLocation))
	stored, err := e.store.Repositories().User.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.ResetToken)

	// reset tokens are stamped with the wall clock
	e.now = time.Now()
	resp = postForm(t, app, "/password/reset", url.Values{
		"code":             {stored.ResetToken},
		"password":         {"nova12345"},
		"password_confirm": {"nova12345"},
	})
	assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))

	stored, err = e.store.Repositories().User.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.CheckPassword("nova12345"))
}
