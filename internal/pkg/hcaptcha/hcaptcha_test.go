package hcaptcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func siteverify(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.PostForm.Get("secret"))
		assert.Equal(t, "tok", r.PostForm.Get("response"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifySuccess(t *testing.T) {
	srv := siteverify(t, `{"success":true,"hostname":"localhost"}`)
	v := NewVerifier("secret", srv.URL, srv.Client())

	assert.NoError(t, v.Verify(context.Background(), "tok", "10.0.0.1"))
}

func TestVerifyRejected(t *testing.T) {
	srv := siteverify(t, `{"success":false,"error-codes":["invalid-input-response"]}`)
	v := NewVerifier("secret", srv.URL, srv.Client())

	err := v.Verify(context.Background(), "tok", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid-input-response")
}

func TestVerifyEmptyToken(t *testing.T) {
	v := NewVerifier("secret", "http://127.0.0.1:1", nil)
	assert.ErrorIs(t, v.Verify(context.Background(), "", ""), ErrEmptyToken)
}

func TestNewVerifierFromEnvDisabled(t *testing.T) {
	t.Setenv("HCAPTCHA_SECRET", "")
	assert.Nil(t, NewVerifierFromEnv())
}
