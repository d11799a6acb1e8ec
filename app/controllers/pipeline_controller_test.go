package controllers

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendhack/dashboard/app/models"
	"github.com/trendhack/dashboard/internal/pkg/mediastore"
	"github.com/trendhack/dashboard/internal/pkg/realtime"
)

// newPipelineApp mounts the pipeline handlers without the signature check,
// which has its own tests.
func newPipelineApp(e *testEnv) *fiber.App {
	app := fiber.New()
	p := app.Group("/api/v1/pipeline")
	p.Get("/requests/pending", e.ctrl.Pipeline.HandlePendingRequests)
	p.Patch("/requests/:id/status", e.ctrl.Pipeline.HandleRequestStatus)
	p.Post("/requests/:id/videos", e.ctrl.Pipeline.HandleRequestVideos)
	p.Patch("/agents/:id", e.ctrl.Pipeline.HandleAgent)
	p.Patch("/profiles/:id", e.ctrl.Pipeline.HandleProfile)
	p.Post("/payments", e.ctrl.Pipeline.HandlePayment)
	return app
}

func TestPipelinePendingRequests(t *testing.T) {
	e := newEnv(t)
	f := seedCatalog(e)
	first := e.store.AddRequest(models.ExtractionRequest{UserID: f.user.ID, PlatformID: f.ig.ID, ToolID: f.igPage.ID})
	e.store.AddRequest(models.ExtractionRequest{UserID: f.user.ID, PlatformID: f.ig.ID, ToolID: f.igPage.ID, Status: models.RequestStatusComplete})
	second := e.store.AddRequest(models.ExtractionRequest{UserID: f.other.ID, PlatformID: f.ig.ID, ToolID: f.igPage.ID})
	app := newPipelineApp(e)

	resp, out := send(t, app, fiber.MethodGet, "/api/v1/pipeline/requests/pending?limit=500", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	rows := out["requests"].([]interface{})
	require.Len(t, rows, 2)
	assert.EqualValues(t, first.ID, rows[0].(map[string]interface{})["id"])
	assert.EqualValues(t, second.ID, rows[1].(map[string]interface{})["id"])
}

func TestPipelineStatusUpdate(t *testing.T) {
	e := newEnv(t)
	f := seedCatalog(e)
	req := e.store.AddRequest(models.ExtractionRequest{UserID: f.user.ID, PlatformID: f.ig.ID, ToolID: f.igPage.ID})
	app := newPipelineApp(e)
	path := fmt.Sprintf("/api/v1/pipeline/requests/%d/status", req.ID)

	resp, _ := send(t, app, fiber.MethodPatch, path, `{"status":3}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []realtime.Event{{Table: realtime.TableRequests, Action: realtime.ActionUpdate, RowID: req.ID}}, e.pub.events)
	assert.Equal(t, []uint{f.user.ID}, e.pub.users)
	assert.Equal(t, []uint{f.user.ID}, e.jobs.refreshed)

	resp, _ = send(t, app, fiber.MethodPatch, path, `{"status":4}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, out := send(t, app, fiber.MethodPatch, path, `{"status":2}`)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "terminal_status", out["error"])
	assert.Equal(t, models.RequestStatusComplete, e.store.Requests()[0].Status)
}

func TestPipelineStatusValidation(t *testing.T) {
	e := newEnv(t)
	f := seedCatalog(e)
	req := e.store.AddRequest(models.ExtractionRequest{UserID: f.user.ID, PlatformID: f.ig.ID, ToolID: f.igPage.ID})
	app := newPipelineApp(e)

	resp, _ := send(t, app, fiber.MethodPatch, fmt.Sprintf("/api/v1/pipeline/requests/%d/status", req.ID), `{"status":6}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = send(t, app, fiber.MethodPatch, "/api/v1/pipeline/requests/9999/status", `{"status":2}`)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPipelineVideos(t *testing.T) {
	e := newEnv(t)
	f := seedCatalog(e)
	req := e.store.AddRequest(models.ExtractionRequest{UserID: f.user.ID, PlatformID: f.ig.ID, ToolID: f.igPage.ID})
	app := newPipelineApp(e)
	path := fmt.Sprintf("/api/v1/pipeline/requests/%d/videos", req.ID)

	body := `[
		{"profile_id":` + fmt.Sprint(f.profile.ID) + `,"platform":"instagram","username":"@Alice","views_count":10,"thumbnail_url":"https://cdn.example/t1.jpg"},
		{"platform":"instagram","username":"alice","views_count":5}
	]`
	resp, out := send(t, app, fiber.MethodPost, path, body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	ids := out["ids"].([]interface{})
	require.Len(t, ids, 2)

	first := uint(ids[0].(float64))
	v := e.store.Video(first)
	assert.Equal(t, "alice", v.Username)
	assert.Equal(t, req.ID, v.RequestID)

	require.Len(t, e.pub.events, 2)
	assert.Equal(t, realtime.TableVideos, e.pub.events[0].Table)
	assert.Equal(t, []mirrorCall{{Kind: mediastore.KindVideo, RowID: first, Src: "https://cdn.example/t1.jpg"}}, e.jobs.mirrors)
	assert.Equal(t, []uint{f.user.ID}, e.jobs.refreshed)
}

func TestPipelineVideosRejectsBadBatches(t *testing.T) {
	e := newEnv(t)
	f := seedCatalog(e)
	req := e.store.AddRequest(models.ExtractionRequest{UserID: f.user.ID, PlatformID: f.ig.ID, ToolID: f.igPage.ID})
	app := newPipelineApp(e)
	path := fmt.Sprintf("/api/v1/pipeline/requests/%d/videos", req.ID)

	resp, _ := send(t, app, fiber.MethodPost, path, `[]`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = send(t, app, fiber.MethodPost, path, `[{"views_count":-1}]`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = send(t, app, fiber.MethodPost, path, "["+strings.TrimSuffix(strings.Repeat(`{"views_count":1},`, 501), ",")+"]")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = send(t, app, fiber.MethodPost, "/api/v1/pipeline/requests/9999/videos", `[{"views_count":1}]`)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPipelineAgentMovesForwardOnly(t *testing.T) {
	e := newEnv(t)
	f := seedCatalog(e)
	req := e.store.AddRequest(models.ExtractionRequest{UserID: f.user.ID, PlatformID: f.ig.ID, ToolID: f.igPage.ID})
	_, agent := e.store.AddVideo(models.Video{RequestID: req.ID})
	app := newPipelineApp(e)
	path := fmt.Sprintf("/api/v1/pipeline/agents/%d", agent.ID)

	resp, _ := send(t, app, fiber.MethodPatch, path, `{"field":"analysis","status":"complete","content":"Gancho forte"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	stored := e.store.Agent(agent.ID)
	assert.Equal(t, models.AgentStatusComplete, stored.Analysis.Status)
	assert.Equal(t, "Gancho forte", stored.Analysis.Content)

	resp, out := send(t, app, fiber.MethodPatch, path, `{"field":"analysis","status":"progress"}`)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_transition", out["error"])

	resp, _ = send(t, app, fiber.MethodPatch, path, `{"field":"summary","status":"progress"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPipelineProfileUpdate(t *testing.T) {
	e := newEnv(t)
	f := seedCatalog(e)
	app := newPipelineApp(e)
	path := fmt.Sprintf("/api/v1/pipeline/profiles/%d", f.profile.ID)

	resp, out := send(t, app, fiber.MethodPatch, path, `{"full_name":"Alice Souza","profile_pic_url":"https://cdn.example/a.jpg","followers_count":1200}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	profile := out["profile"].(map[string]interface{})
	assert.Equal(t, "Alice Souza", profile["full_name"])
	assert.EqualValues(t, 1200, profile["followers_count"])
	assert.Equal(t, []mirrorCall{{Kind: mediastore.KindProfile, RowID: f.profile.ID, Src: "https://cdn.example/a.jpg"}}, e.jobs.mirrors)

	resp, _ = send(t, app, fiber.MethodPatch, path, `{}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = send(t, app, fiber.MethodPatch, "/api/v1/pipeline/profiles/9999", `{"full_name":"x"}`)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPipelinePaymentIsIdempotent(t *testing.T) {
	e := newEnv(t)
	f := seedCatalog(e)
	app := newPipelineApp(e)
	body := fmt.Sprintf(`{"user_id":%d,"value":4990,"method":"card","gemas":100,"status":"paid","reference":"in_123"}`, f.user.ID)

	resp, out := send(t, app, fiber.MethodPost, "/api/v1/pipeline/payments", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, out["granted"])

	resp, out = send(t, app, fiber.MethodPost, "/api/v1/pipeline/payments", body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, out["granted"])

	var grants int
	for _, entry := range e.store.Ledger() {
		if entry.Reason == models.CreditReasonPayment {
			grants++
			assert.Equal(t, 100, entry.Amount)
		}
	}
	assert.Equal(t, 1, grants)
}

func TestPipelinePaymentUnknownUser(t *testing.T) {
	e := newEnv(t)
	app := newPipelineApp(e)

	resp, _ := send(t, app, fiber.MethodPost, "/api/v1/pipeline/payments", `{"user_id":4242,"gemas":10,"status":"paid","reference":"in_9"}`)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Empty(t, e.store.Ledger())
}
