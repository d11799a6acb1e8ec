package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/trendhack/dashboard/app/models"
	"github.com/trendhack/dashboard/app/repository"
	"github.com/trendhack/dashboard/internal/pkg/agents"
	"github.com/trendhack/dashboard/internal/pkg/billing"
	"github.com/trendhack/dashboard/internal/pkg/mediastore"
	"github.com/trendhack/dashboard/internal/pkg/realtime"
)

const (
	defaultPendingLimit = 20
	maxPendingLimit     = 100
	maxVideosPerBatch   = 500
)

// PipelineController is the signed API the extraction pipeline polls and
// writes its results through. Every write notifies the owning user.
type PipelineController struct {
	repos     *repository.Repositories
	publisher realtime.Publisher
	jobs      Jobs
	agents    *agents.Service
	billing   *billing.Service
}

func NewPipelineController(repos *repository.Repositories, publisher realtime.Publisher, jobs Jobs, agentService *agents.Service, billingService *billing.Service) *PipelineController {
	return &PipelineController{
		repos:     repos,
		publisher: publisher,
		jobs:      jobs,
		agents:    agentService,
		billing:   billingService,
	}
}

// HandlePendingRequests lists requests waiting for the pipeline, oldest first.
func (pc *PipelineController) HandlePendingRequests(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultPendingLimit)
	if limit <= 0 {
		limit = defaultPendingLimit
	}
	if limit > maxPendingLimit {
		limit = maxPendingLimit
	}

	requests, err := pc.repos.Request.ListPending(c.UserContext(), limit)
	if err != nil {
		return internalError(c, "Pipeline", err)
	}
	if requests == nil {
		requests = []models.ExtractionRequest{}
	}
	return c.JSON(fiber.Map{"requests": requests})
}

type statusUpdateRequest struct {
	Status int `json:"status" validate:"min=1,max=5"`
}

// HandleRequestStatus moves a request along. Finished requests stay finished.
func (pc *PipelineController) HandleRequestStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid request id")
	}
	var in statusUpdateRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validate.Struct(in); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "invalid_status", "status must be between 1 and 5")
	}

	req, err := pc.repos.Request.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return notFound(c, "request not found")
		}
		return internalError(c, "Pipeline", err)
	}
	if req.IsTerminal() {
		return jsonError(c, fiber.StatusConflict, "terminal_status", "request already finished")
	}

	updated, err := pc.repos.Request.UpdateStatus(ctx, id, in.Status)
	if err != nil {
		return internalError(c, "Pipeline", err)
	}
	if !updated {
		// finished by a concurrent write
		return jsonError(c, fiber.StatusConflict, "terminal_status", "request already finished")
	}

	log.Infof("[Pipeline] Request %d moved to status %d", id, in.Status)
	pc.notify(ctx, req.UserID, realtime.Event{Table: realtime.TableRequests, Action: realtime.ActionUpdate, RowID: id})
	return c.JSON(fiber.Map{"id": id, "status": in.Status})
}

type videoInput struct {
	ProfileID        uint       `json:"profile_id"`
	Platform         string     `json:"platform" validate:"max=50"`
	Username         string     `json:"username" validate:"max=150"`
	Caption          string     `json:"caption"`
	URL              string     `json:"url"`
	VideoURL         string     `json:"video_url"`
	ThumbnailURL     string     `json:"thumbnail_url"`
	ViewsCount       int64      `json:"views_count" validate:"gte=0"`
	LikesCount       int64      `json:"likes_count" validate:"gte=0"`
	CommentsCount    int64      `json:"comments_count" validate:"gte=0"`
	Duration         float64    `json:"duration" validate:"gte=0"`
	DimensionsWidth  int        `json:"dimensions_width" validate:"gte=0"`
	DimensionsHeight int        `json:"dimensions_height" validate:"gte=0"`
	IsSponsored      bool       `json:"is_sponsored"`
	Type             string     `json:"type" validate:"max=50"`
	PublishedAt      *time.Time `json:"published_at"`
}

func (in videoInput) toModel(requestID uint) models.Video {
	return models.Video{
		RequestID:        requestID,
		ProfileID:        in.ProfileID,
		Platform:         in.Platform,
		Username:         models.NormalizeUsername(in.Username),
		Caption:          in.Caption,
		URL:              in.URL,
		VideoURL:         in.VideoURL,
		ThumbnailURL:     in.ThumbnailURL,
		ViewsCount:       in.ViewsCount,
		LikesCount:       in.LikesCount,
		CommentsCount:    in.CommentsCount,
		Duration:         in.Duration,
		DimensionsWidth:  in.DimensionsWidth,
		DimensionsHeight: in.DimensionsHeight,
		IsSponsored:      in.IsSponsored,
		Type:             in.Type,
		PublishedAt:      in.PublishedAt,
	}
}

// HandleRequestVideos stores a batch of videos, each with a fresh agent row.
func (pc *PipelineController) HandleRequestVideos(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid request id")
	}
	var in []videoInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(in) == 0 || len(in) > maxVideosPerBatch {
		return badRequest(c, "expected between 1 and 500 videos")
	}

	req, err := pc.repos.Request.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return notFound(c, "request not found")
		}
		return internalError(c, "Pipeline", err)
	}

	videos := make([]models.Video, 0, len(in))
	for _, v := range in {
		if err := validate.Struct(v); err != nil {
			return jsonError(c, fiber.StatusUnprocessableEntity, "invalid_video", validationMessage(err))
		}
		videos = append(videos, v.toModel(req.ID))
	}

	if err := pc.repos.Video.CreateWithAgents(ctx, videos); err != nil {
		return internalError(c, "Pipeline", err)
	}

	ids := make([]uint, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
		evt := realtime.Event{Table: realtime.TableVideos, Action: realtime.ActionInsert, RowID: v.ID}
		if err := pc.publisher.Publish(ctx, req.UserID, evt); err != nil {
			log.Warnf("[Pipeline] Realtime publish for video %d failed: %v", v.ID, err)
		}
		if v.ThumbnailURL != "" {
			if err := pc.jobs.EnqueueMirror(ctx, mediastore.KindVideo, v.ID, v.ThumbnailURL); err != nil {
				log.Warnf("[Pipeline] Thumbnail mirror for video %d not queued: %v", v.ID, err)
			}
		}
	}
	if err := pc.jobs.EnqueueRefreshMetrics(ctx, req.UserID); err != nil {
		log.Warnf("[Pipeline] Metrics refresh for user %d not queued: %v", req.UserID, err)
	}

	log.Infof("[Pipeline] Stored %d videos for request %d", len(ids), req.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ids": ids})
}

type agentUpdateRequest struct {
	Field   string             `json:"field" validate:"required,oneof=analysis simplified reply"`
	Status  models.AgentStatus `json:"status" validate:"required"`
	Content string             `json:"content"`
}

// HandleAgent advances one sub-result of a video agent.
func (pc *PipelineController) HandleAgent(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid agent id")
	}
	var in agentUpdateRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validate.Struct(in); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "invalid_agent_update", validationMessage(err))
	}

	agent, err := pc.agents.Advance(c.UserContext(), id, in.Field, in.Status, in.Content)
	if err != nil {
		return agentError(c, err)
	}
	return c.JSON(fiber.Map{"agent": agent})
}

type profileUpdateRequest struct {
	FullName       *string `json:"full_name" validate:"omitempty,max=255"`
	ProfilePicURL  *string `json:"profile_pic_url"`
	FollowersCount *int64  `json:"followers_count" validate:"omitempty,gte=0"`
	FollowsCount   *int64  `json:"follows_count" validate:"omitempty,gte=0"`
}

func (in profileUpdateRequest) updates() map[string]interface{} {
	out := map[string]interface{}{}
	if in.FullName != nil {
		out["full_name"] = *in.FullName
	}
	if in.ProfilePicURL != nil {
		out["profile_pic_url"] = *in.ProfilePicURL
	}
	if in.FollowersCount != nil {
		out["followers_count"] = *in.FollowersCount
	}
	if in.FollowsCount != nil {
		out["follows_count"] = *in.FollowsCount
	}
	return out
}

// HandleProfile enriches a scraped profile and queues its avatar mirror.
func (pc *PipelineController) HandleProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid profile id")
	}
	var in profileUpdateRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validate.Struct(in); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "invalid_profile", validationMessage(err))
	}
	updates := in.updates()
	if len(updates) == 0 {
		return badRequest(c, "nothing to update")
	}

	profile, err := pc.repos.Profile.Update(ctx, id, updates)
	if err != nil {
		if isNotFound(err) {
			return notFound(c, "profile not found")
		}
		return internalError(c, "Pipeline", err)
	}

	if profile.ProfilePicURL != "" && in.ProfilePicURL != nil {
		if err := pc.jobs.EnqueueMirror(ctx, mediastore.KindProfile, profile.ID, profile.ProfilePicURL); err != nil {
			log.Warnf("[Pipeline] Avatar mirror for profile %d not queued: %v", profile.ID, err)
		}
	}
	return c.JSON(fiber.Map{"profile": profile})
}

type paymentRequest struct {
	UserID    uint   `json:"user_id" validate:"required"`
	PlanID    uint   `json:"plan_id"`
	Value     int64  `json:"value" validate:"gte=0"`
	Method    string `json:"method" validate:"max=50"`
	Gemas     int    `json:"gemas" validate:"gte=0"`
	Status    string `json:"status" validate:"omitempty,oneof=pending paid failed refunded"`
	Reference string `json:"reference" validate:"required,max=191"`
}

// HandlePayment records a processor payment. Replays are answered with the
// stored row and never grant twice.
func (pc *PipelineController) HandlePayment(c *fiber.Ctx) error {
	var in paymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validate.Struct(in); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "invalid_payment", validationMessage(err))
	}

	if _, err := pc.repos.User.GetByID(c.UserContext(), in.UserID); err != nil {
		if isNotFound(err) {
			return notFound(c, "user not found")
		}
		return internalError(c, "Pipeline", err)
	}

	res, err := pc.billing.RecordPayment(c.UserContext(), &models.Payment{
		UserID:    in.UserID,
		PlanID:    in.PlanID,
		Value:     in.Value,
		Method:    in.Method,
		Gemas:     in.Gemas,
		Status:    in.Status,
		Reference: in.Reference,
	})
	if err != nil {
		return internalError(c, "Pipeline", err)
	}

	code := fiber.StatusOK
	if res.Created {
		code = fiber.StatusCreated
	}
	return c.Status(code).JSON(fiber.Map{
		"payment": res.Payment,
		"granted": res.Granted,
	})
}

func (pc *PipelineController) notify(ctx context.Context, userID uint, evt realtime.Event) {
	if err := pc.publisher.Publish(ctx, userID, evt); err != nil {
		log.Warnf("[Pipeline] Realtime publish %s/%s %d failed: %v", evt.Table, evt.Action, evt.RowID, err)
	}
	if err := pc.jobs.EnqueueRefreshMetrics(ctx, userID); err != nil {
		log.Warnf("[Pipeline] Metrics refresh for user %d not queued: %v", userID, err)
	}
}
