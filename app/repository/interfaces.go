package repository

import (
	"context"

	"github.com/trendhack/dashboard/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByActivationToken(ctx context.Context, token string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	GetProviderAccount(ctx context.Context, provider, providerUserID string) (*models.ProviderAccount, error)
	SaveProviderAccount(ctx context.Context, account *models.ProviderAccount) error
}

// CatalogRepository reads platforms, their tools and the purchasable plans.
type CatalogRepository interface {
	ListPlatforms(ctx context.Context) ([]models.Platform, error)
	GetPlatform(ctx context.Context, id uint) (*models.Platform, error)
	PlatformsByIDs(ctx context.Context, ids []uint) (map[uint]models.Platform, error)
	PlatformsBySlugs(ctx context.Context, slugs []string) (map[string]models.Platform, error)
	ListTools(ctx context.Context, platformID uint) ([]models.PlatformTool, error)
	GetTool(ctx context.Context, id uint) (*models.PlatformTool, error)
	ToolsByIDs(ctx context.Context, ids []uint) (map[uint]models.PlatformTool, error)
	ListPlans(ctx context.Context) ([]models.Plan, error)
	GetPlan(ctx context.Context, id uint) (*models.Plan, error)
	PlansByIDs(ctx context.Context, ids []uint) (map[uint]models.Plan, error)
}

// ProfileRepository defines profile lookups and the idempotent upsert.
type ProfileRepository interface {
	FindOrCreate(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	GetByID(ctx context.Context, id uint) (*models.Profile, error)
	ByIDs(ctx context.Context, ids []uint) (map[uint]models.Profile, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (*models.Profile, error)
	ListUnmirrored(ctx context.Context, mirrorPrefix string, limit int) ([]models.Profile, error)
}

// RequestRepository defines extraction request persistence.
type RequestRepository interface {
	GetByID(ctx context.Context, id uint) (*models.ExtractionRequest, error)
	GetForUser(ctx context.Context, userID, id uint) (*models.ExtractionRequest, error)
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]models.ExtractionRequest, int64, error)
	ListPending(ctx context.Context, limit int) ([]models.ExtractionRequest, error)
	UpdateStatus(ctx context.Context, id uint, status int) (bool, error)
	CountByStatus(ctx context.Context, userID uint) (map[int]int64, error)
}

// VideoRepository defines video reads and the pipeline's batch insert.
type VideoRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Video, error)
	ListByRequest(ctx context.Context, requestID uint, offset, limit int) ([]models.Video, int64, error)
	Totals(ctx context.Context, requestID uint) (*VideoTotals, error)
	CreateWithAgents(ctx context.Context, videos []models.Video) error
	UpdateThumbnail(ctx context.Context, id uint, url string) error
}

// AgentRepository defines access to the per-video AI results.
type AgentRepository interface {
	GetByID(ctx context.Context, id uint) (*models.VideoAgent, error)
	GetByVideoID(ctx context.Context, videoID uint) (*models.VideoAgent, error)
	Mutate(ctx context.Context, id uint, fn func(agent *models.VideoAgent) error) (*models.VideoAgent, error)
}

// PaymentRepository defines payment history and the idempotent recorder.
type PaymentRepository interface {
	ListPaid(ctx context.Context, userID uint, offset, limit int) ([]models.Payment, int64, error)
	Record(ctx context.Context, payment *models.Payment) (*PaymentResult, error)
}

// CreditRepository defines the gemas ledger.
type CreditRepository interface {
	Balance(ctx context.Context, userID uint) (int, error)
	Spent(ctx context.Context, userID uint) (int, error)
	SpendForRequest(ctx context.Context, request *models.ExtractionRequest) error
}

// HistoryRepository stores reply prompts.
type HistoryRepository interface {
	Create(ctx context.Context, entry *models.PromptHistory) error
	Latest(ctx context.Context, userID uint, limit int) ([]models.PromptHistory, error)
}

// VideoTotals aggregates all videos of one request.
type VideoTotals struct {
	Count         int64   `json:"count"`
	TotalViews    int64   `json:"total_views"`
	TotalLikes    int64   `json:"total_likes"`
	TotalComments int64   `json:"total_comments"`
	AvgDuration   float64 `json:"avg_duration"`
}

// PaymentResult reports what Record changed.
type PaymentResult struct {
	Payment *models.Payment
	Created bool
	Granted bool
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Catalog CatalogRepository
	Profile ProfileRepository
	Request RequestRepository
	Video   VideoRepository
	Agent   AgentRepository
	Payment PaymentRepository
	Credit  CreditRepository
	History HistoryRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Catalog: NewCatalogRepository(db),
		Profile: NewProfileRepository(db),
		Request: NewRequestRepository(db),
		Video:   NewVideoRepository(db),
		Agent:   NewAgentRepository(db),
		Payment: NewPaymentRepository(db),
		Credit:  NewCreditRepository(db),
		History: NewHistoryRepository(db),
	}
}
