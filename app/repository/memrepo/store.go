// Package memrepo is an in-memory implementation of the repository
// interfaces for tests of the layers above the database.
package memrepo

import (
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/trendhack/dashboard/app/models"
	"github.com/trendhack/dashboard/app/repository"
)

// Store holds every table. Timestamps advance one second per insert so
// newest-first ordering is deterministic.
type Store struct {
	mu     sync.Mutex
	nextID uint
	clock  time.Time

	users     map[uint]models.User
	accounts  []models.ProviderAccount
	platforms map[uint]models.Platform
	tools     map[uint]models.PlatformTool
	plans     map[uint]models.Plan
	profiles  map[uint]models.Profile
	requests  map[uint]models.ExtractionRequest
	videos    map[uint]models.Video
	agents    map[uint]models.VideoAgent
	payments  map[uint]models.Payment
	ledger    []models.CreditEntry
	history   []models.PromptHistory

	// FailNext makes the next repository call return this error.
	FailNext error
}

func New() *Store {
	return &Store{
		clock:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		users:     map[uint]models.User{},
		platforms: map[uint]models.Platform{},
		tools:     map[uint]models.PlatformTool{},
		plans:     map[uint]models.Plan{},
		profiles:  map[uint]models.Profile{},
		requests:  map[uint]models.ExtractionRequest{},
		videos:    map[uint]models.Video{},
		agents:    map[uint]models.VideoAgent{},
		payments:  map[uint]models.Payment{},
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:    userRepo{s},
		Catalog: catalogRepo{s},
		Profile: profileRepo{s},
		Request: requestRepo{s},
		Video:   videoRepo{s},
		Agent:   agentRepo{s},
		Payment: paymentRepo{s},
		Credit:  creditRepo{s},
		History: historyRepo{s},
	}
}

// begin locks the store. The returned func must always be called.
func (s *Store) begin() (func(), error) {
	s.mu.Lock()
	if err := s.FailNext; err != nil {
		s.FailNext = nil
		return s.mu.Unlock, err
	}
	return s.mu.Unlock, nil
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// Seed helpers

func (s *Store) AddUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	}
	u.CreatedAt = s.tick()
	s.users[u.ID] = u
	return u
}

func (s *Store) AddPlatform(p models.Platform) models.Platform {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	}
	s.platforms[p.ID] = p
	return p
}

func (s *Store) AddTool(t models.PlatformTool) models.PlatformTool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.id()
	}
	s.tools[t.ID] = t
	return t
}

func (s *Store) AddPlan(p models.Plan) models.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	}
	s.plans[p.ID] = p
	return p
}

func (s *Store) AddProfile(p models.Profile) models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	}
	p.CreatedAt = s.tick()
	s.profiles[p.ID] = p
	return p
}

func (s *Store) AddRequest(r models.ExtractionRequest) models.ExtractionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.id()
	}
	if r.Status == 0 {
		r.Status = models.RequestStatusSearching
	}
	r.CreatedAt = s.tick()
	s.requests[r.ID] = r
	return r
}

// AddVideo stores v together with its default agent row.
func (s *Store) AddVideo(v models.Video) (models.Video, models.VideoAgent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == 0 {
		v.ID = s.id()
	}
	v.CreatedAt = s.tick()
	s.videos[v.ID] = v
	a := *models.NewVideoAgent(v.ID)
	a.ID = s.id()
	s.agents[a.ID] = a
	return v, a
}

func (s *Store) AddPayment(p models.Payment) models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	}
	p.CreatedAt = s.tick()
	s.payments[p.ID] = p
	return p
}

// Grant adds a ledger entry of amount for userID.
func (s *Store) Grant(userID uint, amount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = append(s.ledger, models.CreditEntry{ID: s.id(), UserID: userID, Amount: amount, Reason: models.CreditReasonAdjustment, CreatedAt: s.tick()})
}

// Inspection helpers

func (s *Store) Requests() []models.ExtractionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ExtractionRequest, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Ledger() []models.CreditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CreditEntry(nil), s.ledger...)
}

func (s *Store) Profiles() []models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Agent(id uint) models.VideoAgent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agents[id]
}

func (s *Store) Video(id uint) models.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videos[id]
}

func (s *Store) balance(userID uint) int {
	total := 0
	for _, e := range s.ledger {
		if e.UserID == userID {
			total += e.Amount
		}
	}
	return total
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func notFound() error {
	return gorm.ErrRecordNotFound
}
