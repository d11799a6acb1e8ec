package memrepo

import (
	"context"
	"sort"
	"strings"

	"github.com/trendhack/dashboard/app/models"
	"github.com/trendhack/dashboard/app/repository"
	"github.com/trendhack/dashboard/internal/pkg/credits"
	"gorm.io/gorm"
)

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *models.User) error {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return err
	}
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	u.ID = r.s.id()
	u.CreatedAt = r.s.tick()
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, notFound()
	}
	return &u, nil
}

func (r userRepo) find(match func(models.User) bool) (*models.User, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, notFound()
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r userRepo) GetByActivationToken(_ context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, notFound()
	}
	return r.find(func(u models.User) bool { return u.ActivationToken == token })
}

func (r userRepo) GetByResetToken(_ context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, notFound()
	}
	return r.find(func(u models.User) bool { return u.ResetToken == token })
}

func (r userRepo) Update(_ context.Context, u *models.User) error {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return err
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) GetProviderAccount(_ context.Context, provider, providerUserID string) (*models.ProviderAccount, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, a := range r.s.accounts {
		if a.Provider == provider && a.ProviderUserID == providerUserID {
			a := a
			return &a, nil
		}
	}
	return nil, notFound()
}

func (r userRepo) SaveProviderAccount(_ context.Context, account *models.ProviderAccount) error {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return err
	}
	for i, a := range r.s.accounts {
		if a.Provider == account.Provider && a.ProviderUserID == account.ProviderUserID {
			account.ID = a.ID
			r.s.accounts[i] = *account
			return nil
		}
	}
	account.ID = r.s.id()
	r.s.accounts = append(r.s.accounts, *account)
	return nil
}

type catalogRepo struct{ s *Store }

func (r catalogRepo) ListPlatforms(_ context.Context) ([]models.Platform, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := []models.Platform{}
	for _, p := range r.s.platforms {
		if p.Visible {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r catalogRepo) GetPlatform(_ context.Context, id uint) (*models.Platform, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	p, ok := r.s.platforms[id]
	if !ok {
		return nil, notFound()
	}
	return &p, nil
}

func (r catalogRepo) PlatformsByIDs(_ context.Context, ids []uint) (map[uint]models.Platform, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := map[uint]models.Platform{}
	for _, id := range ids {
		if p, ok := r.s.platforms[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r catalogRepo) PlatformsBySlugs(_ context.Context, slugs []string) (map[string]models.Platform, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := map[string]models.Platform{}
	for _, slug := range slugs {
		for _, p := range r.s.platforms {
			if p.Slug == slug {
				out[slug] = p
			}
		}
	}
	return out, nil
}

func (r catalogRepo) ListTools(_ context.Context, platformID uint) ([]models.PlatformTool, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := []models.PlatformTool{}
	for _, t := range r.s.tools {
		if t.PlatformID == platformID && t.Visible {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r catalogRepo) GetTool(_ context.Context, id uint) (*models.PlatformTool, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	t, ok := r.s.tools[id]
	if !ok {
		return nil, notFound()
	}
	return &t, nil
}

func (r catalogRepo) ToolsByIDs(_ context.Context, ids []uint) (map[uint]models.PlatformTool, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := map[uint]models.PlatformTool{}
	for _, id := range ids {
		if t, ok := r.s.tools[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (r catalogRepo) ListPlans(_ context.Context) ([]models.Plan, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := []models.Plan{}
	for _, p := range r.s.plans {
		if p.Visible {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (r catalogRepo) GetPlan(_ context.Context, id uint) (*models.Plan, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	p, ok := r.s.plans[id]
	if !ok {
		return nil, notFound()
	}
	return &p, nil
}

func (r catalogRepo) PlansByIDs(_ context.Context, ids []uint) (map[uint]models.Plan, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := map[uint]models.Plan{}
	for _, id := range ids {
		if p, ok := r.s.plans[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type profileRepo struct{ s *Store }

func (r profileRepo) FindOrCreate(_ context.Context, p *models.Profile) (*models.Profile, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, existing := range r.s.profiles {
		if existing.Username == p.Username && existing.Platform == p.Platform {
			existing := existing
			return &existing, nil
		}
	}
	stored := *p
	stored.ID = r.s.id()
	stored.CreatedAt = r.s.tick()
	r.s.profiles[stored.ID] = stored
	return &stored, nil
}

func (r profileRepo) GetByID(_ context.Context, id uint) (*models.Profile, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, notFound()
	}
	return &p, nil
}

func (r profileRepo) ByIDs(_ context.Context, ids []uint) (map[uint]models.Profile, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := map[uint]models.Profile{}
	for _, id := range ids {
		if p, ok := r.s.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r profileRepo) Update(_ context.Context, id uint, updates map[string]interface{}) (*models.Profile, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, notFound()
	}
	for k, v := range updates {
		switch k {
		case "full_name":
			p.FullName, _ = v.(string)
		case "profile_pic_url":
			p.ProfilePicURL, _ = v.(string)
		case "followers_count":
			p.FollowersCount, _ = v.(int64)
		case "follows_count":
			p.FollowsCount, _ = v.(int64)
		}
	}
	r.s.profiles[id] = p
	return &p, nil
}

func (r profileRepo) ListUnmirrored(_ context.Context, prefix string, limit int) ([]models.Profile, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := []models.Profile{}
	for _, p := range r.s.profiles {
		if p.ProfilePicURL != "" && !strings.HasPrefix(p.ProfilePicURL, prefix) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, 0, limit), nil
}

type requestRepo struct{ s *Store }

func (r requestRepo) GetByID(_ context.Context, id uint) (*models.ExtractionRequest, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	req, ok := r.s.requests[id]
	if !ok {
		return nil, notFound()
	}
	return &req, nil
}

func (r requestRepo) GetForUser(ctx context.Context, userID, id uint) (*models.ExtractionRequest, error) {
	req, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UserID != userID {
		return nil, notFound()
	}
	return req, nil
}

func newestFirst[T any](items []T, created func(T) int64, id func(T) uint) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if ci != cj {
			return ci > cj
		}
		return id(items[i]) > id(items[j])
	})
}

func (r requestRepo) ListByUser(_ context.Context, userID uint, offset, limit int) ([]models.ExtractionRequest, int64, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, 0, err
	}
	var all []models.ExtractionRequest
	for _, req := range r.s.requests {
		if req.UserID == userID {
			all = append(all, req)
		}
	}
	newestFirst(all, func(x models.ExtractionRequest) int64 { return x.CreatedAt.UnixNano() }, func(x models.ExtractionRequest) uint { return x.ID })
	return page(all, offset, limit), int64(len(all)), nil
}

func (r requestRepo) ListPending(_ context.Context, limit int) ([]models.ExtractionRequest, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	var all []models.ExtractionRequest
	for _, req := range r.s.requests {
		if req.Status == models.RequestStatusSearching {
			all = append(all, req)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, 0, limit), nil
}

func (r requestRepo) UpdateStatus(_ context.Context, id uint, status int) (bool, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return false, err
	}
	req, ok := r.s.requests[id]
	if !ok || req.IsTerminal() {
		return false, nil
	}
	req.Status = status
	r.s.requests[id] = req
	return true, nil
}

func (r requestRepo) CountByStatus(_ context.Context, userID uint) (map[int]int64, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := map[int]int64{}
	for _, req := range r.s.requests {
		if req.UserID == userID {
			out[req.Status]++
		}
	}
	return out, nil
}

type videoRepo struct{ s *Store }

func (r videoRepo) GetByID(_ context.Context, id uint) (*models.Video, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	v, ok := r.s.videos[id]
	if !ok {
		return nil, notFound()
	}
	return &v, nil
}

func (r videoRepo) ListByRequest(_ context.Context, requestID uint, offset, limit int) ([]models.Video, int64, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, 0, err
	}
	var all []models.Video
	for _, v := range r.s.videos {
		if v.RequestID == requestID {
			all = append(all, v)
		}
	}
	newestFirst(all, func(x models.Video) int64 { return x.CreatedAt.UnixNano() }, func(x models.Video) uint { return x.ID })
	return page(all, offset, limit), int64(len(all)), nil
}

func (r videoRepo) Totals(_ context.Context, requestID uint) (*repository.VideoTotals, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	t := &repository.VideoTotals{}
	var duration float64
	for _, v := range r.s.videos {
		if v.RequestID != requestID {
			continue
		}
		t.Count++
		t.TotalViews += v.ViewsCount
		t.TotalLikes += v.LikesCount
		t.TotalComments += v.CommentsCount
		duration += v.Duration
	}
	if t.Count > 0 {
		t.AvgDuration = duration / float64(t.Count)
	}
	return t, nil
}

func (r videoRepo) CreateWithAgents(_ context.Context, videos []models.Video) error {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return err
	}
	for i := range videos {
		videos[i].ID = r.s.id()
		videos[i].CreatedAt = r.s.tick()
		r.s.videos[videos[i].ID] = videos[i]
		a := *models.NewVideoAgent(videos[i].ID)
		a.ID = r.s.id()
		r.s.agents[a.ID] = a
	}
	return nil
}

func (r videoRepo) UpdateThumbnail(_ context.Context, id uint, url string) error {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return err
	}
	v, ok := r.s.videos[id]
	if !ok {
		return notFound()
	}
	v.ThumbnailURL = url
	r.s.videos[id] = v
	return nil
}

type agentRepo struct{ s *Store }

func (r agentRepo) GetByID(_ context.Context, id uint) (*models.VideoAgent, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	a, ok := r.s.agents[id]
	if !ok {
		return nil, notFound()
	}
	return &a, nil
}

func (r agentRepo) GetByVideoID(_ context.Context, videoID uint) (*models.VideoAgent, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, a := range r.s.agents {
		if a.VideoID == videoID {
			a := a
			return &a, nil
		}
	}
	return nil, notFound()
}

func (r agentRepo) Mutate(_ context.Context, id uint, fn func(agent *models.VideoAgent) error) (*models.VideoAgent, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	a, ok := r.s.agents[id]
	if !ok {
		return nil, notFound()
	}
	if err := fn(&a); err != nil {
		return nil, err
	}
	r.s.agents[id] = a
	return &a, nil
}

type paymentRepo struct{ s *Store }

func (r paymentRepo) ListPaid(_ context.Context, userID uint, offset, limit int) ([]models.Payment, int64, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, 0, err
	}
	var all []models.Payment
	for _, p := range r.s.payments {
		if p.UserID == userID && p.IsPaid() {
			all = append(all, p)
		}
	}
	newestFirst(all, func(x models.Payment) int64 { return x.CreatedAt.UnixNano() }, func(x models.Payment) uint { return x.ID })
	return page(all, offset, limit), int64(len(all)), nil
}

func (r paymentRepo) Record(_ context.Context, payment *models.Payment) (*repository.PaymentResult, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	res := &repository.PaymentResult{}
	var stored *models.Payment
	for id, p := range r.s.payments {
		if p.Reference == payment.Reference {
			p := p
			stored = &p
			if stored.CanMoveTo(payment.Status) {
				stored.Status = payment.Status
				r.s.payments[id] = *stored
			}
			break
		}
	}
	if stored == nil {
		p := *payment
		if p.Status == "" {
			p.Status = models.PaymentStatusPending
		}
		p.ID = r.s.id()
		p.CreatedAt = r.s.tick()
		r.s.payments[p.ID] = p
		stored = &p
		res.Created = true
	}
	res.Payment = stored

	if stored.IsPaid() && stored.Gemas > 0 {
		for _, e := range r.s.ledger {
			if e.PaymentID != nil && *e.PaymentID == stored.ID {
				return res, nil
			}
		}
		pid := stored.ID
		r.s.ledger = append(r.s.ledger, models.CreditEntry{ID: r.s.id(), UserID: stored.UserID, Amount: stored.Gemas, Reason: models.CreditReasonPayment, PaymentID: &pid, CreatedAt: r.s.tick()})
		res.Granted = true
	}
	return res, nil
}

type creditRepo struct{ s *Store }

func (r creditRepo) Balance(_ context.Context, userID uint) (int, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return 0, err
	}
	return r.s.balance(userID), nil
}

func (r creditRepo) Spent(_ context.Context, userID uint) (int, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, e := range r.s.ledger {
		if e.UserID == userID && e.Amount < 0 {
			total -= e.Amount
		}
	}
	return total, nil
}

func (r creditRepo) SpendForRequest(_ context.Context, req *models.ExtractionRequest) error {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return err
	}
	if _, ok := r.s.users[req.UserID]; !ok {
		return notFound()
	}
	if err := credits.Check(req.Cost, r.s.balance(req.UserID)); err != nil {
		return err
	}
	req.ID = r.s.id()
	req.CreatedAt = r.s.tick()
	r.s.requests[req.ID] = *req
	if req.Cost > 0 {
		rid := req.ID
		r.s.ledger = append(r.s.ledger, models.CreditEntry{ID: r.s.id(), UserID: req.UserID, Amount: -req.Cost, Reason: models.CreditReasonRequest, RequestID: &rid, CreatedAt: r.s.tick()})
	}
	return nil
}

type historyRepo struct{ s *Store }

func (r historyRepo) Create(_ context.Context, entry *models.PromptHistory) error {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return err
	}
	entry.ID = r.s.id()
	entry.CreatedAt = r.s.tick()
	r.s.history = append(r.s.history, *entry)
	return nil
}

func (r historyRepo) Latest(_ context.Context, userID uint, limit int) ([]models.PromptHistory, error) {
	unlock, err := r.s.begin()
	defer unlock()
	if err != nil {
		return nil, err
	}
	var all []models.PromptHistory
	for _, h := range r.s.history {
		if h.UserID == userID {
			all = append(all, h)
		}
	}
	newestFirst(all, func(x models.PromptHistory) int64 { return x.CreatedAt.UnixNano() }, func(x models.PromptHistory) uint { return x.ID })
	return page(all, 0, limit), nil
}
