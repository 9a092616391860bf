package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"

	"koreafit/internal/models/db_models"
	resp "koreafit/internal/models/response_models"
	"koreafit/internal/repositories"
)

type mockIdeaRepo struct {
	mock.Mock
}

func (m *mockIdeaRepo) ListAll(ctx context.Context) ([]db_models.Idea, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]db_models.Idea)
	return rows, args.Error(1)
}

func (m *mockIdeaRepo) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Idea, error) {
	args := m.Called(ctx, id)
	row, _ := args.Get(0).(*db_models.Idea)
	return row, args.Error(1)
}

func (m *mockIdeaRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]db_models.Idea, error) {
	args := m.Called(ctx, ids)
	rows, _ := args.Get(0).([]db_models.Idea)
	return rows, args.Error(1)
}

func (m *mockIdeaRepo) Create(ctx context.Context, idea *db_models.Idea) error {
	return m.Called(ctx, idea).Error(0)
}

func (m *mockIdeaRepo) Upsert(ctx context.Context, idea *db_models.Idea) error {
	return m.Called(ctx, idea).Error(0)
}

func (m *mockIdeaRepo) UpdateScores(ctx context.Context, id uuid.UUID, koreaFit float64, trendData datatypes.JSON) error {
	return m.Called(ctx, id, koreaFit, trendData).Error(0)
}

type mockTrendAnalyzer struct {
	mock.Mock
}

func (m *mockTrendAnalyzer) Analyze(ctx context.Context, idea resp.Idea) (resp.TrendData, error) {
	args := m.Called(ctx, idea)
	td, _ := args.Get(0).(resp.TrendData)
	return td, args.Error(1)
}

// memSubscriptionRepo mimics the row-locked repository with a plain map.
type memSubscriptionRepo struct {
	rows map[string]*db_models.Subscription
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{rows: map[string]*db_models.Subscription{}}
}

func (r *memSubscriptionRepo) GetByUserID(_ context.Context, userID string) (*db_models.Subscription, error) {
	row, ok := r.rows[userID]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (r *memSubscriptionRepo) Mutate(_ context.Context, userID string, fn repositories.SubscriptionMutation) (*db_models.Subscription, error) {
	var current *db_models.Subscription
	if row, ok := r.rows[userID]; ok {
		cp := *row
		current = &cp
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return current, nil
	}
	cp := *next
	r.rows[userID] = &cp
	return next, nil
}

type mockUsageRepo struct {
	mock.Mock
}

func (m *mockUsageRepo) GetMonthly(ctx context.Context, userID, kind string, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, kind, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUsageRepo) IncrementMonthly(ctx context.Context, userID, kind string, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, kind, at)
	return args.Get(0).(int64), args.Error(1)
}

type sentMail struct {
	To      string
	Subject string
	HTML    string
}

// recordingMailer captures outgoing mail instead of talking SMTP.
type recordingMailer struct {
	sent      []sentMail
	failFor   map[string]error
	simulated bool
}

func (r *recordingMailer) SendNewsletter(_ context.Context, to, subject, html, _ string) error {
	if err := r.failFor[to]; err != nil {
		return err
	}
	r.sent = append(r.sent, sentMail{To: to, Subject: subject, HTML: html})
	return nil
}

func (r *recordingMailer) SendRegulatoryAlerts(_ context.Context, to string, alerts []resp.RegulatoryAlert) error {
	if err := r.failFor[to]; err != nil {
		return err
	}
	r.sent = append(r.sent, sentMail{To: to, Subject: "alerts"})
	return nil
}

func (r *recordingMailer) SendWelcome(_ context.Context, to string) error {
	r.sent = append(r.sent, sentMail{To: to, Subject: "welcome"})
	return nil
}

func (r *recordingMailer) Simulated() bool { return r.simulated }

// memSubscriberRepo keeps subscribers keyed by email.
type memSubscriberRepo struct {
	subs    map[string]*db_models.NewsletterSubscriber
	order   []string
	listErr error
}

func newMemSubscriberRepo(emails ...string) *memSubscriberRepo {
	r := &memSubscriberRepo{subs: map[string]*db_models.NewsletterSubscriber{}}
	for _, e := range emails {
		_, _ = r.Subscribe(context.Background(), e, nil, nil)
	}
	return r
}

func (r *memSubscriberRepo) Subscribe(_ context.Context, email string, userID *string, industries []string) (*db_models.NewsletterSubscriber, error) {
	sub, ok := r.subs[email]
	if !ok {
		sub = &db_models.NewsletterSubscriber{Email: email}
		r.subs[email] = sub
		r.order = append(r.order, email)
	}
	sub.UserID = userID
	sub.Industries = industries
	sub.Active = true
	sub.DeactivatedReason = ""
	cp := *sub
	return &cp, nil
}

func (r *memSubscriberRepo) Deactivate(_ context.Context, email, reason string) (bool, error) {
	sub, ok := r.subs[email]
	if !ok || !sub.Active {
		return false, nil
	}
	sub.Active = false
	sub.DeactivatedReason = reason
	return true, nil
}

func (r *memSubscriberRepo) ListActive(context.Context) ([]db_models.NewsletterSubscriber, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []db_models.NewsletterSubscriber
	for _, e := range r.order {
		if s := r.subs[e]; s.Active {
			out = append(out, *s)
		}
	}
	return out, nil
}

// stubRegulatory serves a fixed update list.
type stubRegulatory struct {
	updates []resp.RegulatoryUpdate
	err     error
}

func (s *stubRegulatory) Analyze(context.Context, string) (*resp.RegulatoryAnalysis, error) {
	return nil, s.err
}

func (s *stubRegulatory) Updates(_ context.Context, _ []string, limit int) ([]resp.RegulatoryUpdate, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit > 0 && len(s.updates) > limit {
		return s.updates[:limit], nil
	}
	return s.updates, nil
}

func (s *stubRegulatory) Alerts(context.Context, []string) ([]resp.RegulatoryAlert, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []resp.RegulatoryAlert
	for _, u := range s.updates {
		if u.Impact == resp.ImpactHigh || u.Impact == resp.ImpactCritical {
			out = append(out, resp.RegulatoryAlert{Update: u, Severity: u.Impact, Message: u.Title})
		}
	}
	return out, nil
}
