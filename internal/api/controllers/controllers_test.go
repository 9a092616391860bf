package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"koreafit/internal/models/request_models"
	resp "koreafit/internal/models/response_models"
	"koreafit/internal/services"
	"koreafit/pkg/middleware"
	"koreafit/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---- mocks ----

type mockIdeaService struct{ mock.Mock }

func (m *mockIdeaService) ListIdeas(ctx context.Context, f services.IdeaFilter, key services.SortKey, page int) (*resp.IdeaPage, error) {
	args := m.Called(ctx, f, key, page)
	p, _ := args.Get(0).(*resp.IdeaPage)
	return p, args.Error(1)
}

func (m *mockIdeaService) AllIdeas(ctx context.Context) ([]resp.Idea, error) {
	args := m.Called(ctx)
	ideas, _ := args.Get(0).([]resp.Idea)
	return ideas, args.Error(1)
}

func (m *mockIdeaService) GetIdea(ctx context.Context, id string) (*resp.Idea, error) {
	args := m.Called(ctx, id)
	idea, _ := args.Get(0).(*resp.Idea)
	return idea, args.Error(1)
}

func (m *mockIdeaService) GetIdeasByIDs(ctx context.Context, ids []string) ([]resp.Idea, error) {
	args := m.Called(ctx, ids)
	ideas, _ := args.Get(0).([]resp.Idea)
	return ideas, args.Error(1)
}

func (m *mockIdeaService) CreateIdea(ctx context.Context, req request_models.CreateIdeaRequest) (*resp.Idea, error) {
	args := m.Called(ctx, req)
	idea, _ := args.Get(0).(*resp.Idea)
	return idea, args.Error(1)
}

func (m *mockIdeaService) EnhanceIdeas(ctx context.Context, ideas []resp.Idea) ([]resp.Idea, resp.EnhanceSummary) {
	args := m.Called(ctx, ideas)
	out, _ := args.Get(0).([]resp.Idea)
	return out, args.Get(1).(resp.EnhanceSummary)
}

func (m *mockIdeaService) EnhanceAll(ctx context.Context) (*resp.EnhanceSummary, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*resp.EnhanceSummary)
	return s, args.Error(1)
}

type mockExportService struct{ mock.Mock }

func (m *mockExportService) ExportIdeas(ctx context.Context, userID string, opts services.ExportOptions) (*resp.ExportResult, error) {
	args := m.Called(ctx, userID, opts)
	r, _ := args.Get(0).(*resp.ExportResult)
	return r, args.Error(1)
}

func (m *mockExportService) ExportByIDs(ctx context.Context, userID string, req request_models.ExportRequest) (*resp.ExportResult, error) {
	args := m.Called(ctx, userID, req)
	r, _ := args.Get(0).(*resp.ExportResult)
	return r, args.Error(1)
}

func (m *mockExportService) Status(ctx context.Context, userID string) (*resp.ExportStatus, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*resp.ExportStatus)
	return s, args.Error(1)
}

type mockNewsletterService struct{ mock.Mock }

func (m *mockNewsletterService) Assemble(updates []resp.RegulatoryUpdate, ideas []resp.Idea, opts services.NewsletterOptions) (*resp.Newsletter, error) {
	args := m.Called(updates, ideas, opts)
	n, _ := args.Get(0).(*resp.Newsletter)
	return n, args.Error(1)
}

func (m *mockNewsletterService) Gate(n *resp.Newsletter) *resp.NewsletterPreview {
	p, _ := m.Called(n).Get(0).(*resp.NewsletterPreview)
	return p
}

func (m *mockNewsletterService) Preview(ctx context.Context) (*resp.NewsletterPreview, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).(*resp.NewsletterPreview)
	return p, args.Error(1)
}

func (m *mockNewsletterService) SendScheduled(ctx context.Context) (*resp.NewsletterSendResult, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*resp.NewsletterSendResult)
	return r, args.Error(1)
}

func (m *mockNewsletterService) SendTest(ctx context.Context, to string) (*resp.NewsletterSendResult, error) {
	args := m.Called(ctx, to)
	r, _ := args.Get(0).(*resp.NewsletterSendResult)
	return r, args.Error(1)
}

type mockNotificationService struct{ mock.Mock }

func (m *mockNotificationService) Handle(ctx context.Context, req request_models.NotificationRequest, caller services.Caller) (*resp.NotificationResult, error) {
	args := m.Called(ctx, req, caller)
	r, _ := args.Get(0).(*resp.NotificationResult)
	return r, args.Error(1)
}

func (m *mockNotificationService) HandleDeliveryEvent(ctx context.Context, ev request_models.DeliveryEvent) (*resp.NotificationResult, error) {
	args := m.Called(ctx, ev)
	r, _ := args.Get(0).(*resp.NotificationResult)
	return r, args.Error(1)
}

type mockDashboardService struct{ mock.Mock }

func (m *mockDashboardService) BuildDashboard(ctx context.Context, since time.Time) (*resp.DashboardReport, error) {
	args := m.Called(ctx, since)
	r, _ := args.Get(0).(*resp.DashboardReport)
	return r, args.Error(1)
}

// stubEntitlements lets every call through unless told otherwise. Redaction
// strips packs when locked is set.
type stubEntitlements struct {
	locked     bool
	requireErr error
	viewErr    error
	views      []services.Caller
}

func (s *stubEntitlements) Require(context.Context, services.Caller, string) error {
	return s.requireErr
}

func (s *stubEntitlements) RedactIdeas(_ context.Context, _ services.Caller, ideas []resp.Idea) []resp.Idea {
	if !s.locked {
		return ideas
	}
	out := make([]resp.Idea, len(ideas))
	copy(out, ideas)
	for i := range out {
		if out[i].ExecutionPack != nil {
			out[i].ExecutionPack = nil
			out[i].PackLocked = true
		}
	}
	return out
}

func (s *stubEntitlements) ConsumeIdeaView(_ context.Context, caller services.Caller) error {
	s.views = append(s.views, caller)
	return s.viewErr
}

// ---- helpers ----

// withUser stands in for the JWT middleware.
func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.CtxUserID, userID)
		}
		c.Next()
	}
}

func perform(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var out utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// ---- ideas ----

func ideaRouter(ideas *mockIdeaService) *gin.Engine {
	return ideaRouterWith(ideas, &stubEntitlements{}, "")
}

func ideaRouterWith(ideas *mockIdeaService, ent services.EntitlementService, userID string) *gin.Engine {
	h := NewIdeaController(ideas, nil, ent)
	r := gin.New()
	r.Use(withUser(userID))
	r.GET("/api/ideas", h.ListIdeas)
	r.GET("/api/ideas/:id", h.GetIdea)
	r.POST("/api/ideas", h.CreateIdea)
	return r
}

func TestListIdeas_PassesFilter(t *testing.T) {
	ideas := new(mockIdeaService)
	effort := 2
	want := services.IdeaFilter{Query: "뷰티", Category: "ecommerce", KoreaFitRange: "7-10", Effort: &effort}
	ideas.On("ListIdeas", mock.Anything, want, services.SortTrending, 2).
		Return(&resp.IdeaPage{Page: 2, PageSize: services.IdeasPageSize, Total: 13, TotalPages: 2}, nil)

	w := perform(ideaRouter(ideas), http.MethodGet, "/api/ideas?q=%EB%B7%B0%ED%8B%B0&category=ecommerce&korea_fit=7-10&effort=2&sort=trending&page=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "success", decode(t, w).Status)
	ideas.AssertExpectations(t)
}

func TestListIdeas_DefaultsSortAndPage(t *testing.T) {
	ideas := new(mockIdeaService)
	ideas.On("ListIdeas", mock.Anything, services.IdeaFilter{}, services.SortKoreaFit, 1).Return(&resp.IdeaPage{Page: 1}, nil)

	w := perform(ideaRouter(ideas), http.MethodGet, "/api/ideas", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	ideas.AssertExpectations(t)
}

func TestListIdeas_RejectsBadQuery(t *testing.T) {
	ideas := new(mockIdeaService)
	ideas.On("ListIdeas", mock.Anything, mock.Anything, mock.Anything, 0).Return(nil, utils.ErrInvalidPage)
	r := ideaRouter(ideas)

	cases := map[string]string{
		"page not a number": "/api/ideas?page=abc",
		"page zero":         "/api/ideas?page=0",
		"effort range":      "/api/ideas?effort=9",
		"unknown sort":      "/api/ideas?sort=popular",
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			w := perform(r, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "error", decode(t, w).Status)
		})
	}
}

func TestGetIdea_NotFound(t *testing.T) {
	ideas := new(mockIdeaService)
	ideas.On("GetIdea", mock.Anything, "missing").Return(nil, utils.ErrIdeaNotFound)

	w := perform(ideaRouter(ideas), http.MethodGet, "/api/ideas/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetIdea_RedactsPackAndCountsView(t *testing.T) {
	ideas := new(mockIdeaService)
	id := "7b0c2f4e-0000-4000-8000-000000000001"
	ideas.On("GetIdea", mock.Anything, id).
		Return(&resp.Idea{ID: id, Title: "K-뷰티 구독", ExecutionPack: &resp.ExecutionPack{Templates: []string{"pitch deck"}}}, nil)
	ent := &stubEntitlements{locked: true}

	w := perform(ideaRouterWith(ideas, ent, "user-1"), http.MethodGet, "/api/ideas/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "pitch deck")
	assert.Contains(t, w.Body.String(), `"execution_pack_locked":true`)
	require.Len(t, ent.views, 1)
	assert.Equal(t, "user-1", ent.views[0].UserID)
}

func TestGetIdea_MonthlyLimit(t *testing.T) {
	ideas := new(mockIdeaService)
	ideas.On("GetIdea", mock.Anything, "abc").Return(&resp.Idea{ID: "abc"}, nil)
	ent := &stubEntitlements{viewErr: fmt.Errorf("%w: 30 idea views", utils.ErrUsageLimit)}

	w := perform(ideaRouterWith(ideas, ent, ""), http.MethodGet, "/api/ideas/abc", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Len(t, ent.views, 1)
	assert.True(t, ent.views[0].Anonymous())
	assert.NotEmpty(t, ent.views[0].ClientIP)
}

func TestListIdeas_RedactsPacks(t *testing.T) {
	ideas := new(mockIdeaService)
	items := []resp.Idea{{ID: "a", ExecutionPack: &resp.ExecutionPack{Scripts: []string{"cold call"}}}, {ID: "b"}}
	ideas.On("ListIdeas", mock.Anything, services.IdeaFilter{}, services.SortKoreaFit, 1).Return(&resp.IdeaPage{Items: items, Page: 1}, nil)

	w := perform(ideaRouterWith(ideas, &stubEntitlements{locked: true}, ""), http.MethodGet, "/api/ideas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "cold call")
	assert.NotNil(t, items[0].ExecutionPack, "redaction must not mutate the service's slice")
}

func TestCreateIdea_ValidatesBody(t *testing.T) {
	ideas := new(mockIdeaService)
	w := perform(ideaRouter(ideas), http.MethodPost, "/api/ideas", map[string]any{"title": "ab"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	ideas.AssertNotCalled(t, "CreateIdea", mock.Anything, mock.Anything)
}

// ---- export ----

func exportRouter(exports *mockExportService) *gin.Engine {
	h := NewExportController(exports)
	r := gin.New()
	r.Use(withUser("user-1"))
	r.POST("/api/export", h.ExportIdeas)
	r.GET("/api/export", h.ExportStatus)
	return r
}

func TestExport_DeniedCarriesResult(t *testing.T) {
	exports := new(mockExportService)
	denied := &resp.ExportResult{Success: false, Error: "PDF 내보내기는 프리미엄 플랜에서 이용할 수 있습니다."}
	exports.On("ExportByIDs", mock.Anything, "user-1", mock.AnythingOfType("request_models.ExportRequest")).
		Return(denied, fmt.Errorf("%w: pdf", utils.ErrExportDenied))

	w := perform(exportRouter(exports), http.MethodPost, "/api/export", map[string]any{"format": "pdf", "idea_ids": []string{"a"}})
	require.Equal(t, http.StatusForbidden, w.Code)
	body := decode(t, w)
	assert.Equal(t, denied.Error, body.Message)
	details, ok := body.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, details["success"])
}

func TestExport_Success(t *testing.T) {
	exports := new(mockExportService)
	exports.On("ExportByIDs", mock.Anything, "user-1", request_models.ExportRequest{Format: "excel", IdeaIDs: []string{"a", "b"}, IncludeMetrics: true}).
		Return(&resp.ExportResult{Success: true, FileName: "ideas.csv"}, nil)

	w := perform(exportRouter(exports), http.MethodPost, "/api/export", map[string]any{
		"format": "excel", "idea_ids": []string{"a", "b"}, "include_metrics": true,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	exports.AssertExpectations(t)
}

func TestExport_UnknownFormatFailsBinding(t *testing.T) {
	exports := new(mockExportService)
	w := perform(exportRouter(exports), http.MethodPost, "/api/export", map[string]any{"format": "docx", "idea_ids": []string{"a"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportStatus(t *testing.T) {
	exports := new(mockExportService)
	limit := int64(10)
	exports.On("Status", mock.Anything, "user-1").Return(&resp.ExportStatus{PlanID: "premium", Limit: &limit}, nil)

	w := perform(exportRouter(exports), http.MethodGet, "/api/export", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"limit":10`)
}

// ---- newsletter cron ----

func TestNewsletterCron(t *testing.T) {
	news := new(mockNewsletterService)
	news.On("Preview", mock.Anything).Return(&resp.NewsletterPreview{CanSend: true}, nil)
	news.On("SendScheduled", mock.Anything).Return(&resp.NewsletterSendResult{Blocked: true, BlockedBy: []string{"timeliness"}}, nil)

	h := NewNewsletterController(news)
	r := gin.New()
	r.GET("/cron", h.RunNewsletterCron)

	w := perform(r, http.MethodGet, "/cron?dry_run=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Newsletter preview generated", decode(t, w).Message)
	news.AssertNotCalled(t, "SendScheduled", mock.Anything)

	w = perform(r, http.MethodGet, "/cron", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Newsletter blocked by content checks", decode(t, w).Message)
}

// ---- notifications ----

func TestNotify_ForwardsCaller(t *testing.T) {
	notes := new(mockNotificationService)
	req := request_models.NotificationRequest{Action: request_models.ActionSubscribe, Email: "a@example.com"}
	notes.On("Handle", mock.Anything, req, mock.MatchedBy(func(c services.Caller) bool { return c.UserID == "user-9" })).
		Return(&resp.NotificationResult{Action: req.Action, Email: req.Email, Message: "뉴스레터 구독이 완료되었습니다."}, nil)
	notes.On("Handle", mock.Anything, req, mock.MatchedBy(func(c services.Caller) bool { return c.Anonymous() })).
		Return(&resp.NotificationResult{Action: req.Action, Email: req.Email, Message: "ok"}, nil)

	h := NewContentController(nil, notes)
	authed := gin.New()
	authed.POST("/n", withUser("user-9"), h.Notify)
	anon := gin.New()
	anon.POST("/n", h.Notify)

	w := perform(authed, http.MethodPost, "/n", req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "뉴스레터 구독이 완료되었습니다.", decode(t, w).Message)

	w = perform(anon, http.MethodPost, "/n", req)
	require.Equal(t, http.StatusOK, w.Code)
	notes.AssertExpectations(t)
}

func TestNotify_AnonymousCannotSend(t *testing.T) {
	notes := new(mockNotificationService)
	h := NewContentController(nil, notes)
	r := gin.New()
	r.POST("/n", h.Notify)

	for _, action := range []string{request_models.ActionSendTest, request_models.ActionSendAlert} {
		w := perform(r, http.MethodPost, "/n", map[string]string{"action": action, "email": "victim@example.com"})
		assert.Equal(t, http.StatusUnauthorized, w.Code, action)
	}
	notes.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotify_ServiceErrorsMapToStatus(t *testing.T) {
	notes := new(mockNotificationService)
	notes.On("Handle", mock.Anything, mock.Anything, mock.Anything).Return(nil, utils.ErrNewsletterBlocked)

	h := NewContentController(nil, notes)
	r := gin.New()
	r.POST("/n", withUser("admin-1"), h.Notify)

	w := perform(r, http.MethodPost, "/n", map[string]string{"action": "send_test", "email": "qa@example.com"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = perform(r, http.MethodPost, "/n", map[string]string{"email": "qa@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "action is required")
}

// ---- regulatory ----

func TestAlerts_LockedFeature(t *testing.T) {
	ent := &stubEntitlements{requireErr: fmt.Errorf("%w: regulatory_alerts", utils.ErrFeatureLocked)}
	h := NewRegulatoryController(nil, ent)
	r := gin.New()
	r.GET("/alerts", withUser("user-1"), h.Alerts)

	w := perform(r, http.MethodGet, "/alerts?industries=fintech", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Feature not included in current plan", decode(t, w).Message)
}

// ---- dashboard ----

func TestDashboard_QueryValidation(t *testing.T) {
	dash := new(mockDashboardService)
	dash.On("BuildDashboard", mock.Anything, time.Time{}).Return(&resp.DashboardReport{}, nil)
	since := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	dash.On("BuildDashboard", mock.Anything, mock.MatchedBy(func(t time.Time) bool { return t.Equal(since) })).
		Return(&resp.DashboardReport{Since: since}, nil)

	h := NewDashboardController(dash)
	r := gin.New()
	r.GET("/d", h.GetDashboard)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/d", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/d?since=2026-10-01T00:00:00Z", nil).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/d?since=yesterday", nil).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/d?last_days=-3", nil).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/d?last_days=7&since=2026-10-01T00:00:00Z", nil).Code)
	dash.AssertExpectations(t)
}

// ---- health ----

func TestHealth_WithoutDatabase(t *testing.T) {
	r := gin.New()
	r.GET("/health", NewHealthController(nil, "koreafit").Health)

	w := perform(r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","app":"koreafit","database":"skipped"}`, w.Body.String())
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"fintech", "healthcare"}, splitCSV(" fintech, ,healthcare,"))
	assert.Nil(t, splitCSV(""))
}
