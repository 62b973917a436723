package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/service"
	pkgerrors "github.com/Digitalhour/ACSCoreOS-sub013/pkg/errors"
	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/jwt"
	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testTypeID = "0b6f5d1e-2f4a-4c44-9a57-2c1c7d9b3e11"

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult   *dto.TokenResponse
	loginErr      error
	loginIP       string
	refreshResult *dto.TokenResponse
	refreshErr    error
	refreshToken  string
	logoutErr     error
	logoutClaims  *jwt.Claims
	logoutRefresh string
	meResult      *dto.UserResponse
	meErr         error
	changePassErr error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest, clientIP string) (*dto.TokenResponse, error) {
	m.loginIP = clientIP
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Refresh(_ context.Context, token string) (*dto.TokenResponse, error) {
	m.refreshToken = token
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, access *jwt.Claims, refreshToken string) error {
	m.logoutClaims = access
	m.logoutRefresh = refreshToken
	return m.logoutErr
}
func (m *mockAuthService) IsRevoked(_ context.Context, _ string) (bool, error) {
	return false, nil
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.meResult, m.meErr
}
func (m *mockAuthService) ChangePassword(_ context.Context, _ string, _ *dto.ChangePasswordRequest) error {
	return m.changePassErr
}

// ── Mock PartService ──

type mockPartService struct {
	part      *model.Part
	parts     []model.Part
	total     int64
	err       error
	importRes *dto.ImportPartResponse
	callerID  string
}

func (m *mockPartService) Create(_ context.Context, _ *dto.CreatePartRequest, callerID string) (*model.Part, error) {
	m.callerID = callerID
	return m.part, m.err
}
func (m *mockPartService) GetByID(_ context.Context, _ string) (*model.Part, error) {
	return m.part, m.err
}
func (m *mockPartService) List(_ context.Context, _ *dto.PartListRequest) ([]model.Part, int64, error) {
	return m.parts, m.total, m.err
}
func (m *mockPartService) Update(_ context.Context, _ string, _ *dto.UpdatePartRequest, _ string) (*model.Part, error) {
	return m.part, m.err
}
func (m *mockPartService) Delete(_ context.Context, _ string, _ string) error {
	return m.err
}
func (m *mockPartService) Import(_ context.Context, _ io.Reader, _ string) (*dto.ImportPartResponse, error) {
	return m.importRes, m.err
}

// ── Mock WikiService ──

type mockWikiService struct {
	page   *dto.WikiPageResponse
	err    error
	caller service.Caller
}

func (m *mockWikiService) Create(_ context.Context, _ *dto.CreateWikiPageRequest, caller service.Caller) (*dto.WikiPageResponse, error) {
	m.caller = caller
	return m.page, m.err
}
func (m *mockWikiService) GetBySlug(_ context.Context, _ string, caller service.Caller) (*dto.WikiPageResponse, error) {
	m.caller = caller
	return m.page, m.err
}
func (m *mockWikiService) List(_ context.Context, _ *dto.WikiListRequest, _ service.Caller) ([]model.WikiPage, int64, error) {
	return nil, 0, m.err
}
func (m *mockWikiService) Update(_ context.Context, _ string, _ *dto.UpdateWikiPageRequest, _ service.Caller) (*dto.WikiPageResponse, error) {
	return m.page, m.err
}
func (m *mockWikiService) Delete(_ context.Context, _ string, _ service.Caller) error {
	return m.err
}
func (m *mockWikiService) Revisions(_ context.Context, _ string, _ service.Caller) ([]model.WikiRevision, error) {
	return nil, m.err
}
func (m *mockWikiService) Render(source string) (string, error) {
	return source, nil
}

// ── Mock PtoRequestService ──

type mockPtoRequestService struct {
	submitResult *dto.PtoRequestResponse
	request      *model.PtoRequest
	list         []model.PtoRequest
	total        int64
	calendar     []byte
	err          error
	approveReq   *dto.ApproveRequest
}

func (m *mockPtoRequestService) Submit(_ context.Context, _ *dto.CreatePtoRequestRequest, _ service.Caller) (*dto.PtoRequestResponse, error) {
	return m.submitResult, m.err
}
func (m *mockPtoRequestService) Approve(_ context.Context, _ string, req *dto.ApproveRequest, _ service.Caller) (*model.PtoRequest, error) {
	m.approveReq = req
	return m.request, m.err
}
func (m *mockPtoRequestService) Deny(_ context.Context, _ string, _ *dto.DenyRequest, _ service.Caller) (*model.PtoRequest, error) {
	return m.request, m.err
}
func (m *mockPtoRequestService) Cancel(_ context.Context, _ string, _ *dto.CancelRequest, _ service.Caller) (*model.PtoRequest, error) {
	return m.request, m.err
}
func (m *mockPtoRequestService) Get(_ context.Context, _ string, _ service.Caller) (*model.PtoRequest, error) {
	return m.request, m.err
}
func (m *mockPtoRequestService) ListMine(_ context.Context, _ *dto.PtoRequestListRequest, _ service.Caller) ([]model.PtoRequest, int64, error) {
	return m.list, m.total, m.err
}
func (m *mockPtoRequestService) List(_ context.Context, _ *dto.PtoRequestListRequest, _ service.Caller) ([]model.PtoRequest, int64, error) {
	return m.list, m.total, m.err
}
func (m *mockPtoRequestService) ListForApproval(_ context.Context, _ *dto.PtoRequestListRequest, _ service.Caller) ([]model.PtoRequest, int64, error) {
	return m.list, m.total, m.err
}
func (m *mockPtoRequestService) Calendar(_ context.Context, _ *dto.CalendarRequest, _ service.Caller) ([]byte, error) {
	return m.calendar, m.err
}

// ── Mock TimesheetService ──

type mockTimesheetService struct {
	entry     *model.TimesheetEntry
	count     int
	err       error
	exportBuf *bytes.Buffer
	filename  string
}

func (m *mockTimesheetService) ClockIn(_ context.Context, _ *dto.ClockInRequest, _ service.Caller) (*model.TimesheetEntry, error) {
	return m.entry, m.err
}
func (m *mockTimesheetService) ClockOut(_ context.Context, _ *dto.ClockOutRequest, _ service.Caller) (*model.TimesheetEntry, error) {
	return m.entry, m.err
}
func (m *mockTimesheetService) Create(_ context.Context, _ *dto.CreateTimesheetRequest, _ service.Caller) (*model.TimesheetEntry, error) {
	return m.entry, m.err
}
func (m *mockTimesheetService) Update(_ context.Context, _ string, _ *dto.UpdateTimesheetRequest, _ service.Caller) (*model.TimesheetEntry, error) {
	return m.entry, m.err
}
func (m *mockTimesheetService) Delete(_ context.Context, _ string, _ service.Caller) error {
	return m.err
}
func (m *mockTimesheetService) Get(_ context.Context, _ string, _ service.Caller) (*model.TimesheetEntry, error) {
	return m.entry, m.err
}
func (m *mockTimesheetService) List(_ context.Context, _ *dto.TimesheetListRequest, _ service.Caller) ([]model.TimesheetEntry, int64, error) {
	return nil, 0, m.err
}
func (m *mockTimesheetService) WeeklySummary(_ context.Context, _ *dto.WeekRequest, _ service.Caller) (*dto.WeeklySummary, error) {
	return &dto.WeeklySummary{}, m.err
}
func (m *mockTimesheetService) SubmitWeek(_ context.Context, _ *dto.WeekRequest, _ service.Caller) (int, error) {
	return m.count, m.err
}
func (m *mockTimesheetService) Approve(_ context.Context, _ *dto.ReviewTimesheetRequest, _ service.Caller) (int, error) {
	return m.count, m.err
}
func (m *mockTimesheetService) Reject(_ context.Context, _ *dto.ReviewTimesheetRequest, _ service.Caller) (int, error) {
	return m.count, m.err
}
func (m *mockTimesheetService) Export(_ context.Context, _ *dto.ExportTimesheetRequest, _ service.Caller) (*bytes.Buffer, string, error) {
	return m.exportBuf, m.filename, m.err
}

// ── Mock Admin Services ──

type mockRoutePermissionService struct {
	perms      []model.RoutePermission
	syncResult *dto.SyncRoutesResponse
	syncRoutes []dto.RouteInfo
	syncReq    *dto.SyncRoutesRequest
	err        error
}

func (m *mockRoutePermissionService) List(_ context.Context) ([]model.RoutePermission, error) {
	return m.perms, m.err
}
func (m *mockRoutePermissionService) Update(_ context.Context, _ string, _ *dto.UpdateRoutePermissionRequest, _ string) (*model.RoutePermission, error) {
	return nil, m.err
}
func (m *mockRoutePermissionService) Sync(_ context.Context, routes []dto.RouteInfo, req *dto.SyncRoutesRequest, _ string) (*dto.SyncRoutesResponse, error) {
	m.syncRoutes = routes
	m.syncReq = req
	return m.syncResult, m.err
}
func (m *mockRoutePermissionService) Check(_ context.Context, _, _, _ string) (bool, error) {
	return true, nil
}
func (m *mockRoutePermissionService) Invalidate() {}

type mockDashboardService struct {
	stats       *dto.DashboardStats
	err         error
	invalidated bool
}

func (m *mockDashboardService) Stats(_ context.Context) (*dto.DashboardStats, error) {
	return m.stats, m.err
}
func (m *mockDashboardService) Invalidate(_ context.Context) {
	m.invalidated = true
}

type mockActivityService struct{}

func (m *mockActivityService) Record(_ context.Context, _ service.ActivityEntry) {}
func (m *mockActivityService) List(_ context.Context, _ *dto.ActivityListRequest) ([]dto.ActivityResponse, int64, error) {
	return nil, 0, nil
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setupGin() (*gin.Engine, *httptest.ResponseRecorder) {
	return gin.New(), httptest.NewRecorder()
}

func setAuth(c *gin.Context) {
	setAuthAs(c, model.RoleAdmin)
}

func setAuthAs(c *gin.Context, role string) {
	c.Set(CtxUserID, "test-user-id")
	c.Set(CtxRole, role)
	c.Set(CtxDepartmentID, "test-dept-id")
	c.Set(CtxTokenJTI, "test-jti")
	c.Set(CtxTokenExp, time.Now().Add(15*time.Minute))
}

// authed 包装 handler：先注入登录态
func authed(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuth(c)
		h(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func jsonRequest(method, path string, v interface{}) *http.Request {
	req := httptest.NewRequest(method, path, jsonBody(v))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status, code int) {
	t.Helper()
	if w.Code != status {
		t.Errorf("expected %d, got %d (%s)", status, w.Code, w.Body.String())
	}
	if resp := parseResponse(w); resp.Code != code {
		t.Errorf("expected code %d, got %d", code, resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			ExpiresIn:    900,
		},
	}
	h := NewAuthHandler(mock)

	r, w := setupGin()
	r.POST("/auth/login", h.Login)
	req := jsonRequest("POST", "/auth/login", dto.LoginRequest{Email: "jane@example.com", Password: "Test1234"})
	req.RemoteAddr = "10.0.0.8:5123"
	r.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusOK, 0)
	if mock.loginIP != "10.0.0.8" {
		t.Errorf("expected client ip 10.0.0.8, got %q", mock.loginIP)
	}

	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookieName {
			found = true
			if c.Value != "test-refresh-token" {
				t.Errorf("expected cookie value test-refresh-token, got %s", c.Value)
			}
			if !c.HttpOnly {
				t.Error("expected HttpOnly refresh cookie")
			}
		}
	}
	if !found {
		t.Error("expected refresh_token cookie to be set")
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r, w := setupGin()
	r.POST("/auth/login", h.Login)
	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader("invalid json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusBadRequest, 10001)
}

func TestAuthHandler_Login_ValidationFailed(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r, w := setupGin()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, jsonRequest("POST", "/auth/login", map[string]string{"email": "not-an-email", "password": "x"}))

	expectStatus(t, w, http.StatusUnprocessableEntity, 10001)
}

func TestAuthHandler_Login_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"密码错误", service.ErrInvalidCredentials, http.StatusUnauthorized, 11001},
		{"账号停用", service.ErrUserInactive, http.StatusForbidden, 11002},
		{"登录过于频繁", service.ErrTooManyAttempts, http.StatusTooManyRequests, 11003},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{loginErr: tt.err})

			r, w := setupGin()
			r.POST("/auth/login", h.Login)
			r.ServeHTTP(w, jsonRequest("POST", "/auth/login", dto.LoginRequest{Email: "jane@example.com", Password: "wrong"}))

			expectStatus(t, w, tt.status, tt.code)
		})
	}
}

func TestAuthHandler_Refresh_FromCookie(t *testing.T) {
	mock := &mockAuthService{
		refreshResult: &dto.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 900},
	}
	h := NewAuthHandler(mock)

	r, w := setupGin()
	r.POST("/auth/refresh", h.Refresh)
	req := httptest.NewRequest("POST", "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "cookie-refresh"})
	r.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusOK, 0)
	if mock.refreshToken != "cookie-refresh" {
		t.Errorf("expected cookie token to be used, got %q", mock.refreshToken)
	}
}

func TestAuthHandler_Refresh_MissingToken(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r, w := setupGin()
	r.POST("/auth/refresh", h.Refresh)
	r.ServeHTTP(w, jsonRequest("POST", "/auth/refresh", map[string]string{}))

	expectStatus(t, w, http.StatusBadRequest, 10001)
}

func TestAuthHandler_Refresh_InvalidToken(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{refreshErr: service.ErrInvalidToken})

	r, w := setupGin()
	r.POST("/auth/refresh", h.Refresh)
	r.ServeHTTP(w, jsonRequest("POST", "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: "stale"}))

	expectStatus(t, w, http.StatusUnauthorized, 11004)
}

func TestAuthHandler_Logout_PassesClaimsAndCookie(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)
	claims := &jwt.Claims{}

	r, w := setupGin()
	r.POST("/auth/logout", func(c *gin.Context) {
		setAuth(c)
		c.Set(CtxClaims, claims)
		h.Logout(c)
	})
	req := httptest.NewRequest("POST", "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "cookie-refresh"})
	r.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusOK, 0)
	if mock.logoutClaims != claims {
		t.Error("expected access claims to be passed to Logout")
	}
	if mock.logoutRefresh != "cookie-refresh" {
		t.Errorf("expected refresh token from cookie, got %q", mock.logoutRefresh)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r, w := setupGin()
	r.GET("/auth/me", h.Me)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/auth/me", nil))

	expectStatus(t, w, http.StatusUnauthorized, 10002)
}

func TestAuthHandler_Me_Success(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{meResult: &dto.UserResponse{ID: "test-user-id", DisplayName: "Jane Doe"}})

	r, w := setupGin()
	r.GET("/auth/me", authed(h.Me))
	r.ServeHTTP(w, httptest.NewRequest("GET", "/auth/me", nil))

	expectStatus(t, w, http.StatusOK, 0)
}

func TestAuthHandler_ChangePassword_Wrong(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{changePassErr: service.ErrWrongPassword})

	r, w := setupGin()
	r.PUT("/auth/password", authed(h.ChangePassword))
	r.ServeHTTP(w, jsonRequest("PUT", "/auth/password", dto.ChangePasswordRequest{OldPassword: "old", NewPassword: "NewPass123"}))

	expectStatus(t, w, http.StatusBadRequest, 11005)
}

// ═══════════════════════════════════════════════════════════
// Common error mapping
// ═══════════════════════════════════════════════════════════

func TestHandleCommonError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"无权限", service.ErrNoPermission, http.StatusForbidden, 10003},
		{"乐观锁冲突", fmt.Errorf("更新配件: %w", pkgerrors.ErrOptimisticLock), http.StatusConflict, 10006},
		{"日期格式", fmt.Errorf("%w: %q", dto.ErrInvalidDate, "2025-13-01"), http.StatusBadRequest, 10007},
		{"用户不存在", service.ErrUserNotFound, http.StatusNotFound, 20001},
		{"未知错误", io.ErrUnexpectedEOF, http.StatusInternalServerError, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, w := setupGin()
			r.GET("/x", func(c *gin.Context) { handleCommonError(c, tt.err) })
			r.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))

			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
			if tt.code != 50000 {
				if resp := parseResponse(w); resp.Code != tt.code {
					t.Errorf("expected code %d, got %d", tt.code, resp.Code)
				}
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// PartHandler Tests
// ═══════════════════════════════════════════════════════════

func TestPartHandler_CreatePart_Success(t *testing.T) {
	mock := &mockPartService{part: &model.Part{PartID: "p1", PartNumber: "ACS-100"}}
	h := NewPartHandler(mock)

	r, w := setupGin()
	r.POST("/parts", authed(h.CreatePart))
	r.ServeHTTP(w, jsonRequest("POST", "/parts", map[string]interface{}{
		"part_number": "ACS-100",
		"name":        "Hydraulic pump",
		"unit_price":  "129.50",
		"quantity":    4,
	}))

	expectStatus(t, w, http.StatusCreated, 0)
	if mock.callerID != "test-user-id" {
		t.Errorf("expected caller test-user-id, got %q", mock.callerID)
	}
}

func TestPartHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"配件不存在", service.ErrPartNotFound, http.StatusNotFound, 41001},
		{"编号重复", service.ErrPartNumberExists, http.StatusConflict, 41002},
		{"负单价", service.ErrPartNegativePrice, http.StatusBadRequest, 41003},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPartHandler(&mockPartService{err: tt.err})

			r, w := setupGin()
			r.PUT("/parts/:id", authed(h.UpdatePart))
			r.ServeHTTP(w, jsonRequest("PUT", "/parts/p1", map[string]interface{}{"name": "Pump"}))

			expectStatus(t, w, tt.status, tt.code)
		})
	}
}

func TestPartHandler_ImportParts_MissingFile(t *testing.T) {
	h := NewPartHandler(&mockPartService{})

	r, w := setupGin()
	r.POST("/parts/import", authed(h.ImportParts))
	r.ServeHTTP(w, httptest.NewRequest("POST", "/parts/import", nil))

	expectStatus(t, w, http.StatusBadRequest, 41004)
}

func TestPartHandler_ImportParts_Success(t *testing.T) {
	mock := &mockPartService{importRes: &dto.ImportPartResponse{Total: 2, Created: 1, Updated: 1}}
	h := NewPartHandler(mock)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "parts.xlsx")
	fw.Write([]byte("fake-xlsx"))
	mw.Close()

	r, w := setupGin()
	r.POST("/parts/import", authed(h.ImportParts))
	req := httptest.NewRequest("POST", "/parts/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusOK, 0)
}

// ═══════════════════════════════════════════════════════════
// WikiHandler Tests
// ═══════════════════════════════════════════════════════════

func TestWikiHandler_GetPage_PassesCaller(t *testing.T) {
	mock := &mockWikiService{page: &dto.WikiPageResponse{WikiPage: &model.WikiPage{Slug: "onboarding"}, HTML: "<h1>Hi</h1>"}}
	h := NewWikiHandler(mock)

	r, w := setupGin()
	r.GET("/wiki/pages/:slug", func(c *gin.Context) {
		setAuthAs(c, model.RoleEmployee)
		h.GetPage(c)
	})
	r.ServeHTTP(w, httptest.NewRequest("GET", "/wiki/pages/onboarding", nil))

	expectStatus(t, w, http.StatusOK, 0)
	if mock.caller.Role != model.RoleEmployee || mock.caller.UserID != "test-user-id" {
		t.Errorf("unexpected caller %+v", mock.caller)
	}
}

func TestWikiHandler_UpdatePage_VersionConflict(t *testing.T) {
	h := NewWikiHandler(&mockWikiService{err: service.ErrWikiVersionConflict})

	r, w := setupGin()
	r.PUT("/wiki/pages/:id", authed(h.UpdatePage))
	r.ServeHTTP(w, jsonRequest("PUT", "/wiki/pages/w1", map[string]interface{}{"content": "# new", "version": 2}))

	expectStatus(t, w, http.StatusConflict, 42003)
}

func TestWikiHandler_UpdatePage_MissingVersion(t *testing.T) {
	h := NewWikiHandler(&mockWikiService{})

	r, w := setupGin()
	r.PUT("/wiki/pages/:id", authed(h.UpdatePage))
	r.ServeHTTP(w, jsonRequest("PUT", "/wiki/pages/w1", map[string]interface{}{"content": "# new"}))

	expectStatus(t, w, http.StatusUnprocessableEntity, 10001)
}

func TestWikiHandler_GetPage_NoPermission(t *testing.T) {
	h := NewWikiHandler(&mockWikiService{err: service.ErrNoPermission})

	r, w := setupGin()
	r.GET("/wiki/pages/:slug", authed(h.GetPage))
	r.ServeHTTP(w, httptest.NewRequest("GET", "/wiki/pages/draft", nil))

	expectStatus(t, w, http.StatusForbidden, 10003)
}

// ═══════════════════════════════════════════════════════════
// PtoRequestHandler Tests
// ═══════════════════════════════════════════════════════════

func validSubmitBody() map[string]interface{} {
	return map[string]interface{}{
		"pto_type_id": testTypeID,
		"start_date":  "2025-07-01",
		"end_date":    "2025-07-03",
	}
}

func TestPtoRequestHandler_Submit_Success(t *testing.T) {
	mock := &mockPtoRequestService{submitResult: &dto.PtoRequestResponse{PtoRequest: &model.PtoRequest{}}}
	h := NewPtoRequestHandler(mock)

	r, w := setupGin()
	r.POST("/pto/requests", authed(h.Submit))
	r.ServeHTTP(w, jsonRequest("POST", "/pto/requests", validSubmitBody()))

	expectStatus(t, w, http.StatusCreated, 0)
}

func TestPtoRequestHandler_Submit_BlackoutConflict(t *testing.T) {
	conflict := &service.BlackoutConflictError{Conflicts: []dto.BlackoutConflict{{
		BlackoutID: "b1", Name: "Year-end close", RestrictionType: "full_block",
		StartDate: "2025-07-01", EndDate: "2025-07-02",
	}}}
	h := NewPtoRequestHandler(&mockPtoRequestService{err: fmt.Errorf("提交申请: %w", conflict)})

	r, w := setupGin()
	r.POST("/pto/requests", authed(h.Submit))
	r.ServeHTTP(w, jsonRequest("POST", "/pto/requests", validSubmitBody()))

	expectStatus(t, w, http.StatusConflict, 33010)

	var body struct {
		Data struct {
			Conflicts []dto.BlackoutConflict `json:"conflicts"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Data.Conflicts) != 1 || body.Data.Conflicts[0].Name != "Year-end close" {
		t.Errorf("expected conflicts in response data, got %s", w.Body.String())
	}
}

func TestPtoRequestHandler_Submit_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"跨年", service.ErrRequestCrossYear, http.StatusBadRequest, 33004},
		{"重叠", service.ErrRequestOverlap, http.StatusConflict, 33007},
		{"额度不足", service.ErrInsufficientBalance, http.StatusUnprocessableEntity, 33013},
		{"无权忽略禁休", service.ErrOverrideForbidden, http.StatusForbidden, 33011},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPtoRequestHandler(&mockPtoRequestService{err: tt.err})

			r, w := setupGin()
			r.POST("/pto/requests", authed(h.Submit))
			r.ServeHTTP(w, jsonRequest("POST", "/pto/requests", validSubmitBody()))

			expectStatus(t, w, tt.status, tt.code)
		})
	}
}

func TestPtoRequestHandler_Approve_EmptyBody(t *testing.T) {
	mock := &mockPtoRequestService{request: &model.PtoRequest{}}
	h := NewPtoRequestHandler(mock)

	r, w := setupGin()
	r.POST("/pto/requests/:id/approve", authed(h.Approve))
	r.ServeHTTP(w, httptest.NewRequest("POST", "/pto/requests/r1/approve", nil))

	expectStatus(t, w, http.StatusOK, 0)
	if mock.approveReq == nil {
		t.Error("expected approve request to be passed")
	}
}

func TestPtoRequestHandler_Deny_RequiresReason(t *testing.T) {
	h := NewPtoRequestHandler(&mockPtoRequestService{})

	r, w := setupGin()
	r.POST("/pto/requests/:id/deny", authed(h.Deny))
	r.ServeHTTP(w, jsonRequest("POST", "/pto/requests/r1/deny", map[string]string{}))

	expectStatus(t, w, http.StatusUnprocessableEntity, 10001)
}

func TestPtoRequestHandler_ListMine_Paginated(t *testing.T) {
	mock := &mockPtoRequestService{list: []model.PtoRequest{{}, {}}, total: 2}
	h := NewPtoRequestHandler(mock)

	r, w := setupGin()
	r.GET("/pto/requests/mine", authed(h.ListMine))
	r.ServeHTTP(w, httptest.NewRequest("GET", "/pto/requests/mine?page=1&page_size=10", nil))

	expectStatus(t, w, http.StatusOK, 0)

	var body struct {
		Data response.PageData `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Pagination.Total != 2 {
		t.Errorf("expected total 2, got %d", body.Data.Pagination.Total)
	}
}

// ═══════════════════════════════════════════════════════════
// TimesheetHandler / ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestTimesheetHandler_ClockIn_AlreadyOpen(t *testing.T) {
	h := NewTimesheetHandler(&mockTimesheetService{err: service.ErrTimesheetAlreadyOpen})

	r, w := setupGin()
	r.POST("/timesheet/clock-in", authed(h.ClockIn))
	r.ServeHTTP(w, httptest.NewRequest("POST", "/timesheet/clock-in", nil))

	expectStatus(t, w, http.StatusConflict, 40002)
}

func TestTimesheetHandler_SubmitWeek(t *testing.T) {
	h := NewTimesheetHandler(&mockTimesheetService{count: 5})

	r, w := setupGin()
	r.POST("/timesheet/week/submit", authed(h.SubmitWeek))
	r.ServeHTTP(w, jsonRequest("POST", "/timesheet/week/submit", dto.WeekRequest{WeekStart: "2025-06-02"}))

	expectStatus(t, w, http.StatusOK, 0)
	if !strings.Contains(w.Body.String(), `"submitted":5`) {
		t.Errorf("expected submitted count, got %s", w.Body.String())
	}
}

func TestTimesheetHandler_Reject_SelfApproval(t *testing.T) {
	h := NewTimesheetHandler(&mockTimesheetService{err: service.ErrSelfApproval})

	r, w := setupGin()
	r.POST("/timesheet/reject", authed(h.Reject))
	r.ServeHTTP(w, jsonRequest("POST", "/timesheet/reject", dto.ReviewTimesheetRequest{EntryIDs: []string{testTypeID}}))

	expectStatus(t, w, http.StatusForbidden, 40011)
}

func TestExportHandler_ExportTimesheets(t *testing.T) {
	ts := &mockTimesheetService{exportBuf: bytes.NewBufferString("xlsx-bytes"), filename: "工时_2025-06-01_2025-06-30.xlsx"}
	h := NewExportHandler(ts, &mockPtoRequestService{})

	r, w := setupGin()
	r.GET("/timesheet/export", authed(h.ExportTimesheets))
	r.ServeHTTP(w, httptest.NewRequest("GET", "/timesheet/export?from=2025-06-01&to=2025-06-30", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != mimeXLSX {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "filename*=UTF-8''") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if w.Body.String() != "xlsx-bytes" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestExportHandler_ExportCalendar(t *testing.T) {
	reqSvc := &mockPtoRequestService{calendar: []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")}
	h := NewExportHandler(&mockTimesheetService{}, reqSvc)

	r, w := setupGin()
	r.GET("/pto/calendar", authed(h.ExportCalendar))
	r.ServeHTTP(w, httptest.NewRequest("GET", "/pto/calendar?from=2025-01-01&to=2025-12-31", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "pto_2025-01-01_2025-12-31.ics") {
		t.Errorf("unexpected content disposition %q", cd)
	}
}

func TestExportHandler_ExportCalendar_DateRange(t *testing.T) {
	h := NewExportHandler(&mockTimesheetService{}, &mockPtoRequestService{err: service.ErrRequestDateRange})

	r, w := setupGin()
	r.GET("/pto/calendar", authed(h.ExportCalendar))
	r.ServeHTTP(w, httptest.NewRequest("GET", "/pto/calendar?from=2025-12-31&to=2025-01-01", nil))

	expectStatus(t, w, http.StatusBadRequest, 16101)
}

// ═══════════════════════════════════════════════════════════
// AdminHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAdminHandler_Sync_WithoutRouteSource(t *testing.T) {
	h := NewAdminHandler(&mockRoutePermissionService{}, &mockDashboardService{}, &mockActivityService{})

	r, w := setupGin()
	r.POST("/admin/route-permissions/sync", authed(h.SyncRoutePermissions))
	r.ServeHTTP(w, httptest.NewRequest("POST", "/admin/route-permissions/sync", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestAdminHandler_Sync_UsesRouteSource(t *testing.T) {
	perms := &mockRoutePermissionService{syncResult: &dto.SyncRoutesResponse{DryRun: true}}
	h := NewAdminHandler(perms, &mockDashboardService{}, &mockActivityService{})
	routes := []dto.RouteInfo{{Method: "GET", Path: "/api/parts", Handler: "PartHandler.ListParts"}}
	h.SetRouteSource(func() []dto.RouteInfo { return routes })

	r, w := setupGin()
	r.POST("/admin/route-permissions/sync", authed(h.SyncRoutePermissions))
	r.ServeHTTP(w, jsonRequest("POST", "/admin/route-permissions/sync", dto.SyncRoutesRequest{DryRun: true}))

	expectStatus(t, w, http.StatusOK, 0)
	if len(perms.syncRoutes) != 1 || perms.syncRoutes[0].Path != "/api/parts" {
		t.Errorf("expected discovered routes to be passed, got %+v", perms.syncRoutes)
	}
	if perms.syncReq == nil || !perms.syncReq.DryRun {
		t.Error("expected dry_run to be forwarded")
	}
}

func TestAdminHandler_UpdateRoutePermission_NotFound(t *testing.T) {
	h := NewAdminHandler(&mockRoutePermissionService{err: service.ErrRoutePermissionNotFound}, &mockDashboardService{}, &mockActivityService{})

	r, w := setupGin()
	r.PUT("/admin/route-permissions/:id", authed(h.UpdateRoutePermission))
	r.ServeHTTP(w, jsonRequest("PUT", "/admin/route-permissions/x", map[string]interface{}{"roles": []string{"hr"}}))

	expectStatus(t, w, http.StatusNotFound, 43001)
}

func TestAdminHandler_RefreshDashboard(t *testing.T) {
	dash := &mockDashboardService{}
	h := NewAdminHandler(&mockRoutePermissionService{}, dash, &mockActivityService{})

	r, w := setupGin()
	r.DELETE("/admin/dashboard/cache", authed(h.RefreshDashboard))
	r.ServeHTTP(w, httptest.NewRequest("DELETE", "/admin/dashboard/cache", nil))

	expectStatus(t, w, http.StatusOK, 0)
	if !dash.invalidated {
		t.Error("expected dashboard cache to be invalidated")
	}
}
