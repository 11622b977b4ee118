package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"face-attendance/internal/dto"
	"face-attendance/internal/model"
	"face-attendance/internal/recognition"
	"face-attendance/internal/service"
	"face-attendance/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult   *dto.TokenResponse
	loginErr      error
	refreshResult *dto.TokenResponse
	refreshErr    error
	refreshToken  string
	logoutErr     error
	logoutJTI     string
	meResult      *dto.UserResponse
	meErr         error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Refresh(_ context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	m.refreshToken = req.RefreshToken
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time) error {
	m.logoutJTI = jti
	return m.logoutErr
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.meResult, m.meErr
}
func (m *mockAuthService) CreateUser(_ context.Context, _ *dto.CreateUserRequest) (*dto.UserResponse, error) {
	return nil, nil
}

// ── Mock EmployeeService ──

type mockEmployeeService struct {
	getResult    *dto.EmployeeResponse
	getErr       error
	listResult   []dto.EmployeeResponse
	listTotal    int64
	createResult *dto.EmployeeResponse
	createErr    error
	updateErr    error
	deactivateID string
	enrollResult *dto.EmployeeResponse
	enrollErr    error
	enrolled     []float32
}

func (m *mockEmployeeService) Create(_ context.Context, _ *dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockEmployeeService) Get(_ context.Context, _ string) (*dto.EmployeeResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockEmployeeService) List(_ context.Context, _ *dto.EmployeeListRequest) ([]dto.EmployeeResponse, int64, error) {
	return m.listResult, m.listTotal, nil
}
func (m *mockEmployeeService) Update(_ context.Context, _ string, _ *dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error) {
	return m.getResult, m.updateErr
}
func (m *mockEmployeeService) Deactivate(_ context.Context, employeeID string) error {
	m.deactivateID = employeeID
	return m.getErr
}
func (m *mockEmployeeService) EnrollTemplate(_ context.Context, _ string, template []float32) (*dto.EmployeeResponse, error) {
	m.enrolled = template
	return m.enrollResult, m.enrollErr
}
func (m *mockEmployeeService) FindActiveWithTemplate(_ context.Context) ([]model.Employee, error) {
	return nil, nil
}

// ── Mock FaceService ──

type mockFaceService struct {
	recognizeResult *dto.RecognizeResponse
	checkResult     *dto.FaceCheckResponse
	err             error
	callerID        string
}

func (m *mockFaceService) Recognize(_ context.Context, _ []float32) (recognition.Result, error) {
	return nil, m.err
}
func (m *mockFaceService) RecognizeResponse(_ context.Context, _ *dto.RecognizeRequest) (*dto.RecognizeResponse, error) {
	return m.recognizeResult, m.err
}
func (m *mockFaceService) RecognizeAndCheck(_ context.Context, _ *dto.FaceCheckRequest, callerID string) (*dto.FaceCheckResponse, error) {
	m.callerID = callerID
	return m.checkResult, m.err
}

// ── Mock AttendanceService ──

type mockAttendanceService struct {
	checkResult  *dto.AttendanceRecordResponse
	checkErr     error
	checkReq     *dto.CheckRequest
	amendResult  *dto.AmendAttendanceResponse
	amendErr     error
	listResult   []dto.AttendanceRecordResponse
	listErr      error
	statusResult *dto.AttendanceStatusResponse
	statusErr    error
}

func (m *mockAttendanceService) Check(_ context.Context, req *dto.CheckRequest, _ string) (*dto.AttendanceRecordResponse, error) {
	m.checkReq = req
	return m.checkResult, m.checkErr
}
func (m *mockAttendanceService) Amend(_ context.Context, _ string, _ *dto.AmendAttendanceRequest, _ string) (*dto.AmendAttendanceResponse, error) {
	return m.amendResult, m.amendErr
}
func (m *mockAttendanceService) List(_ context.Context, _ *dto.AttendanceListRequest) ([]dto.AttendanceRecordResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockAttendanceService) ListByEmployee(_ context.Context, _ string, _ *dto.DateRangeRequest) ([]dto.AttendanceRecordResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockAttendanceService) Status(_ context.Context, _ string) (*dto.AttendanceStatusResponse, error) {
	return m.statusResult, m.statusErr
}

// ── Mock ReportService / ExportService / NotificationService ──

type mockReportService struct {
	result *dto.ReportResponse
	err    error
}

func (m *mockReportService) Daily(_ context.Context, _ *dto.DailyReportRequest) (*dto.ReportResponse, error) {
	return m.result, m.err
}
func (m *mockReportService) Range(_ context.Context, _ *dto.RangeReportRequest) (*dto.ReportResponse, error) {
	return m.result, m.err
}
func (m *mockReportService) BuildDaily(_ context.Context, _ string) (*service.Report, error) {
	return nil, m.err
}
func (m *mockReportService) BuildRange(_ context.Context, _ *dto.RangeReportRequest) (*service.Report, error) {
	return nil, m.err
}

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportRange(_ context.Context, _ *dto.RangeReportRequest) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) Workbook(_ *service.Report) (*bytes.Buffer, error) {
	return m.buf, m.err
}

type mockNotificationService struct {
	result *dto.SendReportResponse
	err    error
}

func (m *mockNotificationService) SendDailyReport(_ context.Context, _ *dto.DailyReportRequest) (*dto.SendReportResponse, error) {
	return m.result, m.err
}

// ── Mock SettingService ──

type mockSettingService struct {
	getResult    *dto.SettingResponse
	getErr       error
	listResult   dto.SettingsByCategory
	upsertErr    error
	upsertCaller string
	initResult   *dto.InitializeSettingsResponse
}

func (m *mockSettingService) Get(_ context.Context, _ string) (*dto.SettingResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockSettingService) List(_ context.Context, _ string) (dto.SettingsByCategory, error) {
	return m.listResult, nil
}
func (m *mockSettingService) Upsert(_ context.Context, name string, req *dto.UpsertSettingRequest, callerID string) (*dto.SettingResponse, error) {
	m.upsertCaller = callerID
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	return &dto.SettingResponse{Name: name, Value: req.Value.Raw(), UpdatedBy: callerID}, nil
}
func (m *mockSettingService) InitializeDefaults(_ context.Context, _ string) (*dto.InitializeSettingsResponse, error) {
	return m.initResult, nil
}
func (m *mockSettingService) Bool(_ context.Context, _ string) bool           { return false }
func (m *mockSettingService) Int(_ context.Context, _ string, min, _ int) int { return min }
func (m *mockSettingService) Clock(_ context.Context, _ string) (service.Clock, bool) {
	return service.Clock{}, false
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("role", "admin")
	c.Set("employee_id", "EMP001")
	c.Set("token_jti", "test-jti")
	c.Set("token_exp", time.Now().Add(15*time.Minute))
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// serve 注册单个路由并执行请求；authed 为 true 时先注入登录信息
func serve(method, path, target string, body io.Reader, authed bool, h gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	r := gin.New()
	r.Handle(method, path, func(c *gin.Context) {
		if authed {
			setAuth(c)
		}
		h(c)
	})
	r.ServeHTTP(w, req)
	return w
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
	h := NewAuthHandler(mock, CookieConfig{MaxAge: time.Hour})

	w := serve("POST", "/auth/login", "/auth/login", jsonBody(dto.LoginRequest{
		Username: "admin",
		Password: "Test1234",
	}), false, h.Login)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
	// 验证 Set-Cookie 头
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" {
			found = true
			if c.Value != "test-refresh-token" || !c.HttpOnly {
				t.Errorf("unexpected refresh cookie: %+v", c)
			}
		}
	}
	if !found {
		t.Error("expected refresh_token cookie to be set")
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, CookieConfig{})

	w := serve("POST", "/auth/login", "/auth/login", strings.NewReader("invalid json"), false, h.Login)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials}, CookieConfig{})

	w := serve("POST", "/auth/login", "/auth/login", jsonBody(dto.LoginRequest{
		Username: "admin",
		Password: "wrong",
	}), false, h.Login)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_RefreshToken_FromCookie(t *testing.T) {
	mock := &mockAuthService{
		refreshResult: &dto.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh"},
	}
	h := NewAuthHandler(mock, CookieConfig{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "cookie-refresh"})
	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.refreshToken != "cookie-refresh" {
		t.Errorf("expected token from cookie, got %q", mock.refreshToken)
	}
}

func TestAuthHandler_RefreshToken_Missing(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, CookieConfig{})

	w := serve("POST", "/auth/refresh", "/auth/refresh", jsonBody(map[string]string{}), false, h.RefreshToken)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_RefreshToken_Invalid(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{refreshErr: service.ErrInvalidRefreshToken}, CookieConfig{})

	w := serve("POST", "/auth/refresh", "/auth/refresh", jsonBody(dto.RefreshTokenRequest{RefreshToken: "x"}), false, h.RefreshToken)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11003 {
		t.Errorf("expected error code 11003, got %d", resp.Code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock, CookieConfig{})

	w := serve("POST", "/auth/logout", "/auth/logout", nil, true, h.Logout)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.logoutJTI != "test-jti" {
		t.Errorf("expected jti test-jti, got %q", mock.logoutJTI)
	}
	// 验证 Cookie 被清除（max-age = -1）
	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" && c.MaxAge >= 0 {
			t.Error("expected refresh_token cookie to be cleared")
		}
	}
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{meResult: &dto.UserResponse{ID: "test-user-id"}}, CookieConfig{})

	if w := serve("GET", "/auth/me", "/auth/me", nil, true, h.GetCurrentUser); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w := serve("GET", "/auth/me", "/auth/me", nil, false, h.GetCurrentUser); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without auth, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// EmployeeHandler Tests
// ═══════════════════════════════════════════════════════════

func TestEmployeeHandler_Create(t *testing.T) {
	mock := &mockEmployeeService{createResult: &dto.EmployeeResponse{EmployeeID: "EMP001"}}
	h := NewEmployeeHandler(mock)

	w := serve("POST", "/employees", "/employees", jsonBody(dto.CreateEmployeeRequest{
		EmployeeID: "EMP001",
		Name:       "张三",
		Email:      "zhangsan@example.com",
		Department: "研发部",
		Position:   "工程师",
	}), true, h.CreateEmployee)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestEmployeeHandler_Create_Validation(t *testing.T) {
	h := NewEmployeeHandler(&mockEmployeeService{})

	w := serve("POST", "/employees", "/employees", jsonBody(map[string]string{
		"employee_id": "EMP001",
		"email":       "not-an-email",
	}), true, h.CreateEmployee)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestEmployeeHandler_Create_Duplicate(t *testing.T) {
	h := NewEmployeeHandler(&mockEmployeeService{createErr: service.ErrEmployeeIDExists})

	w := serve("POST", "/employees", "/employees", jsonBody(dto.CreateEmployeeRequest{
		EmployeeID: "EMP001",
		Name:       "张三",
		Email:      "zhangsan@example.com",
		Department: "研发部",
		Position:   "工程师",
	}), true, h.CreateEmployee)

	if resp := parseResponse(w); w.Code != http.StatusBadRequest || resp.Code != 12002 {
		t.Errorf("expected 400/12002, got %d/%d", w.Code, resp.Code)
	}
}

func TestEmployeeHandler_Get_NotFound(t *testing.T) {
	h := NewEmployeeHandler(&mockEmployeeService{getErr: service.ErrEmployeeNotFound})

	w := serve("GET", "/employees/:id", "/employees/EMP404", nil, true, h.GetEmployee)

	if resp := parseResponse(w); w.Code != http.StatusNotFound || resp.Code != 12001 {
		t.Errorf("expected 404/12001, got %d/%d", w.Code, resp.Code)
	}
}

func TestEmployeeHandler_List_Paginated(t *testing.T) {
	mock := &mockEmployeeService{
		listResult: []dto.EmployeeResponse{{EmployeeID: "EMP001"}, {EmployeeID: "EMP002"}},
		listTotal:  45,
	}
	h := NewEmployeeHandler(mock)

	w := serve("GET", "/employees", "/employees?page=2&page_size=20&active=true", nil, true, h.ListEmployees)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data response.PageData `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Pagination.TotalPages != 3 || body.Data.Pagination.Page != 2 {
		t.Errorf("unexpected pagination: %+v", body.Data.Pagination)
	}
}

func TestEmployeeHandler_Deactivate(t *testing.T) {
	mock := &mockEmployeeService{}
	h := NewEmployeeHandler(mock)

	w := serve("DELETE", "/employees/:id", "/employees/EMP001", nil, true, h.DeactivateEmployee)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.deactivateID != "EMP001" {
		t.Errorf("expected EMP001, got %q", mock.deactivateID)
	}
}

// ═══════════════════════════════════════════════════════════
// FaceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestFaceHandler_Register(t *testing.T) {
	employees := &mockEmployeeService{enrollResult: &dto.EmployeeResponse{EmployeeID: "EMP001", FaceEnrolled: true}}
	h := NewFaceHandler(&mockFaceService{}, employees)

	w := serve("POST", "/face/register/:employeeId", "/face/register/EMP001",
		jsonBody(dto.RegisterFaceRequest{FaceData: []float32{0.1, 0.2}}), true, h.Register)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if len(employees.enrolled) != 2 {
		t.Errorf("expected 2-dim template, got %v", employees.enrolled)
	}
}

func TestFaceHandler_Register_EmptySample(t *testing.T) {
	h := NewFaceHandler(&mockFaceService{}, &mockEmployeeService{})

	w := serve("POST", "/face/register/:employeeId", "/face/register/EMP001",
		jsonBody(map[string]interface{}{"face_data": []float32{}}), true, h.Register)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestFaceHandler_Recognize_NoMatch(t *testing.T) {
	mock := &mockFaceService{recognizeResult: &dto.RecognizeResponse{Message: "未识别到匹配的员工"}}
	h := NewFaceHandler(mock, &mockEmployeeService{})

	w := serve("POST", "/face/recognize", "/face/recognize",
		jsonBody(dto.RecognizeRequest{FaceData: []float32{1, 0}}), false, h.Recognize)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for no-match, got %d", w.Code)
	}
}

func TestFaceHandler_Recognize_Disabled(t *testing.T) {
	h := NewFaceHandler(&mockFaceService{err: service.ErrFaceRecognitionDisabled}, &mockEmployeeService{})

	w := serve("POST", "/face/recognize", "/face/recognize",
		jsonBody(dto.RecognizeRequest{FaceData: []float32{1, 0}}), false, h.Recognize)

	if resp := parseResponse(w); w.Code != http.StatusBadRequest || resp.Code != 13001 {
		t.Errorf("expected 400/13001, got %d/%d", w.Code, resp.Code)
	}
}

func TestFaceHandler_Check_RequiresAuth(t *testing.T) {
	mock := &mockFaceService{checkResult: &dto.FaceCheckResponse{Recognized: true}}
	h := NewFaceHandler(mock, &mockEmployeeService{})
	body := dto.FaceCheckRequest{FaceData: []float32{1, 0}}

	if w := serve("POST", "/face/check", "/face/check", jsonBody(body), false, h.Check); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if w := serve("POST", "/face/check", "/face/check", jsonBody(body), true, h.Check); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.callerID != "test-user-id" {
		t.Errorf("expected caller test-user-id, got %q", mock.callerID)
	}
}

// ═══════════════════════════════════════════════════════════
// AttendanceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAttendanceHandler_Check(t *testing.T) {
	mock := &mockAttendanceService{checkResult: &dto.AttendanceRecordResponse{ID: "rec-1", Type: "CHECK_IN"}}
	h := NewAttendanceHandler(mock)

	w := serve("POST", "/attendance", "/attendance", jsonBody(map[string]string{"employee_id": "EMP001"}), true, h.Check)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if mock.checkReq == nil || mock.checkReq.Type != "" {
		t.Error("type should be left for the ledger to infer")
	}
}

func TestAttendanceHandler_Check_InvalidType(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{})

	w := serve("POST", "/attendance", "/attendance",
		jsonBody(map[string]string{"employee_id": "EMP001", "type": "LUNCH"}), true, h.Check)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAttendanceHandler_Check_Errors(t *testing.T) {
	tests := []struct {
		err      error
		wantHTTP int
		wantCode int
	}{
		{service.ErrEmployeeNotFound, http.StatusNotFound, 12001},
		{service.ErrEmployeeInactive, http.StatusBadRequest, 14003},
		{service.ErrLedgerContention, http.StatusConflict, 14005},
		{service.ErrTimestampInFuture, http.StatusBadRequest, 14006},
		{service.ErrBackfillRequiresType, http.StatusBadRequest, 14007},
		{errors.New("db down"), http.StatusInternalServerError, 50000},
	}
	for _, tt := range tests {
		h := NewAttendanceHandler(&mockAttendanceService{checkErr: tt.err})
		w := serve("POST", "/attendance", "/attendance", jsonBody(map[string]string{"employee_id": "EMP001"}), true, h.Check)

		if resp := parseResponse(w); w.Code != tt.wantHTTP || resp.Code != tt.wantCode {
			t.Errorf("%v: expected %d/%d, got %d/%d", tt.err, tt.wantHTTP, tt.wantCode, w.Code, resp.Code)
		}
	}
}

func TestAttendanceHandler_Amend(t *testing.T) {
	mock := &mockAttendanceService{amendResult: &dto.AmendAttendanceResponse{
		Anomalies: []dto.LedgerAnomaly{{RecordID: "rec-2", Kind: "consecutive_check_in"}},
	}}
	h := NewAttendanceHandler(mock)

	w := serve("PUT", "/attendance/:id", "/attendance/rec-1", jsonBody(map[string]string{"type": "CHECK_IN"}), true, h.Amend)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	h = NewAttendanceHandler(&mockAttendanceService{amendErr: service.ErrRecordNotFound})
	w = serve("PUT", "/attendance/:id", "/attendance/missing", jsonBody(map[string]string{}), true, h.Amend)
	if resp := parseResponse(w); w.Code != http.StatusNotFound || resp.Code != 14001 {
		t.Errorf("expected 404/14001, got %d/%d", w.Code, resp.Code)
	}
}

func TestAttendanceHandler_List_InvalidRange(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{listErr: service.ErrInvalidTimeRange})

	w := serve("GET", "/attendance", "/attendance?start=2024-03-02&end=2024-03-01", nil, true, h.List)

	if resp := parseResponse(w); w.Code != http.StatusBadRequest || resp.Code != 14004 {
		t.Errorf("expected 400/14004, got %d/%d", w.Code, resp.Code)
	}
}

func TestAttendanceHandler_Status(t *testing.T) {
	mock := &mockAttendanceService{statusResult: &dto.AttendanceStatusResponse{EmployeeID: "EMP001", State: "AWAY", NextType: "CHECK_IN"}}
	h := NewAttendanceHandler(mock)

	w := serve("GET", "/attendance/status/:employeeId", "/attendance/status/EMP001", nil, true, h.Status)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ReportHandler Tests
// ═══════════════════════════════════════════════════════════

func newTestReportHandler(report *mockReportService, export *mockExportService, notify *mockNotificationService) *ReportHandler {
	return NewReportHandler(report, export, notify)
}

func TestReportHandler_Daily_InvalidDate(t *testing.T) {
	h := newTestReportHandler(&mockReportService{}, &mockExportService{}, &mockNotificationService{})

	w := serve("GET", "/reports/daily", "/reports/daily?date=2024/03/01", nil, true, h.Daily)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestReportHandler_Range_MissingBounds(t *testing.T) {
	h := newTestReportHandler(&mockReportService{}, &mockExportService{}, &mockNotificationService{})

	w := serve("GET", "/reports/range", "/reports/range?start=2024-03-01", nil, true, h.Range)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestReportHandler_Export(t *testing.T) {
	export := &mockExportService{buf: bytes.NewBufferString("xlsx"), filename: "考勤报表_2024-03-01_2024-03-31.xlsx"}
	h := newTestReportHandler(&mockReportService{}, export, &mockNotificationService{})

	w := serve("GET", "/reports/export", "/reports/export?start=2024-03-01&end=2024-03-31", nil, true, h.Export)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "filename*=UTF-8''") {
		t.Errorf("unexpected content disposition %q", cd)
	}
}

func TestReportHandler_SendDaily(t *testing.T) {
	notify := &mockNotificationService{result: &dto.SendReportResponse{Reason: service.ReasonMailNotConfigured}}
	h := newTestReportHandler(&mockReportService{}, &mockExportService{}, notify)

	w := serve("POST", "/reports/daily/send", "/reports/daily/send?date=2024-03-01", nil, true, h.SendDaily)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// SettingHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSettingHandler_Upsert(t *testing.T) {
	mock := &mockSettingService{}
	h := NewSettingHandler(mock)

	w := serve("PUT", "/settings/:name", "/settings/confidenceThreshold", strings.NewReader(`{"value": 80}`), true, h.UpsertSetting)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.upsertCaller != "test-user-id" {
		t.Errorf("expected caller test-user-id, got %q", mock.upsertCaller)
	}
}

func TestSettingHandler_Upsert_RejectsCompositeValue(t *testing.T) {
	h := NewSettingHandler(&mockSettingService{})

	for _, body := range []string{`{"value": null}`, `{"value": {"a": 1}}`, `{"value": [1]}`} {
		w := serve("PUT", "/settings/:name", "/settings/x", strings.NewReader(body), true, h.UpsertSetting)
		if resp := parseResponse(w); w.Code != http.StatusBadRequest || resp.Code != 17002 {
			t.Errorf("%s: expected 400/17002, got %d/%d", body, w.Code, resp.Code)
		}
	}
}

func TestSettingHandler_Get_NotFound(t *testing.T) {
	h := NewSettingHandler(&mockSettingService{getErr: service.ErrSettingNotFound})

	w := serve("GET", "/settings/:name", "/settings/missing", nil, true, h.GetSetting)

	if resp := parseResponse(w); w.Code != http.StatusNotFound || resp.Code != 17001 {
		t.Errorf("expected 404/17001, got %d/%d", w.Code, resp.Code)
	}
}

func TestSettingHandler_InitializeDefaults(t *testing.T) {
	h := NewSettingHandler(&mockSettingService{initResult: &dto.InitializeSettingsResponse{Inserted: 7, Total: 7}})

	w := serve("POST", "/settings/initialize", "/settings/initialize", nil, true, h.InitializeDefaults)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
