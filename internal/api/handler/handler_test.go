package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/moimene/time-control-hub-sub002/internal/dto"
	"github.com/moimene/time-control-hub-sub002/internal/service"
	pkgerrors "github.com/moimene/time-control-hub-sub002/pkg/errors"
	"github.com/moimene/time-control-hub-sub002/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testCompanyUUID = "11111111-1111-1111-1111-111111111111"

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ComplianceService ──

type mockComplianceService struct {
	evalResult *dto.EvaluateComplianceResponse
	evalErr    error
	gotReq     *dto.EvaluateComplianceRequest
}

func (m *mockComplianceService) Evaluate(_ context.Context, req *dto.EvaluateComplianceRequest) (*dto.EvaluateComplianceResponse, error) {
	m.gotReq = req
	return m.evalResult, m.evalErr
}

// ── Mock NotificationService ──

type mockNotificationService struct {
	dispatchResult *dto.DispatchResponse
	dispatchErr    error
	listResult     []dto.NotificationResponse
	listTotal      int64
	listErr        error
}

func (m *mockNotificationService) Dispatch(_ context.Context) (*dto.DispatchResponse, error) {
	return m.dispatchResult, m.dispatchErr
}
func (m *mockNotificationService) List(_ context.Context, _ string, _, _ int) ([]dto.NotificationResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}

// ── Mock ViolationService ──

type mockViolationService struct {
	listResult   []dto.ViolationResponse
	listTotal    int64
	listErr      error
	updateResult *dto.ViolationResponse
	updateErr    error
}

func (m *mockViolationService) List(_ context.Context, _ string, _ *dto.ListViolationsQuery) ([]dto.ViolationResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockViolationService) UpdateStatus(_ context.Context, _, _, _ string) (*dto.ViolationResponse, error) {
	return m.updateResult, m.updateErr
}

// ── Mock IncidentService ──

type mockIncidentService struct {
	listResult   []dto.IncidentResponse
	listTotal    int64
	listErr      error
	updateResult *dto.IncidentResponse
	updateErr    error
}

func (m *mockIncidentService) List(_ context.Context, _, _ string, _, _ int) ([]dto.IncidentResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockIncidentService) UpdateStatus(_ context.Context, _, _, _ string) (*dto.IncidentResponse, error) {
	return m.updateResult, m.updateErr
}

// ── Mock TimeEventService ──

type mockTimeEventService struct {
	clockResult *dto.ClockResponse
	clockErr    error
}

func (m *mockTimeEventService) Clock(_ context.Context, _ *dto.ClockRequest) (*dto.ClockResponse, error) {
	return m.clockResult, m.clockErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportViolations(_ context.Context, _, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setupRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("role", "admin")
	c.Set("company_id", testCompanyUUID)
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

// ═══════════════════════════════════════════════════════════
// ComplianceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestComplianceHandler_Evaluate_Success(t *testing.T) {
	mock := &mockComplianceService{
		evalResult: &dto.EvaluateComplianceResponse{
			Success:            true,
			Date:               "2025-03-10",
			EmployeesEvaluated: 3,
			ViolationsFound:    1,
		},
	}
	h := NewComplianceHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/compliance/evaluate", jsonBody(dto.EvaluateComplianceRequest{
		CompanyID: testCompanyUUID,
		Date:      "2025-03-10",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/compliance/evaluate", func(c *gin.Context) {
		setAuth(c)
		h.Evaluate(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestComplianceHandler_Evaluate_BadJSON(t *testing.T) {
	mock := &mockComplianceService{}
	h := NewComplianceHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/compliance/evaluate", bytes.NewReader([]byte("bad")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/compliance/evaluate", func(c *gin.Context) {
		setAuth(c)
		h.Evaluate(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestComplianceHandler_Evaluate_CompanyMismatch(t *testing.T) {
	mock := &mockComplianceService{}
	h := NewComplianceHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/compliance/evaluate", jsonBody(dto.EvaluateComplianceRequest{
		CompanyID: "99999999-9999-9999-9999-999999999999",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/compliance/evaluate", func(c *gin.Context) {
		setAuth(c) // 令牌归属 testCompanyUUID
		h.Evaluate(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	if mock.gotReq != nil {
		t.Error("跨公司请求不应到达业务层")
	}
}

func TestComplianceHandler_Evaluate_RunLockHeld(t *testing.T) {
	mock := &mockComplianceService{evalErr: pkgerrors.ErrRunLockHeld}
	h := NewComplianceHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/compliance/evaluate", jsonBody(dto.EvaluateComplianceRequest{
		CompanyID: testCompanyUUID,
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/compliance/evaluate", func(c *gin.Context) {
		setAuth(c)
		h.Evaluate(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 20002 {
		t.Errorf("expected error code 20002, got %d", resp.Code)
	}
}

func TestComplianceHandler_Evaluate_EmployeeNotFound(t *testing.T) {
	mock := &mockComplianceService{evalErr: service.ErrEvalEmployeeNotFound}
	h := NewComplianceHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/compliance/evaluate", jsonBody(dto.EvaluateComplianceRequest{
		CompanyID:  testCompanyUUID,
		EmployeeID: "22222222-2222-2222-2222-222222222222",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/compliance/evaluate", func(c *gin.Context) {
		setAuth(c)
		h.Evaluate(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 20001 {
		t.Errorf("expected error code 20001, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// NotificationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestNotificationHandler_Dispatch_Success(t *testing.T) {
	mock := &mockNotificationService{
		dispatchResult: &dto.DispatchResponse{
			Success:   true,
			Timestamp: "2025-03-10T12:00:00Z",
			Results:   dto.DispatchResults{Processed: 2, Sent: 2},
		},
	}
	h := NewNotificationHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/notifications/dispatch", nil)

	r := gin.New()
	r.POST("/notifications/dispatch", func(c *gin.Context) {
		setAuth(c)
		h.Dispatch(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestNotificationHandler_Dispatch_InternalError(t *testing.T) {
	mock := &mockNotificationService{dispatchErr: errors.New("db down")}
	h := NewNotificationHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/notifications/dispatch", nil)

	r := gin.New()
	r.POST("/notifications/dispatch", func(c *gin.Context) {
		setAuth(c)
		h.Dispatch(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestNotificationHandler_List_Success(t *testing.T) {
	mock := &mockNotificationService{
		listResult: []dto.NotificationResponse{{ID: "ntf-1"}},
		listTotal:  1,
	}
	h := NewNotificationHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/notifications?page=1&page_size=20", nil)

	r := gin.New()
	r.GET("/notifications", func(c *gin.Context) {
		setAuth(c)
		h.List(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ViolationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestViolationHandler_List_Success(t *testing.T) {
	mock := &mockViolationService{
		listResult: []dto.ViolationResponse{{ID: "vio-1", RuleCode: "MAX_DAILY_HOURS"}},
		listTotal:  1,
	}
	h := NewViolationHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/violations?status=open", nil)

	r := gin.New()
	r.GET("/violations", func(c *gin.Context) {
		setAuth(c)
		h.List(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestViolationHandler_List_MissingCompany(t *testing.T) {
	mock := &mockViolationService{}
	h := NewViolationHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/violations", nil)

	r := gin.New()
	// 平台级令牌（无 company_id）且未显式指定公司
	r.GET("/violations", h.List)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestViolationHandler_UpdateStatus_Success(t *testing.T) {
	mock := &mockViolationService{
		updateResult: &dto.ViolationResponse{ID: "vio-1", Status: "acknowledged"},
	}
	h := NewViolationHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("PATCH", "/violations/vio-1/status", jsonBody(dto.UpdateViolationStatusRequest{
		Status: "acknowledged",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PATCH("/violations/:id/status", func(c *gin.Context) {
		setAuth(c)
		h.UpdateStatus(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestViolationHandler_UpdateStatus_InvalidStatus(t *testing.T) {
	mock := &mockViolationService{}
	h := NewViolationHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("PATCH", "/violations/vio-1/status", jsonBody(map[string]string{
		"status": "whatever",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PATCH("/violations/:id/status", func(c *gin.Context) {
		setAuth(c)
		h.UpdateStatus(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestViolationHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrViolationNotFound, 404, 21001},
		{"StatusFinal", service.ErrViolationStatusFinal, 400, 21002},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockViolationService{updateErr: tt.err}
			h := NewViolationHandler(mock)

			w := setupRecorder()
			req := httptest.NewRequest("PATCH", "/violations/vio-1/status", jsonBody(dto.UpdateViolationStatusRequest{
				Status: "resolved",
			}))
			req.Header.Set("Content-Type", "application/json")

			r := gin.New()
			r.PATCH("/violations/:id/status", func(c *gin.Context) {
				setAuth(c)
				h.UpdateStatus(c)
			})
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// IncidentHandler Tests
// ═══════════════════════════════════════════════════════════

func TestIncidentHandler_UpdateStatus_Success(t *testing.T) {
	mock := &mockIncidentService{
		updateResult: &dto.IncidentResponse{ID: "inc-1", Status: "resolved"},
	}
	h := NewIncidentHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("PATCH", "/incidents/inc-1/status", jsonBody(dto.UpdateIncidentStatusRequest{
		Status: "resolved",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PATCH("/incidents/:id/status", func(c *gin.Context) {
		setAuth(c)
		h.UpdateStatus(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestIncidentHandler_UpdateStatus_Final(t *testing.T) {
	mock := &mockIncidentService{updateErr: service.ErrIncidentStatusFinal}
	h := NewIncidentHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("PATCH", "/incidents/inc-1/status", jsonBody(dto.UpdateIncidentStatusRequest{
		Status: "closed",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PATCH("/incidents/:id/status", func(c *gin.Context) {
		setAuth(c)
		h.UpdateStatus(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 23002 {
		t.Errorf("expected error code 23002, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// TimeEventHandler Tests
// ═══════════════════════════════════════════════════════════

func TestTimeEventHandler_Clock_Success(t *testing.T) {
	mock := &mockTimeEventService{
		clockResult: &dto.ClockResponse{
			EmployeeName: "Ana García",
			EventType:    "entry",
		},
	}
	h := NewTimeEventHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/clock", jsonBody(dto.ClockRequest{
		CompanyID:    testCompanyUUID,
		EmployeeCode: "EMP001",
		Pin:          "1234",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/clock", h.Clock)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestTimeEventHandler_Clock_InvalidPinFormat(t *testing.T) {
	mock := &mockTimeEventService{}
	h := NewTimeEventHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/clock", jsonBody(dto.ClockRequest{
		CompanyID:    testCompanyUUID,
		EmployeeCode: "EMP001",
		Pin:          "12ab",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/clock", h.Clock)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestTimeEventHandler_Clock_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"UnknownEmployee", service.ErrClockEmployeeNotFound, 401, 25001},
		{"WrongPin", service.ErrInvalidPin, 401, 25001},
		{"Inactive", service.ErrClockEmployeeInactive, 403, 25002},
		{"NoPinConfigured", service.ErrClockDisabled, 403, 25003},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockTimeEventService{clockErr: tt.err}
			h := NewTimeEventHandler(mock)

			w := setupRecorder()
			req := httptest.NewRequest("POST", "/clock", jsonBody(dto.ClockRequest{
				CompanyID:    testCompanyUUID,
				EmployeeCode: "EMP001",
				Pin:          "1234",
			}))
			req.Header.Set("Content-Type", "application/json")

			r := gin.New()
			r.POST("/clock", h.Clock)
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Success(t *testing.T) {
	buf := bytes.NewBufferString("excel content")
	mock := &mockExportService{
		buf:      buf,
		filename: "违规记录_20250310.xlsx",
	}
	h := NewExportHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/export/violations?status=open", nil)

	r := gin.New()
	r.GET("/export/violations", func(c *gin.Context) {
		setAuth(c)
		h.ExportViolations(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	ct := w.Header().Get("Content-Type")
	if ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type: %s", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if cd == "" {
		t.Error("expected Content-Disposition header")
	}
}

func TestExportHandler_NoViolations(t *testing.T) {
	mock := &mockExportService{err: service.ErrExportNoViolations}
	h := NewExportHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/export/violations", nil)

	r := gin.New()
	r.GET("/export/violations", func(c *gin.Context) {
		setAuth(c)
		h.ExportViolations(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 24001 {
		t.Errorf("expected error code 24001, got %d", resp.Code)
	}
}
