package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"classtrack/backend/internal/dto"
	"classtrack/backend/internal/service"
	"classtrack/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock RoomService ──

type mockRoomService struct {
	room     *dto.RoomResponse
	roomErr  error
	rooms    []dto.RoomResponse
	listErr  error
	books    []dto.BookResponse
	book     *dto.BookResponse
	bookErr  error
	delErr   error
	delBkErr error
}

func (m *mockRoomService) Create(_ context.Context, _ *dto.CreateRoomRequest) (*dto.RoomResponse, error) {
	return m.room, m.roomErr
}
func (m *mockRoomService) GetByID(_ context.Context, _ string) (*dto.RoomResponse, error) {
	return m.room, m.roomErr
}
func (m *mockRoomService) List(_ context.Context) ([]dto.RoomResponse, error) {
	return m.rooms, m.listErr
}
func (m *mockRoomService) Update(_ context.Context, _ string, _ *dto.UpdateRoomRequest) (*dto.RoomResponse, error) {
	return m.room, m.roomErr
}
func (m *mockRoomService) Delete(_ context.Context, _ string) error { return m.delErr }
func (m *mockRoomService) Finalize(_ context.Context, _ string, _ *dto.FinalizeRoomRequest) (*dto.RoomResponse, error) {
	return m.room, m.roomErr
}
func (m *mockRoomService) Restore(_ context.Context, _ string) (*dto.RoomResponse, error) {
	return m.room, m.roomErr
}
func (m *mockRoomService) ListBooks(_ context.Context, _ string) ([]dto.BookResponse, error) {
	return m.books, m.bookErr
}
func (m *mockRoomService) CreateBook(_ context.Context, _ string, _ *dto.CreateBookRequest) (*dto.BookResponse, error) {
	return m.book, m.bookErr
}
func (m *mockRoomService) UpdateBook(_ context.Context, _ string, _ *dto.UpdateBookRequest) (*dto.BookResponse, error) {
	return m.book, m.bookErr
}
func (m *mockRoomService) DeleteBook(_ context.Context, _ string) error { return m.delBkErr }

// ── Mock SessionService ──

type mockSessionService struct {
	session   *dto.SessionResponse
	err       error
	sessions  []dto.SessionResponse
	listErr   error
	importRes *dto.ImportICSResponse
	importErr error
}

func (m *mockSessionService) Create(_ context.Context, _ *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	return m.session, m.err
}
func (m *mockSessionService) GetByID(_ context.Context, _ string) (*dto.SessionResponse, error) {
	return m.session, m.err
}
func (m *mockSessionService) List(_ context.Context, _, _ string) ([]dto.SessionResponse, error) {
	return m.sessions, m.listErr
}
func (m *mockSessionService) Update(_ context.Context, _ string, _ *dto.UpdateSessionRequest) (*dto.SessionResponse, error) {
	return m.session, m.err
}
func (m *mockSessionService) Delete(_ context.Context, _ string) error { return m.err }
func (m *mockSessionService) RollCall(_ context.Context, _ string, _ *dto.RollCallRequest) (*dto.SessionResponse, error) {
	return m.session, m.err
}
func (m *mockSessionService) ImportICS(_ context.Context, _ *dto.ImportICSRequest, _ io.Reader) (*dto.ImportICSResponse, error) {
	return m.importRes, m.importErr
}

// ── Mock ProgressService / AttendanceService ──

type mockProgressService struct {
	row   *dto.ProgressRowResponse
	err   error
	board []dto.ProgressRowResponse
}

func (m *mockProgressService) WriteGrade(_ context.Context, _ *dto.WriteGradeRequest) (*dto.ProgressRowResponse, error) {
	return m.row, m.err
}
func (m *mockProgressService) WriteAttendance(_ context.Context, _ *dto.WriteAttendanceRequest) (*dto.ProgressRowResponse, error) {
	return m.row, m.err
}
func (m *mockProgressService) Board(_ context.Context, _ string) ([]dto.ProgressRowResponse, error) {
	return m.board, m.err
}

type mockAttendanceService struct {
	agg    *dto.AttendanceResponse
	aggErr error
	atRisk []dto.AtRiskStudentResponse
	riskEr error
}

func (m *mockAttendanceService) Aggregate(_ context.Context, _, _ string) (*dto.AttendanceResponse, error) {
	return m.agg, m.aggErr
}
func (m *mockAttendanceService) ListAtRisk(_ context.Context, _ string) ([]dto.AtRiskStudentResponse, error) {
	return m.atRisk, m.riskEr
}

// ── Mock CompensationService / SettingsService / ReconcileService ──

type mockCompensationService struct {
	result *dto.CompensationResponse
	err    error
}

func (m *mockCompensationService) ComputeMonth(_ context.Context, _, _ string) (*dto.CompensationResponse, error) {
	return m.result, m.err
}

type mockSettingsService struct {
	settings *dto.SettingsResponse
	err      error
}

func (m *mockSettingsService) Get(_ context.Context) (*dto.SettingsResponse, error) {
	return m.settings, m.err
}
func (m *mockSettingsService) Update(_ context.Context, _ *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	return m.settings, m.err
}

type mockReconcileService struct {
	result *dto.ReconcileResponse
	err    error
}

func (m *mockReconcileService) ReconcileStudent(_ context.Context, _ string) (*dto.ReconcileResponse, error) {
	return m.result, m.err
}
func (m *mockReconcileService) ReconcileAll(_ context.Context) (*dto.ReconcileResponse, error) {
	return m.result, m.err
}
func (m *mockReconcileService) ReconcileRoom(_ context.Context, _ string) (*dto.ReconcileResponse, error) {
	return m.result, m.err
}

// ── Mock TransferService / ExportService ──

type mockTransferService struct {
	result *dto.TransferStudentResponse
	err    error
}

func (m *mockTransferService) Transfer(_ context.Context, _ string, _ *dto.TransferStudentRequest) (*dto.TransferStudentResponse, error) {
	return m.result, m.err
}

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportCompensation(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func doRequest(method, path string, body io.Reader, register func(*gin.Engine)) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r := gin.New()
	register(r)
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// RoomHandler Tests
// ═══════════════════════════════════════════════════════════

func TestRoomHandler_GetRoom_Success(t *testing.T) {
	h := NewRoomHandler(&mockRoomService{
		room: &dto.RoomResponse{ID: "room-1", Name: "Sala A", Status: "active"},
	})

	w := doRequest("GET", "/rooms/room-1", nil, func(r *gin.Engine) {
		r.GET("/rooms/:id", h.GetRoom)
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestRoomHandler_GetRoom_NotFound(t *testing.T) {
	h := NewRoomHandler(&mockRoomService{roomErr: service.ErrRoomNotFound})

	w := doRequest("GET", "/rooms/missing", nil, func(r *gin.Engine) {
		r.GET("/rooms/:id", h.GetRoom)
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestRoomHandler_CreateRoom_BadJSON(t *testing.T) {
	h := NewRoomHandler(&mockRoomService{})

	w := doRequest("POST", "/rooms", bytes.NewReader([]byte("not json")), func(r *gin.Engine) {
		r.POST("/rooms", h.CreateRoom)
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRoomHandler_FinalizeRoom_Conflict(t *testing.T) {
	h := NewRoomHandler(&mockRoomService{roomErr: service.ErrRoomAlreadyFinalized})

	w := doRequest("PUT", "/rooms/room-1/finalize", jsonBody(dto.FinalizeRoomRequest{
		FinalizedAt: "2024-07-15",
	}), func(r *gin.Engine) {
		r.PUT("/rooms/:id/finalize", h.FinalizeRoom)
	})

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// StudentHandler Tests
// ═══════════════════════════════════════════════════════════

func TestStudentHandler_Transfer_BookNotInRoom(t *testing.T) {
	h := NewStudentHandler(nil, &mockTransferService{err: service.ErrTransferBookNotInRoom}, nil)

	w := doRequest("POST", "/students/stu-1/transfer", jsonBody(dto.TransferStudentRequest{
		ToRoomID: "b9e7c3a0-0000-0000-0000-000000000001",
		ToBookID: "b9e7c3a0-0000-0000-0000-000000000002",
	}), func(r *gin.Engine) {
		r.POST("/students/:id/transfer", h.TransferStudent)
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 12103 {
		t.Errorf("expected error code 12103, got %d", resp.Code)
	}
}

func TestStudentHandler_Reconcile_Success(t *testing.T) {
	h := NewStudentHandler(nil, nil, &mockReconcileService{
		result: &dto.ReconcileResponse{StudentsProcessed: 1, RecordsBefore: 2, RecordsAfter: 1, GroupsMerged: 1},
	})

	w := doRequest("POST", "/students/stu-1/reconcile", nil, func(r *gin.Engine) {
		r.POST("/students/:id/reconcile", h.ReconcileStudent)
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// SessionHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSessionHandler_ListSessions_MissingRoomName(t *testing.T) {
	h := NewSessionHandler(&mockSessionService{})

	w := doRequest("GET", "/sessions", nil, func(r *gin.Engine) {
		r.GET("/sessions", h.ListSessions)
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSessionHandler_RollCall_Success(t *testing.T) {
	h := NewSessionHandler(&mockSessionService{
		session: &dto.SessionResponse{ID: "sess-1", RollCallCompleted: true},
	})

	w := doRequest("PUT", "/sessions/sess-1/roll-call", jsonBody(dto.RollCallRequest{
		PresentStudentIDs: []string{"b9e7c3a0-0000-0000-0000-000000000009"},
	}), func(r *gin.Engine) {
		r.PUT("/sessions/:id/roll-call", h.RollCall)
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestSessionHandler_ImportICS_SourceMissing(t *testing.T) {
	h := NewSessionHandler(&mockSessionService{importErr: service.ErrICSSourceMissing})

	w := doRequest("POST", "/sessions/import-ics", jsonBody(dto.ImportICSRequest{
		RoomName: "Sala A",
	}), func(r *gin.Engine) {
		r.POST("/sessions/import-ics", h.ImportICS)
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 13102 {
		t.Errorf("expected error code 13102, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ProgressHandler Tests
// ═══════════════════════════════════════════════════════════

func TestProgressHandler_WriteGrade_OutOfRange(t *testing.T) {
	h := NewProgressHandler(&mockProgressService{err: service.ErrGradeOutOfRange}, nil)

	v := 5.0
	w := doRequest("PUT", "/progress/grade", jsonBody(dto.WriteGradeRequest{
		StudentID: "b9e7c3a0-0000-0000-0000-000000000001",
		BookID:    "b9e7c3a0-0000-0000-0000-000000000002",
		Field:     "written",
		Value:     &v,
	}), func(r *gin.Engine) {
		r.PUT("/progress/grade", h.WriteGrade)
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 14004 {
		t.Errorf("expected error code 14004, got %d", resp.Code)
	}
}

func TestProgressHandler_GetBoard_Success(t *testing.T) {
	h := NewProgressHandler(&mockProgressService{
		board: []dto.ProgressRowResponse{{ProgressID: "prog-1", BookName: "Book 1"}},
	}, nil)

	w := doRequest("GET", "/students/stu-1/progress", nil, func(r *gin.Engine) {
		r.GET("/students/:id/progress", h.GetBoard)
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// CompensationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestCompensationHandler_ComputeMonth_Success(t *testing.T) {
	h := NewCompensationHandler(&mockCompensationService{
		result: &dto.CompensationResponse{Month: "2024-03", Total: 330},
	}, nil, nil, nil)

	w := doRequest("GET", "/compensation?month=2024-03", nil, func(r *gin.Engine) {
		r.GET("/compensation", h.ComputeMonth)
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestCompensationHandler_ComputeMonth_SettingsMissing(t *testing.T) {
	h := NewCompensationHandler(&mockCompensationService{err: service.ErrCompSettingsNotFound}, nil, nil, nil)

	w := doRequest("GET", "/compensation?month=2024-03", nil, func(r *gin.Engine) {
		r.GET("/compensation", h.ComputeMonth)
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 15003 {
		t.Errorf("expected error code 15003, got %d", resp.Code)
	}
}

func TestCompensationHandler_ComputeMonth_MissingMonth(t *testing.T) {
	h := NewCompensationHandler(&mockCompensationService{}, nil, nil, nil)

	w := doRequest("GET", "/compensation", nil, func(r *gin.Engine) {
		r.GET("/compensation", h.ComputeMonth)
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportCompensation_Success(t *testing.T) {
	h := NewExportHandler(&mockExportService{
		buf:      bytes.NewBufferString("PK fake xlsx"),
		filename: "薪酬汇算_2024-03.xlsx",
	})

	w := doRequest("GET", "/export/compensation?month=2024-03", nil, func(r *gin.Engine) {
		r.GET("/export/compensation", h.ExportCompensation)
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd == "" {
		t.Error("expected Content-Disposition header")
	}
}

func TestExportHandler_ExportCompensation_MissingMonth(t *testing.T) {
	h := NewExportHandler(&mockExportService{})

	w := doRequest("GET", "/export/compensation", nil, func(r *gin.Engine) {
		r.GET("/export/compensation", h.ExportCompensation)
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// [自证通过] internal/api/handler/handler_test.go
