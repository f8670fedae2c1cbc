package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/music-school-api/internal/dto"
	"github.com/noah-isme/music-school-api/internal/middleware"
	"github.com/noah-isme/music-school-api/internal/models"
	appErrors "github.com/noah-isme/music-school-api/pkg/errors"
)

type availabilityServiceMock struct {
	week      models.WeekAvailability
	hit       bool
	addErr    error
	lastOwner string
}

func (m *availabilityServiceMock) Week(_ context.Context, ownerID string) (models.WeekAvailability, bool, error) {
	m.lastOwner = ownerID
	return m.week, m.hit, nil
}

func (m *availabilityServiceMock) AddSlot(_ context.Context, _ models.Actor, ownerID string, req dto.AddSlotRequest) (*models.AvailabilitySlot, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	return &models.AvailabilitySlot{ID: "s-1", OwnerUserID: ownerID, DayOfWeek: *req.DayOfWeek, StartTime: req.StartTime, EndTime: req.EndTime}, nil
}

func (m *availabilityServiceMock) UpdateSlot(_ context.Context, _ models.Actor, id string, req dto.UpdateSlotRequest) (*models.AvailabilitySlot, error) {
	return &models.AvailabilitySlot{ID: id, StartTime: req.StartTime, EndTime: req.EndTime}, nil
}

func (m *availabilityServiceMock) DeleteSlot(context.Context, models.Actor, string) error {
	return nil
}

func (m *availabilityServiceMock) CopyDay(_ context.Context, _ models.Actor, _ string, req dto.CopyDayRequest) (*dto.CopyDayResponse, error) {
	return &dto.CopyDayResponse{FromDay: *req.FromDay, ToDay: *req.ToDay, Copied: 2}, nil
}

type trialServiceMock struct {
	created bool
}

func (m *trialServiceMock) RecordTrial(_ context.Context, req dto.RecordTrialRequest) (*dto.RecordTrialResponse, error) {
	return &dto.RecordTrialResponse{StudentID: req.StudentID, CourseID: req.CourseID, Created: m.created}, nil
}

func (m *trialServiceMock) ListTrials(_ context.Context, studentID string) (*dto.StudentTrialsResponse, error) {
	return &dto.StudentTrialsResponse{StudentID: studentID, CourseIDs: []string{"c-1"}}, nil
}

type enrollmentServiceMock struct {
	begin       *dto.EnrollmentResult
	beginCalled bool
	lastToken   string
}

func (m *enrollmentServiceMock) Begin(context.Context, models.Actor, dto.BeginEnrollmentRequest) (*dto.EnrollmentResult, error) {
	m.beginCalled = true
	return m.begin, nil
}

func (m *enrollmentServiceMock) Continue(_ context.Context, _ models.Actor, token string, _ dto.ContinueEnrollmentRequest) (*dto.EnrollmentResult, error) {
	m.lastToken = token
	return &dto.EnrollmentResult{Status: dto.EnrollmentComplete, EventsCreated: 8}, nil
}

func (m *enrollmentServiceMock) AvailableSlots(context.Context, string, string) ([]dto.CatalogSlot, error) {
	return []dto.CatalogSlot{{DayOfWeek: 2, StartTime: "14:00", EndTime: "15:00"}}, nil
}

func (m *enrollmentServiceMock) ListSessions(_ context.Context, id string) (*dto.SessionListResponse, error) {
	if id == "missing" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return &dto.SessionListResponse{EnrollmentID: id}, nil
}

func (m *enrollmentServiceMock) ExportSessions(_ context.Context, _ string, format string) ([]byte, string, error) {
	if format != "csv" {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	return []byte("#,Date\n"), "text/csv", nil
}

type paymentServiceMock struct{}

func (paymentServiceMock) Generate(context.Context, models.Actor, dto.PaymentLinkRequest) (*dto.PaymentLinkResponse, error) {
	return nil, appErrors.ErrTrialRequired
}

type routerFixture struct {
	availability *availabilityServiceMock
	trials       *trialServiceMock
	enrollments  *enrollmentServiceMock
}

func newRouter(t *testing.T, claims *models.JWTClaims) (*gin.Engine, *routerFixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &routerFixture{
		availability: &availabilityServiceMock{},
		trials:       &trialServiceMock{},
		enrollments:  &enrollmentServiceMock{},
	}
	r := gin.New()
	RegisterRoutes(r, Handlers{
		Availability: NewAvailabilityHandler(f.availability),
		Trials:       NewTrialHandler(f.trials),
		Enrollments:  NewEnrollmentHandler(f.enrollments),
		Payments:     NewPaymentHandler(paymentServiceMock{}),
		System:       NewMetricsHandler(nil, map[string]Pinger{"db": PingFunc(func(context.Context) error { return nil })}),
	}, RouteOptions{
		Auth: func(c *gin.Context) {
			if claims != nil {
				c.Set(middleware.ContextUserKey, claims)
			}
			c.Next()
		},
	})
	return r, f
}

func do(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
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

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

var (
	adminClaims   = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	teacherClaims = &models.JWTClaims{UserID: "t-1", Role: models.RoleTeacher}
)

func TestAvailabilityRoutes(t *testing.T) {
	r, f := newRouter(t, teacherClaims)
	f.availability.hit = true

	w := do(r, http.MethodGet, "/api/v1/availability/t-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t-1", f.availability.lastOwner)
	assert.Equal(t, true, decode(t, w).Meta["cache_hit"])

	w = do(r, http.MethodPost, "/api/v1/availability/t-1", map[string]interface{}{"dayOfWeek": 2, "startTime": "14:00", "endTime": "15:00"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPost, "/api/v1/availability/t-1/copy", map[string]interface{}{"fromDay": 1, "toDay": 3})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodDelete, "/api/v1/availability/slots/s-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	f.availability.addErr = appErrors.ErrInvalidRange
	w = do(r, http.MethodPost, "/api/v1/availability/t-1", map[string]interface{}{"dayOfWeek": 2, "startTime": "15:00", "endTime": "14:00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrInvalidRange.Code, decode(t, w).Error.Code)
}

func TestAvailabilityWritesRequireIdentity(t *testing.T) {
	r, _ := newRouter(t, nil)

	w := do(r, http.MethodPost, "/api/v1/availability/t-1", map[string]interface{}{"dayOfWeek": 2, "startTime": "14:00", "endTime": "15:00"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEnrollmentBeginStatusCodes(t *testing.T) {
	r, f := newRouter(t, adminClaims)

	f.enrollments.begin = &dto.EnrollmentResult{Status: dto.EnrollmentNeedsSlotSelection, IntentToken: "tok-1"}
	w := do(r, http.MethodPost, "/api/v1/enrollments", map[string]string{"courseId": "c-1", "studentId": "st-1"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "/api/v1/enrollments/intents/tok-1", decode(t, w).Meta["next"])

	f.enrollments.begin = &dto.EnrollmentResult{Status: dto.EnrollmentComplete}
	w = do(r, http.MethodPost, "/api/v1/enrollments", map[string]string{"courseId": "c-1", "studentId": "st-1"})
	assert.Equal(t, http.StatusCreated, w.Code)

	f.enrollments.begin = &dto.EnrollmentResult{Status: dto.EnrollmentComplete, Warning: &dto.SchedulingWarning{Code: dto.SchedulingWarningCode, Retryable: true}}
	w = do(r, http.MethodPost, "/api/v1/enrollments", map[string]string{"courseId": "c-1", "studentId": "st-1"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, dto.SchedulingWarningCode, decode(t, w).Meta["warning"])

	w = do(r, http.MethodPost, "/api/v1/enrollments/intents/tok-1", map[string]interface{}{"slot": map[string]interface{}{"dayOfWeek": 2, "startTime": "14:00", "endTime": "15:00"}})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "tok-1", f.enrollments.lastToken)
}

func TestEnrollmentRoutesEnforceRoles(t *testing.T) {
	r, f := newRouter(t, teacherClaims)

	w := do(r, http.MethodPost, "/api/v1/enrollments", map[string]string{"courseId": "c-1", "studentId": "st-1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, f.enrollments.beginCalled)

	w = do(r, http.MethodGet, "/api/v1/enrollments/e-1/sessions", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/v1/enrollments/missing/sessions", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnrollmentExport(t *testing.T) {
	r, _ := newRouter(t, adminClaims)

	w := do(r, http.MethodGet, "/api/v1/enrollments/e-1/sessions/export?format=CSV", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable-e-1.csv")

	w = do(r, http.MethodGet, "/api/v1/enrollments/e-1/sessions/export?format=xlsx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrialRoutes(t *testing.T) {
	r, f := newRouter(t, teacherClaims)

	f.trials.created = true
	w := do(r, http.MethodPost, "/api/v1/trials", map[string]string{"studentId": "st-1", "courseId": "c-1"})
	assert.Equal(t, http.StatusCreated, w.Code)

	f.trials.created = false
	w = do(r, http.MethodPost, "/api/v1/trials", map[string]string{"studentId": "st-1", "courseId": "c-1"})
	assert.Equal(t, http.StatusOK, w.Code)

	student, _ := newRouter(t, &models.JWTClaims{UserID: "st-1", Role: models.RoleStudent})
	assert.Equal(t, http.StatusOK, do(student, http.MethodGet, "/api/v1/students/st-1/trials", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(student, http.MethodGet, "/api/v1/students/st-2/trials", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(student, http.MethodPost, "/api/v1/trials", map[string]string{"studentId": "st-1", "courseId": "c-1"}).Code)
}

func TestPaymentLinkTrialRequired(t *testing.T) {
	r, _ := newRouter(t, adminClaims)

	w := do(r, http.MethodPost, "/api/v1/payment-links", map[string]string{"studentId": "st-1", "courseId": "c-1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	env := decode(t, w)
	assert.Equal(t, appErrors.ErrTrialRequired.Code, env.Error.Code)
	assert.False(t, env.Error.Retryable)
}

func TestCourseSlotsAndProbes(t *testing.T) {
	r, _ := newRouter(t, teacherClaims)

	w := do(r, http.MethodGet, "/api/v1/courses/c-1/slots", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w).Meta["total"])

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ready", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/metrics", nil).Code)
}
