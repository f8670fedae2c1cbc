package service

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/music-school-api/internal/dto"
	"github.com/noah-isme/music-school-api/internal/models"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

// expectLockedTx queues one transaction that takes the enrollment advisory lock.
func expectLockedTx(mock sqlmock.Sqlmock, commit bool) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock")).WillReturnResult(sqlmock.NewResult(0, 0))
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

type availabilityRepoStub struct {
	mu    sync.Mutex
	slots map[string]models.AvailabilitySlot
	seq   int
}

func newAvailabilityRepoStub(slots ...models.AvailabilitySlot) *availabilityRepoStub {
	repo := &availabilityRepoStub{slots: map[string]models.AvailabilitySlot{}}
	for _, s := range slots {
		repo.slots[s.ID] = s
	}
	return repo
}

func (r *availabilityRepoStub) ListByOwner(_ context.Context, ownerID string) ([]models.AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.AvailabilitySlot{}
	for _, s := range r.slots {
		if s.OwnerUserID == ownerID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *availabilityRepoStub) ListByOwnerDay(ctx context.Context, _ sqlx.ExtContext, ownerID string, day int) ([]models.AvailabilitySlot, error) {
	all, _ := r.ListByOwner(ctx, ownerID)
	out := []models.AvailabilitySlot{}
	for _, s := range all {
		if s.DayOfWeek == day {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *availabilityRepoStub) FindByID(_ context.Context, id string) (*models.AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (r *availabilityRepoStub) Create(_ context.Context, _ sqlx.ExtContext, slot *models.AvailabilitySlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	slot.ID = fmt.Sprintf("new-%d", r.seq)
	r.slots[slot.ID] = *slot
	return nil
}

func (r *availabilityRepoStub) Update(_ context.Context, slot *models.AvailabilitySlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[slot.ID]; !ok {
		return sql.ErrNoRows
	}
	r.slots[slot.ID] = *slot
	return nil
}

func (r *availabilityRepoStub) Delete(_ context.Context, _ sqlx.ExtContext, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[id]; !ok {
		return false, nil
	}
	delete(r.slots, id)
	return true, nil
}

func (r *availabilityRepoStub) DeleteDay(_ context.Context, _ sqlx.ExtContext, ownerID string, day int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.slots {
		if s.OwnerUserID == ownerID && s.DayOfWeek == day {
			delete(r.slots, id)
			n++
		}
	}
	return n, nil
}

type courseRepoStub struct {
	courses     map[string]models.Course
	classTypes  map[string]models.ClassType
	classErr    error
	lookupCalls int
}

func newCourseRepoStub(courses ...models.Course) *courseRepoStub {
	repo := &courseRepoStub{courses: map[string]models.Course{}, classTypes: map[string]models.ClassType{}}
	for _, c := range courses {
		repo.courses[c.ID] = c
	}
	return repo
}

func (r *courseRepoStub) FindByID(_ context.Context, id string) (*models.Course, error) {
	r.lookupCalls++
	c, ok := r.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (r *courseRepoStub) FindClassType(_ context.Context, id string) (*models.ClassType, error) {
	if r.classErr != nil {
		return nil, r.classErr
	}
	ct, ok := r.classTypes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &ct, nil
}

type trialRepoStub struct {
	mu        sync.Mutex
	students  map[string]*models.Student
	bookings  []models.TrialBooking
	appendErr error
	appends   int
}

func newTrialRepoStub(students ...models.Student) *trialRepoStub {
	repo := &trialRepoStub{students: map[string]*models.Student{}}
	for i := range students {
		s := students[i]
		repo.students[s.ID] = &s
	}
	return repo
}

func (r *trialRepoStub) FindStudent(_ context.Context, _ sqlx.ExtContext, id string) (*models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	copied.TrialClasses = append([]string(nil), s.TrialClasses...)
	return &copied, nil
}

func (r *trialRepoStub) HasBooking(_ context.Context, studentID, courseID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.StudentID == studentID && b.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (r *trialRepoStub) AppendTrialCourse(_ context.Context, _ sqlx.ExtContext, studentID, courseID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return false, r.appendErr
	}
	s, ok := r.students[studentID]
	if !ok || s.HasTrial(courseID) {
		return false, nil
	}
	s.TrialClasses = append(s.TrialClasses, courseID)
	r.appends++
	return true, nil
}

func (r *trialRepoStub) CreateBooking(_ context.Context, _ sqlx.ExtContext, booking *models.TrialBooking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking.ID = fmt.Sprintf("booking-%d", len(r.bookings)+1)
	r.bookings = append(r.bookings, *booking)
	return nil
}

type enrollmentRepoStub struct {
	mu   sync.Mutex
	rows map[string]models.Enrollment
}

func newEnrollmentRepoStub() *enrollmentRepoStub {
	return &enrollmentRepoStub{rows: map[string]models.Enrollment{}}
}

func (r *enrollmentRepoStub) Upsert(_ context.Context, _ sqlx.ExtContext, e *models.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := e.CourseID + "|" + e.StudentID
	if existing, ok := r.rows[key]; ok {
		e.ID = existing.ID
	} else {
		e.ID = fmt.Sprintf("enr-%d", len(r.rows)+1)
	}
	r.rows[key] = *e
	return nil
}

func (r *enrollmentRepoStub) FindByCourseStudent(_ context.Context, _ sqlx.ExtContext, courseID, studentID string) (*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[courseID+"|"+studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &e, nil
}

func (r *enrollmentRepoStub) FindByID(_ context.Context, id string) (*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.rows {
		if e.ID == id {
			copied := e
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

type eventStoreStub struct {
	mu        sync.Mutex
	events    []models.CalendarEvent
	insertErr error
}

func (s *eventStoreStub) DeleteByTriple(_ context.Context, _ sqlx.ExtContext, courseID, studentID string, teacherID *string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.events[:0]
	var removed int64
	for _, e := range s.events {
		if e.CourseID == courseID && e.StudentID == studentID && sameOptional(e.TeacherID, teacherID) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return removed, nil
}

func (s *eventStoreStub) InsertBatch(_ context.Context, _ sqlx.ExtContext, events []models.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.events = append(s.events, events...)
	return nil
}

func (s *eventStoreStub) ListByEnrollment(_ context.Context, courseID, studentID string) ([]models.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.CalendarEvent{}
	for _, e := range s.events {
		if e.CourseID == courseID && e.StudentID == studentID && e.Audience == models.AudienceStudent {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionNumber < out[j].SessionNumber })
	return out, nil
}

func (s *eventStoreStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type notifierStub struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (n *notifierStub) Notify(_ context.Context, outcome Outcome) {
	n.mu.Lock()
	n.outcomes = append(n.outcomes, outcome)
	n.mu.Unlock()
}

func (n *notifierStub) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.outcomes))
	for _, o := range n.outcomes {
		out = append(out, o.Kind)
	}
	return out
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

var adminActor = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}

type intentStoreStub struct {
	mu    sync.Mutex
	items map[string]dto.EnrollmentIntent
	saves int
}

func newIntentStoreStub() *intentStoreStub {
	return &intentStoreStub{items: map[string]dto.EnrollmentIntent{}}
}

func (s *intentStoreStub) Save(_ context.Context, intent dto.EnrollmentIntent, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.items[intent.Token] = intent
	return nil
}

func (s *intentStoreStub) Take(_ context.Context, token string) (*dto.EnrollmentIntent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.items[token]
	if !ok {
		return nil, false, nil
	}
	delete(s.items, token)
	return &intent, true, nil
}
