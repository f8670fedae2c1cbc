package service

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/music-school-api/internal/models"
	"github.com/noah-isme/music-school-api/pkg/config"
	appErrors "github.com/noah-isme/music-school-api/pkg/errors"
)

func newCatalogFixture(mode string, slots ...models.AvailabilitySlot) *SlotCatalogService {
	availability := NewAvailabilityService(newAvailabilityRepoStub(slots...), nil, nil, 0, nil, nil)
	return NewSlotCatalogService(availability, mode, nil)
}

func recurringCourse(id string, kind models.CourseType, instructors ...string) *models.Course {
	return &models.Course{ID: id, Title: "Piano", CourseType: kind, DurationType: models.DurationRecurring, InstructorIDs: pq.StringArray(instructors)}
}

func TestSlotCatalogOneTimeCourseHasNoSlots(t *testing.T) {
	svc := newCatalogFixture(config.IntersectionExact, slot("s-1", "t-1", 2, "14:00", "15:00"))
	course := &models.Course{ID: "c-1", CourseType: models.CourseTypeSolo, DurationType: models.DurationOneTime, InstructorIDs: pq.StringArray{"t-1"}}

	slots, err := svc.SlotsForCourse(context.Background(), course, "")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlotCatalogSoloUsesTeacherWeek(t *testing.T) {
	svc := newCatalogFixture(config.IntersectionExact,
		slot("s-2", "t-1", 4, "10:00", "11:00"),
		slot("s-1", "t-1", 2, "14:00", "15:00"),
		slot("s-9", "t-2", 2, "14:00", "15:00"),
	)

	slots, err := svc.SlotsForCourse(context.Background(), recurringCourse("c-1", models.CourseTypeSolo, "t-1"), "")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 2, slots[0].DayOfWeek)
	assert.Equal(t, "s-1", slots[0].SlotID("t-1"))
	assert.Equal(t, 4, slots[1].DayOfWeek)

	_, err = svc.SlotsForCourse(context.Background(), recurringCourse("c-2", models.CourseTypeDuo, "t-1", "t-2"), "")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSlotCatalogGroupExactIntersection(t *testing.T) {
	svc := newCatalogFixture(config.IntersectionExact,
		slot("a-1", "t-1", 2, "14:00", "15:00"),
		slot("a-2", "t-1", 3, "10:00", "11:00"),
		slot("b-1", "t-2", 2, "14:00", "15:00"),
		slot("b-2", "t-2", 3, "10:00", "11:30"),
	)

	slots, err := svc.SlotsForCourse(context.Background(), recurringCourse("c-1", models.CourseTypeGroup, "t-1", "t-2", "t-1"), "")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 2, slots[0].DayOfWeek)
	assert.Equal(t, map[string]string{"t-1": "a-1", "t-2": "b-1"}, slots[0].BackingSlots)
}

func TestSlotCatalogGroupWithoutCommonAvailability(t *testing.T) {
	svc := newCatalogFixture(config.IntersectionExact, slot("a-1", "t-1", 2, "14:00", "15:00"))

	slots, err := svc.SlotsForCourse(context.Background(), recurringCourse("c-1", models.CourseTypeGroup, "t-1", "t-2"), "")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlotCatalogGroupContainIntersection(t *testing.T) {
	slots := []models.AvailabilitySlot{
		slot("a-1", "t-1", 2, "14:00", "15:00"),
		slot("b-1", "t-2", 2, "13:00", "17:00"),
	}
	course := recurringCourse("c-1", models.CourseTypeGroup, "t-1", "t-2")

	exact, err := newCatalogFixture(config.IntersectionExact, slots...).SlotsForCourse(context.Background(), course, "")
	require.NoError(t, err)
	assert.Empty(t, exact)

	contain, err := newCatalogFixture(config.IntersectionContain, slots...).SlotsForCourse(context.Background(), course, "")
	require.NoError(t, err)
	require.Len(t, contain, 1)
	assert.Equal(t, "14:00", contain[0].StartTime)
	assert.Equal(t, "15:00", contain[0].EndTime)
	assert.Equal(t, "b-1", contain[0].SlotID("t-2"))
}
