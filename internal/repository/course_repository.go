package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/music-school-api/internal/models"
)

// CourseRepository reads the course catalog projection used by scheduling.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course or sql.ErrNoRows.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, title, course_type, duration_type, instructor_ids, class_type_id FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindClassType returns a class type or sql.ErrNoRows.
func (r *CourseRepository) FindClassType(ctx context.Context, id string) (*models.ClassType, error) {
	const query = `SELECT id, name, duration_value, duration_unit FROM class_types WHERE id = $1`
	var ct models.ClassType
	if err := r.db.GetContext(ctx, &ct, query, id); err != nil {
		return nil, err
	}
	return &ct, nil
}
