package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/findmyteacher-api/internal/models"
)

const teacherColumns = `id, name, subject, city, bio, education, experience, teaching_mode, availability,
	price, price_unit, rating, reviews, profile_image, gallery_images`

// teacherRow mirrors the teachers table; array columns need pq.StringArray.
type teacherRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	Subject       string         `db:"subject"`
	City          string         `db:"city"`
	Bio           string         `db:"bio"`
	Education     string         `db:"education"`
	Experience    *string        `db:"experience"`
	TeachingMode  pq.StringArray `db:"teaching_mode"`
	Availability  pq.StringArray `db:"availability"`
	Price         float64        `db:"price"`
	PriceUnit     string         `db:"price_unit"`
	Rating        float64        `db:"rating"`
	Reviews       int            `db:"reviews"`
	ProfileImage  string         `db:"profile_image"`
	GalleryImages pq.StringArray `db:"gallery_images"`
}

func (r teacherRow) toModel() models.Teacher {
	return models.Teacher{
		ID:            r.ID,
		Name:          r.Name,
		Subject:       r.Subject,
		City:          r.City,
		Bio:           r.Bio,
		Education:     r.Education,
		Experience:    r.Experience,
		TeachingMode:  []string(r.TeachingMode),
		Availability:  []string(r.Availability),
		Price:         r.Price,
		PriceUnit:     r.PriceUnit,
		Rating:        r.Rating,
		Reviews:       r.Reviews,
		ProfileImage:  r.ProfileImage,
		GalleryImages: []string(r.GalleryImages),
	}
}

// TeacherRepository reads the teacher catalog from PostgreSQL. It is read-only:
// listing edits are not persisted by this service.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// All returns every listed teacher in catalog order.
func (r *TeacherRepository) All(ctx context.Context) ([]models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers ORDER BY position, id", teacherColumns)
	var rows []teacherRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	teachers := make([]models.Teacher, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, row.toModel())
	}
	return teachers, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	var row teacherRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get teacher %s: %w", id, err)
	}
	teacher := row.toModel()
	return &teacher, nil
}
