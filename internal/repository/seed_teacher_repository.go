package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/findmyteacher-api/internal/models"
)

// SeedTeacherRepository serves the teacher catalog from static JSON.
type SeedTeacherRepository struct {
	teachers []models.Teacher
	index    map[string]int
}

// NewSeedTeacherRepository decodes a JSON array of teachers.
func NewSeedTeacherRepository(raw []byte) (*SeedTeacherRepository, error) {
	var teachers []models.Teacher
	if err := json.Unmarshal(raw, &teachers); err != nil {
		return nil, fmt.Errorf("decode teacher seed: %w", err)
	}
	index := make(map[string]int, len(teachers))
	for i, t := range teachers {
		if _, dup := index[t.ID]; !dup {
			index[t.ID] = i
		}
	}
	return &SeedTeacherRepository{teachers: teachers, index: index}, nil
}

// All returns every teacher in seed order.
func (r *SeedTeacherRepository) All(ctx context.Context) ([]models.Teacher, error) {
	out := make([]models.Teacher, len(r.teachers))
	copy(out, r.teachers)
	return out, nil
}

// FindByID fetches a single teacher.
func (r *SeedTeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	i, ok := r.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	teacher := r.teachers[i]
	return &teacher, nil
}
