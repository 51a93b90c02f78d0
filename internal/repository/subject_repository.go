package repository

import (
	"context"
	"exam_manager/internal/model"

	"gorm.io/gorm"
)

type SubjectRepository struct {
	DB *gorm.DB
}

func NewSubjectRepository(db *gorm.DB) *SubjectRepository {
	return &SubjectRepository{DB: db}
}

func (r *SubjectRepository) List(ctx context.Context) ([]model.Subject, error) {
	subjects := make([]model.Subject, 0)
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&subjects).Error
	return subjects, err
}

func (r *SubjectRepository) Create(ctx context.Context, s *model.Subject) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *SubjectRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Subject{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *SubjectRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Subject{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}
