package service

import (
	"context"
	"exam_manager/internal/model"
	"exam_manager/internal/repository"
	"exam_manager/internal/util"
	"strings"
	"unicode/utf8"
)

type SubjectRequest struct {
	Name string `json:"name"`
}

type SubjectService struct {
	Repo *repository.SubjectRepository
}

func NewSubjectService(repo *repository.SubjectRepository) *SubjectService {
	return &SubjectService{Repo: repo}
}

func (s *SubjectService) List(ctx context.Context) ([]model.Subject, error) {
	return s.Repo.List(ctx)
}

// Create 名称去除首尾空格后不能为空，且不能与已有科目重名
func (s *SubjectService) Create(ctx context.Context, req SubjectRequest) (*model.Subject, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(name) > util.MaxNameLength {
		return nil, util.NewValidationError("name")
	}

	taken, err := s.Repo.ExistsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.NewValidationError("name")
	}

	subject := &model.Subject{Name: name}
	if err := s.Repo.Create(ctx, subject); err != nil {
		return nil, err
	}
	return subject, nil
}
