package service

import (
	"context"
	"exam_manager/internal/model"
	"exam_manager/internal/repository"
	"exam_manager/internal/util"
	"exam_manager/pkg/logger"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type OptionRequest struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionRequest type 缺省为 SCQ
type QuestionRequest struct {
	SubjectID  uint            `json:"subject_id"`
	Type       string          `json:"type"`
	Text       string          `json:"text"`
	Difficulty string          `json:"difficulty"`
	Options    []OptionRequest `json:"options"`
}

type QuestionService struct {
	Repo     *repository.QuestionRepository
	Subjects *repository.SubjectRepository
	Exams    *repository.ExamRepository
	Cache    ExamCache
}

func NewQuestionService(repo *repository.QuestionRepository, subjects *repository.SubjectRepository, exams *repository.ExamRepository, cache ExamCache) *QuestionService {
	if cache == nil {
		cache = NewNoopExamCache()
	}
	return &QuestionService{Repo: repo, Subjects: subjects, Exams: exams, Cache: cache}
}

func (s *QuestionService) ListBySubject(ctx context.Context, subjectID uint) ([]model.Question, error) {
	if subjectID == 0 {
		return nil, util.NewValidationError("subject_id")
	}
	return s.Repo.ListBySubject(ctx, subjectID)
}

func (s *QuestionService) Get(ctx context.Context, id uint) (*model.Question, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *QuestionService) Create(ctx context.Context, req QuestionRequest) (*model.Question, error) {
	q, err := s.buildQuestion(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// Update 覆盖题干，选项整体替换；引用该题的试卷详情缓存随之失效
func (s *QuestionService) Update(ctx context.Context, id uint, req QuestionRequest) (*model.Question, error) {
	q, err := s.buildQuestion(ctx, req)
	if err != nil {
		return nil, err
	}
	q.ID = id
	if err := s.Repo.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("update question %d: %w", id, err)
	}

	examIDs, err := s.Exams.ListIDsByQuestion(ctx, id)
	if err != nil {
		// 题目已更新，缓存最迟在 TTL 后刷新
		logger.Log.Warn("list exams for cache invalidation failed", zap.Uint("question_id", id), zap.Error(err))
		return q, nil
	}
	for _, examID := range examIDs {
		s.Cache.Invalidate(ctx, examID)
	}
	return q, nil
}

func (s *QuestionService) Delete(ctx context.Context, id uint) error {
	return s.Repo.Delete(ctx, id)
}

func (s *QuestionService) buildQuestion(ctx context.Context, req QuestionRequest) (*model.Question, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.Type == "" {
		req.Type = string(model.QuestionTypeSCQ)
	}

	fields := validateQuestion(req)
	if req.SubjectID != 0 {
		exists, err := s.Subjects.Exists(ctx, req.SubjectID)
		if err != nil {
			return nil, err
		}
		if !exists {
			fields.add("subject_id")
		}
	}
	if len(fields) > 0 {
		return nil, util.NewValidationError(fields...)
	}

	q := &model.Question{
		SubjectID:  req.SubjectID,
		Type:       model.QuestionType(req.Type),
		Text:       req.Text,
		Difficulty: model.Difficulty(req.Difficulty),
		Options:    make([]model.Option, len(req.Options)),
	}
	for i, o := range req.Options {
		q.Options[i] = model.Option{Idx: i, Text: strings.TrimSpace(o.Text), IsCorrect: o.IsCorrect}
	}
	return q, nil
}

// validateQuestion 校验题型对应的选项数量和正确答案数量，收集全部错误
func validateQuestion(req QuestionRequest) fieldList {
	var fields fieldList

	if req.Text == "" {
		fields.add("text")
	}
	if !model.Difficulty(req.Difficulty).Valid() {
		fields.add("difficulty")
	}
	if req.SubjectID == 0 {
		fields.add("subject_id")
	}

	qt := model.QuestionType(req.Type)
	if !qt.Valid() {
		fields.add("type")
	}

	if req.Options == nil {
		fields.add("options")
		return fields
	}

	if want := qt.OptionCount(); len(req.Options) != want {
		fields.add(fmt.Sprintf("options(%d)", want))
	}

	correct := 0
	for _, o := range req.Options {
		if o.IsCorrect {
			correct++
		}
	}
	if qt.Valid() {
		if qt.SingleAnswer() && correct != 1 {
			fields.add(fmt.Sprintf("exactly one option must be correct (%s)", qt))
		}
		if !qt.SingleAnswer() && correct < 1 {
			fields.add(fmt.Sprintf("at least one option must be correct (%s)", qt))
		}
	}

	for _, o := range req.Options {
		if strings.TrimSpace(o.Text) == "" {
			fields.add("option text")
			break
		}
	}
	return fields
}
