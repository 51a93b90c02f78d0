package service

import (
	"context"
	"exam_manager/internal/model"
	"exam_manager/internal/repository"
	"exam_manager/internal/util"
	"exam_manager/pkg/logger"
	"exam_manager/pkg/monitoring"
	"exam_manager/pkg/tracing"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ManualExamRequest struct {
	SubjectID   uint   `json:"subject_id" validate:"required"`
	Name        string `json:"name" validate:"required,max=255"`
	QuestionIDs []uint `json:"question_ids" validate:"required,min=1,unique"`
}

type AutoExamRequest struct {
	SubjectID uint              `json:"subject_id" validate:"required"`
	Name      string            `json:"name" validate:"required,max=255"`
	Counts    *DifficultyCounts `json:"counts" validate:"required"`
}

// UpdateExamRequest question_ids 与 counts 必须且只能提供一个
type UpdateExamRequest struct {
	Name        *string           `json:"name" validate:"omitnil,min=1,max=255"`
	QuestionIDs *[]uint           `json:"question_ids" validate:"omitnil,min=1,unique"`
	Counts      *DifficultyCounts `json:"counts"`
}

type ExamQuestionView struct {
	ID         uint               `json:"id"`
	Text       string             `json:"text"`
	Difficulty model.Difficulty   `json:"difficulty"`
	Type       model.QuestionType `json:"type"`
	Position   int                `json:"position"`
	Options    []model.Option     `json:"options"`
}

// ExamDetail 试卷详情，counts 供前端编辑时预填
type ExamDetail struct {
	model.Exam
	Questions []ExamQuestionView `json:"questions"`
	Counts    DifficultyCounts   `json:"counts"`
}

type ExamService struct {
	Repo      *repository.ExamRepository
	Assembler *Assembler
	Cache     ExamCache
}

func NewExamService(repo *repository.ExamRepository, assembler *Assembler, cache ExamCache) *ExamService {
	if cache == nil {
		cache = NewNoopExamCache()
	}
	return &ExamService{Repo: repo, Assembler: assembler, Cache: cache}
}

func (s *ExamService) ListBySubject(ctx context.Context, subjectID uint) ([]model.Exam, error) {
	if subjectID == 0 {
		return nil, util.NewValidationError("subject_id")
	}
	return s.Repo.ListBySubject(ctx, subjectID)
}

func (s *ExamService) Show(ctx context.Context, examID uint) (detail *ExamDetail, err error) {
	ctx, span := tracing.Tracer.Start(ctx, "exam.Show")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int64("exam_id", int64(examID)))

	cached, version, ok := s.Cache.Get(ctx, examID)
	if ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}

	exam, questions, err := s.Repo.FindWithContent(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load exam %d: %w", examID, err)
	}

	detail = buildExamDetail(exam, questions)
	s.Cache.Set(ctx, detail, version)
	return detail, nil
}

func (s *ExamService) CreateManual(ctx context.Context, req ManualExamRequest) (exam *model.Exam, err error) {
	ctx, span := tracing.Tracer.Start(ctx, "exam.CreateManual")
	defer func() { tracing.EndSpan(span, err) }()

	req.Name = strings.TrimSpace(req.Name)

	var fields fieldList
	if err := fields.addStruct(req); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, util.NewValidationError(fields...)
	}

	ids, err := s.Assembler.FromList(ctx, req.SubjectID, req.QuestionIDs)
	if err != nil {
		return nil, err
	}

	exam = &model.Exam{SubjectID: req.SubjectID, Name: req.Name, Mode: model.ExamModeManual}
	if err := s.Repo.Create(ctx, exam, ids); err != nil {
		return nil, fmt.Errorf("create manual exam: %w", err)
	}

	s.recordWrite(exam, "create")
	return exam, nil
}

func (s *ExamService) CreateAuto(ctx context.Context, req AutoExamRequest) (exam *model.Exam, err error) {
	ctx, span := tracing.Tracer.Start(ctx, "exam.CreateAuto")
	defer func() { tracing.EndSpan(span, err) }()

	req.Name = strings.TrimSpace(req.Name)

	var fields fieldList
	if err := fields.addStruct(req); err != nil {
		return nil, err
	}
	if req.Counts == nil || req.Counts.Total() <= 0 {
		fields.add("counts.total")
	}
	if len(fields) > 0 {
		return nil, util.NewValidationError(fields...)
	}

	ids, err := s.Assembler.FromCounts(ctx, req.SubjectID, *req.Counts)
	if err != nil {
		return nil, err
	}

	exam = &model.Exam{SubjectID: req.SubjectID, Name: req.Name, Mode: model.ExamModeAuto}
	if err := s.Repo.Create(ctx, exam, ids); err != nil {
		return nil, fmt.Errorf("create auto exam: %w", err)
	}

	s.recordWrite(exam, "create")
	return exam, nil
}

// Update 替换试卷内容；按 counts 重新抽题时使用试卷原有科目
func (s *ExamService) Update(ctx context.Context, examID uint, req UpdateExamRequest) (err error) {
	ctx, span := tracing.Tracer.Start(ctx, "exam.Update")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int64("exam_id", int64(examID)))

	exam, err := s.Repo.FindByID(ctx, examID)
	if err != nil {
		return err
	}

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}

	var fields fieldList
	if err := fields.addStruct(req); err != nil {
		return err
	}
	if (req.QuestionIDs == nil) == (req.Counts == nil) {
		fields.add("question_ids_or_counts_required")
	}
	if req.Counts != nil && req.Counts.Total() <= 0 {
		fields.add("counts.total")
	}
	if len(fields) > 0 {
		return util.NewValidationError(fields...)
	}

	var ids []uint
	if req.QuestionIDs != nil {
		ids, err = s.Assembler.FromList(ctx, exam.SubjectID, *req.QuestionIDs)
	} else {
		ids, err = s.Assembler.FromCounts(ctx, exam.SubjectID, *req.Counts)
	}
	if err != nil {
		return err
	}

	if err := s.Repo.ReplaceContent(ctx, examID, ids, req.Name); err != nil {
		return fmt.Errorf("replace exam %d content: %w", examID, err)
	}
	s.Cache.Invalidate(ctx, examID)

	exam.QuestionCount = len(ids)
	s.recordWrite(exam, "update")
	return nil
}

func (s *ExamService) Delete(ctx context.Context, examID uint) error {
	if err := s.Repo.Delete(ctx, examID); err != nil {
		return fmt.Errorf("delete exam %d: %w", examID, err)
	}
	s.Cache.Invalidate(ctx, examID)

	logger.Log.Info("exam deleted", zap.Uint("exam_id", examID))
	return nil
}

func (s *ExamService) recordWrite(exam *model.Exam, operation string) {
	monitoring.ExamsWritten.WithLabelValues(string(exam.Mode), operation).Inc()
	logger.Log.Info("exam content written",
		zap.String("operation", operation),
		zap.Uint("exam_id", exam.ID),
		zap.Uint("subject_id", exam.SubjectID),
		zap.String("mode", string(exam.Mode)),
		zap.Int("question_count", exam.QuestionCount),
	)
}

func buildExamDetail(exam *model.Exam, questions []model.Question) *ExamDetail {
	detail := &ExamDetail{
		Exam:      *exam,
		Questions: make([]ExamQuestionView, 0, len(questions)),
	}
	for i, q := range questions {
		detail.Questions = append(detail.Questions, ExamQuestionView{
			ID:         q.ID,
			Text:       q.Text,
			Difficulty: q.Difficulty,
			Type:       q.Type,
			Position:   i + 1,
			Options:    q.Options,
		})
		switch q.Difficulty {
		case model.DifficultyEasy:
			detail.Counts.Easy++
		case model.DifficultyMedium:
			detail.Counts.Medium++
		case model.DifficultyHard:
			detail.Counts.Hard++
		}
	}
	return detail
}
