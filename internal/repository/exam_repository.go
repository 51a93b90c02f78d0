package repository

import (
	"context"
	"errors"
	"exam_manager/internal/model"
	"exam_manager/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

// Create 写入试卷头和有序关联，question_count 取自 questionIDs 长度
func (r *ExamRepository) Create(ctx context.Context, exam *model.Exam, questionIDs []uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exam.QuestionCount = len(questionIDs)
		if err := tx.Omit(clause.Associations).Create(exam).Error; err != nil {
			return err
		}
		return insertLinks(tx, exam.ID, questionIDs)
	})
}

// ReplaceContent 整体替换试卷题目：删除旧关联后按新顺序重新插入。
// name 为 nil 时保留原名称。任一步失败整个事务回滚
func (r *ExamRepository) ReplaceContent(ctx context.Context, examID uint, questionIDs []uint, name *string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exam model.Exam
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&exam, examID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrExamNotFound
		}
		if err != nil {
			return err
		}

		updates := map[string]interface{}{"question_count": len(questionIDs)}
		if name != nil {
			updates["name"] = *name
		}
		if err := tx.Model(&exam).Updates(updates).Error; err != nil {
			return err
		}

		if err := tx.Where("exam_id = ?", examID).Delete(&model.ExamQuestion{}).Error; err != nil {
			return err
		}
		return insertLinks(tx, examID, questionIDs)
	})
}

func (r *ExamRepository) FindByID(ctx context.Context, examID uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.WithContext(ctx).First(&exam, examID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrExamNotFound
	}
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

// FindWithContent 读取试卷头、按 position 排序的题目及其选项。
// 三次查询放在同一个只读事务里，避免读到写入中途的状态
func (r *ExamRepository) FindWithContent(ctx context.Context, examID uint) (*model.Exam, []model.Question, error) {
	var exam model.Exam
	questions := make([]model.Question, 0)

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&exam, examID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrExamNotFound
		}
		if err != nil {
			return err
		}

		err = tx.Model(&model.Question{}).
			Select("questions.*").
			Joins("JOIN exam_questions ON exam_questions.question_id = questions.id").
			Where("exam_questions.exam_id = ?", examID).
			Order("exam_questions.position ASC").
			Find(&questions).Error
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}

		ids := make([]uint, len(questions))
		for i, q := range questions {
			ids[i] = q.ID
		}
		var options []model.Option
		if err := tx.Where("question_id IN ?", ids).Order("question_id ASC, idx ASC").Find(&options).Error; err != nil {
			return err
		}

		byQuestion := make(map[uint][]model.Option, len(questions))
		for _, o := range options {
			byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], o)
		}
		for i := range questions {
			questions[i].Options = byQuestion[questions[i].ID]
			if questions[i].Options == nil {
				questions[i].Options = []model.Option{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &exam, questions, nil
}

// Delete 删除试卷，关联行随之删除
func (r *ExamRepository) Delete(ctx context.Context, examID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 外键 ON DELETE CASCADE 也会处理，这里显式删除以兼容未建外键的旧库
		if err := tx.Where("exam_id = ?", examID).Delete(&model.ExamQuestion{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Exam{}, examID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrExamNotFound
		}
		return nil
	})
}

// ListBySubject 最新创建的在前
func (r *ExamRepository) ListBySubject(ctx context.Context, subjectID uint) ([]model.Exam, error) {
	exams := make([]model.Exam, 0)
	err := r.DB.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC, id DESC").
		Find(&exams).Error
	return exams, err
}

// ListIDsByQuestion 引用了该题目的试卷
func (r *ExamRepository) ListIDsByQuestion(ctx context.Context, questionID uint) ([]uint, error) {
	ids := make([]uint, 0)
	err := r.DB.WithContext(ctx).Model(&model.ExamQuestion{}).
		Where("question_id = ?", questionID).
		Order("exam_id ASC").
		Pluck("exam_id", &ids).Error
	return ids, err
}

func insertLinks(tx *gorm.DB, examID uint, questionIDs []uint) error {
	if len(questionIDs) == 0 {
		return nil
	}
	links := make([]model.ExamQuestion, len(questionIDs))
	for i, qid := range questionIDs {
		links[i] = model.ExamQuestion{
			ExamID:     examID,
			QuestionID: qid,
			Position:   i + 1,
		}
	}
	return tx.Create(&links).Error
}
