package repository

import (
	"context"
	"errors"
	"exam_manager/internal/model"
	"exam_manager/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func orderOptions(db *gorm.DB) *gorm.DB {
	return db.Order("idx ASC")
}

// ListIDsByDifficulty 返回科目下某难度的全部题目 ID（抽题的候选集）
func (r *QuestionRepository) ListIDsByDifficulty(ctx context.Context, subjectID uint, difficulty model.Difficulty) ([]uint, error) {
	ids := make([]uint, 0)
	err := r.DB.WithContext(ctx).Model(&model.Question{}).
		Where("subject_id = ? AND difficulty = ?", subjectID, difficulty).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// CountInSubject 统计 ids 中属于该科目的题目数
func (r *QuestionRepository) CountInSubject(ctx context.Context, subjectID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Question{}).
		Where("id IN ? AND subject_id = ?", ids, subjectID).
		Count(&count).Error
	return count, err
}

func (r *QuestionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.WithContext(ctx).Preload("Options", orderOptions).First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListBySubject 最新的题目在前，选项按 idx 排序
func (r *QuestionRepository) ListBySubject(ctx context.Context, subjectID uint) ([]model.Question, error) {
	questions := make([]model.Question, 0)
	err := r.DB.WithContext(ctx).
		Preload("Options", orderOptions).
		Where("subject_id = ?", subjectID).
		Order("id DESC").
		Find(&questions).Error
	return questions, err
}

// Create 题目与选项在同一事务中写入，选项 idx 即数组下标
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		options := q.Options
		if err := tx.Omit("Options").Create(q).Error; err != nil {
			return err
		}
		if err := insertOptions(tx, q.ID, options); err != nil {
			return err
		}
		q.Options = options
		return nil
	})
}

// Update 更新题干并整体替换选项。已被试卷引用的题目不能改到其他科目
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockQuestion(tx, q.ID)
		if err != nil {
			return err
		}

		if current.SubjectID != q.SubjectID {
			refs, err := countExamRefs(tx, q.ID)
			if err != nil {
				return err
			}
			if refs > 0 {
				return util.ErrQuestionInUse
			}
		}

		err = tx.Model(&model.Question{}).Where("id = ?", q.ID).Updates(map[string]interface{}{
			"subject_id": q.SubjectID,
			"type":       q.Type,
			"text":       q.Text,
			"difficulty": q.Difficulty,
		}).Error
		if err != nil {
			return err
		}

		if err := tx.Where("question_id = ?", q.ID).Delete(&model.Option{}).Error; err != nil {
			return err
		}
		return insertOptions(tx, q.ID, q.Options)
	})
}

// Delete 被试卷引用的题目不允许删除
func (r *QuestionRepository) Delete(ctx context.Context, id uint) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockQuestion(tx, id); err != nil {
			return err
		}

		refs, err := countExamRefs(tx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return util.ErrQuestionInUse
		}

		if err := tx.Where("question_id = ?", id).Delete(&model.Option{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Question{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrQuestionNotFound
		}
		return nil
	})
	// 不支持行锁的驱动（SQLite）仍可能在检查之后被并发组卷引用，由外键拦下
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return util.ErrQuestionInUse
	}
	return err
}

// lockQuestion 读取并锁定题目行，组卷写入关联时会等待该锁
func lockQuestion(tx *gorm.DB, id uint) (*model.Question, error) {
	var q model.Question
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func countExamRefs(tx *gorm.DB, questionID uint) (int64, error) {
	var refs int64
	err := tx.Model(&model.ExamQuestion{}).Where("question_id = ?", questionID).Count(&refs).Error
	return refs, err
}

func insertOptions(tx *gorm.DB, questionID uint, options []model.Option) error {
	if len(options) == 0 {
		return nil
	}
	for i := range options {
		options[i].ID = 0
		options[i].QuestionID = questionID
		options[i].Idx = i
	}
	return tx.Create(&options).Error
}
