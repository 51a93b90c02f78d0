package model

import "time"

type ExamMode string

const (
	ExamModeManual ExamMode = "manual"
	ExamModeAuto   ExamMode = "auto"
)

// swagger:model Exam
type Exam struct {
	IDModel

	SubjectID      uint           `gorm:"not null;index" json:"subject_id"`
	Subject        *Subject       `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Name           string         `gorm:"size:255;not null" json:"name"`
	Mode           ExamMode       `gorm:"size:16;not null" json:"mode"`
	BaseDifficulty *string        `gorm:"size:16" json:"base_difficulty"` // 预留字段，目前始终为 NULL
	QuestionCount  int            `gorm:"not null;default:0" json:"question_count"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	Links          []ExamQuestion `gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Exam) TableName() string {
	return "exams"
}

// ExamQuestion 试卷与题目的有序关联，position 从 1 开始连续
type ExamQuestion struct {
	ExamID     uint      `gorm:"primaryKey;autoIncrement:false;uniqueIndex:idx_exam_questions_exam_question,priority:1" json:"exam_id"`
	Position   int       `gorm:"primaryKey;autoIncrement:false" json:"position"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_exam_questions_exam_question,priority:2" json:"question_id"`
	Question   *Question `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}
