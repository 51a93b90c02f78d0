package model

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties 抽题时的固定顺序
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type QuestionType string

const (
	QuestionTypeSCQ QuestionType = "SCQ" // 单选
	QuestionTypeMCQ QuestionType = "MCQ" // 多选
	QuestionTypeTF  QuestionType = "TF"  // 判断
	QuestionTypeSA  QuestionType = "SA"  // 简答
	QuestionTypeLA  QuestionType = "LA"  // 论述
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeSCQ, QuestionTypeMCQ, QuestionTypeTF, QuestionTypeSA, QuestionTypeLA:
		return true
	}
	return false
}

// OptionCount 每种题型要求的选项数量
func (t QuestionType) OptionCount() int {
	switch t {
	case QuestionTypeTF:
		return 2
	case QuestionTypeSA, QuestionTypeLA:
		return 1
	default:
		return 4
	}
}

// SingleAnswer 除多选题外都必须恰好一个正确选项
func (t QuestionType) SingleAnswer() bool {
	return t != QuestionTypeMCQ
}

// swagger:model Question
type Question struct {
	IDModel

	SubjectID  uint         `gorm:"not null;index:idx_questions_subject_difficulty,priority:1" json:"subject_id"`
	Subject    *Subject     `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Type       QuestionType `gorm:"size:8;not null;default:SCQ" json:"type"`
	Text       string       `gorm:"type:text;not null" json:"text"`
	Difficulty Difficulty   `gorm:"size:16;not null;index:idx_questions_subject_difficulty,priority:2" json:"difficulty"`
	Options    []Option     `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options"`
}

func (Question) TableName() string {
	return "questions"
}

// swagger:model Option
type Option struct {
	IDModel

	QuestionID uint   `gorm:"not null;index" json:"-"`
	Idx        int    `gorm:"column:idx;not null" json:"idx"`
	Text       string `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"is_correct"`
}

func (Option) TableName() string {
	return "options"
}
