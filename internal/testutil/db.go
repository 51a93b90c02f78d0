// Package testutil 为各层测试提供内存 SQLite 数据库和题库数据
package testutil

import (
	"exam_manager/internal/config"
	"exam_manager/internal/model"
	"exam_manager/pkg/database"
	"testing"

	"gorm.io/gorm"
)

// NewDB 每次返回一个全新的内存库。内存库绑定在单个连接上，所以限制连接数为 1
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.InitDB(&config.DatabaseConfig{
		Driver:         "sqlite",
		DSN:            ":memory:",
		MaxOpenConns:   1,
		MaxIdleConns:   1,
		ConnectRetries: 1,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func CreateSubject(t testing.TB, db *gorm.DB, name string) *model.Subject {
	t.Helper()

	s := &model.Subject{Name: name}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("create subject %q: %v", name, err)
	}
	return s
}

// CreateQuestion 创建一道带 4 个选项的单选题
func CreateQuestion(t testing.TB, db *gorm.DB, subjectID uint, d model.Difficulty) *model.Question {
	t.Helper()

	q := &model.Question{
		SubjectID:  subjectID,
		Type:       model.QuestionTypeSCQ,
		Text:       "question " + string(d),
		Difficulty: d,
		Options: []model.Option{
			{Idx: 0, Text: "A", IsCorrect: true},
			{Idx: 1, Text: "B"},
			{Idx: 2, Text: "C"},
			{Idx: 3, Text: "D"},
		},
	}
	if err := db.Create(q).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	return q
}

// Pool 题库：difficulty -> question ids
type Pool map[model.Difficulty][]uint

// SeedPool 按给定数量为科目生成题目
func SeedPool(t testing.TB, db *gorm.DB, subjectID uint, easy, medium, hard int) Pool {
	t.Helper()

	pool := Pool{}
	for d, n := range map[model.Difficulty]int{
		model.DifficultyEasy:   easy,
		model.DifficultyMedium: medium,
		model.DifficultyHard:   hard,
	} {
		for i := 0; i < n; i++ {
			q := CreateQuestion(t, db, subjectID, d)
			pool[d] = append(pool[d], q.ID)
		}
	}
	return pool
}

// DifficultyOf 反查题目难度
func (p Pool) DifficultyOf(id uint) (model.Difficulty, bool) {
	for d, ids := range p {
		for _, qid := range ids {
			if qid == id {
				return d, true
			}
		}
	}
	return "", false
}

// Links 读取试卷的关联行，按 position 排序
func Links(t testing.TB, db *gorm.DB, examID uint) []model.ExamQuestion {
	t.Helper()

	var links []model.ExamQuestion
	if err := db.Where("exam_id = ?", examID).Order("position ASC").Find(&links).Error; err != nil {
		t.Fatalf("load links: %v", err)
	}
	return links
}

// AssertExamConsistent 检查 question_count 与关联行数一致，且 position 为 1..n
func AssertExamConsistent(t testing.TB, db *gorm.DB, examID uint) {
	t.Helper()

	var exam model.Exam
	if err := db.First(&exam, examID).Error; err != nil {
		t.Fatalf("load exam %d: %v", examID, err)
	}
	links := Links(t, db, examID)
	if exam.QuestionCount != len(links) {
		t.Fatalf("exam %d: question_count = %d, links = %d", examID, exam.QuestionCount, len(links))
	}
	for i, l := range links {
		if l.Position != i+1 {
			t.Fatalf("exam %d: link %d has position %d, want %d", examID, i, l.Position, i+1)
		}
	}
}

func CountExams(t testing.TB, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	if err := db.Model(&model.Exam{}).Count(&n).Error; err != nil {
		t.Fatalf("count exams: %v", err)
	}
	return n
}
