package service

import (
	"context"
	"errors"
	"exam_manager/internal/model"
	"exam_manager/internal/repository"
	"exam_manager/internal/testutil"
	"exam_manager/internal/util"
	"reflect"
	"testing"
)

func options(correct ...bool) []OptionRequest {
	opts := make([]OptionRequest, len(correct))
	for i, c := range correct {
		opts[i] = OptionRequest{Text: string(rune('A' + i)), IsCorrect: c}
	}
	return opts
}

func TestValidateQuestion(t *testing.T) {
	cases := []struct {
		name string
		req  QuestionRequest
		want []string
	}{
		{
			name: "valid single choice",
			req:  QuestionRequest{SubjectID: 1, Type: "SCQ", Text: "q", Difficulty: "easy", Options: options(true, false, false, false)},
		},
		{
			name: "valid multiple choice",
			req:  QuestionRequest{SubjectID: 1, Type: "MCQ", Text: "q", Difficulty: "hard", Options: options(true, true, false, false)},
		},
		{
			name: "everything missing",
			req:  QuestionRequest{Type: "SCQ"},
			want: []string{"text", "difficulty", "subject_id", "options"},
		},
		{
			name: "unknown type",
			req:  QuestionRequest{SubjectID: 1, Type: "XYZ", Text: "q", Difficulty: "easy", Options: options(true, false, false, false)},
			want: []string{"type"},
		},
		{
			name: "true false needs two options and one answer",
			req:  QuestionRequest{SubjectID: 1, Type: "TF", Text: "q", Difficulty: "medium", Options: options(true, true, false)},
			want: []string{"options(2)", "exactly one option must be correct (TF)"},
		},
		{
			name: "short answer needs one option",
			req:  QuestionRequest{SubjectID: 1, Type: "SA", Text: "q", Difficulty: "medium", Options: options(true, false)},
			want: []string{"options(1)"},
		},
		{
			name: "multiple choice without answer",
			req:  QuestionRequest{SubjectID: 1, Type: "MCQ", Text: "q", Difficulty: "easy", Options: options(false, false, false, false)},
			want: []string{"at least one option must be correct (MCQ)"},
		},
		{
			name: "blank option text",
			req: QuestionRequest{SubjectID: 1, Type: "LA", Text: "q", Difficulty: "easy", Options: []OptionRequest{
				{Text: " ", IsCorrect: true},
			}},
			want: []string{"option text"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := []string(validateQuestion(tc.req))
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("fields = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestQuestionServiceLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewQuestionService(repository.NewQuestionRepository(db), repository.NewSubjectRepository(db), repository.NewExamRepository(db), nil)
	ctx := context.Background()

	math := testutil.CreateSubject(t, db, "Math")

	_, err := svc.Create(ctx, QuestionRequest{SubjectID: 999, Text: "q", Difficulty: "easy", Options: options(true, false, false, false)})
	if fields := validationFields(t, err); !reflect.DeepEqual(fields, []string{"subject_id"}) {
		t.Fatalf("unknown subject fields = %v", fields)
	}

	q, err := svc.Create(ctx, QuestionRequest{SubjectID: math.ID, Text: " What is 2+2? ", Difficulty: "easy", Options: options(false, true, false, false)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if q.Type != model.QuestionTypeSCQ || q.Text != "What is 2+2?" {
		t.Fatalf("question = %+v", q)
	}

	if _, err := svc.Update(ctx, q.ID, QuestionRequest{SubjectID: math.ID, Type: "TF", Text: "2+2=4", Difficulty: "medium", Options: options(true, false)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := svc.Get(ctx, q.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Type != model.QuestionTypeTF || len(got.Options) != 2 {
		t.Fatalf("after update = %+v", got)
	}

	list, err := svc.ListBySubject(ctx, math.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, err = %v", list, err)
	}

	if err := svc.Delete(ctx, q.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, q.ID); !errors.Is(err, util.ErrQuestionNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
}

// 修改被试卷引用的题目后，试卷详情不能继续使用缓存中的旧内容
func TestQuestionUpdateRefreshesCachedExam(t *testing.T) {
	db := testutil.NewDB(t)
	cache := newMemoryExamCache()
	exams := newTestExamService(db, cache)
	questions := NewQuestionService(repository.NewQuestionRepository(db), repository.NewSubjectRepository(db), repository.NewExamRepository(db), cache)
	ctx := context.Background()

	math := testutil.CreateSubject(t, db, "Math")
	q := testutil.CreateQuestion(t, db, math.ID, model.DifficultyEasy)
	other := testutil.CreateQuestion(t, db, math.ID, model.DifficultyEasy)

	exam, err := exams.CreateManual(ctx, ManualExamRequest{SubjectID: math.ID, Name: "Quiz", QuestionIDs: []uint{q.ID}})
	if err != nil {
		t.Fatalf("CreateManual: %v", err)
	}
	if _, err := exams.Show(ctx, exam.ID); err != nil {
		t.Fatalf("Show: %v", err)
	}

	// 未被引用的题目不触发失效
	if _, err := questions.Update(ctx, other.ID, QuestionRequest{SubjectID: math.ID, Text: "unused", Difficulty: "medium", Options: options(true, false, false, false)}); err != nil {
		t.Fatalf("Update unused: %v", err)
	}
	if cache.invalidations != 0 {
		t.Fatalf("invalidations = %d, want 0", cache.invalidations)
	}

	_, err = questions.Update(ctx, q.ID, QuestionRequest{SubjectID: math.ID, Type: "TF", Text: "edited", Difficulty: "hard", Options: options(false, true)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if cache.invalidations != 1 {
		t.Fatalf("invalidations = %d, want 1", cache.invalidations)
	}

	detail, err := exams.Show(ctx, exam.ID)
	if err != nil {
		t.Fatalf("Show after update: %v", err)
	}
	got := detail.Questions[0]
	if got.Text != "edited" || got.Difficulty != model.DifficultyHard || got.Type != model.QuestionTypeTF || len(got.Options) != 2 {
		t.Fatalf("question = %+v", got)
	}
	if detail.Counts != (DifficultyCounts{Hard: 1}) {
		t.Fatalf("counts = %+v", detail.Counts)
	}
}

func TestQuestionUpdateRejectsSubjectChangeWhenInUse(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewQuestionService(repository.NewQuestionRepository(db), repository.NewSubjectRepository(db), repository.NewExamRepository(db), nil)
	exams := newTestExamService(db, nil)
	ctx := context.Background()

	math := testutil.CreateSubject(t, db, "Math")
	physics := testutil.CreateSubject(t, db, "Physics")
	q := testutil.CreateQuestion(t, db, math.ID, model.DifficultyEasy)

	if _, err := exams.CreateManual(ctx, ManualExamRequest{SubjectID: math.ID, Name: "Quiz", QuestionIDs: []uint{q.ID}}); err != nil {
		t.Fatalf("CreateManual: %v", err)
	}

	_, err := svc.Update(ctx, q.ID, QuestionRequest{SubjectID: physics.ID, Text: "moved", Difficulty: "easy", Options: options(true, false, false, false)})
	if !errors.Is(err, util.ErrQuestionInUse) {
		t.Fatalf("err = %v, want ErrQuestionInUse", err)
	}
	got, err := svc.Get(ctx, q.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SubjectID != math.ID || got.Text == "moved" {
		t.Fatalf("question changed despite rejection: %+v", got)
	}

	if _, err := svc.Update(ctx, q.ID, QuestionRequest{SubjectID: math.ID, Text: "same subject", Difficulty: "easy", Options: options(true, false, false, false)}); err != nil {
		t.Fatalf("same-subject update: %v", err)
	}
}
