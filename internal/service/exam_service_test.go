package service

import (
	"context"
	"errors"
	"exam_manager/internal/model"
	"exam_manager/internal/repository"
	"exam_manager/internal/testutil"
	"exam_manager/internal/util"
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"

	"gorm.io/gorm"
)

func newTestExamService(db *gorm.DB, cache ExamCache) *ExamService {
	questions := repository.NewQuestionRepository(db)
	sampler := NewSampler(questions, rand.New(rand.NewPCG(11, 13)))
	return NewExamService(repository.NewExamRepository(db), NewAssembler(questions, sampler), cache)
}

func validationFields(t *testing.T, err error) []string {
	t.Helper()
	var verr *util.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	return verr.Fields
}

func strPtr(s string) *string { return &s }

// memoryExamCache 与 redis 实现相同的版本语义，并记录调用次数
type memoryExamCache struct {
	entries       map[memoryCacheKey]*ExamDetail
	versions      map[uint]int64
	hits          int
	invalidations int
}

type memoryCacheKey struct {
	examID  uint
	version int64
}

func newMemoryExamCache() *memoryExamCache {
	return &memoryExamCache{entries: map[memoryCacheKey]*ExamDetail{}, versions: map[uint]int64{}}
}

func (c *memoryExamCache) Get(_ context.Context, id uint) (*ExamDetail, int64, bool) {
	version := c.versions[id]
	d, ok := c.entries[memoryCacheKey{id, version}]
	if ok {
		c.hits++
	}
	return d, version, ok
}

func (c *memoryExamCache) Set(_ context.Context, d *ExamDetail, version int64) {
	c.entries[memoryCacheKey{d.ID, version}] = d
}

func (c *memoryExamCache) Invalidate(_ context.Context, id uint) {
	c.versions[id]++
	c.invalidations++
}

func TestExamServiceAutoScenario(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestExamService(db, nil)
	ctx := context.Background()

	math := testutil.CreateSubject(t, db, "Math")
	pool := testutil.SeedPool(t, db, math.ID, 3, 2, 1)

	exam, err := svc.CreateAuto(ctx, AutoExamRequest{
		SubjectID: math.ID,
		Name:      "  Midterm ",
		Counts:    &DifficultyCounts{Easy: 2, Medium: 2, Hard: 1},
	})
	if err != nil {
		t.Fatalf("CreateAuto: %v", err)
	}
	if exam.Name != "Midterm" || exam.Mode != model.ExamModeAuto || exam.QuestionCount != 5 {
		t.Fatalf("exam = %+v", exam)
	}

	detail, err := svc.Show(ctx, exam.ID)
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if len(detail.Questions) != 5 {
		t.Fatalf("questions = %d, want 5", len(detail.Questions))
	}
	if detail.Counts != (DifficultyCounts{Easy: 2, Medium: 2, Hard: 1}) {
		t.Fatalf("counts = %+v", detail.Counts)
	}
	for i, q := range detail.Questions {
		if q.Position != i+1 {
			t.Fatalf("question %d position = %d", i, q.Position)
		}
		if d, ok := pool.DifficultyOf(q.ID); !ok || d != q.Difficulty {
			t.Fatalf("question %d difficulty mismatch", q.ID)
		}
	}
	before := testutil.Links(t, db, exam.ID)

	err = svc.Update(ctx, exam.ID, UpdateExamRequest{Counts: &DifficultyCounts{Easy: 1, Medium: 1, Hard: 1}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	detail, err = svc.Show(ctx, exam.ID)
	if err != nil {
		t.Fatalf("Show after update: %v", err)
	}
	if detail.QuestionCount != 3 || len(detail.Questions) != 3 {
		t.Fatalf("after update: question_count = %d, questions = %d", detail.QuestionCount, len(detail.Questions))
	}
	if detail.Counts != (DifficultyCounts{Easy: 1, Medium: 1, Hard: 1}) {
		t.Fatalf("counts after update = %+v", detail.Counts)
	}
	if detail.Name != "Midterm" {
		t.Fatalf("name changed to %q", detail.Name)
	}
	after := testutil.Links(t, db, exam.ID)
	if len(before) != 5 || len(after) != 3 {
		t.Fatalf("links before/after = %d/%d", len(before), len(after))
	}
	testutil.AssertExamConsistent(t, db, exam.ID)
}

func TestExamServiceCreateManual(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestExamService(db, nil)
	ctx := context.Background()

	math := testutil.CreateSubject(t, db, "Math")
	pool := testutil.SeedPool(t, db, math.ID, 2, 1, 0)
	ids := []uint{pool[model.DifficultyMedium][0], pool[model.DifficultyEasy][1], pool[model.DifficultyEasy][0]}

	exam, err := svc.CreateManual(ctx, ManualExamRequest{SubjectID: math.ID, Name: "Quiz", QuestionIDs: ids})
	if err != nil {
		t.Fatalf("CreateManual: %v", err)
	}
	if exam.Mode != model.ExamModeManual || exam.QuestionCount != 3 {
		t.Fatalf("exam = %+v", exam)
	}

	detail, err := svc.Show(ctx, exam.ID)
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	for i, q := range detail.Questions {
		if q.ID != ids[i] {
			t.Fatalf("position %d holds %d, want %d", i+1, q.ID, ids[i])
		}
	}
}

func TestExamServiceCreateManualValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestExamService(db, nil)

	_, err := svc.CreateManual(context.Background(), ManualExamRequest{Name: "   "})
	fields := validationFields(t, err)
	if !reflect.DeepEqual(fields, []string{"subject_id", "name", "question_ids"}) {
		t.Fatalf("fields = %v", fields)
	}

	_, err = svc.CreateManual(context.Background(), ManualExamRequest{SubjectID: 1, Name: "x", QuestionIDs: []uint{}})
	if fields := validationFields(t, err); !reflect.DeepEqual(fields, []string{"question_ids"}) {
		t.Fatalf("empty list fields = %v", fields)
	}

	_, err = svc.CreateManual(context.Background(), ManualExamRequest{SubjectID: 1, Name: "x", QuestionIDs: []uint{3, 3}})
	if fields := validationFields(t, err); !reflect.DeepEqual(fields, []string{"question_ids"}) {
		t.Fatalf("duplicate fields = %v", fields)
	}

	_, err = svc.CreateManual(context.Background(), ManualExamRequest{SubjectID: 1, Name: strings.Repeat("n", 256), QuestionIDs: []uint{1}})
	if fields := validationFields(t, err); !reflect.DeepEqual(fields, []string{"name"}) {
		t.Fatalf("long name fields = %v", fields)
	}
}

func TestExamServiceCreateManualCrossSubject(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestExamService(db, nil)

	math := testutil.CreateSubject(t, db, "Math")
	physics := testutil.CreateSubject(t, db, "Physics")
	mq := testutil.CreateQuestion(t, db, math.ID, model.DifficultyEasy)
	pq := testutil.CreateQuestion(t, db, physics.ID, model.DifficultyEasy)

	_, err := svc.CreateManual(context.Background(), ManualExamRequest{SubjectID: math.ID, Name: "Mixed", QuestionIDs: []uint{mq.ID, pq.ID}})
	if !errors.Is(err, util.ErrCrossSubjectReference) {
		t.Fatalf("err = %v, want ErrCrossSubjectReference", err)
	}
	if n := testutil.CountExams(t, db); n != 0 {
		t.Fatalf("exams = %d, want 0", n)
	}
}

func TestExamServiceCreateAutoValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestExamService(db, nil)

	cases := []struct {
		name string
		req  AutoExamRequest
		want []string
	}{
		{"missing everything", AutoExamRequest{}, []string{"subject_id", "name", "counts", "counts.total"}},
		{"negative counts", AutoExamRequest{SubjectID: 1, Name: "x", Counts: &DifficultyCounts{Easy: -1, Hard: -2}}, []string{"counts.easy", "counts.hard", "counts.total"}},
		{"all zero", AutoExamRequest{SubjectID: 1, Name: "x", Counts: &DifficultyCounts{}}, []string{"counts.total"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateAuto(context.Background(), tc.req)
			if fields := validationFields(t, err); !reflect.DeepEqual(fields, tc.want) {
				t.Fatalf("fields = %v, want %v", fields, tc.want)
			}
		})
	}
}

func TestExamServiceCreateAutoInsufficientPool(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestExamService(db, nil)

	math := testutil.CreateSubject(t, db, "Math")
	testutil.SeedPool(t, db, math.ID, 3, 0, 0)

	_, err := svc.CreateAuto(context.Background(), AutoExamRequest{SubjectID: math.ID, Name: "Too big", Counts: &DifficultyCounts{Easy: 5}})
	var poolErr *util.InsufficientPoolError
	if !errors.As(err, &poolErr) || poolErr.Requested != 5 || poolErr.Available != 3 {
		t.Fatalf("err = %v, want shortfall 5/3", err)
	}
	if n := testutil.CountExams(t, db); n != 0 {
		t.Fatalf("exams = %d, want 0", n)
	}
}

func TestExamServiceUpdateValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestExamService(db, nil)
	ctx := context.Background()

	math := testutil.CreateSubject(t, db, "Math")
	pool := testutil.SeedPool(t, db, math.ID, 2, 0, 0)
	exam, err := svc.CreateManual(ctx, ManualExamRequest{SubjectID: math.ID, Name: "Quiz", QuestionIDs: pool[model.DifficultyEasy]})
	if err != nil {
		t.Fatalf("CreateManual: %v", err)
	}

	empty := []uint{}
	ids := pool[model.DifficultyEasy]
	cases := []struct {
		name string
		req  UpdateExamRequest
		want []string
	}{
		{"no source", UpdateExamRequest{}, []string{"question_ids_or_counts_required"}},
		{"both sources", UpdateExamRequest{QuestionIDs: &ids, Counts: &DifficultyCounts{Easy: 1}}, []string{"question_ids_or_counts_required"}},
		{"explicit empty list", UpdateExamRequest{QuestionIDs: &empty}, []string{"question_ids"}},
		{"blank name", UpdateExamRequest{Name: strPtr("  "), QuestionIDs: &ids}, []string{"name"}},
		{"zero counts", UpdateExamRequest{Counts: &DifficultyCounts{}}, []string{"counts.total"}},
		{"negative count", UpdateExamRequest{Counts: &DifficultyCounts{Easy: 2, Medium: -1}}, []string{"counts.medium"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Update(ctx, exam.ID, tc.req)
			if fields := validationFields(t, err); !reflect.DeepEqual(fields, tc.want) {
				t.Fatalf("fields = %v, want %v", fields, tc.want)
			}
		})
	}
	testutil.AssertExamConsistent(t, db, exam.ID)
}

func TestExamServiceUpdateMissingExam(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestExamService(db, nil)

	// 试卷不存在时优先返回 404，即使请求体也不合法
	err := svc.Update(context.Background(), 404, UpdateExamRequest{})
	if !errors.Is(err, util.ErrExamNotFound) {
		t.Fatalf("err = %v, want ErrExamNotFound", err)
	}
}

func TestExamServiceUpdateWithListStaysInSubject(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestExamService(db, nil)
	ctx := context.Background()

	math := testutil.CreateSubject(t, db, "Math")
	physics := testutil.CreateSubject(t, db, "Physics")
	mathPool := testutil.SeedPool(t, db, math.ID, 3, 0, 0)
	pq := testutil.CreateQuestion(t, db, physics.ID, model.DifficultyEasy)

	exam, err := svc.CreateManual(ctx, ManualExamRequest{SubjectID: math.ID, Name: "Quiz", QuestionIDs: mathPool[model.DifficultyEasy][:2]})
	if err != nil {
		t.Fatalf("CreateManual: %v", err)
	}

	foreign := []uint{mathPool[model.DifficultyEasy][2], pq.ID}
	if err := svc.Update(ctx, exam.ID, UpdateExamRequest{QuestionIDs: &foreign}); !errors.Is(err, util.ErrCrossSubjectReference) {
		t.Fatalf("err = %v, want ErrCrossSubjectReference", err)
	}

	reordered := []uint{mathPool[model.DifficultyEasy][2], mathPool[model.DifficultyEasy][0]}
	if err := svc.Update(ctx, exam.ID, UpdateExamRequest{Name: strPtr("Renamed"), QuestionIDs: &reordered}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	detail, err := svc.Show(ctx, exam.ID)
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if detail.Name != "Renamed" || detail.Questions[0].ID != reordered[0] || detail.Questions[1].ID != reordered[1] {
		t.Fatalf("detail = %+v", detail)
	}
}

func TestExamServiceShowUsesCache(t *testing.T) {
	db := testutil.NewDB(t)
	cache := newMemoryExamCache()
	svc := newTestExamService(db, cache)
	ctx := context.Background()

	math := testutil.CreateSubject(t, db, "Math")
	pool := testutil.SeedPool(t, db, math.ID, 2, 2, 0)
	exam, err := svc.CreateAuto(ctx, AutoExamRequest{SubjectID: math.ID, Name: "Cached", Counts: &DifficultyCounts{Easy: 1, Medium: 1}})
	if err != nil {
		t.Fatalf("CreateAuto: %v", err)
	}

	first, err := svc.Show(ctx, exam.ID)
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	second, err := svc.Show(ctx, exam.ID)
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if cache.hits != 1 || !reflect.DeepEqual(first, second) {
		t.Fatalf("hits = %d, equal = %v", cache.hits, reflect.DeepEqual(first, second))
	}

	ids := pool[model.DifficultyMedium]
	if err := svc.Update(ctx, exam.ID, UpdateExamRequest{QuestionIDs: &ids}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if cache.invalidations != 1 {
		t.Fatalf("invalidations = %d, want 1", cache.invalidations)
	}
	third, err := svc.Show(ctx, exam.ID)
	if err != nil {
		t.Fatalf("Show after update: %v", err)
	}
	if third.Counts != (DifficultyCounts{Medium: 2}) {
		t.Fatalf("stale detail after update: %+v", third.Counts)
	}

	if err := svc.Delete(ctx, exam.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Show(ctx, exam.ID); !errors.Is(err, util.ErrExamNotFound) {
		t.Fatalf("Show after delete err = %v, want ErrExamNotFound", err)
	}
}

func TestExamServiceListBySubject(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestExamService(db, nil)

	if _, err := svc.ListBySubject(context.Background(), 0); err == nil {
		t.Fatal("expected validation error for subject 0")
	}
	exams, err := svc.ListBySubject(context.Background(), 5)
	if err != nil || len(exams) != 0 {
		t.Fatalf("exams = %v, err = %v", exams, err)
	}
}

func TestExamServiceDeleteMissing(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestExamService(db, nil)

	if err := svc.Delete(context.Background(), 1); !errors.Is(err, util.ErrExamNotFound) {
		t.Fatalf("err = %v, want ErrExamNotFound", err)
	}
}

// 慢读者在更新之前取到版本，更新之后才写回旧详情，不能覆盖新内容
func TestExamServiceIgnoresStaleCacheWrite(t *testing.T) {
	db := testutil.NewDB(t)
	cache := newMemoryExamCache()
	svc := newTestExamService(db, cache)
	ctx := context.Background()

	math := testutil.CreateSubject(t, db, "Math")
	pool := testutil.SeedPool(t, db, math.ID, 2, 1, 0)

	exam, err := svc.CreateManual(ctx, ManualExamRequest{SubjectID: math.ID, Name: "Quiz", QuestionIDs: pool[model.DifficultyEasy]})
	if err != nil {
		t.Fatalf("CreateManual: %v", err)
	}

	_, readerVersion, ok := cache.Get(ctx, exam.ID)
	if ok {
		t.Fatal("unexpected cache hit before first Show")
	}
	exam, questions, err := svc.Repo.FindWithContent(ctx, exam.ID)
	if err != nil {
		t.Fatalf("FindWithContent: %v", err)
	}
	stale := buildExamDetail(exam, questions)

	if err := svc.Update(ctx, exam.ID, UpdateExamRequest{QuestionIDs: &[]uint{pool[model.DifficultyMedium][0]}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	cache.Set(ctx, stale, readerVersion)

	detail, err := svc.Show(ctx, exam.ID)
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if len(detail.Questions) != 1 || detail.Questions[0].ID != pool[model.DifficultyMedium][0] {
		t.Fatalf("questions = %+v, want the updated single medium question", detail.Questions)
	}
	if detail.Counts != (DifficultyCounts{Medium: 1}) {
		t.Fatalf("counts = %+v", detail.Counts)
	}
}
