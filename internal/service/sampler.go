package service

import (
	"context"
	"exam_manager/internal/model"
	"exam_manager/internal/util"
	"exam_manager/pkg/monitoring"
	"exam_manager/pkg/tracing"
	"fmt"
	"math/rand/v2"

	"go.opentelemetry.io/otel/attribute"
)

// DifficultyCounts 每个难度要抽取的题目数
type DifficultyCounts struct {
	Easy   int `json:"easy" validate:"gte=0"`
	Medium int `json:"medium" validate:"gte=0"`
	Hard   int `json:"hard" validate:"gte=0"`
}

func (c DifficultyCounts) For(d model.Difficulty) int {
	switch d {
	case model.DifficultyEasy:
		return c.Easy
	case model.DifficultyMedium:
		return c.Medium
	case model.DifficultyHard:
		return c.Hard
	}
	return 0
}

func (c DifficultyCounts) Total() int {
	return c.Easy + c.Medium + c.Hard
}

// QuestionPool 抽题和成员校验所需的只读题库
type QuestionPool interface {
	ListIDsByDifficulty(ctx context.Context, subjectID uint, difficulty model.Difficulty) ([]uint, error)
	CountInSubject(ctx context.Context, subjectID uint, ids []uint) (int64, error)
}

// RandSource 可注入的随机源，测试中使用固定种子
type RandSource interface {
	IntN(n int) int
}

// globalRand 使用 math/rand/v2 的全局生成器，并发安全
type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

type Sampler struct {
	Pool QuestionPool
	Rand RandSource
}

func NewSampler(pool QuestionPool, rnd RandSource) *Sampler {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Sampler{Pool: pool, Rand: rnd}
}

// PickQuestions 按 easy、medium、hard 的顺序分层抽题（不放回），最后整体打乱。
// 数量 <= 0 的难度跳过；任一难度题量不足时整体失败
func (s *Sampler) PickQuestions(ctx context.Context, subjectID uint, counts DifficultyCounts) (ids []uint, err error) {
	ctx, span := tracing.Tracer.Start(ctx, "sampler.PickQuestions")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(
		attribute.Int64("subject_id", int64(subjectID)),
		attribute.Int("counts.easy", counts.Easy),
		attribute.Int("counts.medium", counts.Medium),
		attribute.Int("counts.hard", counts.Hard),
	)

	picked := make([]uint, 0)
	for _, d := range model.Difficulties {
		want := counts.For(d)
		if want <= 0 {
			continue
		}

		candidates, err := s.Pool.ListIDsByDifficulty(ctx, subjectID, d)
		if err != nil {
			return nil, fmt.Errorf("list %s questions: %w", d, err)
		}
		if len(candidates) < want {
			monitoring.PoolShortfalls.WithLabelValues(string(d)).Inc()
			return nil, &util.InsufficientPoolError{
				Difficulty: string(d),
				Requested:  want,
				Available:  len(candidates),
			}
		}

		picked = append(picked, sampleIDs(candidates, want, s.Rand)...)
	}

	shuffleIDs(picked, s.Rand)
	return picked, nil
}

// sampleIDs 部分 Fisher-Yates，只打乱前 k 个位置；会修改 ids
func sampleIDs(ids []uint, k int, rnd RandSource) []uint {
	for i := 0; i < k; i++ {
		j := i + rnd.IntN(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids[:k]
}

func shuffleIDs(ids []uint, rnd RandSource) {
	for i := len(ids) - 1; i > 0; i-- {
		j := rnd.IntN(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}
