package service

import (
	"context"
	"exam_manager/internal/util"
	"fmt"
)

// Assembler 生成最终要持久化的有序题目列表
type Assembler struct {
	Pool    QuestionPool
	Sampler *Sampler
}

func NewAssembler(pool QuestionPool, sampler *Sampler) *Assembler {
	return &Assembler{Pool: pool, Sampler: sampler}
}

// FromList 手动组卷：保持调用方给出的顺序，所有题目必须属于该科目
func (a *Assembler) FromList(ctx context.Context, subjectID uint, questionIDs []uint) ([]uint, error) {
	if len(questionIDs) == 0 {
		return nil, util.NewValidationError("question_ids")
	}

	distinct := make(map[uint]struct{}, len(questionIDs))
	for _, id := range questionIDs {
		distinct[id] = struct{}{}
	}

	n, err := a.Pool.CountInSubject(ctx, subjectID, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("check question membership: %w", err)
	}
	if int(n) != len(distinct) {
		return nil, util.ErrCrossSubjectReference
	}

	return append([]uint(nil), questionIDs...), nil
}

// FromCounts 自动组卷，顺序即抽题结果的随机顺序
func (a *Assembler) FromCounts(ctx context.Context, subjectID uint, counts DifficultyCounts) ([]uint, error) {
	return a.Sampler.PickQuestions(ctx, subjectID, counts)
}
