package util

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExamNotFound          = errors.New("exam not found")
	ErrQuestionNotFound      = errors.New("question not found")
	ErrCrossSubjectReference = errors.New("some questions do not belong to subject")
	ErrQuestionInUse         = errors.New("question is used by at least one exam")
)

// ValidationError 汇总所有不合法的字段，一次性返回给调用方
type ValidationError struct {
	Fields []string
}

func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

// InsufficientPoolError 某个难度的题库数量不足以满足抽题要求
type InsufficientPoolError struct {
	Difficulty string
	Requested  int
	Available  int
}

func (e *InsufficientPoolError) Error() string {
	return fmt.Sprintf("not enough questions for difficulty %s", e.Difficulty)
}
