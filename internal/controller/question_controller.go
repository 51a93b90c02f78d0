package controller

import (
	"exam_manager/internal/service"
	"exam_manager/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	Service *service.QuestionService
}

func NewQuestionController(svc *service.QuestionService) *QuestionController {
	return &QuestionController{Service: svc}
}

// @Summary 获取科目下的题目（含选项）
// @Tags 题库
// @Produce json
// @Param subject_id query int true "科目ID"
// @Success 200 {array} model.Question
// @Router /api/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	subjectID := util.ParseOptionalID(ctx.Query("subject_id"))

	questions, err := c.Service.ListBySubject(ctx.Request.Context(), subjectID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, questions)
}

// @Summary 获取题目详情
// @Tags 题库
// @Produce json
// @Param id path int true "题目ID"
// @Success 200 {object} model.Question
// @Router /api/questions/{id} [get]
func (c *QuestionController) Get(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	q, err := c.Service.Get(ctx.Request.Context(), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, q)
}

// @Summary 创建题目
// @Tags 题库
// @Accept json
// @Produce json
// @Param body body service.QuestionRequest true "题目信息"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} util.ErrorResponse
// @Router /api/questions [post]
func (c *QuestionController) Create(ctx *gin.Context) {
	var req service.QuestionRequest
	if !bindJSON(ctx, &req) {
		return
	}

	q, err := c.Service.Create(ctx.Request.Context(), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"id": q.ID})
}

// @Summary 更新题目
// @Tags 题库
// @Accept json
// @Produce json
// @Param id path int true "题目ID"
// @Param body body service.QuestionRequest true "题目信息"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} util.ErrorResponse
// @Failure 409 {object} util.ErrorResponse
// @Router /api/questions/{id} [put]
func (c *QuestionController) Update(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req service.QuestionRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if _, err := c.Service.Update(ctx.Request.Context(), id, req); err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"id": id})
}

// @Summary 删除题目（被试卷引用时返回 409）
// @Tags 题库
// @Param id path int true "题目ID"
// @Success 204
// @Router /api/questions/{id} [delete]
func (c *QuestionController) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	if err := c.Service.Delete(ctx.Request.Context(), id); err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.NoContent(ctx)
}
