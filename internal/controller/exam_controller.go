package controller

import (
	"exam_manager/internal/service"
	"exam_manager/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	Service *service.ExamService
}

func NewExamController(svc *service.ExamService) *ExamController {
	return &ExamController{Service: svc}
}

// @Summary 获取科目下的试卷列表
// @Tags 试卷
// @Produce json
// @Param subject_id query int true "科目ID"
// @Success 200 {array} model.Exam
// @Failure 422 {object} util.ErrorResponse
// @Router /api/exams [get]
func (c *ExamController) List(ctx *gin.Context) {
	subjectID := util.ParseOptionalID(ctx.Query("subject_id"))

	exams, err := c.Service.ListBySubject(ctx.Request.Context(), subjectID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, exams)
}

// @Summary 获取试卷详情（题目、选项和难度统计）
// @Tags 试卷
// @Produce json
// @Param id path int true "试卷ID"
// @Success 200 {object} service.ExamDetail
// @Failure 404 {object} util.ErrorResponse
// @Router /api/exams/{id} [get]
func (c *ExamController) Show(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	detail, err := c.Service.Show(ctx.Request.Context(), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, detail)
}

// @Summary 手动组卷
// @Tags 试卷
// @Accept json
// @Produce json
// @Param body body service.ManualExamRequest true "科目、名称和有序题目ID"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} util.ErrorResponse
// @Router /api/exams/manual [post]
func (c *ExamController) CreateManual(ctx *gin.Context) {
	var req service.ManualExamRequest
	if !bindJSON(ctx, &req) {
		return
	}

	exam, err := c.Service.CreateManual(ctx.Request.Context(), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"id": exam.ID, "name": exam.Name})
}

// @Summary 按难度分布自动组卷
// @Tags 试卷
// @Accept json
// @Produce json
// @Param body body service.AutoExamRequest true "科目、名称和各难度题数"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} util.ErrorResponse
// @Router /api/exams/auto [post]
func (c *ExamController) CreateAuto(ctx *gin.Context) {
	var req service.AutoExamRequest
	if !bindJSON(ctx, &req) {
		return
	}

	exam, err := c.Service.CreateAuto(ctx.Request.Context(), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"id": exam.ID, "name": exam.Name})
}

// @Summary 编辑试卷（指定题目或重新抽题）
// @Tags 试卷
// @Accept json
// @Produce json
// @Param id path int true "试卷ID"
// @Param body body service.UpdateExamRequest true "question_ids 与 counts 二选一"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} util.ErrorResponse
// @Failure 422 {object} util.ErrorResponse
// @Router /api/exams/{id} [put]
func (c *ExamController) Update(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req service.UpdateExamRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if err := c.Service.Update(ctx.Request.Context(), id, req); err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"id": id})
}

// @Summary 删除试卷
// @Tags 试卷
// @Param id path int true "试卷ID"
// @Success 204
// @Failure 404 {object} util.ErrorResponse
// @Router /api/exams/{id} [delete]
func (c *ExamController) Delete(ctx *gin.Context) {
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
