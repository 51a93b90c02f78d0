package controller

import (
	"exam_manager/internal/service"
	"exam_manager/internal/util"

	"github.com/gin-gonic/gin"
)

type SubjectController struct {
	Service *service.SubjectService
}

func NewSubjectController(svc *service.SubjectService) *SubjectController {
	return &SubjectController{Service: svc}
}

// @Summary 获取科目列表
// @Tags 科目
// @Produce json
// @Success 200 {array} model.Subject
// @Router /api/subjects [get]
func (c *SubjectController) List(ctx *gin.Context) {
	subjects, err := c.Service.List(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, subjects)
}

// @Summary 创建科目
// @Tags 科目
// @Accept json
// @Produce json
// @Param body body service.SubjectRequest true "科目名称"
// @Success 201 {object} model.Subject
// @Failure 422 {object} util.ErrorResponse
// @Router /api/subjects [post]
func (c *SubjectController) Create(ctx *gin.Context) {
	var req service.SubjectRequest
	if !bindJSON(ctx, &req) {
		return
	}

	subject, err := c.Service.Create(ctx.Request.Context(), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, subject)
}
