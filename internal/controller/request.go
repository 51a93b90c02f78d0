package controller

import (
	"errors"
	"exam_manager/internal/util"
	"io"

	"github.com/gin-gonic/gin"
)

// pathID 解析 :id，非法时直接返回 400
func pathID(ctx *gin.Context) (uint, bool) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, util.MsgInvalidID)
		return 0, false
	}
	return id, true
}

// bindJSON 空请求体按空对象处理，交给业务校验报告缺失字段
func bindJSON(ctx *gin.Context, obj interface{}) bool {
	if err := ctx.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		util.ValidationFailed(ctx, "body")
		return false
	}
	return true
}
