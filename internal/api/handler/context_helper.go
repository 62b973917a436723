package handler

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/service"
	pkgerrors "github.com/Digitalhour/ACSCoreOS-sub013/pkg/errors"
	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/jwt"
	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/response"
)

// Gin 上下文键（由 middleware.JWTAuth 写入）
const (
	CtxUserID       = "user_id"
	CtxRole         = "role"
	CtxDepartmentID = "department_id"
	CtxTokenJTI     = "token_jti"
	CtxTokenExp     = "token_exp"
	CtxClaims       = "token_claims"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(CtxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get(CtxRole)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetCaller 组装当前登录用户；department_id 允许为空
func MustGetCaller(c *gin.Context) (service.Caller, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Caller{}, false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return service.Caller{}, false
	}
	deptID, _ := c.Get(CtxDepartmentID)
	dept, _ := deptID.(string)
	return service.Caller{UserID: userID, Role: role, DepartmentID: dept}, true
}

// getClaims 取出 Access Token 声明，未经过 JWTAuth 时返回 nil
func getClaims(c *gin.Context) *jwt.Claims {
	v, exists := c.Get(CtxClaims)
	if !exists {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}

// mustParam 读取路径参数，为空时写入 400
func mustParam(c *gin.Context, name, msg string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		response.BadRequest(c, 10001, msg)
		return "", false
	}
	return v, true
}

// handleCommonError 各模块共用的错误兜底
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权操作")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, pkgerrors.ErrOptimisticLock.Error())
	case errors.Is(err, dto.ErrInvalidDate):
		response.BadRequest(c, 10007, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	default:
		response.InternalError(c)
	}
}

// bindFailed 请求体无法解析时返回 400，字段校验失败时返回 422 与字段明细
func bindFailed(c *gin.Context, err error) {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.Is(err, io.EOF) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		response.BadRequest(c, 10001, "请求体格式错误")
		return
	}
	response.ValidationFailed(c, err)
}
