package errors

import "net/http"

// OK represents a successful operation.
var OK = Register(&Errno{
	Code:      0,
	HTTP:      http.StatusOK,
	MessageEN: "Success",
	MessageZH: "成功",
})

// Common errors shared by the devserver, the CLI and the portal modules.
var (
	ErrBadRequest       = NewRequestErr(ServiceCommon, 0, "Bad request", "请求错误")
	ErrInvalidParam     = NewRequestErr(ServiceCommon, 1, "Invalid parameter", "参数无效")
	ErrValidationFailed = NewError(ServiceCommon, CategoryRequest, 4, http.StatusUnprocessableEntity, "Validation failed", "验证失败")

	ErrUnauthorized      = NewAuthErr(ServiceCommon, 0, "Unauthorized", "未认证")
	ErrInvalidToken      = NewAuthErr(ServiceCommon, 1, "Invalid token", "令牌无效")
	ErrTokenExpired      = NewAuthErr(ServiceCommon, 2, "Token expired", "令牌已过期")
	ErrInvalidCredential = NewAuthErr(ServiceCommon, 3, "Invalid credentials", "凭证无效")
	ErrTokenRevoked      = NewAuthErr(ServiceCommon, 4, "Token revoked", "令牌已撤销")

	ErrForbidden = NewPermissionErr(ServiceCommon, 0, "Forbidden", "禁止访问")

	ErrNotFound = NewNotFoundErr(ServiceCommon, 0, "Resource not found", "资源不存在")

	ErrConflict = NewConflictErr(ServiceCommon, 0, "Resource conflict", "资源冲突")

	ErrTooManyRequests = NewError(ServiceCommon, CategoryRateLimit, 0, http.StatusTooManyRequests, "Too many requests", "请求过于频繁")

	ErrInternal = NewInternalErr(ServiceCommon, 0, "Internal server error", "服务器内部错误")
	ErrDatabase = NewDatabaseErr(ServiceCommon, 0, "Database error", "数据库错误")
	ErrCache    = NewCacheErr(ServiceCommon, 0, "Cache error", "缓存错误")
	ErrNetwork  = NewNetworkErr(ServiceCommon, 0, "Network error", "网络错误")
)

// Devserver-specific errors.
var (
	ErrUnknownAction = NewNotFoundErr(ServiceDevServer, 1, "Unknown action", "未知操作")
	ErrNotDeleted    = NewConflictErr(ServiceDevServer, 1, "Record is not deleted", "记录未被删除")
	ErrTwoFactorCode = NewAuthErr(ServiceAuth, 1, "Invalid two-factor code", "双因素验证码无效")
)
