// Package api はHTTPトランスポート層で共有されるレスポンス型を定義します。
package api

// ErrorResponse はすべてのエラーレスポンスの共通ボディです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse は本文を持たない成功レスポンスに使用します。
type MessageResponse struct {
	Message string `json:"message"`
}

// Common error messages returned to clients.
const (
	MsgUnauthorized    = "Unauthorized"
	MsgInvalidRequest  = "invalid request"
	MsgTooManyRequests = "too many requests"
	MsgInternalError   = "internal server error"
)
