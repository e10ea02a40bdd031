// Package apperr は API で扱うエラー種別と、その HTTP レスポンスへの変換を提供します。
package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/whoabuu/task-manager/internal/logutil"
)

// Kind はエラーの分類です。HTTP ステータスはこの分類から決まります。
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindTooManyRequests
)

// Error はクライアントへ返すことを前提としたエラーです。
// Message はそのまま画面に表示されるため、内部情報を含めないこと。
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status は Kind に対応する HTTP ステータスを返します。
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func Validation(message string) *Error {
	return newError(KindValidation, "INVALID_INPUT", message, nil)
}

func Conflict(message string) *Error {
	return newError(KindConflict, "CONFLICT", message, nil)
}

func Authentication(code, message string) *Error {
	return newError(KindAuthentication, code, message, nil)
}

func Authorization(message string) *Error {
	return newError(KindAuthorization, "FORBIDDEN", message, nil)
}

func NotFound(message string) *Error {
	return newError(KindNotFound, "NOT_FOUND", message, nil)
}

func TooManyRequests(message string) *Error {
	return newError(KindTooManyRequests, "TOO_MANY_ATTEMPTS", message, nil)
}

// Internal は内部エラーを包みます。Message はログにのみ出力されます。
func Internal(message string, err error) *Error {
	return newError(KindInternal, "INTERNAL_ERROR", message, err)
}

// KindOf は err の分類を返します。*Error を含まない場合は KindInternal です。
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}

// Body はレスポンスボディを組み立てます。error はクライアントがそのまま表示する文字列です。
func Body(code, message string) gin.H {
	return gin.H{
		"code":  code,
		"error": message,
	}
}

// Respond は err を対応するステータスとボディで返します。
func Respond(c *gin.Context, err error) {
	status, body := translate(c, err)
	c.JSON(status, body)
}

// Abort は Respond と同じ変換を行い、後続のハンドラーを打ち切ります。
func Abort(c *gin.Context, err error) {
	status, body := translate(c, err)
	c.AbortWithStatusJSON(status, body)
}

func translate(c *gin.Context, err error) (int, gin.H) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind != KindInternal {
		return apiErr.Status(), Body(apiErr.Code, apiErr.Message)
	}

	_ = c.Error(err)
	log := logutil.GetOrDefault(c.Request.Context())
	log.Error().Err(err).
		Str("path", c.Request.URL.Path).
		Msg("request failed")
	return http.StatusInternalServerError, Body("INTERNAL_ERROR", "Internal server error")
}
