// Package httpx はハンドラー共通のリクエスト処理を提供します。
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/whoabuu/task-manager/internal/apperr"
)

// maxBodyBytes は JSON ボディの上限です。
const maxBodyBytes = 1 << 20

// BindJSON はボディを v にデコードします。未知のフィールドや余分なデータは拒否します。
// allowEmpty が true の場合、空ボディはエラーにしません。
func BindJSON(c *gin.Context, v any, allowEmpty bool) error {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return apperr.Validation("Request body must be a JSON object with the expected fields")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.Validation("Request body must contain a single JSON object")
	}
	return nil
}
