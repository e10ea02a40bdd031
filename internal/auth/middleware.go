package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/whoabuu/task-manager/internal/apperr"
	"github.com/whoabuu/task-manager/internal/logutil"
	"github.com/whoabuu/task-manager/internal/store"
)

var (
	errNoToken     = apperr.Authentication("NO_TOKEN", "Not authorized, no token provided")
	errTokenFailed = apperr.Authentication("TOKEN_FAILED", "Not authorized, token failed")
)

// RequireLogin はクッキーのトークンを検証し、ユーザーをコンテキストに設定するミドルウェアです。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CookieName)
		if err != nil || token == "" {
			apperr.Abort(c, errNoToken)
			return
		}

		ctx := c.Request.Context()
		userID, err := m.tokens.Verify(token)
		if err != nil {
			log := logutil.GetOrDefault(ctx)
			log.Debug().Err(err).Msg("token verification failed")
			apperr.Abort(c, errTokenFailed)
			return
		}

		user, err := m.credentials.Lookup(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				apperr.Abort(c, errTokenFailed)
				return
			}
			apperr.Abort(c, apperr.Internal("failed to load user", err))
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}
