package auth

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/whoabuu/task-manager/internal/apperr"
	"github.com/whoabuu/task-manager/internal/httpx"
	"github.com/whoabuu/task-manager/internal/logutil"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register は POST /api/auth/register のハンドラーを返します。
// 作成に成功するとクッキーを発行し 201 を返します。
func (m *Manager) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := httpx.BindJSON(c, &req, false); err != nil {
			apperr.Respond(c, err)
			return
		}

		user, err := m.credentials.Register(c.Request.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			apperr.Respond(c, err)
			return
		}

		if err := m.tokens.IssueCookie(c.Writer, user.ID); err != nil {
			apperr.Respond(c, apperr.Internal("failed to issue token", err))
			return
		}

		log := logutil.GetOrDefault(c.Request.Context())
		log.Info().
			Str("user_id", user.ID).
			Msg("user registered")
		c.JSON(http.StatusCreated, toUserResponse(user))
	}
}

// Login は POST /api/auth/login のハンドラーを返します。
// クライアント IP ごとに失敗回数を数え、上限に達した場合は 429 を返します。
func (m *Manager) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := logutil.GetOrDefault(ctx)
		clientKey := c.ClientIP()

		retryAfter, err := m.limiter.Check(ctx, clientKey)
		if err != nil {
			// 制限の保存先に障害があってもログイン自体は止めない
			log.Warn().Err(err).Msg("login limiter check failed")
		}
		if retryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			apperr.Respond(c, apperr.TooManyRequests("Too many login attempts. Please try again later."))
			return
		}

		var req loginRequest
		if err := httpx.BindJSON(c, &req, false); err != nil {
			apperr.Respond(c, err)
			return
		}

		user, err := m.credentials.Verify(ctx, req.Email, req.Password)
		if err != nil {
			if apperr.KindOf(err) != apperr.KindAuthentication {
				apperr.Respond(c, err)
				return
			}

			remaining, failErr := m.limiter.Fail(ctx, clientKey)
			if failErr != nil {
				log.Warn().Err(failErr).Msg("login limiter update failed")
				apperr.Respond(c, err)
				return
			}
			log.Info().Str("client_ip", clientKey).Int("remaining_attempts", remaining).Msg("login failed")

			body := apperr.Body(errInvalidCredentials.Code, errInvalidCredentials.Message)
			body["remainingAttempts"] = remaining
			c.JSON(http.StatusUnauthorized, body)
			return
		}

		if err := m.limiter.Reset(ctx, clientKey); err != nil {
			log.Warn().Err(err).Msg("login limiter reset failed")
		}

		if err := m.tokens.IssueCookie(c.Writer, user.ID); err != nil {
			apperr.Respond(c, apperr.Internal("failed to issue token", err))
			return
		}

		log.Info().Str("user_id", user.ID).Msg("user logged in")
		c.JSON(http.StatusOK, toUserResponse(user))
	}
}

// Logout は POST /api/auth/logout のハンドラーを返します。クッキーを失効させるだけで、認証は不要です。
func (m *Manager) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.tokens.Revoke(c.Writer)
		c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
	}
}

// Me は GET /api/auth/me のハンドラーを返します。RequireLogin の後段で使います。
func (m *Manager) Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			apperr.Respond(c, errNoToken)
			return
		}
		c.JSON(http.StatusOK, toUserResponse(user))
	}
}
