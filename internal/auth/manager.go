// Package auth は認証・認可機能を提供します。
//
// - Credentials: ユーザー登録と bcrypt によるパスワード照合
// - TokenService: JWT の発行・検証と HttpOnly クッキーの設定
// - Manager: /api/auth/* のハンドラーと、クッキーを検証するミドルウェア
// - AttemptLimiter: IP ごとのログイン試行回数制限（5回/15分、ロック10分）
package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/whoabuu/task-manager/internal/store"
)

// ContextUserKey は、ハンドラー間でログイン済みユーザーを共有するためのキーです。
const ContextUserKey = "auth.user"

// Manager は認証処理に必要な部品をまとめた構造体です。
// リクエスト間で共有する可変状態は limiter だけです。
type Manager struct {
	credentials *Credentials
	tokens      *TokenService
	limiter     AttemptLimiter
}

// NewManager は認証マネージャーを作成します。limiter が nil の場合はメモリ上で数えます。
func NewManager(credentials *Credentials, tokens *TokenService, limiter AttemptLimiter) (*Manager, error) {
	if credentials == nil {
		return nil, errors.New("credentials is nil")
	}
	if tokens == nil {
		return nil, errors.New("token service is nil")
	}
	if limiter == nil {
		limiter = NewMemoryLimiter()
	}
	return &Manager{
		credentials: credentials,
		tokens:      tokens,
		limiter:     limiter,
	}, nil
}

// CurrentUser は RequireLogin が設定したユーザーを返します。
func CurrentUser(c *gin.Context) (*store.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*store.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u *store.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}
