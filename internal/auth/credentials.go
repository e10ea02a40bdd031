package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/whoabuu/task-manager/internal/apperr"
	"github.com/whoabuu/task-manager/internal/store"
)

// DefaultBcryptCost はパスワードハッシュの既定コストです。
const DefaultBcryptCost = 10

var (
	errInvalidCredentials = apperr.Authentication("INVALID_CREDENTIALS", "Invalid email or password")
	// bcrypt は 72 バイトを超えるパスワードを扱えない
	errPasswordTooLong = apperr.Validation("Password must be at most 72 bytes")
)

// Credentials はユーザー登録とパスワード照合を担います。
type Credentials struct {
	users store.UserRepository
	cost  int
	// dummyHash は存在しないメールアドレスでも同じコストの照合を行うためのハッシュです。
	dummyHash []byte
}

// NewCredentials は Credentials を作成します。
func NewCredentials(users store.UserRepository, cost int) (*Credentials, error) {
	if users == nil {
		return nil, errors.New("users repository is nil")
	}
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("task-manager-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &Credentials{
		users:     users,
		cost:      cost,
		dummyHash: dummy,
	}, nil
}

// NormalizeEmail は比較・保存に使う形へメールアドレスを正規化します。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword はランダムなソルト付きで bcrypt ハッシュを生成します。
func (c *Credentials) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Register はユーザーを作成します。返り値の PasswordHash は空にしてあります。
func (c *Credentials) Register(ctx context.Context, name, email, password string) (*store.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, apperr.Validation("Please provide all required fields")
	}

	if _, err := c.users.FindUserByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("User already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal("failed to look up user", err)
	}

	hash, err := c.HashPassword(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, errPasswordTooLong
		}
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &store.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := c.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, apperr.Conflict("User already exists")
		}
		return nil, apperr.Internal("failed to create user", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// Verify はメールアドレスとパスワードを照合します。
// ユーザーが存在しない場合もパスワード不一致と同じエラーを返します。
func (c *Credentials) Verify(ctx context.Context, email, password string) (*store.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Please provide email and password")
	}

	user, err := c.users.FindUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Internal("failed to look up user", err)
		}
		_ = bcrypt.CompareHashAndPassword(c.dummyHash, []byte(password))
		return nil, errInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errInvalidCredentials
	}

	user.PasswordHash = ""
	return user, nil
}

// Lookup は ID でユーザーを取得します。存在しない場合は store.ErrNotFound です。
func (c *Credentials) Lookup(ctx context.Context, id string) (*store.User, error) {
	user, err := c.users.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}
