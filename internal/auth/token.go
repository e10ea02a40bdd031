package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName はトークンを運ぶクッキー名です。
const CookieName = "jwt"

var (
	// ErrInvalidToken は署名不正・形式不正などで検証できないトークンです。
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrExpiredToken は有効期限切れのトークンです。
	ErrExpiredToken = errors.New("auth: token expired")
)

// Claims はトークンのペイロードです。永続化している User とは切り離しています。
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService は HS256 で署名したトークンを発行・検証し、クッキーに載せます。
type TokenService struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewTokenService は TokenService を作成します。secure はクッキーの Secure 属性です。
func NewTokenService(secret string, ttl time.Duration, secure bool) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// TTL はトークンの有効期間を返します。
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue は userID を埋め込んだトークンと、その有効期限を返します。
func (s *TokenService) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("auth: userID is required")
	}
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify はトークンを検証し、埋め込まれた userID を返します。
func (s *TokenService) Verify(tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// IssueCookie はトークンを発行し、HttpOnly クッキーとしてレスポンスに設定します。
func (s *TokenService) IssueCookie(w http.ResponseWriter, userID string) error {
	token, expiresAt, err := s.Issue(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// Revoke は空の値と過去の有効期限でクッキーを上書きします。
func (s *TokenService) Revoke(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
