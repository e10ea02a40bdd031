// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// データストア設定
	DatabaseURL   string // mongodb://, mongodb+srv:// または sqlite://<path>
	MongoDatabase string // URI にデータベース名が無い場合に使う名前

	// 認証設定
	JWTSecret  string        // トークン署名用の秘密鍵
	TokenTTL   time.Duration // トークンとクッキーの有効期間
	BcryptCost int           // パスワードハッシュのコスト

	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	ClientURL string // CORS許可オリジン（カンマ区切り）

	// ログイン試行制限（空ならプロセス内で保持）
	RedisURL string

	LogLevel string
}

// Load は環境変数から設定を読み込みます。
// .env ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL == "" {
		// 旧来の変数名との互換
		databaseURL = getEnv("MONGO_URI", "")
	}

	config := &Config{
		DatabaseURL:   databaseURL,
		MongoDatabase: getEnv("MONGO_DATABASE", "taskmanager"),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		TokenTTL:   time.Duration(getEnvAsInt("TOKEN_TTL_HOURS", 7*24)) * time.Hour,
		BcryptCost: getEnvAsInt("BCRYPT_COST", 10),

		Port:    getEnv("PORT", "3000"),
		GinMode: getEnv("GIN_MODE", "debug"),

		ClientURL: getEnv("CLIENT_URL", "http://localhost:5173"),

		RedisURL: getEnv("REDIS_URL", ""),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL (or MONGO_URI) is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE must be one of debug, release, test: got %q", c.GinMode)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL_HOURS must be positive")
	}
	// bcrypt.MinCost / bcrypt.MaxCost
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31: got %d", c.BcryptCost)
	}
	return nil
}

// SecureCookies はクッキーに Secure 属性を付けるべきかを返します。
// ローカル開発（debug/test）では HTTP で動かすため付けません。
func (c *Config) SecureCookies() bool {
	return c.GinMode == "release"
}

// AllowedOrigins は CLIENT_URL をオリジンの配列に変換します。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, p := range strings.Split(c.ClientURL, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
