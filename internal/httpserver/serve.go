// Package httpserver は HTTP サーバーの起動とグレースフルシャットダウンを扱います。
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/whoabuu/task-manager/internal/logutil"
)

// Options はサーバーのタイムアウト設定です。
type Options struct {
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	// ShutdownTimeout は処理中のリクエストを待つ上限です。
	ShutdownTimeout time.Duration
}

// DefaultOptions は API サーバーの既定値を返します。
func DefaultOptions() Options {
	return Options{
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		ShutdownTimeout:   time.Minute,
	}
}

// Serve は bind で待ち受け、ctx がキャンセルされるまで handler を提供します。
func Serve(ctx context.Context, bind string, handler http.Handler) error {
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("httpserver: listen %s: %w", bind, err)
	}
	return ServeListener(ctx, ln, handler, DefaultOptions())
}

// ServeListener は ln 上で handler を提供します。
// ctx のキャンセル後は新規接続を止め、ShutdownTimeout まで処理中のリクエストを待ちます。
// 正常に停止した場合は nil を返します。
func ServeListener(ctx context.Context, ln net.Listener, handler http.Handler, opts Options) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		ReadTimeout:       opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
	}
	log := logutil.GetOrDefault(ctx).With().Str("server.addr", ln.Addr().String()).Logger()

	served := make(chan error, 1)
	go func() {
		log.Info().Msg("HTTP server listening")
		served <- srv.Serve(ln)
	}()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", opts.ShutdownTimeout).Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpserver: shutdown: %w", err)
	}
	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info().Msg("HTTP server stopped")
	return nil
}
