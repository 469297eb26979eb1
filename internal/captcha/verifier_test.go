package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"portfolio/backend/internal/config"
)

func newTestVerifier(t *testing.T, handler http.HandlerFunc) (Verifier, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	v := New(config.CaptchaConfig{
		SecretKey:      "test-secret",
		VerifyURL:      server.URL,
		ScoreThreshold: 0.5,
		Timeout:        2 * time.Second,
	}, zap.NewNop())
	return v, server
}

func TestNew_DisabledWhenUnconfigured(t *testing.T) {
	t.Run("空密钥禁用验证", func(t *testing.T) {
		v := New(config.CaptchaConfig{SecretKey: ""}, zap.NewNop())

		assert.True(t, v.Verify(context.Background(), "any-token", "1.2.3.4"))
		assert.True(t, v.Verify(context.Background(), "", ""))
	})

	t.Run("占位密钥禁用验证", func(t *testing.T) {
		v := New(config.CaptchaConfig{SecretKey: config.PlaceholderCaptchaSecret}, zap.NewNop())

		assert.True(t, v.Verify(context.Background(), "any-token", ""))
	})
}

func TestSiteVerifier_Verify(t *testing.T) {
	t.Run("成功且分数达标通过", func(t *testing.T) {
		v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "test-secret", r.PostFormValue("secret"))
			assert.Equal(t, "token-123", r.PostFormValue("response"))
			assert.Equal(t, "1.2.3.4", r.PostFormValue("remoteip"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success": true, "score": 0.9}`))
		})

		assert.True(t, v.Verify(context.Background(), "token-123", "1.2.3.4"))
	})

	t.Run("分数低于阈值拒绝", func(t *testing.T) {
		v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": true, "score": 0.3}`))
		})

		assert.False(t, v.Verify(context.Background(), "token-123", ""))
	})

	t.Run("分数等于阈值通过", func(t *testing.T) {
		v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": true, "score": 0.5}`))
		})

		assert.True(t, v.Verify(context.Background(), "token-123", ""))
	})

	t.Run("success为false拒绝", func(t *testing.T) {
		v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": false, "score": 0.9, "error-codes": ["invalid-input-response"]}`))
		})

		assert.False(t, v.Verify(context.Background(), "bad-token", ""))
	})

	t.Run("非200状态拒绝", func(t *testing.T) {
		v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		assert.False(t, v.Verify(context.Background(), "token-123", ""))
	})

	t.Run("响应非JSON拒绝", func(t *testing.T) {
		v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		})

		assert.False(t, v.Verify(context.Background(), "token-123", ""))
	})

	t.Run("传输失败拒绝", func(t *testing.T) {
		v, server := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {})
		server.Close()

		assert.False(t, v.Verify(context.Background(), "token-123", ""))
	})

	t.Run("上下文取消拒绝", func(t *testing.T) {
		v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": true, "score": 0.9}`))
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.False(t, v.Verify(ctx, "token-123", ""))
	})
}
