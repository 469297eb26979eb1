package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"portfolio/backend/internal/captcha"
	"portfolio/backend/internal/config"
	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/service"
	"portfolio/backend/internal/storage"
	"portfolio/backend/internal/storage/memory"
)

// passVerifier 恒通过的验证器。
type passVerifier struct{}

func (passVerifier) Verify(ctx context.Context, token, remoteIP string) bool { return true }

// denyVerifier 恒拒绝的验证器。
type denyVerifier struct{}

func (denyVerifier) Verify(ctx context.Context, token, remoteIP string) bool { return false }

// noopNotifier 丢弃所有通知。
type noopNotifier struct{}

func (noopNotifier) Notify(msg *domain.ContactMessage) error { return nil }

// syncDispatcher 同步执行任务。
type syncDispatcher struct{}

func (syncDispatcher) TrySubmit(task func()) bool {
	task()
	return true
}

// brokenMessageRepo 持久化必定失败。
type brokenMessageRepo struct{}

func (brokenMessageRepo) SaveContactMessage(msg *domain.ContactMessage) error {
	return errors.New("disk on fire")
}

func (brokenMessageRepo) GetContactMessage(id string) (*domain.ContactMessage, error) {
	return nil, errors.New("disk on fire")
}

func newTestRouter(t *testing.T, contactRepo storage.ContactMessageRepository, store *memory.Store, deny bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	cfg := &config.Config{
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 0}, // 测试关闭限流
	}

	if contactRepo == nil {
		contactRepo = store
	}

	var verifier captcha.Verifier = passVerifier{}
	if deny {
		verifier = denyVerifier{}
	}

	contacts := service.NewContactService(contactRepo, verifier, noopNotifier{}, syncDispatcher{}, log)
	newsletter := service.NewNewsletterService(store, log)

	return NewRouter(RouterDependencies{
		Config:            cfg,
		ContactService:    contacts,
		NewsletterService: newsletter,
		Logger:            log,
	})
}

func doJSON(router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSubmitContact(t *testing.T) {
	validPayload := map[string]string{
		"name":    "Alice",
		"email":   "alice@example.com",
		"subject": "Project inquiry",
		"message": "I would like to discuss a project with you.",
	}

	t.Run("有效提交返回201", func(t *testing.T) {
		store := memory.NewStore()
		router := newTestRouter(t, nil, store, false)

		w := doJSON(router, "/api/contact", validPayload)

		assert.Equal(t, http.StatusCreated, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Message sent successfully", body["message"])

		data := body["data"].(map[string]any)
		assert.NotEmpty(t, data["id"])
		assert.Equal(t, false, data["read"])
		assert.Equal(t, "alice@example.com", data["email"])

		// 留言已落库
		stored, err := store.GetContactMessage(data["id"].(string))
		assert.NoError(t, err)
		assert.Equal(t, "Alice", stored.Name)
	})

	t.Run("请求体非JSON返回400", func(t *testing.T) {
		router := newTestRouter(t, nil, memory.NewStore(), false)

		req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewReader([]byte("not json")))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request body", decodeBody(t, w)["error"])
	})

	t.Run("缺少必填字段返回400", func(t *testing.T) {
		router := newTestRouter(t, nil, memory.NewStore(), false)

		w := doJSON(router, "/api/contact", map[string]string{"email": "alice@example.com"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Name, email, and message are required", decodeBody(t, w)["error"])
	})

	t.Run("邮箱格式非法返回400", func(t *testing.T) {
		router := newTestRouter(t, nil, memory.NewStore(), false)

		payload := map[string]string{}
		for k, v := range validPayload {
			payload[k] = v
		}
		payload["email"] = "not-an-email"

		w := doJSON(router, "/api/contact", payload)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid email format", decodeBody(t, w)["error"])
	})

	t.Run("留言过短返回400", func(t *testing.T) {
		router := newTestRouter(t, nil, memory.NewStore(), false)

		payload := map[string]string{}
		for k, v := range validPayload {
			payload[k] = v
		}
		payload["message"] = "too short"

		w := doJSON(router, "/api/contact", payload)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Message must be at least 10 characters", decodeBody(t, w)["error"])
	})

	t.Run("人机验证失败返回400", func(t *testing.T) {
		router := newTestRouter(t, nil, memory.NewStore(), true)

		payload := map[string]string{}
		for k, v := range validPayload {
			payload[k] = v
		}
		payload["recaptchaToken"] = "bad-token"

		w := doJSON(router, "/api/contact", payload)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "reCAPTCHA verification failed", decodeBody(t, w)["error"])
	})

	t.Run("无token时验证器不拦截", func(t *testing.T) {
		router := newTestRouter(t, nil, memory.NewStore(), true)

		w := doJSON(router, "/api/contact", validPayload)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("存储失败返回500", func(t *testing.T) {
		router := newTestRouter(t, brokenMessageRepo{}, memory.NewStore(), false)

		w := doJSON(router, "/api/contact", validPayload)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to store message", decodeBody(t, w)["error"])
	})
}

func TestSubscribe(t *testing.T) {
	t.Run("新邮箱返回201", func(t *testing.T) {
		router := newTestRouter(t, nil, memory.NewStore(), false)

		w := doJSON(router, "/api/newsletter", map[string]string{"email": "reader@example.com"})

		assert.Equal(t, http.StatusCreated, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Successfully subscribed to newsletter", body["message"])

		data := body["data"].(map[string]any)
		assert.Equal(t, "reader@example.com", data["email"])
		assert.Equal(t, true, data["subscribed"])
	})

	t.Run("重复订阅返回200", func(t *testing.T) {
		router := newTestRouter(t, nil, memory.NewStore(), false)

		payload := map[string]string{"email": "reader@example.com"}
		first := doJSON(router, "/api/newsletter", payload)
		assert.Equal(t, http.StatusCreated, first.Code)

		second := doJSON(router, "/api/newsletter", payload)
		assert.Equal(t, http.StatusOK, second.Code)
		body := decodeBody(t, second)
		assert.Equal(t, "Email is already subscribed", body["message"])
		assert.NotContains(t, body, "data")
	})

	t.Run("退订后再订阅返回200", func(t *testing.T) {
		router := newTestRouter(t, nil, memory.NewStore(), false)

		payload := map[string]string{"email": "reader@example.com"}
		assert.Equal(t, http.StatusCreated, doJSON(router, "/api/newsletter", payload).Code)
		assert.Equal(t, http.StatusOK, doJSON(router, "/api/newsletter/unsubscribe", payload).Code)

		w := doJSON(router, "/api/newsletter", payload)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Successfully re-subscribed to newsletter", decodeBody(t, w)["message"])
	})

	t.Run("邮箱为空返回400", func(t *testing.T) {
		store := memory.NewStore()
		router := newTestRouter(t, nil, store, false)

		w := doJSON(router, "/api/newsletter", map[string]string{"email": ""})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Email is required", decodeBody(t, w)["error"])
	})

	t.Run("邮箱格式非法返回400且不落库", func(t *testing.T) {
		store := memory.NewStore()
		router := newTestRouter(t, nil, store, false)

		w := doJSON(router, "/api/newsletter", map[string]string{"email": "not-an-email"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid email format", decodeBody(t, w)["error"])

		_, err := store.GetSubscriberByEmail("not-an-email")
		assert.ErrorIs(t, err, storage.ErrSubscriberNotFound)
	})
}

func TestUnsubscribe(t *testing.T) {
	t.Run("退订已订阅邮箱返回200", func(t *testing.T) {
		router := newTestRouter(t, nil, memory.NewStore(), false)

		payload := map[string]string{"email": "reader@example.com"}
		assert.Equal(t, http.StatusCreated, doJSON(router, "/api/newsletter", payload).Code)

		w := doJSON(router, "/api/newsletter/unsubscribe", payload)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Successfully unsubscribed from newsletter", decodeBody(t, w)["message"])
	})

	t.Run("未订阅邮箱返回404", func(t *testing.T) {
		router := newTestRouter(t, nil, memory.NewStore(), false)

		w := doJSON(router, "/api/newsletter/unsubscribe", map[string]string{"email": "missing@example.com"})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Email is not subscribed", decodeBody(t, w)["error"])
	})

	t.Run("重复退订返回404", func(t *testing.T) {
		router := newTestRouter(t, nil, memory.NewStore(), false)

		payload := map[string]string{"email": "reader@example.com"}
		assert.Equal(t, http.StatusCreated, doJSON(router, "/api/newsletter", payload).Code)
		assert.Equal(t, http.StatusOK, doJSON(router, "/api/newsletter/unsubscribe", payload).Code)

		w := doJSON(router, "/api/newsletter/unsubscribe", payload)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("邮箱格式非法返回400", func(t *testing.T) {
		router := newTestRouter(t, nil, memory.NewStore(), false)

		w := doJSON(router, "/api/newsletter/unsubscribe", map[string]string{"email": "not-an-email"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid email format", decodeBody(t, w)["error"])
	})
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, nil, memory.NewStore(), false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}
