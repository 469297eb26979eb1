package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio/backend/internal/captcha"
	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/notify"
	"portfolio/backend/internal/storage"
)

// ErrCaptchaFailed 人机验证未通过
var ErrCaptchaFailed = errors.New("captcha verification failed")

// Dispatcher 异步任务调度能力（由 pool.WorkerPool 满足）。
type Dispatcher interface {
	TrySubmit(task func()) bool
}

// ContactService 封装联系留言的入站管道：
// 校验 → 人机验证（仅当请求携带 token）→ 持久化 → 异步通知。
type ContactService struct {
	repo     storage.ContactMessageRepository
	verifier captcha.Verifier
	notifier notify.Notifier
	dispatch Dispatcher
	log      *zap.Logger
}

// NewContactService 创建联系留言服务。
func NewContactService(
	repo storage.ContactMessageRepository,
	verifier captcha.Verifier,
	notifier notify.Notifier,
	dispatch Dispatcher,
	log *zap.Logger,
) *ContactService {
	return &ContactService{
		repo:     repo,
		verifier: verifier,
		notifier: notifier,
		dispatch: dispatch,
		log:      log,
	}
}

// SubmitContactInput 定义提交联系留言所需的输入。
type SubmitContactInput struct {
	Name           string
	Email          string
	Subject        string
	Message        string
	RecaptchaToken string
	RemoteIP       string
}

// Submit 处理一次联系表单提交。
//
// 请求未携带 token 时跳过人机验证（按请求可选，而非强制）；
// 持久化失败原样返回且不触发通知；通知在留言落库后异步投递，
// 其结果不影响返回值。
func (s *ContactService) Submit(ctx context.Context, input SubmitContactInput) (*domain.ContactMessage, error) {
	if err := domain.ValidateContact(input.Name, input.Email, input.Message); err != nil {
		return nil, err
	}

	if input.RecaptchaToken != "" {
		if !s.verifier.Verify(ctx, input.RecaptchaToken, input.RemoteIP) {
			return nil, ErrCaptchaFailed
		}
	}

	msg := &domain.ContactMessage{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Email:     input.Email,
		Subject:   input.Subject,
		Message:   input.Message,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.SaveContactMessage(msg); err != nil {
		s.log.Error("failed to store contact message", zap.Error(err))
		return nil, fmt.Errorf("store contact message: %w", err)
	}

	s.dispatchNotification(msg)

	s.log.Info("contact message stored",
		zap.String("message_id", msg.ID),
		zap.String("email", msg.Email),
	)
	return msg, nil
}

// dispatchNotification 异步投递通知，队列已满时丢弃并记录。
func (s *ContactService) dispatchNotification(msg *domain.ContactMessage) {
	submitted := s.dispatch.TrySubmit(func() {
		if err := s.notifier.Notify(msg); err != nil {
			s.log.Warn("contact notification delivery failed",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	})
	if !submitted {
		s.log.Warn("notification queue full, dropping notification",
			zap.String("message_id", msg.ID),
		)
	}
}
