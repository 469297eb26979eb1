package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/storage"
)

// ErrNotSubscribed 退订请求指向不存在或已退订的邮箱
var ErrNotSubscribed = errors.New("email is not subscribed")

// SubscriptionOutcome 一次订阅请求的结果分支。
type SubscriptionOutcome string

const (
	// OutcomeSubscribed 新建订阅
	OutcomeSubscribed SubscriptionOutcome = "subscribed"
	// OutcomeAlreadySubscribed 已处于订阅状态，未做修改
	OutcomeAlreadySubscribed SubscriptionOutcome = "already_subscribed"
	// OutcomeResubscribed 从退订状态恢复订阅
	OutcomeResubscribed SubscriptionOutcome = "resubscribed"
)

// SubscriptionResult 订阅操作的结果。
type SubscriptionResult struct {
	Outcome    SubscriptionOutcome
	Subscriber *domain.NewsletterSubscriber
}

// NewsletterService 封装订阅者的状态机操作。
//
// 订阅采用先读后分支的 upsert：不存在则插入，已订阅则不动，
// 已退订则恢复。并发插入竞争由存储层的邮箱唯一约束兜底，
// 输掉竞争的一方降级为更新分支而不是报错。
type NewsletterService struct {
	repo storage.SubscriberRepository
	log  *zap.Logger
}

// NewNewsletterService 创建订阅服务。
func NewNewsletterService(repo storage.SubscriberRepository, log *zap.Logger) *NewsletterService {
	return &NewsletterService{repo: repo, log: log}
}

// Subscribe 处理一次订阅请求，按邮箱精确匹配。
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (*SubscriptionResult, error) {
	if err := domain.ValidateNewsletterEmail(email); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetSubscriberByEmail(email)
	switch {
	case err == nil:
		return s.reactivate(existing)

	case errors.Is(err, storage.ErrSubscriberNotFound):
		now := time.Now().UTC()
		sub := &domain.NewsletterSubscriber{
			ID:           uuid.NewString(),
			Email:        email,
			Subscribed:   true,
			Source:       domain.SubscriberSourceWebsite,
			SubscribedAt: now,
			UpdatedAt:    now,
		}
		if err := s.repo.SaveSubscriber(sub); err != nil {
			if errors.Is(err, storage.ErrSubscriberExists) {
				// 输掉了并发插入竞争：行已存在，改走更新分支
				existing, rerr := s.repo.GetSubscriberByEmail(email)
				if rerr != nil {
					return nil, fmt.Errorf("reload subscriber after conflict: %w", rerr)
				}
				return s.reactivate(existing)
			}
			s.log.Error("failed to store subscriber", zap.Error(err))
			return nil, fmt.Errorf("store subscriber: %w", err)
		}
		s.log.Info("newsletter subscription stored",
			zap.String("subscriber_id", sub.ID),
			zap.String("email", sub.Email),
		)
		return &SubscriptionResult{Outcome: OutcomeSubscribed, Subscriber: sub}, nil

	default:
		s.log.Error("failed to look up subscriber", zap.Error(err))
		return nil, fmt.Errorf("lookup subscriber: %w", err)
	}
}

// reactivate 处理已有行：已订阅不动，已退订恢复。
func (s *NewsletterService) reactivate(sub *domain.NewsletterSubscriber) (*SubscriptionResult, error) {
	if sub.Subscribed {
		return &SubscriptionResult{Outcome: OutcomeAlreadySubscribed, Subscriber: sub}, nil
	}

	sub.Subscribed = true
	sub.UnsubscribedAt = nil
	sub.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateSubscriber(sub); err != nil {
		s.log.Error("failed to re-subscribe", zap.Error(err))
		return nil, fmt.Errorf("re-subscribe: %w", err)
	}
	s.log.Info("subscriber re-subscribed", zap.String("subscriber_id", sub.ID))
	return &SubscriptionResult{Outcome: OutcomeResubscribed, Subscriber: sub}, nil
}

// Unsubscribe 将订阅者转为退订状态。
//
// 邮箱不存在或已经退订时返回 ErrNotSubscribed。
func (s *NewsletterService) Unsubscribe(ctx context.Context, email string) (*domain.NewsletterSubscriber, error) {
	if err := domain.ValidateNewsletterEmail(email); err != nil {
		return nil, err
	}

	sub, err := s.repo.GetSubscriberByEmail(email)
	if errors.Is(err, storage.ErrSubscriberNotFound) {
		return nil, ErrNotSubscribed
	}
	if err != nil {
		s.log.Error("failed to look up subscriber", zap.Error(err))
		return nil, fmt.Errorf("lookup subscriber: %w", err)
	}
	if !sub.Subscribed {
		return nil, ErrNotSubscribed
	}

	now := time.Now().UTC()
	sub.Subscribed = false
	sub.UnsubscribedAt = &now
	sub.UpdatedAt = now

	if err := s.repo.UpdateSubscriber(sub); err != nil {
		s.log.Error("failed to unsubscribe", zap.Error(err))
		return nil, fmt.Errorf("unsubscribe: %w", err)
	}
	s.log.Info("subscriber unsubscribed", zap.String("subscriber_id", sub.ID))
	return sub, nil
}
