package storage

import (
	"errors"

	"portfolio/backend/internal/domain"
)

var (
	// ErrMessageNotFound 留言未找到错误
	ErrMessageNotFound = errors.New("contact message not found")
	// ErrSubscriberNotFound 订阅者未找到错误
	ErrSubscriberNotFound = errors.New("subscriber not found")
	// ErrSubscriberExists 订阅者邮箱已存在错误（违反唯一约束）
	ErrSubscriberExists = errors.New("subscriber already exists")
)

// ContactMessageRepository 定义联系留言数据存取操作。
//
// SaveContactMessage 是入站管道唯一的写入点：任何持久化失败都必须
// 原样返回给调用方，这条路径不允许静默丢失。
type ContactMessageRepository interface {
	SaveContactMessage(msg *domain.ContactMessage) error
	GetContactMessage(id string) (*domain.ContactMessage, error)
}

// SubscriberRepository 定义订阅者数据存取操作。
//
// 邮箱唯一性由存储层约束兜底：SaveSubscriber 在邮箱已存在时
// 返回 ErrSubscriberExists，上层据此降级为更新分支。
type SubscriberRepository interface {
	GetSubscriberByEmail(email string) (*domain.NewsletterSubscriber, error)
	SaveSubscriber(sub *domain.NewsletterSubscriber) error
	UpdateSubscriber(sub *domain.NewsletterSubscriber) error
}

// Store 聚合入站管道依赖的全部存储能力。
type Store interface {
	ContactMessageRepository
	SubscriberRepository

	Close() error
	Health() error
}
