package memory

import (
	"sync"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/storage"
)

// Store 使用内存保存留言与订阅者数据，主要用于开发验证和测试。
type Store struct {
	mu          sync.RWMutex
	messages    map[string]*domain.ContactMessage      // messageID -> message
	subscribers map[string]*domain.NewsletterSubscriber // subscriberID -> subscriber
	byEmail     map[string]string                      // email -> subscriberID
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		messages:    make(map[string]*domain.ContactMessage),
		subscribers: make(map[string]*domain.NewsletterSubscriber),
		byEmail:     make(map[string]string),
	}
}

// SaveContactMessage 保存一条联系留言。
func (s *Store) SaveContactMessage(msg *domain.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *msg
	s.messages[msg.ID] = &clone
	return nil
}

// GetContactMessage 根据 ID 获取留言。
func (s *Store) GetContactMessage(id string) (*domain.ContactMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, storage.ErrMessageNotFound
	}
	clone := *msg
	return &clone, nil
}

// GetSubscriberByEmail 按邮箱精确匹配查找订阅者。
func (s *Store) GetSubscriberByEmail(email string) (*domain.NewsletterSubscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, storage.ErrSubscriberNotFound
	}
	return cloneSubscriber(s.subscribers[id]), nil
}

// SaveSubscriber 插入新的订阅者，邮箱已存在时返回 ErrSubscriberExists。
func (s *Store) SaveSubscriber(sub *domain.NewsletterSubscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[sub.Email]; exists {
		return storage.ErrSubscriberExists
	}

	s.subscribers[sub.ID] = cloneSubscriber(sub)
	s.byEmail[sub.Email] = sub.ID
	return nil
}

// UpdateSubscriber 按 ID 覆盖已有订阅者。
func (s *Store) UpdateSubscriber(sub *domain.NewsletterSubscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.subscribers[sub.ID]
	if !ok {
		return storage.ErrSubscriberNotFound
	}

	// 邮箱是不可变主键的镜像索引，保持一致
	if existing.Email != sub.Email {
		delete(s.byEmail, existing.Email)
		s.byEmail[sub.Email] = sub.ID
	}

	s.subscribers[sub.ID] = cloneSubscriber(sub)
	return nil
}

// Close 关闭存储（内存实现为空操作）。
func (s *Store) Close() error { return nil }

// Health 检查存储健康状态（内存实现恒为健康）。
func (s *Store) Health() error { return nil }

// cloneSubscriber 深拷贝订阅者，避免调用方与存储共享可变状态。
func cloneSubscriber(sub *domain.NewsletterSubscriber) *domain.NewsletterSubscriber {
	clone := *sub
	if sub.UnsubscribedAt != nil {
		t := *sub.UnsubscribedAt
		clone.UnsubscribedAt = &t
	}
	return &clone
}
