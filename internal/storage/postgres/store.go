package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/storage"
)

// pgUniqueViolation PostgreSQL 唯一约束冲突错误码
const pgUniqueViolation = "23505"

// Store PostgreSQL 存储实现（基于 pgx 连接池）
type Store struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// NewStore 创建 PostgreSQL 存储
func NewStore(
	dsn string,
	maxOpenConns int,
	maxIdleConns int,
	connMaxLifetime time.Duration,
	queryTimeout time.Duration,
) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	poolConfig.MaxConns = int32(maxOpenConns)
	poolConfig.MinConns = int32(maxIdleConns)
	poolConfig.MaxConnLifetime = connMaxLifetime
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if queryTimeout <= 0 {
		queryTimeout = 10 * time.Second
	}

	store := &Store{
		pool:         pool,
		queryTimeout: queryTimeout,
	}

	if err := store.Migrate(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Migrate 创建缺失的表结构。
func (s *Store) Migrate() error {
	ctx, cancel := s.opCtx()
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS contact_messages (
			id         varchar(36) PRIMARY KEY,
			name       varchar(255) NOT NULL,
			email      varchar(255) NOT NULL,
			subject    varchar(500),
			message    text NOT NULL,
			is_read    boolean NOT NULL DEFAULT false,
			created_at timestamptz NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contact_messages_email ON contact_messages (email)`,
		`CREATE INDEX IF NOT EXISTS idx_contact_messages_is_read ON contact_messages (is_read)`,
		`CREATE TABLE IF NOT EXISTS newsletter_subscribers (
			id              varchar(36) PRIMARY KEY,
			email           varchar(255) NOT NULL UNIQUE,
			subscribed      boolean NOT NULL DEFAULT true,
			source          varchar(100),
			subscribed_at   timestamptz NOT NULL,
			unsubscribed_at timestamptz,
			updated_at      timestamptz NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_newsletter_subscribers_subscribed ON newsletter_subscribers (subscribed)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close 关闭数据库连接池
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Health 检查数据库健康状态
func (s *Store) Health() error {
	ctx, cancel := s.opCtx()
	defer cancel()
	return s.pool.Ping(ctx)
}

// SaveContactMessage 插入一条联系留言。
func (s *Store) SaveContactMessage(msg *domain.ContactMessage) error {
	ctx, cancel := s.opCtx()
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO contact_messages (id, name, email, subject, message, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.Name, msg.Email, msg.Subject, msg.Message, msg.Read, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}

// GetContactMessage 根据 ID 获取留言。
func (s *Store) GetContactMessage(id string) (*domain.ContactMessage, error) {
	ctx, cancel := s.opCtx()
	defer cancel()

	var msg domain.ContactMessage
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, COALESCE(subject, ''), message, is_read, created_at
		 FROM contact_messages WHERE id = $1`, id,
	).Scan(&msg.ID, &msg.Name, &msg.Email, &msg.Subject, &msg.Message, &msg.Read, &msg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query contact message: %w", err)
	}
	return &msg, nil
}

// GetSubscriberByEmail 按邮箱精确匹配查找订阅者。
func (s *Store) GetSubscriberByEmail(email string) (*domain.NewsletterSubscriber, error) {
	ctx, cancel := s.opCtx()
	defer cancel()

	var sub domain.NewsletterSubscriber
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, subscribed, COALESCE(source, ''), subscribed_at, unsubscribed_at, updated_at
		 FROM newsletter_subscribers WHERE email = $1`, email,
	).Scan(&sub.ID, &sub.Email, &sub.Subscribed, &sub.Source,
		&sub.SubscribedAt, &sub.UnsubscribedAt, &sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrSubscriberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query subscriber: %w", err)
	}
	return &sub, nil
}

// SaveSubscriber 插入新的订阅者。
//
// 唯一约束冲突翻译为 storage.ErrSubscriberExists，上层据此降级为更新分支。
func (s *Store) SaveSubscriber(sub *domain.NewsletterSubscriber) error {
	ctx, cancel := s.opCtx()
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO newsletter_subscribers (id, email, subscribed, source, subscribed_at, unsubscribed_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sub.ID, sub.Email, sub.Subscribed, sub.Source,
		sub.SubscribedAt, sub.UnsubscribedAt, sub.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return storage.ErrSubscriberExists
		}
		return fmt.Errorf("insert subscriber: %w", err)
	}
	return nil
}

// UpdateSubscriber 按 ID 更新订阅者状态。
func (s *Store) UpdateSubscriber(sub *domain.NewsletterSubscriber) error {
	ctx, cancel := s.opCtx()
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		`UPDATE newsletter_subscribers
		 SET subscribed = $1, source = $2, subscribed_at = $3, unsubscribed_at = $4, updated_at = $5
		 WHERE id = $6`,
		sub.Subscribed, sub.Source, sub.SubscribedAt, sub.UnsubscribedAt, sub.UpdatedAt, sub.ID,
	)
	if err != nil {
		return fmt.Errorf("update subscriber: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrSubscriberNotFound
	}
	return nil
}

// opCtx 返回带查询超时的上下文。
func (s *Store) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.queryTimeout)
}
