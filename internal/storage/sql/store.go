package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/storage"
)

// mysqlDuplicateEntry MySQL 唯一约束冲突错误码
const mysqlDuplicateEntry = 1062

// Store MySQL 数据库存储实现
//
// 查询走 database/sql，GORM 仅用于根据领域模型自动迁移表结构。
type Store struct {
	db           *sql.DB
	gormDB       *gorm.DB // GORM 实例，用于迁移
	queryTimeout time.Duration
}

// NewStore 创建 MySQL 数据库存储
func NewStore(
	dsn string,
	maxOpenConns int,
	maxIdleConns int,
	connMaxLifetime time.Duration,
	queryTimeout time.Duration,
) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormDB, err := gorm.Open(mysql.New(mysql.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize GORM: %w", err)
	}

	if queryTimeout <= 0 {
		queryTimeout = 10 * time.Second
	}

	store := &Store{
		db:           db,
		gormDB:       gormDB,
		queryTimeout: queryTimeout,
	}

	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Migrate 执行数据库迁移（使用 GORM AutoMigrate）
func (s *Store) Migrate() error {
	return s.gormDB.AutoMigrate(
		&domain.ContactMessage{},
		&domain.NewsletterSubscriber{},
	)
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Health 检查数据库健康状态
func (s *Store) Health() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	ctx, cancel := s.opCtx()
	defer cancel()
	return s.db.PingContext(ctx)
}

// SaveContactMessage 插入一条联系留言。
func (s *Store) SaveContactMessage(msg *domain.ContactMessage) error {
	ctx, cancel := s.opCtx()
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contact_messages (id, name, email, subject, message, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
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
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, subject, message, is_read, created_at
		 FROM contact_messages WHERE id = ?`, id,
	).Scan(&msg.ID, &msg.Name, &msg.Email, &msg.Subject, &msg.Message, &msg.Read, &msg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
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
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, subscribed, source, subscribed_at, unsubscribed_at, updated_at
		 FROM newsletter_subscribers WHERE email = ?`, email,
	).Scan(&sub.ID, &sub.Email, &sub.Subscribed, &sub.Source,
		&sub.SubscribedAt, &sub.UnsubscribedAt, &sub.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSubscriberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query subscriber: %w", err)
	}
	return &sub, nil
}

// SaveSubscriber 插入新的订阅者。
//
// 邮箱唯一索引冲突被翻译成 storage.ErrSubscriberExists，
// 供上层在并发订阅竞争中降级为更新分支。
func (s *Store) SaveSubscriber(sub *domain.NewsletterSubscriber) error {
	ctx, cancel := s.opCtx()
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO newsletter_subscribers (id, email, subscribed, source, subscribed_at, unsubscribed_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Email, sub.Subscribed, sub.Source,
		sub.SubscribedAt, sub.UnsubscribedAt, sub.UpdatedAt,
	)
	if err != nil {
		var mysqlErr *gomysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
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

	res, err := s.db.ExecContext(ctx,
		`UPDATE newsletter_subscribers
		 SET subscribed = ?, source = ?, subscribed_at = ?, unsubscribed_at = ?, updated_at = ?
		 WHERE id = ?`,
		sub.Subscribed, sub.Source, sub.SubscribedAt, sub.UnsubscribedAt, sub.UpdatedAt, sub.ID,
	)
	if err != nil {
		return fmt.Errorf("update subscriber: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return storage.ErrSubscriberNotFound
	}
	return nil
}

// opCtx 返回带查询超时的上下文。
func (s *Store) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.queryTimeout)
}
