package domain

import "time"

// NewsletterSubscriber 表示一个邮件订阅者。
//
// 同一邮箱地址至多存在一行（email 上有唯一约束）；
// 状态转换只发生在 subscribed 与 unsubscribed 之间：
//
//	无记录        → 订阅：插入新行，subscribed=true
//	subscribed    → 再次订阅：不做任何修改
//	unsubscribed  → 再次订阅：subscribed=true，unsubscribed_at 置空
//
// UnsubscribedAt 在订阅状态下始终为 nil；UpdatedAt 在每次状态变化时刷新。
type NewsletterSubscriber struct {
	ID             string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email          string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Subscribed     bool       `json:"subscribed" gorm:"default:true;index"`
	Source         string     `json:"source" gorm:"type:varchar(100)"`
	SubscribedAt   time.Time  `json:"subscribedAt"`
	UnsubscribedAt *time.Time `json:"unsubscribedAt,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// TableName 指定 GORM 表名。
func (NewsletterSubscriber) TableName() string { return "newsletter_subscribers" }

// SubscriberSourceWebsite 网站订阅来源标记。
const SubscriberSourceWebsite = "website"
