package domain

import "time"

// ContactMessage 表示一条通过联系表单提交的留言。
//
// 留言由入站管道一次性创建，之后不再被管道修改；
// Read 标记只会被后台操作翻转。
type ContactMessage struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;index"`
	Subject   string    `json:"subject,omitempty" gorm:"type:varchar(500)"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	Read      bool      `json:"read" gorm:"column:is_read;default:false;index"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定 GORM 表名。
func (ContactMessage) TableName() string { return "contact_messages" }
