package domain

import (
	"errors"
	"regexp"
	"unicode/utf8"
)

// 验证相关的错误定义
var (
	ErrContactFieldsRequired = errors.New("name, email and message are required")
	ErrEmailRequired         = errors.New("email is required")
	ErrInvalidEmail          = errors.New("invalid email format")
	ErrMessageTooShort       = errors.New("message too short (min 10 chars)")
	ErrMessageTooLong        = errors.New("message too long (max 2000 chars)")
)

// 验证常量
const (
	MinMessageLength = 10   // 留言最短长度（字符数）
	MaxMessageLength = 2000 // 留言最长长度（字符数，限制存储与通知体积）
)

// emailPattern 要求恰好一个 @，@ 后至少一个点，且不含空白字符。
// 该模式是对外接口契约的一部分，不要替换成更严格的 RFC 校验。
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail 判断邮箱地址是否符合基础格式。
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateContact 校验联系表单的必填字段与约束。
//
// 校验顺序与返回的第一个错误：
//  1. name/email/message 任一缺失 → ErrContactFieldsRequired
//  2. email 格式不合法 → ErrInvalidEmail
//  3. message 短于 MinMessageLength → ErrMessageTooShort
//  4. message 长于 MaxMessageLength → ErrMessageTooLong
//
// 纯函数，无副作用。subject 为可选字段，不参与校验。
func ValidateContact(name, email, message string) error {
	if name == "" || email == "" || message == "" {
		return ErrContactFieldsRequired
	}
	if !ValidateEmail(email) {
		return ErrInvalidEmail
	}
	// 长度按字符数而不是字节数计算，多字节文本同样适用
	length := utf8.RuneCountInString(message)
	if length < MinMessageLength {
		return ErrMessageTooShort
	}
	if length > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// ValidateNewsletterEmail 校验订阅请求的邮箱地址。纯函数。
func ValidateNewsletterEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if !ValidateEmail(email) {
		return ErrInvalidEmail
	}
	return nil
}
