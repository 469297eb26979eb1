package httptransport

import (
	"errors"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/service"
)

// 对外错误与提示消息
//
// 错误字符串是接口契约的一部分（前端按原文匹配展示），
// 修改前先确认调用方。
const (
	MsgInvalidRequest     = "Invalid request body"
	MsgFieldsRequired     = "Name, email, and message are required"
	MsgEmailRequired      = "Email is required"
	MsgInvalidEmail       = "Invalid email format"
	MsgMessageTooShort    = "Message must be at least 10 characters"
	MsgMessageTooLong     = "Message must be at most 2000 characters"
	MsgCaptchaFailed      = "reCAPTCHA verification failed"
	MsgContactAccepted    = "Message sent successfully"
	MsgContactStoreFailed = "Failed to store message"
	MsgSubscribed         = "Successfully subscribed to newsletter"
	MsgAlreadySubscribed  = "Email is already subscribed"
	MsgResubscribed       = "Successfully re-subscribed to newsletter"
	MsgSubscribeFailed    = "Failed to subscribe to newsletter"
	MsgUnsubscribed       = "Successfully unsubscribed from newsletter"
	MsgNotSubscribed      = "Email is not subscribed"
	MsgUnsubscribeFailed  = "Failed to unsubscribe from newsletter"
)

// clientErrors 可由调用方自行修正的错误（HTTP 400）及其对外消息。
// 不在表中的错误一律按存储/内部故障处理（HTTP 500），
// 对外只暴露笼统消息，不透出内部错误文本。
var clientErrors = map[error]string{
	domain.ErrContactFieldsRequired: MsgFieldsRequired,
	domain.ErrEmailRequired:         MsgEmailRequired,
	domain.ErrInvalidEmail:          MsgInvalidEmail,
	domain.ErrMessageTooShort:       MsgMessageTooShort,
	domain.ErrMessageTooLong:        MsgMessageTooLong,
	service.ErrCaptchaFailed:        MsgCaptchaFailed,
}

// clientErrorMessage 返回错误对应的 400 级消息。
func clientErrorMessage(err error) (string, bool) {
	for sentinel, msg := range clientErrors {
		if errors.Is(err, sentinel) {
			return msg, true
		}
	}
	return "", false
}
