package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"portfolio/backend/internal/config"
	"portfolio/backend/internal/domain"
)

func testMessage() *domain.ContactMessage {
	return &domain.ContactMessage{
		ID:      "msg-1",
		Name:    "Alice",
		Email:   "alice@example.com",
		Subject: "Project inquiry",
		Message: "I would like to discuss a project.",
	}
}

func TestNew(t *testing.T) {
	t.Run("未配置收件地址降级为日志实现", func(t *testing.T) {
		n := New(config.NotifyConfig{To: ""}, zap.NewNop())

		_, ok := n.(*logNotifier)
		assert.True(t, ok)
	})

	t.Run("配置收件地址使用SMTP实现", func(t *testing.T) {
		n := New(config.NotifyConfig{
			To:       "owner@example.com",
			From:     "noreply@example.com",
			SMTPAddr: "localhost:587",
		}, zap.NewNop())

		_, ok := n.(*smtpNotifier)
		assert.True(t, ok)
	})
}

func TestLogNotifier_Notify(t *testing.T) {
	n := &logNotifier{log: zap.NewNop()}

	assert.NoError(t, n.Notify(testMessage()))
}

func TestSubjectFor(t *testing.T) {
	t.Run("带主题", func(t *testing.T) {
		assert.Equal(t, "New contact from Alice: Project inquiry", subjectFor(testMessage()))
	})

	t.Run("无主题使用占位", func(t *testing.T) {
		msg := testMessage()
		msg.Subject = ""
		assert.Equal(t, "New contact from Alice: No subject", subjectFor(msg))
	})
}

func TestBodyFor(t *testing.T) {
	body := bodyFor(testMessage())

	assert.Equal(t, "Name: Alice\nEmail: alice@example.com\n\nMessage:\nI would like to discuss a project.\n", body)
}

func TestBuildMail_HeaderInjection(t *testing.T) {
	t.Run("姓名中的换行不产生新头部", func(t *testing.T) {
		msg := testMessage()
		msg.Name = "x\r\nBcc: victim@example.com"

		mail := buildMail("noreply@example.com", "owner@example.com", msg)

		// 注入内容被折叠进主题值，不形成独立头部行
		assert.NotContains(t, mail, "\r\nBcc:")
		assert.NotContains(t, mail, "\nBcc:")
		assert.Contains(t, mail, "Subject: New contact from x  Bcc: victim@example.com: Project inquiry\r\n")
	})

	t.Run("主题中的换行不产生新头部", func(t *testing.T) {
		msg := testMessage()
		msg.Subject = "hello\nX-Injected: yes"

		mail := buildMail("noreply@example.com", "owner@example.com", msg)

		assert.NotContains(t, mail, "\r\nX-Injected:")
		assert.NotContains(t, mail, "\nX-Injected:")
	})
}

func TestBuildMail(t *testing.T) {
	mail := buildMail("noreply@example.com", "owner@example.com", testMessage())

	assert.Contains(t, mail, "From: noreply@example.com\r\n")
	assert.Contains(t, mail, "To: owner@example.com\r\n")
	assert.Contains(t, mail, "Reply-To: alice@example.com\r\n")
	assert.Contains(t, mail, "Subject: New contact from Alice: Project inquiry\r\n")
	assert.Contains(t, mail, "Content-Type: text/plain; charset=UTF-8\r\n")
	// 头与正文之间有空行
	assert.Contains(t, mail, "\r\n\r\nName: Alice\n")
}
