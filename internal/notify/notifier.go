package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"portfolio/backend/internal/config"
	"portfolio/backend/internal/domain"
)

// Notifier 联系留言的通知渠道。
//
// 通知是尽力而为的旁路：调用方在留言已持久化之后异步触发，
// 投递失败只记录日志，绝不影响请求结果。
type Notifier interface {
	Notify(msg *domain.ContactMessage) error
}

// New 根据配置选择通知实现。
//
// 未配置收件地址时返回日志实现：记录通知意图后直接成功。
// 这是降级模式而非错误。
func New(cfg config.NotifyConfig, log *zap.Logger) Notifier {
	if cfg.To == "" {
		log.Info("notification address not configured, contact notifications will be logged only")
		return &logNotifier{log: log}
	}

	return &smtpNotifier{
		addr:     cfg.SMTPAddr,
		from:     cfg.From,
		to:       cfg.To,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

// logNotifier 仅记录日志的降级实现。
type logNotifier struct {
	log *zap.Logger
}

func (n *logNotifier) Notify(msg *domain.ContactMessage) error {
	n.log.Info("contact notification (log only)",
		zap.String("message_id", msg.ID),
		zap.String("subject", subjectFor(msg)),
		zap.String("from", msg.Email),
	)
	return nil
}

// smtpNotifier 通过 SMTP 提交通知邮件。
type smtpNotifier struct {
	addr     string
	from     string
	to       string
	username string
	password string
}

func (n *smtpNotifier) Notify(msg *domain.ContactMessage) error {
	var auth sasl.Client
	if n.username != "" {
		auth = sasl.NewPlainClient("", n.username, n.password)
	}

	mail := buildMail(n.from, n.to, msg)
	if err := smtp.SendMail(n.addr, auth, n.from, []string{n.to}, strings.NewReader(mail)); err != nil {
		return fmt.Errorf("send notification mail: %w", err)
	}
	return nil
}

// headerSanitizer 清除头部值中的 CR/LF。
//
// name 和 subject 来自未受约束的用户输入，直接拼进 RFC 5322 头部行
// 会被用来注入额外头（比如附带 Bcc 的换行）。
var headerSanitizer = strings.NewReplacer("\r", " ", "\n", " ")

// sanitizeHeader 返回可以安全放进单行邮件头的值。
func sanitizeHeader(value string) string {
	return headerSanitizer.Replace(value)
}

// subjectFor 生成通知邮件的主题行。
func subjectFor(msg *domain.ContactMessage) string {
	subject := sanitizeHeader(msg.Subject)
	if subject == "" {
		subject = "No subject"
	}
	return fmt.Sprintf("New contact from %s: %s", sanitizeHeader(msg.Name), subject)
}

// bodyFor 生成通知邮件的正文。
func bodyFor(msg *domain.ContactMessage) string {
	return fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s\n", msg.Name, msg.Email, msg.Message)
}

// buildMail 拼装完整的 RFC 5322 邮件报文。
func buildMail(from, to string, msg *domain.ContactMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.Email)
	fmt.Fprintf(&b, "Subject: %s\r\n", subjectFor(msg))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(bodyFor(msg))
	return b.String()
}
