package httptransport

import (
	"errors"

	"github.com/gin-gonic/gin"

	"portfolio/backend/internal/service"
)

// IntakeHandler 入站提交处理器（联系表单与订阅）
type IntakeHandler struct {
	contacts   *service.ContactService
	newsletter *service.NewsletterService
}

// NewIntakeHandler 创建入站处理器
func NewIntakeHandler(contacts *service.ContactService, newsletter *service.NewsletterService) *IntakeHandler {
	return &IntakeHandler{
		contacts:   contacts,
		newsletter: newsletter,
	}
}

// contactRequest 联系表单请求体
type contactRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Subject        string `json:"subject"`
	Message        string `json:"message"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// newsletterRequest 订阅/退订请求体
type newsletterRequest struct {
	Email string `json:"email"`
}

// SubmitContact 处理 POST /api/contact
func (h *IntakeHandler) SubmitContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	msg, err := h.contacts.Submit(c.Request.Context(), service.SubmitContactInput{
		Name:           req.Name,
		Email:          req.Email,
		Subject:        req.Subject,
		Message:        req.Message,
		RecaptchaToken: req.RecaptchaToken,
		RemoteIP:       c.ClientIP(),
	})
	if err != nil {
		if msg, ok := clientErrorMessage(err); ok {
			BadRequest(c, msg)
			return
		}
		InternalError(c, MsgContactStoreFailed)
		return
	}

	Created(c, MsgContactAccepted, msg)
}

// Subscribe 处理 POST /api/newsletter
func (h *IntakeHandler) Subscribe(c *gin.Context) {
	var req newsletterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	result, err := h.newsletter.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		if msg, ok := clientErrorMessage(err); ok {
			BadRequest(c, msg)
			return
		}
		InternalError(c, MsgSubscribeFailed)
		return
	}

	switch result.Outcome {
	case service.OutcomeSubscribed:
		Created(c, MsgSubscribed, result.Subscriber)
	case service.OutcomeAlreadySubscribed:
		OK(c, MsgAlreadySubscribed, nil)
	case service.OutcomeResubscribed:
		OK(c, MsgResubscribed, nil)
	default:
		InternalError(c, MsgSubscribeFailed)
	}
}

// Unsubscribe 处理 POST /api/newsletter/unsubscribe
func (h *IntakeHandler) Unsubscribe(c *gin.Context) {
	var req newsletterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	_, err := h.newsletter.Unsubscribe(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrNotSubscribed) {
			NotFound(c, MsgNotSubscribed)
			return
		}
		if msg, ok := clientErrorMessage(err); ok {
			BadRequest(c, msg)
			return
		}
		InternalError(c, MsgUnsubscribeFailed)
		return
	}

	OK(c, MsgUnsubscribed, nil)
}
