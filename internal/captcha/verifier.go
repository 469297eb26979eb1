package captcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"portfolio/backend/internal/config"
)

// Verifier 人机验证能力。
//
// Verify 只返回是否通过：外部验证服务的传输错误、非 2xx 状态、
// 响应解析失败一律按未通过处理（fail closed），绝不向上传播为崩溃。
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) bool
}

// New 根据配置选择验证实现。
//
// 未配置密钥（或保留占位值）时返回禁用实现：任何 token 都通过。
// 这是刻意保留的开发模式旁路，此处会打出显眼的警告日志；
// 生产环境必须配置真实密钥。
func New(cfg config.CaptchaConfig, log *zap.Logger) Verifier {
	if cfg.SecretKey == "" || cfg.SecretKey == config.PlaceholderCaptchaSecret {
		log.Warn("captcha secret key not configured, human verification is DISABLED: every token passes")
		return &disabledVerifier{}
	}

	return &siteVerifier{
		secret:    cfg.SecretKey,
		verifyURL: cfg.VerifyURL,
		threshold: cfg.ScoreThreshold,
		client:    &http.Client{Timeout: cfg.Timeout},
		log:       log,
	}
}

// disabledVerifier 未配置密钥时的空实现，恒通过。
type disabledVerifier struct{}

func (d *disabledVerifier) Verify(ctx context.Context, token, remoteIP string) bool {
	return true
}

// siteVerifier 调用 reCAPTCHA v3 siteverify 接口的实现。
type siteVerifier struct {
	secret    string
	verifyURL string
	threshold float64
	client    *http.Client
	log       *zap.Logger
}

// verifyResponse siteverify 的响应结构
type verifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify 验证 token。通过的条件：HTTP 200、success=true、score 不低于阈值。
func (v *siteVerifier) Verify(ctx context.Context, token, remoteIP string) bool {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		v.log.Warn("captcha verify request build failed", zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		v.log.Warn("captcha verify call failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.log.Warn("captcha verify returned non-OK status", zap.Int("status", resp.StatusCode))
		return false
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		v.log.Warn("captcha verify response decode failed", zap.Error(err))
		return false
	}

	if !body.Success {
		v.log.Debug("captcha verify rejected token", zap.Strings("error_codes", body.ErrorCodes))
		return false
	}
	if body.Score < v.threshold {
		v.log.Debug("captcha score below threshold",
			zap.Float64("score", body.Score),
			zap.Float64("threshold", v.threshold),
		)
		return false
	}

	return true
}
