package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"gatepass/backend/config"
	"gatepass/backend/pkg/clock"
)

// sendFunc 与 smtp.SendMail 同签名，测试时替换
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPGateway 通过 SMTP 发送通知邮件
type SMTPGateway struct {
	cfg   config.MailConfig
	loc   *time.Location
	clock clock.Clock
	send  sendFunc
}

// NewSMTPGateway 创建 SMTP 通知网关
func NewSMTPGateway(cfg config.MailConfig, loc *time.Location, clk clock.Clock) *SMTPGateway {
	return &SMTPGateway{cfg: cfg, loc: loc, clock: clk, send: smtp.SendMail}
}

// Send 渲染并发送；无收件人时直接返回
// net/smtp 不支持 context，这里以 goroutine + select 兑现调用方的超时
func (g *SMTPGateway) Send(ctx context.Context, n Notification) error {
	msg, err := Compose(n, g.loc, g.clock.Now())
	if err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return nil
	}

	raw := buildEmail(g.cfg.From, msg, uuid.NewString())
	addr := fmt.Sprintf("%s:%d", g.cfg.SMTPHost, g.cfg.SMTPPort)
	var auth smtp.Auth
	if g.cfg.Username != "" {
		auth = smtp.PlainAuth("", g.cfg.Username, g.cfg.Password, g.cfg.SMTPHost)
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- g.send(addr, auth, g.cfg.From, msg.To, raw)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("发送邮件失败: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("发送邮件超时: %w", ctx.Err())
	}
}

// buildEmail 组装 MIME 邮件；带日历时使用 multipart/mixed
func buildEmail(from string, msg Message, boundary string) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ", ")))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	sb.WriteString("MIME-Version: 1.0\r\n")

	if msg.Calendar == "" {
		sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
		sb.WriteString("\r\n")
		sb.WriteString(msg.Body)
		return []byte(sb.String())
	}

	sb.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n", boundary))
	sb.WriteString("\r\n")

	sb.WriteString("--" + boundary + "\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(msg.Body)
	sb.WriteString("\r\n")

	sb.WriteString("--" + boundary + "\r\n")
	sb.WriteString("Content-Type: text/calendar; charset=\"UTF-8\"; method=REQUEST\r\n")
	sb.WriteString("Content-Transfer-Encoding: base64\r\n")
	sb.WriteString("Content-Disposition: attachment; filename=\"visit.ics\"\r\n")
	sb.WriteString("\r\n")
	encoded := base64.StdEncoding.EncodeToString([]byte(msg.Calendar))
	for len(encoded) > 76 {
		sb.WriteString(encoded[:76] + "\r\n")
		encoded = encoded[76:]
	}
	sb.WriteString(encoded + "\r\n")
	sb.WriteString("--" + boundary + "--\r\n")

	return []byte(sb.String())
}
