package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/fulfil-next/internal/config"
)

// EmailMessage 待投递的邮件
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// EmailTransport 邮件投递通道
type EmailTransport interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMTPTransport 基于 SMTP 的投递实现，投递时长受 ctx 约束，不做重试
type SMTPTransport struct {
	cfg *config.EmailConfig
}

// NewSMTPTransport 创建 SMTP 投递通道
func NewSMTPTransport(cfg *config.EmailConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

// Send 投递邮件
func (t *SMTPTransport) Send(ctx context.Context, msg EmailMessage) error {
	cfg := t.cfg
	if cfg == nil || !cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if strings.TrimSpace(cfg.Host) == "" || cfg.Port == 0 || strings.TrimSpace(cfg.From) == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(cfg.From, cfg.FromName)
	payload := []byte(buildEmailMessage(from, msg.To, msg.Subject, msg.Body))
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var auth smtp.Auth
	if cfg.Username != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	conn, err := dialSMTP(ctx, addr, cfg.Host, cfg.UseSSL)
	if err != nil {
		return err
	}
	defer conn.Close()
	// ctx 取消时强制关闭连接，打断阻塞中的读写
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	err = deliverSMTP(conn, auth, cfg.Host, cfg.From, msg.To, payload, cfg.UseTLS && !cfg.UseSSL)
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		return fmt.Errorf("smtp send aborted: %w", ctxErr)
	}
	return normalizeEmailSendError(err)
}

func dialSMTP(ctx context.Context, addr, host string, useSSL bool) (net.Conn, error) {
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if !useSSL {
		return conn, nil
	}
	tlsConn := tls.Client(conn, &tls.Config{ServerName: host})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func deliverSMTP(conn net.Conn, auth smtp.Auth, host, from, to string, msg []byte, startTLS bool) error {
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if startTLS {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return buf.String()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return fmt.Errorf("%w: %v", ErrEmailRecipientRejected, err)
	}
	return err
}

var recipientRejectedKeywords = []string{
	"no such recipient",
	"no such user",
	"recipient not found",
	"recipient address rejected",
	"invalid recipient",
	"user unknown",
	"unknown user",
	"unknown mailbox",
	"mailbox unavailable",
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	for _, keyword := range recipientRejectedKeywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	if strings.Contains(message, "550") {
		for _, hint := range []string{"recipient", "user", "mailbox", "address", "rcpt"} {
			if strings.Contains(message, hint) {
				return true
			}
		}
	}
	return false
}
