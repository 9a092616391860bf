package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strings"
	texttemplate "text/template"
	"time"

	"go.uber.org/zap"

	"koreafit/internal/config"
	resp "koreafit/internal/models/response_models"
	"koreafit/pkg/metrics"
	"koreafit/pkg/utils"
)

type IMailService interface {
	SendNewsletter(ctx context.Context, to, subject, html, text string) error
	SendRegulatoryAlerts(ctx context.Context, to string, alerts []resp.RegulatoryAlert) error
	SendWelcome(ctx context.Context, to string) error
	// Simulated reports whether sends are only logged.
	Simulated() bool
}

// SMTPConfig is the transactional provider's SMTP relay. The provider API
// key is the SMTP password; without one every send is simulated.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	UseSSL   bool // true for SMTPS 465, false for STARTTLS 587
	Timeout  time.Duration

	AppName    string
	AppBaseURL string
}

func SMTPConfigFrom(cfg *config.Config) SMTPConfig {
	return SMTPConfig{
		Host:       cfg.Mail.Host,
		Port:       cfg.Mail.Port,
		Username:   cfg.Mail.Username,
		Password:   cfg.Secrets.ResendAPIKey,
		From:       cfg.Mail.From,
		FromName:   cfg.Mail.FromName,
		UseSSL:     cfg.Mail.UseSSL,
		Timeout:    cfg.Mail.Timeout,
		AppName:    cfg.App.Name,
		AppBaseURL: cfg.App.BaseURL,
	}
}

type smtpMailService struct {
	cfg     SMTPConfig
	htmlTpl *template.Template
	textTpl *texttemplate.Template
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewSMTPMailService(cfg SMTPConfig, m *metrics.Collector, log *zap.Logger) IMailService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.AppName == "" {
		cfg.AppName = "Korea Fit"
	}
	return &smtpMailService{
		cfg:     cfg,
		htmlTpl: template.Must(template.New("mailHTML").Parse(baseHTMLTemplate)),
		textTpl: texttemplate.Must(texttemplate.New("mailText").Parse(plainTextTemplate)),
		metrics: m,
		log:     log,
	}
}

func (s *smtpMailService) Simulated() bool {
	return strings.TrimSpace(s.cfg.Password) == ""
}

// ------------------- Public API -------------------

func (s *smtpMailService) SendNewsletter(ctx context.Context, to, subject, html, text string) error {
	return s.send(ctx, to, subject, html, text)
}

func (s *smtpMailService) SendRegulatoryAlerts(ctx context.Context, to string, alerts []resp.RegulatoryAlert) error {
	subject := fmt.Sprintf("[%s] 규제 알림 %d건", s.cfg.AppName, len(alerts))
	items := make([]string, 0, len(alerts))
	for _, a := range alerts {
		items = append(items, fmt.Sprintf("%s (출처: %s, %s)", a.Message, a.Update.Ministry, utils.FormatDateKST(a.Update.PublishedAt)))
	}
	intro := "구독하신 산업과 관련된 중요한 규제 변화가 있습니다."
	if len(alerts) == 0 {
		intro = "현재 구독하신 산업에 대한 새로운 규제 알림이 없습니다."
	}

	html, text, err := s.renderEmail(EmailData{
		Title:   subject,
		Intro:   intro,
		Items:   items,
		AppName: s.cfg.AppName,
		Year:    time.Now().Year(),
	})
	if err != nil {
		return err
	}
	err = s.send(ctx, to, subject, html, text)
	s.metrics.RecordMail("alerts", err)
	return err
}

func (s *smtpMailService) SendWelcome(ctx context.Context, to string) error {
	subject := fmt.Sprintf("%s 뉴스레터 구독을 환영합니다", s.cfg.AppName)
	html, text, err := s.renderEmail(EmailData{
		Title:     subject,
		Intro:     "매주 한국 시장 진출에 필요한 규제 변화와 사업 아이디어를 보내드립니다.",
		ButtonURL: s.cfg.AppBaseURL,
		ButtonTxt: "아이디어 둘러보기",
		AppName:   s.cfg.AppName,
		Year:      time.Now().Year(),
	})
	if err != nil {
		return err
	}
	err = s.send(ctx, to, subject, html, text)
	s.metrics.RecordMail("welcome", err)
	return err
}

// ------------------- Rendering -------------------

type EmailData struct {
	Title     string
	Intro     string
	Items     []string
	ButtonURL string
	ButtonTxt string
	AppName   string
	Year      int
}

const baseHTMLTemplate = `<!doctype html>
<html lang="ko">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body { margin: 0; padding: 0; background: #f8fafc; color: #0f172a; font-family: -apple-system, BlinkMacSystemFont, "Apple SD Gothic Neo", "Segoe UI", sans-serif; }
    .wrapper { width: 100%; padding: 40px 16px; box-sizing: border-box; }
    .container { max-width: 600px; margin: 0 auto; background: #ffffff; border-radius: 16px; overflow: hidden; box-shadow: 0 20px 60px rgba(0, 0, 0, 0.08); }
    .header { padding: 28px 32px 20px; border-bottom: 1px solid rgba(0, 0, 0, 0.06); }
    .brand { font-weight: 700; font-size: 20px; color: #2563eb; letter-spacing: 0.5px; }
    .hero { padding: 32px; }
    h1 { margin: 0 0 16px; font-size: 24px; line-height: 1.3; }
    p, li { line-height: 1.7; color: #475569; font-size: 15px; }
    .btn { display: inline-block; padding: 14px 28px; background: #2563eb; color: #ffffff !important; text-decoration: none; border-radius: 12px; font-weight: 600; }
    .footer { padding: 20px 32px; color: #64748b; font-size: 13px; text-align: center; background: #f8fafc; }
  </style>
</head>
<body>
  <div class="wrapper">
    <div class="container">
      <div class="header"><div class="brand">{{.AppName}}</div></div>
      <div class="hero">
        <h1>{{.Title}}</h1>
        <p>{{.Intro}}</p>
        {{if .Items}}<ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>{{end}}
        {{if .ButtonURL}}<p><a class="btn" href="{{.ButtonURL}}">{{.ButtonTxt}}</a></p>{{end}}
      </div>
      <div class="footer">© {{.Year}} {{.AppName}}</div>
    </div>
  </div>
</body>
</html>`

const plainTextTemplate = `{{.Title}}

{{.Intro}}
{{range .Items}}
- {{.}}{{end}}
{{if .ButtonURL}}
{{.ButtonTxt}}: {{.ButtonURL}}
{{end}}
{{.AppName}} (c) {{.Year}}
`

func (s *smtpMailService) renderEmail(data EmailData) (html string, text string, err error) {
	var hb, tb bytes.Buffer
	if err = s.htmlTpl.Execute(&hb, data); err != nil {
		return "", "", err
	}
	if err = s.textTpl.Execute(&tb, data); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}

// ------------------- SMTP Send -------------------

func (s *smtpMailService) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if s.Simulated() {
		s.log.Info("email simulated", zap.String("to", to), zap.String("subject", subject))
		return nil
	}

	msg := s.buildMessage(to, subject, htmlBody, textBody)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	dialer := &net.Dialer{Timeout: s.cfg.Timeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: smtp dial: %v", utils.ErrUpstream, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = rawConn.SetDeadline(deadline)
	}

	conn := rawConn
	tlsCfg := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
	if s.cfg.UseSSL {
		conn = tls.Client(rawConn, tlsCfg)
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("%w: smtp handshake: %v", utils.ErrUpstream, err)
	}
	defer c.Quit()

	if !s.cfg.UseSSL {
		ok, _ := c.Extension("STARTTLS")
		if !ok {
			return fmt.Errorf("%w: server does not support STARTTLS", utils.ErrUpstream)
		}
		if err = c.StartTLS(tlsCfg); err != nil {
			return fmt.Errorf("%w: starttls: %v", utils.ErrUpstream, err)
		}
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err = c.Auth(auth); err != nil {
		return fmt.Errorf("%w: smtp auth: %v", utils.ErrUpstream, err)
	}
	if err = c.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("%w: smtp mail: %v", utils.ErrUpstream, err)
	}
	if err = c.Rcpt(to); err != nil {
		return fmt.Errorf("%w: smtp rcpt: %v", utils.ErrUpstream, err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("%w: smtp data: %v", utils.ErrUpstream, err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("%w: smtp write: %v", utils.ErrUpstream, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("%w: smtp close: %v", utils.ErrUpstream, err)
	}
	return nil
}

func (s *smtpMailService) buildMessage(to, subject, htmlBody, textBody string) []byte {
	boundary := fmt.Sprintf("alt_%d", time.Now().UnixNano())

	var msg bytes.Buffer
	write := func(format string, a ...any) { _, _ = fmt.Fprintf(&msg, format, a...) }

	write("From: %s\r\n", s.formatFromHeader())
	write("To: %s\r\n", to)
	write("Subject: %s\r\n", mime.BEncoding.Encode("UTF-8", subject))
	write("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	write("MIME-Version: 1.0\r\n")
	write("Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	write("\r\n")

	write("--%s\r\n", boundary)
	write("Content-Type: text/plain; charset=UTF-8\r\n")
	write("Content-Transfer-Encoding: 8bit\r\n\r\n")
	write("%s\r\n\r\n", textBody)

	write("--%s\r\n", boundary)
	write("Content-Type: text/html; charset=UTF-8\r\n")
	write("Content-Transfer-Encoding: 8bit\r\n\r\n")
	write("%s\r\n\r\n", htmlBody)

	write("--%s--\r\n", boundary)
	return msg.Bytes()
}

func (s *smtpMailService) formatFromHeader() string {
	name := strings.TrimSpace(s.cfg.FromName)
	if name == "" {
		return s.cfg.From
	}
	return fmt.Sprintf("%s <%s>", mime.BEncoding.Encode("UTF-8", name), s.cfg.From)
}
