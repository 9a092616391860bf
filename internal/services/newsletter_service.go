package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"koreafit/internal/config"
	resp "koreafit/internal/models/response_models"
	"koreafit/internal/repositories"
	"koreafit/pkg/metrics"
	"koreafit/pkg/utils"
)

const (
	SectionRegulatory = "regulatory"
	SectionIdeas      = "ideas"

	blockedFactCheck  = "fact_check"
	blockedTimeliness = "timeliness"
)

// NewsletterOptions bounds what Assemble includes.
type NewsletterOptions struct {
	MaxUpdates int
	MaxIdeas   int
	Edition    string
}

type NewsletterService interface {
	Assemble(updates []resp.RegulatoryUpdate, ideas []resp.Idea, opts NewsletterOptions) (*resp.Newsletter, error)
	Gate(n *resp.Newsletter) *resp.NewsletterPreview
	Preview(ctx context.Context) (*resp.NewsletterPreview, error)
	SendScheduled(ctx context.Context) (*resp.NewsletterSendResult, error)
	SendTest(ctx context.Context, to string) (*resp.NewsletterSendResult, error)
}

type newsletterService struct {
	regulatory  RegulatoryService
	ideas       IdeaService
	subscribers repositories.NewsletterSubscriberRepository
	mail        IMailService
	timeliness  *TimelinessGate
	factCheck   *FactCheckGate
	cfg         config.NewsletterConfig
	testEmail   string
	metrics     *metrics.Collector
	log         *zap.Logger
	md          goldmark.Markdown
	shell       *template.Template
	now         func() time.Time
}

func NewNewsletterService(
	regulatory RegulatoryService,
	ideas IdeaService,
	subscribers repositories.NewsletterSubscriberRepository,
	mail IMailService,
	cfg config.NewsletterConfig,
	testEmail string,
	m *metrics.Collector,
	log *zap.Logger,
) NewsletterService {
	svc := &newsletterService{
		regulatory:  regulatory,
		ideas:       ideas,
		subscribers: subscribers,
		mail:        mail,
		timeliness:  NewTimelinessGate(),
		factCheck:   NewFactCheckGate(),
		cfg:         cfg,
		testEmail:   strings.TrimSpace(testEmail),
		metrics:     m,
		log:         log,
		md:          goldmark.New(),
		shell:       template.Must(template.New("newsletter").Parse(newsletterShell)),
		now:         time.Now,
	}
	clock := func() time.Time { return svc.now() }
	svc.timeliness.now = clock
	svc.factCheck.now = clock
	return svc
}

// ---- assembly ----

type renderedArticle struct {
	Category    string
	Urgency     string
	Credibility string
	Body        template.HTML
}

type renderedSection struct {
	Title    string
	Articles []renderedArticle
}

// Assemble renders each item to its own <article>. Item text never uses
// relative dates and always ends with a source marker, so a clean set of
// inputs passes both content gates.
func (s *newsletterService) Assemble(updates []resp.RegulatoryUpdate, ideas []resp.Idea, opts NewsletterOptions) (*resp.Newsletter, error) {
	now := s.now()
	if opts.MaxUpdates > 0 && len(updates) > opts.MaxUpdates {
		updates = updates[:opts.MaxUpdates]
	}
	if opts.MaxIdeas > 0 && len(ideas) > opts.MaxIdeas {
		ideas = ideas[:opts.MaxIdeas]
	}
	edition := opts.Edition
	if edition == "" {
		edition = now.In(utils.KST()).Format("2006-01-02")
	}

	n := &resp.Newsletter{
		Edition:     edition,
		GeneratedAt: now,
		Sections:    []resp.NewsletterSection{},
	}

	var shellSections []renderedSection
	var text strings.Builder

	if len(updates) > 0 {
		sec, rs, err := s.renderSection(SectionRegulatory, "이번 주 규제 업데이트", len(updates), func(i int) (string, renderedArticle) {
			u := updates[i]
			return updateMarkdown(u), renderedArticle{
				Category:    u.Category,
				Urgency:     urgencyFor(u.Impact),
				Credibility: u.Credibility,
			}
		})
		if err != nil {
			return nil, err
		}
		n.Sections = append(n.Sections, sec)
		shellSections = append(shellSections, rs)
		text.WriteString("## " + sec.Title + "\n\n" + sec.Markdown + "\n")
		for _, u := range updates {
			if u.Impact == resp.ImpactHigh || u.Impact == resp.ImpactCritical {
				n.Metrics.HighImpactCount++
			}
		}
	}

	if len(ideas) > 0 {
		sec, rs, err := s.renderSection(SectionIdeas, "이번 주 추천 아이디어", len(ideas), func(i int) (string, renderedArticle) {
			return ideaMarkdown(ideas[i]), renderedArticle{Category: UpdateCategoryMarket, Urgency: "low", Credibility: "medium"}
		})
		if err != nil {
			return nil, err
		}
		n.Sections = append(n.Sections, sec)
		shellSections = append(shellSections, rs)
		text.WriteString("## " + sec.Title + "\n\n" + sec.Markdown + "\n")
	}

	n.Metrics.UpdateCount = len(updates)
	n.Metrics.IdeaCount = len(ideas)
	n.Metrics.EstimatedReadMins = 1 + (len(updates)*2+len(ideas))/3
	n.Subject = newsletterSubject(edition, updates)

	intro := fmt.Sprintf("규제 업데이트 %d건과 추천 아이디어 %d건을 정리했습니다.", len(updates), len(ideas))
	var buf bytes.Buffer
	if err := s.shell.Execute(&buf, map[string]any{
		"Subject":  n.Subject,
		"Edition":  edition,
		"Intro":    intro,
		"Sections": shellSections,
	}); err != nil {
		return nil, fmt.Errorf("render newsletter: %w", err)
	}
	n.HTML = buf.String()
	n.Text = n.Subject + "\n\n" + intro + "\n\n" + text.String()
	return n, nil
}

func (s *newsletterService) renderSection(key, title string, count int, item func(i int) (string, renderedArticle)) (resp.NewsletterSection, renderedSection, error) {
	sec := resp.NewsletterSection{Key: key, Title: title, Items: count}
	rs := renderedSection{Title: title}

	var mdAll, htmlAll strings.Builder
	for i := 0; i < count; i++ {
		md, art := item(i)
		var out bytes.Buffer
		if err := s.md.Convert([]byte(md), &out); err != nil {
			return sec, rs, fmt.Errorf("render markdown for %s item %d: %w", key, i, err)
		}
		art.Body = template.HTML(out.String())
		rs.Articles = append(rs.Articles, art)
		mdAll.WriteString(md + "\n")
		htmlAll.WriteString("<article>" + out.String() + "</article>\n")
	}
	sec.Markdown = mdAll.String()
	sec.HTML = htmlAll.String()
	return sec, rs, nil
}

func updateMarkdown(u resp.RegulatoryUpdate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", mdEscape(u.Title))
	fmt.Fprintf(&b, "%s\n\n", mdEscape(u.Summary))
	fmt.Fprintf(&b, "- 영향도: %s\n", impactLabel(u.Impact))
	if u.EffectiveAt != nil {
		fmt.Fprintf(&b, "- 시행일: %s\n", utils.FormatDateKST(*u.EffectiveAt))
	}
	if u.DeadlineAt != nil {
		fmt.Fprintf(&b, "- 마감일: %s\n", utils.FormatDateKST(*u.DeadlineAt))
	}
	for _, a := range u.ActionItems {
		fmt.Fprintf(&b, "- 할 일: %s\n", mdEscape(a))
	}
	source := u.Ministry
	if source == "" {
		source = "Korea Fit"
	}
	b.WriteString("\n")
	if u.SourceURL != "" {
		fmt.Fprintf(&b, "(출처: [%s](%s), %s)\n", mdEscape(source), u.SourceURL, utils.FormatDateKST(u.PublishedAt))
	} else {
		fmt.Fprintf(&b, "(출처: %s, %s)\n", mdEscape(source), utils.FormatDateKST(u.PublishedAt))
	}
	return b.String()
}

func ideaMarkdown(idea resp.Idea) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", mdEscape(idea.Title))
	fmt.Fprintf(&b, "%s\n\n", mdEscape(idea.Summary))
	if idea.KoreaFit != nil {
		fmt.Fprintf(&b, "- Korea Fit: %.1f/10\n", *idea.KoreaFit)
	}
	if idea.TrendData != nil && idea.TrendData.GrowthRate != "" {
		fmt.Fprintf(&b, "- 검색 성장률: %s\n", idea.TrendData.GrowthRate)
	}
	if idea.TargetUser != "" {
		fmt.Fprintf(&b, "- 타겟 고객: %s\n", mdEscape(idea.TargetUser))
	}
	source := idea.SourceName
	if source == "" {
		source = "Korea Fit 분석"
	}
	fmt.Fprintf(&b, "\n(출처: %s)\n", mdEscape(source))
	return b.String()
}

var mdEscaper = strings.NewReplacer(`*`, `\*`, `_`, `\_`, "`", "\\`", `[`, `\[`, `]`, `\]`, `#`, `\#`, `<`, `&lt;`)

func mdEscape(s string) string {
	return mdEscaper.Replace(strings.TrimSpace(s))
}

func urgencyFor(impact resp.Impact) string {
	switch impact {
	case resp.ImpactCritical, resp.ImpactHigh:
		return "high"
	case resp.ImpactMedium:
		return "medium"
	default:
		return "low"
	}
}

func impactLabel(impact resp.Impact) string {
	switch impact {
	case resp.ImpactCritical:
		return "매우 높음"
	case resp.ImpactHigh:
		return "높음"
	case resp.ImpactMedium:
		return "보통"
	default:
		return "낮음"
	}
}

func newsletterSubject(edition string, updates []resp.RegulatoryUpdate) string {
	for _, u := range updates {
		if u.Impact == resp.ImpactCritical {
			return fmt.Sprintf("[Korea Fit %s] 주요 규제 변화: %s", edition, u.Title)
		}
	}
	return fmt.Sprintf("[Korea Fit %s] 이번 주 규제와 시장 기회", edition)
}

// ---- gating ----

// Gate runs both content checks. Sending is blocked when the fact check
// cannot pass or the timeliness status is too_stale.
func (s *newsletterService) Gate(n *resp.Newsletter) *resp.NewsletterPreview {
	preview := &resp.NewsletterPreview{
		Newsletter: *n,
		Timeliness: s.timeliness.EvaluateHTML(n.HTML),
		FactCheck:  s.factCheck.CheckHTML(n.HTML),
	}
	if !preview.FactCheck.CanSend {
		preview.BlockedBy = append(preview.BlockedBy, blockedFactCheck)
	}
	if preview.Timeliness.Status == TimelinessTooStale {
		preview.BlockedBy = append(preview.BlockedBy, blockedTimeliness)
	}
	preview.CanSend = len(preview.BlockedBy) == 0

	s.metrics.RecordGate(blockedFactCheck, decision(preview.FactCheck.CanSend))
	s.metrics.RecordGate(blockedTimeliness, preview.Timeliness.Status)
	return preview
}

func decision(ok bool) string {
	if ok {
		return "pass"
	}
	return "blocked"
}

// Preview fetches updates and ideas concurrently; either failure fails the
// whole preview.
func (s *newsletterService) Preview(ctx context.Context) (*resp.NewsletterPreview, error) {
	var updates []resp.RegulatoryUpdate
	var ideas []resp.Idea

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		updates, err = s.regulatory.Updates(gctx, nil, s.cfg.MaxUpdates)
		return err
	})
	g.Go(func() error {
		all, err := s.ideas.AllIdeas(gctx)
		if err != nil {
			return err
		}
		ideas = topIdeas(all, s.cfg.MaxIdeas)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n, err := s.Assemble(updates, ideas, NewsletterOptions{MaxUpdates: s.cfg.MaxUpdates, MaxIdeas: s.cfg.MaxIdeas})
	if err != nil {
		return nil, err
	}
	return s.Gate(n), nil
}

func topIdeas(all []resp.Idea, n int) []resp.Idea {
	sorted := FilterIdeas(all, IdeaFilter{}, SortKoreaFit)
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// ---- delivery ----

// SendScheduled sends the current edition to every active subscriber, or
// only to the configured test recipient when one is set.
func (s *newsletterService) SendScheduled(ctx context.Context) (*resp.NewsletterSendResult, error) {
	preview, err := s.Preview(ctx)
	if err != nil {
		return nil, err
	}
	result := s.blockedResult(preview)
	if result.Blocked {
		s.log.Warn("newsletter blocked",
			zap.Strings("blocked_by", preview.BlockedBy),
			zap.Float64("fact_check_confidence", preview.FactCheck.Confidence),
			zap.String("timeliness_status", preview.Timeliness.Status))
		return result, nil
	}

	var recipients []string
	if s.testEmail != "" {
		recipients = []string{s.testEmail}
	} else {
		subs, err := s.subscribers.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list subscribers: %v", utils.ErrDatabaseError, err)
		}
		for _, sub := range subs {
			recipients = append(recipients, sub.Email)
		}
	}

	s.deliver(ctx, preview, recipients, result)
	s.log.Info("newsletter sent",
		zap.String("subject", result.Subject),
		zap.Int("recipients", result.Recipients),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Bool("simulated", result.Simulated))
	return result, nil
}

// SendTest delivers the current edition to one address; a blocked edition
// is an error here since the caller asked for an actual send.
func (s *newsletterService) SendTest(ctx context.Context, to string) (*resp.NewsletterSendResult, error) {
	preview, err := s.Preview(ctx)
	if err != nil {
		return nil, err
	}
	result := s.blockedResult(preview)
	if result.Blocked {
		return result, fmt.Errorf("%w: %s", utils.ErrNewsletterBlocked, strings.Join(preview.BlockedBy, ", "))
	}
	s.deliver(ctx, preview, []string{to}, result)
	return result, nil
}

func (s *newsletterService) blockedResult(p *resp.NewsletterPreview) *resp.NewsletterSendResult {
	return &resp.NewsletterSendResult{
		Subject:    p.Newsletter.Subject,
		Simulated:  s.mail.Simulated(),
		Blocked:    !p.CanSend,
		BlockedBy:  p.BlockedBy,
		Confidence: p.FactCheck.Confidence,
	}
}

// deliver isolates per-recipient failures.
func (s *newsletterService) deliver(ctx context.Context, p *resp.NewsletterPreview, recipients []string, result *resp.NewsletterSendResult) {
	result.Recipients = len(recipients)
	for _, to := range recipients {
		if err := ctx.Err(); err != nil {
			result.Failed += result.Recipients - result.Sent - result.Failed
			return
		}
		err := s.mail.SendNewsletter(ctx, to, p.Newsletter.Subject, p.Newsletter.HTML, p.Newsletter.Text)
		s.metrics.RecordMail("newsletter", err)
		if err != nil {
			s.log.Warn("newsletter delivery failed", zap.String("to", to), zap.Error(err))
			result.Failed++
			continue
		}
		result.Sent++
	}
}

const newsletterShell = `<!doctype html>
<html lang="ko">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1">
  <title>{{.Subject}}</title>
  <style>
    body { margin: 0; padding: 0; background: #f8fafc; color: #0f172a; font-family: -apple-system, BlinkMacSystemFont, "Apple SD Gothic Neo", "Segoe UI", sans-serif; }
    .container { max-width: 640px; margin: 0 auto; padding: 32px 20px; background: #ffffff; }
    .brand { font-weight: 700; color: #2563eb; letter-spacing: 0.5px; }
    h2 { margin: 32px 0 12px; font-size: 20px; border-bottom: 1px solid #e2e8f0; padding-bottom: 8px; }
    article { margin: 0 0 24px; padding: 16px; border-radius: 12px; background: #f1f5f9; }
    article h3 { margin: 0 0 8px; font-size: 17px; }
    .footer { margin-top: 32px; color: #64748b; font-size: 13px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="brand">KOREA FIT · {{.Edition}}</div>
    <h1>{{.Subject}}</h1>
    <p>{{.Intro}}</p>
    {{range .Sections}}
    <h2>{{.Title}}</h2>
    {{range .Articles}}
    <article data-category="{{.Category}}" data-urgency="{{.Urgency}}" data-credibility="{{.Credibility}}">
      {{.Body}}
    </article>
    {{end}}
    {{end}}
    <div class="footer">수신을 원하지 않으시면 계정 설정에서 구독을 해지할 수 있습니다.</div>
  </div>
</body>
</html>`
