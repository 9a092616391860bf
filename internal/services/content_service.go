package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"koreafit/internal/config"
	"koreafit/internal/models/request_models"
	resp "koreafit/internal/models/response_models"
	"koreafit/pkg/utils"
)

const (
	ProviderTemplate = "template"
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"

	PlatformLinkedIn  = "linkedin"
	PlatformTwitter   = "twitter"
	PlatformInstagram = "instagram"

	tweetLimit          = 280
	defaultSocialIdeas  = 3
	defaultContentLimit = 20 * time.Second
)

type ContentService interface {
	Generate(ctx context.Context, req request_models.ContentRequest) (*resp.ContentResult, error)
}

type contentService struct {
	newsletter NewsletterService
	regulatory RegulatoryService
	ideas      IdeaService
	writer     utils.TextGenerator
	provider   string
	timeout    time.Duration
	log        *zap.Logger
}

// NewContentService uses writer for prose when it is non-nil; the static
// templates are both the default and the fallback on any writer error.
func NewContentService(
	newsletter NewsletterService,
	regulatory RegulatoryService,
	ideas IdeaService,
	writer utils.TextGenerator,
	cfg config.ContentConfig,
	log *zap.Logger,
) ContentService {
	provider := strings.ToLower(cfg.Provider)
	if writer == nil || provider == "" {
		provider = ProviderTemplate
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultContentLimit
	}
	return &contentService{
		newsletter: newsletter,
		regulatory: regulatory,
		ideas:      ideas,
		writer:     writer,
		provider:   provider,
		timeout:    timeout,
		log:        log,
	}
}

func (s *contentService) Generate(ctx context.Context, req request_models.ContentRequest) (*resp.ContentResult, error) {
	switch strings.TrimSpace(req.Type) {
	case request_models.ContentNewsletter:
		return s.newsletterContent(ctx)
	case request_models.ContentRegulatorySummary:
		return s.regulatorySummary(ctx, req.Industries)
	case request_models.ContentSocialPosts:
		return s.socialPosts(ctx, req.IdeaIDs, req.Platform)
	case request_models.ContentExpertContent:
		return s.expertContent(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %q", utils.ErrInvalidContentType, req.Type)
	}
}

func (s *contentService) newsletterContent(ctx context.Context) (*resp.ContentResult, error) {
	preview, err := s.newsletter.Preview(ctx)
	if err != nil {
		return nil, err
	}
	return &resp.ContentResult{
		Type:     request_models.ContentNewsletter,
		Title:    preview.Newsletter.Subject,
		Body:     preview.Newsletter.Text,
		Preview:  preview,
		Provider: ProviderTemplate,
	}, nil
}

var impactOrder = []resp.Impact{resp.ImpactCritical, resp.ImpactHigh, resp.ImpactMedium, resp.ImpactLow}

func (s *contentService) regulatorySummary(ctx context.Context, industries []string) (*resp.ContentResult, error) {
	updates, err := s.regulatory.Updates(ctx, industries, 0)
	if err != nil {
		return nil, err
	}

	grouped := make(map[resp.Impact][]resp.RegulatoryUpdate, len(impactOrder))
	for _, u := range updates {
		grouped[u.Impact] = append(grouped[u.Impact], u)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# 규제 동향 요약 (%d건)\n", len(updates))
	for _, impact := range impactOrder {
		group := grouped[impact]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## 영향도 %s (%d건)\n\n", impactLabel(impact), len(group))
		for _, u := range group {
			fmt.Fprintf(&b, "- **%s** (%s, %s): %s\n", u.Title, u.Ministry, utils.FormatDateKST(u.PublishedAt), u.Summary)
		}
	}
	fallback := b.String()

	body, provider := s.write(ctx,
		"당신은 한국 규제 전문 애널리스트입니다. 주어진 목록의 사실만 사용하고 날짜와 출처를 유지하세요.",
		"다음 규제 업데이트를 창업자를 위한 요약으로 다듬어 주세요:\n\n"+fallback,
		fallback)

	return &resp.ContentResult{
		Type:     request_models.ContentRegulatorySummary,
		Title:    "규제 동향 요약",
		Body:     body,
		Provider: provider,
	}, nil
}

// socialPosts writes one post per idea. An unknown or unusable idea is
// logged and listed in Skipped; the rest still get posts.
func (s *contentService) socialPosts(ctx context.Context, ideaIDs []string, platform string) (*resp.ContentResult, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	switch platform {
	case "":
		platform = PlatformLinkedIn
	case "x":
		platform = PlatformTwitter
	case PlatformLinkedIn, PlatformTwitter, PlatformInstagram:
	default:
		return nil, fmt.Errorf("%w: unsupported platform %q", utils.ErrInvalidContentType, platform)
	}

	ideas, skipped, err := s.selectIdeas(ctx, ideaIDs)
	if err != nil {
		return nil, err
	}

	result := &resp.ContentResult{
		Type:     request_models.ContentSocialPosts,
		Posts:    []resp.SocialPost{},
		Skipped:  skipped,
		Provider: ProviderTemplate,
	}
	for _, idea := range ideas {
		post, provider, err := s.socialPost(ctx, idea, platform)
		if err != nil {
			s.log.Warn("social post skipped", zap.String("idea_id", idea.ID), zap.Error(err))
			result.Skipped = append(result.Skipped, idea.ID)
			continue
		}
		if provider != ProviderTemplate {
			result.Provider = provider
		}
		result.Posts = append(result.Posts, post)
	}
	return result, nil
}

func (s *contentService) selectIdeas(ctx context.Context, ids []string) ([]resp.Idea, []string, error) {
	if len(ids) == 0 {
		all, err := s.ideas.AllIdeas(ctx)
		if err != nil {
			return nil, nil, err
		}
		return topIdeas(all, defaultSocialIdeas), nil, nil
	}

	var ideas []resp.Idea
	var skipped []string
	for _, id := range ids {
		idea, err := s.ideas.GetIdea(ctx, id)
		if err != nil {
			s.log.Warn("idea lookup failed", zap.String("idea_id", id), zap.Error(err))
			skipped = append(skipped, id)
			continue
		}
		ideas = append(ideas, *idea)
	}
	return ideas, skipped, nil
}

func (s *contentService) socialPost(ctx context.Context, idea resp.Idea, platform string) (resp.SocialPost, string, error) {
	title := strings.TrimSpace(idea.Title)
	summary := strings.TrimSpace(idea.Summary)
	if title == "" || summary == "" {
		return resp.SocialPost{}, "", fmt.Errorf("%w: idea has no title or summary", utils.ErrInvalidIdea)
	}

	tags := hashtags(idea)
	fallback := socialTemplate(idea, platform)
	text, provider := s.write(ctx,
		"You write concise social posts for founders entering the Korean market. Korean language. No invented numbers.",
		fmt.Sprintf("Platform: %s\nIdea: %s\nSummary: %s\nWrite one post without hashtags.", platform, title, summary),
		fallback)

	if platform == PlatformTwitter {
		text = truncateRunes(text, tweetLimit-len(strings.Join(tags, " "))-2)
	}
	return resp.SocialPost{IdeaID: idea.ID, Platform: platform, Text: text, Hashtags: tags}, provider, nil
}

func socialTemplate(idea resp.Idea, platform string) string {
	var b strings.Builder
	switch platform {
	case PlatformTwitter:
		fmt.Fprintf(&b, "[한국 시장] %s: %s", idea.Title, idea.Summary)
	case PlatformInstagram:
		fmt.Fprintf(&b, "오늘의 한국 시장 아이디어\n\n%s\n\n%s", idea.Title, idea.Summary)
		if idea.TargetUser != "" {
			fmt.Fprintf(&b, "\n\n타겟 고객: %s", idea.TargetUser)
		}
	default:
		fmt.Fprintf(&b, "한국 시장 진출 아이디어: %s\n\n%s", idea.Title, idea.Summary)
		if idea.KoreaFit != nil {
			fmt.Fprintf(&b, "\n\nKorea Fit 점수 %.1f/10", *idea.KoreaFit)
		}
		if idea.WhyNow != "" {
			fmt.Fprintf(&b, "\n왜 지금인가: %s", idea.WhyNow)
		}
	}
	return b.String()
}

func hashtags(idea resp.Idea) []string {
	tags := []string{"#KoreaFit"}
	seen := map[string]bool{"koreafit": true}
	add := func(raw string) {
		t := strings.Join(strings.Fields(raw), "")
		if t == "" || seen[strings.ToLower(t)] {
			return
		}
		seen[strings.ToLower(t)] = true
		tags = append(tags, "#"+t)
	}
	add(idea.Category)
	for _, t := range idea.Tags {
		if len(tags) >= 5 {
			break
		}
		add(t)
	}
	return tags
}

func (s *contentService) expertContent(ctx context.Context, req request_models.ContentRequest) (*resp.ContentResult, error) {
	var subject, prompt, fallback string
	switch {
	case len(req.IdeaIDs) > 0:
		idea, err := s.ideas.GetIdea(ctx, req.IdeaIDs[0])
		if err != nil {
			return nil, err
		}
		subject = idea.Title
		prompt = fmt.Sprintf("Idea: %s\nSummary: %s\nCategory: %s", idea.Title, idea.Summary, idea.Category)
		fallback = expertTemplate(idea.Title, idea.Category, idea.Risks)
	case strings.TrimSpace(req.Topic) != "":
		subject = strings.TrimSpace(req.Topic)
		prompt = "Topic: " + subject
		fallback = expertTemplate(subject, "", nil)
	default:
		return nil, fmt.Errorf("%w: idea_ids or topic is required", utils.ErrInvalidIdea)
	}

	body, provider := s.write(ctx,
		"당신은 한국 시장 진출 전문 컨설턴트입니다. 규제, 현지화, 유통 관점의 실무 조언을 마크다운으로 작성하세요.",
		prompt,
		fallback)
	return &resp.ContentResult{
		Type:     request_models.ContentExpertContent,
		Title:    subject + ": 전문가 코멘트",
		Body:     body,
		Provider: provider,
	}, nil
}

func expertTemplate(subject, category string, risks []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: 전문가 코멘트\n\n", subject)
	b.WriteString("## 규제 검토\n\n")
	if category != "" {
		fmt.Fprintf(&b, "%s 분야는 인허가와 개인정보 처리 요건을 먼저 확인해야 합니다.\n\n", category)
	} else {
		b.WriteString("사업 구조에 맞는 인허가와 개인정보 처리 요건을 먼저 확인해야 합니다.\n\n")
	}
	b.WriteString("## 현지화\n\n한국 사용자는 카카오 로그인과 간편결제를 기본으로 기대합니다.\n\n")
	b.WriteString("## 유통\n\n초기에는 네이버 검색과 커뮤니티 채널로 수요를 검증하는 것이 좋습니다.\n")
	if len(risks) > 0 {
		b.WriteString("\n## 주요 리스크\n\n")
		for _, r := range risks {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	return b.String()
}

// write asks the configured writer and returns the fallback on any error.
func (s *contentService) write(ctx context.Context, system, prompt, fallback string) (string, string) {
	if s.writer == nil || s.provider == ProviderTemplate {
		return fallback, ProviderTemplate
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.writer.Generate(ctx, system, prompt)
	if err != nil {
		s.log.Warn("content writer failed, using template", zap.String("provider", s.provider), zap.Error(err))
		return fallback, ProviderTemplate
	}
	return text, s.provider
}
