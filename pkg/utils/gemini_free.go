package utils

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// TextGenerator is the small surface the content writers need from an LLM.
type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	Close() error
}

// GeminiTextClient implements TextGenerator using Google's Gemini models
type GeminiTextClient struct {
	client *genai.Client
	model  string
	cache  *completionCache
}

func NewGeminiTextClient(apiKey, model string) (TextGenerator, error) {
	if model == "" {
		model = "gemini-1.5-flash" // free tier model
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiTextClient{
		client: client,
		model:  model,
		cache:  newCompletionCache(time.Hour),
	}, nil
}

func (c *GeminiTextClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	key := completionKey(c.model, system, prompt)
	if cached, ok := c.cache.get(key); ok {
		return cached, nil
	}

	m := c.client.GenerativeModel(c.model)
	m.SetTemperature(0.4)
	m.SetTopP(0.8)
	if system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: no content")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			out.WriteString(string(t))
		}
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("gemini: empty text")
	}

	c.cache.set(key, text)
	return text, nil
}

func (c *GeminiTextClient) Close() error {
	return c.client.Close()
}

// NewTextGenerator picks an OpenAI or Gemini client based on config.
func NewTextGenerator(provider, apiKey, model string) (TextGenerator, error) {
	switch strings.ToLower(provider) {
	case "openai":
		return NewOpenAIChatClient(apiKey, model), nil
	case "gemini":
		return NewGeminiTextClient(apiKey, model)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

type cachedCompletion struct {
	content string
	at      time.Time
}

type completionCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cachedCompletion
}

func newCompletionCache(ttl time.Duration) *completionCache {
	return &completionCache{ttl: ttl, entries: make(map[string]cachedCompletion)}
}

func completionKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

func (c *completionCache) get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Since(e.at) > c.ttl {
		return "", false
	}
	return e.content, true
}

func (c *completionCache) set(key, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cachedCompletion{content: content, at: time.Now()}

	if len(c.entries) > 1000 {
		for k, e := range c.entries {
			if time.Since(e.at) > 2*c.ttl {
				delete(c.entries, k)
			}
		}
	}
}
