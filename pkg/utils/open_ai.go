package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIChatClient struct {
	client *openai.Client
	model  string
	cache  *completionCache
}

func NewOpenAIChatClient(apiKey, model string) TextGenerator {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIChatClient{
		client: openai.NewClient(apiKey),
		model:  model,
		cache:  newCompletionCache(time.Hour),
	}
}

func (c *OpenAIChatClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	key := completionKey(c.model, system, prompt)
	if cached, ok := c.cache.get(key); ok {
		return cached, nil
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai: empty text")
	}

	c.cache.set(key, text)
	return text, nil
}

func (c *OpenAIChatClient) Close() error { return nil }
