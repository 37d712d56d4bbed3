package gpt

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"habit-bot/internal/streak"
)

// Client phrases encouragement messages with OpenAI. It only ever handles
// cosmetic text; streak state is decided before it is consulted.
type Client struct {
	client *openai.Client
	model  string
}

func NewClient(apiKey string) *Client {
	return &Client{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4,
	}
}

func (c *Client) WithModel(model string) *Client {
	if model != "" {
		c.model = model
	}
	return c
}

const systemPrompt = "You are an upbeat accountability coach texting a friend. " +
	"Reply with a single short message (max 2 sentences, emoji welcome). " +
	"Never mention being an AI."

// Generate produces one phrased reply for an outcome. Any failure is returned
// to the caller, which falls back to the static phrase table.
func (c *Client) Generate(ctx context.Context, out streak.Outcome) (string, error) {
	prompt, err := promptFor(out)
	if err != nil {
		return "", err
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   120,
		Temperature: 0.9,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from GPT API")
	}
	return resp.Choices[0].Message.Content, nil
}

func promptFor(out streak.Outcome) (string, error) {
	switch out.Kind {
	case streak.OutcomeGoalSet:
		return fmt.Sprintf(
			"The friend just committed to a new goal: %q. Confirm it's locked in and that you'll check in daily.",
			out.Goal), nil
	case streak.OutcomeCompleted:
		return fmt.Sprintf(
			"The friend completed their habit today. Their streak is now %d consecutive days. Celebrate and mention the streak number.",
			out.Streak), nil
	case streak.OutcomePartialCompleted:
		return fmt.Sprintf(
			"The friend partially did their habit today (they said %q). Their streak is now %d days. Celebrate the effort and mention the streak number.",
			out.Echo, out.Streak), nil
	case streak.OutcomeSkipped:
		return "The friend skipped their habit today and their streak reset. Be kind, no guilt, encourage a fresh start tomorrow.", nil
	default:
		return "", fmt.Errorf("no prompt for outcome %s", out.Kind)
	}
}
