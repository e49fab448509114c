package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"moneta/internal/core"
)

// Client wraps the OpenAI chat API for finance questions
type Client struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
		now:    time.Now,
	}
}

const systemPromptTemplate = `You are a personal finance assistant. You answer questions about the user's
income and expenses using only the transaction history provided below. Amounts
are in the user's currency with two decimal places; expenses are negative,
income is positive.

Current time: %s

Rules:
1. Base every figure on the provided transactions. Never invent amounts.
2. If the history does not cover the question, say so instead of guessing.
3. Keep answers short and concrete. Quote amounts with two decimals.
4. Do not give investment or legal advice.

Transaction history:
%s`

func (c *Client) systemPrompt(transactions []core.Transaction) string {
	return fmt.Sprintf(systemPromptTemplate,
		c.now().Format("2006-01-02 15:04 (Monday)"),
		renderTransactions(transactions))
}

// renderTransactions formats history as one compact line per transaction
func renderTransactions(transactions []core.Transaction) string {
	if len(transactions) == 0 {
		return "(no transactions recorded)"
	}

	var b strings.Builder
	for _, t := range transactions {
		fmt.Fprintf(&b, "%s | %s | %s | %s\n",
			t.Date.Format("2006-01-02"),
			t.Type,
			t.Name,
			core.FormatSigned(t.Amount, t.Type))
	}
	return b.String()
}

// Ask sends a question with the user's transaction history as context
func (c *Client) Ask(ctx context.Context, question string, transactions []core.Transaction) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: c.systemPrompt(transactions),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: question,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("call chat API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from chat API")
	}

	return resp.Choices[0].Message.Content, nil
}
