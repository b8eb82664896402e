package ai

import (
	"context"
	"errors"
	"log"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const draftSystemPrompt = `You draft short, polite outreach follow-up messages.
You receive the conversation history and a next-action hint:
WAIT means a gentle nudge, FOLLOW_UP_1 a first follow-up, FOLLOW_UP_2 a
final follow-up. Reply with the message text only, no preamble, no quotes.`

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient() (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY not set")
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

func (c *OpenAIClient) Draft(ctx context.Context, history []Message, nextAction string) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    "system",
		Content: draftSystemPrompt,
	})
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Text,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    "system",
		Content: "Next action hint: " + nextAction,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
	})
	if err != nil {
		log.Println("[ai] OpenAI error:", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		log.Println("[ai] empty choices")
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
