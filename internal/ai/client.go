package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"nova-ai-bot/types"
)

// Client answers user prompts through the OpenAI API. The model is picked
// by the quota being spent, so an advanced-text unit buys a stronger
// model than a basic one.
type Client struct {
	client        *openai.Client
	textModel     string
	advancedModel string
}

func NewClient(apiKey, textModel, advancedModel string) *Client {
	return &Client{
		client:        openai.NewClient(apiKey),
		textModel:     textModel,
		advancedModel: advancedModel,
	}
}

func (c *Client) Complete(ctx context.Context, quota types.Quota, prompt string) (string, error) {
	model := c.textModel
	if quota == types.QuotaTextAdvanced {
		model = c.advancedModel
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a helpful assistant inside a Telegram bot. Answer concisely.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   1500,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) GenerateImage(ctx context.Context, quota types.Quota, prompt string) (string, error) {
	quality := openai.CreateImageQualityStandard
	if quota == types.QuotaImagePremium {
		quality = openai.CreateImageQualityHD
	}
	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Model:          openai.CreateImageModelDallE3,
		Prompt:         prompt,
		Quality:        quality,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
		N:              1,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("empty image response")
	}
	return resp.Data[0].URL, nil
}
