// Package openai はOpenAI Chat Completions APIを使用した食事画像分析クライアントを提供します。
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"foodlog_backend/internal/feature/analysis/usecase"
	httpclient "foodlog_backend/internal/platform/http"
)

const (
	// DefaultBaseURL はOpenAI APIのデフォルトのベースURLです。
	DefaultBaseURL = "https://api.openai.com"
	// DefaultModel はデフォルトのモデルです。
	DefaultModel = "gpt-4o"
	// DefaultMaxTokens は応答トークン数のデフォルト上限です。
	DefaultMaxTokens = 1000

	chatCompletionsPath = "/v1/chat/completions"
)

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatReq struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type chatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// OpenAIModel はOpenAI APIを使用して画像を分析します。
type OpenAIModel struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
}

// OpenAIModelがVisionModelを実装していることをコンパイル時に検証します。
var _ usecase.VisionModel = (*OpenAIModel)(nil)

// NewOpenAIModel はOpenAIModelの新しいインスタンスを生成します。
func NewOpenAIModel(client *http.Client, baseURL, apiKey, model string, maxTokens int) *OpenAIModel {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &OpenAIModel{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Generate はプロンプトと画像をdata URLとして送信し、最初の選択肢のテキストを返します。
func (o *OpenAIModel) Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
	body := chatReq{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL, Detail: "high"}},
			},
		}},
	}

	var resp chatResp
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	if err := httpclient.PostJSON(ctx, o.client, o.baseURL+chatCompletionsPath, headers, body, &resp); err != nil {
		return "", fmt.Errorf("openai API request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
