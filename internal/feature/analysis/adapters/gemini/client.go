// Package gemini はGoogle Gemini APIを使用した食事画像分析クライアントを提供します。
package gemini

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"foodlog_backend/internal/feature/analysis/usecase"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"
	// DefaultMaxOutputTokens は応答トークン数のデフォルト上限です。
	DefaultMaxOutputTokens int32 = 1000
)

// GeminiModel はGoogle Gemini APIを使用して画像を分析します。
type GeminiModel struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// GeminiModelがVisionModelを実装していることをコンパイル時に検証します。
var _ usecase.VisionModel = (*GeminiModel)(nil)

// NewGeminiModel はGeminiModelの新しいインスタンスを生成します。
// apiKeyを指定した場合はGemini APIをhttpClient経由で呼び出します。
// apiKeyが空の場合はADCを使用し、環境変数 GOOGLE_GENAI_USE_VERTEXAI, GOOGLE_CLOUD_PROJECT,
// GOOGLE_CLOUD_LOCATION からVertex AIの設定を読み込みます。
func NewGeminiModel(ctx context.Context, httpClient *http.Client, apiKey, model string, maxTokens int32) (*GeminiModel, error) {
	var cc *genai.ClientConfig
	if apiKey != "" {
		cc = &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI, HTTPClient: httpClient}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxOutputTokens
	}
	return &GeminiModel{client: client, model: model, maxTokens: maxTokens}, nil
}

// Generate はプロンプトと画像を送信し、テキスト応答を返します。
func (g *GeminiModel) Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(image, mimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens:  g.maxTokens,
		ResponseMIMEType: "application/json",
		MediaResolution:  genai.MediaResolutionHigh,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}

	return resp.Text(), nil
}
