package usecase_test

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodlog_backend/internal/feature/analysis/usecase"
)

// pngBytes はPNGシグネチャを持つテスト用画像データです。
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

// ErrAPI はモックと期待値の間で共有されるセンチネルエラーです。
var ErrAPI = errors.New("api error")

// mockVisionModel はVisionModelインターフェースのモック実装です。
type mockVisionModel struct {
	GenerateFunc  func(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
	GenerateCalls int
}

func (m *mockVisionModel) Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	m.GenerateCalls++
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, image, mimeType)
	}
	return "", errors.New("GenerateFunc is not implemented")
}

// mockLabelHinter はLabelHinterインターフェースのモック実装です。
type mockLabelHinter struct {
	LabelsFunc func(ctx context.Context, image []byte) ([]string, error)
}

func (m *mockLabelHinter) Labels(ctx context.Context, image []byte) ([]string, error) {
	return m.LabelsFunc(ctx, image)
}

// recordedCall はObserveAnalysisの呼び出し記録です。
type recordedCall struct {
	provider string
	outcome  string
}

type mockRecorder struct {
	calls []recordedCall
}

func (m *mockRecorder) ObserveAnalysis(provider, outcome string, _ time.Duration) {
	m.calls = append(m.calls, recordedCall{provider: provider, outcome: outcome})
}

func TestDecodeImage(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString(pngBytes)
	jpeg := append([]byte{0xff, 0xd8, 0xff, 0xe0}, make([]byte, 16)...)

	tests := []struct {
		name     string
		in       string
		wantMime string
		wantErr  error
	}{
		{name: "bare base64", in: raw, wantMime: "image/png"},
		{name: "data url", in: "data:image/png;base64," + raw, wantMime: "image/png"},
		{name: "data url with mismatched declared type", in: "data:image/jpeg;base64," + raw, wantMime: "image/png"},
		{name: "jpeg", in: base64.StdEncoding.EncodeToString(jpeg), wantMime: "image/jpeg"},
		{name: "unpadded base64", in: strings.TrimRight(raw, "="), wantMime: "image/png"},
		{name: "unknown bytes with declared image type", in: "data:image/heic;base64," + base64.StdEncoding.EncodeToString([]byte("opaque")), wantMime: "image/heic"},
		{name: "empty", in: "  ", wantErr: usecase.ErrImageRequired},
		{name: "not base64", in: "%%%not-base64%%%", wantErr: usecase.ErrInvalidImage},
		{name: "data url without base64 marker", in: "data:image/png," + raw, wantErr: usecase.ErrInvalidImage},
		{name: "data url without comma", in: "data:image/png;base64", wantErr: usecase.ErrInvalidImage},
		{name: "text payload", in: base64.StdEncoding.EncodeToString([]byte("hello world")), wantErr: usecase.ErrInvalidImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, mime, err := usecase.DecodeImage(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, data)
			assert.Equal(t, tt.wantMime, mime)
		})
	}
}

func TestDecodeImage_TooLarge(t *testing.T) {
	big := make([]byte, usecase.MaxImageBytes+1)
	copy(big, pngBytes)

	_, _, err := usecase.DecodeImage(base64.StdEncoding.EncodeToString(big))

	assert.ErrorIs(t, err, usecase.ErrImageTooLarge)
}

func TestBuildPrompt(t *testing.T) {
	t.Run("without context", func(t *testing.T) {
		p := usecase.BuildPrompt("", nil)
		assert.Contains(t, p, "Analyze this food image")
		assert.Contains(t, p, "detectedFoods: string[];")
		assert.NotContains(t, p, "Additional context")
		assert.NotContains(t, p, "image classifier")
	})

	t.Run("with description and hints", func(t *testing.T) {
		p := usecase.BuildPrompt("  homemade curry  ", []string{"Food", "Curry"})
		assert.Contains(t, p, "Additional context: homemade curry")
		assert.Contains(t, p, "Food, Curry")
	})
}

func TestAnalysisUsecase_Analyze(t *testing.T) {
	ctx := context.Background()
	img := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	tests := []struct {
		name        string
		image       string
		reply       string
		replyErr    error
		wantErr     error
		wantOutcome string
		wantCalls   int
	}{
		{name: "success", image: img, reply: validJSON, wantOutcome: usecase.OutcomeOK, wantCalls: 1},
		{name: "fenced reply", image: img, reply: "```json\n" + validJSON + "\n```", wantOutcome: usecase.OutcomeOK, wantCalls: 1},
		{name: "model error", image: img, replyErr: ErrAPI, wantErr: usecase.ErrModelFailure, wantOutcome: usecase.OutcomeError, wantCalls: 1},
		{name: "empty reply", image: img, reply: "", wantErr: usecase.ErrEmptyResponse, wantOutcome: usecase.OutcomeInvalid, wantCalls: 1},
		{name: "invalid reply", image: img, reply: "sorry", wantErr: usecase.ErrInvalidAnalysis, wantOutcome: usecase.OutcomeInvalid, wantCalls: 1},
		{name: "missing image", image: "", wantErr: usecase.ErrImageRequired},
		{name: "undecodable image", image: "***", wantErr: usecase.ErrInvalidImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &mockVisionModel{
				GenerateFunc: func(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
					assert.Equal(t, pngBytes, image)
					assert.Equal(t, "image/png", mimeType)
					assert.Contains(t, prompt, "Additional context: lunch")
					return tt.reply, tt.replyErr
				},
			}
			rec := &mockRecorder{}
			uc := usecase.NewAnalysisUsecase(model, "gemini", nil, rec)

			res, err := uc.Analyze(ctx, tt.image, "lunch")

			assert.Equal(t, tt.wantCalls, model.GenerateCalls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 420.0, res.Calories)
			}
			if tt.wantOutcome == "" {
				assert.Empty(t, rec.calls)
			} else {
				assert.Equal(t, []recordedCall{{provider: "gemini", outcome: tt.wantOutcome}}, rec.calls)
			}
		})
	}
}

func TestAnalysisUsecase_Analyze_Hints(t *testing.T) {
	ctx := context.Background()
	img := base64.StdEncoding.EncodeToString(pngBytes)

	t.Run("labels are added to the prompt", func(t *testing.T) {
		hinter := &mockLabelHinter{LabelsFunc: func(ctx context.Context, image []byte) ([]string, error) {
			return []string{"Ramen", "Noodle"}, nil
		}}
		model := &mockVisionModel{GenerateFunc: func(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
			assert.Contains(t, prompt, "Ramen, Noodle")
			return validJSON, nil
		}}

		_, err := usecase.NewAnalysisUsecase(model, "openai", hinter, nil).Analyze(ctx, img, "")

		require.NoError(t, err)
	})

	t.Run("hinter failure does not fail analysis", func(t *testing.T) {
		hinter := &mockLabelHinter{LabelsFunc: func(ctx context.Context, image []byte) ([]string, error) {
			return nil, ErrAPI
		}}
		model := &mockVisionModel{GenerateFunc: func(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
			assert.NotContains(t, prompt, "image classifier")
			return validJSON, nil
		}}

		res, err := usecase.NewAnalysisUsecase(model, "openai", hinter, nil).Analyze(ctx, img, "")

		require.NoError(t, err)
		assert.Equal(t, []string{"rice", "chicken"}, res.DetectedFoods)
	})
}
