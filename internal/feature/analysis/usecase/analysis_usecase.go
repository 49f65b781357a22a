// Package usecase はanalysisフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"foodlog_backend/internal/feature/analysis/domain/entity"
)

const (
	// MaxImageBytes はデコード後の画像の最大サイズ（10MB）です。
	MaxImageBytes = 10 * 1024 * 1024
	// maxHints はプロンプトに含めるラベルの最大数です。
	maxHints = 10
)

// Outcome はメトリクスに記録する分析結果の区分です。
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
)

// resultShape はモデルに返させるJSONの形です。
const resultShape = `{
  protein: number;
  fats: number;
  carbs: number;
  calories: number;
  confidence: number; // 0-1 scale
  detectedFoods: string[];
}`

// VisionModel は画像とプロンプトからテキストを生成する外部モデルです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type VisionModel interface {
	Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// LabelHinter は画像からラベルを検出し、プロンプトの補助情報として返します。
type LabelHinter interface {
	Labels(ctx context.Context, image []byte) ([]string, error)
}

// Recorder はモデル呼び出しの結果を記録します。
type Recorder interface {
	ObserveAnalysis(provider, outcome string, elapsed time.Duration)
}

// analysisUsecase は食事画像の栄養分析を提供します。
type analysisUsecase struct {
	model    VisionModel
	provider string
	hinter   LabelHinter
	recorder Recorder
	now      func() time.Time
}

// NewAnalysisUsecase はanalysisUsecaseの新しいインスタンスを生成します。
// hinterとrecorderはnilでも構いません。
func NewAnalysisUsecase(model VisionModel, provider string, hinter LabelHinter, recorder Recorder) *analysisUsecase {
	return &analysisUsecase{
		model:    model,
		provider: provider,
		hinter:   hinter,
		recorder: recorder,
		now:      time.Now,
	}
}

// DecodeImage はdata URLまたは素のbase64文字列を画像バイト列とMIMEタイプに変換します。
func DecodeImage(imageBase64 string) ([]byte, string, error) {
	s := strings.TrimSpace(imageBase64)
	if s == "" {
		return nil, "", ErrImageRequired
	}

	declared := ""
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return nil, "", ErrInvalidImage
		}
		declared = strings.TrimSuffix(header, ";base64")
		s = payload
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(s)
		if err != nil {
			return nil, "", ErrInvalidImage
		}
	}
	if len(data) == 0 {
		return nil, "", ErrInvalidImage
	}
	if len(data) > MaxImageBytes {
		return nil, "", ErrImageTooLarge
	}

	// 実データから判定したタイプを優先し、判定できなければ宣言値を使う
	mimeType := mimetype.Detect(data).String()
	if !strings.HasPrefix(mimeType, "image/") {
		if !strings.HasPrefix(declared, "image/") {
			return nil, "", ErrInvalidImage
		}
		mimeType = declared
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return data, mimeType, nil
}

// BuildPrompt はモデルへ送る指示文を組み立てます。
func BuildPrompt(description string, hints []string) string {
	var b strings.Builder
	b.WriteString("Analyze this food image and provide nutritional information.")
	if d := strings.TrimSpace(description); d != "" {
		b.WriteString(" Additional context: ")
		b.WriteString(d)
	}
	b.WriteString("\n\nPlease provide:\n")
	b.WriteString("1. Estimated portion size and food items detected\n")
	b.WriteString("2. Nutritional breakdown per serving:\n")
	b.WriteString("   - Protein (grams)\n   - Fats (grams)\n   - Carbohydrates (grams)\n   - Total calories\n")
	if len(hints) > 0 {
		b.WriteString("\nLabels detected by an image classifier (may be incomplete): ")
		b.WriteString(strings.Join(hints, ", "))
		b.WriteString("\n")
	}
	b.WriteString("\nRespond ONLY with valid JSON matching this TypeScript interface:\n")
	b.WriteString(resultShape)
	b.WriteString("\n\nBe as accurate as possible with portion estimation. ")
	b.WriteString("If unsure, provide a reasonable estimate and lower confidence score.\n")
	return b.String()
}

// hints はラベル検出を試み、失敗しても分析は続行します。
func (u *analysisUsecase) hints(ctx context.Context, image []byte) []string {
	if u.hinter == nil {
		return nil
	}
	labels, err := u.hinter.Labels(ctx, image)
	if err != nil {
		slog.Warn("label detection failed, continuing without hints", "error", err)
		return nil
	}
	if len(labels) > maxHints {
		labels = labels[:maxHints]
	}
	return labels
}

func (u *analysisUsecase) observe(outcome string, start time.Time) {
	if u.recorder == nil {
		return
	}
	u.recorder.ObserveAnalysis(u.provider, outcome, u.now().Sub(start))
}

// Analyze は画像をビジョンモデルへ送り、推定された栄養情報を返します。
func (u *analysisUsecase) Analyze(ctx context.Context, imageBase64, description string) (*entity.AnalysisResult, error) {
	image, mimeType, err := DecodeImage(imageBase64)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(description, u.hints(ctx, image))

	start := u.now()
	text, err := u.model.Generate(ctx, prompt, image, mimeType)
	if err != nil {
		u.observe(OutcomeError, start)
		return nil, fmt.Errorf("%w: %w", ErrModelFailure, err)
	}

	result, err := ParseAnalysis(text)
	if err != nil {
		u.observe(OutcomeInvalid, start)
		if errors.Is(err, ErrInvalidAnalysis) {
			slog.Error("failed to parse vision model response", "provider", u.provider, "response", text)
		}
		return nil, err
	}

	u.observe(OutcomeOK, start)
	return result, nil
}
