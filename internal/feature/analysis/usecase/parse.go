package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"foodlog_backend/internal/feature/analysis/domain/entity"
)

const fence = "```"

// StripCodeFence はモデル応答を囲むMarkdownのコードフェンスを取り除きます。
// 先頭が ```json または ``` の場合のみ、末尾のフェンスも取り除きます。
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(s, fence+"json"):
		s = strings.TrimPrefix(s, fence+"json")
	case strings.HasPrefix(s, fence):
		s = strings.TrimPrefix(s, fence)
	default:
		return s
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

// analysisPayload はモデル応答のJSON形式です。欠損を検出するため数値はポインタで受けます。
type analysisPayload struct {
	Protein       *float64 `json:"protein"`
	Fats          *float64 `json:"fats"`
	Carbs         *float64 `json:"carbs"`
	Calories      *float64 `json:"calories"`
	Confidence    *float64 `json:"confidence"`
	DetectedFoods []string `json:"detectedFoods"`
}

// ParseAnalysis はモデルのテキスト応答をAnalysisResultへ変換します。
// 部分的な結果は返さず、必須フィールドの欠損や範囲外の値はErrInvalidAnalysisになります。
func ParseAnalysis(text string) (*entity.AnalysisResult, error) {
	cleaned := StripCodeFence(text)
	if cleaned == "" {
		return nil, ErrEmptyResponse
	}

	var p analysisPayload
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAnalysis, err)
	}

	macros := map[string]*float64{
		"protein":  p.Protein,
		"fats":     p.Fats,
		"carbs":    p.Carbs,
		"calories": p.Calories,
	}
	for name, v := range macros {
		if v == nil {
			return nil, fmt.Errorf("%w: %s is missing", ErrInvalidAnalysis, name)
		}
		if *v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
			return nil, fmt.Errorf("%w: %s must be non-negative", ErrInvalidAnalysis, name)
		}
	}
	if p.Confidence == nil {
		return nil, fmt.Errorf("%w: confidence is missing", ErrInvalidAnalysis)
	}
	if *p.Confidence < 0 || *p.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", ErrInvalidAnalysis, *p.Confidence)
	}
	if p.DetectedFoods == nil {
		return nil, fmt.Errorf("%w: detectedFoods is missing", ErrInvalidAnalysis)
	}

	return &entity.AnalysisResult{
		Protein:       *p.Protein,
		Fats:          *p.Fats,
		Carbs:         *p.Carbs,
		Calories:      *p.Calories,
		Confidence:    *p.Confidence,
		DetectedFoods: p.DetectedFoods,
	}, nil
}
