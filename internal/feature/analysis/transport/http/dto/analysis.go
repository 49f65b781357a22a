// Package dto はanalysisフィーチャーのリクエスト/レスポンス型を定義します。
package dto

import "foodlog_backend/internal/feature/analysis/domain/entity"

// AnalyzeFoodReq は POST /api/analyze-food のリクエストです。
type AnalyzeFoodReq struct {
	ImageBase64 string `json:"imageBase64"`
	Description string `json:"description"`
}

// AnalysisRes は栄養分析結果のレスポンスです。
type AnalysisRes struct {
	Protein       float64  `json:"protein"`
	Fats          float64  `json:"fats"`
	Carbs         float64  `json:"carbs"`
	Calories      float64  `json:"calories"`
	Confidence    float64  `json:"confidence"`
	DetectedFoods []string `json:"detectedFoods"`
}

// NewAnalysisRes はAnalysisResultをレスポンスに変換します。
func NewAnalysisRes(r *entity.AnalysisResult) AnalysisRes {
	foods := r.DetectedFoods
	if foods == nil {
		foods = []string{}
	}
	return AnalysisRes{
		Protein:       r.Protein,
		Fats:          r.Fats,
		Carbs:         r.Carbs,
		Calories:      r.Calories,
		Confidence:    r.Confidence,
		DetectedFoods: foods,
	}
}
