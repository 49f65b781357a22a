// Package entity はanalysisフィーチャーのドメインモデルを定義します。
package entity

// AnalysisResult は食事画像から推定した栄養情報です。永続化はされません。
type AnalysisResult struct {
	Protein       float64  // タンパク質（g）
	Fats          float64  // 脂質（g）
	Carbs         float64  // 炭水化物（g）
	Calories      float64  // 総カロリー（kcal）
	Confidence    float64  // 信頼度（0.0 ~ 1.0）
	DetectedFoods []string // 検出された食品名
}
