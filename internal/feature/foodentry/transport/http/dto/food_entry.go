// Package dto はfoodentryフィーチャーのHTTPトランスポート層のDTOを定義します。
package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"foodlog_backend/internal/feature/foodentry/domain/entity"
	"foodlog_backend/internal/feature/foodentry/usecase"
)

// FlexFloat はJSONの数値と数値文字列の両方を受け付けます。
// 解釈できない値はエラーにせずInvalidとして保持し、検証はToInputで行います。
type FlexFloat struct {
	Value   float64
	Invalid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			f.Invalid = true
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			f.Invalid = true
			return nil
		}
		f.Value = v
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		f.Invalid = true
		return nil
	}
	f.Value = v
	return nil
}

// CreateFoodEntryReq は POST /api/food-entries のリクエストボディです。
type CreateFoodEntryReq struct {
	ImagePath   string     `json:"imagePath"`
	Description *string    `json:"description"`
	Protein     *FlexFloat `json:"protein"`
	Fats        *FlexFloat `json:"fats"`
	Carbs       *FlexFloat `json:"carbs"`
	Calories    *FlexFloat `json:"calories"`
}

// ToInput converts the request into usecase input. Unparseable values yield usecase.ErrInvalidMacro.
func (r CreateFoodEntryReq) ToInput() (usecase.CreateInput, error) {
	in := usecase.CreateInput{ImagePath: r.ImagePath, Description: r.Description}
	targets := []struct {
		src *FlexFloat
		dst **float64
	}{
		{r.Protein, &in.Protein},
		{r.Fats, &in.Fats},
		{r.Carbs, &in.Carbs},
		{r.Calories, &in.Calories},
	}
	for _, t := range targets {
		if t.src == nil {
			continue
		}
		if t.src.Invalid {
			return usecase.CreateInput{}, usecase.ErrInvalidMacro
		}
		v := t.src.Value
		*t.dst = &v
	}
	return in, nil
}

// FoodEntryRes is the JSON projection of a stored entry.
type FoodEntryRes struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"userId"`
	ImagePath   string    `json:"imagePath"`
	Description *string   `json:"description"`
	Protein     float64   `json:"protein"`
	Fats        float64   `json:"fats"`
	Carbs       float64   `json:"carbs"`
	Calories    float64   `json:"calories"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewFoodEntryRes はエンティティをレスポンスに変換します。
func NewFoodEntryRes(e entity.FoodEntry) FoodEntryRes {
	return FoodEntryRes{
		ID:          e.ID,
		UserID:      e.UserID,
		ImagePath:   e.ImagePath,
		Description: e.Description,
		Protein:     e.Protein,
		Fats:        e.Fats,
		Carbs:       e.Carbs,
		Calories:    e.Calories,
		CreatedAt:   e.CreatedAt,
	}
}

// MacroSummaryRes は日別合計のレスポンスです。
type MacroSummaryRes struct {
	Date          string  `json:"date"`
	TotalProtein  float64 `json:"totalProtein"`
	TotalFats     float64 `json:"totalFats"`
	TotalCarbs    float64 `json:"totalCarbs"`
	TotalCalories float64 `json:"totalCalories"`
	EntryCount    int64   `json:"entryCount"`
}
