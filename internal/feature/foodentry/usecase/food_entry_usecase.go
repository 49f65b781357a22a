package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"foodlog_backend/internal/feature/foodentry/domain/entity"
)

// FoodEntryRepository はFoodEntryの永続化層を抽象化します。
// 全メソッドは所有者IDで絞り込み、他ユーザーの記録は返しません。
type FoodEntryRepository interface {
	Create(ctx context.Context, e *entity.FoodEntry) error
	// List は作成日時の降順で返します。rngがnilなら全期間です。
	List(ctx context.Context, userID uint, rng *entity.DateRange) ([]entity.FoodEntry, error)
	Summarize(ctx context.Context, userID uint, rng *entity.DateRange) (entity.MacroSummary, error)
}

// CreateInput は新規記録の入力です。nilのマクロは未指定を意味します。
type CreateInput struct {
	ImagePath   string
	Description *string
	Protein     *float64
	Fats        *float64
	Carbs       *float64
	Calories    *float64
}

// Day はタイムゾーンを持たない暦日です。
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// String formats the day as YYYY-MM-DD.
func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// DaySummary is the totals for one calendar day.
type DaySummary struct {
	Date Day
	entity.MacroSummary
}

type foodEntryUsecase struct {
	repo FoodEntryRepository
	loc  *time.Location
	now  func() time.Time
}

// NewFoodEntryUsecase は新しいfoodEntryUsecaseを生成します。
// locは日付フィルタの暦日を解釈するタイムゾーンです。
func NewFoodEntryUsecase(repo FoodEntryRepository, loc *time.Location) *foodEntryUsecase {
	if loc == nil {
		loc = time.Local
	}
	return &foodEntryUsecase{repo: repo, loc: loc, now: time.Now}
}

func validMacro(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Create は入力を検証し、所有者に紐づく新しい記録を保存します。
func (u *foodEntryUsecase) Create(ctx context.Context, userID uint, in CreateInput) (*entity.FoodEntry, error) {
	if strings.TrimSpace(in.ImagePath) == "" {
		return nil, ErrMissingImagePath
	}
	macros := []*float64{in.Protein, in.Fats, in.Carbs, in.Calories}
	for _, m := range macros {
		if m == nil {
			return nil, ErrMissingMacro
		}
	}
	for _, m := range macros {
		if !validMacro(*m) {
			return nil, ErrInvalidMacro
		}
	}

	// 空の説明はNULLとして保存する
	var desc *string
	if in.Description != nil && *in.Description != "" {
		d := *in.Description
		desc = &d
	}

	e := &entity.FoodEntry{
		UserID:      userID,
		ImagePath:   in.ImagePath,
		Description: desc,
		Protein:     *in.Protein,
		Fats:        *in.Fats,
		Carbs:       *in.Carbs,
		Calories:    *in.Calories,
	}
	if err := u.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create food entry: %w", err)
	}
	return e, nil
}

func (u *foodEntryUsecase) dayRange(d *Day) *entity.DateRange {
	if d == nil {
		return nil
	}
	r := entity.DayRange(d.Year, d.Month, d.Day, u.loc)
	return &r
}

// List は所有者の記録を新しい順に返します。dayを指定するとその暦日に絞り込みます。
func (u *foodEntryUsecase) List(ctx context.Context, userID uint, day *Day) ([]entity.FoodEntry, error) {
	rng := u.dayRange(day)
	entries, err := u.repo.List(ctx, userID, rng)
	if err != nil {
		return nil, fmt.Errorf("list food entries: %w", err)
	}
	if rng == nil {
		return entries, nil
	}
	// ストア側の比較で境界が丸められても範囲外の記録は返さない
	filtered := entries[:0]
	for _, e := range entries {
		if rng.Contains(e.CreatedAt) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// Summary は暦日の合計を返します。dayがnilの場合は設定タイムゾーンでの今日です。
func (u *foodEntryUsecase) Summary(ctx context.Context, userID uint, day *Day) (DaySummary, error) {
	if day == nil {
		now := u.now().In(u.loc)
		day = &Day{Year: now.Year(), Month: now.Month(), Day: now.Day()}
	}
	sum, err := u.repo.Summarize(ctx, userID, u.dayRange(day))
	if err != nil {
		return DaySummary{}, fmt.Errorf("summarize food entries: %w", err)
	}
	return DaySummary{Date: *day, MacroSummary: sum}, nil
}
