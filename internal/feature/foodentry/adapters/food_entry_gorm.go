// Package adapters はfoodentryフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"foodlog_backend/internal/feature/foodentry/domain/entity"
	"foodlog_backend/internal/feature/foodentry/usecase"
)

type foodEntryGorm struct {
	db *gorm.DB
}

var _ usecase.FoodEntryRepository = (*foodEntryGorm)(nil)

// NewFoodEntryRepository はGORMベースのFoodEntryRepositoryを生成します。
func NewFoodEntryRepository(db *gorm.DB) *foodEntryGorm {
	return &foodEntryGorm{db: db}
}

// FoodEntryModel is the persisted row. The composite index serves the per-user, per-day listing.
type FoodEntryModel struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"not null;index:idx_food_entries_user_created,priority:1"`
	ImagePath   string    `gorm:"size:1024;not null"`
	Description *string   `gorm:"type:text"`
	Protein     float64   `gorm:"not null"`
	Fats        float64   `gorm:"not null"`
	Carbs       float64   `gorm:"not null"`
	Calories    float64   `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null;index:idx_food_entries_user_created,priority:2"`
}

func (FoodEntryModel) TableName() string {
	return "food_entries"
}

func toModel(e *entity.FoodEntry) FoodEntryModel {
	return FoodEntryModel{
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

func toEntity(m FoodEntryModel) entity.FoodEntry {
	return entity.FoodEntry{
		ID:          m.ID,
		UserID:      m.UserID,
		ImagePath:   m.ImagePath,
		Description: m.Description,
		Protein:     m.Protein,
		Fats:        m.Fats,
		Carbs:       m.Carbs,
		Calories:    m.Calories,
		CreatedAt:   m.CreatedAt,
	}
}

// Create は記録を保存し、採番されたIDと作成日時をeに書き戻します。
func (r *foodEntryGorm) Create(ctx context.Context, e *entity.FoodEntry) error {
	if e == nil {
		return errors.New("food entry is nil")
	}
	m := toModel(e)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	e.ID = m.ID
	e.CreatedAt = m.CreatedAt
	return nil
}

// scoped は所有者と期間で絞り込んだクエリを返します。
// 期間の境界はUTCに変換してから比較します。
func (r *foodEntryGorm) scoped(ctx context.Context, userID uint, rng *entity.DateRange) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&FoodEntryModel{}).Where("user_id = ?", userID)
	if rng != nil {
		q = q.Where("created_at >= ? AND created_at <= ?", rng.From.UTC(), rng.To.UTC())
	}
	return q
}

// List は所有者の記録を作成日時の降順で返します。
func (r *foodEntryGorm) List(ctx context.Context, userID uint, rng *entity.DateRange) ([]entity.FoodEntry, error) {
	var rows []FoodEntryModel
	if err := r.scoped(ctx, userID, rng).Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.FoodEntry, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}

type summaryRow struct {
	TotalProtein  float64
	TotalFats     float64
	TotalCarbs    float64
	TotalCalories float64
	EntryCount    int64
}

// Summarize は期間内のマクロ合計と件数を集計します。
func (r *foodEntryGorm) Summarize(ctx context.Context, userID uint, rng *entity.DateRange) (entity.MacroSummary, error) {
	var row summaryRow
	err := r.scoped(ctx, userID, rng).Select(
		"COALESCE(SUM(protein), 0) AS total_protein, " +
			"COALESCE(SUM(fats), 0) AS total_fats, " +
			"COALESCE(SUM(carbs), 0) AS total_carbs, " +
			"COALESCE(SUM(calories), 0) AS total_calories, " +
			"COUNT(*) AS entry_count",
	).Scan(&row).Error
	if err != nil {
		return entity.MacroSummary{}, err
	}
	return entity.MacroSummary{
		TotalProtein:  row.TotalProtein,
		TotalFats:     row.TotalFats,
		TotalCarbs:    row.TotalCarbs,
		TotalCalories: row.TotalCalories,
		EntryCount:    row.EntryCount,
	}, nil
}
