package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodlog_backend/internal/feature/foodentry/domain/entity"
)

// mockFoodEntryRepository is a mock implementation of FoodEntryRepository.
type mockFoodEntryRepository struct {
	CreateFunc    func(ctx context.Context, e *entity.FoodEntry) error
	ListFunc      func(ctx context.Context, userID uint, rng *entity.DateRange) ([]entity.FoodEntry, error)
	SummarizeFunc func(ctx context.Context, userID uint, rng *entity.DateRange) (entity.MacroSummary, error)
	CreateCalls   int
}

func (m *mockFoodEntryRepository) Create(ctx context.Context, e *entity.FoodEntry) error {
	m.CreateCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, e)
	}
	e.ID = 1
	e.CreatedAt = time.Now()
	return nil
}

func (m *mockFoodEntryRepository) List(ctx context.Context, userID uint, rng *entity.DateRange) ([]entity.FoodEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, rng)
	}
	return nil, nil
}

func (m *mockFoodEntryRepository) Summarize(ctx context.Context, userID uint, rng *entity.DateRange) (entity.MacroSummary, error) {
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, userID, rng)
	}
	return entity.MacroSummary{}, nil
}

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

func validInput() CreateInput {
	return CreateInput{ImagePath: "/api/images/x.jpg", Protein: f(10), Fats: f(5), Carbs: f(20), Calories: f(165)}
}

func TestFoodEntryUsecase_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := &mockFoodEntryRepository{
			CreateFunc: func(ctx context.Context, e *entity.FoodEntry) error {
				assert.Equal(t, uint(42), e.UserID)
				assert.Equal(t, 165.0, e.Calories)
				e.ID = 9
				return nil
			},
		}
		in := validInput()
		in.Description = s("oatmeal")

		got, err := NewFoodEntryUsecase(repo, time.UTC).Create(context.Background(), 42, in)

		require.NoError(t, err)
		assert.Equal(t, uint(9), got.ID)
		assert.Equal(t, "oatmeal", *got.Description)
	})

	t.Run("zero macros are accepted", func(t *testing.T) {
		in := CreateInput{ImagePath: "p", Protein: f(0), Fats: f(0), Carbs: f(0), Calories: f(0)}
		_, err := NewFoodEntryUsecase(&mockFoodEntryRepository{}, time.UTC).Create(context.Background(), 1, in)
		assert.NoError(t, err)
	})

	t.Run("empty description stored as nil", func(t *testing.T) {
		in := validInput()
		in.Description = s("")
		got, err := NewFoodEntryUsecase(&mockFoodEntryRepository{}, time.UTC).Create(context.Background(), 1, in)
		require.NoError(t, err)
		assert.Nil(t, got.Description)
	})

	tests := []struct {
		name    string
		mutate  func(in *CreateInput)
		wantErr error
	}{
		{"missing protein", func(in *CreateInput) { in.Protein = nil }, ErrMissingMacro},
		{"missing fats", func(in *CreateInput) { in.Fats = nil }, ErrMissingMacro},
		{"missing carbs", func(in *CreateInput) { in.Carbs = nil }, ErrMissingMacro},
		{"missing calories", func(in *CreateInput) { in.Calories = nil }, ErrMissingMacro},
		{"missing image path", func(in *CreateInput) { in.ImagePath = "  " }, ErrMissingImagePath},
		{"negative value", func(in *CreateInput) { in.Fats = f(-1) }, ErrInvalidMacro},
		{"NaN", func(in *CreateInput) { in.Carbs = f(math.NaN()) }, ErrInvalidMacro},
		{"infinity", func(in *CreateInput) { in.Calories = f(math.Inf(1)) }, ErrInvalidMacro},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockFoodEntryRepository{}
			in := validInput()
			tt.mutate(&in)

			got, err := NewFoodEntryUsecase(repo, time.UTC).Create(context.Background(), 1, in)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, got)
			assert.Zero(t, repo.CreateCalls, "nothing must be persisted")
		})
	}

	t.Run("store failure is wrapped", func(t *testing.T) {
		storeErr := errors.New("disk full")
		repo := &mockFoodEntryRepository{CreateFunc: func(ctx context.Context, e *entity.FoodEntry) error { return storeErr }}

		_, err := NewFoodEntryUsecase(repo, time.UTC).Create(context.Background(), 1, validInput())
		assert.ErrorIs(t, err, storeErr)
	})
}

func TestFoodEntryUsecase_List(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)

	t.Run("without date", func(t *testing.T) {
		repo := &mockFoodEntryRepository{
			ListFunc: func(ctx context.Context, userID uint, rng *entity.DateRange) ([]entity.FoodEntry, error) {
				assert.Nil(t, rng)
				return []entity.FoodEntry{{ID: 2}, {ID: 1}}, nil
			},
		}
		got, err := NewFoodEntryUsecase(repo, jst).List(context.Background(), 1, nil)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("date resolved in configured zone", func(t *testing.T) {
		repo := &mockFoodEntryRepository{
			ListFunc: func(ctx context.Context, userID uint, rng *entity.DateRange) ([]entity.FoodEntry, error) {
				require.NotNil(t, rng)
				assert.True(t, rng.From.Equal(time.Date(2025, 2, 28, 15, 0, 0, 0, time.UTC)))
				assert.True(t, rng.To.Equal(time.Date(2025, 3, 1, 14, 59, 59, 999999999, time.UTC)))
				return nil, nil
			},
		}
		_, err := NewFoodEntryUsecase(repo, jst).List(context.Background(), 1, &Day{2025, time.March, 1})
		require.NoError(t, err)
	})

	t.Run("entries outside the day are dropped", func(t *testing.T) {
		repo := &mockFoodEntryRepository{
			ListFunc: func(ctx context.Context, userID uint, rng *entity.DateRange) ([]entity.FoodEntry, error) {
				return []entity.FoodEntry{
					{ID: 3, CreatedAt: time.Date(2025, 3, 2, 0, 0, 0, 0, jst)},
					{ID: 2, CreatedAt: time.Date(2025, 3, 1, 23, 59, 59, 999999999, jst)},
					{ID: 1, CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, jst)},
					{ID: 0, CreatedAt: time.Date(2025, 2, 28, 23, 59, 59, 0, jst)},
				}, nil
			},
		}
		got, err := NewFoodEntryUsecase(repo, jst).List(context.Background(), 1, &Day{2025, time.March, 1})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, uint(2), got[0].ID)
		assert.Equal(t, uint(1), got[1].ID)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := &mockFoodEntryRepository{
			ListFunc: func(ctx context.Context, userID uint, rng *entity.DateRange) ([]entity.FoodEntry, error) {
				return nil, errors.New("boom")
			},
		}
		_, err := NewFoodEntryUsecase(repo, time.UTC).List(context.Background(), 1, nil)
		assert.Error(t, err)
	})
}

func TestFoodEntryUsecase_Summary(t *testing.T) {
	t.Run("defaults to today", func(t *testing.T) {
		repo := &mockFoodEntryRepository{
			SummarizeFunc: func(ctx context.Context, userID uint, rng *entity.DateRange) (entity.MacroSummary, error) {
				require.NotNil(t, rng)
				assert.True(t, rng.From.Equal(time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)))
				return entity.MacroSummary{TotalProtein: 5, EntryCount: 1}, nil
			},
		}
		uc := NewFoodEntryUsecase(repo, time.UTC)
		uc.now = func() time.Time { return time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC) }

		got, err := uc.Summary(context.Background(), 1, nil)
		require.NoError(t, err)
		assert.Equal(t, "2025-07-04", got.Date.String())
		assert.Equal(t, 5.0, got.TotalProtein)
		assert.Equal(t, int64(1), got.EntryCount)
	})

	t.Run("explicit day", func(t *testing.T) {
		got, err := NewFoodEntryUsecase(&mockFoodEntryRepository{}, nil).Summary(context.Background(), 1, &Day{2024, time.January, 9})
		require.NoError(t, err)
		assert.Equal(t, "2024-01-09", got.Date.String())
	})

	t.Run("store failure", func(t *testing.T) {
		repo := &mockFoodEntryRepository{
			SummarizeFunc: func(ctx context.Context, userID uint, rng *entity.DateRange) (entity.MacroSummary, error) {
				return entity.MacroSummary{}, errors.New("boom")
			},
		}
		_, err := NewFoodEntryUsecase(repo, time.UTC).Summary(context.Background(), 1, nil)
		assert.Error(t, err)
	})
}
