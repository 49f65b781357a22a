// Package entity defines the domain models for the foodentry feature.
package entity

import "time"

// FoodEntry is one logged meal with its macronutrient estimate.
type FoodEntry struct {
	ID          uint
	UserID      uint
	ImagePath   string
	Description *string // nil when the user gave no description
	Protein     float64 // grams
	Fats        float64 // grams
	Carbs       float64 // grams
	Calories    float64 // kcal
	CreatedAt   time.Time
}

// DateRange is an inclusive [From, To] interval on CreatedAt.
type DateRange struct {
	From time.Time
	To   time.Time
}

// DayRange returns the range covering the whole calendar day in loc,
// from 00:00:00 to 23:59:59.999999999.
func DayRange(year int, month time.Month, day int, loc *time.Location) DateRange {
	from := time.Date(year, month, day, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return DateRange{From: from, To: to}
}

// Contains reports whether t falls inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// MacroSummary holds the totals for a set of entries.
type MacroSummary struct {
	TotalProtein  float64
	TotalFats     float64
	TotalCarbs    float64
	TotalCalories float64
	EntryCount    int64
}
