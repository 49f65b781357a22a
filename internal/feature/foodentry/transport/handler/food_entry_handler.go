// Package handler はfoodentryフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"foodlog_backend/internal/api"
	"foodlog_backend/internal/feature/foodentry/domain/entity"
	"foodlog_backend/internal/feature/foodentry/transport/http/dto"
	"foodlog_backend/internal/feature/foodentry/usecase"
	jwtmw "foodlog_backend/internal/platform/jwt"
)

// FoodEntryUsecase は食事記録操作のユースケースインターフェースです。
type FoodEntryUsecase interface {
	Create(ctx context.Context, userID uint, in usecase.CreateInput) (*entity.FoodEntry, error)
	List(ctx context.Context, userID uint, day *usecase.Day) ([]entity.FoodEntry, error)
	Summary(ctx context.Context, userID uint, day *usecase.Day) (usecase.DaySummary, error)
}

// FoodEntryHandler は食事記録のHTTPリクエストを処理します。
type FoodEntryHandler struct {
	uc FoodEntryUsecase
}

// NewFoodEntryHandler は新しいFoodEntryHandlerを生成します。
func NewFoodEntryHandler(uc FoodEntryUsecase) *FoodEntryHandler {
	return &FoodEntryHandler{uc: uc}
}

var errInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")

// parseDay は任意のクエリパラメータ date を暦日として解釈します。空文字は未指定扱いです。
func parseDay(c *gin.Context) (*usecase.Day, error) {
	if c.Query("date") == "" {
		return nil, nil
	}
	var d openapi_types.Date
	if err := runtime.BindQueryParameter("form", true, true, "date", c.Request.URL.Query(), &d); err != nil {
		return nil, errInvalidDate
	}
	t := d.Time
	return &usecase.Day{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// Create は POST /api/food-entries を処理します。
func (h *FoodEntryHandler) Create(c *gin.Context) {
	userID, ok := jwtmw.UserIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: api.MsgUnauthorized})
		return
	}

	var req dto.CreateFoodEntryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("food entry body invalid", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: api.MsgInvalidRequest})
		return
	}

	in, err := req.ToInput()
	if err == nil {
		var e *entity.FoodEntry
		e, err = h.uc.Create(c.Request.Context(), userID, in)
		if err == nil {
			c.JSON(http.StatusOK, dto.NewFoodEntryRes(*e))
			return
		}
	}

	switch {
	case errors.Is(err, usecase.ErrMissingMacro), errors.Is(err, usecase.ErrMissingImagePath):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Missing required fields"})
	case errors.Is(err, usecase.ErrInvalidMacro):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: usecase.ErrInvalidMacro.Error()})
	default:
		slog.Error("food entry creation failed", "error", err, "user_id", userID, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create food entry"})
	}
}

// List は GET /api/food-entries?date=YYYY-MM-DD を処理します。
func (h *FoodEntryHandler) List(c *gin.Context) {
	userID, ok := jwtmw.UserIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: api.MsgUnauthorized})
		return
	}

	day, err := parseDay(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	entries, err := h.uc.List(c.Request.Context(), userID, day)
	if err != nil {
		slog.Error("food entries fetch failed", "error", err, "user_id", userID, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch food entries"})
		return
	}

	out := make([]dto.FoodEntryRes, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.NewFoodEntryRes(e))
	}
	c.JSON(http.StatusOK, out)
}

// Summary は GET /api/food-entries/summary?date=YYYY-MM-DD を処理します。
func (h *FoodEntryHandler) Summary(c *gin.Context) {
	userID, ok := jwtmw.UserIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: api.MsgUnauthorized})
		return
	}

	day, err := parseDay(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	sum, err := h.uc.Summary(c.Request.Context(), userID, day)
	if err != nil {
		slog.Error("food entry summary failed", "error", err, "user_id", userID, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to summarize food entries"})
		return
	}

	c.JSON(http.StatusOK, dto.MacroSummaryRes{
		Date:          sum.Date.String(),
		TotalProtein:  sum.TotalProtein,
		TotalFats:     sum.TotalFats,
		TotalCarbs:    sum.TotalCarbs,
		TotalCalories: sum.TotalCalories,
		EntryCount:    sum.EntryCount,
	})
}
