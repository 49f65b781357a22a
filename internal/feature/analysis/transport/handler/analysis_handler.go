// Package handler はanalysisフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"foodlog_backend/internal/api"
	"foodlog_backend/internal/feature/analysis/domain/entity"
	"foodlog_backend/internal/feature/analysis/transport/http/dto"
	"foodlog_backend/internal/feature/analysis/usecase"
	jwtmw "foodlog_backend/internal/platform/jwt"
)

const (
	msgImageRequired  = "Image is required"
	msgAnalysisFailed = "Failed to analyze food image"
)

// AnalysisUsecase は食事画像分析のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type AnalysisUsecase interface {
	Analyze(ctx context.Context, imageBase64, description string) (*entity.AnalysisResult, error)
}

// AnalysisHandler は食事画像分析のHTTPリクエストを処理します。
type AnalysisHandler struct {
	uc AnalysisUsecase
}

// NewAnalysisHandler はAnalysisHandlerの新しいインスタンスを生成します。
func NewAnalysisHandler(uc AnalysisUsecase) *AnalysisHandler {
	return &AnalysisHandler{uc: uc}
}

// AnalyzeFood は画像から栄養情報を推定します。
//
// エンドポイント: POST /api/analyze-food
// Content-Type: application/json
func (h *AnalysisHandler) AnalyzeFood(c *gin.Context) {
	var req dto.AnalyzeFoodReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("分析リクエストのバインドに失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: msgImageRequired})
		return
	}
	if req.ImageBase64 == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: msgImageRequired})
		return
	}

	result, err := h.uc.Analyze(c.Request.Context(), req.ImageBase64, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrImageRequired):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: msgImageRequired})
		case errors.Is(err, usecase.ErrInvalidImage), errors.Is(err, usecase.ErrImageTooLarge):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		default:
			userID, _ := jwtmw.UserIDFrom(c)
			slog.Error("食事画像の分析に失敗", "error", err, "user_id", userID)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: msgAnalysisFailed})
		}
		return
	}

	c.JSON(http.StatusOK, dto.NewAnalysisRes(result))
}
