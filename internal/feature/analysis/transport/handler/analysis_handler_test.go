package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"foodlog_backend/internal/feature/analysis/domain/entity"
	"foodlog_backend/internal/feature/analysis/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockAnalysisUsecase はAnalysisUsecaseインターフェースのモック実装です。
type mockAnalysisUsecase struct {
	AnalyzeFunc  func(ctx context.Context, imageBase64, description string) (*entity.AnalysisResult, error)
	AnalyzeCalls int
}

func (m *mockAnalysisUsecase) Analyze(ctx context.Context, imageBase64, description string) (*entity.AnalysisResult, error) {
	m.AnalyzeCalls++
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, imageBase64, description)
	}
	return nil, errors.New("AnalyzeFunc is not implemented")
}

func TestAnalysisHandler_AnalyzeFood(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		result         *entity.AnalysisResult
		err            error
		expectedStatus int
		expectedBody   string
		expectCall     bool
	}{
		{
			name: "success",
			body: `{"imageBase64":"data:image/png;base64,AAAA","description":"lunch"}`,
			result: &entity.AnalysisResult{
				Protein: 20, Fats: 10, Carbs: 50, Calories: 370, Confidence: 0.7,
				DetectedFoods: []string{"pasta"},
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"protein":20,"fats":10,"carbs":50,"calories":370,"confidence":0.7,"detectedFoods":["pasta"]}`,
			expectCall:     true,
		},
		{
			name:           "success with nil foods",
			body:           `{"imageBase64":"AAAA"}`,
			result:         &entity.AnalysisResult{},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"protein":0,"fats":0,"carbs":0,"calories":0,"confidence":0,"detectedFoods":[]}`,
			expectCall:     true,
		},
		{
			name:           "missing image",
			body:           `{"description":"lunch"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Image is required"}`,
		},
		{
			name:           "malformed json",
			body:           `{"imageBase64":`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Image is required"}`,
		},
		{
			name:           "undecodable image",
			body:           `{"imageBase64":"***"}`,
			err:            usecase.ErrInvalidImage,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"image must be a base64 encoded image or data URL"}`,
			expectCall:     true,
		},
		{
			name:           "model failure",
			body:           `{"imageBase64":"AAAA"}`,
			err:            usecase.ErrModelFailure,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Failed to analyze food image"}`,
			expectCall:     true,
		},
		{
			name:           "unparseable reply",
			body:           `{"imageBase64":"AAAA"}`,
			err:            usecase.ErrInvalidAnalysis,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Failed to analyze food image"}`,
			expectCall:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockAnalysisUsecase{
				AnalyzeFunc: func(ctx context.Context, imageBase64, description string) (*entity.AnalysisResult, error) {
					return tt.result, tt.err
				},
			}
			r := gin.New()
			r.POST("/api/analyze-food", NewAnalysisHandler(uc).AnalyzeFood)

			req := httptest.NewRequest(http.MethodPost, "/api/analyze-food", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			assert.Equal(t, tt.expectCall, uc.AnalyzeCalls > 0)
		})
	}
}
