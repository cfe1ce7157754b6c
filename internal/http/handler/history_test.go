package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"sleepface.app/engine/internal/http/handler"
	"sleepface.app/engine/internal/model"
	"sleepface.app/engine/internal/store"
)

var _ = Describe("HistoryHandler", func() {
	var (
		router    *gin.Engine
		histories *mockHistoryService
		summaries *mockSummaryService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		histories = &mockHistoryService{}
		summaries = &mockSummaryService{}
		h := handler.NewHistoryHandler(histories, summaries)
		router.GET("/users/:user_id/history", h.History)
		router.GET("/users/:user_id/summary", h.Summary)
		router.GET("/users/:user_id/statistics", h.Statistics)
	})

	Describe("History", func() {
		It("returns the stored records with their count", func() {
			histories.listFn = func(_ context.Context, userID string, days int) ([]model.AnalysisRecord, error) {
				Expect(userID).To(Equal("u1"))
				Expect(days).To(Equal(7))
				return []model.AnalysisRecord{
					{UserID: "u1", Date: "2026-08-30"},
					{UserID: "u1", Date: "2026-08-29"},
				}, nil
			}

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/users/u1/history?days=7", nil)
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["count"]).To(Equal(float64(2)))
			Expect(resp["user_id"]).To(Equal("u1"))
		})

		It("rejects a non-positive days parameter", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/users/u1/history?days=-3", nil)
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects a non-numeric days parameter", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/users/u1/history?days=week", nil)
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 500 when the store fails", func() {
			histories.listFn = func(context.Context, string, int) ([]model.AnalysisRecord, error) {
				return nil, errors.New("connection reset")
			}

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/users/u1/history", nil)
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Summary", func() {
		It("returns the generated summary", func() {
			summaries.generateFn = func(_ context.Context, userID string, current *model.AnalysisRecord) (*model.SmartSummary, error) {
				Expect(userID).To(Equal("u1"))
				Expect(current).To(BeNil())
				return &model.SmartSummary{IsBaseline: true}, nil
			}

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/users/u1/summary", nil)
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["summary"]).NotTo(BeNil())
		})

		It("returns 404 for a user with no analyses", func() {
			summaries.generateFn = func(context.Context, string, *model.AnalysisRecord) (*model.SmartSummary, error) {
				return nil, store.ErrNotFound
			}

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/users/ghost/summary", nil)
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Statistics", func() {
		It("returns the aggregate statistics", func() {
			histories.statisticsFn = func(_ context.Context, userID string) (*model.UserStatistics, error) {
				return &model.UserStatistics{
					UserID:          userID,
					TotalAnalyses:   12,
					RecentDirection: "improving",
				}, nil
			}

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/users/u1/statistics", nil)
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["total_analyses"]).To(Equal(float64(12)))
			Expect(resp["recent_direction"]).To(Equal("improving"))
		})
	})
})
