package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"sleepface.app/engine/internal/http/handler"
	"sleepface.app/engine/internal/model"
	"sleepface.app/engine/internal/queue"
	"sleepface.app/engine/internal/service"
	"sleepface.app/engine/internal/store"
)

// analyzeForm builds the multipart body the analyze endpoints expect.
// Pass an empty value to omit a field.
func analyzeForm(userID, image, routine string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if userID != "" {
		_ = w.WriteField("user_id", userID)
	}
	if image != "" {
		part, _ := w.CreateFormFile("image", "face.jpg")
		_, _ = part.Write([]byte(image))
	}
	if routine != "" {
		_ = w.WriteField("routine", routine)
	}
	_ = w.Close()
	return body, w.FormDataContentType()
}

var _ = Describe("AnalysisHandler", func() {
	var (
		router   *gin.Engine
		svc      *mockAnalysisService
		producer *mockProducer
		mediaDir string
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockAnalysisService{}
		producer = &mockProducer{}

		var err error
		mediaDir, err = os.MkdirTemp("", "media")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = os.RemoveAll(mediaDir) })

		h := handler.NewAnalysisHandler(svc, producer, mediaDir)
		router.POST("/analyze", h.Analyze)
		router.POST("/analyze/async", h.AnalyzeAsync)
	})

	Describe("Analyze", func() {
		It("returns 200 with the record and summary on success", func() {
			svc.analyzeFn = func(_ context.Context, params service.AnalyzeParams) (*service.AnalyzeResult, error) {
				Expect(params.UserID).To(Equal("u1"))
				Expect(params.ImageData).To(Equal([]byte("jpegbytes")))
				Expect(params.Routine).NotTo(BeNil())
				Expect(*params.Routine.SleepHours).To(Equal(7.5))
				return &service.AnalyzeResult{
					Record:  &model.AnalysisRecord{UserID: "u1", Date: "2026-08-30", SleepScore: 81},
					Summary: &model.SmartSummary{IsBaseline: true},
				}, nil
			}

			body, contentType := analyzeForm("u1", "jpegbytes", `{"sleep_hours":7.5}`)
			req := httptest.NewRequest(http.MethodPost, "/analyze", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			record := resp["record"].(map[string]any)
			Expect(record["user_id"]).To(Equal("u1"))
			Expect(record["sleep_score"]).To(Equal(float64(81)))
		})

		It("returns 400 when user_id is missing", func() {
			body, contentType := analyzeForm("", "jpegbytes", "")
			req := httptest.NewRequest(http.MethodPost, "/analyze", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 when the image part is missing", func() {
			body, contentType := analyzeForm("u1", "", "")
			req := httptest.NewRequest(http.MethodPost, "/analyze", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 when the routine part is not valid JSON", func() {
			body, contentType := analyzeForm("u1", "jpegbytes", `{"sleep_hours":`)
			req := httptest.NewRequest(http.MethodPost, "/analyze", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 422 when no face is detected", func() {
			svc.analyzeFn = func(context.Context, service.AnalyzeParams) (*service.AnalyzeResult, error) {
				return nil, service.ErrNoFaceDetected
			}

			body, contentType := analyzeForm("u1", "jpegbytes", "")
			req := httptest.NewRequest(http.MethodPost, "/analyze", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		})

		It("returns 400 when the image does not decode", func() {
			svc.analyzeFn = func(context.Context, service.AnalyzeParams) (*service.AnalyzeResult, error) {
				return nil, service.ErrInvalidImage
			}

			body, contentType := analyzeForm("u1", "notanimage", "")
			req := httptest.NewRequest(http.MethodPost, "/analyze", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 409 when a same-day analysis is in flight", func() {
			svc.analyzeFn = func(context.Context, service.AnalyzeParams) (*service.AnalyzeResult, error) {
				return nil, store.ErrBusy
			}

			body, contentType := analyzeForm("u1", "jpegbytes", "")
			req := httptest.NewRequest(http.MethodPost, "/analyze", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusConflict))
		})

		It("returns 504 when the pipeline exceeds its time budget", func() {
			svc.analyzeFn = func(context.Context, service.AnalyzeParams) (*service.AnalyzeResult, error) {
				return nil, service.ErrAnalysisTimeout
			}

			body, contentType := analyzeForm("u1", "jpegbytes", "")
			req := httptest.NewRequest(http.MethodPost, "/analyze", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusGatewayTimeout))
		})
	})

	Describe("AnalyzeAsync", func() {
		It("spools the image, enqueues a task and returns 202", func() {
			body, contentType := analyzeForm("u1", "jpegbytes", `{"water_intake":8}`)
			req := httptest.NewRequest(http.MethodPost, "/analyze/async", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusAccepted))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["status"]).To(Equal("queued"))
			Expect(resp["task_id"]).NotTo(BeEmpty())

			Expect(producer.tasks).To(HaveLen(1))
			task := producer.tasks[0]
			Expect(task.UserID).To(Equal("u1"))
			Expect(task.TaskID).To(Equal(resp["task_id"]))
			Expect(task.RoutineJSON).To(ContainSubstring("water_intake"))

			spooled, err := os.ReadFile(filepath.Join(mediaDir, task.ImagePath))
			Expect(err).NotTo(HaveOccurred())
			Expect(spooled).To(Equal([]byte("jpegbytes")))
		})

		It("returns 500 and keeps nothing queued when enqueue fails", func() {
			producer.enqueueFn = func(context.Context, queue.AnalysisTask) error {
				return errors.New("stream unavailable")
			}

			body, contentType := analyzeForm("u1", "jpegbytes", "")
			req := httptest.NewRequest(http.MethodPost, "/analyze/async", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})

		It("returns 400 when user_id is missing", func() {
			body, contentType := analyzeForm("", "jpegbytes", "")
			req := httptest.NewRequest(http.MethodPost, "/analyze/async", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(producer.tasks).To(BeEmpty())
		})
	})
})
