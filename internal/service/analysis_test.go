package service_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/model"
	"sleepface.app/engine/internal/service"
	"sleepface.app/engine/internal/store"
)

func testConfig() config.Config {
	return config.Config{
		Analysis: config.AnalysisConfig{
			CLAHEClipLimit:    2.0,
			CLAHETileGrid:     8,
			BilateralDiameter: 9,
			BilateralSigma:    75,
			SkinTargetR:       200,
			SkinTargetG:       180,
			SkinTargetB:       160,
			SkinAdjustment:    0.1,

			SharpnessDivisor: 500,
			MinConfidence:    0.5,
			MinLandmarkScore: 0.5,
			OutlierZScore:    3.0,

			FacialWeight:       0.6,
			LifestyleWeight:    0.3,
			CorrelationWeight:  0.1,
			IngredientBonusCap: 30,

			TimeBudget:   10 * time.Second,
			LockWait:     250 * time.Millisecond,
			MaxImageSide: 1600,
		},
		Trend: config.TrendConfig{
			WindowDays:         7,
			MinWindowPoints:    3,
			ImproveDelta:       2.0,
			DeclineDelta:       -2.0,
			StagnationBand:     0.5,
			StagnationDays:     14,
			VarianceThreshold:  2.0,
			NetChangeThreshold: 2.0,
			SignificantDelta:   5.0,
			ModerateDelta:      2.0,
			HistoryDefaultDays: 30,
			HistoryRetainDays:  365,
		},
	}
}

// portraitPNG renders a synthetic skin-toned face with slight under-eye
// shading, enough structure for the geometric landmark layout.
func portraitPNG(side int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	skin := color.RGBA{R: 200, G: 150, B: 130, A: 255}
	shade := color.RGBA{R: 170, G: 125, B: 110, A: 255}
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.SetRGBA(x, y, skin)
		}
	}
	// Under-eye bands matching the proportional layout
	for _, band := range [][4]float64{{0.30, 0.42, 0.44, 0.50}, {0.56, 0.42, 0.70, 0.50}} {
		for y := int(band[1] * float64(side)); y < int(band[3]*float64(side)); y++ {
			for x := int(band[0] * float64(side)); x < int(band[2]*float64(side)); x++ {
				img.SetRGBA(x, y, shade)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

var _ = Describe("AnalysisService", func() {
	var (
		stores   *store.Stores
		services *service.Services
		analyses service.AnalysisService
	)

	BeforeEach(func() {
		cfg := testConfig()
		stores = store.NewStores(nil, cfg.Analysis.LockWait)
		services = service.NewServices(cfg, stores, nil, slog.Default())
		analyses = services.Analyses()
	})

	It("analyzes a portrait end to end and commits the record", func() {
		sleep := 7.5
		result, err := analyses.Analyze(context.Background(), service.AnalyzeParams{
			UserID:    "u1",
			Date:      "2026-08-30",
			ImageData: portraitPNG(128),
			Routine:   &model.RoutineInput{SleepHours: &sleep},
		})
		Expect(err).NotTo(HaveOccurred())

		record := result.Record
		Expect(record.UserID).To(Equal("u1"))
		Expect(record.Date).To(Equal("2026-08-30"))
		Expect(record.ID).NotTo(BeZero())
		Expect(record.Features).To(HaveLen(len(model.AllFeatures)))
		for _, f := range model.AllFeatures {
			Expect(record.Features[f]).To(And(
				BeNumerically(">=", 0),
				BeNumerically("<=", 100),
			), string(f))
		}
		Expect(record.SleepScore).To(And(
			BeNumerically(">=", 0),
			BeNumerically("<=", 100),
		))
		Expect(record.SkinHealthScore).To(And(
			BeNumerically(">=", 0),
			BeNumerically("<=", 100),
		))
		Expect(record.FunLabel).NotTo(BeEmpty())

		// First analysis has no history to trend against
		Expect(result.Summary).NotTo(BeNil())
		Expect(result.Summary.IsBaseline).To(BeTrue())

		stored, err := stores.Analyses().GetByDate(context.Background(), "u1", "2026-08-30")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.ID).To(Equal(record.ID))
	})

	It("replaces the record on same-day resubmission", func() {
		ctx := context.Background()
		img := portraitPNG(128)
		date := model.DateOf(time.Now())

		first, err := analyses.Analyze(ctx, service.AnalyzeParams{
			UserID: "u1", Date: date, ImageData: img,
		})
		Expect(err).NotTo(HaveOccurred())

		second, err := analyses.Analyze(ctx, service.AnalyzeParams{
			UserID: "u1", Date: date, ImageData: img,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Record.ID).NotTo(Equal(first.Record.ID))

		records, err := stores.Analyses().ListRecent(ctx, "u1", 30)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
	})

	It("rejects an image too small to contain a face", func() {
		_, err := analyses.Analyze(context.Background(), service.AnalyzeParams{
			UserID:    "u1",
			ImageData: portraitPNG(16),
		})
		Expect(err).To(MatchError(service.ErrNoFaceDetected))
	})

	It("rejects bytes that do not decode", func() {
		_, err := analyses.Analyze(context.Background(), service.AnalyzeParams{
			UserID:    "u1",
			ImageData: []byte("definitely not a png"),
		})
		Expect(errors.Is(err, service.ErrInvalidImage)).To(BeTrue())
	})

	It("rejects a malformed date", func() {
		_, err := analyses.Analyze(context.Background(), service.AnalyzeParams{
			UserID:    "u1",
			Date:      "30-08-2026",
			ImageData: portraitPNG(128),
		})
		Expect(err).To(HaveOccurred())
	})

	It("requires a user id and image data", func() {
		_, err := analyses.Analyze(context.Background(), service.AnalyzeParams{ImageData: portraitPNG(128)})
		Expect(err).To(HaveOccurred())

		_, err = analyses.Analyze(context.Background(), service.AnalyzeParams{UserID: "u1"})
		Expect(err).To(HaveOccurred())
	})

	It("keeps exactly one record under concurrent same-day submissions", func() {
		ctx := context.Background()
		img := portraitPNG(96)
		date := model.DateOf(time.Now())

		const n = 8
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = analyses.Analyze(ctx, service.AnalyzeParams{
					UserID: "u1", Date: date, ImageData: img,
				})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			Expect(errors.Is(err, store.ErrBusy)).To(BeTrue(), err.Error())
		}
		Expect(succeeded).To(BeNumerically(">=", 1))

		records, err := stores.Analyses().ListRecent(ctx, "u1", 30)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
	})
})
