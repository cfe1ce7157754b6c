package service_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"sleepface.app/engine/internal/model"
	"sleepface.app/engine/internal/service"
	"sleepface.app/engine/internal/store"
)

var _ = Describe("SummaryService", func() {
	var (
		stores    *store.Stores
		summaries service.SummaryService
	)

	BeforeEach(func() {
		cfg := testConfig()
		stores = store.NewStores(nil, cfg.Analysis.LockWait)
		summaries = service.NewServices(cfg, stores, nil, nil).Summaries()
	})

	It("requires a user id", func() {
		_, err := summaries.Generate(context.Background(), "", nil)
		Expect(err).To(HaveOccurred())
	})

	It("produces a baseline summary for a new user", func() {
		summary, err := summaries.Generate(context.Background(), "fresh", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.IsBaseline).To(BeTrue())
	})

	It("folds an uncommitted current record into the series", func() {
		for daysAgo := 1; daysAgo <= 14; daysAgo++ {
			seed(stores.Analyses(), "u1", daysAgo, 70, 70)
		}

		current := &model.AnalysisRecord{
			UserID:          "u1",
			Date:            model.DateOf(time.Now()),
			SleepScore:      85,
			SkinHealthScore: 82,
			Features: map[model.Feature]float64{
				model.FeatureDarkCircles: 80,
			},
		}

		summary, err := summaries.Generate(context.Background(), "u1", current)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.IsBaseline).To(BeFalse())
		Expect(summary.DailySummary).NotTo(BeEmpty())
	})

	It("trends against stored history when current is nil", func() {
		for daysAgo := 0; daysAgo <= 14; daysAgo++ {
			seed(stores.Analyses(), "u1", daysAgo, 70, 70)
		}

		summary, err := summaries.Generate(context.Background(), "u1", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.IsBaseline).To(BeFalse())
	})
})
