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

// seed stores a record dated daysAgo days before now.
func seed(analyses store.AnalysisStore, userID string, daysAgo, sleepScore, skinScore int) {
	date := model.DateOf(time.Now().UTC().AddDate(0, 0, -daysAgo))
	err := analyses.Upsert(context.Background(), &model.AnalysisRecord{
		UserID:          userID,
		Date:            date,
		SleepScore:      sleepScore,
		SkinHealthScore: skinScore,
	})
	Expect(err).NotTo(HaveOccurred())
}

var _ = Describe("HistoryService", func() {
	var (
		stores    *store.Stores
		histories service.HistoryService
	)

	BeforeEach(func() {
		cfg := testConfig()
		stores = store.NewStores(nil, cfg.Analysis.LockWait)
		histories = service.NewServices(cfg, stores, nil, nil).Histories()
	})

	Describe("List", func() {
		It("returns records newest first within the window", func() {
			seed(stores.Analyses(), "u1", 0, 80, 75)
			seed(stores.Analyses(), "u1", 1, 70, 72)
			seed(stores.Analyses(), "u1", 40, 60, 60)

			records, err := histories.List(context.Background(), "u1", 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
			Expect(records[0].SleepScore).To(Equal(80))
			Expect(records[1].SleepScore).To(Equal(70))
		})

		It("returns an empty history for an unknown user", func() {
			records, err := histories.List(context.Background(), "nobody", 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
		})

		It("requires a user id", func() {
			_, err := histories.List(context.Background(), "", 7)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Statistics", func() {
		It("aggregates averages, bests and direction", func() {
			// Two strong recent days after two weaker ones
			seed(stores.Analyses(), "u1", 0, 90, 85)
			seed(stores.Analyses(), "u1", 1, 88, 83)
			seed(stores.Analyses(), "u1", 2, 70, 65)
			seed(stores.Analyses(), "u1", 3, 72, 67)

			stats, err := histories.Statistics(context.Background(), "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalAnalyses).To(Equal(4))
			Expect(stats.BestSleepScore).To(Equal(90))
			Expect(stats.BestSkinScore).To(Equal(85))
			Expect(stats.AvgSleepScore).To(BeNumerically("==", 80))
			Expect(stats.RecentDirection).To(Equal("improving"))
			Expect(*stats.LastDate).To(Equal(model.DateOf(time.Now())))
		})

		It("reports steady for a sparse history", func() {
			seed(stores.Analyses(), "u1", 0, 80, 75)

			stats, err := histories.Statistics(context.Background(), "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalAnalyses).To(Equal(1))
			Expect(stats.RecentDirection).To(Equal("steady"))
		})

		It("returns zeroed statistics for an empty history", func() {
			stats, err := histories.Statistics(context.Background(), "nobody")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalAnalyses).To(BeZero())
			Expect(stats.FirstDate).To(BeNil())
			Expect(stats.RecentDirection).To(Equal("steady"))
		})
	})

	Describe("Cleanup", func() {
		It("deletes records beyond the retention window", func() {
			seed(stores.Analyses(), "u1", 0, 80, 75)
			seed(stores.Analyses(), "u1", 400, 60, 60)

			deleted, err := histories.Cleanup(context.Background(), "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(int64(1)))

			records, err := stores.Analyses().ListRecent(context.Background(), "u1", 500)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
		})
	})
})
