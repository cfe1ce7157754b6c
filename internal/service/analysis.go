package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"sleepface.app/engine/common/id"
	"sleepface.app/engine/common/logger"
	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/landmark"
	"sleepface.app/engine/internal/model"
	"sleepface.app/engine/internal/scoring"
	"sleepface.app/engine/internal/store"
	"sleepface.app/engine/internal/vision"
)

// ErrNoFaceDetected is fatal: the analysis aborts before any feature
// detection runs and nothing is stored.
var ErrNoFaceDetected = errors.New("no face detected")

// ErrAnalysisTimeout is returned when the pipeline exceeds its configured
// time budget. No partial record is stored.
var ErrAnalysisTimeout = errors.New("analysis timed out")

// ErrInvalidImage is returned when the submitted bytes do not decode as
// a supported image format.
var ErrInvalidImage = errors.New("invalid image")

type AnalyzeParams struct {
	UserID    string
	Date      string // optional, defaults to today (UTC)
	ImageData []byte
	Routine   *model.RoutineInput
}

type AnalyzeResult struct {
	Record  *model.AnalysisRecord
	Summary *model.SmartSummary
}

type AnalysisService interface {
	Analyze(ctx context.Context, params AnalyzeParams) (*AnalyzeResult, error)
}

type analysisService struct {
	cfg          config.AnalysisConfig
	preprocessor *vision.Preprocessor
	detectors    []vision.Detector
	assessor     *vision.Assessor
	scorer       *scoring.Scorer
	landmarks    landmark.Detector
	stores       *store.Stores
	summaries    SummaryService
	logger       *slog.Logger
}

func NewAnalysisService(
	cfg config.AnalysisConfig,
	landmarks landmark.Detector,
	stores *store.Stores,
	summaries SummaryService,
	log *slog.Logger,
) AnalysisService {
	if log == nil {
		log = slog.Default()
	}
	return &analysisService{
		cfg:          cfg,
		preprocessor: vision.NewPreprocessor(cfg),
		detectors:    vision.NewDetectors(cfg),
		assessor:     vision.NewAssessor(cfg),
		scorer:       scoring.NewScorer(cfg, nil),
		landmarks:    landmarks,
		stores:       stores,
		summaries:    summaries,
		logger:       log,
	}
}

func (s *analysisService) Analyze(ctx context.Context, params AnalyzeParams) (*AnalyzeResult, error) {
	if params.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if len(params.ImageData) == 0 {
		return nil, fmt.Errorf("image data is required")
	}

	date := params.Date
	if date == "" {
		date = model.DateOf(time.Now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:       logger.Ptr(params.UserID),
		AnalysisDate: logger.Ptr(date),
		Component:    "engine.service.analysis",
	})

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TimeBudget)
	defer cancel()

	record, err := s.runPipeline(ctx, params, date)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrAnalysisTimeout
		}
		return nil, err
	}

	if err := s.upsert(ctx, record); err != nil {
		return nil, err
	}

	summary, err := s.summaries.Generate(ctx, params.UserID, record)
	if err != nil {
		// The record is committed; a summary failure degrades, not fails
		s.logger.WarnContext(ctx, "summary generation failed", "error", err)
		summary = &model.SmartSummary{IsBaseline: true}
	}

	return &AnalyzeResult{Record: record, Summary: summary}, nil
}

// runPipeline is the pure per-image transformation: decode, landmarks,
// preprocess, detect, assess, score.
func (s *analysisService) runPipeline(ctx context.Context, params AnalyzeParams, date string) (*model.AnalysisRecord, error) {
	img, err := vision.Decode(params.ImageData, s.cfg.MaxImageSide)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	bounds := img.Bounds()

	landmarks, err := s.landmarks.Detect(ctx, params.ImageData, bounds.Dx(), bounds.Dy())
	if err != nil {
		if errors.Is(err, landmark.ErrNoFace) {
			return nil, ErrNoFaceDetected
		}
		return nil, fmt.Errorf("detecting landmarks: %w", err)
	}
	if landmarks.Confidence < s.cfg.MinLandmarkScore {
		return nil, ErrNoFaceDetected
	}

	prepared := s.preprocessor.Preprocess(img)

	scores := s.measureAll(ctx, prepared, landmarks)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	quality := s.assessor.Assess(prepared.Luma, landmarks, scores)

	features := make(map[model.Feature]float64, len(scores))
	featureConfidence := make(map[model.Feature]float64, len(scores))
	for _, fs := range scores {
		features[fs.Feature] = fs.Score
		featureConfidence[fs.Feature] = fs.Confidence
	}

	result := s.scorer.Score(features, params.Routine)

	return &model.AnalysisRecord{
		ID:                id.New(),
		UserID:            params.UserID,
		Date:              date,
		SleepScore:        result.SleepScore,
		SkinHealthScore:   result.SkinHealthScore,
		Features:          features,
		FeatureConfidence: featureConfidence,
		Confidence:        quality.Confidence,
		LowConfidence:     quality.LowConfidence,
		QualityHints:      prepared.Hints,
		FunLabel:          result.FunLabel,
		Routine:           params.Routine,
	}, nil
}

// measureAll fans the detectors out on goroutines. The pipeline is
// share-nothing, so detectors run fully in parallel; a panicking or
// failing detector degrades to a neutral zero-confidence score instead
// of aborting the analysis.
func (s *analysisService) measureAll(ctx context.Context, prepared *vision.Prepared, landmarks *model.FaceLandmarks) []model.FeatureScore {
	scores := make([]model.FeatureScore, len(s.detectors))

	var wg sync.WaitGroup
	for i, detector := range s.detectors {
		wg.Add(1)
		go func(i int, d vision.Detector) {
			defer wg.Done()
			scores[i] = s.measureSafe(ctx, d, prepared, landmarks)
		}(i, detector)
	}
	wg.Wait()

	return scores
}

func (s *analysisService) measureSafe(ctx context.Context, d vision.Detector, prepared *vision.Prepared, landmarks *model.FaceLandmarks) (fs model.FeatureScore) {
	feature := d.Feature()
	fs = model.FeatureScore{
		Feature:    feature,
		Score:      vision.NeutralScore(feature),
		Confidence: 0,
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "detector panicked",
				"feature", feature, "panic", fmt.Sprintf("%v", r))
		}
	}()

	score, confidence, err := d.Measure(ctx, prepared, landmarks)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.WarnContext(ctx, "detector failed", "feature", feature, "error", err)
		}
		return fs
	}

	fs.Score = score
	fs.Confidence = confidence
	return fs
}

// upsert serializes same-key writers through the per-key lock so exactly
// one record survives concurrent submissions for a (user, date).
func (s *analysisService) upsert(ctx context.Context, record *model.AnalysisRecord) error {
	key := record.UserID + "|" + record.Date
	release, err := s.stores.Lock().Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	if err := s.stores.Analyses().Upsert(ctx, record); err != nil {
		return fmt.Errorf("storing analysis record: %w", err)
	}
	return nil
}
