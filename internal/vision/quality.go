package vision

import (
	"math"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/model"
)

const (
	qualitySharpnessWeight   = 0.25
	qualityLightingWeight    = 0.25
	qualityCoverageWeight    = 0.30
	qualityConsistencyWeight = 0.20

	overexposedLevel  = 240.0
	underexposedLevel = 20.0
	contrastDivisor   = 50.0
)

// Quality annotates how trustworthy an analysis result is. It never
// blocks an analysis.
type Quality struct {
	Confidence    float64
	LowConfidence bool
	Sharpness     float64
	Lighting      float64
	Coverage      float64
	Consistency   float64
}

// Assessor combines sharpness, lighting, landmark coverage and
// cross-feature consistency into a single confidence value.
type Assessor struct {
	cfg config.AnalysisConfig
}

func NewAssessor(cfg config.AnalysisConfig) *Assessor {
	return &Assessor{cfg: cfg}
}

func (a *Assessor) Assess(luma *Plane, landmarks *model.FaceLandmarks, scores []model.FeatureScore) Quality {
	q := Quality{
		Sharpness:   a.sharpness(luma),
		Lighting:    lightingQuality(luma),
		Coverage:    coverage(landmarks),
		Consistency: consistency(scores, a.cfg.OutlierZScore),
	}

	q.Confidence = qualitySharpnessWeight*q.Sharpness +
		qualityLightingWeight*q.Lighting +
		qualityCoverageWeight*q.Coverage +
		qualityConsistencyWeight*q.Consistency
	q.Confidence = clampFloat(q.Confidence, 0, 1)
	q.LowConfidence = q.Confidence < a.cfg.MinConfidence

	return q
}

func (a *Assessor) sharpness(luma *Plane) float64 {
	divisor := a.cfg.SharpnessDivisor
	if divisor <= 0 {
		divisor = 500
	}
	return clampFloat(LaplacianVariance(luma)/divisor, 0, 1)
}

// lightingQuality penalizes clipped exposure and rewards usable global
// contrast.
func lightingQuality(luma *Plane) float64 {
	if len(luma.Pix) == 0 {
		return 0
	}
	over, under := 0, 0
	for _, v := range luma.Pix {
		if v > overexposedLevel {
			over++
		} else if v < underexposedLevel {
			under++
		}
	}
	n := float64(len(luma.Pix))
	exposure := 1 - (float64(over)+float64(under))/n

	contrast := clampFloat(luma.StdDev()/contrastDivisor, 0, 1)
	return clampFloat(exposure*contrast, 0, 1)
}

// coverage is the fraction of expected face regions with landmarks,
// weighted by mean landmark confidence.
func coverage(landmarks *model.FaceLandmarks) float64 {
	if landmarks == nil || len(landmarks.Points) == 0 {
		return 0
	}
	covered := float64(landmarks.CoveredRegions()) / float64(len(model.AllRegions))

	sum := 0.0
	for _, p := range landmarks.Points {
		sum += p.Confidence
	}
	meanConf := sum / float64(len(landmarks.Points))

	return clampFloat(covered*meanConf, 0, 1)
}

// consistency drops when one feature score is a statistical outlier
// against the other five.
func consistency(scores []model.FeatureScore, zThreshold float64) float64 {
	var vals []float64
	for _, s := range scores {
		if s.Confidence > 0 {
			vals = append(vals, s.Score)
		}
	}
	if len(vals) < 3 {
		return 0.5
	}

	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	variance := 0.0
	for _, v := range vals {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(vals))
	std := math.Sqrt(variance)
	if std == 0 {
		return 1
	}

	outliers := 0
	for _, v := range vals {
		if math.Abs(v-mean)/std > zThreshold {
			outliers++
		}
	}
	return 1 - float64(outliers)/float64(len(vals))
}
