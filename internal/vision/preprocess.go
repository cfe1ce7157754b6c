package vision

import (
	"image"

	"sleepface.app/engine/core/config"
)

// HintToneNormalizationSkipped is attached when the skin-tone sample was
// empty or degenerate and normalization was skipped.
const HintToneNormalizationSkipped = "tone_normalization_skipped"

// Skin-tone band in HSV space (hue degrees, S/V in byte range).
const (
	skinHueMax = 20.0
	skinSatMin = 20.0
	skinValMin = 70.0

	// Below this fraction of skin pixels, the sample is considered
	// degenerate and normalization is skipped.
	minSkinFraction = 0.005
)

// Prepared is the normalized input every detector consumes. Dimensions
// match the decoded image.
type Prepared struct {
	R, G, B *Plane

	// Luma is the corrected luminance after CLAHE and bilateral
	// filtering, the working channel for most detectors.
	Luma *Plane

	// SkinTone is the estimated mean skin RGB before correction,
	// used by the tone-adaptive score adjustments.
	SkinTone [3]float64

	// SkinFraction is the fraction of pixels inside the skin mask.
	SkinFraction float64

	Hints []string
}

// Preprocessor normalizes an input image for downstream measurement.
type Preprocessor struct {
	cfg config.AnalysisConfig
}

func NewPreprocessor(cfg config.AnalysisConfig) *Preprocessor {
	return &Preprocessor{cfg: cfg}
}

// Preprocess runs CLAHE on luminance, edge-preserving smoothing, and
// skin-tone normalization. A degenerate skin sample never fails the
// pipeline; it only attaches a quality hint.
func (p *Preprocessor) Preprocess(img *image.RGBA) *Prepared {
	r, g, b := Channels(img)

	out := &Prepared{R: r, G: g, B: b}

	out.estimateSkinTone()
	if out.SkinFraction < minSkinFraction {
		out.Hints = append(out.Hints, HintToneNormalizationSkipped)
	} else {
		out.normalizeSkinTone(p.cfg)
	}

	luma := Luminance(out.R, out.G, out.B)
	luma = CLAHE(luma, p.cfg.CLAHETileGrid, p.cfg.CLAHEClipLimit)
	luma = BilateralFilter(luma, p.cfg.BilateralDiameter, p.cfg.BilateralSigma, p.cfg.BilateralSigma)
	out.Luma = luma

	return out
}

// estimateSkinTone samples the HSV skin band and records the mean RGB of
// matching pixels plus the mask coverage.
func (pr *Prepared) estimateSkinTone() {
	var sumR, sumG, sumB float64
	n := 0
	total := len(pr.R.Pix)
	for i := 0; i < total; i++ {
		h, s, v := HSV(pr.R.Pix[i], pr.G.Pix[i], pr.B.Pix[i])
		if h <= skinHueMax && s >= skinSatMin && v >= skinValMin {
			sumR += pr.R.Pix[i]
			sumG += pr.G.Pix[i]
			sumB += pr.B.Pix[i]
			n++
		}
	}
	if total > 0 {
		pr.SkinFraction = float64(n) / float64(total)
	}
	if n > 0 {
		pr.SkinTone = [3]float64{sumR / float64(n), sumG / float64(n), sumB / float64(n)}
	}
}

// normalizeSkinTone applies per-channel gains pulling the sampled skin
// mean a configured fraction toward the target tone. Gains are applied to
// the whole face so relative contrast is preserved.
func (pr *Prepared) normalizeSkinTone(cfg config.AnalysisConfig) {
	targets := [3]float64{cfg.SkinTargetR, cfg.SkinTargetG, cfg.SkinTargetB}
	planes := [3]*Plane{pr.R, pr.G, pr.B}

	for c := 0; c < 3; c++ {
		mean := pr.SkinTone[c]
		if mean <= 0 {
			continue
		}
		gain := 1 + cfg.SkinAdjustment*(targets[c]/mean-1)
		for i := range planes[c].Pix {
			planes[c].Pix[i] = clampFloat(planes[c].Pix[i]*gain, 0, 255)
		}
	}
}

// toneCorrection returns a small additive score adjustment derived from
// how far the estimated skin tone sits from the neutral target. Darker
// baselines would otherwise bias absolute-luminance scoring.
func (pr *Prepared) toneCorrection() float64 {
	mean := (pr.SkinTone[0] + pr.SkinTone[1] + pr.SkinTone[2]) / 3
	if mean <= 0 || pr.SkinFraction < minSkinFraction {
		return 0
	}
	const neutral = 180.0
	// ±10 points across the plausible tone range
	return clampFloat((neutral-mean)/neutral*10, -10, 10)
}
