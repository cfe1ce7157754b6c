package vision

import (
	"context"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/model"
)

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		CLAHEClipLimit:    2.0,
		CLAHETileGrid:     8,
		BilateralDiameter: 9,
		BilateralSigma:    75,
		SkinTargetR:       200,
		SkinTargetG:       180,
		SkinTargetB:       160,
		SkinAdjustment:    0.1,
		SharpnessDivisor:  500,
		MinConfidence:     0.5,
		MinLandmarkScore:  0.5,
		OutlierZScore:     3.0,
	}
}

// testLandmarks lays out all seven regions on a 128x128 face.
func testLandmarks() *model.FaceLandmarks {
	boxes := map[model.FaceRegion][4]float64{
		model.RegionUnderEyeLeft:  {20, 58, 52, 72},
		model.RegionUnderEyeRight: {76, 58, 108, 72},
		model.RegionCheekLeft:     {20, 80, 52, 100},
		model.RegionCheekRight:    {76, 80, 108, 100},
		model.RegionForehead:      {24, 8, 104, 40},
		model.RegionNose:          {54, 48, 74, 90},
		model.RegionJaw:           {30, 104, 98, 122},
	}

	lm := &model.FaceLandmarks{Confidence: 0.9}
	for region, b := range boxes {
		for _, pt := range [][2]float64{{b[0], b[1]}, {b[2], b[1]}, {b[0], b[3]}, {b[2], b[3]}} {
			lm.Points = append(lm.Points, model.LandmarkPoint{
				X:          pt[0],
				Y:          pt[1],
				Confidence: 0.9,
				Region:     region,
			})
		}
	}
	return lm
}

func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func noiseImage(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

// fillRect darkens or lightens a rectangle on the luma-relevant channels.
func fillRect(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func TestDetectorScoresStayInBand(t *testing.T) {
	cfg := testAnalysisConfig()
	pre := NewPreprocessor(cfg)
	landmarks := testLandmarks()

	images := map[string]*image.RGBA{
		"blank gray":    uniformImage(128, 128, color.RGBA{R: 128, G: 128, B: 128, A: 255}),
		"blank black":   uniformImage(128, 128, color.RGBA{A: 255}),
		"blank white":   uniformImage(128, 128, color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		"random noise":  noiseImage(128, 128, 1),
		"skin colored":  uniformImage(128, 128, color.RGBA{R: 200, G: 150, B: 130, A: 255}),
		"tiny viewport": uniformImage(16, 16, color.RGBA{R: 128, G: 128, B: 128, A: 255}),
	}

	for name, img := range images {
		t.Run(name, func(t *testing.T) {
			prepared := pre.Preprocess(img)
			for _, d := range NewDetectors(cfg) {
				score, conf, err := d.Measure(context.Background(), prepared, landmarks)
				if err != nil {
					t.Fatalf("%s: %v", d.Feature(), err)
				}
				band := scoreBands[d.Feature()]
				if score < band.Lo || score > band.Hi {
					t.Errorf("%s score %.2f outside [%v,%v]", d.Feature(), score, band.Lo, band.Hi)
				}
				if conf < 0 || conf > 1 {
					t.Errorf("%s confidence %.2f outside [0,1]", d.Feature(), conf)
				}
			}
		})
	}
}

func TestDetectorsNeutralWithoutLandmarks(t *testing.T) {
	cfg := testAnalysisConfig()
	pre := NewPreprocessor(cfg)
	prepared := pre.Preprocess(uniformImage(64, 64, color.RGBA{R: 128, G: 128, B: 128, A: 255}))

	empty := &model.FaceLandmarks{Confidence: 0.9}
	for _, d := range NewDetectors(cfg) {
		score, conf, err := d.Measure(context.Background(), prepared, empty)
		if err != nil {
			t.Fatalf("%s: %v", d.Feature(), err)
		}
		if conf != 0 {
			t.Errorf("%s confidence = %v without regions, want 0", d.Feature(), conf)
		}
		if score != NeutralScore(d.Feature()) {
			t.Errorf("%s score = %v without regions, want neutral %v", d.Feature(), score, NeutralScore(d.Feature()))
		}
	}
}

func TestDarkCirclesMonotonicity(t *testing.T) {
	cfg := testAnalysisConfig()
	pre := NewPreprocessor(cfg)
	landmarks := testLandmarks()
	detector := &darkCircleDetector{cfg: cfg}

	base := color.RGBA{R: 180, G: 180, B: 180, A: 255}
	score := func(underEyeLevel uint8) float64 {
		img := uniformImage(128, 128, base)
		shade := color.RGBA{R: underEyeLevel, G: underEyeLevel, B: underEyeLevel, A: 255}
		fillRect(img, 20, 58, 52, 72, shade)
		fillRect(img, 76, 58, 108, 72, shade)

		s, _, err := detector.Measure(context.Background(), pre.Preprocess(img), landmarks)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}

	light := score(170)
	dark := score(140)
	if dark >= light {
		t.Errorf("darker under-eye should score lower: dark=%.2f light=%.2f", dark, light)
	}
}

func TestPreprocessSkinHints(t *testing.T) {
	cfg := testAnalysisConfig()
	pre := NewPreprocessor(cfg)

	// A gray frame has no skin-band pixels, so tone normalization skips
	prepared := pre.Preprocess(uniformImage(64, 64, color.RGBA{R: 128, G: 128, B: 128, A: 255}))
	if prepared.SkinFraction != 0 {
		t.Errorf("gray image skin fraction = %v, want 0", prepared.SkinFraction)
	}
	found := false
	for _, h := range prepared.Hints {
		if h == HintToneNormalizationSkipped {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %q hint, got %v", HintToneNormalizationSkipped, prepared.Hints)
	}

	// A skin-toned frame samples fully and carries no hint
	prepared = pre.Preprocess(uniformImage(64, 64, color.RGBA{R: 200, G: 150, B: 130, A: 255}))
	if prepared.SkinFraction != 1 {
		t.Errorf("skin image fraction = %v, want 1", prepared.SkinFraction)
	}
	if len(prepared.Hints) != 0 {
		t.Errorf("unexpected hints: %v", prepared.Hints)
	}
	if prepared.Luma == nil || prepared.Luma.W != 64 {
		t.Error("luma plane missing or wrong size")
	}
}

func TestQualityLowConfidenceOnBlurryDark(t *testing.T) {
	cfg := testAnalysisConfig()
	assessor := NewAssessor(cfg)

	// Featureless luma: zero Laplacian variance, zero contrast
	luma := NewPlane(64, 64)
	for i := range luma.Pix {
		luma.Pix[i] = 128
	}

	q := assessor.Assess(luma, nil, nil)
	if q.Sharpness != 0 {
		t.Errorf("sharpness = %v, want 0", q.Sharpness)
	}
	if !q.LowConfidence {
		t.Errorf("flat frame should be low confidence (%.2f)", q.Confidence)
	}
}

func TestQualityHighOnGoodInput(t *testing.T) {
	cfg := testAnalysisConfig()
	assessor := NewAssessor(cfg)

	// Sharp checkerboard luma with full landmark coverage and agreeing
	// feature scores
	luma := NewPlane(64, 64)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if (x+y)%2 == 0 {
				luma.Set(x, y, 200)
			} else {
				luma.Set(x, y, 60)
			}
		}
	}

	var scores []model.FeatureScore
	for _, f := range model.AllFeatures {
		scores = append(scores, model.FeatureScore{Feature: f, Score: 70, Confidence: 0.8})
	}

	q := assessor.Assess(luma, testLandmarks(), scores)
	if q.LowConfidence {
		t.Errorf("sharp well-covered frame flagged low confidence (%.2f)", q.Confidence)
	}
	if q.Consistency != 1 {
		t.Errorf("agreeing scores consistency = %v, want 1", q.Consistency)
	}
}
