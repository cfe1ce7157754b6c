package model

// Feature identifies one of the six measured facial indicators.
type Feature string

const (
	FeatureDarkCircles Feature = "dark_circles"
	FeaturePuffiness   Feature = "puffiness"
	FeatureBrightness  Feature = "brightness"
	FeatureWrinkles    Feature = "wrinkles"
	FeatureTexture     Feature = "texture"
	FeaturePoreSize    Feature = "pore_size"
)

// AllFeatures lists every feature in canonical order. Detector fan-out,
// trend classification and insight generation all iterate this slice so
// output ordering stays deterministic.
var AllFeatures = []Feature{
	FeatureDarkCircles,
	FeaturePuffiness,
	FeatureBrightness,
	FeatureWrinkles,
	FeatureTexture,
	FeaturePoreSize,
}

func (f Feature) IsValid() bool {
	switch f {
	case FeatureDarkCircles, FeaturePuffiness, FeatureBrightness,
		FeatureWrinkles, FeatureTexture, FeaturePoreSize:
		return true
	}
	return false
}

// DisplayName returns the human-readable name used in insights.
func (f Feature) DisplayName() string {
	switch f {
	case FeatureDarkCircles:
		return "Dark Circles"
	case FeaturePuffiness:
		return "Puffiness"
	case FeatureBrightness:
		return "Brightness"
	case FeatureWrinkles:
		return "Wrinkles"
	case FeatureTexture:
		return "Texture"
	case FeaturePoreSize:
		return "Pore Size"
	}
	return string(f)
}

// FeatureScore is one measured indicator. Score is clamped to the
// feature's band before it leaves the detector; Confidence is 0 when the
// region was occluded or the measurement failed.
type FeatureScore struct {
	Feature    Feature `json:"feature"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}
