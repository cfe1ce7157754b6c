package landmark

import (
	"context"
	"errors"

	"sleepface.app/engine/internal/model"
)

// ErrNoFace is returned when the detector finds no usable face.
var ErrNoFace = errors.New("no face detected")

// Detector locates face landmarks in a decoded image. The detector is an
// external collaborator; the engine treats it as a black box that returns
// points with a confidence value.
type Detector interface {
	Detect(ctx context.Context, imageData []byte, width, height int) (*model.FaceLandmarks, error)
}
