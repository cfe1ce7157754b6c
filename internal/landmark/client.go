package landmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sleepface.app/engine/internal/model"
)

// Client calls an external landmark detection service over HTTP.
// The service accepts raw image bytes and returns landmark points with
// per-point and overall confidence.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type detectResponse struct {
	Faces []model.FaceLandmarks `json:"faces"`
}

func (c *Client) Detect(ctx context.Context, imageData []byte, width, height int) (*model.FaceLandmarks, error) {
	url := fmt.Sprintf("%s/v1/landmarks?width=%d&height=%d", c.endpoint, width, height)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("building landmark request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling landmark service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity {
		return nil, ErrNoFace
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("landmark service returned status %d", resp.StatusCode)
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding landmark response: %w", err)
	}
	if len(out.Faces) == 0 {
		return nil, ErrNoFace
	}

	// Use the most confident face
	best := &out.Faces[0]
	for i := 1; i < len(out.Faces); i++ {
		if out.Faces[i].Confidence > best.Confidence {
			best = &out.Faces[i]
		}
	}
	return best, nil
}
