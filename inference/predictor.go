// Package inference talks to the pose-classification service that labels
// uploaded exercise videos.
package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUnavailable is returned when no inference service is configured.
var ErrUnavailable = errors.New("inference service not configured")

type Result struct {
	PredictedMotion string  `json:"predicted_motion"`
	ConfidenceScore float64 `json:"confidence_score"`
	ModelName       string  `json:"model_name"`
}

type Predictor interface {
	Predict(ctx context.Context, filename, contentType string, video io.Reader) (*Result, error)
}

// HTTPPredictor posts the video as multipart field video_file to a remote model server.
type HTTPPredictor struct {
	URL    string
	Client *resty.Client
}

func NewHTTPPredictor(url string) *HTTPPredictor {
	return &HTTPPredictor{
		URL:    strings.TrimRight(url, "/"),
		Client: resty.New().SetTimeout(2*time.Minute).SetHeader("Accept", "application/json"),
	}
}

// response accepts both the current field names and the class/confidence
// pair older model servers return.
type response struct {
	PredictedMotion string   `json:"predicted_motion"`
	ConfidenceScore *float64 `json:"confidence_score"`
	ModelName       string   `json:"model_name"`
	Class           string   `json:"class"`
	Confidence      *float64 `json:"confidence"`
	Error           string   `json:"error"`
}

func (p *HTTPPredictor) Predict(ctx context.Context, filename, contentType string, video io.Reader) (*Result, error) {
	if p == nil || p.URL == "" {
		return nil, ErrUnavailable
	}

	client := p.Client
	if client == nil {
		client = resty.New()
	}
	resp, err := client.R().
		SetContext(ctx).
		SetMultipartField("video_file", filename, contentType, video).
		Post(p.URL)
	if err != nil {
		return nil, fmt.Errorf("call inference service: %w", err)
	}

	raw := resp.Body()
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, fmt.Errorf("inference service returned status %d: %s", resp.StatusCode(), strings.TrimSpace(string(raw)))
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode inference response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("inference failed: %s", out.Error)
	}

	result := &Result{PredictedMotion: out.PredictedMotion, ModelName: out.ModelName}
	if result.PredictedMotion == "" {
		result.PredictedMotion = out.Class
	}
	switch {
	case out.ConfidenceScore != nil:
		result.ConfidenceScore = *out.ConfidenceScore
	case out.Confidence != nil:
		result.ConfidenceScore = *out.Confidence
	}
	if result.ConfidenceScore > 1 {
		result.ConfidenceScore = 1
	}
	if result.PredictedMotion == "" {
		return nil, errors.New("inference response missing predicted motion")
	}
	return result, nil
}
