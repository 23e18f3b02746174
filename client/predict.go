package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
)

type predictResponse struct {
	Prediction *Prediction `json:"prediction"`
}

// SubmitVideo uploads a recording of an exercise and returns the model's verdict.
func (a *API) SubmitVideo(ctx context.Context, patientID, exerciseID, filename string, video io.Reader) (*Prediction, error) {
	data, err := io.ReadAll(video)
	if err != nil {
		return nil, fmt.Errorf("read video: %w", err)
	}

	raw, err := a.do(ctx, request{
		method: http.MethodPost,
		path:   "/predict/",
		upload: &upload{
			fields:      map[string]string{"patient_id": patientID, "exercise_id": exerciseID},
			field:       "video_file",
			filename:    filepath.Base(filename),
			contentType: videoContentType(filename),
			data:        data,
		},
	})
	if err != nil {
		return nil, err
	}

	var resp predictResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if resp.Prediction == nil {
		return nil, fmt.Errorf("%w: response without prediction", ErrMalformedResponse)
	}
	return resp.Prediction, nil
}

func (a *API) PatientPredictions(ctx context.Context, patientID string) ([]Prediction, error) {
	return a.predictionList(ctx, "/predictions/patient/"+url.PathEscape(patientID))
}

func (a *API) ExercisePredictions(ctx context.Context, exerciseID string) ([]Prediction, error) {
	return a.predictionList(ctx, "/predictions/exercise/"+url.PathEscape(exerciseID))
}

func (a *API) predictionList(ctx context.Context, path string) ([]Prediction, error) {
	raw, err := a.do(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	return decodeList[Prediction](raw, a.lenient)
}

func (a *API) Prediction(ctx context.Context, predictionID string) (*Prediction, error) {
	raw, err := a.do(ctx, request{method: http.MethodGet, path: "/predictions/" + url.PathEscape(predictionID)})
	if err != nil {
		return nil, err
	}
	return decodeObject[Prediction](raw)
}

// DoctorReviews lists predictions on exercises the doctor assigned. A non-empty
// patientID narrows it to one patient.
func (a *API) DoctorReviews(ctx context.Context, doctorID, patientID string) ([]Review, error) {
	path := "/predictions/doctor/" + url.PathEscape(doctorID)
	if patientID != "" {
		path += "/patient/" + url.PathEscape(patientID)
	}
	raw, err := a.do(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	return decodeList[Review](raw, a.lenient)
}

func (a *API) PatientVideos(ctx context.Context, patientID string) ([]VideoReview, error) {
	raw, err := a.do(ctx, request{method: http.MethodGet, path: "/videos/patient/" + url.PathEscape(patientID)})
	if err != nil {
		return nil, err
	}
	return decodeList[VideoReview](raw, a.lenient)
}

func (a *API) Video(ctx context.Context, videoID string) (*VideoReview, error) {
	raw, err := a.do(ctx, request{method: http.MethodGet, path: "/videos/" + url.PathEscape(videoID)})
	if err != nil {
		return nil, err
	}
	return decodeObject[VideoReview](raw)
}

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
}

func videoContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
