package inference

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Params is the fixed parameter set sent with every depth request
type Params struct {
	NumDenoisingSteps int
	GuidanceScale     float64
	MaxResolution     int
	MaxFrames         int
}

// DefaultParams match the settings the depth service is tuned for
func DefaultParams() Params {
	return Params{
		NumDenoisingSteps: 4,
		GuidanceScale:     1.2,
		MaxResolution:     512,
		MaxFrames:         220,
	}
}

// Config holds configuration for the depth inference client
type Config struct {
	URL     string
	Timeout time.Duration
	Params  Params
}

// Request is one video to run through the depth model
type Request struct {
	Filename string
	Video    io.Reader
}

// Client talks to the depth inference service
type Client struct {
	httpClient *http.Client
	url        string
	params     Params
}

// NewClient creates a new inference client
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	if cfg.Params == (Params{}) {
		cfg.Params = DefaultParams()
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		url:        cfg.URL,
		params:     cfg.Params,
	}
}

type depthResponse struct {
	DepthVideo string `json:"depth_video"`
}

// Infer uploads the video and returns the decoded depth video bytes.
// Every failure is reported as *InferenceError.
func (c *Client) Infer(ctx context.Context, req Request) ([]byte, error) {
	body, contentType, done := c.multipartBody(req)
	// the writer may still be reading req.Video after an early response
	defer func() {
		body.Close()
		<-done
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, &InferenceError{Op: "create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &InferenceError{Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &InferenceError{
			Op:         "response",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	var decoded depthResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &InferenceError{Op: "decode response", StatusCode: resp.StatusCode, Err: err}
	}

	video, err := decodeVideo(decoded.DepthVideo)
	if err != nil {
		return nil, &InferenceError{Op: "decode depth_video", StatusCode: resp.StatusCode, Err: err}
	}
	return video, nil
}

// multipartBody streams the upload through a pipe so the video is never buffered in memory.
// done is closed once the writer has stopped touching req.Video.
func (c *Client) multipartBody(req Request) (*io.PipeReader, string, <-chan struct{}) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	done := make(chan struct{})

	go func() {
		defer close(done)
		err := c.writeParts(mw, req)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType(), done
}

func (c *Client) writeParts(mw *multipart.Writer, req Request) error {
	filename := filepath.Base(req.Filename)
	if filename == "" || filename == "." || filename == "/" {
		filename = "video.mp4"
	}

	part, err := mw.CreateFormFile("video", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, req.Video); err != nil {
		return fmt.Errorf("copy video: %w", err)
	}

	fields := []struct {
		name  string
		value string
	}{
		{"num_denoising_steps", strconv.Itoa(c.params.NumDenoisingSteps)},
		{"guidance_scale", strconv.FormatFloat(c.params.GuidanceScale, 'f', -1, 64)},
		{"max_res", strconv.Itoa(c.params.MaxResolution)},
		{"process_length", strconv.Itoa(c.params.MaxFrames)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// decodeVideo accepts plain base64 or a data: URL
func decodeVideo(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.Index(encoded, ","); i >= 0 {
			encoded = encoded[i+1:]
		}
	}
	if encoded == "" {
		return nil, ErrEmptyDepthVideo
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// some servers strip padding
		if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "=")); rawErr == nil {
			return raw, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyDepthVideo
	}
	return data, nil
}
