package inference

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{URL: "http://localhost:7860/process"})

	assert.Equal(t, 10*time.Minute, client.httpClient.Timeout)
	assert.Equal(t, DefaultParams(), client.params)
}

func TestInfer_SendsMultipartAndDecodes(t *testing.T) {
	depth := []byte("\x00\x01depth-video")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/process", r.URL.Path)

		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "4", r.FormValue("num_denoising_steps"))
		assert.Equal(t, "1.2", r.FormValue("guidance_scale"))
		assert.Equal(t, "512", r.FormValue("max_res"))
		assert.Equal(t, "220", r.FormValue("process_length"))

		file, header, err := r.FormFile("video")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		assert.Equal(t, "video-abc.mp4", header.Filename)
		body, _ := io.ReadAll(file)
		assert.Equal(t, "original-video", string(body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"depth_video": base64.StdEncoding.EncodeToString(depth),
		})
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL + "/process", Timeout: 5 * time.Second})
	got, err := client.Infer(context.Background(), Request{
		Filename: "/media/video-abc.mp4",
		Video:    strings.NewReader("original-video"),
	})

	require.NoError(t, err)
	assert.Equal(t, depth, got)
}

func TestInfer_Failures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantErr    error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "CUDA out of memory", http.StatusInternalServerError)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "client error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "missing depth_video",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"ok"}`))
			},
			wantStatus: http.StatusOK,
			wantErr:    ErrEmptyDepthVideo,
		},
		{
			name: "invalid base64",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"depth_video":"!!!not-base64!!!"}`))
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(Config{URL: server.URL, Timeout: 5 * time.Second})
			_, err := client.Infer(context.Background(), Request{Filename: "a.mp4", Video: strings.NewReader("v")})

			var ie *InferenceError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.wantStatus, ie.StatusCode)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestInfer_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(Config{URL: url, Timeout: time.Second})
	_, err := client.Infer(context.Background(), Request{Filename: "a.mp4", Video: strings.NewReader("v")})

	var ie *InferenceError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 0, ie.StatusCode)
	assert.Equal(t, "send request", ie.Op)
}

func TestInfer_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Timeout: 100 * time.Millisecond})
	start := time.Now()
	_, err := client.Infer(context.Background(), Request{Filename: "a.mp4", Video: strings.NewReader("v")})

	var ie *InferenceError
	require.ErrorAs(t, err, &ie)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDecodeVideo(t *testing.T) {
	plain := base64.StdEncoding.EncodeToString([]byte("mp4"))

	got, err := decodeVideo(plain)
	require.NoError(t, err)
	assert.Equal(t, "mp4", string(got))

	got, err = decodeVideo("data:video/mp4;base64," + plain)
	require.NoError(t, err)
	assert.Equal(t, "mp4", string(got))

	got, err = decodeVideo(base64.RawStdEncoding.EncodeToString([]byte("mp4!")))
	require.NoError(t, err)
	assert.Equal(t, "mp4!", string(got))

	_, err = decodeVideo("  ")
	assert.ErrorIs(t, err, ErrEmptyDepthVideo)
}

// endlessVideo counts reads that happen after the owner marked it released
type endlessVideo struct {
	released  atomic.Bool
	lateReads atomic.Int32
}

func (v *endlessVideo) Read(p []byte) (int, error) {
	if v.released.Load() {
		v.lateReads.Add(1)
	}
	time.Sleep(time.Millisecond)
	for i := range p {
		p[i] = 'v'
	}
	return len(p), nil
}

func TestInfer_EarlyErrorStopsReadingVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	video := &endlessVideo{}
	client := NewClient(Config{URL: server.URL, Timeout: 5 * time.Second})
	_, err := client.Infer(context.Background(), Request{Filename: "a.mp4", Video: video})
	video.released.Store(true)

	var inferErr *InferenceError
	require.ErrorAs(t, err, &inferErr)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, video.lateReads.Load())
}
