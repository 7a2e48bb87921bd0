package transcription

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/voicegate/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const engineReply = `{
	"raw_transcription": "patient reports mild headache",
	"structured_report": {"symptoms": ["headache"], "severity": "mild"},
	"usage": {"prompt_tokens": 120, "output_tokens": 30, "total_tokens": 150},
	"model": "whisper-large"
}`

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)

	c, err := NewClient(Config{Endpoint: "http://engine/"})
	require.NoError(t, err)
	assert.Equal(t, "http://engine", c.config.Endpoint)
	assert.Equal(t, 5*time.Minute, c.config.Timeout)
	assert.Equal(t, 10, cap(c.semaphore))
}

func TestTranscribe_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transcribe", r.URL.Path)

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			http.Error(w, "no file", http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "memo.wav", hdr.Filename)
		assert.Equal(t, "RIFF....", string(b))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, engineReply)
	}))
	defer srv.Close()

	c, err := NewClient(Config{Endpoint: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	got, err := c.Transcribe(context.Background(), "memo.wav", strings.NewReader("RIFF...."))
	require.NoError(t, err)

	assert.Equal(t, "patient reports mild headache", got.RawTranscription)
	assert.JSONEq(t, `{"symptoms": ["headache"], "severity": "mild"}`, string(got.StructuredReport))
	assert.Equal(t, int64(150), got.Usage.TotalTokens)
	assert.Equal(t, int64(120), got.Usage.PromptTokens)
	assert.JSONEq(t, engineReply, string(got.Raw), "unknown fields are kept")
}

func TestTranscribe_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(Config{Endpoint: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	_, err = c.Transcribe(context.Background(), "memo.wav", strings.NewReader("x"))
	var de *common.DownstreamError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.Equal(t, common.DownstreamUnavailable, de.Kind)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestTranscribe_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = io.WriteString(w, "<html>oops</html>")
	}))
	defer srv.Close()

	c, err := NewClient(Config{Endpoint: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	_, err = c.Transcribe(context.Background(), "memo.wav", strings.NewReader("x"))
	var de *common.DownstreamError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, common.DownstreamUnavailable, de.Kind)
}

func TestTranscribe_OversizedResponse(t *testing.T) {
	old := maxResponseBody
	maxResponseBody = 64
	t.Cleanup(func() { maxResponseBody = old })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = io.WriteString(w, engineReply)
	}))
	defer srv.Close()

	c, err := NewClient(Config{Endpoint: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	_, err = c.Transcribe(context.Background(), "memo.wav", strings.NewReader("x"))
	var de *common.DownstreamError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.Equal(t, common.DownstreamUnavailable, de.Kind)
	assert.Contains(t, err.Error(), "exceeds 64 bytes")
}

func TestTranscribe_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(Config{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Transcribe(context.Background(), "memo.wav", strings.NewReader("x"))
	var de *common.DownstreamError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.Equal(t, common.DownstreamTimeout, de.Kind)
}

func TestTranscribe_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{Endpoint: url, Timeout: 5 * time.Second})
	require.NoError(t, err)

	_, err = c.Transcribe(context.Background(), "memo.wav", strings.NewReader("x"))
	var de *common.DownstreamError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, common.DownstreamUnavailable, de.Kind)
}
