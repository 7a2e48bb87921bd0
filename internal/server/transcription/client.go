// Package transcription is the HTTP client for the external speech-to-text
// engine.
package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/voicegate/internal/common"
	"github.com/dmitrijs2005/voicegate/internal/server/models"
)

const maxErrorBody = 4 << 10

var maxResponseBody int64 = 16 << 20

// Config contains transcription client configuration.
type Config struct {
	// Endpoint is the engine base URL; requests go to Endpoint + "/transcribe".
	Endpoint      string
	Timeout       time.Duration
	MaxConcurrent int
}

// Client uploads recordings to the engine. It is safe for concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
	semaphore  chan struct{}
}

func NewClient(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, errors.New("endpoint cannot be empty")
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	config.Endpoint = strings.TrimRight(config.Endpoint, "/")

	return &Client{
		config: config,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		semaphore: make(chan struct{}, config.MaxConcurrent),
	}, nil
}

// Transcribe streams audio as multipart field "file" and decodes the answer.
// Failures are *common.DownstreamError; the call is cancelled after
// Config.Timeout.
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader) (*models.Transcript, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	select {
	case c.semaphore <- struct{}{}:
		defer func() { <-c.semaphore }()
	case <-ctx.Done():
		return nil, c.downstream(ctx, ctx.Err())
	}

	body, contentType := multipartBody(filename, audio)
	defer body.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint+"/transcribe", body)
	if err != nil {
		return nil, &common.DownstreamError{Kind: common.DownstreamUnavailable, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.downstream(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &common.DownstreamError{
			Kind: common.DownstreamUnavailable,
			Err:  fmt.Errorf("HTTP error %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return nil, c.downstream(ctx, fmt.Errorf("failed to read response body: %w", err))
	}
	if int64(len(raw)) > maxResponseBody {
		return nil, &common.DownstreamError{
			Kind: common.DownstreamUnavailable,
			Err:  fmt.Errorf("response body exceeds %d bytes", maxResponseBody),
		}
	}

	t := &models.Transcript{}
	if err := json.Unmarshal(raw, t); err != nil {
		return nil, &common.DownstreamError{
			Kind: common.DownstreamUnavailable,
			Err:  fmt.Errorf("failed to parse response JSON: %w", err),
		}
	}
	t.Raw = raw

	return t, nil
}

// multipartBody writes the form on a goroutine so the recording is never
// buffered in memory.
func multipartBody(filename string, audio io.Reader) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		fw, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(fw, audio)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func (c *Client) downstream(ctx context.Context, err error) error {
	var ne net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &ne) && ne.Timeout()) {
		return &common.DownstreamError{
			Kind: common.DownstreamTimeout,
			Err:  fmt.Errorf("no answer within %s: %w", c.config.Timeout, err),
		}
	}
	return &common.DownstreamError{Kind: common.DownstreamUnavailable, Err: err}
}
