package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dmitrijs2005/voicegate/internal/logging"
	"github.com/dmitrijs2005/voicegate/internal/server/models"
	"github.com/dmitrijs2005/voicegate/internal/server/uploads"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeAccounts struct {
	user *models.User
	pair *models.TokenPair
	err  error

	gotEmail, gotPassword string
}

func (f *fakeAccounts) Signup(ctx context.Context, email, password string) (*models.User, *models.TokenPair, error) {
	f.gotEmail, f.gotPassword = email, password
	return f.user, f.pair, f.err
}

func (f *fakeAccounts) Login(ctx context.Context, email, password string) (*models.User, *models.TokenPair, error) {
	f.gotEmail, f.gotPassword = email, password
	return f.user, f.pair, f.err
}

type fakeSessions struct {
	pair      *models.TokenPair
	rotateErr error
	revokeErr error
	got       string
}

func (f *fakeSessions) RotateRefreshToken(ctx context.Context, token string) (*models.TokenPair, error) {
	f.got = token
	return f.pair, f.rotateErr
}

func (f *fakeSessions) RevokeRefreshToken(ctx context.Context, token string) error {
	f.got = token
	return f.revokeErr
}

type fakeResource struct {
	name     string
	data     []byte
	released int
}

func (r *fakeResource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(r.data)), nil
}
func (r *fakeResource) Location() string { return r.name }
func (r *fakeResource) Name() string     { return r.name }
func (r *fakeResource) Release(ctx context.Context) error {
	r.released++
	return nil
}

type fakeStore struct {
	mu    sync.Mutex
	saved []*fakeResource
	err   error
}

func (s *fakeStore) Save(ctx context.Context, name string, size int64, r io.Reader) (uploads.Resource, error) {
	if s.err != nil {
		return nil, s.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	res := &fakeResource{name: name, data: b}
	s.mu.Lock()
	s.saved = append(s.saved, res)
	s.mu.Unlock()
	return res, nil
}

// fakeProcessor releases the resource like the real pipeline does.
type fakeProcessor struct {
	result   *models.ProcessResult
	err      error
	gotToken string
	gotData  []byte
}

func (p *fakeProcessor) Process(ctx context.Context, accessToken string, res uploads.Resource) (*models.ProcessResult, error) {
	defer res.Release(ctx)
	p.gotToken = accessToken
	rc, _ := res.Open(ctx)
	p.gotData, _ = io.ReadAll(rc)
	rc.Close()
	return p.result, p.err
}

type fakeLedger struct {
	balance  int64
	rows     []models.CreditTransaction
	err      error
	gotUser  string
	gotLimit int
}

func (l *fakeLedger) Balance(ctx context.Context, userID string) (int64, error) {
	l.gotUser = userID
	return l.balance, l.err
}

func (l *fakeLedger) Transactions(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error) {
	l.gotUser, l.gotLimit = userID, limit
	return l.rows, l.err
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "nothing attached"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/process-voice", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
