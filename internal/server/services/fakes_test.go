package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/voicegate/internal/common"
	"github.com/dmitrijs2005/voicegate/internal/dbx"
	"github.com/dmitrijs2005/voicegate/internal/logging"
	"github.com/dmitrijs2005/voicegate/internal/server/config"
	"github.com/dmitrijs2005/voicegate/internal/server/models"
	"github.com/dmitrijs2005/voicegate/internal/server/probe"
	"github.com/dmitrijs2005/voicegate/internal/server/repositories/credits"
	"github.com/dmitrijs2005/voicegate/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/voicegate/internal/server/repositories/users"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:            "access-k",
		RefreshTokenSecret:           "refresh-k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 30 * 24 * time.Hour,
		InitialCredits:               10,
	}
}

// memStore is an in-memory database shared by the fake repositories. The
// fake TxRunner serialises transactions and restores a snapshot on error,
// which is what row locks plus rollback give the real repositories.
type memStore struct {
	mu      sync.Mutex
	txMu    sync.Mutex
	nextID  int
	users   map[string]models.User
	tokens  map[string]models.RefreshToken
	ledger  []models.CreditTransaction
	txCount int

	failAppend error
	// failAppendTimes limits failAppend to the first n appends when > 0.
	failAppendTimes int
}

func newMemStore() *memStore {
	return &memStore{users: map[string]models.User{}, tokens: map[string]models.RefreshToken{}}
}

func (s *memStore) addUser(email string, credits int64) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u := models.User{ID: fmt.Sprintf("u-%d", s.nextID), Email: email, Credits: credits, CreatedAt: time.Now()}
	s.users[u.ID] = u
	return u
}

func (s *memStore) balance(id string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].Credits
}

func (s *memStore) ledgerRows() []models.CreditTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CreditTransaction(nil), s.ledger...)
}

type memSnapshot struct {
	users  map[string]models.User
	tokens map[string]models.RefreshToken
	ledger []models.CreditTransaction
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{users: map[string]models.User{}, tokens: map[string]models.RefreshToken{}}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.tokens {
		snap.tokens[k] = v
	}
	snap.ledger = append(snap.ledger, s.ledger...)
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users, s.tokens, s.ledger = snap.users, snap.tokens, snap.ledger
}

func (s *memStore) WithTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	s.txCount++
	s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx, nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// users.Repository
type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	r.s.nextID++
	u.ID = fmt.Sprintf("u-%d", r.s.nextID)
	u.CreatedAt = time.Now()
	r.s.users[u.ID] = *u
	return u, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

// refreshtokens.Repository
type memTokens struct{ s *memStore }

func (r memTokens) Create(ctx context.Context, userID, token string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tokens[token]; ok {
		return fmt.Errorf("duplicate token")
	}
	r.s.tokens[token] = models.RefreshToken{ID: token[len(token)-8:], UserID: userID, Token: token, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	return nil
}

func (r memTokens) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r memTokens) Revoke(ctx context.Context, token string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[token]
	if !ok || t.Revoked {
		return false, nil
	}
	t.Revoked = true
	r.s.tokens[token] = t
	return true, nil
}

// credits.Repository
type memCredits struct{ s *memStore }

func (r memCredits) LockBalance(ctx context.Context, userID string) (int64, error) {
	return r.Balance(ctx, userID)
}

func (r memCredits) Balance(ctx context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return 0, common.ErrorNotFound
	}
	return u.Credits, nil
}

func (r memCredits) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.users[userID]
	if u.Credits < amount {
		return 0, credits.ErrBalanceTooLow
	}
	u.Credits -= amount
	r.s.users[userID] = u
	return u.Credits, nil
}

func (r memCredits) AppendTransaction(ctx context.Context, userID string, amount int64, description string) (*models.CreditTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAppend != nil {
		err := r.s.failAppend
		if r.s.failAppendTimes > 0 {
			r.s.failAppendTimes--
			if r.s.failAppendTimes == 0 {
				r.s.failAppend = nil
			}
		}
		return nil, err
	}
	t := models.CreditTransaction{ID: int64(len(r.s.ledger) + 1), UserID: userID, Amount: amount, Description: description, CreatedAt: time.Now()}
	r.s.ledger = append(r.s.ledger, t)
	return &t, nil
}

func (r memCredits) ListTransactions(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.CreditTransaction{}
	for i := len(r.s.ledger) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.ledger[i].UserID == userID {
			out = append(out, r.s.ledger[i])
		}
	}
	return out, nil
}

type memRepoManager struct{ s *memStore }

func (m memRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m memRepoManager) Users(db dbx.DBTX) users.Repository                 { return memUsers{m.s} }
func (m memRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return memTokens{m.s} }
func (m memRepoManager) Credits(db dbx.DBTX) credits.Repository             { return memCredits{m.s} }

// fakeResource is an uploads.Resource that counts releases.
type fakeResource struct {
	mu         sync.Mutex
	data       string
	name       string
	releases   int
	releaseErr error
	openErr    error
}

func (r *fakeResource) Open(ctx context.Context) (io.ReadCloser, error) {
	if r.openErr != nil {
		return nil, r.openErr
	}
	return io.NopCloser(strings.NewReader(r.data)), nil
}

func (r *fakeResource) Location() string { return "/tmp/" + r.name }

func (r *fakeResource) Name() string { return r.name }

func (r *fakeResource) Release(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releases++
	return r.releaseErr
}

func (r *fakeResource) releaseCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.releases
}

type fakeProbe struct {
	seconds float64
	err     error
}

func (p *fakeProbe) Measure(ctx context.Context, src probe.Source) (float64, error) {
	return p.seconds, p.err
}

type fakeTranscriber struct {
	mu     sync.Mutex
	calls  int
	got    string
	result *models.Transcript
	err    error
	wait   bool
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (*models.Transcript, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	b, _ := io.ReadAll(audio)
	f.mu.Lock()
	f.got = string(b)
	f.mu.Unlock()

	if f.wait {
		<-ctx.Done()
		return nil, &common.DownstreamError{Kind: common.DownstreamTimeout, Err: ctx.Err()}
	}
	return f.result, f.err
}

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
