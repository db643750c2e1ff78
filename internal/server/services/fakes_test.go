package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/yapplr/yapplr/internal/common"
	"github.com/yapplr/yapplr/internal/dbx"
	"github.com/yapplr/yapplr/internal/server/mail"
	"github.com/yapplr/yapplr/internal/server/models"
	"github.com/yapplr/yapplr/internal/server/repositories/accounts"
	"github.com/yapplr/yapplr/internal/server/repositories/resettokens"
)

// memStore backs the fake repositories. Unique rules mirror the SQL
// indexes: email, username, token, and one unused token per account.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	tokens   map[string]models.PasswordResetToken

	existsErr   error
	createErr   error
	markUsedErr error
	lockCalls   int
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]models.Account{},
		tokens:   map[string]models.PasswordResetToken{},
	}
}

func (m *memStore) snapshot() (map[string]models.Account, map[string]models.PasswordResetToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := make(map[string]models.Account, len(m.accounts))
	for k, v := range m.accounts {
		a[k] = v
	}
	t := make(map[string]models.PasswordResetToken, len(m.tokens))
	for k, v := range m.tokens {
		t[k] = v
	}
	return a, t
}

func (m *memStore) restore(a map[string]models.Account, t map[string]models.PasswordResetToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts, m.tokens = a, t
}

func (m *memStore) activeTokens(accountID string, now time.Time) []models.PasswordResetToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PasswordResetToken
	for _, t := range m.tokens {
		if t.AccountID == accountID && t.Active(now) {
			out = append(out, t)
		}
	}
	return out
}

// fakeTx runs fn against the shared store and rolls back on error.
type fakeTx struct {
	store *memStore
	calls int
}

func (f *fakeTx) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	f.calls++
	a, t := f.store.snapshot()
	if err := fn(ctx, nil); err != nil {
		f.store.restore(a, t)
		return err
	}
	return nil
}

type fakeRepoManager struct {
	store *memStore
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (f *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository {
	return &fakeAccounts{f.store}
}

func (f *fakeRepoManager) ResetTokens(dbx.DBTX) resettokens.Repository {
	return &fakeResetTokens{f.store}
}

type fakeAccounts struct{ s *memStore }

func (f *fakeAccounts) Create(ctx context.Context, a *models.Account) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.createErr != nil {
		return f.s.createErr
	}
	for _, x := range f.s.accounts {
		if x.Email == a.Email || x.Username == a.Username {
			return common.ErrConflict
		}
	}
	f.s.accounts[a.ID] = *a
	return nil
}

func (f *fakeAccounts) find(match func(models.Account) bool) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, a := range f.s.accounts {
		if match(a) {
			cp := a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccounts) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return f.find(func(a models.Account) bool { return a.ID == id })
}

func (f *fakeAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return f.find(func(a models.Account) bool { return a.Email == email })
}

func (f *fakeAccounts) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return f.find(func(a models.Account) bool { return a.Username == username })
}

func (f *fakeAccounts) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if f.s.existsErr != nil {
		return false, f.s.existsErr
	}
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeAccounts) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := f.GetByUsername(ctx, username)
	return err == nil, nil
}

func (f *fakeAccounts) LockForUpdate(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.lockCalls++
	if _, ok := f.s.accounts[id]; !ok {
		return common.ErrorNotFound
	}
	return nil
}

func (f *fakeAccounts) UpdatePasswordHash(ctx context.Context, id string, hash string, updatedAt time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = updatedAt
	f.s.accounts[id] = a
	return nil
}

type fakeResetTokens struct{ s *memStore }

func (f *fakeResetTokens) Create(ctx context.Context, t *models.PasswordResetToken) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, x := range f.s.tokens {
		if x.Token == t.Token || (x.AccountID == t.AccountID && !x.Used) {
			return common.ErrConflict
		}
	}
	f.s.tokens[t.ID] = *t
	return nil
}

func (f *fakeResetTokens) FindActiveByToken(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, t := range f.s.tokens {
		if t.Token == token && t.Active(now) {
			cp := t
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeResetTokens) FindActiveByAccount(ctx context.Context, accountID string, now time.Time) ([]*models.PasswordResetToken, error) {
	var out []*models.PasswordResetToken
	for _, t := range f.s.activeTokens(accountID, now) {
		cp := t
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeResetTokens) InvalidateForAccount(ctx context.Context, accountID string, now time.Time) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for id, t := range f.s.tokens {
		if t.AccountID == accountID && !t.Used {
			t.Used = true
			usedAt := now
			t.UsedAt = &usedAt
			f.s.tokens[id] = t
			n++
		}
	}
	return n, nil
}

func (f *fakeResetTokens) MarkUsed(ctx context.Context, id string, now time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.markUsedErr != nil {
		return f.s.markUsedErr
	}
	t, ok := f.s.tokens[id]
	if !ok || t.Used {
		return common.ErrorNotFound
	}
	t.Used = true
	usedAt := now
	t.UsedAt = &usedAt
	f.s.tokens[id] = t
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeLimiter struct {
	checkErr error
	failures map[string]int
	resets   int
}

func (f *fakeLimiter) Check(ctx context.Context, key string) error { return f.checkErr }

func (f *fakeLimiter) Failure(ctx context.Context, key string) error {
	if f.failures == nil {
		f.failures = map[string]int{}
	}
	f.failures[key]++
	return nil
}

func (f *fakeLimiter) Reset(ctx context.Context, key string) error {
	f.resets++
	return nil
}

type fakeMetrics struct {
	events       map[string]int
	mailFailures int
}

func (f *fakeMetrics) AuthEvent(event, outcome string) {
	if f.events == nil {
		f.events = map[string]int{}
	}
	f.events[event+"/"+outcome]++
}

func (f *fakeMetrics) ResetMailFailed() { f.mailFailures++ }
