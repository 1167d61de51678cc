package account

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Afresh-academy/JosCity-Back-end/internal/notification"
	"github.com/stretchr/testify/mock"
)

// mockRepository is a testify mock of Repository. InTx runs fn against the
// mock itself.
type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) InTx(ctx context.Context, fn func(Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Create(ctx context.Context, a *Account) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	args := m.Called(ctx, email)
	a, _ := args.Get(0).(*Account)
	return a, args.Error(1)
}

func (m *mockRepository) FindApprovedByEmail(ctx context.Context, email string) (*Account, error) {
	args := m.Called(ctx, email)
	a, _ := args.Get(0).(*Account)
	return a, args.Error(1)
}

func (m *mockRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) ExistsByNIN(ctx context.Context, nin string) (bool, error) {
	args := m.Called(ctx, nin)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) ExistsByRegistrationNo(ctx context.Context, regNo string) (bool, error) {
	args := m.Called(ctx, regNo)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) GroupOf(ctx context.Context, id int64) (Group, error) {
	args := m.Called(ctx, id)
	g, _ := args.Get(0).(Group)
	return g, args.Error(1)
}

func (m *mockRepository) ListPending(ctx context.Context) ([]Account, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]Account)
	return list, args.Error(1)
}

func (m *mockRepository) Approve(ctx context.Context, id int64, code string, expires time.Time) (*Account, error) {
	args := m.Called(ctx, id, code, expires)
	a, _ := args.Get(0).(*Account)
	return a, args.Error(1)
}

func (m *mockRepository) Reject(ctx context.Context, id int64) (*Account, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*Account)
	return a, args.Error(1)
}

func (m *mockRepository) MarkVerified(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockRepository) SetActivationCode(ctx context.Context, id int64, code string, expires time.Time) error {
	return m.Called(ctx, id, code, expires).Error(0)
}

func (m *mockRepository) SetResetCode(ctx context.Context, id int64, code string, expires time.Time) error {
	return m.Called(ctx, id, code, expires).Error(0)
}

func (m *mockRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *mockRepository) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockRepository) CreateSession(ctx context.Context, s *Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockRepository) DeleteSession(ctx context.Context, sessionToken string) error {
	return m.Called(ctx, sessionToken).Error(0)
}

// recordingNotifier captures outgoing email and optionally fails delivery.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.Email
	err  error
}

func (n *recordingNotifier) SendEmail(_ context.Context, msg notification.Email) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return "", n.err
	}
	n.sent = append(n.sent, msg)
	return "<test@joscity.local>", nil
}

func (n *recordingNotifier) last() notification.Email {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return notification.Email{}
	}
	return n.sent[len(n.sent)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func ptr[T any](v T) *T { return &v }

var errSMTPDown = errors.New("smtp: connection refused")

type fakeRevoker struct {
	revoked map[string]time.Time
	err     error
}

func (r *fakeRevoker) Revoke(_ context.Context, id string, until time.Time) error {
	if r.err != nil {
		return r.err
	}
	if r.revoked == nil {
		r.revoked = map[string]time.Time{}
	}
	r.revoked[id] = until
	return nil
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}
