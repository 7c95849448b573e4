package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/infrawatch/auth-service/internal/domain"
	"github.com/infrawatch/auth-service/internal/notify"
	"github.com/infrawatch/auth-service/internal/repository"
	"gorm.io/gorm"
)

// FakeStore is an in-memory CredentialStore used by service-level tests. It
// honors the same contracts as the gorm repositories: gorm.ErrRecordNotFound
// for missing rows, conditional revoke semantics, and commit-or-rollback
// transactions via snapshots.
type FakeStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	users    map[uuid.UUID]domain.User
	sessions map[uuid.UUID]domain.RefreshSession
	otps     map[uuid.UUID]domain.OTPRecord

	// Failure injection
	FailSessionCreate bool
	FailOTPCreate     bool
	FailTouch         bool
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		users:    make(map[uuid.UUID]domain.User),
		sessions: make(map[uuid.UUID]domain.RefreshSession),
		otps:     make(map[uuid.UUID]domain.OTPRecord),
	}
}

func (s *FakeStore) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:    &fakeUserRepo{s},
		Session: &fakeSessionRepo{s},
		OTP:     &fakeOTPRepo{s},
		Tx:      &fakeTxManager{s},
	}
}

// Sessions returns a copy of all stored sessions for assertions.
func (s *FakeStore) Sessions() []domain.RefreshSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RefreshSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out
}

// OTPs returns a copy of all stored OTP records for assertions.
func (s *FakeStore) OTPs() []domain.OTPRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.OTPRecord, 0, len(s.otps))
	for _, record := range s.otps {
		out = append(out, record)
	}
	return out
}

// UserCount reports the number of persisted users.
func (s *FakeStore) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type fakeUserRepo struct{ s *FakeStore }

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.Email != nil && *user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeSessionRepo struct{ s *FakeStore }

func (r *fakeSessionRepo) Create(_ context.Context, session *domain.RefreshSession) error {
	if r.s.FailSessionCreate {
		return errors.New("session store unavailable")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[session.ID] = *session
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.RefreshSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &session, nil
}

func (r *fakeSessionRepo) Revoke(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[id]
	if !ok || session.Revoked {
		return false, nil
	}
	session.Revoked = true
	session.RevokedAt = &at
	r.s.sessions[id] = session
	return true, nil
}

func (r *fakeSessionRepo) TouchLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	if r.s.FailTouch {
		return errors.New("session store unavailable")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	session.LastUsedAt = at
	r.s.sessions[id] = session
	return nil
}

type fakeOTPRepo struct{ s *FakeStore }

func (r *fakeOTPRepo) Create(_ context.Context, record *domain.OTPRecord) error {
	if r.s.FailOTPCreate {
		return errors.New("otp store unavailable")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.otps[record.ID]; exists {
		return gorm.ErrDuplicatedKey
	}
	r.s.otps[record.ID] = *record
	return nil
}

func (r *fakeOTPRepo) GetByCode(_ context.Context, code string) (*domain.OTPRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, record := range r.s.otps {
		if record.Code == code {
			rec := record
			return &rec, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOTPRepo) Upsert(_ context.Context, record *domain.OTPRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.otps[record.ID] = *record
	return nil
}

func (r *fakeOTPRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, record := range r.s.otps {
		if record.UserID == userID {
			delete(r.s.otps, id)
		}
	}
	return nil
}

type fakeTxManager struct{ s *FakeStore }

// Transaction serializes transactional scopes and restores a snapshot of the
// store when fn fails, mirroring commit-or-rollback behavior.
func (m *fakeTxManager) Transaction(_ context.Context, fn func(repos *repository.Repositories) error) error {
	m.s.txMu.Lock()
	defer m.s.txMu.Unlock()

	users, sessions, otps := m.s.snapshot()
	if err := fn(m.s.Repositories()); err != nil {
		m.s.restore(users, sessions, otps)
		return err
	}
	return nil
}

func (s *FakeStore) snapshot() (map[uuid.UUID]domain.User, map[uuid.UUID]domain.RefreshSession, map[uuid.UUID]domain.OTPRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make(map[uuid.UUID]domain.User, len(s.users))
	for k, v := range s.users {
		users[k] = v
	}
	sessions := make(map[uuid.UUID]domain.RefreshSession, len(s.sessions))
	for k, v := range s.sessions {
		sessions[k] = v
	}
	otps := make(map[uuid.UUID]domain.OTPRecord, len(s.otps))
	for k, v := range s.otps {
		otps[k] = v
	}
	return users, sessions, otps
}

func (s *FakeStore) restore(users map[uuid.UUID]domain.User, sessions map[uuid.UUID]domain.RefreshSession, otps map[uuid.UUID]domain.OTPRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.sessions = sessions
	s.otps = otps
}

// FakeClock is a manually advanced clock.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FakeSink records enqueued emails and optionally fails.
type FakeSink struct {
	mu          sync.Mutex
	Enqueued    []notify.Email
	FailEnqueue bool
}

func (s *FakeSink) Enqueue(_ context.Context, email notify.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailEnqueue {
		return errors.New("queue unavailable")
	}
	s.Enqueued = append(s.Enqueued, email)
	return nil
}

func (s *FakeSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Enqueued)
}

// FakeGenerator returns queued codes in order, falling back to a fixed code
// once the queue is drained.
type FakeGenerator struct {
	mu    sync.Mutex
	Codes []string
}

func (g *FakeGenerator) Next() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Codes) == 0 {
		return "123456", nil
	}
	code := g.Codes[0]
	g.Codes = g.Codes[1:]
	return code, nil
}
