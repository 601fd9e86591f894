package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fleetadmin/internal/entity"
	"fleetadmin/internal/repository"
	"fleetadmin/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*entity.SystemUser
	updates   int
	updateErr error
}

func newFakeUserRepo(users ...*entity.SystemUser) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uuid.UUID]*entity.SystemUser)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.SystemUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.SystemUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.SystemUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if utils.NormalizeEmail(user.Email) == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	user, ok := r.users[id]
	if !ok {
		return errors.New("missing user")
	}
	user.PasswordHash = hash
	user.UpdatedAt = &updatedAt
	r.updates++
	return nil
}

func (r *fakeUserRepo) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.LastLogin = &at
	}
	return nil
}

func (r *fakeUserRepo) passwordHash(id uuid.UUID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id].PasswordHash
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []entity.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, log *entity.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *log)
	return nil
}

func (r *fakeAuditRepo) actions() []entity.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]entity.AuditAction, 0, len(r.entries))
	for _, entry := range r.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

type sentMessage struct {
	To      string
	Subject string
	Body    string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *fakeSender) Send(_ context.Context, to string, subject string, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{To: to, Subject: subject, Body: body})
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sequenceCodes struct {
	mu    sync.Mutex
	codes []string
}

func (g *sequenceCodes) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.codes) == 0 {
		return utils.GenerateOTPCode()
	}
	code := g.codes[0]
	g.codes = g.codes[1:]
	return code, nil
}

// racingLedger issues a fresh code for the same email right after the next
// Get returns, the way a concurrent RequestPasswordReset would.
type racingLedger struct {
	repository.OTPLedger
	mu    sync.Mutex
	armed func()
}

func (l *racingLedger) Get(ctx context.Context, email string) (*entity.PasswordResetOTP, error) {
	record, err := l.OTPLedger.Get(ctx, email)
	l.mu.Lock()
	interleave := l.armed
	l.armed = nil
	l.mu.Unlock()
	if interleave != nil {
		interleave()
	}
	return record, err
}

func (l *racingLedger) reissueOnNextGet(t *testing.T, email string, code string, clock *fakeClock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.armed = func() {
		require.NoError(t, l.OTPLedger.Put(context.Background(), email, code, clock.Now(), 10*time.Minute))
	}
}
