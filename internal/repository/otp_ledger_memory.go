package repository

import (
	"context"
	"sync"
	"time"

	"fleetadmin/internal/entity"
	"fleetadmin/internal/utils"

	"github.com/google/uuid"
)

type memoryOTPLedger struct {
	mu      sync.Mutex
	records map[string]entity.PasswordResetOTP
}

// NewMemoryOTPLedger keeps records in process memory. State is lost on
// restart and is not shared between replicas.
func NewMemoryOTPLedger() OTPLedger {
	return &memoryOTPLedger{records: make(map[string]entity.PasswordResetOTP)}
}

func (l *memoryOTPLedger) Put(_ context.Context, email string, code string, issuedAt time.Time, ttl time.Duration) error {
	record := newOTPRecord(email, utils.HashToken(code), issuedAt, ttl)
	record.ID = uuid.New()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[email] = record
	return nil
}

func (l *memoryOTPLedger) Get(_ context.Context, email string) (*entity.PasswordResetOTP, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.records[email]
	if !ok {
		return nil, ErrOTPNotFound
	}
	return &record, nil
}

func (l *memoryOTPLedger) MarkVerified(_ context.Context, email string, code string, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.records[email]
	if !ok {
		return ErrOTPNotFound
	}
	if record.IsExpired(now) {
		delete(l.records, email)
		return ErrOTPExpired
	}
	if !record.MatchesHash(utils.HashToken(code)) {
		return ErrOTPMismatch
	}
	record.Verified = true
	l.records[email] = record
	return nil
}

func (l *memoryOTPLedger) Consume(_ context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, email)
	return nil
}

func (l *memoryOTPLedger) ConsumeIfCurrent(_ context.Context, email string, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if record, ok := l.records[email]; ok && record.ID == id {
		delete(l.records, email)
	}
	return nil
}

func (l *memoryOTPLedger) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var removed int64
	for email, record := range l.records {
		if record.IsExpired(now) {
			delete(l.records, email)
			removed++
		}
	}
	return removed, nil
}
