package http

import (
	"context"
	"errors"
	"sync"
	"time"

	pgvector "github.com/pgvector/pgvector-go"

	"mood-journal/internal/domain"
	"mood-journal/internal/flutterwave"
	"mood-journal/internal/repository"
)

type mockUserRepo struct {
	mu           sync.Mutex
	usersByID    map[string]domain.User
	usersByEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usersByID[user.ID] = user
	if user.Email != "" {
		m.usersByEmail[user.Email] = user.ID
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	id, ok := m.usersByEmail[email]
	m.mu.Unlock()
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *mockUserRepo) UpdateEmail(_ context.Context, id, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Email = email
	m.usersByID[id] = user
	m.usersByEmail[email] = id
	return nil
}

func (m *mockUserRepo) UpdatePro(_ context.Context, id string, isPro bool, proUntil *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsPro = isPro
	user.ProUntil = proUntil
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) UpdateOTP(_ context.Context, id, otpHash string, otpExpiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.OtpCodeHash = otpHash
	user.OtpExpiresAt = &otpExpiresAt
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) ClearOTP(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.OtpCodeHash = ""
	user.OtpExpiresAt = nil
	m.usersByID[id] = user
	return nil
}

type mockEmailSender struct {
	mu      sync.Mutex
	lastTo  string
	lastOTP string
}

func (m *mockEmailSender) SendProActivated(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (m *mockEmailSender) SendVerificationOTP(_ context.Context, to string, code string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = to
	m.lastOTP = code
	return nil
}

type mockEntryRepo struct {
	mu      sync.Mutex
	entries []domain.Entry
	listErr error
}

func (m *mockEntryRepo) Create(_ context.Context, entry domain.Entry) (domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return entry, nil
}

func (m *mockEntryRepo) ListByUser(_ context.Context, userID string) ([]domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Entry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEntryRepo) GetByID(_ context.Context, userID string, id int64) (domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.UserID == userID && e.ID == id {
			return e, nil
		}
	}
	return domain.Entry{}, repository.ErrNotFound
}

func (m *mockEntryRepo) ListSimilar(_ context.Context, userID string, _ pgvector.Vector, excludeID int64, k int) ([]domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Entry
	for _, e := range m.entries {
		if e.UserID == userID && e.ID != excludeID && len(out) < k {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockPaymentRepo struct {
	mu    sync.Mutex
	byRef map[string]domain.Payment
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{byRef: make(map[string]domain.Payment)}
}

func (m *mockPaymentRepo) Create(_ context.Context, p domain.Payment) (domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = int64(len(m.byRef) + 1)
	m.byRef[p.TxRef] = p
	return p, nil
}

func (m *mockPaymentRepo) GetByTxRef(_ context.Context, txRef string) (domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byRef[txRef]
	if !ok {
		return domain.Payment{}, repository.ErrNotFound
	}
	return p, nil
}

func (m *mockPaymentRepo) UpdateResult(_ context.Context, txRef, flwTxID, status, rawJSON string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byRef[txRef]
	if !ok || p.Status == domain.PaymentStatusSuccessful {
		return false, nil
	}
	p.FlwTxID = flwTxID
	p.Status = status
	p.RawJSON = rawJSON
	m.byRef[txRef] = p
	return true, nil
}

type mockVerifier struct {
	result flutterwave.Verification
	err    error
}

func (m *mockVerifier) VerifyTransaction(_ context.Context, id string) (flutterwave.Verification, error) {
	if id == "" {
		return flutterwave.Verification{}, errors.New("missing id")
	}
	return m.result, m.err
}
