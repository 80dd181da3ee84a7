package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/dafibh/lunas/lunas-backend/internal/websocket"
	"github.com/google/uuid"
)

// MockLoanRepository is a mock implementation of domain.LoanRepository
type MockLoanRepository struct {
	mu       sync.Mutex
	Loans    map[uuid.UUID]*domain.Loan
	CreateFn func(ctx context.Context, loan *domain.Loan) (*domain.Loan, error)
	GetFn    func(ctx context.Context, ownerID string, id uuid.UUID) (*domain.Loan, error)
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{
		Loans: make(map[uuid.UUID]*domain.Loan),
	}
}

// Create stores a loan and assigns it an ID
func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, loan)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *loan
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.Loans[stored.ID] = &stored
	return &stored, nil
}

// GetByID retrieves a loan owned by ownerID
func (m *MockLoanRepository) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*domain.Loan, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, ownerID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	loan, ok := m.Loans[id]
	if !ok || loan.OwnerID != ownerID {
		return nil, domain.ErrLoanNotFound
	}
	result := *loan
	return &result, nil
}

// ListByOwner returns every loan owned by ownerID
func (m *MockLoanRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var loans []*domain.Loan
	for _, loan := range m.Loans {
		if loan.OwnerID == ownerID {
			result := *loan
			loans = append(loans, &result)
		}
	}
	return loans, nil
}

// AddLoan adds a loan directly to the mock
func (m *MockLoanRepository) AddLoan(loan *domain.Loan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Loans[loan.ID] = loan
}

// MockLedgerRepository is a mock implementation of domain.LedgerRepository.
// Append performs the same compare-and-swap on the version as the database.
type MockLedgerRepository struct {
	mu          sync.Mutex
	Ledgers     map[uuid.UUID]*domain.Ledger
	AppendCalls int
	GetFn       func(ctx context.Context, loanID uuid.UUID) (*domain.Ledger, error)
	AppendFn    func(ctx context.Context, loanID uuid.UUID, expectedVersion int64, entry domain.LedgerEntry) error
}

// NewMockLedgerRepository creates a new MockLedgerRepository
func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{
		Ledgers: make(map[uuid.UUID]*domain.Ledger),
	}
}

// GetByLoanID returns a copy of the stored ledger, or an empty one
func (m *MockLedgerRepository) GetByLoanID(ctx context.Context, loanID uuid.UUID) (*domain.Ledger, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, loanID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ledger, ok := m.Ledgers[loanID]
	if !ok {
		return domain.NewLedger(loanID), nil
	}
	return ledger.Clone(), nil
}

// Append applies entry when the stored version equals expectedVersion
func (m *MockLedgerRepository) Append(ctx context.Context, loanID uuid.UUID, expectedVersion int64, entry domain.LedgerEntry) error {
	m.mu.Lock()
	m.AppendCalls++
	m.mu.Unlock()

	if m.AppendFn != nil {
		return m.AppendFn(ctx, loanID, expectedVersion, entry)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ledger, ok := m.Ledgers[loanID]
	if !ok {
		ledger = domain.NewLedger(loanID)
	}
	if ledger.Version != expectedVersion {
		return domain.Reject(domain.ReasonStaleLedger, "ledger is at version %d, expected %d", ledger.Version, expectedVersion)
	}

	next := ledger.Clone()
	switch {
	case entry.Slot != nil:
		if _, exists := next.Installments[entry.Slot.Number]; exists {
			return domain.Reject(domain.ReasonSlotAlreadyPaid, "slot %d already has a payment", entry.Slot.Number)
		}
		next.Installments[entry.Slot.Number] = *entry.Slot
	case entry.Single != nil:
		if next.Single != nil {
			return domain.Reject(domain.ReasonAlreadyPaid, "loan already has a payment")
		}
		single := *entry.Single
		next.Single = &single
	case entry.Open != nil:
		next.OpenPayments = append(next.OpenPayments, *entry.Open)
	default:
		return fmt.Errorf("empty ledger entry")
	}
	next.Version++
	m.Ledgers[loanID] = next
	return nil
}

// SetLedger stores a ledger directly in the mock
func (m *MockLedgerRepository) SetLedger(ledger *domain.Ledger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ledgers[ledger.LoanID] = ledger.Clone()
}

// MockProofRepository is an in-memory implementation of storage.ProofRepository
type MockProofRepository struct {
	mu       sync.Mutex
	Objects  map[string][]byte
	Deleted  []string
	UploadFn func(ctx context.Context, objectPath string) error
}

// NewMockProofRepository creates a new MockProofRepository
func NewMockProofRepository() *MockProofRepository {
	return &MockProofRepository{
		Objects: make(map[string][]byte),
	}
}

// Upload stores the object in memory and returns its path
func (m *MockProofRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadFn != nil {
		if err := m.UploadFn(ctx, objectPath); err != nil {
			return "", err
		}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[objectPath] = buf.Bytes()
	return objectPath, nil
}

// Delete removes the object
func (m *MockProofRepository) Delete(ctx context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, objectPath)
	m.Deleted = append(m.Deleted, objectPath)
	return nil
}

// GeneratePresignedURL returns a fake URL for objects that exist
func (m *MockProofRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Objects[objectPath]; !ok {
		return "", domain.ErrProofNotFound
	}
	return fmt.Sprintf("https://proofs.test/%s?expires=%d", objectPath, int(expiry.Seconds())), nil
}

// ObjectCount returns the number of stored objects
func (m *MockProofRepository) ObjectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Objects)
}

// PublishedEvent is an event captured by RecordingPublisher
type PublishedEvent struct {
	OwnerID string
	Event   websocket.Event
}

// RecordingPublisher implements websocket.EventPublisher and records events
type RecordingPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

// Publish records the event
func (p *RecordingPublisher) Publish(ownerID string, event websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{OwnerID: ownerID, Event: event})
}

// Events returns a copy of the recorded events
func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedEvent, len(p.events))
	copy(out, p.events)
	return out
}
