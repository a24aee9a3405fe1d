package notes

import (
	"context"
	"sync"

	"ryegate/pkg/domain"
	dErrors "ryegate/pkg/domain-errors"
	"ryegate/pkg/usdc"
)

// ReserveToken is the stablecoin collaborator holding the yield pool's
// currency. Funding pulls through an allowance; claims push directly.
type ReserveToken interface {
	BalanceOf(ctx context.Context, addr domain.Address) (usdc.Amount, error)
	Approve(ctx context.Context, owner, spender domain.Address, amount usdc.Amount) error
	TransferFrom(ctx context.Context, spender, from, to domain.Address, amount usdc.Amount) error
	Transfer(ctx context.Context, from, to domain.Address, amount usdc.Amount) error
}

// MockReserve is an in-memory 6-decimal stablecoin with allowance semantics,
// used by tests and the dev server.
type MockReserve struct {
	mu         sync.Mutex
	balances   map[domain.Address]usdc.Amount
	allowances map[domain.Address]map[domain.Address]usdc.Amount
}

func NewMockReserve() *MockReserve {
	return &MockReserve{
		balances:   make(map[domain.Address]usdc.Amount),
		allowances: make(map[domain.Address]map[domain.Address]usdc.Amount),
	}
}

// Mint credits an address out of thin air. Test setup only.
func (m *MockReserve) Mint(addr domain.Address, amount usdc.Amount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[addr] += amount
}

func (m *MockReserve) BalanceOf(_ context.Context, addr domain.Address) (usdc.Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[addr], nil
}

func (m *MockReserve) Approve(_ context.Context, owner, spender domain.Address, amount usdc.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byOwner, ok := m.allowances[owner]
	if !ok {
		byOwner = make(map[domain.Address]usdc.Amount)
		m.allowances[owner] = byOwner
	}
	byOwner[spender] = amount
	return nil
}

func (m *MockReserve) TransferFrom(_ context.Context, spender, from, to domain.Address, amount usdc.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	allowed := m.allowances[from][spender]
	if allowed < amount {
		return dErrors.New(dErrors.CodeInsufficientBalance, "insufficient reserve allowance")
	}
	if m.balances[from] < amount {
		return dErrors.New(dErrors.CodeInsufficientBalance, "insufficient reserve balance")
	}
	m.allowances[from][spender] = allowed - amount
	m.balances[from] -= amount
	m.balances[to] += amount
	return nil
}

func (m *MockReserve) Transfer(_ context.Context, from, to domain.Address, amount usdc.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[from] < amount {
		return dErrors.New(dErrors.CodeInsufficientBalance, "insufficient reserve balance")
	}
	m.balances[from] -= amount
	m.balances[to] += amount
	return nil
}

var _ ReserveToken = (*MockReserve)(nil)
