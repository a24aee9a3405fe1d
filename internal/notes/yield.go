package notes

import (
	"context"
	"math/big"

	"ryegate/internal/audit"
	"ryegate/internal/rbac"
	"ryegate/pkg/domain"
	dErrors "ryegate/pkg/domain-errors"
	"ryegate/pkg/requestcontext"
	"ryegate/pkg/usdc"
)

// FundPool pulls reserve currency from the caller into the yield pool.
// Funder role only; the caller must have approved the ledger address for at
// least the amount beforehand.
func (l *Ledger) FundPool(ctx context.Context, caller domain.Address, amount usdc.Amount) error {
	ctx, span := l.tracer.Start(ctx, "notes.FundPool")
	defer span.End()

	if err := l.roles.Require(ctx, rbac.RoleFunder, caller); err != nil {
		return err
	}
	if amount == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "amount must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.reserve.TransferFrom(ctx, l.ledgerAddr, caller, l.ledgerAddr, amount); err != nil {
		return err
	}
	l.pool += amount
	l.metrics.PoolBalance.Set(float64(l.pool))

	l.emit(ctx, audit.Event{
		Actor:  caller,
		Action: audit.ActionFundPool,
		Amount: amount,
	})
	return nil
}

// Distribute snapshots the current supply against the period's attested
// report and records a per-token rate. Operator role only. The free pool
// (funded minus distributed-but-unclaimed) must cover the full amount up
// front, so every entitlement the rate creates is already backed.
func (l *Ledger) Distribute(ctx context.Context, caller domain.Address, period domain.Period) error {
	ctx, span := l.tracer.Start(ctx, "notes.Distribute")
	defer span.End()

	if err := l.roles.Require(ctx, rbac.RoleOperator, caller); err != nil {
		return err
	}

	report, err := l.reports.GetReport(ctx, period)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.distributed[period] {
		return dErrors.Newf(dErrors.CodeAlreadyDistributed, "period %s already distributed", period.FormatQuarter())
	}
	if l.totalSupply == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "no notes outstanding")
	}
	amount := report.DistributeAmount
	if amount == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "report carries no distribution amount")
	}
	if l.pool-l.outstanding < amount {
		return dErrors.New(dErrors.CodeInsufficientPool, "pool does not cover the distribution amount")
	}

	rate := new(big.Int).SetUint64(uint64(amount))
	rate.Mul(rate, big.NewInt(RateScale))
	rate.Div(rate, new(big.Int).SetUint64(l.totalSupply))

	l.distributions = append(l.distributions, Distribution{
		Period:        period,
		Amount:        amount,
		Supply:        l.totalSupply,
		Rate:          rate,
		DistributedAt: requestcontext.Now(ctx),
	})
	l.distributed[period] = true
	l.currentPeriod = period
	l.outstanding += amount
	l.metrics.Distributions.Inc()

	l.emit(ctx, audit.Event{
		Actor:  caller,
		Action: audit.ActionDistribute,
		Amount: amount,
		Period: period,
	})
	return nil
}

// ClaimYield settles the caller and pays out their entire pending balance
// from the pool.
func (l *Ledger) ClaimYield(ctx context.Context, caller domain.Address) (usdc.Amount, error) {
	ctx, span := l.tracer.Start(ctx, "notes.ClaimYield")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	h := l.holders[caller]
	if h == nil {
		return 0, dErrors.New(dErrors.CodeNoYield, "no yield to claim")
	}
	l.settle(h)
	amount := h.pending
	if amount == 0 {
		return 0, dErrors.New(dErrors.CodeNoYield, "no yield to claim")
	}
	if err := l.reserve.Transfer(ctx, l.ledgerAddr, caller, amount); err != nil {
		return 0, err
	}
	h.pending = 0
	l.pool -= amount
	l.outstanding -= amount
	l.metrics.Claims.Inc()
	l.metrics.PoolBalance.Set(float64(l.pool))

	l.emit(ctx, audit.Event{
		Actor:  caller,
		Action: audit.ActionClaim,
		Amount: amount,
	})
	return amount, nil
}

// PendingYield reads a holder's claimable yield without settling them.
func (l *Ledger) PendingYield(addr domain.Address) usdc.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := l.holders[addr]
	if h == nil {
		return 0
	}
	return h.pending + l.unsettled(h)
}

// PoolBalance reads the funded pool.
func (l *Ledger) PoolBalance() usdc.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool
}

// Outstanding reads the distributed-but-unclaimed total. It includes each
// distribution's floor-division residue (amount minus the sum of holder
// shares), which no claim ever pays out; the residue stays reserved, so the
// free pool shrinks by at most one base unit per holder per distribution.
func (l *Ledger) Outstanding() usdc.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outstanding
}

// CurrentPeriod reads the most recently distributed period. Zero when no
// distribution has happened yet.
func (l *Ledger) CurrentPeriod() domain.Period {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentPeriod
}

// Distributions lists the distribution history, oldest first.
func (l *Ledger) Distributions() []Distribution {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Distribution, len(l.distributions))
	copy(out, l.distributions)
	return out
}

// settle folds every distribution the holder has not yet seen into their
// pending balance and advances the cursor. The ledger settles both parties
// before any balance mutation, so within each unfolded period the holder's
// balance was constant at its current value. Callers hold l.mu.
func (l *Ledger) settle(h *holder) {
	h.pending += l.foldFrom(h, h.cursor)
	h.cursor = len(l.distributions)
}

// unsettled computes the fold without advancing the cursor. Callers hold
// l.mu.
func (l *Ledger) unsettled(h *holder) usdc.Amount {
	return l.foldFrom(h, h.cursor)
}

func (l *Ledger) foldFrom(h *holder, cursor int) usdc.Amount {
	if h.total == 0 || cursor >= len(l.distributions) {
		return 0
	}
	balance := new(big.Int).SetUint64(h.total)
	scale := big.NewInt(RateScale)
	sum := new(big.Int)
	share := new(big.Int)
	for _, d := range l.distributions[cursor:] {
		share.Mul(balance, d.Rate)
		share.Div(share, scale)
		sum.Add(sum, share)
	}
	return usdc.Amount(sum.Uint64())
}
