// Package notes implements the partitioned security note ledger: per-holder,
// per-partition balances behind a compliance gate, plus the periodic yield
// distribution engine.
//
// Every public operation is a single serialized transaction: one mutex
// guards all ledger state, every operation validates before it mutates, and
// a failed validation leaves no partial state behind. That mirrors the
// totally-ordered execution environment the accounting model assumes.
package notes

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"ryegate/internal/audit"
	"ryegate/internal/oracle"
	"ryegate/internal/rbac"
	"ryegate/pkg/domain"
	dErrors "ryegate/pkg/domain-errors"
	"ryegate/pkg/requestcontext"
	"ryegate/pkg/usdc"
)

// ComplianceChecker is the KYC registry surface the gate consumes.
type ComplianceChecker interface {
	IsWhitelisted(ctx context.Context, addr domain.Address) (bool, error)
	IsAccredited(ctx context.Context, addr domain.Address) (bool, error)
}

// ReportSource supplies validated revenue reports to the yield engine.
type ReportSource interface {
	GetReport(ctx context.Context, period domain.Period) (oracle.Report, error)
}

// Config wires the ledger's collaborators and policy.
type Config struct {
	// Partitions fixes the partition set. Empty defaults to
	// DefaultPartitions().
	Partitions []Partition
	// MaxSupply caps issuance in base units. Zero means uncapped.
	MaxSupply uint64
	// LedgerAddress is the identity under which the ledger holds the
	// pooled reserve currency.
	LedgerAddress domain.Address

	Reserve ReserveToken
	KYC     ComplianceChecker
	Reports ReportSource
	Roles   *rbac.Service
	Audit   *audit.Publisher
	Metrics *Metrics
	Logger  *slog.Logger
}

// Ledger is the engine aggregate. All state behind mu; collaborators are
// read-only from the ledger's point of view except the reserve token.
type Ledger struct {
	mu sync.Mutex

	partitions      map[domain.PartitionID]Partition
	partitionOrder  []domain.PartitionID
	holders         map[domain.Address]*holder
	partitionSupply map[domain.PartitionID]uint64
	totalSupply     uint64
	maxSupply       uint64
	paused          bool

	distributions []Distribution
	distributed   map[domain.Period]bool
	currentPeriod domain.Period
	pool          usdc.Amount
	// outstanding is the distributed-but-unclaimed total. It over-counts
	// actual entitlements by at most the rounding residue per period, which
	// keeps the pool >= entitlements invariant conservative.
	outstanding usdc.Amount

	ledgerAddr domain.Address
	reserve    ReserveToken
	kyc        ComplianceChecker
	reports    ReportSource
	roles      *rbac.Service
	audit      *audit.Publisher
	metrics    *Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

func NewLedger(cfg Config) *Ledger {
	parts := cfg.Partitions
	if len(parts) == 0 {
		parts = DefaultPartitions()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewNopMetrics()
	}
	l := &Ledger{
		partitions:      make(map[domain.PartitionID]Partition, len(parts)),
		holders:         make(map[domain.Address]*holder),
		partitionSupply: make(map[domain.PartitionID]uint64, len(parts)),
		distributed:     make(map[domain.Period]bool),
		maxSupply:       cfg.MaxSupply,
		ledgerAddr:      cfg.LedgerAddress,
		reserve:         cfg.Reserve,
		kyc:             cfg.KYC,
		reports:         cfg.Reports,
		roles:           cfg.Roles,
		audit:           cfg.Audit,
		metrics:         metrics,
		logger:          logger,
		tracer:          otel.Tracer("ryegate/notes"),
	}
	for _, p := range parts {
		l.partitions[p.ID] = p
		l.partitionOrder = append(l.partitionOrder, p.ID)
	}
	return l
}

// PartitionByID returns the partition policy, if the partition exists.
func (l *Ledger) PartitionByID(id domain.PartitionID) (Partition, bool) {
	p, ok := l.partitions[id]
	return p, ok
}

// Partitions lists the partition set in deployment order.
func (l *Ledger) Partitions() []Partition {
	out := make([]Partition, 0, len(l.partitionOrder))
	for _, id := range l.partitionOrder {
		out = append(out, l.partitions[id])
	}
	return out
}

// Issue mints notes into a partition. Issuer role only. The receiver passes
// the compliance gate exactly as a transfer receiver would; entering a
// partition for the first time starts its lockup clock, while top-ups leave
// the clock untouched.
func (l *Ledger) Issue(ctx context.Context, caller domain.Address, partition domain.PartitionID, to domain.Address, amount uint64) error {
	ctx, span := l.tracer.Start(ctx, "notes.Issue")
	defer span.End()

	if err := l.roles.Require(ctx, rbac.RoleIssuer, caller); err != nil {
		return err
	}
	if amount == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "amount must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	part, ok := l.partitions[partition]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "unknown partition")
	}
	if err := l.gateReceive(ctx, part, to); err != nil {
		return err
	}
	if l.maxSupply > 0 && l.totalSupply+amount > l.maxSupply {
		return dErrors.New(dErrors.CodeInvariantViolation, "exceeds max supply")
	}

	h := l.holderFor(to)
	l.settle(h)
	l.enterPartition(ctx, h, part)
	h.balances[partition] += amount
	h.total += amount
	l.partitionSupply[partition] += amount
	l.totalSupply += amount
	l.metrics.Issued.Inc()
	l.metrics.TotalSupplyGauge.Set(float64(l.totalSupply))

	l.emit(ctx, audit.Event{
		Actor:     caller,
		Action:    audit.ActionIssue,
		Subject:   to,
		Partition: part.Label,
		Amount:    usdc.Amount(amount),
	})
	return nil
}

// Transfer moves notes between holders within a partition. The caller must
// be the sender or hold the operator role. The gate runs in fixed order so
// rejections are deterministic: pause, receiver KYC, receiver accreditation,
// sender lockup.
func (l *Ledger) Transfer(ctx context.Context, caller domain.Address, partition domain.PartitionID, from, to domain.Address, amount uint64) error {
	ctx, span := l.tracer.Start(ctx, "notes.Transfer")
	defer span.End()

	if caller != from {
		if err := l.roles.Require(ctx, rbac.RoleOperator, caller); err != nil {
			return err
		}
	}
	if amount == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "amount must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	part, ok := l.partitions[partition]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "unknown partition")
	}
	if err := l.gateTransfer(ctx, part, from, to); err != nil {
		return err
	}
	sender := l.holders[from]
	if sender == nil || sender.balances[partition] < amount {
		return dErrors.New(dErrors.CodeInsufficientBalance, "insufficient partition balance")
	}

	receiver := l.holderFor(to)
	l.settle(sender)
	l.settle(receiver)
	l.enterPartition(ctx, receiver, part)
	sender.balances[partition] -= amount
	sender.total -= amount
	receiver.balances[partition] += amount
	receiver.total += amount
	l.metrics.Transfers.Inc()

	l.emit(ctx, audit.Event{
		Actor:     from,
		Action:    audit.ActionTransfer,
		Subject:   to,
		Partition: part.Label,
		Amount:    usdc.Amount(amount),
	})
	return nil
}

// Redeem burns notes from a holder. Issuer role only. Redemption is a
// removal, not a transfer-in, so no receiver gate runs - but the pause flag
// still blocks it, the stricter reading of the pause policy.
func (l *Ledger) Redeem(ctx context.Context, caller domain.Address, partition domain.PartitionID, holderAddr domain.Address, amount uint64) error {
	ctx, span := l.tracer.Start(ctx, "notes.Redeem")
	defer span.End()

	if err := l.roles.Require(ctx, rbac.RoleIssuer, caller); err != nil {
		return err
	}
	if amount == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "amount must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	part, ok := l.partitions[partition]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "unknown partition")
	}
	if l.paused {
		l.metrics.GateRejections.WithLabelValues("paused").Inc()
		return dErrors.New(dErrors.CodePaused, "ledger is paused")
	}
	h := l.holders[holderAddr]
	if h == nil || h.balances[partition] < amount {
		return dErrors.New(dErrors.CodeInsufficientBalance, "insufficient partition balance")
	}

	l.settle(h)
	h.balances[partition] -= amount
	h.total -= amount
	l.partitionSupply[partition] -= amount
	l.totalSupply -= amount
	l.metrics.Redemptions.Inc()
	l.metrics.TotalSupplyGauge.Set(float64(l.totalSupply))

	l.emit(ctx, audit.Event{
		Actor:     caller,
		Action:    audit.ActionRedeem,
		Subject:   holderAddr,
		Partition: part.Label,
		Amount:    usdc.Amount(amount),
	})
	return nil
}

// BalanceOf sums the holder's balance across partitions.
func (l *Ledger) BalanceOf(addr domain.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := l.holders[addr]
	if h == nil {
		return 0
	}
	return h.total
}

// BalanceOfByPartition reads one partition balance.
func (l *Ledger) BalanceOfByPartition(partition domain.PartitionID, addr domain.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := l.holders[addr]
	if h == nil {
		return 0
	}
	return h.balances[partition]
}

// PartitionsOf lists the partitions in which the holder has a non-zero
// balance, in deployment order.
func (l *Ledger) PartitionsOf(addr domain.Address) []domain.PartitionID {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := l.holders[addr]
	if h == nil {
		return nil
	}
	var out []domain.PartitionID
	for _, id := range l.partitionOrder {
		if h.balances[id] > 0 {
			out = append(out, id)
		}
	}
	return out
}

// TotalSupply reads the cross-partition supply.
func (l *Ledger) TotalSupply() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalSupply
}

// SupplyByPartition reads one partition's cumulative supply.
func (l *Ledger) SupplyByPartition(partition domain.PartitionID) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.partitionSupply[partition]
}

// Paused reads the pause flag.
func (l *Ledger) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

// Pause halts transfers, issuance, and redemption. Admin role only.
func (l *Ledger) Pause(ctx context.Context, caller domain.Address) error {
	if err := l.roles.Require(ctx, rbac.RoleAdmin, caller); err != nil {
		return err
	}
	l.mu.Lock()
	l.paused = true
	l.mu.Unlock()
	l.emit(ctx, audit.Event{Actor: caller, Action: audit.ActionPause})
	return nil
}

// Unpause restores normal operation. Admin role only.
func (l *Ledger) Unpause(ctx context.Context, caller domain.Address) error {
	if err := l.roles.Require(ctx, rbac.RoleAdmin, caller); err != nil {
		return err
	}
	l.mu.Lock()
	l.paused = false
	l.mu.Unlock()
	l.emit(ctx, audit.Event{Actor: caller, Action: audit.ActionUnpause})
	return nil
}

// Holders lists every address that has ever held notes, sorted. Admin
// surface helper; the engine itself never iterates holders on the hot path.
func (l *Ledger) Holders() []domain.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Address, 0, len(l.holders))
	for addr := range l.holders {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// holderFor returns the holder record, creating it on first touch. Callers
// hold l.mu.
func (l *Ledger) holderFor(addr domain.Address) *holder {
	h, ok := l.holders[addr]
	if !ok {
		h = newHolder()
		// A holder created mid-stream starts its cursor at the present:
		// periods distributed before it held anything pay it nothing.
		h.cursor = len(l.distributions)
		l.holders[addr] = h
	}
	return h
}

// enterPartition starts the lockup clock when the holder enters a
// lockup-bearing partition with a zero balance. Top-ups into an already-held
// position leave the original clock running. Callers hold l.mu.
func (l *Ledger) enterPartition(ctx context.Context, h *holder, part Partition) {
	if part.LockupDuration == 0 {
		return
	}
	if h.balances[part.ID] == 0 {
		h.lockupStart[part.ID] = requestcontext.Now(ctx)
	}
}

func (l *Ledger) emit(ctx context.Context, event audit.Event) {
	if l.audit == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	l.audit.Emit(ctx, event)
}
