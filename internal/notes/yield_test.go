package notes

import (
	"time"

	"ryegate/internal/oracle"
	"ryegate/pkg/domain"
	dErrors "ryegate/pkg/domain-errors"
	"ryegate/pkg/usdc"
)

var (
	periodQ1 = domain.NewPeriod(2026, 1)
	periodQ2 = domain.NewPeriod(2026, 2)
)

// fundPool mints reserve to the funder, approves the ledger, and funds.
func (s *LedgerSuite) fundPool(amount usdc.Amount) {
	s.reserve.Mint(funderAddr, amount)
	s.Require().NoError(s.reserve.Approve(s.ctx, funderAddr, ledgerAddr, amount))
	s.Require().NoError(s.ledger.FundPool(s.ctx, funderAddr, amount))
}

// pushReport attests a minimal valid report for the period.
func (s *LedgerSuite) pushReport(period domain.Period, distribute usdc.Amount) {
	_, err := s.oracle.PushReport(s.ctx, oracleAddr, oracle.PushRequest{
		Period:           period,
		GrossRevenue:     4 * distribute,
		OperatingCosts:   distribute,
		AdjustedEBITDA:   2 * distribute,
		DistributeAmount: distribute,
		PeriodStart:      s.t0.Unix(),
		PeriodEnd:        s.t0.Add(90 * 24 * time.Hour).Unix(),
		EvidenceURI:      "ipfs://QmEvidence",
	})
	s.Require().NoError(err)
}

// =============================================================================
// Pool Funding Tests
// =============================================================================

func (s *LedgerSuite) TestFundPool() {
	s.Run("requires funder role", func() {
		err := s.ledger.FundPool(s.ctx, inv1, usdc.FromDollars(1000))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("fails without allowance", func() {
		s.reserve.Mint(funderAddr, usdc.FromDollars(1000))
		err := s.ledger.FundPool(s.ctx, funderAddr, usdc.FromDollars(1000))
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
		s.Equal(usdc.Amount(0), s.ledger.PoolBalance())
	})

	s.Run("pulls reserve into the pool", func() {
		s.fundPool(usdc.FromDollars(1000))
		s.Equal(usdc.FromDollars(1000), s.ledger.PoolBalance())

		held, err := s.reserve.BalanceOf(s.ctx, ledgerAddr)
		s.NoError(err)
		s.Equal(usdc.FromDollars(1000), held)
	})
}

// =============================================================================
// Distribution Tests
// =============================================================================

func (s *LedgerSuite) TestDistribute() {
	s.whitelist(inv1, true)
	s.Require().NoError(s.ledger.Issue(s.ctx, issuerAddr, s.regA, inv1, 100_000*usdc.Unit))
	s.pushReport(periodQ1, usdc.FromDollars(50_000))

	s.Run("requires operator role", func() {
		err := s.ledger.Distribute(s.ctx, inv1, periodQ1)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects unattested period", func() {
		err := s.ledger.Distribute(s.ctx, operatorAddr, periodQ2)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("rejects when free pool cannot cover", func() {
		s.fundPool(usdc.FromDollars(10_000))
		err := s.ledger.Distribute(s.ctx, operatorAddr, periodQ1)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientPool))
	})

	s.Run("records rate against the supply snapshot", func() {
		s.fundPool(usdc.FromDollars(90_000))
		s.Require().NoError(s.ledger.Distribute(s.ctx, operatorAddr, periodQ1))

		dists := s.ledger.Distributions()
		s.Require().Len(dists, 1)
		s.Equal(periodQ1, dists[0].Period)
		s.Equal(usdc.FromDollars(50_000), dists[0].Amount)
		s.Equal(uint64(100_000*usdc.Unit), dists[0].Supply)
		s.Equal(periodQ1, s.ledger.CurrentPeriod())
		s.Equal(usdc.FromDollars(50_000), s.ledger.Outstanding())
	})

	s.Run("rejects a second distribution for the same period", func() {
		err := s.ledger.Distribute(s.ctx, operatorAddr, periodQ1)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyDistributed))
	})
}

func (s *LedgerSuite) TestDistributeNoSupply() {
	s.pushReport(periodQ1, usdc.FromDollars(1000))
	s.fundPool(usdc.FromDollars(1000))
	err := s.ledger.Distribute(s.ctx, operatorAddr, periodQ1)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

// =============================================================================
// Settlement Scenario
// =============================================================================
// Two distributions with a transfer in between. Entitlements follow the
// balance held at each distribution instant, not the balance at claim time.

func (s *LedgerSuite) TestYieldScenario() {
	s.whitelist(inv1, true)
	s.whitelist(inv2, false)
	s.whitelist(inv3, false)

	s.Require().NoError(s.ledger.Issue(s.ctx, issuerAddr, s.regD, inv1, 100_000*usdc.Unit))
	s.Require().NoError(s.ledger.Issue(s.ctx, issuerAddr, s.regA, inv2, 50_000*usdc.Unit))
	s.fundPool(usdc.FromDollars(120_000))

	s.Run("first distribution splits pro rata with floor rounding", func() {
		s.pushReport(periodQ1, usdc.FromDollars(50_000))
		s.Require().NoError(s.ledger.Distribute(s.ctx, operatorAddr, periodQ1))

		// 50,000 over 150,000 notes: a third per note, floored at the
		// rate scale.
		s.Equal(usdc.Amount(33_333_333_333), s.ledger.PendingYield(inv1))
		s.Equal(usdc.Amount(16_666_666_666), s.ledger.PendingYield(inv2))
		s.Equal(usdc.Amount(0), s.ledger.PendingYield(inv3))
	})

	s.Run("transfer settles both parties before moving balance", func() {
		err := s.ledger.Transfer(s.ctx, inv2, s.regA, inv2, inv3, 20_000*usdc.Unit)
		s.Require().NoError(err)

		// Pending is unchanged by the transfer itself.
		s.Equal(usdc.Amount(16_666_666_666), s.ledger.PendingYield(inv2))
		s.Equal(usdc.Amount(0), s.ledger.PendingYield(inv3))
	})

	s.Run("second distribution follows the new balances", func() {
		s.pushReport(periodQ2, usdc.FromDollars(60_000))
		s.Require().NoError(s.ledger.Distribute(s.ctx, operatorAddr, periodQ2))

		// 60,000 over 150,000 notes: 0.40 per note, exact.
		s.Equal(usdc.Amount(33_333_333_333+40_000*usdc.Unit), s.ledger.PendingYield(inv1))
		s.Equal(usdc.Amount(16_666_666_666+12_000*usdc.Unit), s.ledger.PendingYield(inv2))
		s.Equal(usdc.FromDollars(8_000), s.ledger.PendingYield(inv3))
	})

	s.Run("claims pay out and drain the pool", func() {
		paid, err := s.ledger.ClaimYield(s.ctx, inv1)
		s.NoError(err)
		s.Equal(usdc.Amount(73_333_333_333), paid)

		balance, err := s.reserve.BalanceOf(s.ctx, inv1)
		s.NoError(err)
		s.Equal(paid, balance)
		s.Equal(usdc.Amount(0), s.ledger.PendingYield(inv1))

		_, err = s.ledger.ClaimYield(s.ctx, inv2)
		s.NoError(err)
		_, err = s.ledger.ClaimYield(s.ctx, inv3)
		s.NoError(err)
	})

	s.Run("double claim finds nothing", func() {
		_, err := s.ledger.ClaimYield(s.ctx, inv1)
		s.True(dErrors.HasCode(err, dErrors.CodeNoYield))
	})

	s.Run("rounding dust stays accounted in the pool", func() {
		// One unit of the first distribution was unassignable by floor
		// division; it remains both in the pool and in outstanding.
		s.Equal(usdc.Amount(1), s.ledger.Outstanding())
		s.Equal(usdc.FromDollars(120_000)-usdc.Amount(109_999_999_999), s.ledger.PoolBalance())
	})
}

// =============================================================================
// Claim Edge Cases
// =============================================================================

func (s *LedgerSuite) TestClaimYield() {
	s.Run("unknown holder has no yield", func() {
		_, err := s.ledger.ClaimYield(s.ctx, inv3)
		s.True(dErrors.HasCode(err, dErrors.CodeNoYield))
	})

	s.Run("holder who joined after the distribution gets nothing", func() {
		s.whitelist(inv1, true)
		s.whitelist(inv2, false)
		s.Require().NoError(s.ledger.Issue(s.ctx, issuerAddr, s.regA, inv1, 1000*usdc.Unit))
		s.fundPool(usdc.FromDollars(500))
		s.pushReport(periodQ1, usdc.FromDollars(500))
		s.Require().NoError(s.ledger.Distribute(s.ctx, operatorAddr, periodQ1))

		s.Require().NoError(s.ledger.Issue(s.ctx, issuerAddr, s.regA, inv2, 1000*usdc.Unit))
		s.Equal(usdc.Amount(0), s.ledger.PendingYield(inv2))
		_, err := s.ledger.ClaimYield(s.ctx, inv2)
		s.True(dErrors.HasCode(err, dErrors.CodeNoYield))
	})
}
