package relay

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ryegate/internal/oracle"
	"ryegate/internal/rbac"
	"ryegate/pkg/domain"
	dErrors "ryegate/pkg/domain-errors"
	"ryegate/pkg/usdc"
)

// =============================================================================
// Relay Test Suite
// =============================================================================

const (
	relayAdmin  = domain.Address("0xadmin")
	relayOracle = domain.Address("0xoracle")
)

type RelaySuite struct {
	suite.Suite
	ctx    context.Context
	oracle *oracle.Service
	slack  *httptest.Server
	posts  []string
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.ctx = context.Background()
	roles, err := rbac.NewService(s.ctx, rbac.NewInMemoryStore(), relayAdmin)
	s.Require().NoError(err)
	s.Require().NoError(roles.Grant(s.ctx, relayAdmin, rbac.RoleOracle, relayOracle))
	s.oracle = oracle.NewService(oracle.NewInMemoryStore(), roles)

	s.posts = nil
	s.slack = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.posts = append(s.posts, body.Text)
		w.WriteHeader(http.StatusOK)
	}))
}

func (s *RelaySuite) TearDownTest() {
	s.slack.Close()
}

func (s *RelaySuite) newRelay(apiURL string) *Relay {
	return New(Config{
		Oracle:          s.oracle,
		Caller:          relayOracle,
		APIURL:          apiURL,
		APIKey:          "test-api-key",
		SlackWebhookURL: s.slack.URL,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Backoff:         []time.Duration{0, 0, 0},
	})
}

func validPayload() Payload {
	return Payload{
		GrossRevenue:     150_000,
		OperatingCosts:   60_000,
		AdjustedEBITDA:   90_000,
		DistributeAmount: 50_000,
		PeriodStart:      "2026-01-01",
		PeriodEnd:        "2026-03-31",
		EvidenceURI:      "ipfs://QmEvidence",
	}
}

// =============================================================================
// Payload Conversion
// =============================================================================

func (s *RelaySuite) TestPushPayload() {
	s.Run("converts dollars and dates and derives the period", func() {
		report, err := s.newRelay("").PushPayload(s.ctx, validPayload())
		s.Require().NoError(err)

		s.Equal(domain.NewPeriod(2026, 1), report.Period)
		s.Equal(usdc.FromDollars(150_000), report.GrossRevenue)
		s.Equal(usdc.FromDollars(90_000), report.AdjustedEBITDA)
		s.Equal(usdc.FromDollars(50_000), report.DistributeAmount)
		s.Equal("2026-01-01", usdc.FormatUnix(report.PeriodStart))
		s.Equal(relayOracle, report.ReportedBy)

		s.Require().Len(s.posts, 1)
		s.Contains(s.posts[0], "✅ Revenue reported")
		s.Contains(s.posts[0], "Q1 2026")
	})

	s.Run("rejects missing fields before touching the oracle", func() {
		payload := validPayload()
		payload.GrossRevenue = 0
		_, err := s.newRelay("").PushPayload(s.ctx, payload)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects malformed dates", func() {
		payload := validPayload()
		payload.PeriodStart = "January 1st"
		_, err := s.newRelay("").PushPayload(s.ctx, payload)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("duplicate period fails after retries with failure notification", func() {
		// Q2 dates: the suite state is shared across subtests and Q1 is
		// already reported above.
		payload := validPayload()
		payload.PeriodStart = "2026-04-01"
		payload.PeriodEnd = "2026-06-30"
		_, err := s.newRelay("").PushPayload(s.ctx, payload)
		s.Require().NoError(err)
		s.posts = nil

		_, err = s.newRelay("").PushPayload(s.ctx, payload)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicatePeriod))
		s.Require().Len(s.posts, 1)
		s.Contains(s.posts[0], "🚨 Oracle push failed")
	})
}

// =============================================================================
// API Fetch
// =============================================================================

func (s *RelaySuite) TestPushFromAPI() {
	s.Run("fetches with the api key header", func() {
		var gotKey atomic.Value
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey.Store(r.Header.Get("X-API-Key"))
			_ = json.NewEncoder(w).Encode(validPayload())
		}))
		defer api.Close()

		report, err := s.newRelay(api.URL).PushFromAPI(s.ctx)
		s.Require().NoError(err)
		s.Equal(domain.NewPeriod(2026, 1), report.Period)
		s.Equal("test-api-key", gotKey.Load())
	})

	s.Run("upstream failure notifies and returns the error", func() {
		s.posts = nil // drop the success notification from the subtest above

		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer api.Close()

		_, err := s.newRelay(api.URL).PushFromAPI(s.ctx)
		s.Error(err)
		s.Require().Len(s.posts, 1)
		s.Contains(s.posts[0], "🚨 Oracle push failed")
	})

	s.Run("unconfigured api url is rejected", func() {
		_, err := s.newRelay("").PushFromAPI(s.ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
