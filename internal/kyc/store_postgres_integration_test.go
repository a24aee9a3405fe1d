//go:build integration

package kyc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ryegate/internal/kyc"
	"ryegate/pkg/domain"
	"ryegate/pkg/platform/sentinel"
	"ryegate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redis    *containers.RedisContainer
	store    *kyc.PostgresStore
	cache    *kyc.RedisCache
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), kyc.Schema)
	s.redis = containers.NewRedisContainer(s.T())
	s.store = kyc.NewPostgresStore(s.postgres.Pool)
	s.cache = kyc.NewRedisCache(s.store, s.redis.Client, time.Minute, kyc.NewNopMetrics())
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "kyc_records"))
	s.Require().NoError(s.redis.FlushAll(ctx))
}

func record(addr domain.Address) kyc.Record {
	return kyc.Record{
		Address:     addr,
		Whitelisted: true,
		Accredited:  true,
		ExpiresAt:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		KYCHash:     "0xhash",
		UpdatedAt:   time.Now().UTC(),
	}
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	ctx := context.Background()

	s.Run("round trip", func() {
		saved := record("0xalice")
		s.Require().NoError(s.store.Save(ctx, saved))

		found, err := s.store.Find(ctx, "0xalice")
		s.Require().NoError(err)
		s.Equal(saved.Address, found.Address)
		s.True(found.Whitelisted)
		s.True(found.Accredited)
		s.True(saved.ExpiresAt.Equal(found.ExpiresAt))
		s.Equal("0xhash", found.KYCHash)
	})

	s.Run("upsert replaces", func() {
		saved := record("0xbob")
		s.Require().NoError(s.store.Save(ctx, saved))

		saved.Whitelisted = false
		saved.KYCHash = "0xrevoked"
		s.Require().NoError(s.store.Save(ctx, saved))

		found, err := s.store.Find(ctx, "0xbob")
		s.Require().NoError(err)
		s.False(found.Whitelisted)
		s.Equal("0xrevoked", found.KYCHash)
	})

	s.Run("zero expiry survives the null column", func() {
		saved := record("0xcarol")
		saved.ExpiresAt = time.Time{}
		s.Require().NoError(s.store.Save(ctx, saved))

		found, err := s.store.Find(ctx, "0xcarol")
		s.Require().NoError(err)
		s.True(found.ExpiresAt.IsZero())
	})

	s.Run("missing address", func() {
		_, err := s.store.Find(ctx, "0xnobody")
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})
}

func (s *PostgresStoreSuite) TestRedisCache() {
	ctx := context.Background()

	s.Run("read through populates the cache", func() {
		s.Require().NoError(s.store.Save(ctx, record("0xalice")))

		found, err := s.cache.Find(ctx, "0xalice")
		s.Require().NoError(err)
		s.True(found.Whitelisted)

		// A direct database change must be invisible until the entry ages out.
		_, err = s.postgres.Pool.Exec(ctx,
			`UPDATE kyc_records SET whitelisted = FALSE WHERE address = $1`, "0xalice")
		s.Require().NoError(err)

		cached, err := s.cache.Find(ctx, "0xalice")
		s.Require().NoError(err)
		s.True(cached.Whitelisted)
	})

	s.Run("save invalidates", func() {
		s.Require().NoError(s.store.Save(ctx, record("0xbob")))
		_, err := s.cache.Find(ctx, "0xbob")
		s.Require().NoError(err)

		revoked := record("0xbob")
		revoked.Whitelisted = false
		s.Require().NoError(s.cache.Save(ctx, revoked))

		found, err := s.cache.Find(ctx, "0xbob")
		s.Require().NoError(err)
		s.False(found.Whitelisted)
	})

	s.Run("miss falls through to postgres", func() {
		_, err := s.cache.Find(ctx, "0xnobody")
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})
}
