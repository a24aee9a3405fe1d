package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"ryegate/pkg/domain"
)

// Server captures the service binary's configuration. Every external system
// is optional; an empty URL selects the in-memory fallback so a bare binary
// still runs end to end.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string

	PostgresURL  string
	RedisURL     string
	KafkaBrokers []string

	// BootstrapAdmins receive the admin role at startup.
	BootstrapAdmins []domain.Address
	// LedgerAddress holds the pooled reserve currency.
	LedgerAddress domain.Address
	// MaxSupply caps issuance in base units. Zero means uncapped.
	MaxSupply uint64

	KYCCacheTTL time.Duration

	// RelayCaller is the address the relay pushes oracle reports as. It must
	// hold the oracle role.
	RelayCaller domain.Address
	// RevenueAPIURL enables the relay route when set.
	RevenueAPIURL   string
	RevenueAPIKey   string
	SlackWebhookURL string
}

// FromEnv builds a Server config from environment variables so main stays
// lean.
func FromEnv() Server {
	addr := os.Getenv("RYEGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("RYEGATE_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	ledgerAddr := domain.NewAddress(os.Getenv("RYEGATE_LEDGER_ADDRESS"))
	if ledgerAddr.IsZero() {
		ledgerAddr = "ryegate-ledger"
	}

	var admins []domain.Address
	for _, raw := range strings.Split(os.Getenv("RYEGATE_BOOTSTRAP_ADMINS"), ",") {
		if addr := domain.NewAddress(raw); !addr.IsZero() {
			admins = append(admins, addr)
		}
	}

	ttl := 5 * time.Minute
	if raw := os.Getenv("RYEGATE_KYC_CACHE_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			ttl = parsed
		}
	}

	var maxSupply uint64
	if raw := os.Getenv("RYEGATE_MAX_SUPPLY"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			maxSupply = parsed
		}
	}

	var brokers []string
	for _, b := range strings.Split(os.Getenv("RYEGATE_KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return Server{
		Addr:            addr,
		JWTSigningKey:   jwtSigningKey,
		JWTIssuer:       envOr("RYEGATE_JWT_ISSUER", "ryegate"),
		PostgresURL:     os.Getenv("RYEGATE_POSTGRES_URL"),
		RedisURL:        os.Getenv("RYEGATE_REDIS_URL"),
		KafkaBrokers:    brokers,
		BootstrapAdmins: admins,
		LedgerAddress:   ledgerAddr,
		MaxSupply:       maxSupply,
		KYCCacheTTL:     ttl,
		RelayCaller:     domain.NewAddress(envOr("RYEGATE_RELAY_CALLER", "ryegate-relay")),
		RevenueAPIURL:   os.Getenv("RYEGATE_REVENUE_API_URL"),
		RevenueAPIKey:   os.Getenv("RYEGATE_REVENUE_API_KEY"),
		SlackWebhookURL: os.Getenv("RYEGATE_SLACK_WEBHOOK_URL"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
