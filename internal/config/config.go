package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/gatekeeper.db"

	// Audit trail file sink. Empty disables the file sink.
	AuditLogPath string

	// Token service
	TokenSecret     string
	TokenTTLMinutes int

	// Optional YAML policy overrides for the floor services.
	PolicyFile string

	// Quota-usage retention
	QuotaRetentionDays   int // 0 = keep forever
	CompactIntervalHours int // how often the compactor runs (default 6)
}

func FromEnv() Config {
	addr := getenvDefault("GATEKEEPER_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("GATEKEEPER_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	dbPath := getenvDefault("GATEKEEPER_DB_PATH", "./data/gatekeeper.db")
	auditLog := getenvDefault("GATEKEEPER_AUDIT_LOG", "./data/audit.log")

	secret := getenvDefault("GATEKEEPER_TOKEN_SECRET", "dev-secret")
	ttl := getenvInt("GATEKEEPER_TOKEN_TTL_MINUTES", 5)

	policyFile := strings.TrimSpace(os.Getenv("GATEKEEPER_POLICY_FILE"))

	retentionDays := getenvInt("GATEKEEPER_QUOTA_RETENTION_DAYS", 30)
	compactInterval := getenvInt("GATEKEEPER_COMPACT_INTERVAL_HOURS", 6)

	return Config{
		HTTPAddr: addr,
		Env:      env,
		DBPath:   dbPath,

		AuditLogPath: auditLog,

		TokenSecret:     secret,
		TokenTTLMinutes: ttl,

		PolicyFile: policyFile,

		QuotaRetentionDays:   retentionDays,
		CompactIntervalHours: compactInterval,
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
