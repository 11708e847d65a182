package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/camt-dii/gatekeeper/internal/config"
	"github.com/camt-dii/gatekeeper/internal/db"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/access"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/audit"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/card"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/service"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/store/logfile"
	storesqlite "github.com/camt-dii/gatekeeper/internal/gatekeeper/store/sqlite"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/token"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/zone"
	"github.com/camt-dii/gatekeeper/internal/httpapi"
)

func main() {
	cfg := config.FromEnv()

	// Flags override the environment.
	addr := pflag.String("addr", cfg.HTTPAddr, "HTTP listen address")
	dbPath := pflag.String("db", cfg.DBPath, "SQLite database path")
	policyPath := pflag.String("policy", cfg.PolicyFile, "YAML policy override file")
	env := pflag.String("env", cfg.Env, "environment: dev or prod")
	pflag.Parse()
	cfg.HTTPAddr = *addr
	cfg.DBPath = *dbPath
	cfg.PolicyFile = *policyPath
	cfg.Env = *env

	logger := log.New(os.Stdout, "gatekeeperd ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath})
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		logger.Fatalf("migrate db: %v", err)
	}

	writer := db.NewWorker(conn)
	defer writer.Close()

	// Audit trail: in-memory log with durable copies in SQLite and the
	// plain-text audit log file.
	sinks := []audit.Sink{storesqlite.NewAuditSink(conn, writer)}
	var fileSink *logfile.Sink
	if cfg.AuditLogPath != "" {
		fileSink, err = logfile.New(cfg.AuditLogPath)
		if err != nil {
			logger.Fatalf("open audit log: %v", err)
		}
		sinks = append(sinks, fileSink)
	}
	trail := audit.NewTrail(logger, sinks...)

	auditLog := audit.NewContextDecorator(trail, map[string]string{"env": cfg.Env})

	// Floor policies: defaults, then optional YAML overrides.
	usage := access.NewUsageLog()
	floors := access.NewFloorService(auditLog,
		access.LowPolicy{},
		access.NewMediumPolicy(),
		access.NewHighPolicy(usage),
	)
	if cfg.PolicyFile != "" {
		pf, err := config.LoadPolicyFile(cfg.PolicyFile)
		if err != nil {
			logger.Fatalf("load policy file: %v", err)
		}
		if err := pf.Apply(floors, usage); err != nil {
			logger.Fatalf("apply policy file: %v", err)
		}
		logger.Printf("policy overrides loaded from %s", cfg.PolicyFile)
	}

	compactor := access.NewUsageCompactor(usage, access.CompactorConfig{
		RetentionDays: cfg.QuotaRetentionDays,
		IntervalHours: cfg.CompactIntervalHours,
	}, logger)
	compactor.Start(ctx)

	cards := storesqlite.NewCardStore(conn, writer)
	tokens := token.NewService(cfg.TokenSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)

	manager := service.NewCardManager(cards, auditLog)
	guard := service.NewGuard(cards, tokens, floors, auditLog)

	if cfg.Env == "dev" {
		seedDev(ctx, logger, manager)
	}

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger: logger,
		Addr:   cfg.HTTPAddr,
		Guard:  guard,
		Cards:  manager,
		Tokens: tokens,
		Audit:  auditLog,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	compactor.Stop()
	trail.Close()
	if fileSink != nil {
		_ = fileSink.Close()
	}
}

// seedDev creates a development admin card so a fresh dev instance has a
// working credential. The facade id is logged; the real id never is.
func seedDev(ctx context.Context, logger *log.Logger, manager *service.CardManager) {
	spec := card.PermissionSpec{
		Floors: []string{zone.Low.String(), zone.Medium.String(), zone.High.String()},
		Rooms:  []string{"101", "102", "201"},
	}
	ident := card.Identifier{
		SerialNumber: "0001",
		IssuerID:     "DEVSEED",
		IssueDate:    time.Now().UTC(),
	}

	c, err := manager.Create(ctx, ident, spec, false)
	if err != nil {
		// Re-running against an existing dev DB hits the primary key; that
		// just means the seed card already exists.
		logger.Printf("dev seed skipped: %v", err)
		return
	}
	logger.Printf("dev admin card seeded, facade=%s", c.PrimaryFacadeID())
}
