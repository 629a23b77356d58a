package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"confreg/internal/platform/config"
	"confreg/internal/platform/postgres"
	redisclient "confreg/internal/platform/redis"
	"confreg/internal/registration/service"
	"confreg/internal/registration/store/permanent"
	"confreg/internal/registration/store/provisional"
)

// provisionalBackend is what the service and the sweeper need from the
// provisional store.
type provisionalBackend interface {
	service.ProvisionalStore
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}

type backends struct {
	provisional provisionalBackend
	permanent   service.PermanentStore
	locker      service.Locker
	db          *sql.DB
	redis       *redisclient.Client
}

// health pings every external store in use.
func (b *backends) health(ctx context.Context) map[string]error {
	checks := map[string]error{}
	if b.db != nil {
		checks["postgres"] = b.db.PingContext(ctx)
	}
	if b.redis != nil {
		checks["redis"] = b.redis.Health(ctx)
	}
	return checks
}

func (b *backends) close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.db != nil {
		_ = b.db.Close()
	}
}

// openBackends picks the stores from configuration. Postgres holds both
// record kinds when selected; a configured Redis takes over provisional
// records and the registrant lock so several instances can share them.
func openBackends(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backends, error) {
	retention := cfg.Registration.ProvisionalRetention
	b := &backends{
		provisional: provisional.NewInMemoryStore(retention),
		permanent:   permanent.NewInMemoryStore(),
		locker:      service.NewShardedLocker(),
	}

	switch cfg.Database.Backend {
	case "memory", "":
		logger.WarnContext(ctx, "using in-memory stores; registrations are lost on restart")
	case "postgres":
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		b.db = db
		prov := provisional.NewPostgres(db, retention)
		perm := permanent.NewPostgres(db)
		if err := prov.Migrate(ctx); err != nil {
			b.close()
			return nil, err
		}
		if err := perm.Migrate(ctx); err != nil {
			b.close()
			return nil, err
		}
		b.provisional, b.permanent = prov, perm
		logger.InfoContext(ctx, "using postgres stores")
	default:
		return nil, fmt.Errorf("unknown DB_BACKEND %q", cfg.Database.Backend)
	}

	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		b.close()
		return nil, err
	}
	if rdb != nil {
		b.redis = rdb
		b.provisional = provisional.NewRedis(rdb.Client, retention)
		b.locker = service.NewRedisLocker(rdb.Client, cfg.Registration.LockTTL)
		logger.InfoContext(ctx, "using redis for provisional registrations and locking")
	}
	return b, nil
}
