package appointment

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"AppointmentReminder/internal/config"
)

// NewRepository opens the backend named by cfg.Driver and registers its
// shutdown with the fx lifecycle.
func NewRepository(lc fx.Lifecycle, cfg config.StoreConfig, log *zap.Logger) (Repository, error) {
	ctx := context.Background()
	log = log.Named("store").With(zap.String("driver", cfg.Driver))

	switch cfg.Driver {
	case config.DriverMongo:
		client, db, err := config.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.StopHook(func(ctx context.Context) error {
			log.Info("closing mongodb connection")
			return client.Disconnect(ctx)
		}))
		repo, err := NewMongoRepository(ctx, db)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))
		return repo, nil

	case config.DriverPostgres:
		pool, err := config.ConnectPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.StopHook(func() {
			log.Info("closing postgres pool")
			pool.Close()
		}))
		repo, err := NewPostgresRepository(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("connected to postgres")
		return repo, nil

	case config.DriverBolt:
		db, err := config.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.StopHook(func() error {
			log.Info("closing bolt file")
			return db.Close()
		}))
		repo, err := NewBoltRepository(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("opened bolt store", zap.String("path", cfg.BoltPath))
		return repo, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
