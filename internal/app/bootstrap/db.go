// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/dalemusser/taskboard/internal/app/system/indexes"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
)

// ConnectDB opens the Mongo, Redis, and RabbitMQ connections the app
// needs. A failure on any backend aborts startup; there is no degraded
// mode without the event exchange or the session store.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	connectCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(appCfg.MongoURI))
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	rdb := redis.NewClient(&redis.Options{Addr: appCfg.RedisAddr, DB: appCfg.RedisDB})
	if err := rdb.Ping(connectCtx).Err(); err != nil {
		return DBDeps{}, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))

	conn, err := amqp.Dial(appCfg.RabbitURL)
	if err != nil {
		return DBDeps{}, fmt.Errorf("rabbitmq dial: %w", err)
	}
	logger.Info("connected to RabbitMQ")

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		Redis:         rdb,
		RabbitConn:    conn,
	}, nil
}

// EnsureSchema creates the Mongo indexes. Every ensure call is
// idempotent, so startup can run it unconditionally.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("index creation failed", zap.Error(err))
		return err
	}
	logger.Info("indexes ensured")
	return nil
}
