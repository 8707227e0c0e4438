// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/app/system/normalize"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/dalemusser/taskboard/internal/domain/models"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeout overrides applied", zap.Int("count", n))
	}
	if appCfg.AdminEmail != "" {
		if err := ensureGlobalAdmin(ctx, deps, appCfg.AdminEmail, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureGlobalAdmin creates or promotes the configured admin account so
// a fresh deployment always has one global admin.
func ensureGlobalAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)
	email = normalize.Email(email)

	u, err := users.GetByEmail(ctx, email)
	if err == mongo.ErrNoDocuments {
		created, err := users.Create(ctx, models.User{
			Name:  "Admin",
			Email: email,
			Role:  models.RoleAdmin,
		})
		if err != nil {
			return err
		}
		logger.Info("created global admin",
			zap.String("user_id", created.ID.Hex()),
			zap.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}

	if u.Role == models.RoleAdmin {
		return nil
	}
	if err := users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
		return err
	}
	logger.Info("promoted user to global admin",
		zap.String("user_id", u.ID.Hex()),
		zap.String("email", email))
	return nil
}
