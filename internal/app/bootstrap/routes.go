// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/taskboard/internal/app/events"
	authapifeature "github.com/dalemusser/taskboard/internal/app/features/authapi"
	commentsfeature "github.com/dalemusser/taskboard/internal/app/features/comments"
	healthfeature "github.com/dalemusser/taskboard/internal/app/features/health"
	projectsfeature "github.com/dalemusser/taskboard/internal/app/features/projects"
	tasksfeature "github.com/dalemusser/taskboard/internal/app/features/tasks"
	teamsfeature "github.com/dalemusser/taskboard/internal/app/features/teams"
	usersfeature "github.com/dalemusser/taskboard/internal/app/features/users"
	"github.com/dalemusser/taskboard/internal/app/realtime"
	"github.com/dalemusser/taskboard/internal/app/services/authsvc"
	"github.com/dalemusser/taskboard/internal/app/services/commentsvc"
	"github.com/dalemusser/taskboard/internal/app/services/projectsvc"
	"github.com/dalemusser/taskboard/internal/app/services/tasksvc"
	"github.com/dalemusser/taskboard/internal/app/services/teamsvc"
	commentstore "github.com/dalemusser/taskboard/internal/app/store/comments"
	projectstore "github.com/dalemusser/taskboard/internal/app/store/projects"
	sessionstore "github.com/dalemusser/taskboard/internal/app/store/session"
	taskstore "github.com/dalemusser/taskboard/internal/app/store/tasks"
	teamstore "github.com/dalemusser/taskboard/internal/app/store/teams"
	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/token"
)

// BuildHandler constructs the root HTTP handler (router) for this
// WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed. The wiring order is stores,
// then services, then the event dispatcher, then feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Stores
	users := userstore.New(db)
	teams := teamstore.New(db)
	projects := projectstore.New(db)
	tasks := taskstore.New(db)
	comments := commentstore.New(db)
	sessions := sessionstore.New(deps.Redis)

	// Tokens and request authentication. The blacklist check fails
	// closed, so a Redis outage rejects requests rather than admitting
	// revoked tokens.
	tokens := token.NewManager(appCfg.JWTSecret, appCfg.AccessTTL, appCfg.RefreshTTL)
	verifier := auth.NewVerifier(tokens, sessions, logger)

	// Event fan-out: durable publish to RabbitMQ plus live emit to
	// websocket rooms.
	rabbit, err := events.NewRabbit(deps.RabbitConn, logger)
	if err != nil {
		logger.Error("rabbitmq publisher init failed", zap.Error(err))
		return nil, err
	}
	hub := realtime.NewHub(logger)
	dispatcher := events.NewDispatcher(rabbit, hub, logger)

	// Services
	authSvc := authsvc.New(users, sessions, tokens, logger)
	teamSvc := teamsvc.New(teams, users, logger)
	projectSvc := projectsvc.New(projects, tasks, comments, teams, users, logger)
	taskSvc := tasksvc.New(tasks, projects, teams, users, logger)
	commentSvc := commentsvc.New(comments, tasks, teams, logger)

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	authHandler := authapifeature.NewHandler(authSvc, dispatcher, logger)
	r.Mount("/auth", authapifeature.Routes(authHandler, verifier))

	// Profile
	usersHandler := usersfeature.NewHandler(users, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, verifier))

	// Teams and membership lifecycle
	teamsHandler := teamsfeature.NewHandler(teamSvc, dispatcher, logger)
	r.Mount("/teams", teamsfeature.Routes(teamsHandler, verifier))

	// Projects
	projectsHandler := projectsfeature.NewHandler(projectSvc, logger)
	r.Mount("/projects", projectsfeature.Routes(projectsHandler, verifier))

	// Tasks, with task-scoped comment endpoints
	commentsHandler := commentsfeature.NewHandler(commentSvc, dispatcher, logger)
	tasksHandler := tasksfeature.NewHandler(taskSvc, dispatcher, logger)
	r.Mount("/tasks", tasksfeature.Routes(tasksHandler, commentsHandler, verifier))
	r.Mount("/comments", commentsfeature.Routes(commentsHandler, verifier))

	// Live channel websocket handshake
	r.Get("/realtime", realtime.Handler(hub, verifier, logger))

	return r, nil
}
