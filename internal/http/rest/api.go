package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwise1/moment_stack/config"
	deps "github.com/bwise1/moment_stack/internal/debs"
	"github.com/bwise1/moment_stack/internal/logger"
	"github.com/bwise1/moment_stack/internal/metrics"
	"github.com/bwise1/moment_stack/internal/model"
	"github.com/bwise1/moment_stack/internal/moments"
	"github.com/bwise1/moment_stack/util"
	"github.com/bwise1/moment_stack/util/values"
	"github.com/bwise1/moment_stack/util/websockets"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	defaultIdleTimeout    = time.Minute
	defaultReadTimeout    = 5 * time.Second
	defaultWriteTimeout   = 10 * time.Second
	defaultShutdownPeriod = 30 * time.Second
)

type Handler func(w http.ResponseWriter, r *http.Request) *ServerResponse

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h(w, r)
	respByte, err := json.Marshal(resp)
	if err != nil {
		writeErrorResponse(w, err, values.Error, "unable to marshal server response")
		return
	}
	writeJSONResponse(w, respByte, resp.StatusCode)
}

// UserStore is the account persistence used by auth and RequireLogin.
type UserStore interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Update(ctx context.Context, id uuid.UUID, req model.UpdateProfileRequest) (model.User, error)
}

type PhotoStore interface {
	UploadImage(ctx context.Context, file io.Reader, folder string) (string, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type API struct {
	Server    *http.Server
	Config    *config.Config
	Log       *zap.Logger
	DB        pinger
	Moments   *moments.Service
	Users     UserStore
	Photos    PhotoStore
	WebSocket *websockets.WebSocketManager
}

func New(cfg *config.Config, d *deps.Dependencies) *API {
	a := &API{
		Config:    cfg,
		Log:       d.Log,
		DB:        d.DB,
		Moments:   d.Moments,
		Users:     d.Users,
		WebSocket: d.WebSocket,
	}
	if d.Cloudinary != nil {
		a.Photos = d.Cloudinary
	}
	return a
}

func (api *API) Serve() error {
	api.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", api.Config.Port),
		IdleTimeout:  defaultIdleTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		Handler:      api.setUpServerHandler(),
	}
	return api.Server.ListenAndServe()
}

func (api *API) setUpServerHandler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	// logging wraps the raw writer so websocket upgrades can still hijack it
	mux.Use(api.RequestTracing)
	mux.Use(api.RequestLogger)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   api.Config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", values.HeaderRequestSource, values.HeaderRequestID},
		ExposedHeaders:   []string{values.HeaderRequestID},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	mux.Use(metrics.Middleware())

	mux.Method(http.MethodGet, "/", Handler(api.Health))
	mux.Handle("/metrics", promhttp.Handler())
	if api.WebSocket != nil {
		mux.Get("/ws", api.WebSocket.HandleConnections)
	}

	mux.Mount("/auth", api.AuthRoutes())
	mux.Mount("/moments", api.MomentRoutes())
	mux.Mount("/users", api.UserRoutes())

	return mux
}

func (api *API) Health(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	status, database := values.Success, "ok"
	if api.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := api.DB.Ping(ctx); err != nil {
			logger.FromContext(r.Context()).Warn("health check: database ping failed", zap.Error(err))
			status, database = values.Unavailable, "unavailable"
		}
	}

	return &ServerResponse{
		Message:    "Moments API is running",
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data: map[string]interface{}{
			"version":   api.Config.Version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"database":  database,
		},
	}
}

// Shutdown drains in-flight requests for up to defaultShutdownPeriod.
func (api *API) Shutdown() error {
	if api.Server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownPeriod)
	defer cancel()
	return api.Server.Shutdown(ctx)
}
