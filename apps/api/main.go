package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	authhandler "github.com/opsfloor/helpdesk/domains/auth/be/handler"
	authrepo "github.com/opsfloor/helpdesk/domains/auth/be/repo"
	authservice "github.com/opsfloor/helpdesk/domains/auth/be/service"
	tenantsrepo "github.com/opsfloor/helpdesk/domains/tenants/be/repo"
	tenantsservice "github.com/opsfloor/helpdesk/domains/tenants/be/service"
	tickethandler "github.com/opsfloor/helpdesk/domains/tickets/be/handler"
	ticketsrepo "github.com/opsfloor/helpdesk/domains/tickets/be/repo"
	ticketsservice "github.com/opsfloor/helpdesk/domains/tickets/be/service"
	usersrepo "github.com/opsfloor/helpdesk/domains/users/be/repo"
	usersservice "github.com/opsfloor/helpdesk/domains/users/be/service"
	platformlogging "github.com/opsfloor/helpdesk/platform/go/logging"
	platformmiddleware "github.com/opsfloor/helpdesk/platform/go/middleware"
	"github.com/opsfloor/helpdesk/platform/go/persistence"
	"github.com/opsfloor/helpdesk/platform/go/requestscope"
)

type config struct {
	Port              string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL       string        `env:"DATABASE_URL,required"`
	RootDomain        string        `env:"ROOT_DOMAIN,required"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"helpdesk_session"`
	CookieSecure      bool          `env:"COOKIE_SECURE" envDefault:"false"`
	ContractPath      string        `env:"CONTRACT_PATH" envDefault:"contracts/helpdesk.yaml"`
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	if err := persistence.Bootstrap(ctx, pool); err != nil {
		logger.Fatal("apply database schema", zap.Error(err))
	}

	tenantStore, err := persistence.NewTenantStore(pool)
	if err != nil {
		logger.Fatal("init tenant store", zap.Error(err))
	}
	userStore, err := persistence.NewUserStore(pool)
	if err != nil {
		logger.Fatal("init user store", zap.Error(err))
	}
	sessionStore, err := persistence.NewSessionStore(pool)
	if err != nil {
		logger.Fatal("init session store", zap.Error(err))
	}
	ticketStore, err := persistence.NewTicketStore(pool)
	if err != nil {
		logger.Fatal("init ticket store", zap.Error(err))
	}

	tenantService := tenantsservice.New(tenantsrepo.NewPostgresRepository(tenantStore))
	userService := usersservice.New(usersrepo.NewPostgresRepository(userStore))
	authService := authservice.New(userService, authrepo.NewPostgresRepository(sessionStore))
	ticketService := ticketsservice.New(ticketsrepo.NewPostgresRepository(ticketStore))

	authHTTPHandler := authhandler.New(authService, userService, authhandler.CookieConfig{
		Name:   cfg.SessionCookieName,
		Secure: cfg.CookieSecure,
	}, logger)
	ticketHTTPHandler := tickethandler.New(ticketService, logger)

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)

	rootRouter.Use(platformlogging.RequestLogger(logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	apiRouter := chi.NewRouter()
	apiRouter.Use(platformmiddleware.WithTenant(&tenantDirectory{tenants: tenantService}, cfg.RootDomain))
	apiRouter.Use(mustNewSpecValidator(logger, cfg.ContractPath))

	// Login, logout and signup only need the tenant.
	apiRouter.Group(func(r chi.Router) {
		authHTTPHandler.Register(r)
	})

	// Everything touching ticket data requires a session under this tenant.
	apiRouter.Group(func(r chi.Router) {
		r.Use(platformmiddleware.RequireSession(&sessionGateway{auth: authService}, cfg.SessionCookieName))
		ticketHTTPHandler.Register(r)
	})

	rootRouter.Mount("/", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server",
			zap.String("port", cfg.Port),
			zap.String("root_domain", cfg.RootDomain),
		)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// tenantDirectory adapts the tenant service to the tenant middleware.
type tenantDirectory struct {
	tenants *tenantsservice.Service
}

func (d *tenantDirectory) ResolveTenant(ctx context.Context, subdomain string) (uuid.UUID, error) {
	resolved, err := d.tenants.ResolveSubdomain(ctx, subdomain)
	if err != nil {
		if errors.Is(err, tenantsservice.ErrNotFound) {
			return uuid.Nil, platformmiddleware.ErrTenantNotFound
		}
		return uuid.Nil, err
	}
	return resolved.ID, nil
}

// sessionGateway adapts the auth service to the session middleware.
type sessionGateway struct {
	auth *authservice.Service
}

func (g *sessionGateway) ResolveSession(ctx context.Context, access requestscope.Access, token string) (uuid.UUID, error) {
	user, err := g.auth.Authenticate(ctx, access, token)
	if err != nil {
		if errors.Is(err, authservice.ErrSessionInvalid) {
			return uuid.Nil, platformmiddleware.ErrSessionInvalid
		}
		return uuid.Nil, err
	}
	return user.ID, nil
}

var (
	_ platformmiddleware.TenantResolver  = (*tenantDirectory)(nil)
	_ platformmiddleware.SessionResolver = (*sessionGateway)(nil)
)
