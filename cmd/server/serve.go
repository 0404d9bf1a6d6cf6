package main // serve command: HTTP API wiring and lifecycle

import (
    "context"
    "errors"
    "log/slog"
    "net/http"
    "os/signal"
    "syscall"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/redis/go-redis/v9"
    "github.com/spf13/cobra"

    "github.com/iliyamo/salvambiente-api/internal/config"
    "github.com/iliyamo/salvambiente-api/internal/database"
    "github.com/iliyamo/salvambiente-api/internal/handler"
    "github.com/iliyamo/salvambiente-api/internal/mailer"
    "github.com/iliyamo/salvambiente-api/internal/middleware"
    "github.com/iliyamo/salvambiente-api/internal/oauth"
    "github.com/iliyamo/salvambiente-api/internal/queue"
    "github.com/iliyamo/salvambiente-api/internal/repository"
    "github.com/iliyamo/salvambiente-api/internal/resetcode"
    "github.com/iliyamo/salvambiente-api/internal/router"
    "github.com/iliyamo/salvambiente-api/internal/service"
    "github.com/iliyamo/salvambiente-api/internal/utils"
)

const shutdownTimeout = 10 * time.Second // in-flight requests get this long to finish

// newServeCommand runs the API.  The root command does the same when no
// subcommand is given.
func newServeCommand() *cobra.Command {
    return &cobra.Command{
        Use:   "serve",
        Short: "Run the HTTP API (default)",
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, _ []string) error {
            return runServe(cmd.Context())
        },
    }
}

// runServe builds every dependency, serves until SIGINT/SIGTERM, then
// drains.
func runServe(parent context.Context) error {
    if parent == nil { // cobra leaves Context nil when Execute is used
        parent = context.Background()
    }
    ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    cfg, err := config.Load()
    if err != nil { // reports every missing key at once
        return err
    }
    logger := newLogger(cfg.LogLevel)
    slog.SetDefault(logger) // libraries that log through slog.Default

    db, err := database.Open(ctx, cfg)
    if err != nil {
        return err
    }
    defer db.Close()

    // Redis is optional: without it the limiter is a pass-through and reset
    // codes stay in memory.
    rdb, err := config.NewRedisClient(ctx)
    if err != nil {
        logger.Warn("redis unavailable, rate limiting disabled", "error", err)
        rdb = nil
    } else {
        defer rdb.Close()
    }

    codes, err := newResetStore(cfg, rdb)
    if err != nil {
        return err
    }

    var events service.Publisher = service.NopPublisher{}
    if cfg.QueueEnabled {
        events = service.NewRabbitPublisher(cfg.RabbitURL, logger)
        go func() {
            if err := queue.StartActivityConsumer(ctx, cfg.RabbitURL, cfg.ActivityLogDir, logger); err != nil && !errors.Is(err, context.Canceled) {
                logger.Error("activity consumer stopped", "error", err)
            }
        }()
    }

    users := repository.NewUserRepo(db)           // shared by auth, profile, admin and reset
    tokens := utils.NewTokenIssuer(cfg.JWTSecret) // signs and verifies every JWT
    registry := resetcode.New(codes, mailer.NewSMTPMailer(cfg.SMTP), users, cfg.ResetCodeTTL, cfg.BcryptCost, logger)
    defer registry.Close() // torn down after the server drains

    google := oauth.NewGoogleProvider(cfg.Google)
    if !google.Configured() {
        logger.Warn("google sign-in disabled: GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set")
    }

    e := newEcho(cfg, logger)
    router.Register(e, router.Handlers{
        Auth:      handler.NewAuthHandler(cfg, users, tokens, logger),
        Google:    handler.NewGoogleHandler(cfg, google, users, tokens, logger),
        Reset:     handler.NewPasswordResetHandler(cfg, users, registry, logger),
        Footprint: handler.NewFootprintHandler(cfg, repository.NewFootprintRepo(db), events, logger),
        Profile:   handler.NewProfileHandler(cfg, users, logger),
        Game:      handler.NewGameHandler(cfg, repository.NewGameRepo(db), logger),
        Dashboard: handler.NewDashboardHandler(cfg, repository.NewDashboardRepo(db), logger),
        Admin:     handler.NewAdminHandler(cfg, users, logger),
        Support:   handler.NewSupportHandler(cfg, repository.NewSupportRepo(db), events, logger),
        News:      handler.NewNewsHandler(cfg.GNewsAPIKey, logger, cfg.Debug()),
    }, router.Guards{
        Verifier: tokens,
        Limit:    middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
    }, db)

    addr := ":" + cfg.Port
    errc := make(chan error, 1)
    go func() {
        logger.Info("listening", "addr", addr, "env", cfg.Env)
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            errc <- err
        }
        close(errc)
    }()

    select {
    case err := <-errc: // listener failed, or nil after a clean close
        return err
    case <-ctx.Done(): // signal received
    }
    logger.Info("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
    defer cancel()
    return e.Shutdown(shutdownCtx)
}

// newResetStore picks the reset-code store named by RESET_CODE_STORE.
func newResetStore(cfg config.Config, rdb *redis.Client) (resetcode.Store, error) {
    if cfg.ResetCodeStore != "redis" {
        return resetcode.NewMemoryStore(), nil
    }
    if rdb == nil {
        return nil, errors.New("RESET_CODE_STORE=redis but redis is unreachable")
    }
    return resetcode.NewRedisStore(rdb, ""), nil
}

// newEcho builds the Echo instance with the request id, access log,
// recover and CORS middlewares.
func newEcho(cfg config.Config, logger *slog.Logger) *echo.Echo {
    e := echo.New()
    e.HideBanner = true
    e.HidePort = true

    e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
    e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            level := slog.LevelInfo
            if v.Status >= http.StatusInternalServerError {
                level = slog.LevelError
            }
            attrs := []slog.Attr{
                slog.String("method", v.Method),
                slog.String("uri", v.URI),
                slog.Int("status", v.Status),
                slog.Duration("latency", v.Latency),
                slog.String("request_id", v.RequestID),
            }
            if v.Error != nil {
                attrs = append(attrs, slog.String("error", v.Error.Error()))
            }
            logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
            return nil
        },
    }))
    e.Use(echomw.Recover())

    origins := cfg.CORSOrigins
    if len(origins) == 0 {
        origins = []string{cfg.FrontendURL}
    }
    e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
        AllowOrigins:     origins,
        AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
        AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
        AllowCredentials: true,
    }))
    return e
}
