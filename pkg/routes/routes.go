package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"AppointmentReminder/internal/appointment"
	"AppointmentReminder/internal/bootstrap"
	"AppointmentReminder/internal/config"
	"AppointmentReminder/internal/notify"
	"AppointmentReminder/internal/timeparse"
	"AppointmentReminder/pkg/middleware"
)

var EchoModules = fx.Module("echo",
	fx.Provide(config.Load),
	fx.Provide(config.Provide),
	fx.Provide(bootstrap.NewLogger),
	fx.Provide(appointment.NewRepository),
	fx.Provide(fx.Annotate(notify.NewFromConfig, fx.As(new(appointment.Notifier)))),
	fx.Provide(fx.Annotate(timeparse.New, fx.As(new(timeparse.Resolver)))),
	fx.Provide(appointment.NewService),
	fx.Provide(appointment.NewScheduler),
	fx.Provide(appointment.NewHandler),
	fx.Provide(middleware.NewRateLimiterFromConfig),
	fx.Provide(NewEchoServer),
	fx.Invoke(bootstrap.SyncOnStop),
	fx.Invoke((*appointment.Scheduler).StartScheduler),
	fx.Invoke(RegisterRoutes))

// NewEchoServer builds the HTTP server and binds it to the app lifecycle.
func NewEchoServer(lc fx.Lifecycle, cfg config.ServerConfig, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	middleware.SetupMiddleware(e, cfg, log)

	addr := ":" + cfg.Port
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("server listening", zap.String("addr", addr))
			go func() {
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("failed to start the server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down the server")
			return e.Shutdown(ctx)
		},
	})
	return e
}

func RegisterRoutes(e *echo.Echo, h *appointment.Handler, rl *middleware.RateLimiter) {
	e.GET("/healthz", h.Health)
	e.POST("/schedule", h.Schedule, rl.Middleware())
	e.GET("/appointments", h.List)
	e.GET("/appointments.ics", h.Calendar)
	e.PUT("/appointments/:id", h.Update)
	e.DELETE("/appointments/:id", h.Cancel)
}
