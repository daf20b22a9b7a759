package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"pos/internal/handler"
	"pos/internal/middleware"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type Handlers struct {
	Orders     *handler.OrderHandler
	Promotions *handler.PromotionHandler
	Inventory  *handler.InventoryHandler
}

func New(log *slog.Logger, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Metrics())

	RegisterRoutes(e, h)
	return e
}

// Start はctxがキャンセルされるまで待ち、その後graceful shutdownする。
func Start(ctx context.Context, e *echo.Echo, addr string, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down http server")
	return e.Shutdown(shutdownCtx)
}
