package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	models "BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	"BrentCast/internal/handler/ws"
	"BrentCast/internal/usecase"
	"BrentCast/pkg/config"
	xhttp "BrentCast/pkg/http"
	applogger "BrentCast/pkg/logger"
	"BrentCast/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	httpServer *xhttp.Server
	store      domrepo.ModelStore
	train      *usecase.TrainDispatcher
	queue      *queue.RedisQueue
	hub        *ws.Hub
	l          *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, srv *xhttp.Server, store domrepo.ModelStore, train *usecase.TrainDispatcher, l *applogger.Logger) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, httpServer: srv, store: store, train: train, l: l}
}

// WithQueue runs training requests through q.
func (a *App) WithQueue(q *queue.RedisQueue) { a.queue = q }

// WithHub closes the progress hub on shutdown.
func (a *App) WithHub(h *ws.Hub) { a.hub = h }

// Run starts the application and blocks until interrupted or the server fails.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			return err
		}
	}

	errCh := a.httpServer.Start()

	if a.cfg.Model.TrainOnStartup {
		a.trainIfMissing(ctx)
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			a.l.Error("http server start error", applogger.Error(err))
			runErr = err
		}
	}
	a.shutdown()
	return runErr
}

// trainIfMissing starts a first training cycle when the store is empty.
func (a *App) trainIfMissing(ctx context.Context) {
	_, err := a.store.Manifest(ctx)
	var nt *models.ModelNotTrainedError
	if err == nil {
		return
	}
	if !errors.As(err, &nt) {
		a.l.Warn("model manifest unreadable, skipping startup training", applogger.Error(err))
		return
	}

	if a.train.Queued() {
		id, err := a.train.Enqueue(ctx, false)
		if err != nil {
			a.l.Warn("startup training not queued", applogger.Error(err))
			return
		}
		a.l.Info("startup training queued", applogger.String("job_id", id))
		return
	}
	go func() {
		rep, err := a.train.Train(ctx, false)
		if err != nil {
			a.l.Error("startup training failed", applogger.Error(err))
			return
		}
		a.l.Info("startup training done", applogger.String("model_id", rep.Manifest.ModelID))
	}()
}

// shutdown gracefully stops all services. Infrastructure clients are closed by the
// injector cleanup.
func (a *App) shutdown() {
	a.l.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.l.Warn("queue stop error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
}
