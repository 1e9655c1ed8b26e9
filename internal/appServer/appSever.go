// launching the server, stores, event bus and render consumer
package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/renatodap/snapmod-sub000/config"
	"github.com/renatodap/snapmod-sub000/internal/pkg/events"
	"github.com/renatodap/snapmod-sub000/internal/pkg/processor"
	"github.com/renatodap/snapmod-sub000/internal/service"
	"github.com/renatodap/snapmod-sub000/internal/transport"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewHandler wires services and handlers on top of d.
func NewHandler(cfg *config.Config, d *Dependencies) http.Handler {
	renderProcessor := processor.NewRenderProcessor(d.Repos.Versions, d.Renderer, d.Publisher)

	imgHandler := transport.NewImageHandler(
		service.NewImageService(d.Repos.Versions, d.Renderer, renderProcessor, d.Publisher),
		cfg.Server.MaxUploadSize,
	)
	historyHandler := transport.NewHistoryHandler(service.NewHistoryService(d.Repos.History))
	presetHandler := transport.NewPresetHandler(service.NewPresetService(d.Repos.Presets))

	return transport.InitRoutes(imgHandler, historyHandler, presetHandler, cfg.Server.Timeout)
}

// RunRenderWorker renders tasks from consumer into the stores of d until ctx
// is cancelled.
func RunRenderWorker(ctx context.Context, d *Dependencies, consumer events.Consumer) error {
	return processor.Consume(ctx, consumer, processor.NewRenderProcessor(d.Repos.Versions, d.Renderer, d.Publisher))
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(new(logrus.JSONFormatter))

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := BuildDependencies(ctx, cfg)
	if err != nil {
		logrus.Fatalf("failed to initialize dependencies: %s", err.Error())
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logrus.Errorf("error occured on closing dependencies: %s", err.Error())
		}
	}()

	// Queued renders are consumed here and nowhere else: the stores belong
	// to this process.
	if deps.Publisher.State() == events.Connected {
		consumer, err := NewTaskConsumer(&cfg.Events)
		if err != nil {
			logrus.Fatalf("failed to subscribe to render tasks: %s", err.Error())
		}
		if consumer != nil {
			go func() {
				if err := RunRenderWorker(ctx, deps, consumer); err != nil {
					logrus.Errorf("render consumer stopped: %s", err.Error())
				}
			}()
		}
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, NewHandler(cfg, deps)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
