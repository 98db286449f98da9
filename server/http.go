package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"audiobook-worker/config"
	"audiobook-worker/constant"
	jobHandler "audiobook-worker/handler"
	"audiobook-worker/pkg/elevenlabs"
	"audiobook-worker/pkg/gemini"
	"audiobook-worker/pkg/objectstore"
	"audiobook-worker/pkg/rabbitmq"
	"audiobook-worker/pkg/roster"
	"audiobook-worker/repository"
	"audiobook-worker/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := repository.NewStore(cfg.Storage.Root)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to initialize artifact store")
	}

	analyzer := gemini.NewClient(cfg.Gemini)
	synth := elevenlabs.NewClient(cfg.ElevenLabs)

	var mirror *objectstore.Mirror
	if cfg.Mirror != nil {
		mirror = objectstore.NewMirror(cfg.Mirror, cfg.MinIOBucket)
	}

	pipelineService := service.NewPipelineService(store, analyzer)
	matchingService := service.NewMatchingService(store, analyzer, cfg.Storage.RosterPath, roster.Load)
	synthesisService := service.NewSynthesisService(store, synth, mirror, time.Duration(cfg.ElevenLabs.SegmentDelayMs)*time.Millisecond)

	serviceDeps := jobHandler.ServiceDependencies{
		Pipeline:  pipelineService,
		Matching:  matchingService,
		Synthesis: synthesisService,
	}

	api := &jobHandler.API{
		Store:      store,
		Pipeline:   pipelineService,
		Matching:   matchingService,
		Synthesis:  synthesisService,
		Voices:     synth,
		Generator:  analyzer,
		Analyzer:   analyzer,
		RosterPath: cfg.Storage.RosterPath,
		LoadRoster: roster.Load,
	}

	// Generation runs through the queue when RabbitMQ is reachable; otherwise
	// the HTTP handler falls back to an in-process run.
	if cfg.Queue.Host != "" {
		conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
		} else {
			api.Publisher = rabbitmq.NewPublisher(conn, cfg.Queue)
			generateConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, cfg.Server.Workers, jobHandler.GenerateHandler)
			go func() {
				if err := generateConsumer.Consume(ctx, serviceDeps); err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Msg("generate consumer error")
				}
			}()
		}
	}

	r := gin.Default()
	addHealth(r)
	api.Register(r)

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := handler.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
