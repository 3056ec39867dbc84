package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	httpapi "github.com/GriffinCanCode/SpectraCore/internal/api/http"
	"github.com/GriffinCanCode/SpectraCore/internal/api/middleware"
	"github.com/GriffinCanCode/SpectraCore/internal/api/mqtt"
	"github.com/GriffinCanCode/SpectraCore/internal/api/ws"
	"github.com/GriffinCanCode/SpectraCore/internal/domain/command"
	"github.com/GriffinCanCode/SpectraCore/internal/domain/ring"
	"github.com/GriffinCanCode/SpectraCore/internal/domain/scheduler"
	"github.com/GriffinCanCode/SpectraCore/internal/domain/stage"
	"github.com/GriffinCanCode/SpectraCore/internal/infrastructure/config"
	"github.com/GriffinCanCode/SpectraCore/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SpectraCore/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SpectraCore/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/SpectraCore/internal/providers/digitizer"
	"github.com/GriffinCanCode/SpectraCore/internal/providers/inventory"
	"github.com/GriffinCanCode/SpectraCore/internal/providers/notify"
	"github.com/GriffinCanCode/SpectraCore/internal/providers/transform"
	"github.com/GriffinCanCode/SpectraCore/internal/providers/writer"
)

// Server owns the acquisition pipeline and its control plane.
type Server struct {
	cfg    *config.Config
	log    *zap.Logger
	router *gin.Engine
	http   *http.Server

	metrics   *monitoring.Metrics
	tracer    *tracing.Tracer
	pools     []httpapi.PoolView
	digitizer *digitizer.Synthetic
	stages    []*stage.Stage
	writer    *writer.Writer
	queue     *command.Queue
	scheduler *scheduler.Scheduler
	ingress   *mqtt.Ingress
	webhook   *notify.Webhook

	pollStop chan struct{}
	pollDone chan struct{}
}

// NewServer builds the full pipeline from configuration: ring pools,
// digitizer, spectrometer and writer stages, the scheduler, and the HTTP,
// WebSocket, and MQTT control surfaces.
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	logger.Info("initializing acquisition service",
		zap.String("port", cfg.Server.Port),
		zap.String("data_dir", cfg.Writer.RootDir),
		zap.String("mqtt_broker", cfg.MQTT.Broker),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("spectracore", logger)

	var alloc ring.Allocator = ring.Heap{}
	if cfg.Pools.Mapped {
		alloc = ring.Mapped{}
	}

	// One source buffer holds every segment folded into one spectrum.
	samplesPerBuffer := cfg.Transform.Averages * cfg.Transform.FFTSize
	source, err := ring.NewPool[uint16]("source", cfg.Pools.SourceBuffers, samplesPerBuffer, alloc)
	if err != nil {
		return nil, fmt.Errorf("create source pool: %w", err)
	}
	bins := cfg.Transform.FFTSize/2 + 1
	sink, err := ring.NewPool[float32]("sink", cfg.Pools.SinkBuffers, bins, alloc)
	if err != nil {
		return nil, fmt.Errorf("create sink pool: %w", err)
	}

	dig := digitizer.NewSynthetic(digitizer.Config{
		SampleRate:     cfg.Digitizer.SampleRate,
		ToneFrequency:  cfg.Digitizer.ToneFrequency,
		ToneAmplitude:  cfg.Digitizer.ToneAmplitude,
		NoiseAmplitude: cfg.Digitizer.NoiseAmplitude,
		Offset:         cfg.Digitizer.Offset,
		Pace:           cfg.Digitizer.Pace,
		Seed:           cfg.Digitizer.Seed,
	}, logger)
	dig.SetBufferPool(source)
	if err := dig.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize digitizer: %w", err)
	}

	wait := ring.Wait{
		Attempts: cfg.Handoff.ReserveAttempts,
		Delay:    cfg.Handoff.ReserveDelay,
	}

	spec, err := transform.New(transform.Config{
		FFTSize:            cfg.Transform.FFTSize,
		Averages:           cfg.Transform.Averages,
		SampleRate:         cfg.Digitizer.SampleRate,
		SwitchingFrequency: cfg.Transform.SwitchingFrequency,
		BlankingPeriod:     cfg.Transform.BlankingPeriod,
		SampleOffset:       cfg.Digitizer.Offset,
		Sideband:           cfg.Transform.Sideband[0],
		Polarization:       cfg.Transform.Polarization[0],
		Wait:               wait,
	}, source, sink, logger)
	if err != nil {
		return nil, fmt.Errorf("create spectrometer: %w", err)
	}

	wr, err := writer.New(writer.Config{
		RootDir:            cfg.Writer.RootDir,
		Compress:           cfg.Writer.Compress,
		SwitchingFrequency: cfg.Transform.SwitchingFrequency,
		BlankingPeriod:     cfg.Transform.BlankingPeriod,
		Wait:               wait,
	}, sink, logger)
	if err != nil {
		return nil, fmt.Errorf("create writer: %w", err)
	}

	// Source-most first; the scheduler starts them in reverse so every
	// consumer is live before its producer.
	stages := []*stage.Stage{
		stage.New(stage.Config{
			Name:    "spectrometer",
			Workers: cfg.Transform.Workers,
			Cores:   cfg.Transform.Cores,
		}, spec, logger).WithObserver(monitoring.StageObserver(metrics, "spectrometer")),
		stage.New(stage.Config{
			Name:    "writer",
			Workers: cfg.Writer.Workers,
			Cores:   cfg.Writer.Cores,
		}, wr, logger).WithObserver(monitoring.StageObserver(metrics, "writer")),
	}

	queue := command.NewQueue(cfg.Command.QueueDepth, logger)

	webhook := notify.NewWebhook(notify.Config{
		URL:     cfg.Webhook.URL,
		Timeout: cfg.Webhook.Timeout,
		Retries: cfg.Webhook.Retries,
	}, logger)

	// Hooks run on the scheduler goroutine, so the closure state needs no
	// locking.
	var wasRecording bool
	hooks := scheduler.Hooks{
		OnCommand: func(k command.Kind) {
			metrics.RecordCommand(k.String())
		},
		OnState: func(st scheduler.State) {
			metrics.SetSchedulerState(int(st), st.String())
			recording := st == scheduler.StateRecordingUntilOff ||
				st == scheduler.StateRecordingUntilTime
			if recording && !wasRecording {
				metrics.RecordRecording()
			}
			wasRecording = recording
		},
	}

	sched := scheduler.New(scheduler.Config{
		TickPeriod: cfg.Scheduler.TickPeriod,
		Grace:      cfg.Scheduler.Grace,
	}, scheduler.Deps{
		Log:      logger,
		Messages: queue,
		Source:   dig,
		Sink:     wr,
		Stages:   stages,
		Notifier: webhook,
		Hooks:    hooks,
	})

	ingress := mqtt.New(mqtt.Config{
		Broker:   cfg.MQTT.Broker,
		Topic:    cfg.MQTT.Topic,
		ClientID: cfg.MQTT.ClientID,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
	}, queue, logger)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	pools := []httpapi.PoolView{source, sink}
	handlers := httpapi.NewHandlers(httpapi.Deps{
		Log:       logger,
		Queue:     queue,
		Scheduler: sched,
		Pools:     pools,
		Stages:    stages,
		Writer:    wr,
		Inventory: inventory.New(cfg.Writer.RootDir, logger),
		Notifier:  webhook,
		Metrics:   metrics,
		Started:   time.Now(),
	})
	wsHandler := ws.NewHandler(func() interface{} { return handlers.Snapshot() }, queue, metrics, logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/status", handlers.Status)
	router.POST("/commands", handlers.SubmitCommand)
	router.GET("/recordings", handlers.ListRecordings)
	router.GET("/recordings/:name", handlers.GetRecording)
	router.GET("/stream", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("service initialized")

	srv := &Server{
		cfg:    cfg,
		log:    logger,
		router: router,
		http: &http.Server{
			Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		metrics:   metrics,
		tracer:    tracer,
		pools:     pools,
		digitizer: dig,
		stages:    stages,
		writer:    wr,
		queue:     queue,
		scheduler: sched,
		ingress:   ingress,
		webhook:   webhook,
		pollStop:  make(chan struct{}),
		pollDone:  make(chan struct{}),
	}
	go srv.poll()
	return srv, nil
}

// Run starts the pipeline workers, the ingress listeners, and the HTTP
// server. It blocks until Close stops the listener.
func (s *Server) Run() error {
	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	if err := s.ingress.Start(); err != nil {
		s.log.Warn("mqtt ingress unavailable", zap.Error(err))
	}

	s.log.Info("control plane listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close tears the service down: ingress feeds first, then the recording
// pipeline, then the delivery paths.
func (s *Server) Close() error {
	s.log.Info("shutting down")

	s.ingress.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.log.Warn("http shutdown incomplete", zap.Error(err))
	}

	s.scheduler.Shutdown()

	close(s.pollStop)
	<-s.pollDone

	s.webhook.Close()
	s.tracer.Close()
	s.log.Sync()
	return nil
}

// poll samples component counters into the metrics gauges so scrapes see
// fresh queue depths without every Stats call touching the hot path.
func (s *Server) poll() {
	defer close(s.pollDone)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.pollStop:
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *Server) sample() {
	for _, p := range s.pools {
		st := p.Stats()
		s.metrics.SetPoolCounters(st.Name, st.Published, st.Overwrites)
		for _, c := range st.Consumers {
			s.metrics.SetPoolDepth(st.Name, c.ID, c.Depth)
			s.metrics.SetConsumerCounters(st.Name, c.ID, c.Claimed, c.Skipped)
		}
	}
	wst := s.writer.Stats()
	s.metrics.SetWriterCounters(wst.Written, wst.Dropped, wst.Bytes)
}
