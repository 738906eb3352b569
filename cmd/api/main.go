package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"coop-server/cmd/api/wire"
	"coop-server/cmd/config"
	"coop-server/internal/coop/httpapi"
	"coop-server/internal/coop/usecases"
	"coop-server/internal/infra/async"
	"coop-server/internal/infra/httpserver"
	"coop-server/internal/infra/node"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

var (
	logLevelMapping = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
)

func main() {
	config := config.LoadConfig()

	level := logLevelMapping[config.General.LogLevel]
	baseHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true, Level: level, ReplaceAttr: slogReplaceAttr})
	handler := baseHandler.WithAttrs([]slog.Attr{slog.String("version", node.Version)})
	slog.SetDefault(slog.New(handler))
	slog.Info("🐔 coop server is initializing", slog.String("node_id", node.GetNodeInfo().ID))
	slog.Debug("config loaded",
		slog.String("bus_driver", config.Bus.Driver),
		slog.String("bus_device", config.Bus.Device),
		slog.Duration("poll_interval", config.Coop.PollInterval),
		slog.String("schedule_mode", config.Coop.ScheduleMode),
		slog.Bool("notify", config.Notify.Enabled),
		slog.String("mqtt_broker", config.MQTTClient.Broker))

	shutdownOtel := startOTel()

	internalBroker := async.NewLocalBroker()

	coopService, cleanupCoopService, err := wire.InitializeCoopService(internalBroker)
	if err != nil {
		slog.Error("failed to initialize coop service", slog.Any("error", err))
		panic(err)
	}

	eventsController := handleWireInjector(wire.InitializeCoopEventsWebSocketController(internalBroker)).(*httpapi.CoopEventsWebSocketController)
	httpServer := httpserver.NewServer(
		httpserver.Config{
			Addr:           config.HTTP.Addr,
			TLSCertFile:    config.HTTP.TLSCertFile,
			TLSKeyFile:     config.HTTP.TLSKeyFile,
			AllowedOrigins: config.HTTP.AllowedOrigins,
		},
		handleWireInjector(wire.InitializeCoopController(coopService)).(httpserver.Controller),
		eventsController,
	)

	appCtx, cancelFn := context.WithCancel(context.Background())
	go httpServer.Run()

	var wg sync.WaitGroup
	var workers []async.Worker

	workers = append(workers, usecases.NewPollWorker(time.NewTicker(config.Coop.PollInterval), coopService))

	if config.Coop.ScheduleEnabled {
		workers = append(workers, usecases.NewDoorScheduleWorker(time.NewTicker(config.Coop.ScheduleInterval), coopService))
	}

	if config.Notify.Enabled {
		workers = append(workers, handleWireInjector(wire.InitializeNotificationWorker(internalBroker)).(async.Worker))
	}

	if config.MQTTClient.Broker != "" {
		workers = append(workers, handleWireInjector(wire.InitializeStatusPublisherWorker(internalBroker, coopService)).(async.Worker))
	}

	for _, worker := range workers {
		wg.Add(1)
		go worker.Run(appCtx, wg.Done)
	}

	signalChannel := make(chan os.Signal, 2)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)

	<-signalChannel
	httpServer.Shutdown()
	eventsController.Shutdown()

	cancelFn()
	for _, worker := range workers {
		worker.Shutdown()
	}
	internalBroker.Stop()
	wg.Wait()

	cleanupCoopService()
	if err := shutdownOtel(); err != nil {
		slog.Error("shutting down otel", slog.Any("error", err))
	}
	slog.Info("good bye!!!")
	os.Exit(0)
}

func slogReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		source := a.Value.Any().(*slog.Source)
		source.File = filepath.Base(source.File)
		return slog.Any(a.Key, source)
	}
	return a
}

type ShutdownFunc func() error

const (
	_defautlEndpoint = "localhost:4317"
	_collectPeriod   = 30 * time.Second
	_collectTimeout  = 35 * time.Second
	_minimumInterval = time.Minute
)

var (
	// bus commands take milliseconds; boundaries are in seconds
	_histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 10}
)

func startOTel() ShutdownFunc {
	slog.Info("starting OTel providers")
	shutdown, err := otelStart(context.Background())
	if err != nil {
		panic(err)
	}

	return shutdown
}

func otelStart(ctx context.Context) (ShutdownFunc, error) {
	metricsShutdownFunc, err := startMetricsProvider(ctx)
	if err != nil {
		return nil, err
	}

	traceShutdownFunc, err := startTraceProvider(ctx)
	if err != nil {
		return nil, err
	}

	return func() error {
		if err := metricsShutdownFunc(); err != nil {
			return err
		}
		return traceShutdownFunc()
	}, nil
}

func startTraceProvider(ctx context.Context) (ShutdownFunc, error) {
	exp, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(otelEndpoint()),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(newResource()),
	)
	otel.SetTracerProvider(tp)

	return func() error {
		return tp.Shutdown(ctx)
	}, nil
}

func startMetricsProvider(ctx context.Context) (ShutdownFunc, error) {
	exp, err := otlpmetricgrpc.New(
		ctx,
		otlpmetricgrpc.WithEndpoint(otelEndpoint()),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	mp := newMeterProvider(exp)
	otel.SetMeterProvider(mp)

	err = runtime.Start(runtime.WithMinimumReadMemStatsInterval(_minimumInterval))
	if err != nil {
		return nil, err
	}

	return func() error {
		return mp.Shutdown(ctx)
	}, nil
}

func newResource() *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String("coop-server"),
		semconv.ServiceVersionKey.String(node.Version),
		semconv.ServiceInstanceIDKey.String(node.GetNodeInfo().ID),
	)
}

func otelEndpoint() string {
	if value, ok := os.LookupEnv("COOP_SERVER_OTELCOL_ENDPOINT"); ok {
		return value
	}
	return _defautlEndpoint
}

func newMeterProvider(metricExporter metric.Exporter) *metric.MeterProvider {
	return metric.NewMeterProvider(
		metric.WithReader(
			metric.NewPeriodicReader(
				metricExporter,
				metric.WithTimeout(_collectTimeout),
				metric.WithInterval(_collectPeriod))),
		metric.WithResource(newResource()),
		metric.WithView(metric.NewView(
			metric.Instrument{
				Name: "*",
				Kind: metric.InstrumentKindHistogram,
			},
			metric.Stream{
				Aggregation: metric.AggregationExplicitBucketHistogram{
					Boundaries: _histogramBuckets,
				},
			},
		)),
	)
}

func handleWireInjector(value any, err error) any {
	if err != nil {
		panic(err)
	}

	return value
}
