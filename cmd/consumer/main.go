package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azeventhubs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/V4T54L/hubformat/internal/adapter/api"
	"github.com/V4T54L/hubformat/internal/adapter/eventhub"
	"github.com/V4T54L/hubformat/internal/adapter/metrics"
	"github.com/V4T54L/hubformat/internal/adapter/sink"
	"github.com/V4T54L/hubformat/internal/logformat"
	"github.com/V4T54L/hubformat/internal/pkg/config"
	"github.com/V4T54L/hubformat/internal/pkg/logger"
	"github.com/V4T54L/hubformat/internal/usecase"
)

const errorPause = 1 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.ValidateConsumer(); err != nil {
		log.Fatalf("invalid consumer configuration: %v", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting consumer worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewConvertMetrics(reg)

	adminServer := &http.Server{
		Addr:    cfg.MetricsServerAddr,
		Handler: api.NewAdminRouter(reg, log),
	}
	go func() {
		log.Info("starting admin & metrics server", zap.String("addr", adminServer.Addr))
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("admin & metrics server failed", zap.Error(err))
		}
	}()

	// Connect to the event hub
	client, err := azeventhubs.NewConsumerClientFromConnectionString(
		cfg.EventHubConnectionString, cfg.EventHubName, cfg.EventHubConsumerGroup, nil)
	if err != nil {
		log.Fatal("failed to create event hub consumer client", zap.Error(err))
	}
	defer client.Close(context.Background())

	hubProps, err := client.GetEventHubProperties(ctx, nil)
	if err != nil {
		log.Fatal("failed to read event hub properties", zap.Error(err))
	}

	namespace := cfg.EventHubNamespace
	if namespace == "" {
		namespace = eventhub.NamespaceFromConnectionString(cfg.EventHubConnectionString)
	}
	log.Info("connected to event hub",
		zap.String("namespace", namespace),
		zap.String("eventhub", hubProps.Name),
		zap.Strings("partitions", hubProps.PartitionIDs))

	newMapper := logformat.NewContainerMapperFactory(cfg.HostnameAnnotation, cfg.AppNameAnnotation, cfg.FallbackHostname)
	converter := usecase.NewConvertEventUseCase(newMapper, m, log.With(zap.String("component", "convert")))
	recordSink := sink.NewWriterSink(os.Stdout, m, log)

	var wg sync.WaitGroup
	for _, id := range hubProps.PartitionIDs {
		partitionClient, err := client.NewPartitionClient(id, &azeventhubs.PartitionClientOptions{
			StartPosition: azeventhubs.StartPosition{Latest: to.Ptr(true)},
		})
		if err != nil {
			log.Error("failed to create partition client", zap.String("partition_id", id), zap.Error(err))
			continue
		}

		source := eventhub.NewPartitionSource(partitionClient, eventhub.PartitionContext{
			FullyQualifiedNamespace: namespace,
			EventHubName:            hubProps.Name,
			PartitionID:             id,
			ConsumerGroup:           cfg.EventHubConsumerGroup,
		}, cfg.ReceiveWait, log)

		processEvents := usecase.NewProcessEventsUseCase(
			source, recordSink, converter, m, log.With(zap.String("partition_id", id)),
			cfg.ReceiveBatchSize, cfg.SinkRetryCount, cfg.SinkRetryBackoff)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer partitionClient.Close(context.Background())
			runPartition(ctx, processEvents, log.With(zap.String("partition_id", id)))
		}()
	}

	log.Info("consumer worker started, processing events...", zap.String("group", cfg.EventHubConsumerGroup))
	wg.Wait()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Error("admin server shutdown failed", zap.Error(err))
	}

	log.Info("consumer worker shut down gracefully")
}

func runPartition(ctx context.Context, uc *usecase.ProcessEventsUseCase, log *zap.Logger) {
	for {
		processed, err := uc.ProcessBatch(ctx)
		if ctx.Err() != nil {
			log.Info("context cancelled, shutting down partition loop")
			return
		}
		if err != nil {
			log.Error("error processing batch", zap.Error(err))
			select {
			case <-time.After(errorPause):
			case <-ctx.Done():
				return
			}
			continue
		}
		if processed > 0 {
			log.Debug("processed batch", zap.Int("count", processed))
		}
	}
}
