package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type logMessage struct {
	Level  string `json:"level"`
	TS     string `json:"ts"`
	Logger string `json:"logger"`
	Msg    string `json:"msg"`
}

type kubernetesMetadata struct {
	Image          string            `json:"image"`
	PodAnnotations map[string]string `json:"podAnnotations"`
	PodUID         string            `json:"podUid"`
}

type containerLog struct {
	TimeGenerated      string             `json:"TimeGenerated"`
	Computer           string             `json:"Computer"`
	ContainerID        string             `json:"ContainerId"`
	ContainerName      string             `json:"ContainerName"`
	PodName            string             `json:"PodName"`
	PodNamespace       string             `json:"PodNamespace"`
	LogMessage         logMessage         `json:"LogMessage"`
	LogSource          string             `json:"LogSource"`
	KubernetesMetadata kubernetesMetadata `json:"KubernetesMetadata"`
	Type               string             `json:"Type"`
	ResourceID         string             `json:"_ResourceId"`
}

type envelope struct {
	Body             containerLog      `json:"body"`
	PartitionContext map[string]string `json:"partition_context"`
	Properties       map[string]string `json:"properties"`
	SystemProperties map[string]any    `json:"system_properties"`
	EnqueuedTime     string            `json:"enqueued_time"`
	Offset           string            `json:"offset"`
}

func main() {
	targetURL := flag.String("url", "http://localhost:8080/convert", "Target URL for conversion")
	apiKey := flag.String("api-key", "", "API Key for authentication")
	hostnameAnnotation := flag.String("hostname-annotation", "hostname-annotation", "Pod annotation carrying the hostname")
	appNameAnnotation := flag.String("appname-annotation", "appname-annotation", "Pod annotation carrying the app name")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 1000, "Requests per second limit")
	flag.Parse()

	log.Printf("Starting load test on %s", *targetURL)
	log.Printf("Concurrency: %d, Duration: %s, RPS: %d", *concurrency, *duration, *rps)

	var wg sync.WaitGroup
	var sequence, successCount, errorCount atomic.Int64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), 100) // Allow bursts up to 100

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			client := &http.Client{
				Timeout: 5 * time.Second,
			}
			containerID := uuid.NewString()

			for {
				if err := limiter.Wait(ctx); err != nil {
					return
				}

				now := time.Now().UTC()
				seq := sequence.Add(1)
				payload, err := json.Marshal(envelope{
					Body: containerLog{
						TimeGenerated: now.Format(time.RFC3339Nano),
						Computer:      "load-tester",
						ContainerID:   containerID,
						ContainerName: "load-tester",
						PodName:       "load-tester-pod",
						PodNamespace:  "load-test",
						LogMessage: logMessage{
							Level:  "info",
							TS:     now.Format(time.RFC3339Nano),
							Logger: "load-tester",
							Msg:    "load test event",
						},
						LogSource: "stdout",
						KubernetesMetadata: kubernetesMetadata{
							Image: "load-tester:latest",
							PodAnnotations: map[string]string{
								*hostnameAnnotation: "load-tester-host",
								*appNameAnnotation:  "load-tester",
							},
							PodUID: containerID,
						},
						Type:       "ContainerLogV2",
						ResourceID: "/subscriptions/load-test/resourceGroups/rg/providers/Microsoft.ContainerService/managedClusters/load-test",
					},
					PartitionContext: map[string]string{
						"FullyQualifiedNamespace": "load-test.servicebus.windows.net",
						"EventHubName":            "load-test",
						"PartitionId":             "0",
						"ConsumerGroup":           "$Default",
					},
					Properties:       map[string]string{"worker": strconv.Itoa(workerID)},
					SystemProperties: map[string]any{"SequenceNumber": seq},
					EnqueuedTime:     now.Format(time.RFC3339Nano),
					Offset:           "0",
				})
				if err != nil {
					log.Fatalf("failed to marshal envelope: %v", err)
				}

				req, err := http.NewRequestWithContext(ctx, http.MethodPost, *targetURL, bytes.NewReader(payload))
				if err != nil {
					continue // Should not happen
				}
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("X-Request-ID", uuid.NewString())
				if *apiKey != "" {
					req.Header.Set("X-API-Key", *apiKey)
				}

				resp, err := client.Do(req)
				if err != nil {
					errorCount.Add(1)
					continue
				}

				if resp.StatusCode == http.StatusOK {
					successCount.Add(1)
				} else {
					errorCount.Add(1)
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
		}(i)
	}

	wg.Wait()

	totalRequests := successCount.Load() + errorCount.Load()
	actualRPS := float64(totalRequests) / duration.Seconds()

	log.Println("Load test finished.")
	log.Printf("Total Requests: %d", totalRequests)
	log.Printf("Successful (200 OK): %d", successCount.Load())
	log.Printf("Errors: %d", errorCount.Load())
	log.Printf("Actual RPS: %.2f", actualRPS)
}
