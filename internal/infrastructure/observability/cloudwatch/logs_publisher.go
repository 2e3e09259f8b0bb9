package cloudwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	applicationPort "github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/infrastructure/awsclient"
)

const (
	// CloudWatch Logs limits
	maxLogEventsPerRequest = 10000
	maxLogBatchSize        = 1048576 // 1 MB
	maxLogEventSize        = 256000  // 256 KB
	logEventOverhead       = 26      // bytes CloudWatch adds per event

	maxRetries     = 3
	initialBackoff = 200 * time.Millisecond
)

// LogsPublisherConfig holds configuration for CloudWatch logs publishing.
type LogsPublisherConfig struct {
	LogGroupName    string // CloudWatch log group name
	LogStreamName   string // CloudWatch log stream name
	Region          string // AWS region
	Endpoint        string // Optional endpoint override (for LocalStack)
	AccessKeyID     string // AWS access key
	SecretAccessKey string // AWS secret key
	BufferSize      int    // Buffer size that triggers an early flush
	FlushInterval   time.Duration
	AutoCreate      bool // Automatically create log group/stream if missing
}

// LogsAPI is the subset of the CloudWatch Logs client the publisher uses.
type LogsAPI interface {
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
}

// LogsPublisher ships log entries to AWS CloudWatch Logs. Publish only
// buffers; a background loop sends batches on a timer or when the buffer
// fills, so logging never waits on the network.
type LogsPublisher struct {
	client        LogsAPI
	logGroupName  string
	logStreamName string

	mu         sync.Mutex
	buffer     []applicationPort.LogEntry
	bufferSize int

	// sendMu serializes PutLogEvents calls
	sendMu sync.Mutex

	interval time.Duration
	kick     chan struct{}
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewLogsPublisher creates a publisher and starts its flush loop.
func NewLogsPublisher(ctx context.Context, cfg LogsPublisherConfig) (*LogsPublisher, error) {
	if cfg.LogGroupName == "" {
		return nil, fmt.Errorf("log group name is required")
	}
	if cfg.LogStreamName == "" {
		return nil, fmt.Errorf("log stream name is required")
	}

	awsCfg, err := awsclient.Load(ctx, "cloudwatch logs", awsclient.Options{
		Region:          cfg.Region,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}

	client := cloudwatchlogs.NewFromConfig(awsCfg, func(options *cloudwatchlogs.Options) {
		options.BaseEndpoint = awsclient.Endpoint(cfg.Endpoint)
	})

	p := NewLogsPublisherWithClient(client, cfg)

	if cfg.AutoCreate {
		if err := p.ensureLogGroupAndStream(ctx); err != nil {
			return nil, fmt.Errorf("failed to create log group/stream: %w", err)
		}
	}

	p.Start()
	return p, nil
}

// NewLogsPublisherWithClient builds a publisher around client without starting it.
func NewLogsPublisherWithClient(client LogsAPI, cfg LogsPublisherConfig) *LogsPublisher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 50
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	return &LogsPublisher{
		client:        client,
		logGroupName:  cfg.LogGroupName,
		logStreamName: cfg.LogStreamName,
		buffer:        make([]applicationPort.LogEntry, 0, cfg.BufferSize),
		bufferSize:    cfg.BufferSize,
		interval:      cfg.FlushInterval,
		kick:          make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
	}
}

// Start runs the background flush loop.
func (p *LogsPublisher) Start() {
	p.wg.Add(1)
	go p.flushLoop()
}

// Publish buffers a single entry (implements port.LogPublisher).
func (p *LogsPublisher) Publish(_ context.Context, entry applicationPort.LogEntry) error {
	p.mu.Lock()
	p.buffer = append(p.buffer, entry)
	full := len(p.buffer) >= p.bufferSize
	p.mu.Unlock()

	if full {
		select {
		case p.kick <- struct{}{}:
		default:
		}
	}
	return nil
}

// Flush sends everything buffered so far.
func (p *LogsPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	entries := p.buffer
	p.buffer = make([]applicationPort.LogEntry, 0, p.bufferSize)
	p.mu.Unlock()

	if len(entries) == 0 {
		return nil
	}

	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	for _, batch := range buildBatches(entries) {
		if err := p.putWithRetry(ctx, batch); err != nil {
			return fmt.Errorf("failed to publish log batch: %w", err)
		}
	}
	return nil
}

// Close stops the flush loop and flushes remaining entries.
func (p *LogsPublisher) Close(ctx context.Context) error {
	close(p.stopCh)
	p.wg.Wait()
	return p.Flush(ctx)
}

func (p *LogsPublisher) flushLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-p.kick:
		case <-p.stopCh:
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		// Ошибка не логируется: logger сам пишет в этот publisher
		_ = p.Flush(ctx)
		cancel()
	}
}

func (p *LogsPublisher) putWithRetry(ctx context.Context, events []types.InputLogEvent) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := p.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
			LogGroupName:  aws.String(p.logGroupName),
			LogStreamName: aws.String(p.logStreamName),
			LogEvents:     events,
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt < maxRetries-1 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

// buildBatches sorts entries by time (a PutLogEvents requirement) and splits
// them so each batch respects the per-request count and byte limits.
func buildBatches(entries []applicationPort.LogEntry) [][]types.InputLogEvent {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	var batches [][]types.InputLogEvent
	var current []types.InputLogEvent
	currentSize := 0

	for _, entry := range entries {
		event, err := convertToLogEvent(entry)
		if err != nil {
			continue
		}
		size := len(*event.Message) + logEventOverhead
		if len(current) == maxLogEventsPerRequest || currentSize+size > maxLogBatchSize {
			batches = append(batches, current)
			current, currentSize = nil, 0
		}
		current = append(current, event)
		currentSize += size
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// convertToLogEvent converts a LogEntry to a JSON CloudWatch event.
func convertToLogEvent(entry applicationPort.LogEntry) (types.InputLogEvent, error) {
	logData := map[string]interface{}{
		"timestamp": entry.Timestamp.Format(time.RFC3339Nano),
		"level":     string(entry.Level),
		"message":   entry.Message,
	}
	if len(entry.Fields) > 0 {
		logData["fields"] = entry.Fields
	}

	messageJSON, err := json.Marshal(logData)
	if err != nil {
		return types.InputLogEvent{}, fmt.Errorf("failed to marshal log entry: %w", err)
	}

	// Truncate if exceeds CloudWatch limit
	message := string(messageJSON)
	if len(message) > maxLogEventSize {
		message = message[:maxLogEventSize-3] + "..."
	}

	return types.InputLogEvent{
		Message:   aws.String(message),
		Timestamp: aws.Int64(entry.Timestamp.UnixMilli()),
	}, nil
}

func (p *LogsPublisher) ensureLogGroupAndStream(ctx context.Context) error {
	var alreadyExists *types.ResourceAlreadyExistsException

	_, err := p.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(p.logGroupName),
	})
	if err != nil && !errors.As(err, &alreadyExists) {
		return fmt.Errorf("failed to create log group: %w", err)
	}

	_, err = p.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(p.logGroupName),
		LogStreamName: aws.String(p.logStreamName),
	})
	if err != nil && !errors.As(err, &alreadyExists) {
		return fmt.Errorf("failed to create log stream: %w", err)
	}

	return nil
}
