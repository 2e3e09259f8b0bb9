package cloudwatch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	applicationPort "github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
)

type fakeLogsAPI struct {
	mu      sync.Mutex
	batches [][]types.InputLogEvent
	failN   int
	created []string
}

func (f *fakeLogsAPI) PutLogEvents(_ context.Context, in *cloudwatchlogs.PutLogEventsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failN > 0 {
		f.failN--
		return nil, errors.New("throttled")
	}
	f.batches = append(f.batches, in.LogEvents)
	return &cloudwatchlogs.PutLogEventsOutput{}, nil
}

func (f *fakeLogsAPI) CreateLogGroup(_ context.Context, in *cloudwatchlogs.CreateLogGroupInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error) {
	f.created = append(f.created, *in.LogGroupName)
	return nil, &types.ResourceAlreadyExistsException{}
}

func (f *fakeLogsAPI) CreateLogStream(_ context.Context, in *cloudwatchlogs.CreateLogStreamInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	f.created = append(f.created, *in.LogStreamName)
	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func (f *fakeLogsAPI) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func entry(at time.Time, msg string) applicationPort.LogEntry {
	return applicationPort.LogEntry{Timestamp: at, Level: applicationPort.LogLevelInfo, Message: msg}
}

func TestConvertToLogEvent(t *testing.T) {
	timestamp := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)
	event, err := convertToLogEvent(applicationPort.LogEntry{
		Timestamp: timestamp,
		Level:     applicationPort.LogLevelWarn,
		Message:   "Rotated image exceeds the admission size limit",
		Fields:    map[string]interface{}{"index": 2, "size_bytes": 612000},
	})
	if err != nil {
		t.Fatalf("convertToLogEvent() error = %v", err)
	}
	if *event.Timestamp != timestamp.UnixMilli() {
		t.Errorf("unexpected timestamp %d", *event.Timestamp)
	}

	var logData map[string]interface{}
	if err := json.Unmarshal([]byte(*event.Message), &logData); err != nil {
		t.Fatalf("message is not JSON: %v", err)
	}
	if logData["level"] != "WARN" {
		t.Errorf("expected level=WARN, got %v", logData["level"])
	}
	fields := logData["fields"].(map[string]interface{})
	if fields["index"].(float64) != 2 {
		t.Errorf("unexpected fields %v", fields)
	}
}

func TestConvertToLogEvent_Truncates(t *testing.T) {
	event, err := convertToLogEvent(entry(time.Now(), strings.Repeat("x", maxLogEventSize+100)))
	if err != nil {
		t.Fatalf("convertToLogEvent() error = %v", err)
	}
	if len(*event.Message) != maxLogEventSize || !strings.HasSuffix(*event.Message, "...") {
		t.Fatalf("expected truncated message, got %d bytes", len(*event.Message))
	}
}

func TestBuildBatches_SortsAndSplitsBySize(t *testing.T) {
	base := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)
	big := strings.Repeat("y", 200000)
	entries := []applicationPort.LogEntry{
		entry(base.Add(3*time.Second), big),
		entry(base.Add(1*time.Second), big),
		entry(base.Add(2*time.Second), big),
		entry(base.Add(5*time.Second), big),
		entry(base.Add(4*time.Second), big),
		entry(base.Add(6*time.Second), big),
	}

	batches := buildBatches(entries)
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches under the 1 MB limit, got %d", len(batches))
	}

	var last int64
	for _, batch := range batches {
		for _, e := range batch {
			if *e.Timestamp < last {
				t.Fatalf("events are not sorted by time")
			}
			last = *e.Timestamp
		}
	}
}

func TestLogsPublisher_FlushRetriesAndEmptiesBuffer(t *testing.T) {
	api := &fakeLogsAPI{failN: 1}
	p := NewLogsPublisherWithClient(api, LogsPublisherConfig{LogGroupName: "/img-uploader", LogStreamName: "app"})

	_ = p.Publish(context.Background(), entry(time.Now(), "one"))
	_ = p.Publish(context.Background(), entry(time.Now(), "two"))

	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if api.eventCount() != 2 {
		t.Fatalf("expected 2 events shipped, got %d", api.eventCount())
	}

	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if api.eventCount() != 2 {
		t.Fatalf("empty buffer must not be resent")
	}
}

func TestLogsPublisher_FullBufferTriggersFlush(t *testing.T) {
	api := &fakeLogsAPI{}
	p := NewLogsPublisherWithClient(api, LogsPublisherConfig{
		LogGroupName:  "/img-uploader",
		LogStreamName: "app",
		BufferSize:    3,
		FlushInterval: time.Hour,
	})
	p.Start()

	for i := 0; i < 3; i++ {
		_ = p.Publish(context.Background(), entry(time.Now(), "entry"))
	}

	deadline := time.Now().Add(2 * time.Second)
	for api.eventCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("full buffer was not flushed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_ = p.Publish(context.Background(), entry(time.Now(), "tail"))
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if api.eventCount() != 4 {
		t.Fatalf("Close must flush the tail, got %d events", api.eventCount())
	}
}

func TestEnsureLogGroupAndStream_IgnoresExisting(t *testing.T) {
	api := &fakeLogsAPI{}
	p := NewLogsPublisherWithClient(api, LogsPublisherConfig{LogGroupName: "/g", LogStreamName: "s"})
	if err := p.ensureLogGroupAndStream(context.Background()); err != nil {
		t.Fatalf("ensureLogGroupAndStream() error = %v", err)
	}
	if len(api.created) != 2 {
		t.Fatalf("expected group and stream creation attempts, got %v", api.created)
	}
}
