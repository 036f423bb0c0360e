package mocks

import (
	"context"
	"sync"

	"github.com/V4T54L/hubformat/internal/domain"
)

// MockEventSource is a mock implementation of domain.EventSource for testing.
type MockEventSource struct {
	mu              sync.Mutex
	ReadBatchResult []*domain.ParsedEvent
	ReadErr         error
	ReadCalls       int
}

func (m *MockEventSource) ReadEventBatch(ctx context.Context, count int) ([]*domain.ParsedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadCalls++
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if len(m.ReadBatchResult) > count {
		return m.ReadBatchResult[:count], nil
	}
	return m.ReadBatchResult, nil
}

// MockRecordSink is a mock implementation of domain.RecordSink for testing.
type MockRecordSink struct {
	mu             sync.Mutex
	WrittenRecords []*domain.Record
	WriteErr       error
	// FailFirst limits WriteErr to the first n calls. Zero means every call fails.
	FailFirst  int
	WriteCalls int
}

func (m *MockRecordSink) WriteRecordBatch(ctx context.Context, records []*domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteCalls++
	if m.WriteErr != nil && (m.FailFirst == 0 || m.WriteCalls <= m.FailFirst) {
		return m.WriteErr
	}
	m.WrittenRecords = append(m.WrittenRecords, records...)
	return nil
}
