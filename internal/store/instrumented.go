package store

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vyrodovalexey/todolist/internal/model"
)

// Prometheus metrics.
var (
	storeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_store_operations_total",
			Help: "Total number of item store operations",
		},
		[]string{"operation", "result"},
	)

	storeOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todo_store_operation_duration_seconds",
			Help:    "Item store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// InstrumentedStore records Prometheus metrics around another Store.
type InstrumentedStore struct {
	next Store
}

// Instrument wraps s with operation metrics.
func Instrument(s Store) *InstrumentedStore {
	return &InstrumentedStore{next: s}
}

func observe(operation string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeOperationsTotal.WithLabelValues(operation, result).Inc()
	storeOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Find implements Store.
func (s *InstrumentedStore) Find(ctx context.Context, filter Filter, w Window) ([]model.Item, error) {
	start := time.Now()
	items, err := s.next.Find(ctx, filter, w)
	observe("find", start, err)
	return items, err
}

// Count implements Store.
func (s *InstrumentedStore) Count(ctx context.Context, filter Filter) (int64, error) {
	start := time.Now()
	n, err := s.next.Count(ctx, filter)
	observe("count", start, err)
	return n, err
}

// Insert implements Store.
func (s *InstrumentedStore) Insert(ctx context.Context, text string) (*model.Item, error) {
	start := time.Now()
	item, err := s.next.Insert(ctx, text)
	observe("insert", start, err)
	return item, err
}

// UpdateByID implements Store.
func (s *InstrumentedStore) UpdateByID(ctx context.Context, id, text string) (*model.Item, error) {
	start := time.Now()
	item, err := s.next.UpdateByID(ctx, id, text)
	observe("update", start, err)
	return item, err
}

// DeleteByID implements Store.
func (s *InstrumentedStore) DeleteByID(ctx context.Context, id string) error {
	start := time.Now()
	err := s.next.DeleteByID(ctx, id)
	observe("delete", start, err)
	return err
}

// Ping implements Store.
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close implements Store.
func (s *InstrumentedStore) Close() error {
	return s.next.Close()
}
