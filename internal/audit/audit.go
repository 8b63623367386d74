// Package audit records function invocations to clickhouse
// the sink is best effort: a full buffer or a failed insert never
// affects the invocation that produced the record
package audit

import (
	"context"
	"sync"
	"time"

	"udfhost/internal/platform/logger"
	pnet "udfhost/internal/platform/net"
	"udfhost/internal/platform/store"

	"github.com/google/uuid"
)

// DefaultTable is the insert target unless overridden
const DefaultTable = "udf_invocations"

// Invocation is one audit record
type Invocation struct {
	TS        time.Time
	RequestID string
	Function  string
	TookMS    float64
	OK        bool
	Error     string
}

// Sink buffers invocation records and flushes them in batches
type Sink struct {
	ch    store.Clickhouse
	log   logger.Logger
	table string

	buf      chan Invocation
	interval time.Duration
	batch    int

	stop     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// Option mutates a Sink before it starts
type Option func(*Sink)

// WithTable overrides the insert target table
func WithTable(t string) Option { return func(s *Sink) { s.table = t } }

// WithFlushInterval overrides the flush cadence
func WithFlushInterval(d time.Duration) Option { return func(s *Sink) { s.interval = d } }

// WithBatchSize overrides the max rows per insert
func WithBatchSize(n int) Option { return func(s *Sink) { s.batch = n } }

// NewSink starts a sink writing to ch
func NewSink(ch store.Clickhouse, log logger.Logger, opts ...Option) *Sink {
	s := &Sink{
		ch:       ch,
		log:      log.With().Str("component", "audit").Logger(),
		table:    DefaultTable,
		buf:      make(chan Invocation, 1024),
		interval: 2 * time.Second,
		batch:    256,
		stop:     make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	s.wg.Add(1)
	go s.loop()
	return s
}

// Record enqueues one invocation, dropping on a full buffer
func (s *Sink) Record(ctx context.Context, inv Invocation) {
	if s == nil {
		return
	}
	if inv.TS.IsZero() {
		inv.TS = time.Now().UTC()
	}
	if inv.RequestID == "" {
		inv.RequestID = pnet.RequestID(ctx)
	}
	if inv.RequestID == "" {
		// invocations outside an http request still get a correlatable id
		inv.RequestID = uuid.NewString()
	}
	select {
	case s.buf <- inv:
	default:
		s.log.Warn().Str("function", inv.Function).Msg("audit buffer full, dropping record")
	}
}

// Observe adapts Record to the httpapi observer shape
func (s *Sink) Observe(ctx context.Context, name string, took time.Duration, err error) {
	inv := Invocation{
		Function: name,
		TookMS:   float64(took.Microseconds()) / 1000.0,
		OK:       err == nil,
	}
	if err != nil {
		inv.Error = err.Error()
	}
	s.Record(ctx, inv)
}

// Close flushes what is buffered and stops the writer
func (s *Sink) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.stopOnce.Do(func() { close(s.stop) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sink) loop() {
	defer s.wg.Done()

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	pending := make([]Invocation, 0, s.batch)
	flush := func() {
		if len(pending) == 0 {
			return
		}
		s.insert(pending)
		pending = pending[:0]
	}

	for {
		select {
		case inv := <-s.buf:
			pending = append(pending, inv)
			if len(pending) >= s.batch {
				flush()
			}
		case <-tick.C:
			flush()
		case <-s.stop:
			// drain whatever arrived before stop
			for {
				select {
				case inv := <-s.buf:
					pending = append(pending, inv)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *Sink) insert(batch []Invocation) {
	rows := make([][]any, len(batch))
	for i, inv := range batch {
		rows[i] = []any{inv.TS, inv.RequestID, inv.Function, inv.TookMS, inv.OK, inv.Error}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.ch.Insert(ctx, s.table, rows); err != nil {
		s.log.Warn().Err(err).Int("rows", len(rows)).Msg("audit insert failed")
	}
}
