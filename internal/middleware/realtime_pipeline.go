package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ChainPull/internal/domain/models"
	domrepo "ChainPull/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, r *models.ChainRow) error
}

// RealtimePipeline is a middleware between the chain WebSocket and Kafka.
// It validates, filters/throttles, optionally transforms, and buffers when downstream is unavailable.
type RealtimePipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.ChainRow
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-strike last accepted time
	// simple format transform hook (optional)
	transform func(*models.ChainRow) *models.ChainRow
	// metrics
	bufDepthGauge func(int)
	throttleWarn  func(string)
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS sets the max rows per second per strike.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,   // default throttle per strike
		bufSize:  1000, // default buffer
		bufCh:    make(chan *models.ChainRow, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.ChainRow, p.bufSize)
	}
	// metrics hooks using domain metrics if available
	p.bufDepthGauge = func(n int) { p.metrics.RecordLatency("pipeline_buffer_depth", float64(n)) }
	p.throttleWarn = func(key string) { p.metrics.RecordError("pipeline_throttle_" + key) }
	return p
}

// Start launches background flushing of buffered rows.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case r := <-p.bufCh:
				if r == nil {
					continue
				}
				if err := p.proc.Process(ctx, r); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- r:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a row to downstream, buffering on errors.
func (p *RealtimePipeline) Process(ctx context.Context, r *models.ChainRow) error {
	start := time.Now()
	if err := r.Validate(); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		r = p.transform(r)
		if err := r.Validate(); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	key := strikeKey(r)
	if !p.allow(key, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		if p.throttleWarn != nil {
			p.throttleWarn(key)
		}
		return nil
	}

	if err := p.proc.Process(ctx, r); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- r:
			if p.bufDepthGauge != nil {
				p.bufDepthGauge(len(p.bufCh))
			}
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// WithTransform sets a transformation hook to modify row format.
func WithTransform(fn func(*models.ChainRow) *models.ChainRow) PipelineOption {
	return func(p *RealtimePipeline) { p.transform = fn }
}

func strikeKey(r *models.ChainRow) string {
	return fmt.Sprintf("%s:%.2f", r.Underlying, r.Strike)
}

func (p *RealtimePipeline) allow(key string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	// simple throttle: ensure at most maxRPS per second
	last := p.lastSeen[key]
	if last.IsZero() {
		p.lastSeen[key] = now
		return true
	}
	// compute elapsed rows per second window
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[key] = now
	return true
}
