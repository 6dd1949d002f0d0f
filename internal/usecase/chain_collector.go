package usecase

import (
	"ChainPull/internal/domain/models"
	drepo "ChainPull/internal/domain/repository"
	mid "ChainPull/internal/middleware"
	"context"
)

// ChainCollector collects rows from the chain stream and processes them.
type ChainCollector struct {
	stream  drepo.ChainStream
	proc    *ChainProcessor
	metrics drepo.Metrics
	pipe    *mid.RealtimePipeline
}

// NewChainCollector creates a new ChainCollector instance.
func NewChainCollector(stream drepo.ChainStream, proc *ChainProcessor, metrics drepo.Metrics, pipe *mid.RealtimePipeline) *ChainCollector {
	return &ChainCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the chain stream is connected.
func (c *ChainCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *ChainCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	rowCh, spotCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, rowCh, spotCh, errCh)
	return nil
}

func (c *ChainCollector) consume(ctx context.Context, rowCh <-chan *models.ChainRow, spotCh <-chan *models.SpotTick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case t := <-spotCh:
			if t == nil {
				continue
			}
			_ = c.proc.ProcessSpot(ctx, t)
		case r := <-rowCh:
			if r == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, r)
			} else {
				_ = c.proc.Process(ctx, r)
			}
		}
	}
}

func (c *ChainCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying ChainProcessor for lifecycle management.
func (c *ChainCollector) Processor() *ChainProcessor { return c.proc }

// Shutdown stops pipeline and closes stream.
func (c *ChainCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
