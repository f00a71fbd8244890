package poller

import (
	"context"
	"sync"
	"time"

	"github.com/123qassim/mumbso/internal/config"
	"github.com/123qassim/mumbso/internal/metrics"
	"github.com/123qassim/mumbso/internal/service"
	"go.uber.org/zap"
)

type Outcome string

const (
	// OutcomeSettled means a terminal status was observed.
	OutcomeSettled Outcome = "settled"
	// OutcomeExhausted means every attempt saw a pending payment or failed to read it.
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeStopped means the session was stopped or its context cancelled.
	OutcomeStopped Outcome = "stopped"
)

type StatusReader interface {
	GetStatus(ctx context.Context, checkoutRequestID string) (service.PaymentStatusResponse, error)
}

type Result struct {
	CheckoutRequestID string
	Outcome           Outcome
	Attempts          int
	// Last is the most recent status read, zero when no read succeeded.
	Last service.PaymentStatusResponse
}

type Poller struct {
	reader   StatusReader
	settings config.Poller
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewPoller builds a poller. m may be nil.
func NewPoller(reader StatusReader, settings config.Poller, m *metrics.Metrics, logger *zap.Logger) *Poller {
	return &Poller{reader: reader, settings: settings, metrics: m, logger: logger}
}

type Option func(*options)

type options struct {
	onUpdate func(attempt int, status service.PaymentStatusResponse)
}

// WithOnUpdate registers a hook called from the polling goroutine after every successful read.
func WithOnUpdate(fn func(attempt int, status service.PaymentStatusResponse)) Option {
	return func(o *options) {
		o.onUpdate = fn
	}
}

// Session is one running poll. It is owned by the caller who started it.
type Session struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result Result
}

// Start begins polling checkoutRequestID in the background and returns at once.
// The loop makes at most MaxAttempts reads spaced Interval apart and does not wait after the last one.
func (p *Poller) Start(ctx context.Context, checkoutRequestID string, opts ...Option) *Session {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		cancel: cancel,
		done:   make(chan struct{}),
		result: Result{CheckoutRequestID: checkoutRequestID},
	}

	go func() {
		defer close(s.done)
		defer cancel()

		result := p.run(ctx, checkoutRequestID, o)
		p.recordOutcome(result.Outcome)

		s.mu.Lock()
		s.result = result
		s.mu.Unlock()
	}()

	return s
}

// Stop cancels the session and blocks until the polling goroutine has exited.
// No read is issued after Stop returns. Stopping a finished session is a no-op.
func (s *Session) Stop() Result {
	s.cancel()
	return s.Wait()
}

func (s *Session) Wait() Result {
	<-s.done
	return s.Result()
}

// Done is closed once the polling goroutine exits.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Result is final only after Done is closed.
func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (p *Poller) run(ctx context.Context, checkoutRequestID string, o options) Result {
	result := Result{CheckoutRequestID: checkoutRequestID, Outcome: OutcomeExhausted}
	logger := p.logger.With(zap.String("checkoutRequestID", checkoutRequestID))

	for attempt := 1; attempt <= p.settings.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			result.Outcome = OutcomeStopped
			return result
		}

		result.Attempts = attempt
		status, err := p.query(ctx, checkoutRequestID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				result.Outcome = OutcomeStopped
				return result
			}
			p.recordAttempt("error")
			logger.Warn("Status query failed", zap.Int("attempt", attempt), zap.Error(err))
		default:
			p.recordAttempt(string(status.Status))
			result.Last = status
			if o.onUpdate != nil {
				o.onUpdate(attempt, status)
			}

			if status.Status.IsTerminal() {
				result.Outcome = OutcomeSettled
				logger.Info("Payment settled",
					zap.Int("attempt", attempt),
					zap.String("status", string(status.Status)))
				return result
			}
		}

		if attempt == p.settings.MaxAttempts {
			break
		}

		timer := time.NewTimer(p.settings.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			result.Outcome = OutcomeStopped
			return result
		case <-timer.C:
		}
	}

	logger.Info("Polling gave up", zap.Int("attempts", result.Attempts))
	return result
}

func (p *Poller) query(ctx context.Context, checkoutRequestID string) (service.PaymentStatusResponse, error) {
	if p.settings.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.settings.QueryTimeout)
		defer cancel()
	}
	return p.reader.GetStatus(ctx, checkoutRequestID)
}

func (p *Poller) recordAttempt(result string) {
	if p.metrics != nil {
		p.metrics.RecordPollAttempt(result)
	}
}

func (p *Poller) recordOutcome(outcome Outcome) {
	if p.metrics != nil {
		p.metrics.RecordPollOutcome(string(outcome))
	}
}
