package sagas

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SagaStep is a single unit of work in a saga. Compensate undoes the
// step after a later step fails and may be nil when there is nothing
// to undo. Execute receives the previous step's result and returns the
// data passed to the next step.
type SagaStep struct {
	Name       string
	Execute    func(ctx context.Context, data interface{}) (interface{}, error)
	Compensate func(ctx context.Context, data interface{}) error
	MaxRetries int
	RetryDelay time.Duration
}

// SagaState represents the current state of a saga execution
type SagaState string

const (
	SagaStatePending      SagaState = "PENDING"
	SagaStateRunning      SagaState = "RUNNING"
	SagaStateCompleted    SagaState = "COMPLETED"
	SagaStateFailed       SagaState = "FAILED"
	SagaStateCompensating SagaState = "COMPENSATING"
	SagaStateCompensated  SagaState = "COMPENSATED"
)

// Saga runs steps in order and, when one fails, undoes the completed
// steps in reverse. One compensation slot is registered per completed
// step, nil for steps without an undo, so the reverse walk stays
// aligned with the step list.
type Saga struct {
	id            string
	name          string
	steps         []SagaStep
	compensations []func(ctx context.Context) error
	state         SagaState
	currentStep   int
	logger        *zap.Logger
}

// NewSaga creates a new saga instance
func NewSaga(name string, logger *zap.Logger) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{
		id:            uuid.New().String(),
		name:          name,
		steps:         make([]SagaStep, 0),
		compensations: make([]func(ctx context.Context) error, 0),
		state:         SagaStatePending,
		logger:        logger,
	}
}

// AddStep adds a step to the saga
func (s *Saga) AddStep(step SagaStep) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs the saga. On step failure the completed steps are
// compensated in reverse order and the step error is returned.
func (s *Saga) Execute(ctx context.Context, initialData interface{}) (interface{}, error) {
	s.state = SagaStateRunning
	s.logger.Info("starting saga",
		zap.String("sagaID", s.id),
		zap.String("saga", s.name),
		zap.Int("steps", len(s.steps)),
	)

	data := initialData
	for i, step := range s.steps {
		s.currentStep = i
		s.logger.Debug("executing saga step",
			zap.String("sagaID", s.id),
			zap.String("step", step.Name),
			zap.Int("stepNumber", i+1),
		)

		result, err := s.executeStepWithRetry(ctx, step, data)
		if err != nil {
			s.state = SagaStateFailed
			s.logger.Error("saga step failed",
				zap.String("sagaID", s.id),
				zap.String("step", step.Name),
				zap.Error(err),
			)

			s.compensate(ctx)
			s.state = SagaStateCompensated
			return nil, fmt.Errorf("saga %s failed at step %s: %w", s.name, step.Name, err)
		}

		data = result

		if step.Compensate != nil {
			stepData := data
			undo := step.Compensate
			s.compensations = append(s.compensations, func(ctx context.Context) error {
				return undo(ctx, stepData)
			})
		} else {
			s.compensations = append(s.compensations, nil)
		}
	}

	s.state = SagaStateCompleted
	s.logger.Info("saga completed",
		zap.String("sagaID", s.id),
		zap.String("saga", s.name),
		zap.Int("steps", len(s.steps)),
	)

	return data, nil
}

// executeStepWithRetry executes a step, retrying up to MaxRetries with
// RetryDelay between attempts. The delay is abandoned when the context
// is cancelled.
func (s *Saga) executeStepWithRetry(ctx context.Context, step SagaStep, data interface{}) (interface{}, error) {
	attempts := step.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	delay := step.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			s.logger.Debug("retrying saga step",
				zap.String("sagaID", s.id),
				zap.String("step", step.Name),
				zap.Int("attempt", attempt+1),
				zap.Int("maxAttempts", attempts),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := step.Execute(ctx, data)
		if err == nil {
			return result, nil
		}

		lastErr = err
		s.logger.Warn("saga step attempt failed",
			zap.String("sagaID", s.id),
			zap.String("step", step.Name),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return nil, fmt.Errorf("step %s failed after %d attempts: %w", step.Name, attempts, lastErr)
}

// compensate undoes completed steps in reverse order. A failing
// compensation is logged and the walk continues with the earlier steps.
func (s *Saga) compensate(ctx context.Context) {
	s.state = SagaStateCompensating
	s.logger.Info("compensating saga",
		zap.String("sagaID", s.id),
		zap.String("saga", s.name),
		zap.Int("completedSteps", len(s.compensations)),
	)

	for i := len(s.compensations) - 1; i >= 0; i-- {
		if s.compensations[i] == nil {
			continue
		}
		s.logger.Debug("executing compensation",
			zap.String("sagaID", s.id),
			zap.String("step", s.steps[i].Name),
		)
		if err := s.compensations[i](ctx); err != nil {
			s.logger.Error("compensation failed",
				zap.String("sagaID", s.id),
				zap.String("step", s.steps[i].Name),
				zap.Error(err),
			)
		}
	}
}

// State returns the current state of the saga
func (s *Saga) State() SagaState {
	return s.state
}

// ID returns the saga ID
func (s *Saga) ID() string {
	return s.id
}

// CurrentStep returns the index of the step executing or last executed
func (s *Saga) CurrentStep() int {
	return s.currentStep
}

// SagaBuilder provides a fluent interface for building sagas
type SagaBuilder struct {
	saga *Saga
}

// NewSagaBuilder creates a new saga builder
func NewSagaBuilder(name string, logger *zap.Logger) *SagaBuilder {
	return &SagaBuilder{
		saga: NewSaga(name, logger),
	}
}

// WithStep adds a step without compensation
func (b *SagaBuilder) WithStep(name string, execute func(context.Context, interface{}) (interface{}, error)) *SagaBuilder {
	b.saga.AddStep(SagaStep{
		Name:    name,
		Execute: execute,
	})
	return b
}

// WithCompensableStep adds a step with compensation logic
func (b *SagaBuilder) WithCompensableStep(
	name string,
	execute func(context.Context, interface{}) (interface{}, error),
	compensate func(context.Context, interface{}) error,
) *SagaBuilder {
	b.saga.AddStep(SagaStep{
		Name:       name,
		Execute:    execute,
		Compensate: compensate,
	})
	return b
}

// WithRetryableStep adds a step with retry logic
func (b *SagaBuilder) WithRetryableStep(
	name string,
	execute func(context.Context, interface{}) (interface{}, error),
	maxRetries int,
	retryDelay time.Duration,
) *SagaBuilder {
	b.saga.AddStep(SagaStep{
		Name:       name,
		Execute:    execute,
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
	})
	return b
}

// Build returns the constructed saga
func (b *SagaBuilder) Build() *Saga {
	return b.saga
}
