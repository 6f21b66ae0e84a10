package sagas

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSaga_Execute_ThreadsDataThroughSteps(t *testing.T) {
	// Arrange
	saga := NewSagaBuilder("test", zap.NewNop()).
		WithStep("double", func(_ context.Context, data interface{}) (interface{}, error) {
			return data.(int) * 2, nil
		}).
		WithStep("increment", func(_ context.Context, data interface{}) (interface{}, error) {
			return data.(int) + 1, nil
		}).
		Build()

	// Act
	result, err := saga.Execute(context.Background(), 5)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 11, result)
	assert.Equal(t, SagaStateCompleted, saga.State())
}

func TestSaga_Execute_CompensatesCompletedStepsInReverse(t *testing.T) {
	// Arrange
	var undone []string
	saga := NewSagaBuilder("test", zap.NewNop()).
		WithCompensableStep("first",
			func(_ context.Context, data interface{}) (interface{}, error) { return data, nil },
			func(_ context.Context, _ interface{}) error {
				undone = append(undone, "first")
				return nil
			}).
		WithCompensableStep("second",
			func(_ context.Context, data interface{}) (interface{}, error) { return data, nil },
			func(_ context.Context, _ interface{}) error {
				undone = append(undone, "second")
				return nil
			}).
		WithStep("third", func(_ context.Context, _ interface{}) (interface{}, error) {
			return nil, errors.New("boom")
		}).
		Build()

	// Act
	_, err := saga.Execute(context.Background(), nil)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed at step third")
	assert.Equal(t, []string{"second", "first"}, undone)
	assert.Equal(t, SagaStateCompensated, saga.State())
}

func TestSaga_Execute_StepsWithoutCompensationDoNotShiftUndoOrder(t *testing.T) {
	// Arrange: a plain step sits between two compensable ones. Only the
	// compensable steps that actually completed may be undone.
	var undone []string
	saga := NewSagaBuilder("test", zap.NewNop()).
		WithCompensableStep("create",
			func(_ context.Context, data interface{}) (interface{}, error) { return "created", nil },
			func(_ context.Context, data interface{}) error {
				undone = append(undone, "create:"+data.(string))
				return nil
			}).
		WithStep("notify", func(_ context.Context, data interface{}) (interface{}, error) {
			return data, nil
		}).
		WithCompensableStep("attach",
			func(_ context.Context, _ interface{}) (interface{}, error) {
				return nil, errors.New("attach failed")
			},
			func(_ context.Context, _ interface{}) error {
				undone = append(undone, "attach")
				return nil
			}).
		Build()

	// Act
	_, err := saga.Execute(context.Background(), nil)

	// Assert: the failing step never registered its compensation, and the
	// create compensation received the create step's own result.
	require.Error(t, err)
	assert.Equal(t, []string{"create:created"}, undone)
}

func TestSaga_Execute_ContinuesCompensationWhenOneFails(t *testing.T) {
	// Arrange
	var undone []string
	saga := NewSagaBuilder("test", zap.NewNop()).
		WithCompensableStep("first",
			func(_ context.Context, data interface{}) (interface{}, error) { return data, nil },
			func(_ context.Context, _ interface{}) error {
				undone = append(undone, "first")
				return nil
			}).
		WithCompensableStep("second",
			func(_ context.Context, data interface{}) (interface{}, error) { return data, nil },
			func(_ context.Context, _ interface{}) error {
				return errors.New("undo failed")
			}).
		WithStep("third", func(_ context.Context, _ interface{}) (interface{}, error) {
			return nil, errors.New("boom")
		}).
		Build()

	// Act
	_, err := saga.Execute(context.Background(), nil)

	// Assert: the failing compensation did not stop the earlier one.
	require.Error(t, err)
	assert.Equal(t, []string{"first"}, undone)
}

func TestSaga_Execute_RetriesUpToMaxRetries(t *testing.T) {
	// Arrange
	attempts := 0
	saga := NewSagaBuilder("test", zap.NewNop()).
		WithRetryableStep("flaky",
			func(_ context.Context, _ interface{}) (interface{}, error) {
				attempts++
				if attempts < 3 {
					return nil, errors.New("transient")
				}
				return "ok", nil
			},
			3,
			time.Millisecond).
		Build()

	// Act
	result, err := saga.Execute(context.Background(), nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestSaga_Execute_RetryDelayHonorsCancelledContext(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	saga := NewSagaBuilder("test", zap.NewNop()).
		WithRetryableStep("flaky",
			func(_ context.Context, _ interface{}) (interface{}, error) {
				attempts++
				cancel()
				return nil, errors.New("transient")
			},
			5,
			time.Minute).
		Build()

	// Act
	start := time.Now()
	_, err := saga.Execute(ctx, nil)

	// Assert: the retry loop gave up on cancellation instead of sleeping.
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
	assert.Less(t, time.Since(start), time.Second)
}
