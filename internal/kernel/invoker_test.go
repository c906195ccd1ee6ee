package kernel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoker_Success(t *testing.T) {
	mock := NewMock()
	inv := NewInvoker(mock)

	res, err := inv.Invoke(context.Background(), []float32{1, 2, 3}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 4, 6}, res.Output)
	assert.GreaterOrEqual(t, res.ElapsedNanos(), int64(0))
	assert.Equal(t, 1, mock.Calls())
}

func TestInvoker_PreservesLengthForEmptyInput(t *testing.T) {
	res, err := NewInvoker(NewMock()).Invoke(context.Background(), []float32{}, 1)
	require.NoError(t, err)
	assert.Len(t, res.Output, 0)
}

func TestInvoker_ErrorBecomesFault(t *testing.T) {
	mock := NewMock()
	mock.SetError("device lost")

	res, err := NewInvoker(mock).Invoke(context.Background(), []float32{1}, 1)
	require.Error(t, err)
	assert.True(t, IsFault(err))
	assert.Contains(t, err.Error(), "device lost")
	assert.Nil(t, res.Output)
}

func TestInvoker_PanicBecomesFault(t *testing.T) {
	mock := NewMock()
	mock.ShouldPanic = true

	res, err := NewInvoker(mock).Invoke(context.Background(), []float32{1, 2}, 1)
	require.Error(t, err)

	var f *Fault
	require.True(t, errors.As(err, &f))
	assert.Contains(t, f.Reason, "panicked")
	assert.Nil(t, res.Output)
}

func TestInvoker_LengthMismatchBecomesFault(t *testing.T) {
	mock := NewMock()
	mock.DropLast = true

	res, err := NewInvoker(mock).Invoke(context.Background(), []float32{1, 2}, 1)
	require.Error(t, err)
	assert.True(t, IsFault(err))
	assert.Nil(t, res.Output)
}

func TestInvoker_NoRetry(t *testing.T) {
	mock := NewMock()
	mock.SetError("boom")

	_, _ = NewInvoker(mock).Invoke(context.Background(), []float32{1}, 1)
	assert.Equal(t, 1, mock.Calls())
}

func TestInvoker_NilKernel(t *testing.T) {
	_, err := NewInvoker(nil).Invoke(context.Background(), []float32{1}, 1)
	assert.True(t, IsFault(err))
}

func TestInvoker_ElapsedFromClock(t *testing.T) {
	base := time.Unix(0, 0)
	ticks := 0
	clock := func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * 250 * time.Nanosecond)
	}

	res, err := NewInvoker(NewMock(), WithClock(clock)).Invoke(context.Background(), []float32{1}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(250), res.ElapsedNanos())
	assert.Equal(t, 2, ticks, "clock is read once before and once after the call")
}
