package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDGeneratorMonotonicFromOne(t *testing.T) {
	g := &IDGenerator{}
	require.Equal(t, uint64(1), g.Next())
	require.Equal(t, uint64(2), g.Next())
	g.Reset()
	require.Equal(t, uint64(1), g.Next())
}

func TestContextConsumeMakesDead(t *testing.T) {
	c := NewContext(1, "session-a", false, nil)
	require.NoError(t, c.RecordQuality("gate", 0.9))

	q, _, err := c.Consume()
	require.NoError(t, err)
	require.Equal(t, 0.9, q["gate"])

	err = c.RecordQuality("gate", 0.1)
	require.ErrorIs(t, err, ErrConsumedContext)
}

func TestContextConsumeStrictPanicsOnReaccess(t *testing.T) {
	c := NewContext(1, "session-a", true, nil)
	_, _, err := c.Consume()
	require.NoError(t, err)

	require.Panics(t, func() {
		_, _, _ = c.Consume()
	})
}

func TestAssertInFrameNonStrict(t *testing.T) {
	err := AssertInFrame(5, 6, "caller", false, nil)
	require.ErrorIs(t, err, ErrCrossFrameLeak)

	err = AssertInFrame(5, 5, "caller", false, nil)
	require.NoError(t, err)
}

func TestReentrancyGuardBlocksSecondEntry(t *testing.T) {
	g := NewReentrancyGuard(false)
	release, err := g.Enter("process_frame")
	require.NoError(t, err)

	_, err = g.Enter("process_frame")
	require.ErrorIs(t, err, ErrReentrant)

	release()
	_, err = g.Enter("process_frame")
	require.NoError(t, err)
}

func TestReentrancyGuardStrictPanics(t *testing.T) {
	g := NewReentrancyGuard(true)
	_, err := g.Enter("apply_batch")
	require.NoError(t, err)

	require.Panics(t, func() {
		_, _ = g.Enter("apply_batch")
	})
}

func TestThreadVerifierCapturesFirstThenAsserts(t *testing.T) {
	v := NewThreadVerifier(false)
	require.NoError(t, v.Assert("token-a"))
	require.NoError(t, v.Assert("token-a"))
	require.ErrorIs(t, v.Assert("token-b"), ErrCrossFrameLeak)
}
