package q16

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMulBasic(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Scalar
		want      Scalar
		wantOverf bool
	}{
		{"one times one", One, One, One, false},
		{"half times two", One / 2, One * 2, One, false},
		{"negative times positive", -One, One, -One, false},
		{"negative times negative", -One, -One, One, false},
		{"zero", 0, One, 0, false},
		{"overflow", Max, Max, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, overflowed := Mul(tt.a, tt.b)
			require.Equal(t, tt.wantOverf, overflowed)
			if !tt.wantOverf {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDivBasic(t *testing.T) {
	got, overflowed := Div(One, One/2)
	require.False(t, overflowed)
	require.Equal(t, One*2, got)

	_, overflowed = Div(One, 0)
	require.True(t, overflowed)
}

func TestAddSubOverflow(t *testing.T) {
	_, overflowed := Add(Max, One)
	require.True(t, overflowed)

	_, overflowed = Sub(Min, One)
	require.True(t, overflowed)

	got, overflowed := Add(One, One)
	require.False(t, overflowed)
	require.Equal(t, 2*One, got)
}

func TestShiftBy(t *testing.T) {
	got, overflowed := ShiftBy(One, 1)
	require.False(t, overflowed)
	require.Equal(t, 2*One, got)

	got, overflowed = ShiftBy(One, -1)
	require.False(t, overflowed)
	require.Equal(t, One/2, got)

	_, overflowed = ShiftBy(Max, 1)
	require.True(t, overflowed)
}

func TestMedianOddEven(t *testing.T) {
	vals := []Scalar{3, 1, 2}
	require.Equal(t, Scalar(2), Median(vals))
	// Input must not be mutated.
	require.Equal(t, []Scalar{3, 1, 2}, vals)

	even := []Scalar{1, 2, 3, 4}
	require.Equal(t, Scalar(2), Median(even)) // 2 + (3-2)/2 = 2
}

func TestMAD(t *testing.T) {
	vals := []Scalar{1, 2, 3, 4, 5}
	// median = 3, deviations = [2,1,0,1,2] -> median of those = 1
	require.Equal(t, Scalar(1), MAD(vals))
}

func TestCanonicalFloat(t *testing.T) {
	require.Equal(t, CanonicalFloat(0), CanonicalFloat(negZero()))
	nan1 := CanonicalFloat(nanWithPayload(1))
	nan2 := CanonicalFloat(nanWithPayload(2))
	require.Equal(t, nan1, nan2)
}

func negZero() float64 {
	return math.Float64frombits(1 << 63)
}

func nanWithPayload(p uint64) float64 {
	return math.Float64frombits(0x7FF0000000000001 | (p << 1))
}
