package coords

import (
	"errors"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	l, err := Parse("[0.0 0.4 0.5 0.0]", "[0 0 1 1]")
	require.NoError(t, err)
	require.Equal(t, 4, l.Len())
	assert.Equal(t, r2.Point{X: 0.4, Y: 0}, l.At(1))
	assert.Equal(t, r2.Point{X: 0.5, Y: 1}, l.At(2))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		x, y string
	}{
		{"MissingOpen", "0 1 2]", "[0 1 2]"},
		{"MissingClose", "[0 1 2", "[0 1 2]"},
		{"Nested", "[0 [1] 2]", "[0 1 2]"},
		{"TrailingJunk", "[0 1 2] 3", "[0 1 2]"},
		{"NotANumber", "[0 one 2]", "[0 1 2]"},
		{"NaN", "[0 NaN 2]", "[0 1 2]"},
		{"Infinite", "[0 1 2]", "[0 +Inf 2]"},
		{"LengthMismatch", "[0 1 2]", "[0 1]"},
		{"CommaDelimited", "[0,1,2]", "[0 1 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.x, tt.y)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFormat))

			var ferr *FormatError
			assert.True(t, errors.As(err, &ferr))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		x, y string
	}{
		{"[0.0 0.4 0.5 0.0]", "[0.0 0.0 1.0 1.0]"},
		{"[0 1 1 0]", "[0 0 1 1]"},
		{"[-12.5 1e3 3.14159265358979]", "[7 -0.000001 42.0]"},
		{"[]", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.x, func(t *testing.T) {
			l, err := Parse(tt.x, tt.y)
			require.NoError(t, err)
			x, y := l.Format()
			assert.Equal(t, tt.x, x)
			assert.Equal(t, tt.y, y)
		})
	}

	t.Run("WhitespaceNormalised", func(t *testing.T) {
		l, err := Parse("  [ 0   1  2 ] ", "[0 1 2 ]")
		require.NoError(t, err)
		x, y := l.Format()
		assert.Equal(t, "[0 1 2]", x)
		assert.Equal(t, "[0 1 2]", y)
	})
}

func TestFormatNewPoints(t *testing.T) {
	l := New(r2.Point{X: 0, Y: 1}, r2.Point{X: 0.4, Y: 2.25})
	x, y := l.Format()
	assert.Equal(t, "[0.0 0.4]", x)
	assert.Equal(t, "[1.0 2.25]", y)

	back, err := Parse(x, y)
	require.NoError(t, err)
	assert.Equal(t, l.Points(), back.Points())
}

func TestEditDropsLexeme(t *testing.T) {
	l, err := Parse("[0 1]", "[0 1]")
	require.NoError(t, err)

	l.Set(1, r2.Point{X: 2, Y: 3})
	x, y := l.Format()
	assert.Equal(t, "[0 2.0]", x)
	assert.Equal(t, "[0 3.0]", y)
}

func TestClose(t *testing.T) {
	l := New(r2.Point{X: 0, Y: 0}, r2.Point{X: 1, Y: 0}, r2.Point{X: 1, Y: 1})
	assert.False(t, l.IsClosed())

	l.Close()
	assert.True(t, l.IsClosed())
	assert.Equal(t, 4, l.Len())

	l.Close()
	assert.Equal(t, 4, l.Len(), "closing twice is a no-op")

	empty := &List{}
	empty.Close()
	assert.Equal(t, 0, empty.Len())
}

func TestMutation(t *testing.T) {
	l := New(r2.Point{X: 0, Y: 0}, r2.Point{X: 2, Y: 2})
	l.Insert(1, r2.Point{X: 1, Y: 1})
	assert.Equal(t, []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}, l.Points())

	c := l.Clone()
	l.Remove(0)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 3, c.Len())
}

func TestFromXY(t *testing.T) {
	l, err := FromXY([]float64{0, 1}, []float64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, r2.Point{X: 1, Y: 3}, l.At(1))

	_, err = FromXY([]float64{0}, nil)
	assert.True(t, errors.Is(err, ErrFormat))
}
