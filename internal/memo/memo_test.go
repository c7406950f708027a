package memo

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

// lengthQuery sums the length of an input and the lengths of the inputs it names.
// It keeps going after an error and reports the first one.
func lengthQuery() *Query[int] {
	q := &Query[int]{Name: "length"}
	q.Compute = func(c *Ctx, arg string) (int, error) {
		text, ok := c.Input(arg)
		if !ok {
			return 0, errors.New("no input " + arg)
		}
		total := 0
		var firstErr error
		for _, word := range strings.Fields(text) {
			if !strings.HasPrefix(word, "@") {
				total += len(word)
				continue
			}
			n, err := Fetch(c, q, word[1:])
			if err != nil && firstErr == nil {
				firstErr = err
			}
			total += n
		}
		return total, firstErr
	}
	q.Recover = func(arg string, cycle []Key) (int, error) {
		args := make([]string, 0, len(cycle))
		for _, k := range cycle {
			args = append(args, k.Arg)
		}
		return -1, errors.New("cycle through " + strings.Join(args, ","))
	}
	return q
}

func TestGetCachesResults(t *testing.T) {
	e := NewEngine()
	q := lengthQuery()
	e.SetInput("a", "xx @b")
	e.SetInput("b", "yyy")

	n, err := Get(e, q, "a")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 2, e.Stats().Computed)

	n, err = Get(e, q, "a")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 2, e.Stats().Computed)
	assert.Equal(t, 1, e.Stats().Hits)
}

func TestErrorsAreCached(t *testing.T) {
	e := NewEngine()
	q := lengthQuery()

	_, err := Get(e, q, "missing")
	assert.EqualError(t, err, "no input missing")
	_, err = Get(e, q, "missing")
	assert.EqualError(t, err, "no input missing")
	assert.Equal(t, 1, e.Stats().Computed)
}

func TestSetInputInvalidatesDependents(t *testing.T) {
	e := NewEngine()
	q := lengthQuery()
	e.SetInput("a", "xx @b")
	e.SetInput("b", "yyy")
	e.SetInput("c", "z")

	_, err := Get(e, q, "a")
	require.NoError(t, err)
	_, err = Get(e, q, "c")
	require.NoError(t, err)
	require.Equal(t, 3, e.Stats().Computed)

	assert.True(t, e.SetInput("b", "yyyy"))
	n, err := Get(e, q, "a")
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	// a and b are recomputed, c is not
	_, err = Get(e, q, "c")
	require.NoError(t, err)
	assert.Equal(t, 5, e.Stats().Computed)
}

func TestSetInputWithSameValueIsNoop(t *testing.T) {
	e := NewEngine()
	q := lengthQuery()
	e.SetInput("a", "xx")

	_, err := Get(e, q, "a")
	require.NoError(t, err)
	assert.False(t, e.SetInput("a", "xx"))
	_, err = Get(e, q, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, e.Stats().Computed)
}

func TestMissingInputIsTracked(t *testing.T) {
	e := NewEngine()
	q := lengthQuery()

	_, err := Get(e, q, "a")
	require.Error(t, err)
	e.SetInput("a", "xyz")
	n, err := Get(e, q, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCycleIsRecovered(t *testing.T) {
	e := NewEngine()
	q := lengthQuery()
	e.SetInput("a", "@b")
	e.SetInput("b", "@a")

	_, err := Get(e, q, "a")
	assert.EqualError(t, err, "cycle through a,b")
	assert.Equal(t, 1, e.Stats().Recoveries)

	// b saw the recovered result of a
	_, err = Get(e, q, "b")
	assert.EqualError(t, err, "cycle through a,b")
	assert.Equal(t, 1, e.Stats().Recoveries)
}

func TestCycleRecoveredOncePerKey(t *testing.T) {
	e := NewEngine()
	q := lengthQuery()
	// a re-enters itself through b and through c
	e.SetInput("a", "@b @c")
	e.SetInput("b", "@a")
	e.SetInput("c", "@a")

	_, err := Get(e, q, "a")
	require.Error(t, err)
	assert.Equal(t, 1, e.Stats().Recoveries)
}

func TestCycleIsRecomputedAfterFix(t *testing.T) {
	e := NewEngine()
	q := lengthQuery()
	e.SetInput("a", "@b")
	e.SetInput("b", "@a")

	_, err := Get(e, q, "a")
	require.Error(t, err)

	e.SetInput("b", "bb")
	n, err := Get(e, q, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCycleWithoutRecoverPanics(t *testing.T) {
	e := NewEngine()
	q := &Query[int]{Name: "loop"}
	q.Compute = func(c *Ctx, arg string) (int, error) {
		return Fetch(c, q, arg)
	}

	assert.PanicsWithError(t, "unrecoverable query cycle: loop(x)", func() {
		_, _ = Get(e, q, "x")
	})
	// the engine is usable after the panic
	e.SetInput("a", "aaaa")
	n, err := Get(e, lengthQuery(), "a")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
