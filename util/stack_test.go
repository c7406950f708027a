package util

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestStack(t *testing.T) {
	var s Stack[int]
	_, ok := s.Pop()
	assert.False(t, ok)

	s.Push(1)
	s.Push(2)
	top, ok := s.Peek()
	assert.True(t, ok)
	assert.Equal(t, 2, top)
	assert.Equal(t, []int{1, 2}, s.Items())

	top, _ = s.Pop()
	assert.Equal(t, 2, top)
	assert.Equal(t, 1, s.Len())
}
