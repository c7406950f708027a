package util

// Stack is a LIFO stack. The zero value is an empty stack.
type Stack[A any] struct {
	items []A
}

func (s *Stack[A]) Push(v A) {
	s.items = append(s.items, v)
}

func (s *Stack[A]) Pop() (ret A, ok bool) {
	if len(s.items) <= 0 {
		return ret, false
	}
	lastIndex := len(s.items) - 1
	defer func() {
		s.items = s.items[:lastIndex]
	}()
	return s.items[len(s.items)-1], true
}

// Peek returns the top of the stack without removing it
func (s *Stack[A]) Peek() (ret A, ok bool) {
	if len(s.items) == 0 {
		return ret, false
	}
	return s.items[len(s.items)-1], true
}

// Items returns the elements from the bottom of the stack to the top.
// The slice is only valid until the next Push or Pop.
func (s *Stack[A]) Items() []A {
	return s.items
}

func (s *Stack[A]) Len() int {
	return len(s.items)
}
