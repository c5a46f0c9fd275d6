package util

// Stack is a LIFO of values. The zero value is an empty stack.
type Stack[A any] struct {
	items []A
}

func (s *Stack[A]) Push(v ...A) {
	s.items = append(s.items, v...)
}

func (s *Stack[A]) Pop() (ret A, ok bool) {
	if len(s.items) == 0 {
		return ret, false
	}
	last := len(s.items) - 1
	ret = s.items[last]
	s.items = s.items[:last]
	return ret, true
}
