package vm

// Stack is a fixed capacity stack over a caller supplied buffer.
// Pointer is the index of the next free slot; the top of the stack is
// Data[Pointer-1].
type Stack[T any] struct {
	Data    []T
	Pointer int
}

// NewStack creates a stack whose capacity is the length of buffer.
func NewStack[T any](buffer []T) Stack[T] {
	return Stack[T]{Data: buffer}
}

// Push pushes a value, and returns false if the stack is full.
func (s *Stack[T]) Push(value T) (ok bool) {
	if s.Full() {
		return
	}

	s.Data[s.Pointer] = value
	s.Pointer++
	ok = true
	return
}

// Pop removes and returns the top value.
func (s *Stack[T]) Pop() (value T, ok bool) {
	value, ok = s.Peek(0)
	if ok {
		s.Pointer--
	}
	return
}

// Peek returns the value depth slots below the top without removing it.
// Peek(0) is the top.
func (s *Stack[T]) Peek(depth int) (value T, ok bool) {
	if depth < 0 || depth >= s.Pointer {
		return
	}

	return s.Data[s.Pointer-1-depth], true
}

// Swap exchanges the two topmost values, and returns false if there are
// fewer than two.
func (s *Stack[T]) Swap() (ok bool) {
	if s.Pointer < 2 {
		return
	}

	top := s.Pointer - 1
	s.Data[top], s.Data[top-1] = s.Data[top-1], s.Data[top]
	ok = true
	return
}

// Len returns the number of values on the stack.
func (s *Stack[T]) Len() int {
	return s.Pointer
}

// Cap returns the capacity of the stack.
func (s *Stack[T]) Cap() int {
	return len(s.Data)
}

func (s *Stack[T]) Empty() bool {
	return s.Pointer == 0
}

func (s *Stack[T]) Full() bool {
	return s.Pointer >= len(s.Data)
}

// Reset empties the stack and zeroes its storage.
func (s *Stack[T]) Reset() {
	clear(s.Data)
	s.Pointer = 0
}
