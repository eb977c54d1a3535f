package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack_Push(t *testing.T) {
	assert := assert.New(t)

	s := NewStack(make([]Value, 4))
	assert.True(s.Empty())
	assert.False(s.Full())

	assert.True(s.Push(0x12345678))
	assert.False(s.Empty())
	assert.Equal(1, s.Len())
	assert.Equal(Value(0x12345678), s.Data[0])
}

func TestStack_Pop(t *testing.T) {
	assert := assert.New(t)

	s := NewStack(make([]Value, 4))
	s.Push(0x1234)
	s.Push(-0x5678)

	val, ok := s.Pop()
	assert.True(ok)
	assert.Equal(Value(-0x5678), val)
	assert.Equal(1, s.Len())

	val, ok = s.Pop()
	assert.True(ok)
	assert.Equal(Value(0x1234), val)
	assert.Equal(0, s.Len())
}

func TestStack_Pop_Empty(t *testing.T) {
	assert := assert.New(t)

	s := NewStack(make([]Value, 4))
	val, ok := s.Pop()
	assert.False(ok)
	assert.Equal(Value(0), val)
	assert.Equal(0, s.Pointer)
}

func TestStack_Peek(t *testing.T) {
	assert := assert.New(t)

	s := NewStack(make([]ProgramAddress, 4))
	s.Push(10)
	s.Push(20)

	val, ok := s.Peek(0)
	assert.True(ok)
	assert.Equal(ProgramAddress(20), val)

	val, ok = s.Peek(1)
	assert.True(ok)
	assert.Equal(ProgramAddress(10), val)

	_, ok = s.Peek(2)
	assert.False(ok)
	_, ok = s.Peek(-1)
	assert.False(ok)

	assert.Equal(2, s.Len())
}

func TestStack_Swap(t *testing.T) {
	assert := assert.New(t)

	s := NewStack(make([]Value, 4))
	assert.False(s.Swap())

	s.Push(1)
	assert.False(s.Swap())

	s.Push(2)
	assert.True(s.Swap())
	assert.Equal([]Value{2, 1, 0, 0}, s.Data)
	assert.Equal(2, s.Len())
}

func TestStack_Capacity(t *testing.T) {
	assert := assert.New(t)

	s := NewStack(make([]Value, 16))
	assert.Equal(16, s.Cap())

	for i := range 16 {
		assert.False(s.Full())
		assert.True(s.Push(Value(i)))
	}

	assert.True(s.Full())
	assert.False(s.Push(99))
	assert.Equal(16, s.Len())
	assert.Equal(Value(15), s.Data[15])
}

func TestStack_Reset(t *testing.T) {
	assert := assert.New(t)

	s := NewStack(make([]Value, 2))
	s.Push(0x1234)
	s.Push(0x5678)

	s.Reset()
	assert.True(s.Empty())
	assert.Equal([]Value{0, 0}, s.Data)
	assert.Equal(2, s.Cap())
}

func TestStack_ZeroCapacity(t *testing.T) {
	assert := assert.New(t)

	var s Stack[Value]
	assert.True(s.Empty())
	assert.True(s.Full())
	assert.False(s.Push(1))
}
