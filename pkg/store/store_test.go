package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	s := New(8)
	require.Equal(t, 8, s.Capacity())
	for i, b := range []byte("HELLO") {
		s.Write(i, b)
	}
	require.Equal(t, byte('H'), s.Read(0))
	require.Equal(t, byte('O'), s.Read(4))
	require.Equal(t, Sentinel, s.Read(5))
}

func TestTruncation(t *testing.T) {
	s := New(4)
	for i := 0; i < 10; i++ {
		s.Write(i, byte('a'+i))
	}
	require.Equal(t, uint64(6), s.Dropped())
	require.Equal(t, byte('d'), s.Read(3))
	require.Equal(t, Sentinel, s.Read(4))
	require.Equal(t, Sentinel, s.Read(100))
}

func TestNegativeIndex(t *testing.T) {
	s := New(4)
	s.Write(-1, 'x')
	require.Equal(t, uint64(1), s.Dropped())
	require.Equal(t, Sentinel, s.Read(-1))
}

func TestClear(t *testing.T) {
	s := New(4)
	for i := 0; i < 6; i++ {
		s.Write(i, 0x42)
	}
	s.Clear()
	require.Equal(t, uint64(0), s.Dropped())
	for i := 0; i < s.Capacity(); i++ {
		require.Equal(t, Sentinel, s.Read(i))
	}
}

func TestDefaultCapacity(t *testing.T) {
	require.Equal(t, DefaultCapacity, New(0).Capacity())
}
