package proclog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_AppendAndRecent(t *testing.T) {
	l := New(10)

	for i := 0; i < 3; i++ {
		l.Append(Entry{Layer: "quality", Message: fmt.Sprintf("entry %d", i)})
	}

	recent := l.Recent(2)
	require.Len(t, recent, 2)
	// 时间升序：最后一条是最新的
	assert.Equal(t, "entry 1", recent[0].Message)
	assert.Equal(t, "entry 2", recent[1].Message)
	assert.False(t, recent[0].Timestamp.IsZero())
}

func TestLog_CapacityEviction(t *testing.T) {
	l := New(5)

	for i := 0; i < 20; i++ {
		l.Append(Entry{Layer: "spectral", Message: fmt.Sprintf("entry %d", i)})
	}

	assert.Equal(t, 5, l.Len())
	all := l.Recent(0)
	require.Len(t, all, 5)
	assert.Equal(t, "entry 15", all[0].Message)
	assert.Equal(t, "entry 19", all[4].Message)
}

func TestLog_RecentOverrequest(t *testing.T) {
	l := New(0) // 默认容量

	l.Append(Entry{Layer: "insight", Message: "only one"})

	assert.Len(t, l.Recent(100), 1)
	assert.Empty(t, New(3).Recent(10))
}
