package ingest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yunhan0/recall/internal/log"
)

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "cardiology.txt", "cardiology"},
		{"underscores", "iv_push_basics.md", "iv push basics"},
		{"hyphens", "beta-blockers.pdf", "beta blockers"},
		{"mixed separators", "week_3-pharm_notes.txt", "week 3 pharm notes"},
		{"path stripped", "uploads/deep/ecg_basics.txt", "ecg basics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titleFromFilename(tt.in))
		})
	}
}

func TestLockFor_SameFilenameSharesLock(t *testing.T) {
	p := New(nil, nil, nil, nil, nil, nil, log.NewNop())

	assert.Same(t, p.lockFor("notes.txt"), p.lockFor("notes.txt"))
	assert.NotSame(t, p.lockFor("notes.txt"), p.lockFor("other.txt"))
}

func TestLockFor_ConcurrentAccess(t *testing.T) {
	p := New(nil, nil, nil, nil, nil, nil, log.NewNop())

	var wg sync.WaitGroup
	locks := make([]*sync.Mutex, 50)
	for i := range locks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks[i] = p.lockFor("notes.txt")
		}()
	}
	wg.Wait()

	for _, lock := range locks {
		assert.Same(t, locks[0], lock)
	}
}
