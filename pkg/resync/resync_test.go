package resync_test

import (
	"testing"

	"github.com/md4h/prosedown/pkg/resync"
	"github.com/stretchr/testify/assert"
)

func TestOnce(t *testing.T) {
	var once resync.Once

	calls := 0
	for i := 0; i < 3; i++ {
		once.Do(func() {
			calls++
		})
	}
	assert.Equal(t, 1, calls)

	once.Reset()
	once.Do(func() {
		calls++
	})
	assert.Equal(t, 2, calls)
}
