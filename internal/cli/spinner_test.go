package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncBuffer guards a bytes.Buffer written by the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_DrawsMessage(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), "Fetching articles")
	s.w = &out
	s.Start()
	time.Sleep(3 * spinnerInterval)
	s.SetMessage("Fetching articles (page 2)")
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	got := out.String()
	assert.Contains(t, got, "Fetching articles")
	assert.Contains(t, got, "page 2")
	assert.True(t, strings.HasSuffix(got, "\r"), "line should be cleared")
	assert.False(t, s.Cancelled())
}

func TestSpinner_StopIsIdempotent(t *testing.T) {
	s := newSpinner(context.Background(), "x")
	s.w = &syncBuffer{}
	s.Start()
	assert.NotPanics(t, func() {
		s.Stop()
		s.Stop()
		s.StopWithSuccess("done")
		s.StopWithError("failed")
	})
}

func TestSpinner_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinner(ctx, "x")
	s.w = &syncBuffer{}
	s.Start()
	cancel()

	assert.True(t, s.Cancelled())
	assert.NotPanics(t, s.Stop)
}

func TestSpinner_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	s := newSpinner(ctx, "x")
	s.w = &syncBuffer{}
	s.Start()
	<-ctx.Done()
	s.Stop()
	assert.True(t, s.Cancelled())
}
