package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadInputSubmitsLines(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
	)
	submit := func(_ context.Context, line string) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, line)
		if line == "fails" {
			return errors.New("channel not connected")
		}
		return nil
	}

	var out bytes.Buffer
	done := make(chan struct{})
	go func() {
		readInput(context.Background(), strings.NewReader("hello\n\n  \nfails\nbye\n"), submit, &out)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("readInput did not return at end of input")
	}
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"hello", "fails", "bye"}, sent)
	assert.Contains(t, out.String(), "not sent: channel not connected")
}

func TestTailFlags(t *testing.T) {
	require.NotNil(t, tailCmd.Flags().Lookup("ws"))
	require.NotNil(t, sendCmd.Flags().Lookup("client-id"))
	assert.Equal(t, "http://localhost:8080", envOr("CHAT_TEST_UNSET_VAR", "http://localhost:8080"))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short"))
	assert.Equal(t, "a b", preview("a\nb"))
	long := strings.Repeat("x", 50)
	assert.Equal(t, strings.Repeat("x", 37)+"...", preview(long))
}
