// internal/browser/playwright/driver_test.go
package playwright

import (
	"context"
	"errors"
	"testing"
	"time"

	pw "github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingKeyboard struct {
	calls  []string
	failOn string
}

func (k *recordingKeyboard) record(call string) error {
	k.calls = append(k.calls, call)
	if call == k.failOn {
		return errors.New("keyboard detached")
	}
	return nil
}

func (k *recordingKeyboard) Down(key string) error { return k.record("down " + key) }
func (k *recordingKeyboard) Up(key string) error   { return k.record("up " + key) }
func (k *recordingKeyboard) Press(key string, _ ...pw.KeyboardPressOptions) error {
	return k.record("press " + key)
}

func TestSendChord(t *testing.T) {
	t.Run("SelectAllChord", func(t *testing.T) {
		kb := &recordingKeyboard{}
		require.NoError(t, sendChord(kb, []schemas.Key{schemas.KeyControl, "a"}))
		assert.Equal(t, []string{"down Control", "press a", "up Control"}, kb.calls)
	})

	t.Run("ModifiersReleasedInReverse", func(t *testing.T) {
		kb := &recordingKeyboard{}
		require.NoError(t, sendChord(kb, []schemas.Key{schemas.KeyControl, schemas.KeyShift, schemas.KeyArrowLeft}))
		assert.Equal(t, []string{"down Control", "down Shift", "press ArrowLeft", "up Shift", "up Control"}, kb.calls)
	})

	t.Run("PlainKeys", func(t *testing.T) {
		kb := &recordingKeyboard{}
		require.NoError(t, sendChord(kb, []schemas.Key{schemas.KeyF4, schemas.KeyEnter}))
		assert.Equal(t, []string{"press F4", "press Enter"}, kb.calls)
	})

	t.Run("FailureStillReleasesModifiers", func(t *testing.T) {
		kb := &recordingKeyboard{failOn: "press a"}
		err := sendChord(kb, []schemas.Key{schemas.KeyMeta, "a"})
		assert.ErrorContains(t, err, "keyboard detached")
		assert.Equal(t, []string{"down Meta", "press a", "up Meta"}, kb.calls)
	})
}

func TestLaunchOptions(t *testing.T) {
	opts := LaunchOptions(config.BrowserConfig{Headless: true, Args: []string{"--lang=de-DE"}})
	require.NotNil(t, opts.Headless)
	assert.True(t, *opts.Headless)
	assert.Contains(t, opts.Args, "--no-sandbox")
	assert.Equal(t, "--lang=de-DE", opts.Args[len(opts.Args)-1])
}

func TestAwait(t *testing.T) {
	t.Run("ReturnsResult", func(t *testing.T) {
		v, err := await(context.Background(), func() (int, error) { return 42, nil })
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("StopsWaitingOnCancel", func(t *testing.T) {
		release := make(chan struct{})
		finished := make(chan struct{})
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := await(ctx, func() (int, error) {
			defer close(finished)
			<-release
			return 1, nil
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)

		close(release)
		<-finished
	})
}
