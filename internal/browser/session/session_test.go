// internal/browser/session/session_test.go
package session

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// hasOption inspects the printed form of the allocator options; it avoids
// launching a browser.
func hasOption(opts []chromedp.ExecAllocatorOption, substring string) bool {
	for _, opt := range opts {
		if strings.Contains(fmt.Sprintf("%#v", opt), substring) {
			return true
		}
	}
	return false
}

func TestAllocatorOptions(t *testing.T) {
	base := len(chromedp.DefaultExecAllocatorOptions)

	t.Run("Defaults", func(t *testing.T) {
		opts := AllocatorOptions(config.BrowserConfig{Headless: true})
		assert.Greater(t, len(opts), base)
	})

	t.Run("ViewportAddsWindowSize", func(t *testing.T) {
		without := AllocatorOptions(config.BrowserConfig{})
		with := AllocatorOptions(config.BrowserConfig{Viewport: map[string]int{"width": 800, "height": 600}})
		assert.Len(t, with, len(without)+1)
	})

	t.Run("CustomArgs", func(t *testing.T) {
		without := AllocatorOptions(config.BrowserConfig{})
		with := AllocatorOptions(config.BrowserConfig{Args: []string{"--lang=de-DE", "--mute-audio"}})
		assert.Len(t, with, len(without)+2)
	})
}

func TestKeyEvents(t *testing.T) {
	t.Run("PrintableKeyTypesText", func(t *testing.T) {
		events, err := keyEvents("x", schemas.ModNone)
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, input.KeyDown, events[0].Type)
		assert.Equal(t, input.KeyChar, events[1].Type)
		assert.Equal(t, "x", events[1].Text)
		assert.Equal(t, input.KeyUp, events[2].Type)
	})

	t.Run("NamedKeys", func(t *testing.T) {
		for k, name := range map[schemas.Key]string{
			schemas.KeyEnter:      "Enter",
			schemas.KeyBackspace:  "Backspace",
			schemas.KeyF4:         "F4",
			schemas.KeyArrowRight: "ArrowRight",
			schemas.KeyEscape:     "Escape",
		} {
			events, err := keyEvents(k, schemas.ModNone)
			require.NoError(t, err, k)
			assert.Equal(t, name, events[0].Key, k)
		}
	})

	t.Run("ControlChordIsShortcut", func(t *testing.T) {
		events, err := keyEvents("a", schemas.ModCtrl)
		require.NoError(t, err)
		require.Len(t, events, 2)
		for _, ev := range events {
			assert.NotEqual(t, input.KeyChar, ev.Type)
			assert.Empty(t, ev.Text)
			assert.NotZero(t, ev.Modifiers&input.ModifierCtrl)
		}
		assert.Equal(t, []string{"selectAll"}, events[0].Commands)
		assert.Empty(t, events[1].Commands)
	})

	t.Run("ShiftStillTypes", func(t *testing.T) {
		events, err := keyEvents("b", schemas.ModShift)
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.NotZero(t, events[1].Modifiers&input.ModifierShift)
	})

	t.Run("MultiCharacterKeyRejected", func(t *testing.T) {
		_, err := keyEvents("PageDown", schemas.ModNone)
		assert.ErrorContains(t, err, "cannot encode key")
	})
}

// TestSession_Live drives a real Chrome. It runs only when
// STEADYHAND_BROWSER_TESTS is set and a browser is installed.
func TestSession_Live(t *testing.T) {
	if os.Getenv("STEADYHAND_BROWSER_TESTS") == "" {
		t.Skip("set STEADYHAND_BROWSER_TESTS to run against a local Chrome")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s, err := New(ctx, config.BrowserConfig{Headless: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()

	page := `<html><body>
		<div id="f1"><input id="f1-inner" value="old"></div>
		<button id="go" onclick="document.getElementById('f1-inner').value='clicked'">Go</button>
	</body></html>`
	require.NoError(t, s.Navigate(ctx, "data:text/html,"+url.PathEscape(page)))

	found, err := s.Query(ctx, schemas.Descriptor{Selector: "button", Text: "Go"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	clickable, err := found[0].IsClickable(ctx)
	require.NoError(t, err)
	assert.True(t, clickable)
	require.NoError(t, found[0].Click(ctx))

	inputs, err := s.Query(ctx, schemas.Descriptor{Selector: "input", Parent: &schemas.Descriptor{Selector: "#f1"}})
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	v, err := inputs[0].GetValue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "clicked", v)

	raw, err := s.RunInPageScript(ctx, schemas.ScriptBlankInputsAndCountTokens, "f1", ".token")
	require.NoError(t, err)
	assert.JSONEq(t, `{"editable":1,"tokens":0}`, string(raw))

	assert.ErrorIs(t, found[0].SetValue(ctx, "x"), schemas.ErrInvalidElementState)
}
