// internal/browser/locator/resolver_test.go
package locator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/browser/memdom"
	"github.com/xkilldash9x/steadyhand/internal/mocks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const page = `<html><body>
<button id="go">Go</button>
<button id="later" hidden>Later</button>
<button id="off" disabled>Off</button>
<ul><li>one</li><li>two</li></ul>
</body></html>`

func newPage(t *testing.T) *memdom.Document {
	t.Helper()
	doc, err := memdom.ParseString(page, zaptest.NewLogger(t))
	require.NoError(t, err)
	return doc
}

func TestResolve_ImmediateMatch(t *testing.T) {
	doc := newPage(t)
	r := New(doc, 10*time.Millisecond, zaptest.NewLogger(t))

	start := time.Now()
	el, err := r.Resolve(context.Background(), schemas.ByID("go"), 0, time.Second, schemas.Clickable)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	text, err := el.GetText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Go", text)
}

func TestResolve_IndexSelectsNthMatch(t *testing.T) {
	doc := newPage(t)
	r := New(doc, 10*time.Millisecond, zaptest.NewLogger(t))

	el, err := r.Resolve(context.Background(), schemas.Descriptor{Selector: "li"}, 1, time.Second, schemas.Exists)
	require.NoError(t, err)
	text, _ := el.GetText(context.Background())
	assert.Equal(t, "two", text)
}

func TestResolve_IndexBeyondMatchesIsNotFound(t *testing.T) {
	doc := newPage(t)
	r := New(doc, 10*time.Millisecond, zaptest.NewLogger(t))

	_, err := r.Resolve(context.Background(), schemas.Descriptor{Selector: "li"}, 5, 50*time.Millisecond, schemas.Exists)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 5, nf.Index)
	assert.Equal(t, 2, nf.Matches)
	assert.Contains(t, err.Error(), "at index 5")
}

func TestResolve_NotFoundTimingBounds(t *testing.T) {
	doc := newPage(t)
	interval := 20 * time.Millisecond
	timeout := 150 * time.Millisecond
	r := New(doc, interval, zaptest.NewLogger(t))

	start := time.Now()
	_, err := r.Resolve(context.Background(), schemas.ByID("missing"), 0, timeout, schemas.Exists)
	elapsed := time.Since(start)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, timeout, nf.Timeout)
	assert.Contains(t, err.Error(), timeout.String())
	assert.Contains(t, err.Error(), "missing")
	assert.GreaterOrEqual(t, elapsed, timeout)
	// Generous upper bound: one poll interval plus scheduling slack.
	assert.Less(t, elapsed, timeout+interval+200*time.Millisecond)
}

func TestResolve_MatchedButNeverReadyIsTimeout(t *testing.T) {
	doc := newPage(t)
	r := New(doc, 10*time.Millisecond, zaptest.NewLogger(t))

	_, err := r.Resolve(context.Background(), schemas.ByID("off"), 0, 60*time.Millisecond, schemas.Clickable)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, schemas.Clickable, te.Readiness)
	assert.Contains(t, err.Error(), "clickable")

	var nf *NotFoundError
	assert.False(t, errors.As(err, &nf))
}

func TestResolve_WaitsForElementToAppear(t *testing.T) {
	doc := newPage(t)
	r := New(doc, 10*time.Millisecond, zaptest.NewLogger(t))

	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(80 * time.Millisecond)
		doc.Mutate(func(root *html.Node) {
			memdom.RemoveAttr(memdom.FindByID(root, "later"), "hidden")
		})
	}()

	el, err := r.Resolve(context.Background(), schemas.ByID("later"), 0, 2*time.Second, schemas.Visible)
	<-done
	require.NoError(t, err)
	visible, err := el.IsVisible(context.Background())
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestResolve_ZeroTimeoutProbesOnce(t *testing.T) {
	d := new(mocks.MockDriver)
	d.On("Query", mock.Anything, mock.Anything).Return([]schemas.Element{}, nil).Once()
	r := New(d, 10*time.Millisecond, zaptest.NewLogger(t))

	_, err := r.Resolve(context.Background(), schemas.ByID("x"), 0, 0, schemas.Exists)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	d.AssertExpectations(t)
}

func TestResolve_TransientErrorsKeepPolling(t *testing.T) {
	d := new(mocks.MockDriver)
	el := new(mocks.MockElement)
	var calls atomic.Int32

	d.On("Query", mock.Anything, mock.Anything).Return([]schemas.Element{el}, nil)
	el.On("IsVisible", mock.Anything).Return(false, schemas.ErrStaleElement).Twice()
	el.On("IsVisible", mock.Anything).Run(func(mock.Arguments) { calls.Add(1) }).Return(true, nil)

	r := New(d, 5*time.Millisecond, zaptest.NewLogger(t))
	got, err := r.Resolve(context.Background(), schemas.ByID("x"), 0, time.Second, schemas.Visible)
	require.NoError(t, err)
	assert.Same(t, el, got)
	assert.EqualValues(t, 1, calls.Load())
}

func TestResolve_TimeoutCarriesLastCause(t *testing.T) {
	d := new(mocks.MockDriver)
	el := new(mocks.MockElement)
	d.On("Query", mock.Anything, mock.Anything).Return([]schemas.Element{el}, nil)
	el.On("IsClickable", mock.Anything).Return(false, schemas.ErrStaleElement)

	r := New(d, 5*time.Millisecond, zaptest.NewLogger(t))
	_, err := r.Resolve(context.Background(), schemas.ByID("x"), 0, 30*time.Millisecond, schemas.Clickable)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, schemas.ErrStaleElement)
}

func TestResolve_QueryErrorsBeforeAnyMatchAreNotFound(t *testing.T) {
	d := new(mocks.MockDriver)
	queryErr := errors.New("cdp: connection reset")
	d.On("Query", mock.Anything, mock.Anything).Return(nil, queryErr)

	r := New(d, 5*time.Millisecond, zaptest.NewLogger(t))
	_, err := r.Resolve(context.Background(), schemas.ByID("x"), 0, 20*time.Millisecond, schemas.Exists)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.ErrorIs(t, err, queryErr)
}

func TestResolve_ContextCancellation(t *testing.T) {
	doc := newPage(t)
	r := New(doc, 10*time.Millisecond, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := r.Resolve(ctx, schemas.ByID("missing"), 0, 10*time.Second, schemas.Exists)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "missing")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestResolve_RejectsBadArguments(t *testing.T) {
	r := New(new(mocks.MockDriver), 0, nil)
	assert.Equal(t, DefaultPollInterval, r.Interval())

	_, err := r.Resolve(context.Background(), schemas.ByID("x"), -1, time.Second, schemas.Exists)
	assert.ErrorContains(t, err, "negative index")

	_, err = r.Resolve(context.Background(), schemas.ByID("x"), 0, time.Second, schemas.Readiness(9))
	assert.ErrorContains(t, err, "unknown readiness")
}
