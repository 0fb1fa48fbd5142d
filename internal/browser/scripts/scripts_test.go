// internal/browser/scripts/scripts_test.go
package scripts

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

func TestChain(t *testing.T) {
	root := schemas.Descriptor{Selector: "div.popup"}
	item := schemas.Descriptor{Selector: "li", Text: "Berlin", Parent: &root}
	desc := schemas.Descriptor{Selector: "input[type=checkbox]", Parent: &item}

	want := []Step{
		{Selector: "div.popup"},
		{Selector: "li", Text: "Berlin"},
		{Selector: "input[type=checkbox]"},
	}
	if diff := cmp.Diff(want, Chain(desc)); diff != "" {
		t.Errorf("Chain() mismatch (-want +got):\n%s", diff)
	}
}

func TestInvocation(t *testing.T) {
	expr, err := Invocation("function(a, b) { return a + b; }", "x\"y", 2)
	require.NoError(t, err)
	assert.Equal(t, `(function(a, b) { return a + b; }).apply(null, ["x\"y",2])`, expr)

	expr, err = Invocation("function() {}")
	require.NoError(t, err)
	assert.Equal(t, `(function() {}).apply(null, [])`, expr)
}

func TestLookup(t *testing.T) {
	src, err := Lookup(schemas.ScriptBlankInputsAndCountTokens)
	require.NoError(t, err)
	assert.Equal(t, BlankInputsAndCountTokens, src)

	_, err = Lookup("formatDisk")
	assert.ErrorContains(t, err, "unknown script")
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		sentinel error
		want     Result
	}{
		{name: "value", raw: `{"str":"abc"}`, want: Result{Str: "abc"}},
		{name: "point", raw: `{"x":10.5,"y":20}`, want: Result{X: 10.5, Y: 20}},
		{name: "stale", raw: `{"stale":true}`, sentinel: schemas.ErrStaleElement},
		{name: "invalid", raw: `{"invalid":"cannot set value of <button>"}`, sentinel: schemas.ErrInvalidElementState},
		{name: "intercepted", raw: `{"intercepted":"<div class=\"overlay\">","x":1,"y":2}`, sentinel: schemas.ErrClickIntercepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw), "ref-1")
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Decode([]byte("not json"), "ref-1")
	assert.ErrorContains(t, err, "failed to decode")
}

func TestIntercepted_MessageNamesObstruction(t *testing.T) {
	_, err := Decode([]byte(`{"intercepted":"<div id=\"busy\">"}`), "ref-9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not clickable at point")
	assert.Contains(t, err.Error(), `<div id="busy">`)
}
