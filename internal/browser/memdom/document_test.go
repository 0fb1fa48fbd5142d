// internal/browser/memdom/document_test.go
package memdom

import (
	"context"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

const fixture = `<html><body>
<div id="city" class="sapMInput">
  <input id="city-inner" type="text" value="Paris">
  <div class="sapMToken">Berlin</div>
  <div class="sapMToken">Rome</div>
</div>
<textarea id="notes">first line</textarea>
<ul id="list">
  <li class="item"><span>  Berlin  </span></li>
  <li class="item">Paris</li>
  <li class="item" hidden>Oslo</li>
  <li class="item" data-offscreen>Lima</li>
</ul>
<button id="save" disabled>Save</button>
<button id="covered" data-covered>Covered</button>
<div id="styled" style="display: none"><span id="inside">x</span></div>
<form>
  <input id="r1" type="radio" name="g" checked>
  <input id="r2" type="radio" name="g">
  <input id="cb" type="checkbox">
</form>
<input id="ro" type="text" readonly value="fixed">
<select id="sel"><option value="a">A</option><option value="b" selected>B</option></select>
</body></html>`

func newDoc(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseString(fixture, zaptest.NewLogger(t))
	require.NoError(t, err)
	return doc
}

func queryOne(t *testing.T, doc *Document, desc schemas.Descriptor) schemas.Element {
	t.Helper()
	els, err := doc.Query(context.Background(), desc)
	require.NoError(t, err)
	require.Len(t, els, 1, "expected exactly one match for %s", desc)
	return els[0]
}

func TestQuery(t *testing.T) {
	doc := newDoc(t)
	ctx := context.Background()

	t.Run("document order", func(t *testing.T) {
		els, err := doc.Query(ctx, schemas.Descriptor{Selector: "li.item"})
		require.NoError(t, err)
		assert.Len(t, els, 4)
	})

	t.Run("exact normalized text", func(t *testing.T) {
		els, err := doc.Query(ctx, schemas.Descriptor{Selector: "li", Text: "Berlin"})
		require.NoError(t, err)
		require.Len(t, els, 1)
		text, err := els[0].GetText(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Berlin", text)

		els, err = doc.Query(ctx, schemas.Descriptor{Selector: "li", Text: "Ber"})
		require.NoError(t, err)
		assert.Empty(t, els, "text is an exact match, not a substring")
	})

	t.Run("parent scope", func(t *testing.T) {
		desc := schemas.Descriptor{Selector: "span", Parent: &schemas.Descriptor{Selector: "li", Text: "Berlin"}}
		els, err := doc.Query(ctx, desc)
		require.NoError(t, err)
		assert.Len(t, els, 1)

		desc.Parent.Text = "Paris"
		els, err = doc.Query(ctx, desc)
		require.NoError(t, err)
		assert.Empty(t, els)
	})

	t.Run("invalid selector", func(t *testing.T) {
		_, err := doc.Query(ctx, schemas.Descriptor{Selector: "li:hover"})
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := doc.Query(cctx, schemas.Descriptor{Selector: "li"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPredicates(t *testing.T) {
	doc := newDoc(t)
	ctx := context.Background()

	tests := []struct {
		name                                     string
		desc                                     schemas.Descriptor
		visible, inViewport, clickable, selected bool
	}{
		{"plain input", schemas.ByID("city-inner"), true, true, true, false},
		{"hidden attribute", schemas.Descriptor{Selector: "li", Text: "Oslo"}, false, false, false, false},
		{"offscreen", schemas.Descriptor{Selector: "li", Text: "Lima"}, true, false, true, false},
		{"disabled", schemas.ByID("save"), true, true, false, false},
		{"covered", schemas.ByID("covered"), true, true, false, false},
		{"display none ancestor", schemas.ByID("inside"), false, false, false, false},
		{"checked radio", schemas.ByID("r1"), true, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := queryOne(t, doc, tt.desc)
			exists, err := el.Exists(ctx)
			require.NoError(t, err)
			assert.True(t, exists)

			visible, err := el.IsVisible(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.visible, visible, "visible")

			inViewport, err := el.IsVisibleInViewport(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.inViewport, inViewport, "in viewport")

			clickable, err := el.IsClickable(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.clickable, clickable, "clickable")

			selected, err := el.IsSelected(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.selected, selected, "selected")
		})
	}
}

func TestScrollIntoView(t *testing.T) {
	doc := newDoc(t)
	ctx := context.Background()
	el := queryOne(t, doc, schemas.Descriptor{Selector: "li", Text: "Lima"})

	require.NoError(t, el.ScrollIntoView(ctx))
	inViewport, err := el.IsVisibleInViewport(ctx)
	require.NoError(t, err)
	assert.True(t, inViewport)
}

func TestClick(t *testing.T) {
	ctx := context.Background()

	t.Run("focuses first field of a wrapper", func(t *testing.T) {
		doc := newDoc(t)
		require.NoError(t, queryOne(t, doc, schemas.ByID("city")).Click(ctx))

		active, err := doc.ActiveElement(ctx)
		require.NoError(t, err)
		id, ok, err := active.GetAttribute(ctx, "id")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "city-inner", id)
		assert.Equal(t, 1, doc.Stats().Clicks)
	})

	t.Run("covered element is intercepted", func(t *testing.T) {
		doc := newDoc(t)
		err := queryOne(t, doc, schemas.ByID("covered")).Click(ctx)
		assert.ErrorIs(t, err, schemas.ErrClickIntercepted)
		assert.Contains(t, err.Error(), "is not clickable at point")
	})

	t.Run("armed interception expires", func(t *testing.T) {
		doc := newDoc(t)
		require.NoError(t, doc.InterceptClicks("#cb", 1, "<div class=\"busy\">"))
		el := queryOne(t, doc, schemas.ByID("cb"))

		err := el.Click(ctx)
		require.ErrorIs(t, err, schemas.ErrClickIntercepted)
		assert.Contains(t, err.Error(), "busy")

		require.NoError(t, el.Click(ctx))
		selected, err := el.IsSelected(ctx)
		require.NoError(t, err)
		assert.True(t, selected)
	})

	t.Run("radio group", func(t *testing.T) {
		doc := newDoc(t)
		require.NoError(t, queryOne(t, doc, schemas.ByID("r2")).Click(ctx))
		r1, err := queryOne(t, doc, schemas.ByID("r1")).IsSelected(ctx)
		require.NoError(t, err)
		r2, err := queryOne(t, doc, schemas.ByID("r2")).IsSelected(ctx)
		require.NoError(t, err)
		assert.False(t, r1)
		assert.True(t, r2)
	})

	t.Run("hooks run for descendants", func(t *testing.T) {
		doc := newDoc(t)
		var fired []string
		require.NoError(t, doc.OnClick("#city", func(target, root *html.Node) {
			fired = append(fired, target.Data)
			require.NoError(t, AppendHTML(FindByID(root, "list"), `<li class="item">Madrid</li>`))
		}))
		require.NoError(t, queryOne(t, doc, schemas.ByID("city-inner")).Click(ctx))
		assert.Equal(t, []string{"input"}, fired)

		els, err := doc.Query(ctx, schemas.Descriptor{Selector: "li", Text: "Madrid"})
		require.NoError(t, err)
		assert.Len(t, els, 1)
	})
}

func TestValues(t *testing.T) {
	ctx := context.Background()
	doc := newDoc(t)

	t.Run("input round trip", func(t *testing.T) {
		el := queryOne(t, doc, schemas.ByID("city-inner"))
		require.NoError(t, el.SetValue(ctx, "Lisbon"))
		v, err := el.GetValue(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Lisbon", v)
		require.NoError(t, el.ClearValue(ctx))
		v, err = el.GetValue(ctx)
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("textarea round trip", func(t *testing.T) {
		el := queryOne(t, doc, schemas.ByID("notes"))
		require.NoError(t, el.SetValue(ctx, "line one\nline two"))
		v, err := el.GetValue(ctx)
		require.NoError(t, err)
		assert.Equal(t, "line one\nline two", v)
	})

	t.Run("select reads selected option", func(t *testing.T) {
		v, err := queryOne(t, doc, schemas.ByID("sel")).GetValue(ctx)
		require.NoError(t, err)
		assert.Equal(t, "b", v)
	})

	t.Run("not editable", func(t *testing.T) {
		for _, id := range []string{"save", "list", "ro", "cb"} {
			err := queryOne(t, doc, schemas.ByID(id)).SetValue(ctx, "x")
			assert.ErrorIs(t, err, schemas.ErrInvalidElementState, id)
			assert.Contains(t, err.Error(), "invalid element state")
		}
	})

	t.Run("dropped writes", func(t *testing.T) {
		el := queryOne(t, doc, schemas.ByID("city-inner"))
		require.NoError(t, el.SetValue(ctx, "before"))
		doc.FailWrites(1)
		require.NoError(t, el.SetValue(ctx, "after"))
		v, _ := el.GetValue(ctx)
		assert.Equal(t, "before", v)
		require.NoError(t, el.SetValue(ctx, "after"))
		v, _ = el.GetValue(ctx)
		assert.Equal(t, "after", v)
	})
}

func TestStaleElement(t *testing.T) {
	ctx := context.Background()
	doc := newDoc(t)
	el := queryOne(t, doc, schemas.ByID("notes"))

	doc.Mutate(func(root *html.Node) { Detach(FindByID(root, "notes")) })

	exists, err := el.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = el.IsVisible(ctx)
	assert.ErrorIs(t, err, schemas.ErrStaleElement)
	assert.ErrorIs(t, el.Click(ctx), schemas.ErrStaleElement)
	assert.ErrorIs(t, el.SetValue(ctx, "x"), schemas.ErrStaleElement)
}

func TestContains(t *testing.T) {
	ctx := context.Background()
	doc := newDoc(t)
	city := queryOne(t, doc, schemas.ByID("city"))
	inner := queryOne(t, doc, schemas.ByID("city-inner"))
	notes := queryOne(t, doc, schemas.ByID("notes"))

	ok, err := city.Contains(ctx, inner)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = city.Contains(ctx, city)
	require.NoError(t, err)
	assert.False(t, ok, "a node does not contain itself")

	ok, err = inner.Contains(ctx, city)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = city.Contains(ctx, notes)
	require.NoError(t, err)
	assert.False(t, ok)

	other := newDoc(t)
	_, err = city.Contains(ctx, queryOne(t, other, schemas.ByID("city-inner")))
	assert.Error(t, err)
}

func TestSendKeys(t *testing.T) {
	ctx := context.Background()

	t.Run("typing appends, select-all replaces", func(t *testing.T) {
		doc := newDoc(t)
		el := queryOne(t, doc, schemas.ByID("city-inner"))
		require.NoError(t, el.Click(ctx))

		require.NoError(t, doc.SendKeys(ctx, "!", "?"))
		v, _ := el.GetValue(ctx)
		assert.Equal(t, "Paris!?", v)

		require.NoError(t, doc.SendKeys(ctx, schemas.KeyControl, "a"))
		require.NoError(t, doc.SendKeys(ctx, "X"))
		v, _ = el.GetValue(ctx)
		assert.Equal(t, "X", v)
	})

	t.Run("backspace deletes characters then tokens", func(t *testing.T) {
		doc := newDoc(t)
		el := queryOne(t, doc, schemas.ByID("city-inner"))
		require.NoError(t, el.Click(ctx))
		require.NoError(t, el.SetValue(ctx, "ab"))

		require.NoError(t, doc.SendKeys(ctx, schemas.KeyBackspace, schemas.KeyBackspace, schemas.KeyBackspace))
		v, _ := el.GetValue(ctx)
		assert.Empty(t, v)

		tokens, err := doc.Query(ctx, schemas.Descriptor{Selector: ".sapMToken"})
		require.NoError(t, err)
		require.Len(t, tokens, 1)
		text, _ := tokens[0].GetText(ctx)
		assert.Equal(t, "Berlin", text)
	})

	t.Run("select-all then backspace removes every token", func(t *testing.T) {
		doc := newDoc(t)
		require.NoError(t, queryOne(t, doc, schemas.ByID("city")).Click(ctx))
		require.NoError(t, doc.SendKeys(ctx, schemas.KeyMeta, "a"))
		require.NoError(t, doc.SendKeys(ctx, schemas.KeyBackspace))

		tokens, err := doc.Query(ctx, schemas.Descriptor{Selector: ".sapMToken"})
		require.NoError(t, err)
		assert.Empty(t, tokens)
		v, _ := queryOne(t, doc, schemas.ByID("city-inner")).GetValue(ctx)
		assert.Empty(t, v)
	})

	t.Run("key hooks see the focused element", func(t *testing.T) {
		doc := newDoc(t)
		var keys []schemas.Key
		var targets []string
		doc.OnKey(func(key schemas.Key, target, root *html.Node) {
			keys = append(keys, key)
			if target != nil {
				targets = append(targets, target.Data)
			}
		})
		require.NoError(t, doc.SendKeys(ctx, schemas.KeyEnter))
		require.NoError(t, queryOne(t, doc, schemas.ByID("notes")).Click(ctx))
		require.NoError(t, doc.SendKeys(ctx, schemas.KeyF4))

		assert.Equal(t, []schemas.Key{schemas.KeyEnter, schemas.KeyF4}, keys)
		assert.Equal(t, []string{"textarea"}, targets)
		assert.Equal(t, 2, doc.Stats().Keys)
	})
}

func TestActiveElementDefaultsToBody(t *testing.T) {
	doc := newDoc(t)
	active, err := doc.ActiveElement(context.Background())
	require.NoError(t, err)
	tag, err := active.TagName(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "body", tag)
}

func TestBlankInputsAndCountTokens(t *testing.T) {
	ctx := context.Background()

	decode := func(t *testing.T, raw []byte) schemas.BlankResult {
		t.Helper()
		var res schemas.BlankResult
		require.NoError(t, jsoniter.Unmarshal(raw, &res))
		return res
	}

	t.Run("container with input and tokens", func(t *testing.T) {
		doc := newDoc(t)
		raw, err := doc.RunInPageScript(ctx, schemas.ScriptBlankInputsAndCountTokens, "city", "")
		require.NoError(t, err)
		assert.Equal(t, schemas.BlankResult{Editable: 1, Tokens: 2}, decode(t, raw))
		v, _ := queryOne(t, doc, schemas.ByID("city-inner")).GetValue(ctx)
		assert.Empty(t, v)
	})

	t.Run("container is itself a textarea", func(t *testing.T) {
		doc := newDoc(t)
		raw, err := doc.RunInPageScript(ctx, schemas.ScriptBlankInputsAndCountTokens, "notes", ".sapMToken")
		require.NoError(t, err)
		assert.Equal(t, schemas.BlankResult{Editable: 1}, decode(t, raw))
	})

	t.Run("nothing editable", func(t *testing.T) {
		doc := newDoc(t)
		raw, err := doc.RunInPageScript(ctx, schemas.ScriptBlankInputsAndCountTokens, "list", "")
		require.NoError(t, err)
		assert.Equal(t, 0, decode(t, raw).Editable)
	})

	t.Run("unknown container", func(t *testing.T) {
		doc := newDoc(t)
		_, err := doc.RunInPageScript(ctx, schemas.ScriptBlankInputsAndCountTokens, "missing")
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("unknown script", func(t *testing.T) {
		doc := newDoc(t)
		_, err := doc.RunInPageScript(ctx, schemas.Script("rm -rf"))
		assert.Error(t, err)
	})
}
