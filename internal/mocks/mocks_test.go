// internal/mocks/mocks_test.go
package mocks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/mocks"
)

func TestMockDriver_NilReturns(t *testing.T) {
	d := new(mocks.MockDriver)
	boom := errors.New("boom")
	d.On("Query", mock.Anything, mock.Anything).Return(nil, boom)
	d.On("ActiveElement", mock.Anything).Return(nil, boom)
	d.On("RunInPageScript", mock.Anything, schemas.ScriptBlankInputsAndCountTokens, []any{"id"}).
		Return(`{"editable":1,"tokens":0}`, nil)

	els, err := d.Query(context.Background(), schemas.ByID("x"))
	assert.Nil(t, els)
	assert.ErrorIs(t, err, boom)

	el, err := d.ActiveElement(context.Background())
	assert.Nil(t, el)
	assert.ErrorIs(t, err, boom)

	raw, err := d.RunInPageScript(context.Background(), schemas.ScriptBlankInputsAndCountTokens, "id")
	require.NoError(t, err)
	assert.JSONEq(t, `{"editable":1,"tokens":0}`, string(raw))
	d.AssertExpectations(t)
}

func TestMockElement_Attribute(t *testing.T) {
	el := new(mocks.MockElement)
	el.On("GetAttribute", mock.Anything, "id").Return("city", true, nil)

	v, ok, err := el.GetAttribute(context.Background(), "id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "city", v)
}
