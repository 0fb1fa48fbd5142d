// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

var _ config.Interface = (*MockConfig)(nil)

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	args := m.Called()
	return args.Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Retry() config.RetryConfig {
	args := m.Called()
	return args.Get(0).(config.RetryConfig)
}

func (m *MockConfig) Interaction() config.InteractionConfig {
	args := m.Called()
	return args.Get(0).(config.InteractionConfig)
}

// --- Setters ---

func (m *MockConfig) SetRetryAttempts(n int)           { m.Called(n) }
func (m *MockConfig) SetRetryInterval(d time.Duration) { m.Called(d) }
func (m *MockConfig) SetBrowserDriver(name string)     { m.Called(name) }
func (m *MockConfig) SetBrowserHeadless(headless bool) { m.Called(headless) }

// -- UI Driver Mocks --

// MockDriver mocks schemas.Driver.
type MockDriver struct {
	mock.Mock
}

var _ schemas.Driver = (*MockDriver)(nil)

func (m *MockDriver) Query(ctx context.Context, desc schemas.Descriptor) ([]schemas.Element, error) {
	args := m.Called(ctx, desc)
	var els []schemas.Element
	if v := args.Get(0); v != nil {
		els = v.([]schemas.Element)
	}
	return els, args.Error(1)
}

func (m *MockDriver) ActiveElement(ctx context.Context) (schemas.Element, error) {
	args := m.Called(ctx)
	var el schemas.Element
	if v := args.Get(0); v != nil {
		el = v.(schemas.Element)
	}
	return el, args.Error(1)
}

func (m *MockDriver) SendKeys(ctx context.Context, keys ...schemas.Key) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *MockDriver) RunInPageScript(ctx context.Context, script schemas.Script, args ...any) (json.RawMessage, error) {
	ret := m.Called(ctx, script, args)
	var raw json.RawMessage
	if v := ret.Get(0); v != nil {
		switch r := v.(type) {
		case json.RawMessage:
			raw = r
		case []byte:
			raw = r
		case string:
			raw = json.RawMessage(r)
		}
	}
	return raw, ret.Error(1)
}

// MockElement mocks schemas.Element.
type MockElement struct {
	mock.Mock
}

var _ schemas.Element = (*MockElement)(nil)

func (m *MockElement) Exists(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) IsVisible(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) IsVisibleInViewport(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) IsClickable(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) IsSelected(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) Click(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockElement) SetValue(ctx context.Context, value string) error {
	return m.Called(ctx, value).Error(0)
}

func (m *MockElement) ClearValue(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockElement) ScrollIntoView(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockElement) GetValue(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockElement) GetText(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockElement) GetAttribute(ctx context.Context, name string) (string, bool, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockElement) TagName(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockElement) Contains(ctx context.Context, other schemas.Element) (bool, error) {
	args := m.Called(ctx, other)
	return args.Bool(0), args.Error(1)
}
