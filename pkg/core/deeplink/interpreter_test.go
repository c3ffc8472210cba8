package deeplink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpreter_Parse(t *testing.T) {
	interp := NewInterpreter("", "")

	tests := []struct {
		name     string
		url      string
		wantOK   bool
		token    string
		fromName string
		listName string
	}{
		{"scheme with query", "grocerylist://invite?token=abc&from=Ann&list=Weekly", true, "abc", "Ann", "Weekly"},
		{"scheme with path token", "grocerylist://invite/abc?fromName=Ann&listName=Weekly", true, "abc", "Ann", "Weekly"},
		{"triple slash", "grocerylist:///invite/abc", true, "abc", "", ""},
		{"scheme case insensitive", "GroceryList://INVITE?token=abc", true, "abc", "", ""},
		{"web link path", "https://grocery.app/invite/abc?inviter=Bob&name=Party", true, "abc", "Bob", "Party"},
		{"web link query", "https://www.grocery.app/invite?token=abc", true, "abc", "", ""},
		{"token trimmed", "grocerylist://invite?token=%20abc%20", true, "abc", "", ""},
		{"escaped path token", "grocerylist://invite/a%2Fb", false, "", "", ""},
		{"missing token", "grocerylist://invite?from=Ann", false, "", "", ""},
		{"blank token", "grocerylist://invite?token=%20%20", false, "", "", ""},
		{"other path", "grocerylist://lists/42", false, "", "", ""},
		{"extra segments", "grocerylist://invite/abc/extra", false, "", "", ""},
		{"foreign host", "https://evil.example/invite/abc", false, "", "", ""},
		{"foreign scheme", "ftp://grocery.app/invite/abc", false, "", "", ""},
		{"empty", "", false, "", "", ""},
		{"whitespace", "   ", false, "", "", ""},
		{"random text", "hello there", false, "", "", ""},
		{"broken escape", "grocerylist://invite?token=%zz", false, "", "", ""},
		{"control chars", "grocerylist://inv\x00ite", false, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				payload Payload
				ok      bool
			)
			require.NotPanics(t, func() { payload, ok = interp.Parse(tt.url) })
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Empty(t, payload.Token)
				return
			}
			assert.Equal(t, tt.token, payload.Token)
			assert.Equal(t, tt.fromName, payload.FromName)
			assert.Equal(t, tt.listName, payload.ListName)
		})
	}
}

func TestInterpreter_Expires(t *testing.T) {
	interp := NewInterpreter("grocerylist", "grocery.app")
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	p, ok := interp.Parse("grocerylist://invite?token=t&expires=2024-05-01T12:00:00Z")
	require.True(t, ok)
	require.NotNil(t, p.Expires)
	assert.True(t, want.Equal(*p.Expires))

	p, ok = interp.Parse("grocerylist://invite?token=t&expires=1714564800")
	require.True(t, ok)
	require.NotNil(t, p.Expires)
	assert.True(t, want.Equal(*p.Expires))

	p, ok = interp.Parse("grocerylist://invite?token=t&expires=1714564800000")
	require.True(t, ok)
	require.NotNil(t, p.Expires)
	assert.True(t, want.Equal(*p.Expires))

	p, ok = interp.Parse("grocerylist://invite?token=t&expires=tomorrow")
	require.True(t, ok)
	assert.Nil(t, p.Expires)
}

func TestInterpreter_DoesNotEvaluateExpiry(t *testing.T) {
	interp := NewInterpreter("", "")

	p, ok := interp.Parse("grocerylist://invite?token=t&expires=2000-01-01T00:00:00Z")
	require.True(t, ok)
	assert.True(t, p.IsExpired(time.Now()))
	assert.False(t, Payload{Token: "t"}.IsExpired(time.Now()))
}

func TestInterpreter_CustomScheme(t *testing.T) {
	interp := NewInterpreter("shoplist", "shop.example")

	_, ok := interp.Parse("grocerylist://invite?token=t")
	assert.False(t, ok)

	p, ok := interp.Parse("shoplist://invite?token=t")
	assert.True(t, ok)
	assert.Equal(t, "t", p.Token)

	_, ok = interp.Parse("https://shop.example:8443/invite/t")
	assert.True(t, ok)
}
