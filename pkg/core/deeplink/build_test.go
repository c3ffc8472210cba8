package deeplink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteURL_RoundTrip(t *testing.T) {
	interp := NewInterpreter("", "")
	expires := time.UnixMilli(1_900_000_000_123).UTC()
	want := Payload{Token: "tok 1", FromName: "Ana", ListName: "Weekly & more", Expires: &expires}

	for _, raw := range []string{interp.InviteURL(want), interp.WebInviteURL(want)} {
		got, ok := interp.Parse(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want.Token, got.Token)
		assert.Equal(t, want.FromName, got.FromName)
		assert.Equal(t, want.ListName, got.ListName)
		require.NotNil(t, got.Expires)
		assert.True(t, expires.Equal(*got.Expires))
	}
}

func TestInviteURL_OmitsEmptyFields(t *testing.T) {
	interp := NewInterpreter("", "")
	raw := interp.InviteURL(Payload{Token: "abc"})
	assert.Equal(t, "grocerylist://invite?token=abc", raw)

	web := interp.WebInviteURL(Payload{Token: "abc"})
	assert.Equal(t, "https://grocery.app/invite?token=abc", web)
}
