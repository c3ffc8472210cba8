package deeplink

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sharedPage = `<!DOCTYPE html>
<html>
<head>
  <meta property="al:ios:url" content="grocerylist://invite?token=abc&list=Weekly" />
  <meta property="al:android:url" content="grocerylist://invite?token=abc&list=Weekly" />
  <meta property="og:url" content="https://grocery.app/invite/abc" />
  <meta property="og:title" content="Join my list" />
</head>
<body>
  <a href="https://grocery.app/invite?token=def&from=Ann">Join</a>
  <a href="https://grocery.app/about">About</a>
  <a href="mailto:help@grocery.app">Help</a>
</body>
</html>`

func TestLinksFromHTML(t *testing.T) {
	links, err := LinksFromHTML(strings.NewReader(sharedPage), NewInterpreter("", ""))
	require.NoError(t, err)
	require.Len(t, links, 3)

	assert.Equal(t, "app-link", links[0].Source)
	assert.Equal(t, "abc", links[0].Payload.Token)
	assert.Equal(t, "Weekly", links[0].Payload.ListName)

	assert.Equal(t, "og:url", links[1].Source)
	assert.Equal(t, "abc", links[1].Payload.Token)

	assert.Equal(t, "anchor", links[2].Source)
	assert.Equal(t, "def", links[2].Payload.Token)
	assert.Equal(t, "Ann", links[2].Payload.FromName)
}

func TestLinksFromHTML_NoInvitations(t *testing.T) {
	links, err := LinksFromHTML(strings.NewReader(`<p>nothing here</p>`), nil)
	require.NoError(t, err)
	assert.Empty(t, links)
}
