package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPlatformRegistry_Embedded(t *testing.T) {
	r, err := LoadPlatformRegistry()
	require.NoError(t, err)
	require.NotEmpty(t, r.Platforms)

	blinkit := r.ByID("blinkit")
	require.NotNil(t, blinkit)
	assert.Equal(t, "Blinkit", blinkit.Name)
	assert.NotEmpty(t, blinkit.SearchURL)
}

func TestPlatformRegistry_ByIDTrimsWhitespace(t *testing.T) {
	r, err := LoadPlatformRegistry()
	require.NoError(t, err)
	assert.NotNil(t, r.ByID("  zepto "))
	assert.Nil(t, r.ByID("nonexistent"))
}

func TestSearchTarget_EncodesQuery(t *testing.T) {
	p := Platform{ID: "blinkit", Name: "Blinkit", SearchURL: "https://blinkit.com/s/?q=%s"}
	target, ok := p.SearchTarget("basmati rice 5kg")
	require.True(t, ok)
	assert.Equal(t, "https://blinkit.com/s/?q=basmati+rice+5kg", target)
}

func TestSearchTarget_NoTemplate(t *testing.T) {
	p := Platform{ID: "dmart", Name: "DMart Ready"}
	_, ok := p.SearchTarget("milk")
	assert.False(t, ok)
}

func TestParsePlatformRegistry_DuplicateID(t *testing.T) {
	data := []byte(`
platforms:
  - id: a
    name: A
  - id: a
    name: Also A
`)
	_, err := parsePlatformRegistry(data)
	assert.Error(t, err)
}

func TestParsePlatformRegistry_MissingName(t *testing.T) {
	data := []byte(`
platforms:
  - id: a
`)
	_, err := parsePlatformRegistry(data)
	assert.Error(t, err)
}
