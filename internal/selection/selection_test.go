package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basketwise/compare-cli/internal/model"
)

func testRegistry(t *testing.T) *model.PlatformRegistry {
	t.Helper()
	r, err := model.LoadPlatformRegistry()
	require.NoError(t, err)
	return r
}

func TestValidate_OK(t *testing.T) {
	err := Validate("400001", []string{"blinkit", "zepto"}, testRegistry(t))
	assert.NoError(t, err)
}

func TestValidate_InvalidPincode(t *testing.T) {
	r := testRegistry(t)
	for _, pincode := range []string{"04000", "004001", "abcdef", ""} {
		err := Validate(pincode, []string{"blinkit"}, r)
		assert.ErrorIs(t, err, model.ErrInvalidPincode, "pincode %q", pincode)
	}
}

func TestValidate_NoPlatformSelected(t *testing.T) {
	err := Validate("400001", nil, testRegistry(t))
	assert.ErrorIs(t, err, model.ErrNoPlatformSelected)
}

func TestValidate_TooManyPlatforms(t *testing.T) {
	ids := []string{"blinkit", "zepto", "instamart", "bbnow", "dmart"}
	err := Validate("400001", ids, testRegistry(t))
	assert.ErrorIs(t, err, model.ErrTooManyPlatforms)
}

func TestValidate_UnknownPlatform(t *testing.T) {
	err := Validate("400001", []string{"blinkit", "grofers"}, testRegistry(t))
	assert.ErrorIs(t, err, model.ErrUnknownPlatform)
}

func TestSelection_ToggleTwiceRestoresState(t *testing.T) {
	var s Selection
	require.NoError(t, s.Toggle("blinkit"))
	assert.True(t, s.Selected("blinkit"))

	require.NoError(t, s.Toggle("blinkit"))
	assert.False(t, s.Selected("blinkit"))
	assert.Equal(t, 0, s.Len())
}

func TestSelection_FifthToggleRejected(t *testing.T) {
	var s Selection
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Toggle(id))
	}

	err := s.Toggle("e")
	assert.ErrorIs(t, err, model.ErrTooManyPlatforms)
	assert.Equal(t, []string{"a", "b", "c", "d"}, s.IDs())

	// Deselecting past the cap still works.
	require.NoError(t, s.Toggle("b"))
	assert.Equal(t, []string{"a", "c", "d"}, s.IDs())
}

func TestSelection_IDsReturnsCopy(t *testing.T) {
	var s Selection
	require.NoError(t, s.Toggle("a"))
	ids := s.IDs()
	ids[0] = "mutated"
	assert.Equal(t, []string{"a"}, s.IDs())
}
