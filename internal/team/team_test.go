package team

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	all := All()
	require.Len(t, all, 13)
	assert.Equal(t, Alpine, all[0].ID)
	assert.Equal(t, Tentative, all[len(all)-1].ID)

	// Callers cannot mutate the catalog
	all[0].DisplayName = "changed"
	info, err := Lookup(Alpine)
	require.NoError(t, err)
	assert.Equal(t, "Alpine", info.DisplayName)
}

func TestLookup(t *testing.T) {
	info, err := Lookup(Decline)
	require.NoError(t, err)
	assert.Equal(t, "❌", info.Emoji)

	_, err = Lookup("sauber")
	assert.Error(t, err)
	assert.False(t, Valid("sauber"))
	assert.Equal(t, "sauber", Emoji("sauber"))
}

func TestIsDecline(t *testing.T) {
	assert.True(t, Decline.IsDecline())
	assert.False(t, Reserve.IsDecline())
	assert.False(t, Tentative.IsDecline())
}

func TestCustomID(t *testing.T) {
	eventID := "2b1f0c8e-7d7a-4b8e-9c47-1a2b3c4d5e6f"

	id, gotEvent, err := ParseCustomID(CustomID(RedBull, eventID))
	require.NoError(t, err)
	assert.Equal(t, RedBull, id)
	assert.Equal(t, eventID, gotEvent)

	for _, bad := range []string{"", "ferrari", "ferrari_", "sauber_" + eventID} {
		_, _, err := ParseCustomID(bad)
		assert.Error(t, err, bad)
	}
}
