package config

import (
	"testing"

	"r6-tracker/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestParseRoster(t *testing.T) {
	data := []byte(`
main:
  platform: psn
  username: Alice
allies:
  - platform: xbox
    username: Bob
  - platform: ubisoft
    username: Carol
`)

	roster, err := ParseRoster(data)
	require.NoError(t, err)
	require.Equal(t, "Alice", roster.Main.Username)
	require.Equal(t, domain.PlatformPSN, roster.Main.Platform)
	require.Len(t, roster.Allies, 2)
	require.Equal(t, domain.PlatformXbox, roster.Allies[0].Platform)
}

func TestParseRosterInvalidPlatform(t *testing.T) {
	data := []byte(`
main:
  platform: switch
  username: Alice
`)

	_, err := ParseRoster(data)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid platform")
}

func TestParseRosterMissingMain(t *testing.T) {
	data := []byte(`
allies:
  - platform: psn
    username: Bob
`)

	_, err := ParseRoster(data)
	require.Error(t, err)
}

func TestParseRosterTooManyAllies(t *testing.T) {
	data := []byte(`
main:
  platform: psn
  username: Alice
allies:
  - {platform: psn, username: A}
  - {platform: psn, username: B}
  - {platform: psn, username: C}
  - {platform: psn, username: D}
  - {platform: psn, username: E}
`)

	_, err := ParseRoster(data)
	require.Error(t, err)
}
