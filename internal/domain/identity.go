package domain

import (
	"fmt"
	"strings"
)

type Platform string

const (
	PlatformPSN     Platform = "psn"
	PlatformXbox    Platform = "xbox"
	PlatformUbisoft Platform = "ubisoft"
)

// ParsePlatform validates a platform token from config or API input.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformPSN:
		return PlatformPSN, nil
	case PlatformXbox:
		return PlatformXbox, nil
	case PlatformUbisoft:
		return PlatformUbisoft, nil
	default:
		return "", fmt.Errorf("invalid platform %q: use psn, xbox or ubisoft", s)
	}
}

// urlSlug maps a platform to the path segment the tracker site uses.
func (p Platform) urlSlug() string {
	switch p {
	case PlatformXbox:
		return "xbl"
	case PlatformUbisoft:
		return "ubi"
	default:
		return "psn"
	}
}

type PageKind string

const (
	PageOverview  PageKind = "overview"
	PageOperators PageKind = "operators"
)

// PlayerIdentity is an immutable (platform, username) pair. Equality and
// cache keying go through Key, which normalizes the username.
type PlayerIdentity struct {
	Platform Platform `json:"platform"`
	Username string   `json:"username"`
}

func NewPlayerIdentity(platform, username string) (PlayerIdentity, error) {
	p, err := ParsePlatform(platform)
	if err != nil {
		return PlayerIdentity{}, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return PlayerIdentity{}, fmt.Errorf("username is required")
	}
	return PlayerIdentity{Platform: p, Username: username}, nil
}

func (id PlayerIdentity) IsZero() bool {
	return id.Username == ""
}

// Key is the canonical cache/task key for the identity.
func (id PlayerIdentity) Key() string {
	return string(id.Platform) + "/" + strings.ToLower(id.Username)
}

// PageURL builds the tracker URL for one page kind of this identity.
func (id PlayerIdentity) PageURL(kind PageKind) string {
	return fmt.Sprintf("https://r6.tracker.network/r6siege/profile/%s/%s/%s?lang=en",
		id.Platform.urlSlug(), id.Username, kind)
}

func (id PlayerIdentity) String() string {
	return id.Username + " (" + strings.ToUpper(string(id.Platform)) + ")"
}
