package metadata

import "errors"

var (
	ErrNoCredentials = errors.New("spotify client credentials are not configured")
	ErrEmptyPlaylist = errors.New("playlist has no playable tracks")
	ErrNoResults     = errors.New("no playable url found")
)
