//go:build !(linux || darwin || freebsd)

package board

import (
	"errors"

	"riotgo/config"
)

// ErrNoNative is returned where no host clock backend exists.
var ErrNoNative = errors.New("board: native backend not available on this platform")

// NewNative is unavailable on this platform.
func NewNative(cfg *config.BoardConfig) (*Board, error) {
	return nil, ErrNoNative
}
