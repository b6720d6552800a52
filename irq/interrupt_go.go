//go:build !tinygo

package irq

// hwDisable is a no-op on regular Go: the Controller mask is the only mask.
func hwDisable() {}

// hwEnable is a no-op on regular Go.
func hwEnable() {}
