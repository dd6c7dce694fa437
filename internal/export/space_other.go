//go:build !linux && !darwin

package export

import "errors"

func availableBytes(string) (uint64, error) {
	return 0, errors.New("free space unknown on this platform")
}
