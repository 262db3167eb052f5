//go:build !linux

package notify

// New returns Disabled outside Linux.
func New() (Notifier, error) {
	return Disabled{}, nil
}
