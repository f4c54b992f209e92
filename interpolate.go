package formbind

import "sync"

// InterpolateFunc rewrites an error message before it is stored. node is the
// node whose validator produced the message.
type InterpolateFunc func(message string, v Validator, node *Node) string

var interpolation struct {
	mu sync.RWMutex
	fn InterpolateFunc
}

// SetInterpolateMessage installs the process-wide interpolation callback.
// Passing nil uninstalls it, which is the default. Tests that install a
// callback should uninstall it in t.Cleanup.
func SetInterpolateMessage(fn InterpolateFunc) {
	interpolation.mu.Lock()
	interpolation.fn = fn
	interpolation.mu.Unlock()
}

// InterpolateMessage returns the installed callback, or nil.
func InterpolateMessage() InterpolateFunc {
	interpolation.mu.RLock()
	defer interpolation.mu.RUnlock()
	return interpolation.fn
}

func formatMessage(fn InterpolateFunc, message string, v Validator, node *Node) string {
	if fn == nil {
		return message
	}
	return fn(message, v, node)
}
