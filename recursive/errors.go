package recursive

import (
	"errors"
	"fmt"

	"github.com/hupe1980/plsom/som"
)

var (
	// ErrAlreadyCoupled is returned when a layer is coupled twice.
	ErrAlreadyCoupled = errors.New("layer already coupled")

	// ErrNotStateless is returned when a session is requested from a map
	// that keeps its excitations internally.
	ErrNotStateless = errors.New("map is not stateless")
)

func invalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", som.ErrInvalidState, fmt.Sprintf(format, args...))
}
