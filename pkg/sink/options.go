package sink

import "fmt"

// unknownOptionError is returned by SetOption implementations when key
// does not name a recognized option for that sink.
type unknownOptionError struct {
	sink string
	key  string
}

func (e *unknownOptionError) Error() string {
	return fmt.Sprintf("sink %q: unknown option %q", e.sink, e.key)
}
