package component

// streamTimeoutError signals that no completion arrived within the stream
// wait window.
type streamTimeoutError struct{}

func (streamTimeoutError) Error() string {
	return "streaming timed out waiting for completion"
}

// IsStreamTimeout reports whether err is the stream wait timeout.
func IsStreamTimeout(err error) bool {
	_, ok := err.(streamTimeoutError)
	return ok
}

// stopGeneration is returned from token hooks to halt the engine. Engines
// treat any hook error as a stop request; this one marks a cooperative
// stop rather than a failure.
type stopGenerationError struct{}

func (stopGenerationError) Error() string { return "generation stopped" }

func isStopGeneration(err error) bool {
	_, ok := err.(stopGenerationError)
	return ok
}
