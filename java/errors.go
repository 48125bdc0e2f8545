package java

// ApplicationError is the errorMessage some results carry next to a normal
// payload. The request itself succeeded at the JSON-RPC level; the backend
// reports that the operation could not be done.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	return "java: " + e.Message
}

func applicationError(msg string) error {
	if msg == "" {
		return nil
	}
	return &ApplicationError{Message: msg}
}
