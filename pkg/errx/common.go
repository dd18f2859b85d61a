package errx

// Shorthand constructors for errors that don't need a registered code.

// Internal creates an internal server error.
func Internal(message string) *Error {
	return New(message, TypeInternal)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(message, TypeValidation)
}

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(message, TypeNotFound)
}

// External creates an upstream service error.
func External(message string) *Error {
	return New(message, TypeExternal)
}
