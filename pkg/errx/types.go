package errx

// Type categorizes an error for transport mapping and logging.
type Type string

const (
	// TypeInternal is an unexpected server-side failure.
	TypeInternal Type = "INTERNAL"

	// TypeValidation is a malformed or incomplete request.
	TypeValidation Type = "VALIDATION"

	// TypeNotFound is a missing resource.
	TypeNotFound Type = "NOT_FOUND"

	// TypeConflict is a state conflict with an existing resource.
	TypeConflict Type = "CONFLICT"

	// TypeBusiness is a domain rule violation.
	TypeBusiness Type = "BUSINESS"

	// TypeExternal is a failure reported by an upstream service
	// (mail store, submission provider, object storage).
	TypeExternal Type = "EXTERNAL"
)

// String returns the string form of the type.
func (t Type) String() string {
	return string(t)
}
