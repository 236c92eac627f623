package schemas

import "fmt"

// WireErrorKind classifies a failure while mapping between the wire format
// and the in-memory model.
type WireErrorKind string

const (
	// ErrKindUnexpectedShape indicates the top-level JSON kind of a value
	// (string/array/object/scalar) matches none of the accepted shapes.
	ErrKindUnexpectedShape WireErrorKind = "unexpected_shape"
	// ErrKindUnknownVariant indicates a discriminator or tag value is
	// well-formed but not one of the recognized set.
	ErrKindUnknownVariant WireErrorKind = "unknown_variant"
	// ErrKindMissingField indicates a required field is absent from an object.
	ErrKindMissingField WireErrorKind = "missing_field"
	// ErrKindTypeMismatch indicates a field is present but holds the wrong
	// JSON kind, or an in-memory value has no valid wire representation.
	ErrKindTypeMismatch WireErrorKind = "type_mismatch"
	// ErrKindDepthExceeded indicates a recursive schema document claimed
	// nesting beyond the safety ceiling.
	ErrKindDepthExceeded WireErrorKind = "depth_exceeded"
)

// WireError reports a single encode/decode failure with the offending field
// path and the expected-vs-actual shape. Failures are synchronous and never
// retried by this layer.
type WireError struct {
	Kind     WireErrorKind
	Path     string
	Expected string
	Actual   string
}

func (e *WireError) Error() string {
	path := e.Path
	if path == "" {
		path = "(root)"
	}
	switch e.Kind {
	case ErrKindMissingField:
		return fmt.Sprintf("%s: missing required field", path)
	case ErrKindDepthExceeded:
		return fmt.Sprintf("%s: %s", path, e.Expected)
	default:
		return fmt.Sprintf("%s: expected %s, got %s (%s)", path, e.Expected, e.Actual, e.Kind)
	}
}

func errUnexpectedShape(path, expected, actual string) *WireError {
	return &WireError{Kind: ErrKindUnexpectedShape, Path: path, Expected: expected, Actual: actual}
}

func errUnknownVariant(path, expected, actual string) *WireError {
	return &WireError{Kind: ErrKindUnknownVariant, Path: path, Expected: expected, Actual: actual}
}

func errMissingField(path string) *WireError {
	return &WireError{Kind: ErrKindMissingField, Path: path}
}

func errTypeMismatch(path, expected, actual string) *WireError {
	return &WireError{Kind: ErrKindTypeMismatch, Path: path, Expected: expected, Actual: actual}
}

func errDepthExceeded(path string, limit int) *WireError {
	return &WireError{
		Kind:     ErrKindDepthExceeded,
		Path:     path,
		Expected: fmt.Sprintf("schema nesting exceeds the maximum depth of %d", limit),
	}
}
