package common

import "errors"

// Conversion errors, any of them aborts conversion. Phases wrap these with
// details, use errors.Is to classify.
var (
	// ErrInvalidInput indicates source is not a PDF document, detected before
	// any conversion phase starts.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedDocument indicates PDF could not be read or has no
	// extractable text.
	ErrUnsupportedDocument = errors.New("unsupported document")

	// ErrStructuringFailed indicates model service was unreachable, rejected
	// request or returned payload which does not describe a book.
	ErrStructuringFailed = errors.New("structuring failed")

	// ErrMissingCredential indicates model service credential was not
	// configured.
	ErrMissingCredential = errors.New("missing credential")

	// ErrDependencyUnavailable indicates conversion phase has no
	// implementation to delegate to.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
