// internal/domain/bridge/errors.go
package bridge

import "errors"

// Errors
var (
	// ErrNotBridgeBackend: caller is not the registry authority (Anchor code 6000).
	ErrNotBridgeBackend = errors.New("bridge: not bridge backend")

	// ErrDerivationMismatch: seeds do not reproduce the expected derived address.
	ErrDerivationMismatch = errors.New("bridge: derivation mismatch")

	ErrDuplicateInitialization = errors.New("bridge: already initialized")
	ErrBridgeNotFound          = errors.New("bridge: registry not found")
	ErrInvalidSeed             = errors.New("bridge: invalid derivation seed")
	ErrInvalidPublicKey        = errors.New("bridge: invalid public key")
	ErrInvalidHolding          = errors.New("bridge: user holding is the custody holding")
	ErrHoldingNotFound         = errors.New("bridge: holding not found")

	// ErrDuplicateRequest: correlation id already consumed for this operation.
	ErrDuplicateRequest = errors.New("bridge: duplicate request")
)

// CodeNotBridgeBackend is the custom program error number of ErrNotBridgeBackend.
const CodeNotBridgeBackend = 6000

// CollaboratorError wraps a rejection from the token or metadata service.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return "bridge: " + e.Op + " rejected: " + e.Err.Error()
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Collaborator wraps err as a CollaboratorError for op. nil stays nil.
func Collaborator(op string, err error) error {
	if err == nil {
		return nil
	}
	return &CollaboratorError{Op: op, Err: err}
}

// ReasonCode maps an operation error to its caller-facing reason code.
func ReasonCode(err error) string {
	var ce *CollaboratorError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotBridgeBackend):
		return "not_bridge_backend"
	case errors.Is(err, ErrDerivationMismatch):
		return "derivation_mismatch"
	case errors.Is(err, ErrDuplicateInitialization):
		return "duplicate_initialization"
	case errors.Is(err, ErrDuplicateRequest):
		return "duplicate_request"
	case errors.Is(err, ErrBridgeNotFound):
		return "bridge_not_found"
	case errors.Is(err, ErrHoldingNotFound):
		return "holding_not_found"
	case errors.Is(err, ErrInvalidSeed), errors.Is(err, ErrInvalidPublicKey), errors.Is(err, ErrInvalidHolding):
		return "invalid_argument"
	case errors.As(err, &ce):
		return "collaborator_failure"
	default:
		return "internal"
	}
}
