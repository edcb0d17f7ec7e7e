package errors

import (
	stderrors "errors"

	"github.com/keelchain/keel/jsonx"
)

// NodeErrorCode represents standardized error codes for node operations
type NodeErrorCode string

const (
	// General errors
	ErrCodeInternal NodeErrorCode = "internal_error"

	// Genesis resolution errors
	ErrCodeIO          NodeErrorCode = "io_error"
	ErrCodeDeserialize NodeErrorCode = "deserialize_error"
	ErrCodeNotFound    NodeErrorCode = "not_found"
	ErrCodeIntegrity   NodeErrorCode = "integrity_error"

	// Storage errors
	ErrCodeStorageBackend NodeErrorCode = "storage_backend_error"

	// Chain bootstrap signal, consumed inside the bootstrap package and
	// never surfaced to callers
	ErrCodeAlreadyInitialized NodeErrorCode = "already_initialized"
)

// NodeError represents a standardized node error
type NodeError struct {
	Code    NodeErrorCode `json:"code"`
	Message string        `json:"message"`
}

// Error implements the error interface
func (e *NodeError) Error() string {
	err, _ := jsonx.Marshal(NodeError{
		Code:    e.Code,
		Message: e.Message,
	})
	return string(err)
}

// NewError creates a new NodeError and returns it as error interface
func NewError(code NodeErrorCode, message string) error {
	return &NodeError{
		Code:    code,
		Message: message,
	}
}

// CodeOf extracts the NodeErrorCode from an error, or ErrCodeInternal if the
// error does not carry one.
func CodeOf(err error) NodeErrorCode {
	var ne *NodeError
	if stderrors.As(err, &ne) {
		return ne.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code NodeErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
