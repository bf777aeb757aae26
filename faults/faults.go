// Package faults defines errors for incorrect invocation of the token creation tool
package faults

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrMissingRequiredFlag = errors.New("required flag not provided")

var ErrKeypairNotFound = errors.New("keypair file not found")

var ErrInvalidMint = errors.New("invalid mint address provided")

var ErrInvalidDecimals = errors.New("decimals must be an integer between 0 and 255")

var ErrInvalidTokenProgram = errors.New("token program must be token or token-2022")

var ErrInvalidCommitment = errors.New("commitment must be confirmed or finalized")

var ErrMetadataTooLong = errors.New("metadata field exceeds the allowed length")

var ErrInvalidURL = errors.New("invalid node url")

var ErrInvalidTimeout = errors.New("timeout must be positive")

// FlagError is a precondition failure tied to a single command line flag.
type FlagError struct {
	// Flag name, without leading dashes
	Flag string
	// Msg shown to the operator
	Msg string
	// Kind is one of the sentinel errors above
	Kind error
}

func (e *FlagError) Error() string {
	return fmt.Sprintf("--%s: %s", e.Flag, e.Msg)
}

// Is reports whether target is the sentinel kind of this error
func (e *FlagError) Is(target error) bool {
	return e.Kind == target
}

// Unwrap returns the sentinel kind
func (e *FlagError) Unwrap() error {
	return e.Kind
}

// Missing builds the error for an absent required flag.
func Missing(flag, msg string) error {
	return &FlagError{Flag: flag, Msg: msg, Kind: ErrMissingRequiredFlag}
}

// Invalid builds the error for a flag with an unusable value.
func Invalid(flag string, kind error, msg string) error {
	return &FlagError{Flag: flag, Msg: msg, Kind: kind}
}
