package picontrol

import (
	"errors"
	"fmt"
)

// Kind classifies every error returned by this package.
// It is comparable and implements error, so errors.Is(err, Timeout) works
// on any *Error of that kind.
type Kind uint16

const (
	// InvalidArgument: a caller-supplied value failed a precondition.
	InvalidArgument Kind = iota + 1
	// DeviceNotFound: the queried device address does not exist.
	DeviceNotFound
	// NoEntries: the driver has no configured variables at all.
	NoEntries
	// Timeout: the bridge did not come back up after a reset.
	Timeout
	// IoFailure: the transport failed.
	IoFailure
	// ProtocolViolation: the driver returned data that cannot be valid.
	// Never clamped or truncated; not recoverable by retrying.
	ProtocolViolation
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case DeviceNotFound:
		return "device not found"
	case NoEntries:
		return "no variable entries"
	case Timeout:
		return "timeout"
	case IoFailure:
		return "io failure"
	case ProtocolViolation:
		return "protocol violation"
	default:
		return fmt.Sprintf("kind(%d)", uint16(k))
	}
}

func (k Kind) Error() string { return k.String() }

// Code returns the stable numeric code of the kind.
func (k Kind) Code() uint16 { return uint16(k) }

// Argument names used in InvalidArgument errors.
const (
	ArgAddress    = "address"
	ArgBit        = "bit"
	ArgName       = "name"
	ArgNameLength = "length of name"
	ArgBitfield   = "bitfield"
	ArgDIOAddress = "dio_address"
	ArgValue      = "value or str"
	ArgField      = "field"
	ArgPeriod     = "period"
	ArgImage      = "image"
	ArgReadOnly   = "read-only"
)

// Error carries the kind plus the context of a failed operation.
type Error struct {
	Kind Kind
	Op   string // operation, e.g. "find_variable"
	Arg  string // offending argument for InvalidArgument
	// Device is the queried address for DeviceNotFound.
	Device uint8
	Msg    string
	Err    error // underlying transport error, if any
}

func (e *Error) Error() string {
	s := e.Kind.String()
	switch e.Kind {
	case InvalidArgument:
		if e.Arg != "" {
			s = e.Arg + " was invalid"
		}
	case DeviceNotFound:
		s = fmt.Sprintf("device with address %d not found", e.Device)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	if e.Op != "" {
		s = "picontrol: " + e.Op + ": " + s
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a Kind target.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// Code returns the numeric kind, used by status reporting.
func (e *Error) Code() uint16 { return uint16(e.Kind) }

// KindOf extracts the Kind of err. It returns 0 for nil and IoFailure
// for errors that did not originate in this package.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return IoFailure
}

// IsUnknownName reports whether err is a lookup of a name the driver
// does not know.
func IsUnknownName(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == InvalidArgument && e.Arg == ArgName
}

// IsNameTooLong reports whether err rejected a name longer than
// MaxNameLen bytes.
func IsNameTooLong(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == InvalidArgument && e.Arg == ArgNameLength
}

func invalid(op, arg string) *Error {
	return &Error{Kind: InvalidArgument, Op: op, Arg: arg}
}

func ioFailure(op string, err error) *Error {
	return &Error{Kind: IoFailure, Op: op, Err: err}
}

func violation(op, format string, args ...any) *Error {
	return &Error{Kind: ProtocolViolation, Op: op, Msg: fmt.Sprintf(format, args...)}
}
