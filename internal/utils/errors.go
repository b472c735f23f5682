// Package utils provides utility functions shared across the memhex library:
// buffer pooling, endian helpers, overflow-safe arithmetic and error wrapping.
package utils

import "fmt"

// ErrorKind distinguishes the error categories named by the core's error
// handling design: out-of-range addressing, malformed records, checksum
// disagreement, truncated binary input, duplicate trie keys and
// not-yet-implemented features.
type ErrorKind uint8

const (
	// KindUnspecified is used by errors that carry no further classification.
	KindUnspecified ErrorKind = iota
	// KindOutOfRange covers arithmetic or indexing outside the defined
	// domain: an address beyond 2^32, a negative size, an index >= length.
	KindOutOfRange
	// KindMalformedRecord covers a parser rejecting a line: wrong prefix,
	// wrong length, wrong nibble count, odd hex digits, unknown record type.
	KindMalformedRecord
	// KindChecksumMismatch covers a declared checksum disagreeing with the
	// computed one; configurable by the caller as error or warning.
	KindChecksumMismatch
	// KindUnexpectedEOF covers a binary reader running out of bytes
	// mid-structure, or a missing magic/signature.
	KindUnexpectedEOF
	// KindDuplicateKey names a trie insert finding the exact address
	// already occupied. No code in this module returns it: trie.Insert
	// replaces the stored value and reports the old one, and the public
	// MemoryMap insert overwrites rather than erroring.
	KindDuplicateKey
	// KindUnimplemented covers a feature not yet available, such as
	// 64-bit ELF loading.
	KindUnimplemented
)

// String renders the kind for diagnostics and test assertions.
func (k ErrorKind) String() string {
	switch k {
	case KindOutOfRange:
		return "out-of-range"
	case KindMalformedRecord:
		return "malformed-record"
	case KindChecksumMismatch:
		return "checksum-mismatch"
	case KindUnexpectedEOF:
		return "unexpected-eof"
	case KindDuplicateKey:
		return "duplicate-key"
	case KindUnimplemented:
		return "unimplemented"
	default:
		return "unspecified"
	}
}

// Error is a structured, contextual error carrying an ErrorKind alongside
// the wrapped cause.
type Error struct {
	Kind    ErrorKind
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind == KindUnspecified {
		return fmt.Sprintf("%s: %v", e.Context, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %v", e.Context, e.Kind, e.Cause)
}

// Unwrap provides compatibility with errors.Unwrap() / errors.Is() / errors.As().
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a kind sentinel (see Sentinel) matching
// this error's Kind, so callers can write errors.Is(err, utils.Sentinel(k)).
func (e *Error) Is(target error) bool {
	k, ok := target.(*kindSentinel)
	return ok && e.Kind == k.kind
}

// WrapError creates a contextual error with no specific kind. Kept for
// call sites that only need to attach a message to an opaque cause.
func WrapError(context string, cause error) error {
	return WrapKind(KindUnspecified, context, cause)
}

// WrapKind creates a contextual, kind-tagged error. Returns nil when cause
// is nil so call sites can write `return utils.WrapKind(..., err)` unconditionally.
func WrapKind(kind ErrorKind, context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Context: context, Cause: cause}
}

// NewKind creates a kind-tagged error directly from a message, with no
// separate wrapped cause.
func NewKind(kind ErrorKind, message string) error {
	return &Error{Kind: kind, Context: message, Cause: errString(message)}
}

type errString string

func (e errString) Error() string { return string(e) }

type kindSentinel struct{ kind ErrorKind }

func (k *kindSentinel) Error() string { return k.kind.String() }

// Sentinel returns a comparison target usable with errors.Is to test
// whether an error carries the given kind, regardless of message/cause:
//
//	if errors.Is(err, utils.Sentinel(utils.KindOutOfRange)) { ... }
func Sentinel(kind ErrorKind) error {
	return &kindSentinel{kind: kind}
}
