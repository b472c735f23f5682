package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		kind     ErrorKind
		context  string
		cause    error
		expected string
	}{
		{
			name:     "unspecified kind",
			kind:     KindUnspecified,
			context:  "reading superblock",
			cause:    errors.New("invalid signature"),
			expected: "reading superblock: invalid signature",
		},
		{
			name:     "kind-tagged",
			kind:     KindMalformedRecord,
			context:  "parsing line 3",
			cause:    errors.New("bad checksum nibble"),
			expected: "parsing line 3: malformed-record: bad checksum nibble",
		},
		{
			name:     "empty context",
			kind:     KindUnspecified,
			context:  "",
			cause:    errors.New("some error"),
			expected: ": some error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &Error{Kind: tt.kind, Context: tt.context, Cause: tt.cause}
			require.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name    string
		context string
		cause   error
		wantNil bool
	}{
		{name: "wrap non-nil error", context: "reading data", cause: errors.New("IO error"), wantNil: false},
		{name: "wrap nil error returns nil", context: "some operation", cause: nil, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapError(tt.context, tt.cause)

			if tt.wantNil {
				require.Nil(t, err)
				return
			}

			require.NotNil(t, err)

			var e *Error
			ok := errors.As(err, &e)
			require.True(t, ok, "error should be *Error")
			require.Equal(t, tt.context, e.Context)
			require.Equal(t, tt.cause, e.Cause)
			require.Equal(t, KindUnspecified, e.Kind)
		})
	}
}

func TestWrapKind(t *testing.T) {
	cause := errors.New("declared 0x41 computed 0x40")
	err := WrapKind(KindChecksumMismatch, "line 1", cause)
	require.NotNil(t, err)

	var e *Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, KindChecksumMismatch, e.Kind)
	require.Contains(t, err.Error(), "checksum-mismatch")

	require.Nil(t, WrapKind(KindChecksumMismatch, "line 1", nil))
}

func TestError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrapped := WrapError("context", originalErr)

	require.NotNil(t, wrapped)
	require.Equal(t, originalErr, errors.Unwrap(wrapped))
}

func TestError_ErrorsIs(t *testing.T) {
	originalErr := errors.New("specific error")
	wrapped := WrapError("first level", originalErr)
	doubleWrapped := WrapError("second level", wrapped)

	require.True(t, errors.Is(doubleWrapped, originalErr))
	require.True(t, errors.Is(wrapped, originalErr))
}

func TestError_SentinelKindMatch(t *testing.T) {
	err := WrapKind(KindOutOfRange, "index()", errors.New("index 40 >= length 10"))

	require.True(t, errors.Is(err, Sentinel(KindOutOfRange)))
	require.False(t, errors.Is(err, Sentinel(KindDuplicateKey)))
}

func TestError_ErrorsAs(t *testing.T) {
	originalErr := errors.New("base error")
	wrapped := WrapError("context", originalErr)

	var e *Error
	require.True(t, errors.As(wrapped, &e))
	require.Equal(t, "context", e.Context)
	require.Equal(t, originalErr, e.Cause)
}

func TestWrapError_ChainedWrapping(t *testing.T) {
	baseErr := errors.New("base error")
	level1 := WrapError("level 1", baseErr)
	level2 := WrapError("level 2", level1)
	level3 := WrapError("level 3", level2)

	require.NotNil(t, level3)

	errMsg := level3.Error()
	require.Contains(t, errMsg, "level 3")
	require.Contains(t, errMsg, "level 2")

	require.True(t, errors.Is(level3, baseErr))

	var e *Error
	require.True(t, errors.As(level3, &e))
	require.Equal(t, "level 3", e.Context)

	unwrapped1 := errors.Unwrap(level3)
	require.True(t, errors.As(unwrapped1, &e))
	require.Equal(t, "level 2", e.Context)

	unwrapped2 := errors.Unwrap(unwrapped1)
	require.True(t, errors.As(unwrapped2, &e))
	require.Equal(t, "level 1", e.Context)

	unwrapped3 := errors.Unwrap(unwrapped2)
	require.Equal(t, baseErr, unwrapped3)
}

func TestWrapError_RealWorldScenarios(t *testing.T) {
	t.Run("file reading error", func(t *testing.T) {
		ioErr := errors.New("unexpected EOF")
		err := WrapKind(KindUnexpectedEOF, "reading ELF header", ioErr)

		require.NotNil(t, err)
		require.Contains(t, err.Error(), "reading ELF header")
		require.Contains(t, err.Error(), "unexpected EOF")
		require.True(t, errors.Is(err, ioErr))
	})

	t.Run("parsing error chain", func(t *testing.T) {
		parseErr := errors.New("invalid format")
		lineErr := WrapKind(KindMalformedRecord, "parsing line 4", parseErr)
		fileErr := WrapError("loading file", lineErr)

		require.NotNil(t, fileErr)
		require.True(t, errors.Is(fileErr, parseErr))
		require.Contains(t, fileErr.Error(), "loading file")
	})

	t.Run("nil error in chain", func(t *testing.T) {
		var baseErr error
		wrapped := WrapError("some context", baseErr)

		require.Nil(t, wrapped, "wrapping nil should return nil")
	})
}

func TestNewKind(t *testing.T) {
	err := NewKind(KindUnimplemented, "64-bit ELF loading")

	var e *Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, KindUnimplemented, e.Kind)
	require.Contains(t, err.Error(), "unimplemented")
	require.True(t, errors.Is(err, Sentinel(KindUnimplemented)))
}

func BenchmarkWrapError(b *testing.B) {
	baseErr := errors.New("base error")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = WrapError("context", baseErr)
	}
}

func BenchmarkWrapErrorNil(b *testing.B) {
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = WrapError("context", nil)
	}
}
