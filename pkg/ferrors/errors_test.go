package ferrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(KindInvalidArgument, "inputs must not be empty"),
			expected: "[INVALID_ARGUMENT] inputs must not be empty",
		},
		{
			name:     "with underlying error",
			err:      Wrap(KindGraphInvariant, "cannot attach producer", errors.New("already attached")),
			expected: "[GRAPH_INVARIANT] cannot attach producer: already attached",
		},
		{
			name:     "with collection id",
			err:      WithCollection(New(KindGraphInvariant, "second producing op"), "C7"),
			expected: "[GRAPH_INVARIANT] second producing op (C7)",
		},
		{
			name:     "with collection id and cause",
			err:      WithCollection(Wrap(KindGraphInvariant, "second producing op", errors.New("P3 already producer")), "C7"),
			expected: "[GRAPH_INVARIANT] second producing op (C7): P3 already producer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(KindUnsupportedOperator, "unrecognized op", underlying)

	assert.Equal(t, underlying, err.Unwrap())
}

func TestError_Is(t *testing.T) {
	err1 := New(KindGraphInvariant, "error 1")
	err2 := New(KindGraphInvariant, "error 2")
	err3 := New(KindInvalidArgument, "error 3")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestIsKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     Kind
		expected bool
	}{
		{"graph invariant", ErrGraphInvariant, KindGraphInvariant, true},
		{"wrapped graph invariant", Wrap(KindGraphInvariant, "x", errors.New("y")), KindGraphInvariant, true},
		{"other kind", ErrInvalidArgument, KindGraphInvariant, false},
		{"nil error", nil, KindGraphInvariant, false},
		{"non-optimizer error", errors.New("plain"), KindGraphInvariant, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsKind(tt.err, tt.kind))
		})
	}
}

func TestGetKind(t *testing.T) {
	assert.Equal(t, KindInvariantViolated, GetKind(ErrInvariantViolated))
	assert.Equal(t, Kind(""), GetKind(errors.New("plain")))
	assert.Equal(t, Kind(""), GetKind(nil))
}

func TestWithOp(t *testing.T) {
	base := New(KindUnsupportedOperator, "unknown variant")
	withOp := WithOp(base, "Op42")

	assert.Equal(t, "Op42", withOp.OpID)
	assert.Equal(t, "", base.OpID, "WithOp must not mutate the original")
}
