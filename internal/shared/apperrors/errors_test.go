package apperrors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct{ n int }

func (s *sample) Error() string { return fmt.Sprintf("sample %d", s.n) }
func (s *sample) Kind() Kind    { return KindConflict }
func (s *sample) Code() string  { return "SAMPLE" }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"sentinel", NotFound("X_NOT_FOUND", "x not found"), KindNotFound},
		{"wrapped sentinel", fmt.Errorf("load: %w", Precondition("P", "p")), KindPrecondition},
		{"typed", &sample{n: 1}, KindConflict},
		{"wrapped typed", fmt.Errorf("outer: %w", &sample{n: 2}), KindConflict},
		{"plain", fmt.Errorf("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "SAMPLE", CodeOf(fmt.Errorf("w: %w", &sample{})))
	assert.Equal(t, "INTERNAL_ERROR", CodeOf(fmt.Errorf("plain")))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("A", "a")))
	assert.True(t, IsConflict(&sample{}))
	assert.True(t, IsInvalid(Invalid("B", "b")))
	assert.True(t, IsForbidden(Forbidden("C", "c")))
	assert.False(t, IsInvariant(NotFound("A", "a")))
}
