package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("db down")

	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"plain error is internal", cause, KindInternal},
		{"nil is internal", nil, KindInternal},
		{"direct", NotFound("article not found"), KindNotFound},
		{"wrapped with fmt", fmt.Errorf("delete: %w", NotAuthorized("not the author")), KindNotAuthorized},
		{"outermost wins", Wrap(KindUnauthenticated, "invalid credentials", Wrap(KindCorruptCredential, "bad hash", cause)), KindUnauthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindIdentityStoreUnavailable, "identity store unavailable", cause)

	assert.Equal(t, "identity_store_unavailable: identity store unavailable: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "identity store unavailable", ReasonOf(fmt.Errorf("resolve: %w", err)))
	assert.True(t, Is(err, KindIdentityStoreUnavailable))
	assert.False(t, Is(err, KindUnauthenticated))

	assert.Equal(t, "conflict: username taken", Conflict("username taken").Error())
	assert.Equal(t, "kind(200)", Kind(200).String())
}
