package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := WithMetadata(CodeTournamentFull, "tournament 42 is full", map[string]string{"tournament_id": "42"})

	assert.True(t, errors.Is(err, ErrTournamentFull))
	assert.False(t, errors.Is(err, ErrTournamentNotOpen))

	wrapped := fmt.Errorf("register: %w", err)
	assert.True(t, errors.Is(wrapped, ErrTournamentFull))
	assert.Equal(t, CodeTournamentFull, CodeOf(wrapped))
	assert.Equal(t, KindConflict, KindOf(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Wrap(CodeUnknown, "save snapshot", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "save snapshot: disk on fire", err.Error())
	assert.Equal(t, KindInternal, err.Kind())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("boom")))
}

func TestKindHTTPStatus(t *testing.T) {
	testCases := []struct {
		code   Code
		status int
	}{
		{CodeInvalidCapacity, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeCannotApproveOwnProposal, http.StatusForbidden},
		{CodeBracketAlreadyExists, http.StatusConflict},
		{CodeUnknown, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(string(tc.code), func(t *testing.T) {
			assert.Equal(t, tc.status, tc.code.Kind().HTTPStatus())
		})
	}
}
