package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodes(t *testing.T) {
	t.Run("wrapped errors keep their code through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeNotFound, "registration not found"))
		assert.True(t, HasCode(err, CodeNotFound))
		assert.Equal(t, CodeNotFound, GetCode(err))
		assert.Equal(t, "registration not found", Message(err))
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		err := errors.New("boom")
		assert.False(t, HasCode(err, CodeValidation))
		assert.Equal(t, CodeInternal, GetCode(err))
		assert.Empty(t, Message(err))
	})

	t.Run("wrap preserves the cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(cause, CodeTransport, "send failed")
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "send failed: connection reset", err.Error())
		assert.Nil(t, Wrap(nil, CodeInternal, "ignored"))
	})
}
