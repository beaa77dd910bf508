package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := MissingColumn("no 'amount' column in table")
	wrapped := Wrap(base, "country revenue hypothesis")

	assert.Equal(t, CodeMissingColumn, GetCode(wrapped))
	assert.True(t, IsCode(wrapped, CodeMissingColumn))
	assert.Equal(t, "country revenue hypothesis: no 'amount' column in table", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrapPlainError(t *testing.T) {
	wrapped := Wrap(fmt.Errorf("boom"), "loading table")

	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.True(t, IsAppError(wrapped))
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Nil(t, Wrapf(nil, "ignored %d", 1))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeInsufficientData, fmt.Errorf("group PG has 2 observations"))

	assert.True(t, IsCode(err, CodeInsufficientData))
	assert.False(t, IsCode(err, CodeMissingColumn))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
}

func TestIsCodeThroughStdWrapping(t *testing.T) {
	err := fmt.Errorf("extract: %w", DatabaseError("query failed", fmt.Errorf("conn refused")))

	assert.True(t, IsCode(err, CodeDatabaseError))
	assert.Equal(t, CodeDatabaseError, GetCode(err))
}
