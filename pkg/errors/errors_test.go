package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code     int
		expected ErrorType
	}{
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{410, ErrorTypeNotFound},
		{500, ErrorTypeRemote},
		{502, ErrorTypeRemote},
		{429, ErrorTypeRemote},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.code), func(t *testing.T) {
			err := FromStatusCode(tt.code, "https://example.test/x")
			assert.Equal(t, tt.expected, err.Type)
			assert.Equal(t, tt.code, err.Code)
		})
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("listing page 3: %w", Authentication("cookie expired", 401))

	assert.True(t, IsAuthentication(err))
	assert.True(t, IsFatal(err))
	assert.False(t, IsRemote(err))
	assert.False(t, IsFatal(Remote("boom", 500, nil)))
	assert.False(t, IsFatal(NotFound("gone", 404)))
	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("plain")))
}

func TestErrorUnwrap(t *testing.T) {
	err := Filesystem("failed to write file", os.ErrPermission)

	assert.True(t, stderrors.Is(err, os.ErrPermission))
	assert.True(t, IsFilesystem(err))
	assert.Contains(t, err.Error(), "filesystem error")
	assert.Contains(t, err.Error(), "permission denied")
}

func TestErrorMessageIncludesCode(t *testing.T) {
	err := Remote("unexpected status", 503, nil)
	assert.Equal(t, "remote error (code 503): unexpected status", err.Error())
}
