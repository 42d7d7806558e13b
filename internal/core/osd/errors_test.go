package osd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "already connected",
			err:  ErrAlreadyConnected(),
			want: "already connected; run 'osd disconnect' first, or use --force",
		},
		{
			name: "not connected with op",
			err:  ErrNotConnected("get computer"),
			want: "get computer: not connected; run 'osd connect' before any other command",
		},
		{
			name: "configuration wraps cause",
			err:  ConfigurationError(errors.New("no share path")),
			want: "invalid configuration: no share path",
		},
		{
			name: "task sequence not found",
			err:  NotFound(KindTaskSequenceNotFound, `\\srv\MDT`, "WIN11"),
			want: `a task sequence with the ID "WIN11" was not found in the share "\\srv\MDT"`,
		},
		{
			name: "make/model not found keeps backslashes",
			err:  NotFound(KindMakeModelNotFound, `\\img-svr-01\MDT_Share$`, "Dell/Latitude"),
			want: `a model with the ID "Dell/Latitude" was not found in the share "\\img-svr-01\MDT_Share$"`,
		},
		{
			name: "computer not found",
			err:  NotFound(KindComputerNotFound, "share", "42"),
			want: `a computer with the ID "42" was not found in the share "share"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsKind(t *testing.T) {
	wrapped := fmt.Errorf("connect: %w", ErrAlreadyConnected())

	assert.True(t, IsKind(wrapped, KindAlreadyConnected))
	assert.False(t, IsKind(wrapped, KindNotConnected))
	assert.False(t, IsKind(errors.New("plain"), KindNotConnected))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestCacheRefreshError_Unwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := CacheRefreshError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindCacheRefresh, KindOf(err))
}
