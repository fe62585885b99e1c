package daverr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusOf(New(KindNotFound, "missing")))
	assert.Equal(t, http.StatusLocked, StatusOf(New(KindLocked, "locked")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(fmt.Errorf("plain error")))
}

func TestKindThroughWrapping(t *testing.T) {
	inner := New(KindConflict, "exists")
	outer := fmt.Errorf("op failed, err:%w", inner)
	assert.Equal(t, KindConflict, KindOf(outer))
	assert.Equal(t, http.StatusConflict, StatusOf(outer))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(Newf(KindNotFound, "node %q not found", "a/b")))
	assert.False(t, IsNotFound(New(KindConflict, "exists")))
	assert.False(t, IsNotFound(fmt.Errorf("plain error")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("io failure")
	err := Wrap(KindBadRequest, cause, "decode failed")
	assert.Contains(t, err.Error(), "decode failed")
	assert.Contains(t, err.Error(), "io failure")
	assert.Equal(t, KindBadRequest, KindOf(err))
}
