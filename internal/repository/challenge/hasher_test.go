package challenge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
)

func TestCodeHasher(t *testing.T) {
	h, err := NewCodeHasher("secret")
	require.NoError(t, err)

	a := h.Hash("a@neu.edu", domain.PurposeLogin, "123456")
	assert.Len(t, a, 64)
	assert.Equal(t, a, h.Hash("a@neu.edu", domain.PurposeLogin, "123456"))
	assert.NotEqual(t, a, h.Hash("a@neu.edu", domain.PurposeRegister, "123456"))
	assert.NotEqual(t, a, h.Hash("b@neu.edu", domain.PurposeLogin, "123456"))
	assert.NotContains(t, a, "123456")

	other, err := NewCodeHasher("other")
	require.NoError(t, err)
	assert.NotEqual(t, a, other.Hash("a@neu.edu", domain.PurposeLogin, "123456"))
}

func TestCodeHasherLongKey(t *testing.T) {
	_, err := NewCodeHasher(strings.Repeat("k", 200))
	require.NoError(t, err)

	_, err = NewCodeHasher("")
	assert.Error(t, err)
}
