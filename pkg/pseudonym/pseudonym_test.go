package pseudonym

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserID(t *testing.T) {
	assert.Equal(t, Anonymous, UserID(""))

	a := UserID("B21DCPT001")
	assert.Len(t, a, 16)
	assert.Equal(t, a, UserID("B21DCPT001"))
	assert.NotEqual(t, a, UserID("B21DCPT002"))
	assert.NotContains(t, a, "B21")
}
