package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type signup struct {
	Username string `validate:"required,nowhitespaces"`
	Password string `validate:"required,min=8,hasupper,haslower,hasdigit,hasspecial"`
}

func TestPasswordRules(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(&signup{Username: "alice", Password: "Str0ng!pass"}))
	assert.Error(t, v.Struct(&signup{Username: "alice", Password: "weakpassword"}))
	assert.Error(t, v.Struct(&signup{Username: "alice", Password: "NoDigits!!"}))
}

func TestNoWhiteSpaces(t *testing.T) {
	v := New()
	assert.Error(t, v.Struct(&signup{Username: "al ice", Password: "Str0ng!pass"}))
}
