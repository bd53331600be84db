package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/internal/core/apperror"
)

func TestDefaultRuleWithinThreshold(t *testing.T) {
	p := MustDiscountPolicy("")
	assert.NoError(t, p.Check("Paracetamol 500", 5, 10, "staff"))
}

func TestDefaultRuleExceedsThreshold(t *testing.T) {
	p := MustDiscountPolicy("")
	err := p.Check("Paracetamol 500", 15, 10, "staff")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDiscountNotAllowed, appErr.Code)
}

func TestDefaultRuleAdminOverride(t *testing.T) {
	p := MustDiscountPolicy("")
	assert.NoError(t, p.Check("Paracetamol 500", 15, 10, "admin"))
}

func TestCustomRule(t *testing.T) {
	p := MustDiscountPolicy(`discount <= 5.0`)
	assert.NoError(t, p.Check("Cetirizine", 5, 50, "staff"))
	assert.Error(t, p.Check("Cetirizine", 6, 50, "admin"))
}

func TestInvalidRuleRejected(t *testing.T) {
	_, err := NewDiscountPolicy(`discount <= `)
	require.Error(t, err)
}
