// Package policy evaluates the discount rule applied to sale lines.
// The rule is a CEL expression so the pharmacy owner can tighten or relax
// it without a code change (e.g. let admins override per-medicine caps).
package policy

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"pharmapos/internal/core/apperror"
)

// DefaultDiscountRule allows any discount within the medicine's threshold
// and lets the admin role exceed it.
const DefaultDiscountRule = `discount <= maxDiscount || role == "admin"`

// DiscountPolicy decides whether a line discount may be granted.
type DiscountPolicy struct {
	program cel.Program
}

// NewDiscountPolicy compiles an expression over the variables
// discount (percent), maxDiscount (percent) and role.
func NewDiscountPolicy(expr string) (*DiscountPolicy, error) {
	if expr == "" {
		expr = DefaultDiscountRule
	}

	env, err := cel.NewEnv(
		cel.Variable("discount", cel.DoubleType),
		cel.Variable("maxDiscount", cel.DoubleType),
		cel.Variable("role", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile discount rule: %w", issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build discount program: %w", err)
	}

	return &DiscountPolicy{program: program}, nil
}

// MustDiscountPolicy compiles or panics. Use for the default rule and tests.
func MustDiscountPolicy(expr string) *DiscountPolicy {
	p, err := NewDiscountPolicy(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Check returns an error when the discount violates the rule.
func (p *DiscountPolicy) Check(medicineName string, discount, maxDiscount float64, role string) error {
	out, _, err := p.program.Eval(map[string]any{
		"discount":    discount,
		"maxDiscount": maxDiscount,
		"role":        role,
	})
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("evaluate discount rule: %w", err))
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return apperror.NewInternal(fmt.Errorf("discount rule did not return a boolean"))
	}
	if !allowed {
		return apperror.NewDiscountNotAllowed(medicineName, discount, maxDiscount)
	}
	return nil
}
