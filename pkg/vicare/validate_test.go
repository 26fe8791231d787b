package vicare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func numberDecl() ParamDecl {
	return ParamDecl{
		Type:     "number",
		Required: true,
		Constraints: Constraints{
			Min:  floatPtr(0.2),
			Max:  floatPtr(3.5),
			Step: floatPtr(0.1),
		},
	}
}

func TestValidateNumberConstraints(t *testing.T) {
	decl := numberDecl()

	cases := []struct {
		value float64
		kind  ViolationKind // "" means valid
	}{
		{0.2, ""},
		{1.4, ""},
		{3.5, ""},
		{0.15, ViolationRange}, // both out of range and off-step: range wins
		{3.6, ViolationRange},
		{1.45, ViolationStep},
	}

	for _, tc := range cases {
		v := decl.Validate("slope", tc.value)
		if tc.kind == "" {
			assert.Nil(t, v, "value %v should validate", tc.value)
		} else {
			require.NotNil(t, v, "value %v should be rejected", tc.value)
			assert.Equal(t, tc.kind, v.Kind, "value %v", tc.value)
		}
	}
}

func TestValidateTypeMismatch(t *testing.T) {
	decl := numberDecl()
	v := decl.Validate("slope", "fast")
	require.NotNil(t, v)
	assert.Equal(t, ViolationTypeMismatch, v.Kind)

	boolDecl := ParamDecl{Type: "boolean"}
	v = boolDecl.Validate("active", 1)
	require.NotNil(t, v)
	assert.Equal(t, ViolationTypeMismatch, v.Kind)

	// integers coerce to a declared number
	assert.Nil(t, decl.Validate("slope", 2))
}

func TestValidateEnumExactness(t *testing.T) {
	decl := ParamDecl{
		Type:        "string",
		Constraints: Constraints{Enum: []any{"heating", "cooling", "dhw"}},
	}

	assert.Nil(t, decl.Validate("mode", "dhw"))

	v := decl.Validate("mode", "Heating")
	require.NotNil(t, v, "enum comparison is case-sensitive")
	assert.Equal(t, ViolationEnum, v.Kind)
}

func TestValidateStringLengthAndPattern(t *testing.T) {
	decl := ParamDecl{
		Type: "string",
		Constraints: Constraints{
			MinLength: intPtr(2),
			MaxLength: intPtr(5),
			Regex:     "[a-z]+",
		},
	}

	assert.Nil(t, decl.Validate("name", "abc"))

	v := decl.Validate("name", "a")
	require.NotNil(t, v)
	assert.Equal(t, ViolationLength, v.Kind)

	v = decl.Validate("name", "abc1")
	require.NotNil(t, v, "pattern must fully match")
	assert.Equal(t, ViolationPattern, v.Kind)
}

func TestValidateParamsAggregatesAllViolations(t *testing.T) {
	cmd := Command{
		Name:         "setCurve",
		URI:          "https://api.example/operations/setCurve",
		IsExecutable: true,
		Params: map[string]ParamDecl{
			"slope": numberDecl(),
			"shift": {Type: "number", Required: true, Constraints: Constraints{Min: floatPtr(-13), Max: floatPtr(40), Step: floatPtr(1)}},
		},
	}

	violations := cmd.ValidateParams(map[string]any{
		"slope": 9.9,   // out of range
		"shift": "two", // wrong type
		"extra": 1,     // undeclared
	})
	require.Len(t, violations, 3)

	kinds := map[string]ViolationKind{}
	for _, v := range violations {
		kinds[v.Param] = v.Kind
	}
	assert.Equal(t, ViolationRange, kinds["slope"])
	assert.Equal(t, ViolationTypeMismatch, kinds["shift"])
	assert.Equal(t, ViolationUnknownParam, kinds["extra"])
}

func TestValidateParamsMissingRequired(t *testing.T) {
	cmd := Command{
		Name:         "setCurve",
		IsExecutable: true,
		Params: map[string]ParamDecl{
			"slope": numberDecl(),
			"shift": {Type: "number", Required: true},
		},
	}

	violations := cmd.ValidateParams(map[string]any{"slope": 1.4})
	require.Len(t, violations, 1)
	assert.Equal(t, "shift", violations[0].Param)
	assert.Equal(t, ViolationMissingParam, violations[0].Kind)
}

func TestValidateStepWithoutMinUsesZeroBase(t *testing.T) {
	decl := ParamDecl{Type: "number", Constraints: Constraints{Step: floatPtr(0.5)}}

	assert.Nil(t, decl.Validate("p", 2.0))
	assert.Nil(t, decl.Validate("p", -1.5))
	v := decl.Validate("p", 2.3)
	require.NotNil(t, v)
	assert.Equal(t, ViolationStep, v.Kind)
}
