package vicare

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
)

// stepEpsilonFactor scales the tolerance used for step checks. Step
// comparisons are float-based, so exact modulo equality would reject valid
// values like 1.4 against a 0.1 step.
const stepEpsilonFactor = 1e-6

// Validate checks a candidate value against the declared constraint set.
// Checks run in a fixed order (type, enum, range, step, length, pattern)
// and stop at the first failing rule for this parameter; cheap and decisive
// checks come first. The result is nil when the value satisfies every
// declared constraint.
func (d ParamDecl) Validate(param string, value any) *Violation {
	switch d.Type {
	case "number":
		num, ok := toFloat(value)
		if !ok {
			return &Violation{Param: param, Kind: ViolationTypeMismatch,
				Message: fmt.Sprintf("expected a number, got %T", value)}
		}
		return d.validateNumber(param, num)
	case "string":
		s, ok := value.(string)
		if !ok {
			return &Violation{Param: param, Kind: ViolationTypeMismatch,
				Message: fmt.Sprintf("expected a string, got %T", value)}
		}
		return d.validateString(param, s)
	case "boolean":
		if _, ok := value.(bool); !ok {
			return &Violation{Param: param, Kind: ViolationTypeMismatch,
				Message: fmt.Sprintf("expected a boolean, got %T", value)}
		}
		return d.checkEnum(param, value)
	default:
		// Unknown or undeclared type: only the enum constraint can apply.
		return d.checkEnum(param, value)
	}
}

func (d ParamDecl) validateNumber(param string, num float64) *Violation {
	if v := d.checkEnum(param, num); v != nil {
		return v
	}
	c := d.Constraints
	if c.Min != nil && num < *c.Min {
		return &Violation{Param: param, Kind: ViolationRange,
			Message: fmt.Sprintf("value %v below minimum %v", num, *c.Min)}
	}
	if c.Max != nil && num > *c.Max {
		return &Violation{Param: param, Kind: ViolationRange,
			Message: fmt.Sprintf("value %v above maximum %v", num, *c.Max)}
	}
	if c.Step != nil && *c.Step > 0 {
		base := 0.0
		if c.Min != nil {
			base = *c.Min
		}
		if !onStep(num-base, *c.Step) {
			return &Violation{Param: param, Kind: ViolationStep,
				Message: fmt.Sprintf("value %v is not a multiple of step %v from %v", num, *c.Step, base)}
		}
	}
	return nil
}

func (d ParamDecl) validateString(param, s string) *Violation {
	if v := d.checkEnum(param, s); v != nil {
		return v
	}
	c := d.Constraints
	if c.MinLength != nil && len(s) < *c.MinLength {
		return &Violation{Param: param, Kind: ViolationLength,
			Message: fmt.Sprintf("length %d below minimum %d", len(s), *c.MinLength)}
	}
	if c.MaxLength != nil && len(s) > *c.MaxLength {
		return &Violation{Param: param, Kind: ViolationLength,
			Message: fmt.Sprintf("length %d above maximum %d", len(s), *c.MaxLength)}
	}
	if c.Regex != "" {
		re, err := regexp.Compile("^(?:" + c.Regex + ")$")
		if err != nil {
			return &Violation{Param: param, Kind: ViolationPattern,
				Message: fmt.Sprintf("server-declared pattern %q does not compile: %v", c.Regex, err)}
		}
		if !re.MatchString(s) {
			return &Violation{Param: param, Kind: ViolationPattern,
				Message: fmt.Sprintf("value %q does not match pattern %q", s, c.Regex)}
		}
	}
	return nil
}

// checkEnum enforces exact membership. Comparison is string-exact: "Heating"
// never matches an enum entry "heating".
func (d ParamDecl) checkEnum(param string, value any) *Violation {
	if len(d.Constraints.Enum) == 0 {
		return nil
	}
	want := enumRepr(value)
	for _, allowed := range d.Constraints.Enum {
		if enumRepr(allowed) == want {
			return nil
		}
	}
	return &Violation{Param: param, Kind: ViolationEnum,
		Message: fmt.Sprintf("value %v is not one of the allowed values %v", value, d.Constraints.Enum)}
}

// ValidateParams validates a full parameter set against the command's
// declarations. Every parameter is checked (no early exit across
// parameters) so a caller sees all violations in one round trip. Unknown
// parameters are rejected to avoid silently sending unintended fields, and
// required parameters must be present.
func (c Command) ValidateParams(params map[string]any) []Violation {
	var violations []Violation

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		decl, ok := c.Params[name]
		if !ok {
			violations = append(violations, Violation{Param: name, Kind: ViolationUnknownParam,
				Message: fmt.Sprintf("parameter is not declared by command %q", c.Name)})
			continue
		}
		if v := decl.Validate(name, params[name]); v != nil {
			violations = append(violations, *v)
		}
	}

	declared := make([]string, 0, len(c.Params))
	for name := range c.Params {
		declared = append(declared, name)
	}
	sort.Strings(declared)
	for _, name := range declared {
		if !c.Params[name].Required {
			continue
		}
		if _, ok := params[name]; !ok {
			violations = append(violations, Violation{Param: name, Kind: ViolationMissingParam,
				Message: "required parameter is missing"})
		}
	}

	return violations
}

func onStep(offset, step float64) bool {
	eps := step * stepEpsilonFactor
	mod := math.Abs(math.Mod(offset, step))
	return mod <= eps || step-mod <= eps
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func enumRepr(value any) string {
	if f, ok := toFloat(value); ok {
		return fmt.Sprintf("%g", f)
	}
	return fmt.Sprintf("%v", value)
}
