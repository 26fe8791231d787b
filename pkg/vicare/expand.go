package vicare

// Expand decomposes a composite feature into one independently addressable
// scalar feature per scalar-valued property. Scalar features (one or zero
// scalar properties) expand to themselves, so the operation is idempotent
// and total: it never fails and never drops data.
//
// Derived features are named parent + "." + propertyKey, inherit the
// parent's availability flags, and carry exactly one property. A command
// moves to a derived feature only when its declared parameter set is
// exactly that one property key; commands spanning several properties stay
// on the unexpanded parent, since composite mutations must target the whole
// feature.
func (f Feature) Expand() []Feature {
	scalars := f.scalarKeys()
	if len(scalars) <= 1 {
		return []Feature{f}
	}

	out := make([]Feature, 0, len(scalars))
	for _, key := range f.Properties.Keys() {
		prop, _ := f.Properties.Get(key)
		if !prop.IsScalar() {
			continue
		}
		child := Feature{
			Name:       f.Name + "." + key,
			IsEnabled:  f.IsEnabled,
			IsReady:    f.IsReady,
			Properties: NewPropertyBag([]string{key}, map[string]Property{key: prop}),
			Commands:   commandsForKey(f.Commands, key),
		}
		out = append(out, child)
	}
	return out
}

// commandsForKey selects the commands whose whole parameter set is the
// single given property key.
func commandsForKey(cmds map[string]Command, key string) map[string]Command {
	var selected map[string]Command
	for name, cmd := range cmds {
		if len(cmd.Params) != 1 {
			continue
		}
		if _, ok := cmd.Params[key]; !ok {
			continue
		}
		if selected == nil {
			selected = make(map[string]Command, 1)
		}
		selected[name] = cmd
	}
	return selected
}
