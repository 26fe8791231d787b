package vicare

import (
	"encoding/json"
	"fmt"
)

// Property is one entry of a feature's raw property bag as reported by the
// cloud API: a value of arbitrary JSON type plus optional unit and type hints.
type Property struct {
	Value any    `json:"value"`
	Unit  string `json:"unit,omitempty"`
	Type  string `json:"type,omitempty"`
}

// IsScalar reports whether the property carries a single scalar value
// (number, string or boolean). Arrays, objects and null values are not
// scalar and never participate in feature expansion.
func (p Property) IsScalar() bool {
	switch p.Value.(type) {
	case bool, string, float64, int, int64, json.Number:
		return true
	default:
		return false
	}
}

// PropertyBag is an insertion-ordered property mapping. The cloud API is
// self-describing and the order of property declarations is meaningful for
// the flattened feature view, so a plain map is not enough.
type PropertyBag struct {
	keys  []string
	props map[string]Property
}

func NewPropertyBag(keys []string, props map[string]Property) PropertyBag {
	ks := make([]string, len(keys))
	copy(ks, keys)
	ps := make(map[string]Property, len(props))
	for k, v := range props {
		ps[k] = v
	}
	return PropertyBag{keys: ks, props: ps}
}

func (b PropertyBag) Len() int {
	return len(b.keys)
}

// Keys returns the property keys in payload declaration order.
func (b PropertyBag) Keys() []string {
	ks := make([]string, len(b.keys))
	copy(ks, b.keys)
	return ks
}

func (b PropertyBag) Get(key string) (Property, bool) {
	p, ok := b.props[key]
	return p, ok
}

// UnmarshalJSON decodes the bag while recording key declaration order.
func (b *PropertyBag) UnmarshalJSON(data []byte) error {
	keys, err := objectKeys(data)
	if err != nil {
		return err
	}
	props := make(map[string]Property, len(keys))
	if err := json.Unmarshal(data, &propertyMap{props}); err != nil {
		return err
	}
	b.keys = keys
	b.props = props
	return nil
}

// propertyMap exists so PropertyBag.UnmarshalJSON can reuse the default
// map decoding without recursing into itself.
type propertyMap struct {
	m map[string]Property
}

func (p *propertyMap) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &p.m)
}

// ParamDecl is a server-declared constraint set for one command parameter.
type ParamDecl struct {
	Type        string      `json:"type"`
	Required    bool        `json:"required"`
	Constraints Constraints `json:"constraints"`
}

// Constraints mirrors the wire-level constraint block. The step size is
// transmitted as "stepping".
type Constraints struct {
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Step      *float64 `json:"stepping,omitempty"`
	Enum      []any    `json:"enum,omitempty"`
	Regex     string   `json:"regEx,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
}

// Command is a declared, parameterized action attached to a feature. It only
// describes the action; execution is performed by the Client.
type Command struct {
	Name         string
	URI          string
	IsExecutable bool
	Params       map[string]ParamDecl
}

// Feature is one named datum (sensor, status or setting) of a device.
// A Feature is immutable once constructed from a payload; fresh state means
// parsing a fresh payload.
type Feature struct {
	Name       string
	IsEnabled  bool
	IsReady    bool
	Properties PropertyBag
	Commands   map[string]Command
}

// Value returns the feature's single scalar value, or nil when the feature
// is composite (more than one scalar property) or carries no scalar at all.
func (f Feature) Value() any {
	key, ok := f.primaryKey()
	if !ok {
		return nil
	}
	p, _ := f.Properties.Get(key)
	return p.Value
}

// Unit returns the unit of the feature's single scalar value, if any.
func (f Feature) Unit() string {
	key, ok := f.primaryKey()
	if !ok {
		return ""
	}
	p, _ := f.Properties.Get(key)
	return p.Unit
}

// IsComposite reports whether the feature carries more than one
// independently valued scalar property.
func (f Feature) IsComposite() bool {
	return len(f.scalarKeys()) > 1
}

// IsWritable reports whether at least one executable command is attached.
func (f Feature) IsWritable() bool {
	for _, cmd := range f.Commands {
		if cmd.IsExecutable {
			return true
		}
	}
	return false
}

func (f Feature) primaryKey() (string, bool) {
	keys := f.scalarKeys()
	if len(keys) != 1 {
		return "", false
	}
	return keys[0], true
}

func (f Feature) scalarKeys() []string {
	var keys []string
	for _, k := range f.Properties.Keys() {
		p, _ := f.Properties.Get(k)
		if p.IsScalar() {
			keys = append(keys, k)
		}
	}
	return keys
}

// CommandResponse is the server's reply to a command execution.
type CommandResponse struct {
	Success bool
	Message string
	Reason  string
}

// Installation is a physical site containing one or more gateways.
type Installation struct {
	ID          string
	Description string
	Alias       string
	Address     map[string]any
}

// Gateway is a communication module bridging cloud and on-site devices.
type Gateway struct {
	Serial         string
	Version        string
	Status         string
	InstallationID string
}

// Device is an immutable snapshot of one appliance: its identity tuple, the
// grouped feature list as returned by the server, and the flattened view
// derived from it. A snapshot is replaced wholesale on refresh.
type Device struct {
	ID             string
	GatewaySerial  string
	InstallationID string
	ModelID        string
	DeviceType     string
	Status         string

	Features     []Feature
	FeaturesFlat []Feature

	byName map[string]int // index into Features
	byFlat map[string]int // index into FeaturesFlat
}

// WithFeatures returns a new Device snapshot carrying the given grouped
// features, with the flattened view and lookup indexes computed once.
func (d Device) WithFeatures(features []Feature) Device {
	nd := d
	nd.Features = features
	nd.FeaturesFlat = nil
	nd.byName = make(map[string]int, len(features))
	nd.byFlat = make(map[string]int)
	for i, f := range features {
		nd.byName[f.Name] = i
		for _, ef := range f.Expand() {
			nd.byFlat[ef.Name] = len(nd.FeaturesFlat)
			nd.FeaturesFlat = append(nd.FeaturesFlat, ef)
		}
	}
	return nd
}

// Feature looks up a feature by name in the current snapshot, checking the
// grouped list first and the flattened view second. A miss is a
// *NotFoundError, distinct from any transport-level 404.
func (d Device) Feature(name string) (Feature, error) {
	if i, ok := d.byName[name]; ok {
		return d.Features[i], nil
	}
	if i, ok := d.byFlat[name]; ok {
		return d.FeaturesFlat[i], nil
	}
	return Feature{}, &NotFoundError{Kind: "feature", Name: name, Device: d.ID}
}

func (d Device) String() string {
	return fmt.Sprintf("%s/%s/%s (%s, %s)", d.InstallationID, d.GatewaySerial, d.ID, d.ModelID, d.Status)
}
