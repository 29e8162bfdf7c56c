package palette

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultIOR is the index of refraction of blocks without a material patch
const DefaultIOR = 1.000293

// Spec identifies a block configuration: its name plus block state
// properties, e.g. minecraft:furnace[facing=north,lit=true].
type Spec struct {
	Name       string
	Properties map[string]string
}

// NewSpec creates a spec from a name and alternating key/value pairs
func NewSpec(name string, keyValues ...string) Spec {
	spec := Spec{Name: name}
	if len(keyValues) > 1 {
		spec.Properties = make(map[string]string, len(keyValues)/2)
		for i := 0; i+1 < len(keyValues); i += 2 {
			spec.Properties[keyValues[i]] = keyValues[i+1]
		}
	}
	return spec
}

// sortedKeys returns the property names in a stable order
func (s Spec) sortedKeys() []string {
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Key returns the canonical string form used for content addressing
func (s Spec) Key() string {
	if len(s.Properties) == 0 {
		return s.Name
	}
	var sb strings.Builder
	sb.WriteString(s.Name)
	sb.WriteByte('[')
	for i, k := range s.sortedKeys() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(s.Properties[k])
	}
	sb.WriteByte(']')
	return sb.String()
}

func (s Spec) String() string {
	return s.Key()
}

// Block holds the optical properties of one block configuration
type Block struct {
	Name       string
	Properties map[string]string

	Emittance   float32 // emissive strength
	Specular    float32 // reflectance
	IOR         float32 // index of refraction
	Refractive  bool
	Waterlogged bool
}

func (s Spec) toBlock() *Block {
	props := make(map[string]string, len(s.Properties))
	for k, v := range s.Properties {
		props[k] = v
	}
	return &Block{
		Name:       s.Name,
		Properties: props,
		IOR:        DefaultIOR,
	}
}

// Property returns a block state property, or "" when absent
func (b *Block) Property(name string) string {
	return b.Properties[name]
}

// IsLit reports whether the block state has lit=true
func (b *Block) IsLit() bool {
	return b.Properties["lit"] == "true"
}

// IntProperty parses an integer block state property, returning 0 when the
// property is absent or malformed.
func (b *Block) IntProperty(name string) int {
	v, err := strconv.Atoi(b.Properties[name])
	if err != nil {
		return 0
	}
	return v
}
