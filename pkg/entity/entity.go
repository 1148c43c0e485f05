// Package entity defines the structured values extracted from an utterance.
package entity

// Value type names used by the built-in extractors.
const (
	TypeString  = "string"
	TypeBoolean = "boolean"
)

// Entity is a set of values extracted for one dimension.
type Entity struct {
	// Dim is the dimension (category) of the entity, e.g. "city" or
	// "system:boolean".
	Dim string `json:"dim"`

	// Values are the extracted values for the dimension.
	Values []Value `json:"values"`
}

// Value is one extracted value with its type.
type Value struct {
	Value any    `json:"value"`
	Type  string `json:"type"`
}

// New builds an entity holding a single value.
func New(dim string, value any, typ string) Entity {
	return Entity{
		Dim:    dim,
		Values: []Value{{Value: value, Type: typ}},
	}
}

// Dims returns the dimension of every entity, preserving order.
func Dims(entities []Entity) []string {
	dims := make([]string, 0, len(entities))
	for _, e := range entities {
		dims = append(dims, e.Dim)
	}
	return dims
}
