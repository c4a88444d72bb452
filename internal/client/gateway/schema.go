package gateway

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBase = "https://leadconsole.local/schemas/"

// Validator checks collection snapshots against the embedded JSON schemas
// before they can replace a store. A malformed listing is rejected as a
// whole rather than partly decoded.
type Validator struct {
	schemas map[Collection]*jsonschema.Schema
}

// NewValidator compiles the schemas for every known collection.
func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	v := &Validator{schemas: make(map[Collection]*jsonschema.Schema)}

	for _, coll := range []Collection{Leads, Board, Visuals, Reports} {
		raw, err := schemaFS.ReadFile("schemas/" + coll.String() + ".json")
		if err != nil {
			return nil, fmt.Errorf("reading schema for %s: %w", coll, err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parsing schema for %s: %w", coll, err)
		}
		loc := schemaBase + coll.String() + ".json"
		if err := c.AddResource(loc, doc); err != nil {
			return nil, fmt.Errorf("adding schema for %s: %w", coll, err)
		}
		sch, err := c.Compile(loc)
		if err != nil {
			return nil, fmt.Errorf("compiling schema for %s: %w", coll, err)
		}
		v.schemas[coll] = sch
	}
	return v, nil
}

// Validate checks payload against the schema of coll. Collections without a
// schema pass.
func (v *Validator) Validate(coll Collection, payload []byte) error {
	sch, ok := v.schemas[coll]
	if !ok {
		return nil
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSnapshot, coll, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSnapshot, coll, err)
	}
	return nil
}
