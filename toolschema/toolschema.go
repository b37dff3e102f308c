// Package toolschema validates parsed tool call arguments against the JSON
// Schemas published in tool specs.
package toolschema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/inspirepan/dispatch"
)

var (
	ErrUnknownTool      = errors.New("toolschema: unknown tool")
	ErrInvalidArguments = errors.New("toolschema: invalid arguments")
)

// Catalog holds one compiled schema per tool. It is read-only after New and
// safe for concurrent use.
type Catalog struct {
	schemas map[string]*jsonschema.Schema
}

// New compiles the parameter schema of every spec. A spec without
// parameters accepts any arguments object.
func New(specs []dispatch.ToolSpec) (*Catalog, error) {
	c := &Catalog{schemas: make(map[string]*jsonschema.Schema, len(specs))}
	for _, spec := range specs {
		sch, err := compile(spec)
		if err != nil {
			return nil, err
		}
		c.schemas[spec.Name] = sch
	}
	return c, nil
}

func compile(spec dispatch.ToolSpec) (*jsonschema.Schema, error) {
	params := spec.Parameters
	if params == nil {
		params = map[string]any{"type": "object"}
	}
	// Normalize Go-typed values ([]string, int...) into plain JSON values.
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("toolschema: marshal schema of %s: %w", spec.Name, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("toolschema: unmarshal schema of %s: %w", spec.Name, err)
	}

	url := spec.Name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("toolschema: add schema of %s: %w", spec.Name, err)
	}
	sch, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("toolschema: compile schema of %s: %w", spec.Name, err)
	}
	return sch, nil
}

// Has reports whether the catalog knows the tool.
func (c *Catalog) Has(name string) bool {
	_, ok := c.schemas[name]
	return ok
}

// Validate checks call.Arguments against the schema of call.Name.
func (c *Catalog) Validate(call dispatch.ParsedToolCall) error {
	sch, ok := c.schemas[call.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
	raw, err := call.ArgsJSON()
	if err != nil {
		return err
	}
	var args any
	if err := json.Unmarshal(raw, &args); err != nil {
		return fmt.Errorf("toolschema: decode arguments of %s: %w", call.Name, err)
	}
	if err := sch.Validate(args); err != nil {
		return fmt.Errorf("%w for %s: %w", ErrInvalidArguments, call.Name, err)
	}
	return nil
}
