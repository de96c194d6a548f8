package types

import "encoding/json"

// ToolSpecification describes a tool the model may ask to call.
type ToolSpecification struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Parameters  *JSONSchema `json:"parameters,omitempty"`
}

// Validate reports whether s can be sent to a provider.
func (s ToolSpecification) Validate() error {
	if s.Name == "" {
		return NewContractError("tool specification name must not be empty")
	}
	if s.Parameters != nil && s.Parameters.Type != "" && s.Parameters.Type != SchemaTypeObject {
		return NewContractError("tool %q parameters must be an object schema, got %q", s.Name, s.Parameters.Type)
	}
	return nil
}

// ParametersOrEmpty returns the parameter schema, or an empty object schema
// when the tool takes no arguments.
func (s ToolSpecification) ParametersOrEmpty() *JSONSchema {
	if s.Parameters == nil {
		return NewObjectSchema()
	}
	return s.Parameters
}

// ToolExecutionRequest is a model's request to run a tool. Arguments is the
// raw JSON object string produced by the model.
type ToolExecutionRequest struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// DecodeArguments unmarshals Arguments into v.
func (r ToolExecutionRequest) DecodeArguments(v any) error {
	args := r.Arguments
	if args == "" {
		args = "{}"
	}
	return json.Unmarshal([]byte(args), v)
}
