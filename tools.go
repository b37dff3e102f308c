package dispatch

// ToolSpec is the capability descriptor published by the tool registry.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Tool is anything that can describe itself to the model.
// Execution stays with the registry; see Executor.
type Tool interface {
	Spec() ToolSpec
}

// CollectToolSpecs returns the descriptors of tools in order.
func CollectToolSpecs(tools []Tool) []ToolSpec {
	specs := make([]ToolSpec, 0, len(tools))
	for _, t := range tools {
		specs = append(specs, t.Spec())
	}
	return specs
}
