package graphapi

// Positional widget schemas by node type. The meaning of widgets_values[i] is
// defined only by convention per node type; these orderings mirror what the
// editor emits and are an external contract of the workflow format, so they
// must not be reordered.
var widgetSchemas = map[string][]string{
	"KSampler": {
		"seed", "control_after_generate", "steps", "cfg",
		"sampler_name", "scheduler", "denoise",
	},
	"KSamplerAdvanced": {
		"add_noise", "noise_seed", "control_after_generate", "steps", "cfg",
		"sampler_name", "scheduler", "start_at_step", "end_at_step",
		"return_with_leftover_noise",
	},
	"EmptyLatentImage":       {"width", "height", "batch_size"},
	"EmptySD3LatentImage":    {"width", "height", "batch_size"},
	"CLIPTextEncode":         {"text"},
	"LoraLoader":             {"lora_name", "strength_model", "strength_clip"},
	"LoraLoaderModelOnly":    {"lora_name", "strength_model"},
	"CheckpointLoaderSimple": {"ckpt_name"},
	"CheckpointLoader":       {"config_name", "ckpt_name"},
	"VAELoader":              {"vae_name"},
	"SaveImage":              {"filename_prefix"},
}

// SchemaFor returns the registered positional parameter names for a node
// type, or nil when none is registered. RegisterSchema lets embedders extend
// the table for custom nodes without forking the package.
func SchemaFor(nodeType string) []string {
	return widgetSchemas[nodeType]
}

// RegisterSchema registers (or replaces) the positional schema for a node type.
func RegisterSchema(nodeType string, params []string) {
	widgetSchemas[nodeType] = params
}

// paramSlot resolves the widget-array position of a named parameter for the
// given node. A registered schema for the exact node type wins; otherwise we
// fall back to the node's declared input names, which is best-effort by
// design. Returns -1 when the parameter cannot be located.
func paramSlot(n *Node, param string) int {
	if schema := SchemaFor(n.Type); schema != nil {
		for i, name := range schema {
			if name == param {
				return i
			}
		}
		return -1
	}
	return n.InputIndex(param)
}
