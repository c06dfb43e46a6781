package graphapi

import (
	"log/slog"
)

// Injector writes named parameters into a workflow graph. It never mutates
// its input and never fails: malformed or unknown nodes are skipped per-node
// and the returned graph is always usable.
type Injector struct {
	models *ModelFileCache
	logger *slog.Logger
}

// NewInjector builds an injector backed by the given model file cache. The
// cache may be nil, in which case loader file names are written as requested
// without validation.
func NewInjector(models *ModelFileCache) *Injector {
	return &Injector{
		models: models,
		logger: slog.Default().With("component", "injector"),
	}
}

// Inject returns a deep copy of g with the named parameters written into the
// appropriate nodes. Prompt text goes to the classified prompt encoders,
// width/height/batch to the latent node, sampler settings to the sampler, and
// loader file names are validated against the model cache with fallback
// substitution. Re-running with identical parameters yields identical slots.
func (inj *Injector) Inject(g *Graph, params NamedParameters) *Graph {
	retv := g.Clone()
	p := params.sanitized()
	roles := ResolveRoles(retv)

	injectedPrompt := false
	var loraNodes []*Node

	for _, n := range retv.Nodes {
		switch roles[n.ID] {
		case RolePositivePrompt:
			inj.setPromptText(n, p.PositivePrompt)
			injectedPrompt = true
		case RoleNegativePrompt:
			inj.setPromptText(n, p.NegativePrompt)
			injectedPrompt = true
		case RoleLatentSize:
			inj.setLatentSize(n, p)
		case RoleSampler:
			inj.setSamplerValues(n, p)
		case RoleLora:
			loraNodes = append(loraNodes, n)
		case RoleCheckpoint:
			if p.Checkpoint != "" {
				inj.setModelFile(n, "ckpt_name", CategoryCheckpoint, p.Checkpoint)
			}
		case RoleVAE:
			if p.VAE != "" {
				inj.setModelFile(n, "vae_name", CategoryVAE, p.VAE)
			}
		}
	}

	if !injectedPrompt {
		// not fatal, the submission proceeds with whatever prompt text the
		// workflow already carries
		inj.logger.Warn("no prompt encoder resolved in workflow, prompts not injected")
	}

	// pair lora selections with lora nodes in list order; extra nodes on
	// either side are left alone
	for i, sel := range p.Loras {
		if i >= len(loraNodes) {
			inj.logger.Warn("more lora selections than lora nodes", "selections", len(p.Loras), "nodes", len(loraNodes))
			break
		}
		inj.setLoraValues(loraNodes[i], sel)
	}

	return retv
}

// setParam writes one named parameter into a node, routing to the named-input
// map for flat-shape nodes and to the positional widget array otherwise.
func (inj *Injector) setParam(n *Node, name string, value interface{}) bool {
	if n.NamedInputs != nil {
		if _, ok := n.NamedInputs[name]; ok {
			n.NamedInputs[name] = value
			return true
		}
		return false
	}
	idx := paramSlot(n, name)
	if idx < 0 {
		return false
	}
	n.SetWidgetValue(idx, value)
	return true
}

func (inj *Injector) setPromptText(n *Node, text string) {
	if inj.setParam(n, "text", text) {
		return
	}
	if n.NamedInputs != nil {
		n.NamedInputs["text"] = text
		return
	}
	// prompt encoders keep their text in the first slot
	n.SetWidgetValue(0, text)
}

// setLatentSize overwrites the first three value slots with width, height and
// batch size, in that fixed order. The ordering is an external contract of
// the workflow format.
func (inj *Injector) setLatentSize(n *Node, p NamedParameters) {
	if n.NamedInputs != nil {
		inj.setParam(n, "width", p.Width)
		inj.setParam(n, "height", p.Height)
		inj.setParam(n, "batch_size", p.BatchSize)
		return
	}
	n.SetWidgetValue(0, p.Width)
	n.SetWidgetValue(1, p.Height)
	n.SetWidgetValue(2, p.BatchSize)
}

func (inj *Injector) setSamplerValues(n *Node, p NamedParameters) {
	if !inj.setParam(n, "seed", p.Seed) {
		// advanced samplers call it noise_seed
		inj.setParam(n, "noise_seed", p.Seed)
	}
	inj.setParam(n, "steps", p.Steps)
	inj.setParam(n, "cfg", p.CFG)
	inj.setParam(n, "sampler_name", p.SamplerName)
	inj.setParam(n, "scheduler", p.Scheduler)
	if !inj.setParam(n, "denoise", p.Denoise) {
		inj.logger.Debug("sampler has no denoise parameter", "node", n.ID, "type", n.Type)
	}
}

func (inj *Injector) setLoraValues(n *Node, sel LoraSelection) {
	name := sel.Name
	if inj.models != nil && name != "" {
		name, _ = inj.models.Resolve(CategoryLora, name)
	}
	inj.setParam(n, "lora_name", name)
	inj.setParam(n, "strength_model", sel.Strength)
	inj.setParam(n, "strength_clip", sel.Strength)
}

func (inj *Injector) setModelFile(n *Node, param, category, requested string) {
	name := requested
	if inj.models != nil {
		name, _ = inj.models.Resolve(category, requested)
	}
	if !inj.setParam(n, param, name) {
		inj.logger.Warn("loader node missing expected parameter", "node", n.ID, "type", n.Type, "parameter", param)
	}
}
