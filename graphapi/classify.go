package graphapi

import (
	"log/slog"
	"strings"
)

// Role is the semantic classification of a node, inferred from its type tag
// and title. Workflows are hand-authored with wildly inconsistent titling, so
// classification is heuristic and must tolerate every node type it has never
// seen before.
type Role int

const (
	RoleUnknown Role = iota
	RolePositivePrompt
	RoleNegativePrompt
	RoleSampler
	RoleLatentSize
	RoleLora
	RoleCheckpoint
	RoleVAE
)

func (r Role) String() string {
	switch r {
	case RolePositivePrompt:
		return "positive_prompt"
	case RoleNegativePrompt:
		return "negative_prompt"
	case RoleSampler:
		return "sampler"
	case RoleLatentSize:
		return "latent_size"
	case RoleLora:
		return "lora"
	case RoleCheckpoint:
		return "checkpoint"
	case RoleVAE:
		return "vae"
	}
	return "unknown"
}

// exactRoles maps known node types to their role. Consulted before any
// substring heuristics so that, for example, CLIPVisionLoader is never
// mistaken for a text encoder. New loader and sampler variants are added here
// as they show up in workflows in the wild.
var exactRoles = map[string]Role{
	"KSampler":               RoleSampler,
	"KSamplerAdvanced":       RoleSampler,
	"SamplerCustom":          RoleSampler,
	"SamplerCustomAdvanced":  RoleSampler,
	"EmptyLatentImage":       RoleLatentSize,
	"EmptySD3LatentImage":    RoleLatentSize,
	"LoraLoader":             RoleLora,
	"LoraLoaderModelOnly":    RoleLora,
	"CheckpointLoaderSimple": RoleCheckpoint,
	"CheckpointLoader":       RoleCheckpoint,
	"VAELoader":              RoleVAE,
}

// ClassifyRole decides the semantic role of a single node. Prompt-encoder
// disambiguation may need the rest of the graph: when two text encoders carry
// no usable title, the first in node-list order is treated as the positive
// prompt and the second as the negative. A third untitled encoder stays
// unknown; we deliberately do not guess further.
func ClassifyRole(g *Graph, n *Node) Role {
	if r, ok := exactRoles[n.Type]; ok {
		return r
	}

	lt := strings.ToLower(n.Type)

	if isTextEncoderType(lt) {
		if r := promptRoleFromTitle(n.Title); r != RoleUnknown {
			return r
		}
		return untitledPromptRole(g, n)
	}

	if strings.Contains(lt, "emptylatent") || strings.Contains(lt, "latentimage") {
		return RoleLatentSize
	}

	if strings.Contains(lt, "sampler") {
		return RoleSampler
	}

	return RoleUnknown
}

// ResolveRoles classifies every node in the graph. The first resolved node per
// role wins; later nodes with the same role are left for the widget binder,
// which works on raw positions regardless of role.
func ResolveRoles(g *Graph) map[string]Role {
	retv := make(map[string]Role, len(g.Nodes))
	for _, n := range g.Nodes {
		retv[n.ID] = ClassifyRole(g, n)
	}
	return retv
}

func isTextEncoderType(loweredType string) bool {
	if strings.Contains(loweredType, "loader") {
		// CLIP family loaders are model loaders, not encoders
		return false
	}
	return strings.Contains(loweredType, "textencode") || strings.Contains(loweredType, "clip")
}

func promptRoleFromTitle(title string) Role {
	t := strings.ToLower(title)
	if t == "" {
		return RoleUnknown
	}
	if strings.Contains(t, "negative") || strings.Contains(t, "neg") {
		return RoleNegativePrompt
	}
	if strings.Contains(t, "positive") || strings.Contains(t, "pos") ||
		strings.Contains(t, "prompt") || strings.Contains(t, "main") {
		return RolePositivePrompt
	}
	return RoleUnknown
}

// untitledPromptRole applies the positional tie-break: among the text-encoder
// nodes whose titles resolve nothing, the first encountered in node-list order
// is the positive prompt, the second the negative. Anything beyond that is a
// known limitation of the heuristic and stays unknown.
func untitledPromptRole(g *Graph, n *Node) Role {
	position := 0
	for _, other := range g.Nodes {
		if !isTextEncoderType(strings.ToLower(other.Type)) {
			continue
		}
		if promptRoleFromTitle(other.Title) != RoleUnknown {
			continue
		}
		if other.ID == n.ID {
			switch position {
			case 0:
				return RolePositivePrompt
			case 1:
				return RoleNegativePrompt
			default:
				slog.Warn("more than two untitled text encoders, leaving unclassified",
					"node", n.ID, "type", n.Type)
				return RoleUnknown
			}
		}
		position++
	}
	return RoleUnknown
}
