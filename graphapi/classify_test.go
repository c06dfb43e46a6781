package graphapi

import (
	"testing"
)

func encoderNode(id, title string) *Node {
	return &Node{ID: id, Type: "CLIPTextEncode", Title: title, WidgetValues: []interface{}{""}}
}

func graphOf(nodes ...*Node) *Graph {
	g := NewGraph()
	for _, n := range nodes {
		g.AddNode(n)
	}
	return g
}

func TestClassifyTitledPrompts(t *testing.T) {
	// negative listed first; titles beat list order
	neg := encoderNode("1", "Negative")
	pos := encoderNode("2", "Positive")
	g := graphOf(neg, pos)

	if got := ClassifyRole(g, pos); got != RolePositivePrompt {
		t.Errorf("expected positive_prompt, got %s", got)
	}
	if got := ClassifyRole(g, neg); got != RoleNegativePrompt {
		t.Errorf("expected negative_prompt, got %s", got)
	}
}

func TestClassifyUntitledTieBreak(t *testing.T) {
	a := encoderNode("1", "")
	b := encoderNode("2", "")
	g := graphOf(a, b)

	if got := ClassifyRole(g, a); got != RolePositivePrompt {
		t.Errorf("first untitled encoder should be positive_prompt, got %s", got)
	}
	if got := ClassifyRole(g, b); got != RoleNegativePrompt {
		t.Errorf("second untitled encoder should be negative_prompt, got %s", got)
	}
}

func TestClassifyThirdUntitledEncoderStaysUnknown(t *testing.T) {
	a := encoderNode("1", "")
	b := encoderNode("2", "")
	c := encoderNode("3", "")
	g := graphOf(a, b, c)

	if got := ClassifyRole(g, c); got != RoleUnknown {
		t.Errorf("third untitled encoder must stay unknown, got %s", got)
	}
}

func TestClassifyMixedTitles(t *testing.T) {
	// one titled encoder does not consume a tie-break position
	titled := encoderNode("1", "Main Prompt")
	untitled := encoderNode("2", "")
	g := graphOf(titled, untitled)

	if got := ClassifyRole(g, titled); got != RolePositivePrompt {
		t.Errorf("expected positive_prompt from title, got %s", got)
	}
	if got := ClassifyRole(g, untitled); got != RolePositivePrompt {
		t.Errorf("first untitled encoder should still tie-break to positive, got %s", got)
	}
}

func TestClassifyExactTypes(t *testing.T) {
	cases := []struct {
		nodeType string
		want     Role
	}{
		{"KSampler", RoleSampler},
		{"KSamplerAdvanced", RoleSampler},
		{"EmptyLatentImage", RoleLatentSize},
		{"LoraLoader", RoleLora},
		{"CheckpointLoaderSimple", RoleCheckpoint},
		{"VAELoader", RoleVAE},
		{"SaveImage", RoleUnknown},
		{"SomeBrandNewNode", RoleUnknown},
	}
	g := NewGraph()
	for _, c := range cases {
		n := &Node{ID: "1", Type: c.nodeType}
		if got := ClassifyRole(g, n); got != c.want {
			t.Errorf("%s: expected %s, got %s", c.nodeType, c.want, got)
		}
	}
}

func TestClassifySubstringFamilies(t *testing.T) {
	g := NewGraph()

	latent := &Node{ID: "1", Type: "EmptySD3LatentImage"}
	if got := ClassifyRole(g, latent); got != RoleLatentSize {
		t.Errorf("expected latent_size, got %s", got)
	}

	custom := &Node{ID: "2", Type: "CustomLatentImageXL"}
	if got := ClassifyRole(g, custom); got != RoleLatentSize {
		t.Errorf("latent substring family should classify, got %s", got)
	}

	sampler := &Node{ID: "3", Type: "UltraSamplerTurbo"}
	if got := ClassifyRole(g, sampler); got != RoleSampler {
		t.Errorf("sampler substring family should classify, got %s", got)
	}
}

func TestClassifyClipLoaderIsNotAPrompt(t *testing.T) {
	loader := &Node{ID: "1", Type: "CLIPVisionLoader"}
	g := graphOf(loader)
	if got := ClassifyRole(g, loader); got != RoleUnknown {
		t.Errorf("CLIP loaders must not classify as prompt encoders, got %s", got)
	}
}

func TestResolveRolesCoversAllNodes(t *testing.T) {
	g := Normalize([]byte(editorWorkflow))
	roles := ResolveRoles(g)
	if len(roles) != len(g.Nodes) {
		t.Fatalf("expected a role entry per node, got %d of %d", len(roles), len(g.Nodes))
	}
	if roles["6"] != RolePositivePrompt || roles["7"] != RoleNegativePrompt {
		t.Errorf("titled prompts misclassified: %s / %s", roles["6"], roles["7"])
	}
	if roles["3"] != RoleSampler || roles["5"] != RoleLatentSize || roles["4"] != RoleCheckpoint {
		t.Errorf("unexpected roles: sampler=%s latent=%s checkpoint=%s", roles["3"], roles["5"], roles["4"])
	}
}
