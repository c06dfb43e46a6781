package graphapi

import (
	"reflect"
	"testing"
)

func TestGraphToPromptEditorShape(t *testing.T) {
	g := Normalize([]byte(editorWorkflow))
	p := g.GraphToPrompt("client-1")

	if p.ClientID != "client-1" {
		t.Errorf("client id lost: %s", p.ClientID)
	}
	if len(p.Nodes) != 5 {
		t.Fatalf("expected 5 prompt nodes, got %d", len(p.Nodes))
	}

	sampler, ok := p.Nodes["3"]
	if !ok {
		t.Fatal("sampler missing from prompt")
	}
	if sampler.ClassType != "KSampler" {
		t.Errorf("class type lost: %s", sampler.ClassType)
	}
	if sampler.Inputs["steps"] != float64(20) {
		t.Errorf("steps widget not named: %v", sampler.Inputs["steps"])
	}
	if _, ok := sampler.Inputs["control_after_generate"]; ok {
		t.Error("frontend-only widget leaked into the prompt")
	}

	// link inputs become [origin, slot] pairs
	model, ok := sampler.Inputs["model"].([]interface{})
	if !ok || model[0] != "4" || model[1] != 0 {
		t.Errorf("model link wrong: %v", sampler.Inputs["model"])
	}

	if p.ExtraData.PngInfo.Workflow != g {
		t.Error("original workflow not attached to extra data")
	}
}

func TestGraphToPromptSaveImageWidgets(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: "8", Type: "VAEDecode", InputNames: []string{"samples", "vae"}})
	g.AddNode(&Node{
		ID: "9", Type: "SaveImage",
		WidgetValues: []interface{}{"ComfyUI"},
		InputNames:   []string{"images"},
		InputLinks:   map[int]int{0: 1},
	})
	g.Links = append(g.Links, &Link{ID: 1, OriginID: "8", OriginSlot: 0, TargetID: "9", TargetSlot: 0})

	p := g.GraphToPrompt("client-3")
	save, ok := p.Nodes["9"]
	if !ok {
		t.Fatal("save node missing from prompt")
	}
	if save.Inputs["filename_prefix"] != "ComfyUI" {
		t.Errorf("filename prefix lost: %v", save.Inputs["filename_prefix"])
	}
	images, ok := save.Inputs["images"].([]interface{})
	if !ok || !reflect.DeepEqual(images, []interface{}{"8", 0}) {
		t.Errorf("images connection wrong: %v", save.Inputs["images"])
	}
}

func TestGraphToPromptUnregisteredTypeUsesInputNames(t *testing.T) {
	// no schema registered for this type; widget values fall back to the
	// declared input names so they still reach the backend
	g := NewGraph()
	g.AddNode(&Node{
		ID: "2", Type: "ImageBlendCustom",
		WidgetValues: []interface{}{0.5, "normal"},
		InputNames:   []string{"blend_factor", "blend_mode"},
	})

	p := g.GraphToPrompt("client-4")
	node, ok := p.Nodes["2"]
	if !ok {
		t.Fatal("unregistered node missing from prompt")
	}
	if node.Inputs["blend_factor"] != 0.5 {
		t.Errorf("blend_factor lost: %v", node.Inputs["blend_factor"])
	}
	if node.Inputs["blend_mode"] != "normal" {
		t.Errorf("blend_mode lost: %v", node.Inputs["blend_mode"])
	}
}

func TestGraphToPromptUnregisteredTypeSkipsLinkedSlots(t *testing.T) {
	// the fallback must not write a widget value over a slot that carries a
	// connection
	g := NewGraph()
	g.AddNode(&Node{ID: "1", Type: "LoadImage", WidgetValues: []interface{}{"input.png", "image"}})
	g.AddNode(&Node{
		ID: "2", Type: "ImageScaleCustom",
		WidgetValues: []interface{}{"stray", 512},
		InputNames:   []string{"image", "width"},
		InputLinks:   map[int]int{0: 1},
	})
	g.Links = append(g.Links, &Link{ID: 1, OriginID: "1", OriginSlot: 0, TargetID: "2", TargetSlot: 0})

	p := g.GraphToPrompt("client-5")
	node := p.Nodes["2"]
	image, ok := node.Inputs["image"].([]interface{})
	if !ok || !reflect.DeepEqual(image, []interface{}{"1", 0}) {
		t.Errorf("linked slot must stay a connection, got %v", node.Inputs["image"])
	}
	if node.Inputs["width"] != 512 {
		t.Errorf("unlinked slot lost its value: %v", node.Inputs["width"])
	}
}

func TestGraphToPromptFlatShape(t *testing.T) {
	g := Normalize([]byte(flatWorkflow))
	p := g.GraphToPrompt("client-2")

	enc, ok := p.Nodes["6"]
	if !ok {
		t.Fatal("encoder missing from prompt")
	}
	if enc.Inputs["text"] != "a castle" {
		t.Errorf("named input lost: %v", enc.Inputs["text"])
	}

	clip, ok := enc.Inputs["clip"].([]interface{})
	if !ok || !reflect.DeepEqual(clip, []interface{}{"4", 1}) {
		t.Errorf("connection input wrong: %v", enc.Inputs["clip"])
	}
}
