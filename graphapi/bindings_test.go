package graphapi

import (
	"reflect"
	"testing"
)

func TestApplyBindingsPadsShortArrays(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: "7", Type: "KSampler", WidgetValues: []interface{}{1, 2}})

	b := NewBindingSet()
	b.BindFunc("KSampler", "7", 3, func() (interface{}, error) { return "euler", nil })

	out := ApplyBindings(g, b)
	n := out.GetNodeByID("7")
	want := []interface{}{1, 2, nil, "euler"}
	if !reflect.DeepEqual(n.WidgetValues, want) {
		t.Errorf("expected %v, got %v", want, n.WidgetValues)
	}

	// input untouched
	if len(g.GetNodeByID("7").WidgetValues) != 2 {
		t.Error("ApplyBindings mutated its input graph")
	}
}

func TestApplyBindingsSkipsDeadControls(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: "1", Type: "CLIPTextEncode", WidgetValues: []interface{}{"old"}})

	b := NewBindingSet()
	b.BindFunc("CLIPTextEncode", "1", 0, func() (interface{}, error) { return nil, ErrControlGone })

	out := ApplyBindings(g, b)
	if out.GetNodeByID("1").WidgetValues[0] != "old" {
		t.Error("a dead control must not overwrite the stored value")
	}
}

func TestApplyBindingsRequiresTypeAndIDMatch(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: "1", Type: "KSampler", WidgetValues: []interface{}{"keep"}})

	b := NewBindingSet()
	// id collides with a differently-typed node; must not apply
	b.BindFunc("CLIPTextEncode", "1", 0, func() (interface{}, error) { return "clobber", nil })

	out := ApplyBindings(g, b)
	if out.GetNodeByID("1").WidgetValues[0] != "keep" {
		t.Error("binding applied to a node of the wrong type")
	}
}

func TestApplyBindingsWorksOnAnyNodeType(t *testing.T) {
	// no role classification involved: raw positions on an unknown type
	g := NewGraph()
	g.AddNode(&Node{ID: "9", Type: "TotallyCustomNode", WidgetValues: []interface{}{0.5}})

	b := NewBindingSet()
	b.BindFunc("TotallyCustomNode", "9", 0, func() (interface{}, error) { return 0.75, nil })

	out := ApplyBindings(g, b)
	if out.GetNodeByID("9").WidgetValues[0] != 0.75 {
		t.Errorf("expected 0.75, got %v", out.GetNodeByID("9").WidgetValues[0])
	}
}

func TestApplyBindingsNilSet(t *testing.T) {
	g := Normalize([]byte(editorWorkflow))
	out := ApplyBindings(g, nil)
	if len(out.Nodes) != len(g.Nodes) {
		t.Fatal("nil binding set should produce an equivalent copy")
	}
}

func TestInjectionWinsOverStaleBindings(t *testing.T) {
	// the pipeline applies bindings first, then named-parameter injection,
	// so injected prompt/size values overwrite stale widget values
	g := Normalize([]byte(editorWorkflow))

	b := NewBindingSet()
	b.BindFunc("EmptyLatentImage", "5", 0, func() (interface{}, error) { return 321, nil })

	bound := ApplyBindings(g, b)
	inj := NewInjector(nil)
	out := inj.Inject(bound, baseParams())

	if out.GetNodeByID("5").WidgetValues[0] != 1024 {
		t.Errorf("named-parameter injection must win, got %v", out.GetNodeByID("5").WidgetValues[0])
	}
}
