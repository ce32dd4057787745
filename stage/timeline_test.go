package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xinfuwcx/DeepCAD-sub015/diag"
	"github.com/xinfuwcx/DeepCAD-sub015/model"
)

// twoLayerMesh has two soil layers as mesh sets 100 and 101, one
// anchor truss on section 7 / material 3, a prestress load set 5 and
// a boundary set 200.
func twoLayerMesh() *model.Mesh {
	m := model.NewMesh()
	for i := 1; i <= 8; i++ {
		m.Nodes[i] = model.Node{ID: i, X: float64(i)}
	}
	m.Elements[10] = model.Element{ID: 10, Type: model.Tet, Mat: 1, Nodes: []int{1, 2, 3, 4}}
	m.Elements[11] = model.Element{ID: 11, Type: model.Tet, Mat: 2, Nodes: []int{2, 3, 4, 5}}
	m.Elements[20] = model.Element{ID: 20, Type: model.Truss, Mat: 7, Nodes: []int{5, 6}}
	m.Materials[1] = model.Material{ID: 1, Props: map[string]float64{}}
	m.Materials[2] = model.Material{ID: 2, Props: map[string]float64{}}
	m.Materials[3] = model.Material{ID: 3, Props: map[string]float64{}}
	m.Sections[7] = model.TrussSection{Prop: 7, Mat: 3, Area: 5e-4}
	m.Sets[100] = &model.Set{ID: 100, Name: "LAYER_A", Kind: model.MeshSet,
		Elems: model.NewIDSet(10), Nodes: model.NewIDSet()}
	m.Sets[101] = &model.Set{ID: 101, Name: "LAYER_B", Kind: model.MeshSet,
		Elems: model.NewIDSet(11, 20), Nodes: model.NewIDSet()}
	m.LoadSets[5] = model.NewIDSet(20)
	m.BSets[200] = &model.Set{ID: 200, Name: "FIX", Kind: model.BoundarySet,
		Elems: model.NewIDSet(), Nodes: model.NewIDSet(1)}
	return m
}

func cmds(c ...model.StageCommand) []model.StageCommand { return c }

func TestFoldAcrossStages(t *testing.T) {
	mesh := twoLayerMesh()
	rep := diag.NewReport()
	defs := []model.StageDef{
		{ID: 1, Name: "Initial", Commands: cmds(
			model.StageCommand{Category: model.Materials, Verb: model.Add, GroupIDs: []int{100, 101}},
			model.StageCommand{Category: model.Boundaries, Verb: model.Add, GroupIDs: []int{200}},
		)},
		{ID: 2, Name: "Excavate", Commands: cmds(
			model.StageCommand{Category: model.Materials, Verb: model.Remove, GroupIDs: []int{100}},
			model.StageCommand{Category: model.Loads, Verb: model.Add, GroupIDs: []int{5}},
		)},
	}

	tl := Build(mesh, defs, Config{}, rep)
	assert.Equal(t, 2, tl.Len())

	{ // stage 1: both layers active, set 101 pulls in the truss material
		s, ok := tl.Snapshot(1)
		assert.True(t, ok)
		assert.Equal(t, []int{1, 2, 3}, s.Materials.Sorted())
		assert.Equal(t, []int{200}, s.Boundaries.Sorted())
		assert.Zero(t, s.Loads.Len())
	}
	{ // stage 2: layer A gone, stage 1 snapshot untouched
		s, _ := tl.Snapshot(2)
		assert.Equal(t, []int{2, 3}, s.Materials.Sorted())
		assert.Equal(t, []int{5}, s.Loads.Sorted())
		prev, _ := tl.Snapshot(1)
		assert.Equal(t, []int{1, 2, 3}, prev.Materials.Sorted())
	}
	assert.Zero(t, rep.Len())
}

func TestRemoveWinsWithinStage(t *testing.T) {
	mesh := twoLayerMesh()
	defs := []model.StageDef{
		{ID: 1, Commands: cmds(
			model.StageCommand{Category: model.Materials, Verb: model.Add, GroupIDs: []int{100}},
			model.StageCommand{Category: model.Materials, Verb: model.Remove, GroupIDs: []int{100}},
		)},
	}
	tl := Build(mesh, defs, Config{}, diag.NewReport())
	s, _ := tl.Snapshot(1)
	assert.Zero(t, s.Materials.Len())
}

func TestUnknownGroupSkipped(t *testing.T) {
	mesh := twoLayerMesh()
	rep := diag.NewReport()
	defs := []model.StageDef{
		{ID: 1, Commands: cmds(
			model.StageCommand{Category: model.Materials, Verb: model.Add, GroupIDs: []int{100, 999}},
			model.StageCommand{Category: model.Loads, Verb: model.Add, GroupIDs: []int{888}},
		)},
	}
	tl := Build(mesh, defs, Config{}, rep)

	s, _ := tl.Snapshot(1)
	assert.Equal(t, []int{1}, s.Materials.Sorted())
	assert.Zero(t, s.Loads.Len())
	assert.Equal(t, 2, rep.Count(diag.UnknownGroupReference))
}

func TestAllActiveBaseline(t *testing.T) {
	mesh := twoLayerMesh()
	defs := []model.StageDef{
		{ID: 1, Commands: cmds(
			model.StageCommand{Category: model.Materials, Verb: model.Remove, GroupIDs: []int{100}},
		)},
	}
	tl := Build(mesh, defs, Config{Baseline: AllActive}, diag.NewReport())

	s, _ := tl.Snapshot(1)
	assert.Equal(t, []int{2, 3}, s.Materials.Sorted())
	assert.Equal(t, []int{5}, s.Loads.Sorted())
	assert.Equal(t, []int{200}, s.Boundaries.Sorted())
}

func TestBareMaterialIDGroup(t *testing.T) {
	mesh := twoLayerMesh()
	defs := []model.StageDef{
		{ID: 1, Commands: cmds(
			model.StageCommand{Category: model.Materials, Verb: model.Add, GroupIDs: []int{2}},
		)},
	}
	tl := Build(mesh, defs, Config{}, diag.NewReport())
	s, _ := tl.Snapshot(1)
	assert.Equal(t, []int{2}, s.Materials.Sorted())
}

func TestActiveElements(t *testing.T) {
	mesh := twoLayerMesh()
	defs := []model.StageDef{
		{ID: 1, Commands: cmds(
			model.StageCommand{Category: model.Materials, Verb: model.Add, GroupIDs: []int{101}},
		)},
	}
	tl := Build(mesh, defs, Config{}, diag.NewReport())

	ids, err := tl.ActiveElements(1)
	assert.NoError(t, err)
	assert.Equal(t, []int{11, 20}, ids)

	{ // cached view is the same materialization
		again, err := tl.ActiveElements(1)
		assert.NoError(t, err)
		assert.Equal(t, ids, again)
	}
	{ // callers cannot corrupt the cached view
		got, _ := tl.ActiveElements(1)
		got[0] = -1
		clean, err := tl.ActiveElements(1)
		assert.NoError(t, err)
		assert.Equal(t, []int{11, 20}, clean)
	}
	{ // unknown stage id
		_, err := tl.ActiveElements(42)
		assert.Error(t, err)
	}
}

func TestBuildDeterministic(t *testing.T) {
	mesh := twoLayerMesh()
	defs := []model.StageDef{
		{ID: 1, Commands: cmds(
			model.StageCommand{Category: model.Materials, Verb: model.Add, GroupIDs: []int{100, 101}},
		)},
		{ID: 2, Commands: cmds(
			model.StageCommand{Category: model.Materials, Verb: model.Remove, GroupIDs: []int{101}},
		)},
	}
	a := Build(mesh, defs, Config{}, diag.NewReport())
	b := Build(mesh, defs, Config{}, diag.NewReport())
	for i := 0; i < a.Len(); i++ {
		assert.Equal(t, a.At(i).Materials.Sorted(), b.At(i).Materials.Sorted())
	}
}
