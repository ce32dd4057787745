package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xinfuwcx/DeepCAD-sub015/diag"
	"github.com/xinfuwcx/DeepCAD-sub015/fpn"
	"github.com/xinfuwcx/DeepCAD-sub015/model"
)

var excavationFPN = []byte(`$ staged excavation, trimmed
VER, 2.0.0
UNIT, N, M, SEC
NODE, 1, 0.0, 0.0, 0.0
NODE, 2, 1.0, 0.0, 0.0
NODE, 3, 0.0, 1.0, 0.0
NODE, 4, 0.0, 0.0, 1.0
NODE, 5, 2.0, 0.0, 0.0
TETRA, 10, 1, 1, 2, 3, 4
LINE, 20, 7, 2, 5
MATGEN, 1, 2.1e7, , , 0.3, 19.0
MNLMC, 1, 30.0, , , 12.5
PETRUSS, 7, ANCHOR_A, 0, 1, 0.0005
PSTRST, 3, 20, 300000.0
MSET, 100, SOIL_A
MSETE, 10
MSETN, 1, 2, 3, 4
BSET, 200, BOTTOM_FIX
CONST, 1, 111000
CONST, 4, 111000
STAGE, 1, 0, Initial
STAGE, 2, 0, Excavate
MADD, 1, 1, 100
BADD, 1, 1, 200
MDEL, 2, 1, 100
`)

func TestAssembleExcavation(t *testing.T) {
	rep := diag.NewReport()
	recs, _, err := fpn.Parse(excavationFPN, nil, fpn.DefaultMaxReplacementRatio, rep)
	assert.NoError(t, err)

	mesh, stages := Build(recs, Config{}, rep)

	{ // headers
		assert.Equal(t, "2.0.0", mesh.Version)
		assert.Equal(t, []string{"N", "M", "SEC"}, mesh.Units)
	}
	{ // nodes and elements
		assert.Len(t, mesh.Nodes, 5)
		tet, ok := mesh.Element(10)
		assert.True(t, ok)
		assert.Equal(t, model.Tet, tet.Type)
		assert.Equal(t, []int{1, 2, 3, 4}, tet.Nodes)
		truss, ok := mesh.Element(20)
		assert.True(t, ok)
		assert.Equal(t, model.Truss, truss.Type)
		assert.Equal(t, 7, truss.Mat)
	}
	{ // material with strength overlay merged in
		mat := mesh.Materials[1]
		assert.InDelta(t, 2.1e7, mat.Props["E"], 1)
		assert.InDelta(t, 0.3, mat.Props["nu"], 1e-12)
		assert.InDelta(t, 30.0, mat.Props["phi"], 1e-12)
		assert.InDelta(t, 12.5, mat.Props["c"], 1e-12)
	}
	{ // anchor section and prestress
		sec := mesh.Sections[7]
		assert.Equal(t, "ANCHOR_A", sec.Name)
		assert.InDelta(t, 0.0005, sec.Area, 1e-12)
		assert.InDelta(t, 300000.0, mesh.Prestress[20], 1e-6)
		assert.True(t, mesh.LoadSets[3].Has(20))
	}
	{ // sets
		s, ok := mesh.SetByName("SOIL_A")
		assert.True(t, ok)
		assert.True(t, s.Elems.Has(10))
		assert.Equal(t, 4, s.Nodes.Len())
		b := mesh.BSets[200]
		assert.Equal(t, model.BoundarySet, b.Kind)
		assert.Len(t, mesh.Fixities[200], 2)
	}
	{ // stage definitions in file order with commands attributed
		assert.Len(t, stages, 2)
		assert.Equal(t, "Initial", stages[0].Name)
		assert.Len(t, stages[0].Commands, 2)
		assert.Equal(t, model.Materials, stages[0].Commands[0].Category)
		assert.Equal(t, model.Add, stages[0].Commands[0].Verb)
		assert.Equal(t, []int{100}, stages[0].Commands[0].GroupIDs)
		assert.Len(t, stages[1].Commands, 1)
		assert.Equal(t, model.Remove, stages[1].Commands[0].Verb)
	}
	assert.Zero(t, rep.Len())
}

func TestAssembleDanglingReferences(t *testing.T) {
	src := []byte(`NODE, 1, 0, 0, 0
NODE, 2, 1, 0, 0
LINE, 5, 7, 1, 99
PSTRST, 1, 6, 100.0
MSET, 10, GHOSTS
MSETE, 5, 77
MSETN, 2, 44
`)
	rep := diag.NewReport()
	recs, _, err := fpn.Parse(src, nil, fpn.DefaultMaxReplacementRatio, rep)
	assert.NoError(t, err)

	mesh, _ := Build(recs, Config{}, rep)

	{ // element with an undefined node is dropped, not invented
		_, ok := mesh.Element(5)
		assert.False(t, ok)
	}
	{ // prestress on an undefined element is dropped
		_, ok := mesh.Prestress[6]
		assert.False(t, ok)
		assert.Empty(t, mesh.LoadSets)
	}
	{ // set members are pruned to what resolved
		s := mesh.Sets[10]
		assert.Zero(t, s.Elems.Len())
		assert.Equal(t, []int{2}, s.Nodes.Sorted())
	}
	// element 5, its prestress, set members 5, 77 and node member 44
	assert.Equal(t, 5, rep.Count(diag.DanglingReference))
}

func TestAssembleOffsets(t *testing.T) {
	rep := diag.NewReport()
	{ // explicit OFFSET record wins
		recs, _, _ := fpn.Parse([]byte(`OFFSET, 100.0, 200.0, 0.0
NODE, 1, 101.0, 205.0, 3.0
`), nil, fpn.DefaultMaxReplacementRatio, rep)
		mesh, _ := Build(recs, Config{AutoOffset: true}, rep)
		n, _ := mesh.Node(1)
		assert.Equal(t, [3]float64{1.0, 5.0, 3.0}, n.Coord())
		assert.Equal(t, [3]float64{100.0, 200.0, 0.0}, mesh.Offset)
	}
	{ // auto offset shifts the cloud to its minimum corner
		recs, _, _ := fpn.Parse([]byte(`NODE, 1, 500000.0, 3800000.0, -12.0
NODE, 2, 500010.0, 3800005.0, 0.0
`), nil, fpn.DefaultMaxReplacementRatio, rep)
		mesh, _ := Build(recs, Config{AutoOffset: true}, rep)
		n1, _ := mesh.Node(1)
		n2, _ := mesh.Node(2)
		assert.Equal(t, [3]float64{0, 0, 0}, n1.Coord())
		assert.Equal(t, [3]float64{10, 5, 12}, n2.Coord())
	}
	{ // no offset unless asked
		recs, _, _ := fpn.Parse([]byte("NODE, 1, 9.0, 9.0, 9.0\n"), nil, fpn.DefaultMaxReplacementRatio, rep)
		mesh, _ := Build(recs, Config{}, rep)
		n, _ := mesh.Node(1)
		assert.Equal(t, [3]float64{9, 9, 9}, n.Coord())
	}
}

func TestAssembleUnknownStage(t *testing.T) {
	rep := diag.NewReport()
	recs, _, _ := fpn.Parse([]byte(`STAGE, 1, 0, Only
MADD, 9, 1, 100
`), nil, fpn.DefaultMaxReplacementRatio, rep)
	_, stages := Build(recs, Config{}, rep)

	assert.Len(t, stages, 1)
	assert.Empty(t, stages[0].Commands)
	assert.Equal(t, 1, rep.Count(diag.UnknownGroupReference))
}
