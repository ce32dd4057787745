// Package model holds the engine-neutral mesh model: nodes, elements,
// materials and named sets, all immutable once assembly finalizes.
package model

import (
	"fmt"
	"sort"
)

// ElementType identifies the element family of a record.
type ElementType int

const (
	Tet ElementType = iota
	Hex
	Penta
	Shell
	Truss
)

func (e ElementType) String() string {
	return [...]string{"Tet", "Hex", "Penta", "Shell", "Truss"}[e]
}

// NumNodes returns the node count each element type declares.
func (e ElementType) NumNodes() int {
	return [...]int{4, 8, 6, 3, 2}[e]
}

// Solid reports whether the type is a volume element.
func (e ElementType) Solid() bool {
	return e == Tet || e == Hex || e == Penta
}

var keywordTypes = map[string]ElementType{
	"TETRA": Tet,
	"HEXA":  Hex,
	"PENTA": Penta,
	"TRIA":  Shell,
	"LINE":  Truss,
}

// TypeForKeyword maps a record keyword to its element type.
func TypeForKeyword(kw string) (ElementType, bool) {
	t, ok := keywordTypes[kw]
	return t, ok
}

// Node is one mesh vertex after the coordinate offset has been
// applied.
type Node struct {
	ID      int
	X, Y, Z float64
}

func (n Node) Coord() [3]float64 { return [3]float64{n.X, n.Y, n.Z} }

// Element connectivity is geometry-significant: the node order is
// kept exactly as declared in the file. Mat is the material id for
// solids and shells and the section property id for trusses.
type Element struct {
	ID    int
	Type  ElementType
	Mat   int
	Nodes []int
}

// Material carries named scalar properties in file units.
type Material struct {
	ID    int
	Name  string
	Props map[string]float64
}

// TrussSection describes a PETRUSS section property; truss elements
// referencing it are the reinforcement (anchor/strut) elements.
type TrussSection struct {
	Prop int
	Name string
	Mat  int
	Area float64
}

// SetKind distinguishes how a named set was declared. What category a
// set acts in (material, load, boundary) is decided by the stage
// command that references it, not by the set itself.
type SetKind uint8

const (
	MeshSet SetKind = iota
	BoundarySet
)

func (k SetKind) String() string {
	return [...]string{"MeshSet", "BoundarySet"}[k]
}

// Set is a named collection of element and node ids.
type Set struct {
	ID    int
	Name  string
	Kind  SetKind
	Elems IDSet
	Nodes IDSet
}

// FixedDOF is one boundary condition row inside a boundary set.
type FixedDOF struct {
	Node int
	DOF  string
}

// Mesh is the assembled model. It is read-only after Finalize; stage
// activation is a derived view, never a mutation of the mesh.
type Mesh struct {
	Version string
	Units   []string
	Offset  [3]float64

	Nodes     map[int]Node
	Elements  map[int]Element
	Materials map[int]Material
	Sections  map[int]TrussSection
	Prestress map[int]float64 // element id -> pretension force
	LoadSets  map[int]IDSet   // load set id -> member element ids
	Sets      map[int]*Set    // mesh sets by id
	BSets     map[int]*Set    // boundary sets by id
	Fixities  map[int][]FixedDOF
}

func NewMesh() *Mesh {
	return &Mesh{
		Nodes:     make(map[int]Node),
		Elements:  make(map[int]Element),
		Materials: make(map[int]Material),
		Sections:  make(map[int]TrussSection),
		Prestress: make(map[int]float64),
		LoadSets:  make(map[int]IDSet),
		Sets:      make(map[int]*Set),
		BSets:     make(map[int]*Set),
		Fixities:  make(map[int][]FixedDOF),
	}
}

func (m *Mesh) Node(id int) (Node, bool) {
	n, ok := m.Nodes[id]
	return n, ok
}

func (m *Mesh) Element(id int) (Element, bool) {
	e, ok := m.Elements[id]
	return e, ok
}

// SetByName returns the mesh set with the given display name; ties go
// to the smallest set id.
func (m *Mesh) SetByName(name string) (*Set, bool) {
	var found *Set
	for _, s := range m.Sets {
		if s.Name == name && (found == nil || s.ID < found.ID) {
			found = s
		}
	}
	return found, found != nil
}

// NodeIDs returns all node ids in ascending order.
func (m *Mesh) NodeIDs() []int {
	ids := make([]int, 0, len(m.Nodes))
	for id := range m.Nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ElementIDs returns all element ids in ascending order.
func (m *Mesh) ElementIDs() []int {
	ids := make([]int, 0, len(m.Elements))
	for id := range m.Elements {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// AnchorProps returns the section property ids that mark truss
// elements as anchors.
func (m *Mesh) AnchorProps() IDSet {
	props := NewIDSet()
	for p := range m.Sections {
		props.Add(p)
	}
	return props
}

// AnchorElements returns the truss elements whose property id has a
// truss section record, in ascending id order.
func (m *Mesh) AnchorElements() []Element {
	props := m.AnchorProps()
	var out []Element
	for _, id := range m.ElementIDs() {
		e := m.Elements[id]
		if e.Type == Truss && props.Has(e.Mat) {
			out = append(out, e)
		}
	}
	return out
}

// BoundingBox returns the min and max corners of the node cloud.
func (m *Mesh) BoundingBox() (lo, hi [3]float64) {
	first := true
	for _, n := range m.Nodes {
		c := n.Coord()
		if first {
			lo, hi = c, c
			first = false
			continue
		}
		for i := 0; i < 3; i++ {
			if c[i] < lo[i] {
				lo[i] = c[i]
			}
			if c[i] > hi[i] {
				hi[i] = c[i]
			}
		}
	}
	return
}

// Stats summarizes the mesh the way a preprocessor log would.
func (m *Mesh) Stats() string {
	counts := make(map[ElementType]int)
	for _, e := range m.Elements {
		counts[e.Type]++
	}
	s := fmt.Sprintf("nodes=%d elements=%d materials=%d sets=%d bsets=%d",
		len(m.Nodes), len(m.Elements), len(m.Materials), len(m.Sets), len(m.BSets))
	for _, t := range []ElementType{Tet, Hex, Penta, Shell, Truss} {
		if counts[t] > 0 {
			s += fmt.Sprintf(" %s=%d", t, counts[t])
		}
	}
	return s
}
