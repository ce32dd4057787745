// Package assemble turns the record stream into the canonical mesh
// model. The stream is consumed exactly once; forward references are
// legal in the source format, so id resolution happens in a single
// finalization pass after the stream is exhausted.
package assemble

import (
	"sort"

	"github.com/xinfuwcx/DeepCAD-sub015/diag"
	"github.com/xinfuwcx/DeepCAD-sub015/fpn"
	"github.com/xinfuwcx/DeepCAD-sub015/model"
)

type Config struct {
	// AutoOffset derives the coordinate offset from the minimum
	// corner of the node cloud when the file has no OFFSET record.
	// Survey-grade models sit far from the origin, which starves
	// float precision downstream.
	AutoOffset bool
}

type Assembler struct {
	cfg Config
	rep *diag.Report

	mesh   *model.Mesh
	offset *[3]float64 // explicit OFFSET record, wins over AutoOffset

	rawNodes  []fpn.Node
	rawElems  []fpn.Element
	rawPstrs  []fpn.Prestress
	stageDefs []model.StageDef
	stageIdx  map[int]int

	curSet  *model.Set // open MSET
	curBSet *model.Set // open BSET

	setLines map[int]int // set id -> header line, for member diagnostics
}

func New(cfg Config, rep *diag.Report) *Assembler {
	return &Assembler{
		cfg:      cfg,
		rep:      rep,
		mesh:     model.NewMesh(),
		stageIdx: make(map[int]int),
		setLines: make(map[int]int),
	}
}

// Build is the convenience path: consume every record, then finalize.
func Build(recs []fpn.Record, cfg Config, rep *diag.Report) (*model.Mesh, []model.StageDef) {
	a := New(cfg, rep)
	for _, r := range recs {
		a.Consume(r)
	}
	return a.Finalize()
}

func (a *Assembler) Consume(rec fpn.Record) {
	switch r := rec.(type) {
	case fpn.Version:
		a.mesh.Version = r.Value
	case fpn.Unit:
		a.mesh.Units = r.Fields
	case fpn.Offset:
		a.offset = &[3]float64{r.X, r.Y, r.Z}
	case fpn.Node:
		a.rawNodes = append(a.rawNodes, r)
	case fpn.Element:
		a.rawElems = append(a.rawElems, r)
	case fpn.Material:
		m := a.material(r.ID)
		m.Name = r.Name
		m.Props["E"] = r.E
		m.Props["nu"] = r.Nu
		m.Props["gamma"] = r.Gamma
		a.mesh.Materials[r.ID] = m
	case fpn.MohrCoulomb:
		m := a.material(r.ID)
		m.Props["phi"] = r.Phi
		m.Props["c"] = r.Cohesion
		a.mesh.Materials[r.ID] = m
	case fpn.TrussSection:
		a.mesh.Sections[r.Prop] = model.TrussSection{
			Prop: r.Prop, Name: r.Name, Mat: r.Mat, Area: r.Area,
		}
	case fpn.Prestress:
		a.rawPstrs = append(a.rawPstrs, r)
	case fpn.SetHeader:
		a.openSet(r)
	case fpn.SetMembers:
		a.addMembers(r)
	case fpn.Constraint:
		a.addConstraint(r)
	case fpn.Stage:
		a.addStage(r)
	case fpn.GroupCommand:
		a.addCommand(r)
	case fpn.Raw:
		// Preserved upstream; nothing to assemble.
	}
}

func (a *Assembler) material(id int) model.Material {
	if m, ok := a.mesh.Materials[id]; ok {
		return m
	}
	return model.Material{ID: id, Props: make(map[string]float64)}
}

func (a *Assembler) openSet(r fpn.SetHeader) {
	kind := model.MeshSet
	if r.Key == "BSET" {
		kind = model.BoundarySet
	}
	s := &model.Set{
		ID:    r.ID,
		Name:  r.Name,
		Kind:  kind,
		Elems: model.NewIDSet(),
		Nodes: model.NewIDSet(),
	}
	a.setLines[r.ID] = r.Line
	if kind == model.BoundarySet {
		a.mesh.BSets[r.ID] = s
		a.curBSet = s
		a.curSet = nil
		return
	}
	a.mesh.Sets[r.ID] = s
	a.curSet = s
	a.curBSet = nil
}

func (a *Assembler) addMembers(r fpn.SetMembers) {
	if a.curSet == nil {
		a.rep.Addf(diag.UnparsedLine, r.Line, "%s outside of an MSET block", r.Key)
		return
	}
	target := a.curSet.Elems
	if r.Key == "MSETN" {
		target = a.curSet.Nodes
	}
	for _, id := range r.IDs {
		target.Add(id)
	}
}

func (a *Assembler) addConstraint(r fpn.Constraint) {
	if a.curBSet == nil {
		a.rep.Addf(diag.UnparsedLine, r.Line, "CONST outside of a BSET block")
		return
	}
	a.curBSet.Nodes.Add(r.Node)
	a.mesh.Fixities[a.curBSet.ID] = append(a.mesh.Fixities[a.curBSet.ID],
		model.FixedDOF{Node: r.Node, DOF: r.DOF})
}

func (a *Assembler) addStage(r fpn.Stage) {
	if _, dup := a.stageIdx[r.ID]; dup {
		a.rep.Addf(diag.UnparsedLine, r.Line, "duplicate stage id %d ignored", r.ID)
		return
	}
	a.stageIdx[r.ID] = len(a.stageDefs)
	a.stageDefs = append(a.stageDefs, model.StageDef{ID: r.ID, Type: r.Type, Name: r.Name})
}

func (a *Assembler) addCommand(r fpn.GroupCommand) {
	cat, verb, ok := model.VerbForKeyword(r.Verb)
	if !ok {
		a.rep.Addf(diag.UnparsedLine, r.Line, "unknown command verb %s", r.Verb)
		return
	}
	idx, ok := a.stageIdx[r.Stage]
	if !ok {
		a.rep.Addf(diag.UnknownGroupReference, r.Line,
			"%s references undeclared stage %d", r.Verb, r.Stage)
		return
	}
	a.stageDefs[idx].Commands = append(a.stageDefs[idx].Commands, model.StageCommand{
		Category: cat,
		Verb:     verb,
		GroupIDs: r.IDs,
		Line:     r.Line,
	})
}

// Finalize resolves all forward references, applies the coordinate
// offset exactly once, and returns the immutable mesh together with
// the stage definitions in file order.
func (a *Assembler) Finalize() (*model.Mesh, []model.StageDef) {
	off := a.resolveOffset()
	a.mesh.Offset = off

	for _, n := range a.rawNodes {
		a.mesh.Nodes[n.ID] = model.Node{
			ID: n.ID,
			X:  n.X - off[0],
			Y:  n.Y - off[1],
			Z:  n.Z - off[2],
		}
	}

	for _, e := range a.rawElems {
		t, ok := model.TypeForKeyword(e.Key)
		if !ok {
			a.rep.Addf(diag.UnparsedLine, e.Line, "element %d: unknown kind %s", e.ID, e.Key)
			continue
		}
		if missing, ok := a.missingNode(e.Nodes); !ok {
			a.rep.Addf(diag.DanglingReference, e.Line,
				"element %d dropped: node %d not defined", e.ID, missing)
			continue
		}
		a.mesh.Elements[e.ID] = model.Element{
			ID: e.ID, Type: t, Mat: e.Prop, Nodes: e.Nodes,
		}
	}

	for _, p := range a.rawPstrs {
		if _, ok := a.mesh.Elements[p.Elem]; !ok {
			a.rep.Addf(diag.DanglingReference, p.Line,
				"prestress dropped: element %d not defined", p.Elem)
			continue
		}
		a.mesh.Prestress[p.Elem] = p.Force
		set, ok := a.mesh.LoadSets[p.Set]
		if !ok {
			set = model.NewIDSet()
			a.mesh.LoadSets[p.Set] = set
		}
		set.Add(p.Elem)
	}

	a.pruneSetMembers()
	return a.mesh, a.stageDefs
}

func (a *Assembler) resolveOffset() [3]float64 {
	if a.offset != nil {
		return *a.offset
	}
	if !a.cfg.AutoOffset || len(a.rawNodes) == 0 {
		return [3]float64{}
	}
	off := [3]float64{a.rawNodes[0].X, a.rawNodes[0].Y, a.rawNodes[0].Z}
	for _, n := range a.rawNodes[1:] {
		if n.X < off[0] {
			off[0] = n.X
		}
		if n.Y < off[1] {
			off[1] = n.Y
		}
		if n.Z < off[2] {
			off[2] = n.Z
		}
	}
	return off
}

func (a *Assembler) missingNode(ids []int) (int, bool) {
	for _, id := range ids {
		if !a.hasRawNode(id) {
			return id, false
		}
	}
	return 0, true
}

func (a *Assembler) hasRawNode(id int) bool {
	_, ok := a.mesh.Nodes[id]
	return ok
}

// pruneSetMembers drops member ids that never resolved to a real
// element or node. The member lists arrive before or after their
// targets, so this can only be decided here.
func (a *Assembler) pruneSetMembers() {
	ids := make([]int, 0, len(a.mesh.Sets))
	for id := range a.mesh.Sets {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		s := a.mesh.Sets[id]
		for _, eid := range s.Elems.Sorted() {
			if _, ok := a.mesh.Elements[eid]; !ok {
				s.Elems.Subtract(model.NewIDSet(eid))
				a.rep.Addf(diag.DanglingReference, a.setLines[id],
					"set %d: element member %d not defined", id, eid)
			}
		}
		for _, nid := range s.Nodes.Sorted() {
			if _, ok := a.mesh.Nodes[nid]; !ok {
				s.Nodes.Subtract(model.NewIDSet(nid))
				a.rep.Addf(diag.DanglingReference, a.setLines[id],
					"set %d: node member %d not defined", id, nid)
			}
		}
	}
}
