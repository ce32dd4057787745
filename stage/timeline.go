// Package stage folds per-stage group commands into activation
// snapshots. The fold is strictly left-to-right: the state after
// stage k is a pure function of the state after stage k-1 and the
// commands of stage k, applied in command-list order.
package stage

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/xinfuwcx/DeepCAD-sub015/diag"
	"github.com/xinfuwcx/DeepCAD-sub015/model"
)

// Baseline selects the activation state before the first stage.
type Baseline uint8

const (
	// EmptyStart begins with nothing active. Stage 1 must activate
	// everything it needs explicitly.
	EmptyStart Baseline = iota
	// AllActive begins with every material, load set and boundary
	// set active; excavation models remove from this state.
	AllActive
)

func (b Baseline) String() string {
	if b == AllActive {
		return "all-active"
	}
	return "empty"
}

type Config struct {
	Baseline Baseline
}

// Snapshot is the activation state after one stage. Materials holds
// material ids, Loads and Boundaries hold set ids. Snapshots are
// never mutated after Build returns.
type Snapshot struct {
	Stage      int
	Name       string
	Materials  model.IDSet
	Loads      model.IDSet
	Boundaries model.IDSet
}

// Timeline is the full ordered snapshot sequence for one mesh. It is
// immutable once built and safe for concurrent queries.
type Timeline struct {
	mesh  *model.Mesh
	snaps []Snapshot
	index map[int]int // stage id -> position in snaps

	elems *lru.Cache[int, []int]
}

const elemCacheSize = 32

// Build folds the stage definitions, in file order, over the mesh.
// Commands naming unknown groups are reported and skipped so a
// partially inconsistent file still yields a timeline for every
// stage.
func Build(mesh *model.Mesh, defs []model.StageDef, cfg Config, rep *diag.Report) *Timeline {
	cache, _ := lru.New[int, []int](elemCacheSize)
	t := &Timeline{
		mesh:  mesh,
		snaps: make([]Snapshot, 0, len(defs)),
		index: make(map[int]int, len(defs)),
		elems: cache,
	}

	cur := t.baseline(cfg.Baseline)
	for _, def := range defs {
		for _, cmd := range def.Commands {
			t.apply(cur, cmd, rep)
		}
		snap := Snapshot{
			Stage:      def.ID,
			Name:       def.Name,
			Materials:  cur.Materials.Clone(),
			Loads:      cur.Loads.Clone(),
			Boundaries: cur.Boundaries.Clone(),
		}
		t.index[def.ID] = len(t.snaps)
		t.snaps = append(t.snaps, snap)
	}
	return t
}

func (t *Timeline) baseline(b Baseline) *Snapshot {
	s := &Snapshot{
		Materials:  model.NewIDSet(),
		Loads:      model.NewIDSet(),
		Boundaries: model.NewIDSet(),
	}
	if b != AllActive {
		return s
	}
	for id := range t.mesh.Materials {
		s.Materials.Add(id)
	}
	for id := range t.mesh.LoadSets {
		s.Loads.Add(id)
	}
	for id := range t.mesh.BSets {
		s.Boundaries.Add(id)
	}
	return s
}

func (t *Timeline) apply(cur *Snapshot, cmd model.StageCommand, rep *diag.Report) {
	for _, gid := range cmd.GroupIDs {
		members, ok := t.resolve(cmd.Category, gid)
		if !ok {
			rep.Addf(diag.UnknownGroupReference, cmd.Line,
				"%s %s: unknown group %d", cmd.Verb, cmd.Category, gid)
			continue
		}
		target := cur.Materials
		switch cmd.Category {
		case model.Loads:
			target = cur.Loads
		case model.Boundaries:
			target = cur.Boundaries
		}
		if cmd.Verb == model.Add {
			target.Union(members)
		} else {
			target.Subtract(members)
		}
	}
}

// resolve maps a group id to the member ids it contributes to the
// snapshot. Material groups name mesh sets whose member elements
// carry the materials; a bare material id is accepted as a
// degenerate one-material group. Load and boundary groups contribute
// their own set id.
func (t *Timeline) resolve(cat model.Category, gid int) (model.IDSet, bool) {
	switch cat {
	case model.Materials:
		if s, ok := t.mesh.Sets[gid]; ok {
			mats := model.NewIDSet()
			for eid := range s.Elems {
				if e, ok := t.mesh.Element(eid); ok {
					mats.Add(t.materialOf(e))
				}
			}
			return mats, true
		}
		if _, ok := t.mesh.Materials[gid]; ok {
			return model.NewIDSet(gid), true
		}
		return nil, false
	case model.Loads:
		if _, ok := t.mesh.LoadSets[gid]; ok {
			return model.NewIDSet(gid), true
		}
		return nil, false
	default:
		if _, ok := t.mesh.BSets[gid]; ok {
			return model.NewIDSet(gid), true
		}
		return nil, false
	}
}

// materialOf follows a truss element through its section record to
// the underlying material; solids and shells carry the material id
// directly.
func (t *Timeline) materialOf(e model.Element) int {
	if e.Type == model.Truss {
		if sec, ok := t.mesh.Sections[e.Mat]; ok {
			return sec.Mat
		}
	}
	return e.Mat
}

// Len is the number of stages in the timeline.
func (t *Timeline) Len() int { return len(t.snaps) }

// At returns the snapshot at position i in stage order.
func (t *Timeline) At(i int) Snapshot { return t.snaps[i] }

// Snapshot returns the snapshot for a stage id.
func (t *Timeline) Snapshot(stageID int) (Snapshot, bool) {
	i, ok := t.index[stageID]
	if !ok {
		return Snapshot{}, false
	}
	return t.snaps[i], true
}

// ActiveElements materializes the sorted element ids whose material
// is active at the given stage. The view is derived on demand and
// cached; callers get a copy so the cached view stays intact.
func (t *Timeline) ActiveElements(stageID int) ([]int, error) {
	if ids, ok := t.elems.Get(stageID); ok {
		return append([]int(nil), ids...), nil
	}
	snap, ok := t.Snapshot(stageID)
	if !ok {
		return nil, fmt.Errorf("stage %d not in timeline", stageID)
	}
	var ids []int
	for eid, e := range t.mesh.Elements {
		if snap.Materials.Has(t.materialOf(e)) {
			ids = append(ids, eid)
		}
	}
	sort.Ints(ids)
	t.elems.Add(stageID, ids)
	return append([]int(nil), ids...), nil
}
