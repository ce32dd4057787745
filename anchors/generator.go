// Package anchors couples anchor truss nodes to the surrounding soil
// and wall meshes through weighted multi-point constraints. The
// constraints are pure output for the downstream solver integration;
// nothing here mutates the mesh.
package anchors

import (
	"context"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/xinfuwcx/DeepCAD-sub015/diag"
	"github.com/xinfuwcx/DeepCAD-sub015/model"
	"github.com/xinfuwcx/DeepCAD-sub015/spatial"
)

// Category tags a constraint with the interface that produced it.
type Category uint8

const (
	AnchorSoil Category = iota // frictional coupling along the free length
	AnchorWall                 // bearing coupling at the anchor head
)

func (c Category) String() string {
	return [...]string{"anchor-soil", "anchor-wall"}[c]
}

// CategoryConfig tunes the master search for one interface category.
type CategoryConfig struct {
	SearchRadius   float64 `yaml:"searchRadius"`
	MaxNeighbors   int     `yaml:"maxNeighbors"`
	RadiusGrowth   float64 `yaml:"radiusGrowth"`
	MaxRetries     int     `yaml:"maxRetries"`
	CoincidenceTol float64 `yaml:"coincidenceTol"`
}

type Config struct {
	Soil    CategoryConfig `yaml:"soil"`
	Wall    CategoryConfig `yaml:"wall"`
	Workers int            `yaml:"workers"`
}

// DefaultConfig carries search parameters sized for meter-unit
// excavation models.
func DefaultConfig() Config {
	return Config{
		Soil: CategoryConfig{
			SearchRadius:   1.5,
			MaxNeighbors:   8,
			RadiusGrowth:   2.0,
			MaxRetries:     3,
			CoincidenceTol: 1e-6,
		},
		Wall: CategoryConfig{
			SearchRadius:   0.8,
			MaxNeighbors:   4,
			RadiusGrowth:   2.0,
			MaxRetries:     3,
			CoincidenceTol: 1e-6,
		},
		Workers: 4,
	}
}

type Master struct {
	Node   int
	Weight float64
}

// Constraint ties one anchor node to its master nodes. Weights sum
// to 1; a single master with weight 1 is a rigid link.
type Constraint struct {
	Slave    int
	Masters  []Master
	Category Category
}

const distEps = 1e-9

// Generator holds the read-only inputs of one constraint run.
type Generator struct {
	mesh *model.Mesh
	cfg  Config
	rep  *diag.Report

	soil *spatial.Index
	wall *spatial.Index

	chains []Chain
	tasks  []task
}

type task struct {
	node  int
	coord [3]float64
	cat   Category
}

// NewGenerator classifies the mesh nodes and builds the two master
// indexes. Soil masters are the solid-element nodes, wall masters
// the shell-element nodes; anchor nodes are excluded from both so an
// anchor can never be its own master.
func NewGenerator(mesh *model.Mesh, cfg Config, rep *diag.Report) *Generator {
	g := &Generator{mesh: mesh, cfg: cfg, rep: rep}

	anchorNodes := model.NewIDSet()
	for _, e := range mesh.AnchorElements() {
		for _, n := range e.Nodes {
			anchorNodes.Add(n)
		}
	}

	soilNodes := model.NewIDSet()
	wallNodes := model.NewIDSet()
	for _, e := range mesh.Elements {
		set := soilNodes
		switch {
		case e.Type.Solid():
		case e.Type == model.Shell:
			set = wallNodes
		default:
			continue
		}
		for _, n := range e.Nodes {
			set.Add(n)
		}
	}

	g.soil = g.buildIndex(soilNodes, anchorNodes)
	g.wall = g.buildIndex(wallNodes, anchorNodes)
	g.chains = BuildChains(mesh, g.wall)

	// An anchor node that already belongs to the soil or wall mesh
	// is tied by shared connectivity and needs no constraint.
	for _, c := range g.chains {
		for _, n := range c.Nodes {
			if soilNodes.Has(n) || wallNodes.Has(n) {
				continue
			}
			nd, ok := mesh.Node(n)
			if !ok {
				continue
			}
			cat := AnchorSoil
			if n == c.Head {
				cat = AnchorWall
			}
			g.tasks = append(g.tasks, task{node: n, coord: nd.Coord(), cat: cat})
		}
	}
	sort.Slice(g.tasks, func(i, j int) bool { return g.tasks[i].node < g.tasks[j].node })
	return g
}

func (g *Generator) buildIndex(nodes, exclude model.IDSet) *spatial.Index {
	pts := make([]spatial.Point, 0, nodes.Len())
	for _, id := range nodes.Sorted() {
		if exclude.Has(id) {
			continue
		}
		n := g.mesh.Nodes[id]
		pts = append(pts, spatial.Point{ID: id, X: n.X, Y: n.Y, Z: n.Z})
	}
	return spatial.NewIndex(pts)
}

// Chains returns the anchor chains found during classification.
func (g *Generator) Chains() []Chain { return g.chains }

// Generate resolves every anchor node to a constraint, fanning the
// node list out over Workers goroutines. Results come back in
// ascending slave node id regardless of worker count. The context
// bounds the radius-widening retry loop; cancellation abandons the
// run and returns the context error.
func (g *Generator) Generate(ctx context.Context) ([]Constraint, error) {
	if len(g.tasks) == 0 {
		return nil, nil
	}
	nw := g.cfg.Workers
	if nw < 1 {
		nw = 1
	}
	if nw > len(g.tasks) {
		nw = len(g.tasks)
	}

	parts := make([][]Constraint, nw)
	var wg sync.WaitGroup
	for w := 0; w < nw; w++ {
		lo := w * len(g.tasks) / nw
		hi := (w + 1) * len(g.tasks) / nw
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			for _, tk := range g.tasks[lo:hi] {
				if ctx.Err() != nil {
					return
				}
				if c, ok := g.resolve(ctx, tk); ok {
					parts[w] = append(parts[w], c)
				}
			}
		}(w, lo, hi)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Constraint, 0, len(g.tasks))
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

func (g *Generator) resolve(ctx context.Context, tk task) (Constraint, bool) {
	cfg, ix := g.cfg.Soil, g.soil
	if tk.cat == AnchorWall {
		cfg, ix = g.cfg.Wall, g.wall
	}

	// Coincident with an existing master node: rigid link, no
	// interpolation.
	if nb := ix.KNearest(tk.coord, 1); len(nb) > 0 && nb[0].Dist <= cfg.CoincidenceTol {
		return Constraint{
			Slave:    tk.node,
			Masters:  []Master{{Node: nb[0].ID, Weight: 1}},
			Category: tk.cat,
		}, true
	}

	r := cfg.SearchRadius
	var found []spatial.Neighbor
	for try := 0; try <= cfg.MaxRetries; try++ {
		if ctx.Err() != nil {
			return Constraint{}, false
		}
		found = ix.WithinRadius(tk.coord, r)
		if len(found) > 0 {
			break
		}
		r *= cfg.RadiusGrowth
	}
	if len(found) == 0 {
		g.rep.Add(diag.Entry{
			Kind:   diag.UnresolvedAnchorNode,
			NodeID: tk.node,
			Coord:  tk.coord,
			Detail: "no " + tk.cat.String() + " master within widened radius",
		})
		return Constraint{}, false
	}
	if len(found) > cfg.MaxNeighbors && cfg.MaxNeighbors > 0 {
		found = found[:cfg.MaxNeighbors]
	}

	w := make([]float64, len(found))
	for i, nb := range found {
		w[i] = 1 / (nb.Dist + distEps)
	}
	floats.Scale(1/floats.Sum(w), w)

	masters := make([]Master, len(found))
	for i, nb := range found {
		masters[i] = Master{Node: nb.ID, Weight: w[i]}
	}
	return Constraint{Slave: tk.node, Masters: masters, Category: tk.cat}, true
}
