package anchors

import (
	"sort"

	"github.com/xinfuwcx/DeepCAD-sub015/model"
	"github.com/xinfuwcx/DeepCAD-sub015/spatial"
)

// Chain is one physical anchor: the connected run of truss elements
// that share nodes. A multi-segment anchor appears in the file as
// many two-node elements; grouping them back recovers the head and
// lets a single PSTRST force cover the whole tendon.
type Chain struct {
	ID       int
	Elements []int
	Nodes    []int

	// Head is the free-end node closest to the retaining wall, 0
	// when the mesh has no wall to anchor into.
	Head int

	// Embedded and Free split the chain endpoints by solid-node
	// contact: an endpoint sharing a node with a solid element sits
	// in the soil, the rest hang free or bear on the wall head.
	Embedded []int
	Free     []int

	// Prestress is the largest pretension force declared on any
	// member element, carried by every member.
	Prestress float64
}

// BuildChains groups the anchor elements of the mesh into connected
// components. Chains are numbered 1..n in ascending order of their
// smallest element id.
func BuildChains(mesh *model.Mesh, wall *spatial.Index) []Chain {
	elems := mesh.AnchorElements()
	if len(elems) == 0 {
		return nil
	}

	byNode := make(map[int][]int) // node id -> element ids touching it
	byID := make(map[int]model.Element, len(elems))
	for _, e := range elems {
		byID[e.ID] = e
		for _, n := range e.Nodes {
			byNode[n] = append(byNode[n], e.ID)
		}
	}

	solid := model.NewIDSet()
	for _, e := range mesh.Elements {
		if e.Type.Solid() {
			for _, n := range e.Nodes {
				solid.Add(n)
			}
		}
	}

	seen := make(map[int]bool, len(elems))
	var chains []Chain
	for _, root := range elems { // elems is sorted by id already
		if seen[root.ID] {
			continue
		}
		c := Chain{}
		stack := []int{root.ID}
		seen[root.ID] = true
		nodeSet := model.NewIDSet()
		for len(stack) > 0 {
			eid := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			c.Elements = append(c.Elements, eid)
			if f, ok := mesh.Prestress[eid]; ok && f > c.Prestress {
				c.Prestress = f
			}
			for _, n := range byID[eid].Nodes {
				nodeSet.Add(n)
				for _, next := range byNode[n] {
					if !seen[next] {
						seen[next] = true
						stack = append(stack, next)
					}
				}
			}
		}
		sort.Ints(c.Elements)
		c.Nodes = nodeSet.Sorted()
		ends := endpoints(c, byNode)
		for _, n := range ends {
			if solid.Has(n) {
				c.Embedded = append(c.Embedded, n)
			} else {
				c.Free = append(c.Free, n)
			}
		}
		c.Head = headNode(mesh, ends, wall)
		chains = append(chains, c)
	}

	sort.Slice(chains, func(i, j int) bool {
		return chains[i].Elements[0] < chains[j].Elements[0]
	})
	for i := range chains {
		chains[i].ID = i + 1
	}
	return chains
}

// endpoints returns the chain nodes touched by exactly one chain
// element, in ascending id order. A closed loop has none.
func endpoints(c Chain, byNode map[int][]int) []int {
	var ends []int
	for _, n := range c.Nodes {
		if len(byNode[n]) == 1 {
			ends = append(ends, n)
		}
	}
	return ends
}

// headNode picks the endpoint nearest the wall; a loose single
// segment has two candidates and wall proximity decides.
func headNode(mesh *model.Mesh, ends []int, wall *spatial.Index) int {
	if wall == nil || wall.Len() == 0 {
		return 0
	}
	best, bestDist := 0, 0.0
	for _, n := range ends {
		nd, ok := mesh.Node(n)
		if !ok {
			continue
		}
		nb := wall.KNearest(nd.Coord(), 1)
		if len(nb) == 0 {
			continue
		}
		if best == 0 || nb[0].Dist < bestDist {
			best, bestDist = n, nb[0].Dist
		}
	}
	return best
}
