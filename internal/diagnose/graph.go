package diagnose

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// Point is a planar coordinate used by the neighbor graph. Residual
// coordinates are projected before testing, so plain Euclidean distance
// applies.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Graph is an undirected neighbor graph over a fixed point set.
type Graph struct {
	Points []Point
	adj    []map[int]bool
}

func newGraph(pts []Point) *Graph {
	g := &Graph{Points: pts, adj: make([]map[int]bool, len(pts))}
	for i := range g.adj {
		g.adj[i] = make(map[int]bool)
	}
	return g
}

func (g *Graph) addEdge(i, j int) {
	if i == j {
		return
	}
	g.adj[i][j] = true
	g.adj[j][i] = true
}

// Neighbors returns the sorted neighbor indices of node i.
func (g *Graph) Neighbors(i int) []int {
	out := make([]int, 0, len(g.adj[i]))
	for j := range g.adj[i] {
		out = append(out, j)
	}
	sort.Ints(out)
	return out
}

// Degree returns the number of neighbors of node i.
func (g *Graph) Degree(i int) int {
	return len(g.adj[i])
}

// NumEdges returns the number of undirected edges.
func (g *Graph) NumEdges() int {
	var total int
	for i := range g.adj {
		total += len(g.adj[i])
	}
	return total / 2
}

// Delaunay builds the Delaunay neighbor graph over the given points by
// Bowyer-Watson insertion. Edges between input points that only occur
// in triangles touching the enclosing super-triangle are kept as well;
// for degenerate (collinear) input this is what connects the chain, so
// no triangulated point ends up isolated.
func Delaunay(pts []Point) (*Graph, error) {
	if len(pts) < 2 {
		return nil, eris.Errorf("diagnose: need at least 2 points, got %d", len(pts))
	}

	// Super-triangle comfortably containing every point.
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	cx, cy := (minX+maxX)/2, (minY+maxY)/2

	verts := append([]Point(nil), pts...)
	verts = append(verts,
		Point{X: cx - 30*span, Y: cy - 10*span},
		Point{X: cx + 30*span, Y: cy - 10*span},
		Point{X: cx, Y: cy + 30*span},
	)
	s0, s1, s2 := len(pts), len(pts)+1, len(pts)+2

	tris := []tri{{s0, s1, s2}}
	for i := range pts {
		tris = insertPoint(verts, tris, i)
	}

	g := newGraph(pts)
	for _, t := range tris {
		for _, e := range [][2]int{{t.a, t.b}, {t.b, t.c}, {t.c, t.a}} {
			if e[0] < len(pts) && e[1] < len(pts) {
				g.addEdge(e[0], e[1])
			}
		}
	}
	return g, nil
}

type tri struct{ a, b, c int }

type edge struct{ u, v int }

func normEdge(u, v int) edge {
	if u > v {
		u, v = v, u
	}
	return edge{u, v}
}

// insertPoint performs one Bowyer-Watson insertion step: remove every
// triangle whose circumcircle contains the point and re-triangulate the
// cavity boundary against it.
func insertPoint(verts []Point, tris []tri, p int) []tri {
	var kept []tri
	boundary := map[edge]int{}
	for _, t := range tris {
		if circumcircleContains(verts[t.a], verts[t.b], verts[t.c], verts[p]) {
			boundary[normEdge(t.a, t.b)]++
			boundary[normEdge(t.b, t.c)]++
			boundary[normEdge(t.c, t.a)]++
		} else {
			kept = append(kept, t)
		}
	}
	for e, count := range boundary {
		if count == 1 {
			kept = append(kept, tri{e.u, e.v, p})
		}
	}
	return kept
}

// circumcircleContains reports whether d lies strictly inside the
// circumcircle of triangle abc, independent of the triangle's winding.
func circumcircleContains(a, b, c, d Point) bool {
	ax, ay := a.X-d.X, a.Y-d.Y
	bx, by := b.X-d.X, b.Y-d.Y
	cx, cy := c.X-d.X, c.Y-d.Y

	det := (ax*ax+ay*ay)*(bx*cy-cx*by) -
		(bx*bx+by*by)*(ax*cy-cx*ay) +
		(cx*cx+cy*cy)*(ax*by-bx*ay)

	orient := (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
	if orient < 0 {
		return det < 0
	}
	return det > 0
}

// SphereOfInfluence prunes a Delaunay graph down to edges satisfying
// the sphere-of-influence criterion: an edge (i, j) survives only when
// dist(i, j) <= r_i + r_j, where r_k is the distance from k to its
// nearest neighbor. Edges that span farther than the two local
// influence circles are "too long" relative to local point density.
func SphereOfInfluence(g *Graph) *Graph {
	n := len(g.Points)
	r := make([]float64, n)
	for i := 0; i < n; i++ {
		r[i] = math.Inf(1)
		for j := range g.adj[i] {
			if d := dist(g.Points[i], g.Points[j]); d < r[i] {
				r[i] = d
			}
		}
	}

	out := newGraph(g.Points)
	for i := 0; i < n; i++ {
		for j := range g.adj[i] {
			if i < j && dist(g.Points[i], g.Points[j]) <= r[i]+r[j] {
				out.addEdge(i, j)
			}
		}
	}
	return out
}
