// Package topology models section connectivity and answers alternate-route
// queries for the resolution generator and the simulator.
package topology

import (
	"sort"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/railops/railsched/core/model"
)

// Graph is a directed graph whose nodes are track sections. An edge a->b
// exists when a's To endpoint is b's From endpoint, weighted by b's length,
// so a shortest path accumulates the length of the sections traversed after
// the source.
type Graph struct {
	sections []model.TrackSection
	index    map[string]model.TrackSection
	ids      map[string]int64
	names    map[int64]string
	g        *simple.WeightedDirectedGraph
}

// New builds the connectivity graph for the given sections. Node IDs are
// assigned in sorted section order so repeated builds are identical.
func New(sections []model.TrackSection) *Graph {
	t := &Graph{
		sections: model.CloneSections(sections),
		index:    model.SectionIndex(sections),
		ids:      make(map[string]int64, len(sections)),
		names:    make(map[int64]string, len(sections)),
		g:        simple.NewWeightedDirectedGraph(0, 0),
	}
	ordered := make([]string, 0, len(sections))
	for _, s := range sections {
		ordered = append(ordered, s.ID)
	}
	sort.Strings(ordered)
	for i, id := range ordered {
		nid := int64(i)
		t.ids[id] = nid
		t.names[nid] = id
		t.g.AddNode(simple.Node(nid))
	}
	for _, a := range t.sections {
		for _, b := range t.sections {
			if a.ID == b.ID || a.To == "" || a.To != b.From {
				continue
			}
			t.g.SetWeightedEdge(simple.WeightedEdge{
				F: simple.Node(t.ids[a.ID]),
				T: simple.Node(t.ids[b.ID]),
				W: b.LengthKm,
			})
		}
	}
	return t
}

// PathBetween returns the section sequence of the shortest path from src to
// dst, inclusive of both, with the accumulated length of the sections after
// src.
func (t *Graph) PathBetween(src, dst string) ([]string, float64, bool) {
	su, ok := t.ids[src]
	if !ok {
		return nil, 0, false
	}
	dv, ok := t.ids[dst]
	if !ok {
		return nil, 0, false
	}
	if src == dst {
		return []string{src}, 0, true
	}
	sp := path.DijkstraFrom(simple.Node(su), t.g)
	nodes, w := sp.To(dv)
	if len(nodes) == 0 {
		return nil, 0, false
	}
	route := make([]string, len(nodes))
	for i, n := range nodes {
		route[i] = t.names[n.ID()]
	}
	return route, w, true
}

// Sibling returns a distinct section sharing both endpoints with the given
// one, preferring the lexicographically smallest ID. Parallel tracks between
// the same stations show up as siblings.
func (t *Graph) Sibling(sectionID string) (string, bool) {
	ref, ok := t.index[sectionID]
	if !ok {
		return "", false
	}
	var best string
	for _, s := range t.sections {
		if s.ID == sectionID || s.From != ref.From || s.To != ref.To {
			continue
		}
		if best == "" || s.ID < best {
			best = s.ID
		}
	}
	return best, best != ""
}

// Alternate returns a replacement route that avoids the given section, or
// false when no viable alternate exists. A parallel sibling is preferred;
// otherwise a detour is searched between the neighbouring route sections.
// Detours are only available for interior sections of the route.
func (t *Graph) Alternate(route []string, avoid string) ([]string, bool) {
	idx := -1
	for i, id := range route {
		if id == avoid {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	if sib, ok := t.Sibling(avoid); ok {
		out := append([]string(nil), route[:idx]...)
		out = append(out, sib)
		out = append(out, route[idx+1:]...)
		return out, true
	}
	if idx == 0 || idx == len(route)-1 {
		return nil, false
	}
	sub := Without(t.sections, map[string]bool{avoid: true})
	detour, _, ok := New(sub).PathBetween(route[idx-1], route[idx+1])
	if !ok || len(detour) < 2 {
		return nil, false
	}
	out := append([]string(nil), route[:idx-1]...)
	out = append(out, detour...)
	out = append(out, route[idx+2:]...)
	return out, true
}

// RouteLength sums the lengths of the sections on a route. Unknown sections
// contribute nothing.
func (t *Graph) RouteLength(route []string) float64 {
	var sum float64
	for _, id := range route {
		if s, ok := t.index[id]; ok {
			sum += s.LengthKm
		}
	}
	return sum
}

// Without filters out the given section IDs.
func Without(sections []model.TrackSection, removed map[string]bool) []model.TrackSection {
	out := make([]model.TrackSection, 0, len(sections))
	for _, s := range sections {
		if !removed[s.ID] {
			out = append(out, s)
		}
	}
	return out
}
