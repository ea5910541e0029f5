package graph

import "sort"

const (
	colorWhite = iota
	colorGrey
	colorBlack
)

// Graph accumulates frames contributed by one or more builders (a
// middleware pipeline, a handler aggregation) for a single operation, then
// resolves them into a placed, dependency-ordered sequence.
type Graph struct {
	operation     string
	frames        []*Frame
	stageCounters map[int]int
}

// New starts an empty graph for operation, used only in error messages.
func New(operation string) *Graph {
	return &Graph{operation: operation, stageCounters: make(map[int]int)}
}

// Contribute adds f to the graph, stamping its Stage and InsertionIndex
// (the position within that stage among frames contributed so far) for the
// (Stage, InsertionIndex) tie-break Resolve applies. Returns f for chaining.
func (g *Graph) Contribute(stage int, f *Frame) *Frame {
	f.Stage = stage
	f.InsertionIndex = g.stageCounters[stage]
	g.stageCounters[stage]++
	g.frames = append(g.frames, f)
	return f
}

// ServiceFrameProvider synthesizes a producer frame for a variable with no
// explicit producer among the graph's contributed frames — the DI boundary
// internal/diservice (C6) occupies. It must return a frame whose Creates
// contains v itself (same pointer), not a copy.
type ServiceFrameProvider func(v *Variable) (*Frame, error)

// Resolve places every contributed frame so that each frame's reads are
// live before it runs, attempted in (Stage, InsertionIndex) order and
// breaking ties in favor of whichever frame was contributed earlier —
// spec.md §4.3's deterministic placement rule. params seeds the variables
// considered live from the start (method parameters, request context).
// provider may be nil; a read with no explicit producer and no provider
// fails with ErrUnresolvedService.
func (g *Graph) Resolve(params []*Variable, provider ServiceFrameProvider) ([]*Frame, error) {
	ordered := make([]*Frame, len(g.frames))
	copy(ordered, g.frames)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Stage != ordered[j].Stage {
			return ordered[i].Stage < ordered[j].Stage
		}
		return ordered[i].InsertionIndex < ordered[j].InsertionIndex
	})

	producerOf := make(map[*Variable]*Frame, len(ordered))
	for _, f := range ordered {
		for _, v := range f.Creates {
			producerOf[v] = f
		}
	}

	live := newVariableSet()
	for _, p := range params {
		live.add(p)
	}

	colors := make(map[*Frame]int)
	placed := make([]*Frame, 0, len(ordered))
	var path []*Frame

	var place func(f *Frame) error
	place = func(f *Frame) error {
		switch colors[f] {
		case colorBlack:
			return nil
		case colorGrey:
			return cycleError(g.operation, append(append([]*Frame{}, path...), f))
		}

		colors[f] = colorGrey
		path = append(path, f)

		if f.FindVariables != nil {
			for _, v := range f.FindVariables(live) {
				if live.Contains(v) {
					continue
				}
				producer, ok := producerOf[v]
				if !ok {
					if provider == nil {
						return unresolvedServiceError(g.operation, v, nil)
					}
					df, err := provider(v)
					if err != nil {
						return unresolvedServiceError(g.operation, v, err)
					}
					producerOf[v] = df
					producer = df
				}
				if err := place(producer); err != nil {
					return err
				}
			}
		}

		colors[f] = colorBlack
		path = path[:len(path)-1]
		placed = append(placed, f)
		for _, v := range f.Creates {
			v.Creator = f
			live.add(v)
		}
		return nil
	}

	for _, f := range ordered {
		if err := place(f); err != nil {
			return nil, err
		}
	}
	return placed, nil
}
