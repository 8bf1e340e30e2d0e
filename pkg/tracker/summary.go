package tracker

import "escabot/pkg/escalator"

// GistKind is the headline of a summary.
type GistKind uint8

// Gist kinds, from best to worst news.
const (
	GistAllOpen GistKind = iota + 1
	GistUnknown
	GistOutOfOrder
)

// StatusGroup lists the escalators sharing one status, in registry order.
type StatusGroup struct {
	Status     escalator.Status
	Escalators []escalator.Floors
}

// Gist summarises the engine. OutOfOrder carries a group for Down and/or
// Blocked; Unknown carries a single group of escalators with no status;
// AllOpen carries no groups.
type Gist struct {
	Kind   GistKind
	Groups []StatusGroup
	Total  int
}

// Summary computes the current gist. It is a pure function of the records.
func (e *Engine) Summary() Gist {
	e.mu.Lock()
	defer e.mu.Unlock()

	all := e.registry.All()
	byStatus := make(map[escalator.Status][]escalator.Floors)
	for i, f := range all {
		s := e.records[i].Status
		byStatus[s] = append(byStatus[s], f)
	}

	g := Gist{Total: len(all)}
	for _, s := range []escalator.Status{escalator.Down, escalator.Blocked} {
		if len(byStatus[s]) > 0 {
			g.Groups = append(g.Groups, StatusGroup{Status: s, Escalators: byStatus[s]})
		}
	}
	switch {
	case len(g.Groups) > 0:
		g.Kind = GistOutOfOrder
	case len(byStatus[escalator.Unknown]) > 0:
		g.Kind = GistUnknown
		g.Groups = []StatusGroup{{Status: escalator.Unknown, Escalators: byStatus[escalator.Unknown]}}
	default:
		g.Kind = GistAllOpen
	}
	return g
}

// MenuRow is one line item of the status menu.
type MenuRow struct {
	Floors escalator.Floors
	Status escalator.Status
}

// MenuRows lists every escalator next to its inverse.
func (e *Engine) MenuRows() []MenuRow {
	e.mu.Lock()
	defer e.mu.Unlock()

	pairs := e.registry.PairOrder()
	rows := make([]MenuRow, 0, len(pairs))
	for _, f := range pairs {
		i, _ := e.registry.Index(f)
		rows = append(rows, MenuRow{Floors: f, Status: e.records[i].Status})
	}
	return rows
}
