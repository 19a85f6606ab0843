package reduce

// arc is a weighted edge between dense node indexes
type arc struct {
	from, to int
	weight   float64
	order    int // earlier wins ties
}

func (a arc) beats(b arc) bool {
	return a.weight > b.weight || (a.weight == b.weight && a.order < b.order)
}

// arborescence returns the positions in arcs of a maximum-weight spanning
// arborescence over nodes 0..n-1 rooted at root (Chu-Liu/Edmonds). Every
// node other than root must have at least one incoming arc.
func arborescence(n, root int, arcs []arc) []int {
	best := make([]int, n)
	for i := range best {
		best[i] = -1
	}
	for i, a := range arcs {
		if a.to == root || a.from == a.to {
			continue
		}
		if best[a.to] < 0 || a.beats(arcs[best[a.to]]) {
			best[a.to] = i
		}
	}

	// Walk parent pointers from every node to find the cycles of best.
	mark := make([]int, n)
	cycleOf := make([]int, n)
	for i := range mark {
		mark[i] = -1
		cycleOf[i] = -1
	}
	var cycles [][]int
	for v := 0; v < n; v++ {
		u := v
		for u != root && mark[u] == -1 {
			mark[u] = v
			u = arcs[best[u]].from
		}
		if u == root || mark[u] != v || cycleOf[u] != -1 {
			continue
		}
		c := len(cycles)
		var cycle []int
		for x := u; ; {
			cycleOf[x] = c
			cycle = append(cycle, x)
			x = arcs[best[x]].from
			if x == u {
				break
			}
		}
		cycles = append(cycles, cycle)
	}

	if len(cycles) == 0 {
		out := make([]int, 0, n-1)
		for v := 0; v < n; v++ {
			if v != root {
				out = append(out, best[v])
			}
		}
		return out
	}

	// Contract each cycle into one node and solve the smaller problem.
	id := make([]int, n)
	next := 0
	for v := 0; v < n; v++ {
		if cycleOf[v] == -1 {
			id[v] = next
			next++
		}
	}
	for _, cycle := range cycles {
		for _, v := range cycle {
			id[v] = next
		}
		next++
	}

	var sub []arc
	var origin []int
	for i, a := range arcs {
		from, to := id[a.from], id[a.to]
		if from == to {
			continue
		}
		w := a.weight
		if cycleOf[a.to] != -1 {
			w -= arcs[best[a.to]].weight
		}
		sub = append(sub, arc{from: from, to: to, weight: w, order: a.order})
		origin = append(origin, i)
	}

	chosen := arborescence(next, id[root], sub)

	// Expand: the arc entering a cycle replaces the cycle arc into the same
	// node.
	entered := make([]int, len(cycles))
	for i := range entered {
		entered[i] = -1
	}
	out := make([]int, 0, n-1)
	for _, j := range chosen {
		i := origin[j]
		out = append(out, i)
		if c := cycleOf[arcs[i].to]; c != -1 {
			entered[c] = arcs[i].to
		}
	}
	for c, cycle := range cycles {
		for _, v := range cycle {
			if v != entered[c] {
				out = append(out, best[v])
			}
		}
	}
	return out
}
