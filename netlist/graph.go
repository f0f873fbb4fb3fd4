package netlist

import "fmt"

type (
	// NodeID and EdgeID index into the arenas of a single Module.
	// Removal is swap-based, so ids are not stable across removals.
	NodeID int32
	EdgeID int32

	// ModuleID indexes into the Netlist module container.
	ModuleID int32

	// Port is one output of one node.
	Port struct {
		Node NodeID
		Out  uint32
	}

	// edge connects a producer output to a consumer input slot.
	// to.Out is the input slot index on the consumer, not an output index.
	// Each edge is threaded into two intrusive lists: the consumer's
	// incoming list and the producer's outgoing list.
	edge struct {
		from Port
		to   Port

		next [2]EdgeID
		prev [2]EdgeID
	}

	// edgeList is a head and tail of an intrusive edge list.
	// One per direction per node.
	edgeList struct {
		head, tail EdgeID
	}
)

const (
	Nil     NodeID   = -1
	NilMod  ModuleID = -1
	nilEdge EdgeID   = -1
)

const (
	dirIn  = 0
	dirOut = 1
)

var NoPort = Port{Node: Nil}

func (p Port) IsNil() bool { return p.Node == Nil }

func (p Port) With(n NodeID) Port { return Port{Node: n, Out: p.Out} }

func (p Port) String() string {
	if p.IsNil() {
		return "nil"
	}

	return fmt.Sprintf("%v.%v", p.Node, p.Out)
}

func makeEdgeList() edgeList {
	return edgeList{head: nilEdge, tail: nilEdge}
}

func (m *Module) AddEdge(from, to Port) EdgeID {
	assertf(from.Node >= 0 && int(from.Node) < len(m.nodes), "bad producer node: %v", from.Node)
	assertf(to.Node >= 0 && int(to.Node) < len(m.nodes), "bad consumer node: %v", to.Node)
	assertf(int(from.Out) < len(m.nodes[from.Node].outs), "bad producer port: %v of %v", from.Out, from.Node)

	id := m.pushEdge(from, to)

	m.listAdd(&m.nodes[from.Node].links[dirOut], dirOut, id)
	m.listAdd(&m.nodes[to.Node].links[dirIn], dirIn, id)

	return id
}

func (m *Module) pushEdge(from, to Port) EdgeID {
	id := EdgeID(len(m.edges))

	m.edges = append(m.edges, edge{
		from: from,
		to:   to,
		next: [2]EdgeID{nilEdge, nilEdge},
		prev: [2]EdgeID{nilEdge, nilEdge},
	})

	return id
}

func (m *Module) removeEdge(id EdgeID) {
	e := m.edges[id]

	m.listRemove(&m.nodes[e.from.Node].links[dirOut], dirOut, id)
	m.listRemove(&m.nodes[e.to.Node].links[dirIn], dirIn, id)

	m.swapRemoveEdge(id)
}

// swapRemoveEdge moves the last edge of the arena into the freed slot
// and repairs every reference to the moved id: the neighbour links in
// both direction lists and the list heads and tails of the two nodes
// the moved edge touches.
func (m *Module) swapRemoveEdge(id EdgeID) {
	last := EdgeID(len(m.edges) - 1)

	if id != last {
		mv := m.edges[last]

		for dir := 0; dir < 2; dir++ {
			l := &m.nodes[mv.to.Node].links[dirIn]
			if dir == dirOut {
				l = &m.nodes[mv.from.Node].links[dirOut]
			}

			if mv.prev[dir] != nilEdge {
				m.edges[mv.prev[dir]].next[dir] = id
			} else if l.head == last {
				l.head = id
			}

			if mv.next[dir] != nilEdge {
				m.edges[mv.next[dir]].prev[dir] = id
			} else if l.tail == last {
				l.tail = id
			}
		}

		m.edges[id] = mv
	}

	m.edges = m.edges[:last]
}

func (m *Module) listAdd(l *edgeList, dir int, id EdgeID) {
	if l.tail == nilEdge {
		l.head, l.tail = id, id
		return
	}

	m.edges[l.tail].next[dir] = id
	m.edges[id].prev[dir] = l.tail
	l.tail = id
}

func (m *Module) listRemove(l *edgeList, dir int, id EdgeID) {
	e := &m.edges[id]

	if e.prev[dir] != nilEdge {
		m.edges[e.prev[dir]].next[dir] = e.next[dir]
	} else {
		l.head = e.next[dir]
	}

	if e.next[dir] != nilEdge {
		m.edges[e.next[dir]].prev[dir] = e.prev[dir]
	} else {
		l.tail = e.prev[dir]
	}

	e.next[dir], e.prev[dir] = nilEdge, nilEdge
}

// listReplace puts the new edge into the old one's list position.
func (m *Module) listReplace(l *edgeList, dir int, old, new EdgeID) {
	oe := m.edges[old]

	m.edges[new].next[dir] = oe.next[dir]
	m.edges[new].prev[dir] = oe.prev[dir]

	if oe.prev[dir] != nilEdge {
		m.edges[oe.prev[dir]].next[dir] = new
	} else {
		l.head = new
	}

	if oe.next[dir] != nilEdge {
		m.edges[oe.next[dir]].prev[dir] = new
	} else {
		l.tail = new
	}

	m.edges[old].next[dir], m.edges[old].prev[dir] = nilEdge, nilEdge
}

func (m *Module) removeAllEdges(id NodeID) {
	for m.nodes[id].links[dirIn].head != nilEdge {
		m.removeEdge(m.nodes[id].links[dirIn].head)
	}

	for m.nodes[id].links[dirOut].head != nilEdge {
		m.removeEdge(m.nodes[id].links[dirOut].head)
	}
}

func (m *Module) removeIncomingEdges(id NodeID) {
	for m.nodes[id].links[dirIn].head != nilEdge {
		m.removeEdge(m.nodes[id].links[dirIn].head)
	}
}

// Incoming returns the input ports of a node ordered by input slot.
func (m *Module) Incoming(id NodeID) []Port {
	n := &m.nodes[id]

	ins := make([]Port, 0, 4)

	for eid := n.links[dirIn].head; eid != nilEdge; eid = m.edges[eid].next[dirIn] {
		ins = append(ins, m.edges[eid].from)
	}

	return ins
}

// InCount is the number of incoming edges of a node.
func (m *Module) InCount(id NodeID) (r int) {
	n := &m.nodes[id]

	for eid := n.links[dirIn].head; eid != nilEdge; eid = m.edges[eid].next[dirIn] {
		r++
	}

	return r
}

// Input returns the producer connected to the given input slot.
func (m *Module) Input(id NodeID, slot uint32) Port {
	n := &m.nodes[id]

	for eid := n.links[dirIn].head; eid != nilEdge; eid = m.edges[eid].next[dirIn] {
		if m.edges[eid].to.Out == slot {
			return m.edges[eid].from
		}
	}

	return NoPort
}

// Consumers returns the nodes fed by the given output port, one entry
// per edge, in outgoing list order.
func (m *Module) Consumers(p Port) []NodeID {
	n := &m.nodes[p.Node]

	var r []NodeID

	for eid := n.links[dirOut].head; eid != nilEdge; eid = m.edges[eid].next[dirOut] {
		if m.edges[eid].from.Out == p.Out {
			r = append(r, m.edges[eid].to.Node)
		}
	}

	return r
}

// ReconnectAllOutgoing moves every consumer of the old port to the new
// port, keeping each edge's position in its consumer's incoming list,
// and retargets designated module outputs referring to the old port.
func (m *Module) ReconnectAllOutgoing(old, new Port) {
	if old == new {
		return
	}

	n := &m.nodes[old.Node]

	eid := n.links[dirOut].head
	for eid != nilEdge {
		next := m.edges[eid].next[dirOut]

		if m.edges[eid].from.Out != old.Out {
			eid = next
			continue
		}

		to := m.edges[eid].to

		nid := m.pushEdge(new, to)

		m.listRemove(&m.nodes[old.Node].links[dirOut], dirOut, eid)
		m.listAdd(&m.nodes[new.Node].links[dirOut], dirOut, nid)
		m.listReplace(&m.nodes[to.Node].links[dirIn], dirIn, eid, nid)

		m.swapRemoveEdge(eid)

		eid = next
	}

	for i, p := range m.outs {
		if p == old {
			m.outs[i] = new
		}
	}
}

// reconnectOutputs pairs each output of the node with a replacement
// port and moves all consumers over.
func (m *Module) reconnectOutputs(id NodeID, ports []Port) {
	assertf(len(ports) == len(m.nodes[id].outs), "replacement count mismatch: %v != %v", len(ports), len(m.nodes[id].outs))

	for i, p := range ports {
		m.ReconnectAllOutgoing(Port{Node: id, Out: uint32(i)}, p)
	}
}
