package pattern

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Pool holds decision trees content-addressed by structural key so
// that two matches compiled from identical pattern matrices share one
// tree (§8.2 scenario 10: "get_shared is O(1)"). Each stored tree
// carries an atomic reference count; the pool itself holds one strong
// reference for as long as an entry's count is above zero.
type Pool struct {
	mu     sync.Mutex
	nodes  []Node
	refs   []int32
	byHash map[string]TreeID
}

// NewPool creates an empty Pool. There is exactly one Fail node,
// pre-registered, since every Fail carries no payload and all callers
// can share it.
func NewPool() *Pool {
	p := &Pool{byHash: make(map[string]TreeID)}
	p.getShared(Node{Kind: NodeFail})
	return p
}

// FailNode is the shared TreeID for the payload-free Fail node.
const FailNode TreeID = 0

// GetShared interns n, returning the existing TreeID if an
// structurally identical node is already pooled, otherwise allocating
// one. The returned tree's reference count is incremented.
func (p *Pool) GetShared(n Node) TreeID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getShared(n)
}

func (p *Pool) getShared(n Node) TreeID {
	key := nodeKey(n)
	if id, ok := p.byHash[key]; ok {
		atomic.AddInt32(&p.refs[id], 1)
		return id
	}
	id := TreeID(len(p.nodes))
	p.nodes = append(p.nodes, n)
	p.refs = append(p.refs, 1)
	p.byHash[key] = id
	return id
}

// Retain increments a tree's reference count; callers taking a second
// independent handle to an already-returned TreeID must call this.
func (p *Pool) Retain(id TreeID) {
	atomic.AddInt32(&p.refs[id], 1)
}

// Release decrements a tree's reference count. Trees are never
// physically freed from the arena (consistent with §9's
// "arena is dropped wholesale" discipline) — Release exists so
// refcount-balance can be asserted in tests.
func (p *Pool) Release(id TreeID) {
	if atomic.AddInt32(&p.refs[id], -1) < 0 {
		panic(fmt.Sprintf("pattern: tree %d released more times than retained", id))
	}
}

// RefCount reports a tree's current reference count, for tests.
func (p *Pool) RefCount(id TreeID) int32 {
	return atomic.LoadInt32(&p.refs[id])
}

// Lookup returns the Node behind a TreeID.
func (p *Pool) Lookup(id TreeID) Node {
	return p.nodes[id]
}

// Len reports how many distinct trees are pooled.
func (p *Pool) Len() int {
	return len(p.nodes)
}

func nodeKey(n Node) string {
	var b []byte
	b = append(b, byte(n.Kind))
	switch n.Kind {
	case NodeTest:
		b = append(b, byte(n.TestKind))
		b = appendPath(b, n.Path)
		for _, c := range n.Cases {
			b = appendTestValue(b, c.Value)
			b = appendID(b, uint32(c.Subtree))
		}
		b = appendID(b, uint32(n.Default))
	case NodeGuard:
		b = appendID(b, n.GuardExpr)
		b = appendID(b, uint32(n.TrueBranch))
		b = appendID(b, uint32(n.FalseBranch))
		for _, bd := range n.BindingsSoFar {
			b = appendBinding(b, bd)
		}
	case NodeLeaf:
		b = appendID(b, uint32(n.ArmIndex))
		for _, bd := range n.FinalBindings {
			b = appendBinding(b, bd)
		}
	case NodeFail:
	}
	return string(b)
}

func appendID(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendPath(b []byte, path []Step) []byte {
	b = append(b, byte(len(path)))
	for _, s := range path {
		b = append(b, byte(s.Kind))
		b = appendID(b, uint32(s.Index))
	}
	return b
}

func appendBinding(b []byte, bd Binding) []byte {
	b = appendID(b, uint32(bd.Name))
	return appendPath(b, bd.Path)
}

func appendTestValue(b []byte, v TestValue) []byte {
	b = appendID(b, uint64AsLow32(v.Int))
	b = appendID(b, uint64AsLow32(int64(len(v.Str))))
	b = append(b, []byte(v.Str)...)
	if v.Bool {
		b = append(b, 1)
	} else {
		b = append(b, 0)
	}
	b = appendID(b, uint32(v.VariantTag))
	b = appendID(b, uint32(v.Len))
	b = append(b, byte(v.LenCmp))
	b = appendID(b, uint64AsLow32(v.RangeLow))
	b = appendID(b, uint64AsLow32(v.RangeHigh))
	if v.Inclusive {
		b = append(b, 1)
	} else {
		b = append(b, 0)
	}
	return b
}

func uint64AsLow32(v int64) uint32 {
	return uint32(v)
}
