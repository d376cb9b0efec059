package eval

import "github.com/korelang/korec/internal/ident"

// selfName is the reserved binding slot a method receiver is stored
// under (ident.Name(0), the interner's empty-name sentinel) — the same
// convention internal/blockir's Builder uses for KindSelf.
const selfName = ident.Name(0)

// Env is one lexical scope: a flat binding map plus a parent link. Block
// bodies, lambda bodies, and match/for arms each get a fresh child scope
// so a shadowing let in an inner block never leaks out, mirroring
// internal/blockir's cloneEnv-per-branch discipline but as a real parent
// chain (a tree-walker keeps scopes alive across closures, so copying
// the whole map on every branch would both cost more and break sharing
// between a closure and the scope it captured).
type Env struct {
	vars   map[ident.Name]Value
	parent *Env
}

// NewEnv creates a root scope with no parent.
func NewEnv() *Env {
	return &Env{vars: make(map[ident.Name]Value)}
}

// Child creates a new scope nested inside e.
func (e *Env) Child() *Env {
	return &Env{vars: make(map[ident.Name]Value), parent: e}
}

// Define binds name in this scope (shadowing any outer binding).
func (e *Env) Define(name ident.Name, v Value) {
	e.vars[name] = v
}

// Get resolves name by walking outward from e.
func (e *Env) Get(name ident.Name) (Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// Set assigns to the nearest scope that already binds name (plain
// assignment, §4.1 "Assign"), or defines it in e if no scope does.
func (e *Env) Set(name ident.Name, v Value) {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			s.vars[name] = v
			return
		}
	}
	e.vars[name] = v
}
