package canon

import (
	"fmt"

	"github.com/korelang/korec/internal/ast"
	"github.com/korelang/korec/internal/constpool"
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/pattern"
	"github.com/korelang/korec/internal/source"
	"github.com/korelang/korec/internal/types"
)

// NamedRoot is a canonicalized top-level function (§4.1 "Output"):
// its body plus the canonicalized default expression for each
// parameter position, in declaration order.
type NamedRoot struct {
	Name     ident.Name
	Body     NodeId
	Defaults []NodeId
}

// MethodRoot is a canonicalized trait/inherent method.
type MethodRoot struct {
	TypeName   ident.Name
	MethodName ident.Name
	Body       NodeId
}

// CanonResult is the Canonicalizer's output (§4.1 "Output", §6.2).
type CanonResult struct {
	Arena       *Arena
	Constants   *constpool.Pool
	Trees       *pattern.Pool
	PrimaryRoot NodeId
	NamedRoots  []NamedRoot
	MethodRoots []MethodRoot
	Problems    []pattern.Problem
}

type paramEntry struct {
	name    ident.Name
	deflt   NodeId // InvalidNode if none
}

// Canonicalizer walks a typed ast.Module and produces a CanonResult.
type Canonicalizer struct {
	module   *ast.Module
	interner *ident.Interner
	typePool *types.Pool

	arena     *Arena
	constants *constpool.Pool
	trees     *pattern.Pool
	problems  []pattern.Problem

	funcParams   map[ident.Name][]paramEntry
	methodParams map[methodKey][]paramEntry

	variantCounts map[ident.Name]int

	armSeq int
}

type methodKey struct {
	typ    types.ID
	method ident.Name
}

// Canonicalize runs the full algorithm of §4.1 over module.
func Canonicalize(module *ast.Module, interner *ident.Interner, typePool *types.Pool) (*CanonResult, error) {
	constants, err := constpool.NewPool()
	if err != nil {
		return nil, fmt.Errorf("canon: %w", err)
	}
	c := &Canonicalizer{
		module:        module,
		interner:      interner,
		typePool:      typePool,
		arena:         New(len(module.Exprs)),
		constants:     constants,
		trees:         pattern.NewPool(),
		funcParams:    make(map[ident.Name][]paramEntry),
		methodParams:  make(map[methodKey][]paramEntry),
		variantCounts: variantCountsOf(module.Types),
	}

	c.buildParamTables()

	result := &CanonResult{
		Arena:       c.arena,
		Constants:   c.constants,
		Trees:       c.trees,
		PrimaryRoot: InvalidNode,
	}

	for _, fn := range module.Functions {
		body := c.lowerFunction(fn)
		root := NamedRoot{Name: fn.Name, Body: body, Defaults: defaultsFor(c.funcParams[fn.Name])}
		result.NamedRoots = append(result.NamedRoots, root)
		if module.HasMain && fn.ID == module.Main {
			result.PrimaryRoot = body
		}
	}

	for _, impl := range module.Impls {
		for _, fid := range impl.Functions {
			fn := c.functionByID(fid)
			if fn == nil {
				continue
			}
			body := c.lowerFunction(*fn)
			result.MethodRoots = append(result.MethodRoots, MethodRoot{
				TypeName:   c.typePool.Lookup(impl.Target).Name,
				MethodName: fn.Name,
				Body:       body,
			})
		}
	}

	result.Problems = c.problems
	return result, nil
}

// variantCountsOf maps every declared sum type to its number of cases,
// the total pattern.Compile compares a TestVariantTag case set against
// to tell a genuinely exhaustive match (every declared variant named)
// apart from one still missing a case.
func variantCountsOf(decls []ast.TypeDecl) map[ident.Name]int {
	counts := make(map[ident.Name]int, len(decls))
	for _, d := range decls {
		if len(d.Variants) > 0 {
			counts[d.Name] = len(d.Variants)
		}
	}
	return counts
}

func defaultsFor(entries []paramEntry) []NodeId {
	out := make([]NodeId, len(entries))
	for i, e := range entries {
		out[i] = e.deflt
	}
	return out
}

func (c *Canonicalizer) functionByID(id ast.FuncID) *ast.Function {
	for i := range c.module.Functions {
		if c.module.Functions[i].ID == id {
			return &c.module.Functions[i]
		}
	}
	return nil
}

// buildParamTables canonicalizes every function's and method's
// parameter-default expressions up front so named-argument calls can
// be desugared regardless of declaration order (§4.1, "Named-argument
// call / method call").
func (c *Canonicalizer) buildParamTables() {
	for _, fn := range c.module.Functions {
		if len(fn.Clauses) == 0 {
			continue
		}
		names, ok := fn.Clauses[0].ParamNames()
		if !ok {
			continue // pattern-dispatched clause: no stable parameter names to resolve by
		}
		entries := make([]paramEntry, len(names))
		for i, n := range names {
			entries[i] = paramEntry{name: n, deflt: InvalidNode}
			if d := fn.Clauses[0].Defaults[i]; d != ast.InvalidExpr {
				entries[i].deflt = c.lowerExpr(d)
			}
		}
		c.funcParams[fn.Name] = entries
	}
	for _, impl := range c.module.Impls {
		for _, fid := range impl.Functions {
			fn := c.functionByID(fid)
			if fn == nil || len(fn.Clauses) == 0 {
				continue
			}
			names, ok := fn.Clauses[0].ParamNames()
			if !ok {
				continue
			}
			entries := make([]paramEntry, len(names))
			for i, n := range names {
				entries[i] = paramEntry{name: n, deflt: InvalidNode}
				if d := fn.Clauses[0].Defaults[i]; d != ast.InvalidExpr {
					entries[i].deflt = c.lowerExpr(d)
				}
			}
			c.methodParams[methodKey{typ: impl.Target, method: fn.Name}] = entries
		}
	}
}

// lowerFunction canonicalizes one function, synthesizing a decision
// tree over the parameter vector when it has more than one clause
// (§4.1, "Multi-clause function definitions").
func (c *Canonicalizer) lowerFunction(fn ast.Function) NodeId {
	if len(fn.Clauses) == 1 {
		cl := fn.Clauses[0]
		if names, ok := cl.ParamNames(); ok {
			_ = names
			return c.lowerExpr(cl.Body)
		}
	}

	var rows []pattern.Row
	for i, cl := range fn.Clauses {
		tuplePat := ast.Pattern{Kind: ast.PatTuple, Elems: cl.Patterns}
		guard := uint32(pattern.NoGuard)
		if cl.Guard != ast.InvalidExpr {
			guard = uint32(c.lowerExpr(cl.Guard))
		}
		rows = append(rows, pattern.Row{Pattern: tuplePat, Guard: guard, ArmIndex: i})
	}
	treeID, problems := pattern.Compile(c.trees, c.module.Expr(fn.Clauses[0].Body).Span, rows, c.variantCounts)
	c.problems = append(c.problems, problems...)

	bodies := make([]NodeId, len(fn.Clauses))
	for i, cl := range fn.Clauses {
		bodies[i] = c.lowerExpr(cl.Body)
	}
	armsRange := c.arena.PushExprs(bodies)

	// Synthesize an Ident node per declared parameter position (using
	// clause 0's names, the common case where every clause agrees on
	// arity) so the decision tree has a concrete scrutinee to path into.
	names, _ := fn.Clauses[0].ParamNames()
	paramIds := make([]NodeId, len(fn.Clauses[0].Patterns))
	errTy := c.typePool.Primitive(types.KindError)
	for i := range paramIds {
		var nm ident.Name
		if i < len(names) {
			nm = names[i]
		}
		paramIds[i] = c.arena.Push(KindIdent, source.Span{}, errTy, Payload{Name: nm})
	}
	paramsRange := c.arena.PushExprs(paramIds)
	unitTy := c.typePool.Primitive(types.KindUnit)
	scrutinee := c.arena.Push(KindTuple, source.Span{}, unitTy, Payload{Exprs: paramsRange})
	return c.arena.Push(KindMatch, source.Span{}, fn.ReturnType, Payload{A: scrutinee, Tree: treeID, Arms: armsRange})
}
