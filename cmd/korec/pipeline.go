package main

import (
	"fmt"
	"time"

	"github.com/korelang/korec/internal/ast"
	"github.com/korelang/korec/internal/canon"
	"github.com/korelang/korec/internal/corelog"
	"github.com/korelang/korec/internal/diag"
	"github.com/korelang/korec/internal/eval"
	"github.com/korelang/korec/internal/ident"
)

// logger is overwritten by main once cfg.Verbosity is known; it starts
// at corelog's default (Warn and above) so package-level tests never
// print anything below that.
var logger = corelog.New(0)

// pipelineResult is the shared output of running a fixture through
// canonicalization, grounded on cli/main.go's own "lex, parse, plan"
// staged result (tree, pipelineTiming) that both the dry-run and
// execute code paths there read from.
type pipelineResult struct {
	module   *ast.Module
	interner *ident.Interner
	canon    *canon.CanonResult
	bag      *diag.Bag
}

// runPipeline loads a fixture file and canonicalizes it, collecting
// every pattern-matrix diagnostic the canonicalizer raised.
func runPipeline(path string) (*pipelineResult, error) {
	f, err := loadFixture(path)
	if err != nil {
		return nil, err
	}
	mod, interner, pool, err := buildModule(f)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := canon.Canonicalize(mod, interner, pool)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	logger.Debug("canonicalized fixture", "path", path, "nodes", len(result.Arena.Kinds), "elapsed", time.Since(start))

	bag := diag.NewBag()
	diag.FromPatternProblems(bag, result.Problems)

	return &pipelineResult{module: mod, interner: interner, canon: result, bag: bag}, nil
}

// newEvaluator builds an eval.Evaluator over pr's CanonResult with
// every named root registered as a callable function, closing the
// FuncDef gap eval.go's own doc comment describes: NamedRoot only
// keeps canonicalized Defaults, not parameter names, so the driver
// (here, the CLI) must supply them from the surface ast.Function it
// still has on hand.
func newEvaluator(pr *pipelineResult) (*eval.Evaluator, error) {
	ev := eval.NewEvaluator(pr.canon, pr.interner)
	for i, root := range pr.canon.NamedRoots {
		fn := pr.module.Functions[i]
		names, ok := fn.Clauses[0].ParamNames()
		if !ok {
			return nil, fmt.Errorf("function %s: pattern-dispatched clauses are not supported by the CLI fixture runner", pr.interner.MustLookup(fn.Name))
		}
		ev.RegisterFunction(root.Name, eval.FuncDef{
			Params:   names,
			Defaults: root.Defaults,
			Body:     root.Body,
		})
	}
	return ev, nil
}

// runMain canonicalizes path, and if its fixture names a main function,
// carries no diagnostics, evaluates it and returns the formatted
// result. It returns ("", nil) for a fixture with no main, or one whose
// diagnostics the caller still needs to see and report before running
// anything — canon and check both still work on fixtures that only
// exercise the canonicalizer, so neither case here is an error.
func runMain(path string) (*pipelineResult, string, error) {
	pr, err := runPipeline(path)
	if err != nil {
		return nil, "", err
	}
	if pr.bag.HasErrors() || pr.canon.PrimaryRoot == canon.InvalidNode {
		return pr, "", nil
	}
	ev, err := newEvaluator(pr)
	if err != nil {
		return pr, "", err
	}
	v, _, err := ev.Eval(pr.canon.PrimaryRoot, eval.NewEnv())
	if err != nil {
		return pr, "", fmt.Errorf("evaluate: %w", err)
	}
	return pr, formatValue(v), nil
}
