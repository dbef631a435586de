// Package driver runs the lowering pipeline over whole modules and files.
package driver

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"strata/internal/diag"
	"strata/internal/ir"
	"strata/internal/lower"
	"strata/internal/parser"
	"strata/internal/source"
	"strata/internal/types"
)

// Options configures a lowering run.
type Options struct {
	// Jobs caps concurrent per-function lowering; 0 means NumCPU.
	Jobs int
	// Verify runs the structural validator after lowering.
	Verify bool
	// Cache consults the lowered-artifact disk cache.
	Cache bool
}

// LowerResult carries everything a caller needs to report on one file.
type LowerResult struct {
	FileSet *source.FileSet
	Bag     *diag.Bag
	Module  *ir.Module
	Types   *types.Interner
	Text    string
	Cached  bool
}

// LowerModule lowers every function of m. Functions are independent units
// (the pass owns one function at a time), so they are processed in parallel
// up to the job limit. The first failure cancels the rest.
func LowerModule(ctx context.Context, m *ir.Module, typesIn *types.Interner, opts Options) error {
	if m == nil || len(m.Funcs) == 0 {
		return nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(m.Funcs)))
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		g.Go(func(f *ir.Func) func() error {
			return func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := lower.Func(f, typesIn); err != nil {
					return fmt.Errorf("function %s: %w", f.Name, err)
				}
				return nil
			}
		}(f))
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if opts.Verify {
		if err := ir.Validate(m, typesIn); err != nil {
			return fmt.Errorf("verify after lowering: %w", err)
		}
	}
	return nil
}

// LowerFile loads, parses and lowers one textual IR file, returning the
// lowered module and its textual dump. Parse diagnostics land in the
// result's Bag; parse failure is reported through both the bag and the
// returned error.
func LowerFile(ctx context.Context, path string, maxDiagnostics int, opts Options) (*LowerResult, error) {
	res := &LowerResult{
		FileSet: source.NewFileSet(),
		Bag:     diag.NewBag(maxDiagnostics),
		Types:   types.NewInterner(),
	}

	fileID, err := res.FileSet.Load(path)
	if err != nil {
		return res, fmt.Errorf("failed to read %q: %w", path, err)
	}

	var cache *DiskCache
	if opts.Cache {
		cache, err = OpenDiskCache("strata")
		if err != nil {
			return res, fmt.Errorf("failed to open cache: %w", err)
		}
		key := Digest(res.FileSet.Get(fileID).Hash)
		if payload, ok, cerr := cache.Get(key); cerr == nil && ok {
			res.Text = payload.Text
			res.Cached = true
			return res, nil
		}
	}

	res.Module, err = parser.Parse(res.FileSet, fileID, res.Types, diag.BagReporter{Bag: res.Bag})
	if err != nil {
		return res, err
	}

	if err := LowerModule(ctx, res.Module, res.Types, opts); err != nil {
		diag.ReportError(diag.BagReporter{Bag: res.Bag}, diag.LowMalformedTerminator,
			source.Span{File: fileID}, err.Error())
		return res, err
	}

	var sb strings.Builder
	if err := ir.DumpModule(&sb, res.Module, res.Types); err != nil {
		return res, err
	}
	res.Text = sb.String()

	if cache != nil {
		key := Digest(res.FileSet.Get(fileID).Hash)
		payload := &Payload{
			Schema: cacheSchemaVersion,
			Source: key,
			Module: res.Module.Name,
			Funcs:  len(res.Module.Funcs),
			Text:   res.Text,
		}
		if err := cache.Put(key, payload); err != nil {
			return res, fmt.Errorf("failed to write cache: %w", err)
		}
	}
	return res, nil
}
