// Package core wires the extraction pipeline: scan, parse and resolve every source file, then
// fold the per-file records into one catalog in the caller's file order.
package core

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/origadmin/dirgen/internal/catalog"
	"github.com/origadmin/dirgen/internal/extract"
	"github.com/origadmin/dirgen/internal/model"
	"github.com/origadmin/dirgen/internal/registry"
	"github.com/origadmin/dirgen/internal/resolver"
	"github.com/origadmin/dirgen/internal/scanner"
)

// SourceFile is one input file, already read.
type SourceFile struct {
	Path    string
	Content []byte
}

// FileResult is what a single file contributes: its records in source order and the
// diagnostics of everything that was dropped.
type FileResult struct {
	Path        string
	Tables      int
	Records     []*model.Record
	Diagnostics []*model.Diagnostic
}

// Engine runs the extraction pipeline. The zero value uses the nginx vocabulary, the
// ngx_command_t table shape and one worker per CPU.
type Engine struct {
	Registry *registry.Registry
	Shape    extract.Shape
	// Workers bounds the number of files extracted concurrently.
	Workers int
}

// NewEngine returns an Engine over reg with default shape and worker count.
func NewEngine(reg *registry.Registry) *Engine {
	return &Engine{Registry: reg}
}

func (e *Engine) registry() *registry.Registry {
	if e.Registry == nil {
		return registry.Default()
	}
	return e.Registry
}

func (e *Engine) shape() extract.Shape {
	if e.Shape.TableType == "" {
		return extract.DefaultShape()
	}
	return e.Shape
}

func (e *Engine) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// ExtractFile runs scan, parse and resolve over one file. A lexical error drops the whole
// file, a structural error one table and a semantic error one entry.
func (e *Engine) ExtractFile(f SourceFile) FileResult {
	return e.extractFile(f, extract.NewParser(e.shape()), resolver.New(e.registry()))
}

func (e *Engine) extractFile(f SourceFile, parser *extract.Parser, res *resolver.Resolver) FileResult {
	result := FileResult{Path: f.Path}

	toks, err := scanner.Scan(f.Path, f.Content)
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, asDiagnostic(err, f.Path))
		slog.Debug("Engine: File dropped", "file", f.Path, "error", err)
		return result
	}

	tables, diags := parser.Parse(toks)
	result.Tables = len(tables)
	result.Diagnostics = append(result.Diagnostics, diags...)
	for _, table := range tables {
		for _, entry := range table.Entries {
			rec, err := res.Resolve(entry)
			if err != nil {
				result.Diagnostics = append(result.Diagnostics, asDiagnostic(err, f.Path))
				continue
			}
			result.Records = append(result.Records, rec)
		}
	}

	slog.Debug("Engine: File extracted", "file", f.Path, "tables", result.Tables,
		"records", len(result.Records), "diagnostics", len(result.Diagnostics))
	return result
}

// Run extracts files concurrently and folds the results sequentially in the order of files.
// Problems in the input are reported in the Report; the returned error is only non-nil when
// ctx is done before extraction finished.
func (e *Engine) Run(ctx context.Context, files []SourceFile) (*catalog.Catalog, *Report, error) {
	parser := extract.NewParser(e.shape())
	res := resolver.New(e.registry())
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.extractFile(f, parser, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	cat, report := e.Fold(results)
	return cat, report, nil
}

// Fold merges extracted files in the given order and builds the run report.
func (e *Engine) Fold(results []FileResult) (*catalog.Catalog, *Report) {
	agg := catalog.NewAggregator()
	report := &Report{}
	for _, r := range results {
		report.Files = append(report.Files, FileStat{
			Path:        r.Path,
			Tables:      r.Tables,
			Records:     len(r.Records),
			Diagnostics: len(r.Diagnostics),
		})
		report.Diagnostics = append(report.Diagnostics, r.Diagnostics...)
		if err := agg.Merge(r.Records...); err != nil {
			slog.Warn("Engine: Records rejected by catalog", "file", r.Path, "error", err)
		}
	}

	res := agg.Result()
	report.Overrides = res.Overrides
	report.Conflicts = res.Conflicts
	report.Duplicates = res.Duplicates

	slog.Debug("Engine: Fold finished", "files", len(results), "directives", res.Catalog.Len(),
		"diagnostics", len(report.Diagnostics), "overrides", len(report.Overrides))
	return res.Catalog, report
}

func asDiagnostic(err error, file string) *model.Diagnostic {
	if d, ok := model.AsDiagnostic(err); ok {
		return d
	}
	return model.Errorf(model.KindStructural, model.Location{File: file}, "%v", err)
}
