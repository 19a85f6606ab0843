package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/argscope/internal/model"
)

// Analyzer analyzes a single input bundle
type Analyzer interface {
	AnalyzeFile(ctx context.Context, path string) (*model.Report, error)
}

// AnalysisJob represents one bundle to analyze
type AnalysisJob struct {
	Index    int
	Path     string
	Analyzer Analyzer
}

// Execute executes the analysis job
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	report, err := j.Analyzer.AnalyzeFile(ctx, j.Path)
	if err != nil {
		return &AnalysisResult{Index: j.Index, Path: j.Path, Error: err}
	}
	return &AnalysisResult{Index: j.Index, Path: j.Path, Report: report}
}

// AnalysisResult represents the result of an analysis job
type AnalysisResult struct {
	Index  int
	Path   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the analysis result
func (r *AnalysisResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many bundles concurrently. A failing bundle is
// reported in its result and never aborts the others.
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessFiles analyzes the given bundles and returns results in input order
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string) []*AnalysisResult {
	if len(paths) == 0 {
		return []*AnalysisResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	out := make([]*AnalysisResult, len(paths))
	for i, path := range paths {
		job := &AnalysisJob{Index: i, Path: path, Analyzer: b.analyzer}
		if err := pool.Submit(job); err != nil {
			out[i] = &AnalysisResult{Index: i, Path: path, Error: fmt.Errorf("not started: %w", err)}
		}
	}

	for _, result := range pool.Wait() {
		r := result.(*AnalysisResult)
		out[r.Index] = r
	}

	// Jobs dropped by a cancelled pool never produced a result.
	for i, r := range out {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &AnalysisResult{Index: i, Path: paths[i], Error: fmt.Errorf("not completed: %w", err)}
		}
	}

	return out
}

// ReadListFile reads bundle paths from a file (one per line). Blank lines
// and # comments are skipped, duplicates dropped, and relative paths resolved
// against the list file's directory.
func ReadListFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(listPath)
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
