package scan

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/codeguardian-ai/codeguardian/internal/ai"
	"github.com/codeguardian-ai/codeguardian/internal/config"
	"github.com/codeguardian-ai/codeguardian/internal/policy"
	"github.com/codeguardian-ai/codeguardian/models"
)

// LocalResult is the outcome of a one-shot scan over a working tree.
type LocalResult struct {
	Files           int
	Vulnerabilities []models.Vulnerability
	Score           int
	Summary         models.ScanSummary
}

// LocalScanner runs the analysis pipeline against files on disk instead of a
// hosting API. Used by the CLI, which clones first and has no scan record,
// events, or persistence.
type LocalScanner struct {
	extractor *Extractor
	pol       *policy.Policy
	cfg       config.ScannerConfig
}

func NewLocalScanner(provider ai.Provider, pol *policy.Policy, cfg config.ScannerConfig) *LocalScanner {
	return &LocalScanner{extractor: NewExtractor(provider, pol), pol: pol, cfg: cfg}
}

// Scan walks dir, selects scannable files, and analyses them in batches.
// progress may be nil.
func (ls *LocalScanner) Scan(ctx context.Context, dir, language string, progress func(Progress)) (*LocalResult, error) {
	files, err := ls.collect(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errNoScannableFiles
	}

	sched := &Scheduler{
		BatchSize: ls.cfg.BatchSize,
		Pause:     time.Duration(ls.cfg.BatchPauseMs) * time.Millisecond,
	}

	vulns, err := sched.Run(ctx, files,
		func(ctx context.Context, f File) []models.Vulnerability {
			data, err := os.ReadFile(filepath.Join(dir, f.Path))
			if err != nil {
				slog.Warn("scan: reading file failed", "file", f.Path, "error", err)
				return nil
			}
			content := string(data)
			if content == "" || len(content) > ls.pol.MaxContentChars {
				return nil
			}
			return ls.extractor.Analyze(ctx, f, content, language)
		}, progress)
	if err != nil {
		return nil, err
	}

	return &LocalResult{
		Files:           len(files),
		Vulnerabilities: vulns,
		Score:           CalculateScore(vulns),
		Summary:         Summarize(vulns),
	}, nil
}

func (ls *LocalScanner) collect(dir string) ([]File, error) {
	var files []File
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if name == ".git" || name == "node_modules" || name == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		if !ls.pol.IsScannable(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() >= ls.pol.MaxFileBytes {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		files = append(files, File{Path: filepath.ToSlash(rel), Name: d.Name(), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
