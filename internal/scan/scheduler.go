package scan

import (
	"context"
	"sync"
	"time"

	"github.com/codeguardian-ai/codeguardian/models"
)

// Progress is a point-in-time view of a running scan, passed to the progress
// callback after each file finishes.
type Progress struct {
	ScannedFiles int
	TotalFiles   int
	CurrentFile  string
	Percent      int
}

// Scheduler walks the selected files in fixed-size batches. Files within a
// batch are analysed concurrently; the scheduler waits for the whole batch,
// pauses, then starts the next. The pause keeps the AI provider and the host
// API under their rate limits.
type Scheduler struct {
	// BatchSize is the number of files in flight at once.
	BatchSize int
	// Pause is the delay between batches.
	Pause time.Duration
}

// analyzeFunc fetches and analyses one file. Returning no findings is normal;
// per-file failures are absorbed by the implementation.
type analyzeFunc func(ctx context.Context, file File) []models.Vulnerability

// progressFunc observes completion of one file. Invocations are serialized
// and the scanned-file count is strictly increasing.
type progressFunc func(p Progress)

// Run processes all files and returns the accumulated findings. It stops
// early when ctx is cancelled, returning what was gathered so far along with
// the context error.
func (s *Scheduler) Run(ctx context.Context, files []File, analyze analyzeFunc, progress progressFunc) ([]models.Vulnerability, error) {
	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	total := len(files)

	var (
		mu      sync.Mutex
		scanned int
		vulns   []models.Vulnerability
	)

	for start := 0; start < total; start += batchSize {
		if err := ctx.Err(); err != nil {
			return vulns, err
		}

		end := start + batchSize
		if end > total {
			end = total
		}
		batch := files[start:end]

		var wg sync.WaitGroup
		for _, file := range batch {
			wg.Add(1)
			go func(f File) {
				defer wg.Done()
				found := analyze(ctx, f)

				mu.Lock()
				vulns = append(vulns, found...)
				scanned++
				p := Progress{
					ScannedFiles: scanned,
					TotalFiles:   total,
					CurrentFile:  f.Name,
					Percent:      percent(scanned, total),
				}
				if progress != nil {
					// Called under the lock so observers see a strictly
					// increasing count.
					progress(p)
				}
				mu.Unlock()
			}(file)
		}
		wg.Wait()

		if end < total && s.Pause > 0 {
			select {
			case <-ctx.Done():
				return vulns, ctx.Err()
			case <-time.After(s.Pause):
			}
		}
	}
	return vulns, nil
}

func percent(scanned, total int) int {
	if total == 0 {
		return 0
	}
	return int(float64(scanned)/float64(total)*100 + 0.5)
}
