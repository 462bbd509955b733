package downloader

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/datallboy/yencore/internal/domain"
	"github.com/datallboy/yencore/internal/nntp"
	"github.com/datallboy/yencore/internal/yenc"
)

// runWorkerPool orchestrates the lifecycle of the download process: one
// job per segment, fanned out to a pool sized from the manager's total
// connection capacity, with failed jobs retried with backoff until they
// land or permanently fail.
func (s *Service) runWorkerPool(ctx context.Context, files []*domain.DownloadFile) error {
	totalSegments := 0
	for _, f := range files {
		totalSegments += len(f.Segments)
	}
	if totalSegments == 0 {
		return nil
	}

	// Ask the manager for the connection limit
	capacity := s.manager.TotalCapacity()
	if capacity <= 0 {
		return fmt.Errorf("no download capacity available: check server max_connections")
	}

	// Dynamically size workers and buffers from max_connection capacity.
	// Add 2 extra workers to ensure there's always one waiting for a slot.
	workerCount := capacity + 2
	bufferSize := workerCount * 2

	jobs := make(chan domain.DownloadJob, bufferSize)
	results := make(chan domain.DownloadResult, bufferSize)

	// Start the workers
	var wg sync.WaitGroup
	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, jobs, results)
		}()
	}

	// Dispatch jobs
	go s.dispatchJobs(files, jobs)

	// Collect results
	completedCount := 0
	var finalErr error

	for completedCount < totalSegments {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-results:
			if res.Error != nil {
				// A segment confirmed missing on every provider will never
				// succeed on retry.
				if errors.Is(res.Error, domain.ErrArticleNotFound) {
					s.logger.Error("[FAIL] Segment %s: not found on any provider", res.Segment.MessageID)
					finalErr = fmt.Errorf("one or more segments are missing from every provider")
					completedCount++
					continue
				}

				isBusy := errors.Is(res.Error, domain.ErrProviderBusy)

				// If we have retries left, put it back in the pipeline
				if isBusy || res.Job.RetryCount < nntp.FETCH_RETRY_COUNT {
					delay := 100 * time.Millisecond // quick retry for busy error

					if !isBusy {
						res.Job.RetryCount++

						// Calculate backoff: 2s, 4s, 8s...
						delay = time.Duration(math.Pow(2, float64(res.Job.RetryCount))) * time.Second

						s.logger.Warn("[Retry] Segment %s: Attempt %d/%d - Error: %v",
							res.Segment.MessageID, res.Job.RetryCount, nntp.FETCH_RETRY_COUNT, res.Error)
					}

					// Use a timer to re-queue the job so we don't block this loop
					job := res.Job
					time.AfterFunc(delay, func() {
						jobs <- job
					})

					continue // do not count as completed yet
				}
				// Permanent failure
				s.logger.Error("[FAIL] Segment %s permanently failed: %v", res.Segment.MessageID, res.Error)
				finalErr = fmt.Errorf("one or more segments failed permanently")
			}
			completedCount++
		}
	}
	close(jobs)
	wg.Wait()
	return finalErr
}

// worker pulls jobs from the channel and executes them until it is closed.
func (s *Service) worker(ctx context.Context, jobs <-chan domain.DownloadJob, results chan<- domain.DownloadResult) {
	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
			err := s.processSegment(ctx, job)
			results <- domain.DownloadResult{Segment: job.Segment, Job: job, Error: err}
		}
	}
}

// processSegment handles the pipeline for a single Usenet article: fetch,
// let the core decode and verify it, then write the bytes at the
// segment's offset in its target file.
func (s *Service) processSegment(ctx context.Context, job domain.DownloadJob) error {
	resp, err := s.manager.Fetch(ctx, &job.Segment)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if s.history != nil {
		if err := s.history.Record(ctx, resp, job.Segment.MessageID); err != nil {
			s.logger.Warn("history: failed to record segment %s: %v", job.Segment.MessageID, err)
		}
	}

	if status := resp.Status(); status != yenc.StatusSuccess {
		return fmt.Errorf("decode failed for segment %s: %s", job.Segment.MessageID, status)
	}

	if err := s.writer.Write(job.FilePath, job.Offset, resp.Data); err != nil {
		return fmt.Errorf("write error: %w", err)
	}

	// Update progress bar / cli UI
	s.reportProgress(len(resp.Data))

	return nil
}

// dispatchJobs translates each file's segment list into individual jobs,
// tracking the running byte offset each segment belongs at.
func (s *Service) dispatchJobs(files []*domain.DownloadFile, jobs chan<- domain.DownloadJob) {
	for _, file := range files {
		var currentOffset int64
		partPath := filepath.Join(s.cfg.Download.OutDir, file.CleanName+".part")

		for _, seg := range file.Segments {
			jobs <- domain.DownloadJob{
				Segment:  seg,
				File:     file,
				FilePath: partPath,
				Groups:   file.Source.Groups,
				Offset:   currentOffset,
			}
			currentOffset += seg.Bytes
		}
	}
}
