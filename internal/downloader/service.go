package downloader

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/datallboy/yencore/internal/config"
	"github.com/datallboy/yencore/internal/domain"
	"github.com/datallboy/yencore/internal/history"
	"github.com/datallboy/yencore/internal/logger"
	"github.com/datallboy/yencore/internal/nntp"
	"github.com/datallboy/yencore/internal/nzb"
)

// Service coordinates downloading every file in a parsed NZB: pre-allocate
// sparse .part files, dispatch segment jobs to a worker pool fed by a
// Manager, and rename each .part to its final name once complete.
type Service struct {
	cfg          *config.Config
	manager      *nntp.Manager
	logger       *logger.Logger
	history      *history.Store
	writer       *FileWriter
	bytesWritten uint64
	totalBytes   uint64
}

// NewService wires a downloader.Service. history may be nil, in which case
// decode outcomes simply aren't recorded.
func NewService(c *config.Config, mgr *nntp.Manager, l *logger.Logger, h *history.Store) *Service {
	return &Service{
		cfg:     c,
		manager: mgr,
		logger:  l,
		history: h,
		writer:  NewFileWriter(),
	}
}

// Download fetches every file in model into cfg.Download.OutDir, skipping
// files whose final name already exists on disk.
func (s *Service) Download(ctx context.Context, model *nzb.Model) error {
	defer s.writer.CloseAll()

	if err := os.MkdirAll(s.cfg.Download.OutDir, 0755); err != nil {
		return fmt.Errorf("failed to create out_dir: %w", err)
	}

	var filesToProcess []*domain.DownloadFile

	// Pre-allocate sparse files (.part)
	for i := range model.Files {
		file := &model.Files[i]
		cleanName := s.sanitizeFileName(file.Subject)
		finalPath := filepath.Join(s.cfg.Download.OutDir, cleanName)
		partPath := finalPath + ".part"

		if _, err := os.Stat(finalPath); err == nil {
			s.logger.Info("Found finished file %s (Skipping)", cleanName)
			continue
		}

		task := domain.NewDownloadFile(file, cleanName, file.TotalSize(), s.cfg.Download.OutDir)
		if err := s.writer.PreAllocate(partPath, task.Size); err != nil {
			return fmt.Errorf("failed to pre-allocate %s: %w", cleanName, err)
		}

		s.logger.Debug("Queued %s as task %s (%d segments, %d bytes)", cleanName, task.ID, len(task.Segments), task.Size)
		filesToProcess = append(filesToProcess, task)
	}

	s.bytesWritten = 0
	s.totalBytes = 0
	for _, f := range filesToProcess {
		s.totalBytes += uint64(f.Size)
	}

	if len(filesToProcess) == 0 {
		s.logger.Info("All files are already present. No download needed.")
		return nil
	}

	s.logger.Info("Starting download...")

	startTime := time.Now()
	monitorCtx, cancel := context.WithCancel(ctx)
	fmt.Print("\n\n")
	go s.startUI(monitorCtx, startTime)

	err := s.runWorkerPool(ctx, filesToProcess)

	cancel() // stop the UI once workers are done
	s.renderUI(0, startTime, true)
	fmt.Print("\n\n")

	if err != nil {
		return err
	}

	// Finalize: close handles and rename .part -> final
	for _, file := range filesToProcess {
		if err := s.writer.CloseFile(file.PartPath); err != nil {
			s.logger.Warn("Warning: failed to close %s: %v", file.PartPath, err)
		}
		if err := os.Rename(file.PartPath, file.FinalPath); err != nil {
			return fmt.Errorf("failed to finalize %s: %w", file.CleanName, err)
		}
		s.logger.Info("Finished: %s", file.CleanName)
	}

	return nil
}

func (s *Service) sanitizeFileName(subject string) string {
	res := html.UnescapeString(subject)

	// Try pattern A: contents inside double quotes
	firstQuote := strings.Index(res, "\"")
	lastQuote := strings.LastIndex(res, "\"")
	if firstQuote != -1 && lastQuote != -1 && firstQuote < lastQuote {
		res = res[firstQuote+1 : lastQuote]
	} else {
		// Pattern B: strip Usenet metadata (fallback).
		// Removes a leading [01/14] counter and the "yenc" suffix with
		// everything after it; a (1/14) counter before "yenc" is kept.
		reYenc := regexp.MustCompile(`(?i)\s+yenc.*$`)
		res = reYenc.ReplaceAllString(res, "")

		reLead := regexp.MustCompile(`^\[\d+/\d+\]\s+`)
		res = reLead.ReplaceAllString(res, "")
	}

	// Final cleanup: remove characters illegal on Windows/Linux/macOS.
	badChars := regexp.MustCompile(`[\\/:*?"<>|]`)
	res = badChars.ReplaceAllString(res, "_")

	return strings.TrimSpace(res)
}

func (s *Service) startUI(ctx context.Context, startTime time.Time) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	var lastBytes uint64

	for {
		select {
		case <-ticker.C:
			current := atomic.LoadUint64(&s.bytesWritten)
			delta := current - lastBytes
			lastBytes = current

			speedMbps := float64(delta) * 8 / (1024 * 1024)
			s.renderUI(speedMbps, startTime, false)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) renderUI(speedMbps float64, startTime time.Time, final bool) {
	current := atomic.LoadUint64(&s.bytesWritten)
	total := s.totalBytes
	if total == 0 {
		return
	}

	elapsed := time.Since(startTime)
	percent := float64(current) / float64(total) * 100

	displaySpeed := speedMbps
	etaStr := "calc..."

	if final {
		percent = 100.0

		seconds := elapsed.Seconds()
		if seconds < 0.1 {
			seconds = 0.1
		}

		avgBytesPerSec := float64(current) / seconds
		displaySpeed = (avgBytesPerSec * 8) / (1024 * 1024)
		if current == 0 {
			displaySpeed = 0
		}
	} else {
		avgBytesPerSec := float64(current) / elapsed.Seconds()
		if avgBytesPerSec > 0 {
			remainingBytes := total - current
			etaSeconds := int(float64(remainingBytes) / avgBytesPerSec)
			etaStr = (time.Duration(etaSeconds) * time.Second).String()
		}
	}

	const barWidth = 20
	completedWidth := int(percent / 100 * barWidth)
	bar := strings.Repeat("=", completedWidth)
	if completedWidth < barWidth {
		bar += ">" + strings.Repeat(" ", barWidth-completedWidth-1)
	}

	speedLabel := "Speed"
	timeLabel := "ETA"
	if final {
		speedLabel = "Avg"
		timeLabel = "Time"
		etaStr = elapsed.Truncate(time.Second).String()
	}

	fmt.Printf("\r[%s] %5.1f%% | %s: %6.2f Mbps | %s: %-7s | %d/%d MB      ",
		bar, percent, speedLabel, displaySpeed, timeLabel, etaStr, current/1024/1024, total/1024/1024)
}

func (s *Service) reportProgress(n int) {
	atomic.AddUint64(&s.bytesWritten, uint64(n))
}
