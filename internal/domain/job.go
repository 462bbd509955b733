package domain

import (
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/segmentio/ksuid"

	"github.com/datallboy/yencore/internal/nzb"
)

// Segment is a single article to retrieve, carrying its own per-provider
// failover bookkeeping. It is derived from an nzb.Segment at dispatch time;
// MissingFrom tracks which providers have already returned a 430 for it so
// the manager doesn't retry a server that has already confirmed the article
// is gone.
type Segment struct {
	Number      int
	Bytes       int64
	MessageID   string
	MissingFrom map[string]bool
}

func NewSegment(s nzb.Segment) Segment {
	return Segment{Number: s.Number, Bytes: s.Bytes, MessageID: s.MessageID}
}

// DownloadFile is the live download task for one file inside an NZB: its
// source segments, the sparse .part path it is being written into, and its
// completion state. It is hydrated once, at dispatch time, from an
// nzb.File plus the sanitized name the downloader decided on.
type DownloadFile struct {
	ID        ksuid.KSUID
	Source    *nzb.File
	Segments  []Segment
	CleanName string
	PartPath  string
	FinalPath string
	IsPars    bool
	Size      int64

	actualSize atomic.Int64
}

// NewDownloadFile builds a DownloadFile from a parsed nzb.File. If size is
// zero it is computed from the segment byte counts. Each file gets a
// time-sortable KSUID so log lines for its segments (spread across many
// worker goroutines and retries) can be grouped and ordered by download,
// not just by decoder UUID.
func NewDownloadFile(raw *nzb.File, cleanName string, size int64, outDir string) *DownloadFile {
	segments := make([]Segment, len(raw.Segments))
	sumSizes := size <= 0
	for i, s := range raw.Segments {
		segments[i] = NewSegment(s)
		if sumSizes {
			size += s.Bytes
		}
	}

	final := filepath.Join(outDir, cleanName)

	return &DownloadFile{
		ID:        ksuid.New(),
		Source:    raw,
		Segments:  segments,
		CleanName: cleanName,
		PartPath:  final + ".part",
		FinalPath: final,
		IsPars:    strings.HasSuffix(strings.ToLower(cleanName), ".par2"),
		Size:      size,
	}
}

func (f *DownloadFile) SetActualSize(size int64) {
	f.actualSize.Store(size)
}

func (f *DownloadFile) GetActualSize() int64 {
	return f.actualSize.Load()
}

// DownloadJob is one segment dispatched to the worker pool: where to fetch
// it from and where in the target file its decoded bytes belong.
type DownloadJob struct {
	Segment    Segment
	File       *DownloadFile
	FilePath   string
	Groups     []string
	Offset     int64
	RetryCount int
}

// DownloadResult reports what happened to a dispatched DownloadJob.
type DownloadResult struct {
	Job     DownloadJob
	Segment Segment
	Error   error
}
