package handler

import (
	"fmt"
	"io"
	"log"
	"time"
)

// Uploads at least this large report progress at every quarter
const progressLogThreshold = 64 << 20

// ProgressReader counts bytes flowing into storage and logs milestones for large uploads
type ProgressReader struct {
	reader    io.Reader
	total     int64
	current   int64
	nextMark  int64
	name      string
	startTime time.Time
}

// NewProgressReader wraps reader for an upload of total bytes stored as name
func NewProgressReader(reader io.Reader, total int64, name string) *ProgressReader {
	pr := &ProgressReader{
		reader:    reader,
		total:     total,
		name:      name,
		startTime: time.Now(),
	}
	if total >= progressLogThreshold {
		pr.nextMark = total / 4
	}
	return pr
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.current += int64(n)

	if pr.nextMark > 0 && pr.current >= pr.nextMark && pr.current < pr.total {
		log.Printf("Upload progress: %s %d%% (%s of %s)",
			pr.name, pr.current*100/pr.total, formatBytes(pr.current), formatBytes(pr.total))
		pr.nextMark += pr.total / 4
	}

	return n, err
}

// Speed returns the average throughput in MB/s since the reader was created
func (pr *ProgressReader) Speed() float64 {
	elapsed := time.Since(pr.startTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(pr.current) / elapsed / 1024 / 1024
}

// formatBytes returns a human-readable byte count
func formatBytes(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(bytes)
	unitIndex := 0

	for size >= 1024 && unitIndex < len(units)-1 {
		size /= 1024
		unitIndex++
	}

	if size >= 10 {
		return fmt.Sprintf("%.1f %s", size, units[unitIndex])
	}
	return fmt.Sprintf("%.2f %s", size, units[unitIndex])
}
