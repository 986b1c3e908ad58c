package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const maxLineBytes = 1 << 20

// TailOptions controls a single read.
type TailOptions struct {
	// Offset is the byte position to resume from. Negative means "the last
	// Limit lines".
	Offset int64
	Limit  int
	// JobID keeps only lines that mention the job.
	JobID string
}

// TailResult holds the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads path once. A missing file yields no lines at offset zero since
// the daemon may not have written anything yet.
func Tail(path string, opts TailOptions) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: opts.Offset}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}

	start := opts.Offset
	if start > info.Size() {
		// Rotated or truncated underneath us; start over.
		start = 0
	}
	if start < 0 {
		start = 0
	}
	if _, err := file.Seek(start, io.SeekStart); err != nil {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("seek log file: %w", err)
	}

	keep := matcher(opts.JobID)
	ring := newRing(opts.Limit, opts.Offset < 0)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if line := scanner.Text(); keep(line) {
			ring.add(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("determine log offset: %w", err)
	}
	return TailResult{Lines: ring.lines(), Offset: end}, nil
}

// Follow prints new lines to fn every interval until ctx is cancelled,
// starting at offset.
func Follow(ctx context.Context, path string, offset int64, jobID string, interval time.Duration, fn func(line string)) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		result, err := Tail(path, TailOptions{Offset: offset, JobID: jobID})
		if err != nil {
			return err
		}
		for _, line := range result.Lines {
			fn(line)
		}
		offset = result.Offset
	}
}

func matcher(jobID string) func(string) bool {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return func(string) bool { return true }
	}
	return func(line string) bool {
		return strings.Contains(line, jobID)
	}
}

// ring keeps every line, or only the last n when bounded.
type ring struct {
	bounded bool
	buf     []string
	next    int
	full    bool
}

func newRing(n int, tail bool) *ring {
	if !tail {
		return &ring{}
	}
	if n <= 0 {
		n = 0
	}
	return &ring{bounded: true, buf: make([]string, n)}
}

func (r *ring) add(line string) {
	if !r.bounded {
		r.buf = append(r.buf, line)
		return
	}
	if len(r.buf) == 0 {
		return
	}
	r.buf[r.next] = line
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

func (r *ring) lines() []string {
	if !r.bounded {
		return r.buf
	}
	if !r.full {
		return append([]string(nil), r.buf[:r.next]...)
	}
	out := make([]string, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}
