package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"contentengine/internal/logging"
)

const (
	pollInterval  = 250 * time.Millisecond
	maxLineLength = 1024 * 1024
)

// ErrNoLogs reports an empty or missing log directory.
var ErrNoLogs = errors.New("no log files found")

// Latest returns the most recent daily log in dir. Daily names sort
// chronologically, so the lexically greatest match wins.
func Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, logging.LogFilePattern))
	if err != nil {
		return "", fmt.Errorf("list log files: %w", err)
	}
	if len(matches) == 0 {
		return "", ErrNoLogs
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// TailOptions selects where reading starts. A negative Offset means "the
// last Limit lines"; otherwise reading resumes at Offset. With Follow set and
// nothing new to read, Tail polls for up to Wait before returning.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read and the offset to pass next time.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads lines from the log at path. A missing file yields no lines and
// a zero offset.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return TailResult{}, nil
	}
	if err != nil {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}

	var result TailResult
	if opts.Offset < 0 {
		result, err = lastLines(path, opts.Limit)
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			// Truncated or rotated underneath us; start over from the end.
			offset = info.Size()
		}
		result, err = readFrom(path, offset)
	}
	if err != nil || len(result.Lines) > 0 || !opts.Follow || opts.Wait <= 0 {
		return result, err
	}
	return waitForLines(ctx, path, result.Offset, opts.Wait)
}

// lastLines keeps a ring of the final limit lines while scanning the file
// once.
func lastLines(path string, limit int) (TailResult, error) {
	var result TailResult
	file, err := os.Open(path)
	if err != nil {
		return result, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit > 0 {
		ring := make([]string, limit)
		count, next := 0, 0
		scanner := newScanner(file)
		for scanner.Scan() {
			ring[next] = scanner.Text()
			next = (next + 1) % limit
			if count < limit {
				count++
			}
		}
		if err := scanner.Err(); err != nil {
			return result, fmt.Errorf("read log file: %w", err)
		}
		result.Lines = make([]string, count)
		start := 0
		if count == limit {
			start = next
		}
		for i := 0; i < count; i++ {
			result.Lines[i] = ring[(start+i)%limit]
		}
	}

	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return result, fmt.Errorf("seek log file: %w", err)
	}
	result.Offset = end
	return result, nil
}

func readFrom(path string, offset int64) (TailResult, error) {
	result := TailResult{Offset: offset}
	file, err := os.Open(path)
	if err != nil {
		return result, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return result, fmt.Errorf("seek log file: %w", err)
	}
	scanner := newScanner(file)
	for scanner.Scan() {
		result.Lines = append(result.Lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return result, fmt.Errorf("determine log offset: %w", err)
	}
	result.Offset = end
	return result, nil
}

func waitForLines(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		next, err := readFrom(path, offset)
		if err != nil {
			return result, err
		}
		if len(next.Lines) > 0 || time.Now().After(deadline) {
			return next, nil
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return scanner
}
