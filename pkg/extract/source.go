package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/quidome/focalstats/pkg/meta"
	"github.com/quidome/focalstats/pkg/observability"
	"github.com/quidome/focalstats/pkg/scan"
)

var (
	// ErrToolUnavailable is returned when a batch tool is missing, fails or
	// produces unusable output.
	ErrToolUnavailable = errors.New("metadata tool unavailable")
	// ErrNoExif is returned by readers for images without an EXIF segment.
	ErrNoExif = errors.New("no exif data")
	// ErrInvalidExif is returned by readers for malformed image or EXIF data.
	ErrInvalidExif = errors.New("invalid exif data")
	// ErrNotDir is returned by Extract when root is not a directory.
	ErrNotDir = errors.New("not a directory")
)

// BatchStrategy extracts every image below root in one call. It either
// returns the complete result or an error; partial results are not used.
type BatchStrategy interface {
	Name() string
	ExtractAll(ctx context.Context, root string) ([]meta.RawRecord, error)
}

// FileReader extracts the fields of a single image.
type FileReader interface {
	Name() string
	Read(r io.Reader) (meta.RawRecord, error)
}

// DefaultReaders returns the per-file readers in fallback order.
func DefaultReaders() []FileReader {
	return []FileReader{GoExif{}, IFDReader{}}
}

// Source produces one RawRecord per image file.
//
// Batch is tried first. When it is nil or fails, every file is read by
// Readers in order: the first reader always runs, later readers only while
// the record is still Incomplete, and they only fill fields that are absent.
type Source struct {
	Batch   BatchStrategy
	Readers []FileReader

	// Workers bounds the number of files read concurrently; <= 0 means
	// runtime.NumCPU().
	Workers int

	// Scan selects the files for the per-file readers. Nil Extensions means
	// scan.DefaultOptions().
	Scan scan.Options

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Extract returns the records for the images below root. The only errors
// are an unusable root and context cancellation.
func (s Source) Extract(ctx context.Context, root string) ([]meta.RawRecord, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, ErrNotDir)
	}

	if s.Batch != nil {
		records, err := s.Batch.ExtractAll(ctx, root)
		if err == nil {
			s.logger().Info("extracted metadata", "strategy", s.Batch.Name(), "records", len(records))
			s.Metrics.RecordsExtracted(s.Batch.Name(), len(records))
			return records, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger().Warn("batch extraction failed, reading files individually", "strategy", s.Batch.Name(), "err", err)
		s.Metrics.StrategyFailed(s.Batch.Name())
	}

	return s.ExtractFS(ctx, os.DirFS(root), root)
}

// ExtractFS reads every image of fsys with the per-file readers. Record paths
// are prefix joined with the file's path inside fsys. Results are in scan
// order.
func (s Source) ExtractFS(ctx context.Context, fsys fs.FS, prefix string) ([]meta.RawRecord, error) {
	opts := s.Scan
	if opts.Extensions == nil {
		opts = scan.DefaultOptions()
		opts.OnError = s.Scan.OnError
	}
	if opts.OnError == nil {
		opts.OnError = func(path string, err error) {
			s.logger().Warn("skipping unreadable entry", "path", path, "err", err)
		}
	}

	paths, err := scan.Scan(fsys, ".", opts)
	if err != nil {
		return nil, err
	}

	readers := s.Readers
	if readers == nil {
		readers = DefaultReaders()
	}

	records := make([]meta.RawRecord, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for i, rel := range paths {
		if gctx.Err() != nil {
			break
		}
		i, rel := i, rel
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec := s.readFile(fsys, rel, readers)
			rec.File = filepath.Join(prefix, filepath.FromSlash(rel))
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger().Info("extracted metadata", "strategy", "per-file", "records", len(records))
	return records, nil
}

// readFile runs the reader chain on one file. Failures are logged and leave
// the affected fields absent.
func (s Source) readFile(fsys fs.FS, rel string, readers []FileReader) meta.RawRecord {
	var rec meta.RawRecord
	for i, r := range readers {
		if i > 0 && !rec.Incomplete() {
			break
		}
		got, err := readOne(fsys, rel, r)
		if err != nil {
			s.logger().Debug("reader failed", "reader", r.Name(), "path", rel, "err", err)
			s.Metrics.StrategyFailed(r.Name())
			continue
		}
		s.Metrics.RecordsExtracted(r.Name(), 1)
		rec = rec.Merge(got)
	}
	return rec
}

func readOne(fsys fs.FS, rel string, r FileReader) (rec meta.RawRecord, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s: panic: %v", r.Name(), p)
		}
	}()

	f, err := fsys.Open(rel)
	if err != nil {
		return meta.RawRecord{}, err
	}
	defer f.Close()

	return r.Read(f)
}

func (s Source) workers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.NumCPU()
}

func (s Source) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return observability.Discard()
}
