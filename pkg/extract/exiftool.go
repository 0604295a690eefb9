package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/quidome/focalstats/pkg/meta"
	"github.com/quidome/focalstats/pkg/scan"
)

const (
	// DefaultExifToolPath is the binary looked up in PATH when none is set.
	DefaultExifToolPath = "exiftool"
	// DefaultExifToolTimeout bounds a single exiftool run.
	DefaultExifToolTimeout = 5 * time.Minute
)

// exifToolTags are the only tags requested from exiftool.
var exifToolTags = []string{
	"FileName",
	"Directory",
	"Model",
	"LensModel",
	"FocalLength",
	"FocalLengthIn35mmFormat",
	"FNumber",
	"ExposureTime",
	"ISO",
	"DateTimeOriginal",
}

// CommandRunner runs name with args and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExifTool runs exiftool once over the whole tree and parses its JSON output.
type ExifTool struct {
	// Path is the exiftool binary; empty means DefaultExifToolPath.
	Path string
	// Timeout bounds the subprocess; <= 0 means DefaultExifToolTimeout.
	Timeout time.Duration
	// Extensions filters the returned records; nil means .jpg and .jpeg.
	Extensions []string

	// Run replaces process execution in tests. When nil the binary is
	// looked up on PATH and run with exec.CommandContext.
	Run CommandRunner
}

func (ExifTool) Name() string { return "exiftool" }

func (e ExifTool) ExtractAll(ctx context.Context, root string) ([]meta.RawRecord, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultExifToolTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	run := e.Run
	if run == nil {
		path, err := exec.LookPath(e.path())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
		}
		run = func(ctx context.Context, _ string, args ...string) ([]byte, error) {
			return runCommand(ctx, path, args...)
		}
	}

	out, err := run(ctx, e.path(), e.args(root)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrToolUnavailable, ctxErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}

	records, err := parseExifToolJSON(out, e.extensions())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	return records, nil
}

func (e ExifTool) path() string {
	if e.Path != "" {
		return e.Path
	}
	return DefaultExifToolPath
}

func (e ExifTool) extensions() []string {
	if e.Extensions != nil {
		return e.Extensions
	}
	return scan.DefaultOptions().Extensions
}

func (e ExifTool) args(root string) []string {
	args := []string{"-json", "-n", "-fast2", "-q", "-q", "-r"}
	for _, ext := range e.extensions() {
		args = append(args, "-ext", strings.TrimPrefix(ext, "."))
	}
	for _, tag := range exifToolTags {
		args = append(args, "-"+tag)
	}
	return append(args, root)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}
	return out, nil
}

// parseExifToolJSON maps exiftool's array of objects to records. Numeric
// values stay json.Number and are coerced during normalization.
func parseExifToolJSON(out []byte, exts []string) ([]meta.RawRecord, error) {
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, errors.New("empty exiftool output")
	}

	dec := json.NewDecoder(bytes.NewReader(out))
	dec.UseNumber()
	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("parse exiftool json: %w", err)
	}
	if len(items) == 0 {
		return nil, errors.New("exiftool returned no items")
	}

	records := make([]meta.RawRecord, 0, len(items))
	for _, item := range items {
		file := stringValue(item["SourceFile"])
		if file == "" {
			file = filepath.Join(stringValue(item["Directory"]), stringValue(item["FileName"]))
		}
		if file == "" || file == "." || !scan.HasExtension(file, exts) {
			continue
		}

		records = append(records, meta.RawRecord{
			File:      filepath.FromSlash(file),
			Model:     stringValue(item["Model"]),
			Lens:      stringValue(item["LensModel"]),
			FocalMM:   item["FocalLength"],
			Focal35mm: item["FocalLengthIn35mmFormat"],
			FNumber:   item["FNumber"],
			Exposure:  stringValue(item["ExposureTime"]),
			ISO:       item["ISO"],
			DateTime:  stringValue(item["DateTimeOriginal"]),
		})
	}
	return records, nil
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
