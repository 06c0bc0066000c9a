package cli

import (
	"fmt"
	stdio "io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/ecomap/pkg/render/sink"
)

// stdoutPath selects standard output for a single artifact.
const stdoutPath = "-"

// basePath derives the output path without extension.
//
// An empty output strips the extension from input. A known format
// extension on output is stripped so every format can be appended.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	var ext string
	for _, f := range sink.Formats {
		if e := "." + f.Ext(); strings.HasSuffix(output, e) && len(e) > len(ext) {
			ext = e
		}
	}
	return strings.TrimSuffix(output, ext)
}

// outputPaths maps each format to the file it is written to. A single
// format with an explicit output uses output verbatim. Derived paths
// never overwrite input.
func outputPaths(output, input string, formats []string) (map[string]string, error) {
	out := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		out[formats[0]] = output
		return out, nil
	}
	if output == stdoutPath {
		return nil, fmt.Errorf("output %q needs exactly one format, got %d", stdoutPath, len(formats))
	}
	base := basePath(output, input)
	for _, name := range formats {
		f, err := sink.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		path := base + "." + f.Ext()
		if input != "" && filepath.Clean(path) == filepath.Clean(input) {
			path = base + ".scene." + f.Ext()
		}
		out[name] = path
	}
	return out, nil
}

// openOutput opens path for writing, or returns stdout for "-".
func openOutput(path string) (stdio.WriteCloser, error) {
	if path == stdoutPath {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

type nopCloser struct{ stdio.Writer }

func (nopCloser) Close() error { return nil }

// writeArtifacts writes every artifact to its output path and returns the
// paths in format order.
func writeArtifacts(artifacts map[string][]byte, paths map[string]string, formats []string) ([]string, error) {
	var written []string
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok {
			continue
		}
		path := paths[f]
		out, err := openOutput(path)
		if err != nil {
			return written, err
		}
		_, err = out.Write(data)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
