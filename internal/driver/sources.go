package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"loa/internal/project"
	"loa/internal/source"
	"loa/internal/stdlib"
)

// Inputs selects what goes into a program besides the standard library.
type Inputs struct {
	// Paths are files or directories given on the command line. Empty means
	// the project sources matched by Config.Sources under Config.Root.
	Paths []string
	// Main appends the bootstrap line sending `run` to Config.Main.
	Main bool
	// Extra sources, e.g. a program read from stdin.
	Extra []*source.Source
}

// Collect loads the standard library, the project modules and the optional
// bootstrap line, in that order. Duplicate URIs are loaded once.
func Collect(cfg project.Config, in Inputs) ([]*source.Source, error) {
	std, err := stdlib.Load(cfg.SDK)
	if err != nil {
		return nil, err
	}
	paths, err := modulePaths(cfg, in.Paths)
	if err != nil {
		return nil, err
	}

	out := make([]*source.Source, 0, len(std)+len(paths)+len(in.Extra)+1)
	seen := make(map[source.URI]struct{}, cap(out))
	add := func(src *source.Source) {
		if _, dup := seen[src.URI]; dup {
			return
		}
		seen[src.URI] = struct{}{}
		out = append(out, src)
	}
	for _, src := range std {
		add(src)
	}
	for _, p := range paths {
		src, err := source.Load(p)
		if err != nil {
			return nil, err
		}
		add(src)
	}
	for _, src := range in.Extra {
		add(src)
	}
	if in.Main {
		add(source.Main(cfg.Main))
	}
	return out, nil
}

func modulePaths(cfg project.Config, args []string) ([]string, error) {
	if len(args) == 0 {
		return source.Glob(cfg.Root, cfg.Sources)
	}
	var out []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !st.IsDir() {
			out = append(out, arg)
			continue
		}
		found, err := source.Glob(arg, project.DefaultSources)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	for i, p := range out {
		if abs, err := filepath.Abs(p); err == nil {
			out[i] = abs
		}
	}
	return out, nil
}

// Fingerprint hashes the program text. Sources are taken in the order given,
// which Collect keeps deterministic.
func Fingerprint(srcs []*source.Source) project.Digest {
	digests := make([]project.Digest, 0, len(srcs))
	for _, src := range srcs {
		digests = append(digests, project.Of([]byte(src.URI.String()+"\x00"+src.Code)))
	}
	return project.Combine(project.Of([]byte(fmt.Sprintf("loa-bytecode/%d", storeSchema))), digests...)
}
