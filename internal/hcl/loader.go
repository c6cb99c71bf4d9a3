package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/dqgrid/internal/config"
	"github.com/vk/dqgrid/internal/ctxlog"
	"github.com/vk/dqgrid/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL job-file loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under the given paths and merges their blocks
// into one model. Files are read in lexical order so that declaration order,
// which breaks scheduling ties, is stable.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Decoder, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no .hcl job files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &config.Model{}
	parser := hclparse.NewParser()
	engineSeen := ""

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if root.Name != "" {
			if model.Name != "" && model.Name != root.Name {
				return nil, nil, fmt.Errorf("%s: job name %q conflicts with %q", file, root.Name, model.Name)
			}
			model.Name = root.Name
		}
		for _, e := range root.Engines {
			if engineSeen != "" {
				return nil, nil, fmt.Errorf("%s: duplicate engine block, first declared in %s", file, engineSeen)
			}
			engineSeen = file
			model.Engine = translateEngine(e)
		}
		for _, s := range root.Sources {
			src, err := translateSource(ctx, s)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", file, err)
			}
			// Source paths are relative to the file declaring them.
			if !filepath.IsAbs(src.Path) {
				src.Path = filepath.Join(filepath.Dir(file), src.Path)
			}
			model.Sources = append(model.Sources, src)
		}
		for _, c := range root.Components {
			model.Components = append(model.Components, translateComponent(c))
		}
	}

	if model.Name == "" {
		model.Name = "job"
	}
	logger.Debug("HCL loading complete.", "job", model.Name, "sources", len(model.Sources), "components", len(model.Components))
	return model, NewDecoder(), nil
}

// findAllHCLFiles walks all given paths and returns a sorted, de-duplicated
// list of the .hcl files found. Missing paths are reported.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var allFiles []string
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			allFiles = append(allFiles, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			add(p)
		}
	}
	return allFiles, nil
}
