package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/plansql/internal/model"
)

// LoadResult is a compiled metadata model together with everything found
// while checking it.
type LoadResult struct {
	Types []*model.TypeDescriptor
	// Model is nil when Problems is non-empty.
	Model *model.Model
	// Problems are schema violations that prevent building the model.
	Problems []ValidationError
	// Cycles are legal relationship cycles, reported for information.
	Cycles []CycleWarning
	// Files is the number of CUE files read.
	Files int
}

// Load reads a metadata model from a single .cue file or from every .cue
// file in a directory. Read and CUE evaluation failures are returned as
// errors; schema violations are collected in Problems.
func Load(path string) (*LoadResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("model not found: %w", err)
	}

	var (
		v     cue.Value
		files int
	)
	if info.IsDir() {
		v, files, err = loadDir(path)
	} else {
		v, err = loadFile(path)
		files = 1
	}
	if err != nil {
		return nil, err
	}

	types, err := CompileEntities(v)
	if err != nil {
		return nil, err
	}

	res := &LoadResult{
		Types:    types,
		Problems: Validate(types),
		Cycles:   AnalyzeReferenceCycles(types),
		Files:    files,
	}
	if len(res.Problems) > 0 {
		return res, nil
	}
	if res.Model, err = model.New(types...); err != nil {
		return nil, err
	}
	return res, nil
}

// LoadModel is Load for callers that only want a usable model. Schema
// violations are joined into the returned error.
func LoadModel(path string) (*model.Model, error) {
	res, err := Load(path)
	if err != nil {
		return nil, err
	}
	if len(res.Problems) > 0 {
		msgs := make([]string, len(res.Problems))
		for i, p := range res.Problems {
			msgs[i] = p.Error()
		}
		return nil, fmt.Errorf("invalid model %s: %s", path, strings.Join(msgs, "; "))
	}
	return res.Model, nil
}

func loadFile(path string) (cue.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to read model: %w", err)
	}
	v := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}

func loadDir(dir string) (cue.Value, int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return cue.Value{}, 0, err
	}
	if len(files) == 0 {
		return cue.Value{}, 0, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, 0, fmt.Errorf("no CUE instances loaded")
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, 0, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return cue.Value{}, 0, formatCUEError(err)
	}
	return v, len(files), nil
}
