package plans

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Repository provides plan metadata and automation-script payloads.
type Repository interface {
	ListPlans(ctx context.Context) ([]Plan, error)
	// GetScripts returns group -> script body for the plan, or
	// ErrPlanNotFound.
	GetScripts(ctx context.Context, planID string) (map[string]string, error)
}

// ScriptSource fetches a script body by its reference key.
type ScriptSource interface {
	Fetch(ctx context.Context, key string) (string, error)
}

// FileRepo serves plans from JSON files in a data directory, the
// original deployment model: plans_base.json for the listing and
// scripts.json as the per-plan script index. Files are re-read on each
// call so edits show up without a restart.
type FileRepo struct {
	dataDir string
	scripts ScriptSource
}

func NewFileRepo(dataDir string, scripts ScriptSource) *FileRepo {
	if scripts == nil {
		scripts = FileSource{Dir: dataDir}
	}
	return &FileRepo{dataDir: dataDir, scripts: scripts}
}

func (r *FileRepo) ListPlans(ctx context.Context) ([]Plan, error) {
	var pf plansFile
	if err := readJSON(filepath.Join(r.dataDir, "plans_base.json"), &pf); err != nil {
		return nil, err
	}
	return pf.Plans, nil
}

func (r *FileRepo) GetScripts(ctx context.Context, planID string) (map[string]string, error) {
	var sf scriptsFile
	if err := readJSON(filepath.Join(r.dataDir, "scripts.json"), &sf); err != nil {
		return nil, err
	}
	entry, ok := sf.ScriptsByPlan[planID]
	if !ok {
		return nil, ErrPlanNotFound
	}
	out := make(map[string]string, len(entry))
	for group, ref := range entry {
		if ref.File == "" {
			return nil, fmt.Errorf("plan %s group %s: missing script reference", planID, group)
		}
		code, err := r.scripts.Fetch(ctx, ref.File)
		if err != nil {
			return nil, fmt.Errorf("plan %s group %s: %w", planID, group, err)
		}
		out[group] = code
	}
	return out, nil
}

// FileSource reads script bodies from the data directory. Keys are
// resolved relative to Dir and must not escape it.
type FileSource struct {
	Dir string
}

func (f FileSource) Fetch(ctx context.Context, key string) (string, error) {
	clean := filepath.Clean(key)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid script path %q", key)
	}
	b, err := os.ReadFile(filepath.Join(f.Dir, clean))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// BucketFetcher is the subset of the object-store client the bucket
// source needs.
type BucketFetcher interface {
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
}

// BucketSource reads script bodies from an object-store bucket so they
// can be updated without a redeploy.
type BucketSource struct {
	Store BucketFetcher
}

func (b BucketSource) Fetch(ctx context.Context, key string) (string, error) {
	rc, err := b.Store.DownloadFile(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func readJSON(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
