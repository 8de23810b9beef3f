package paths

import (
	"path/filepath"
	"testing"

	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newResolver(t *testing.T) (*Resolver, string) {
	t.Helper()
	wd := t.TempDir()
	r, err := New(wd)
	require.NoError(t, err)
	return r, r.WorkingDir
}

func TestNew_RejectsRelative(t *testing.T) {
	_, err := New("relative/dir")
	assert.Error(t, err)
}

func TestResolveDirectory(t *testing.T) {
	r, wd := newResolver(t)
	abs := filepath.Join(wd, "abs")

	assert.Equal(t, abs, r.ResolveDirectory(abs))
	assert.Equal(t, filepath.Join(wd, "project"), r.ResolveDirectory("project"))
}

func TestResolveRootDir(t *testing.T) {
	r, wd := newResolver(t)
	dir := filepath.Join(wd, "wf")
	absRoot := filepath.Join(wd, "elsewhere")

	assert.Equal(t, absRoot, r.ResolveRootDir(&domain.WorkflowSpec{RootDir: absRoot}, dir))
	assert.Equal(t, filepath.Join(wd, "rel"), r.ResolveRootDir(&domain.WorkflowSpec{RootDir: "rel"}, dir))
	assert.Equal(t, dir, r.ResolveRootDir(&domain.WorkflowSpec{}, dir))
}

func TestResolveRunDir_Precedence(t *testing.T) {
	r, wd := newResolver(t)
	dir := filepath.Join(wd, "wf")
	absRun := filepath.Join(wd, "out")

	tests := []struct {
		name string
		spec *domain.WorkflowSpec
		want string
	}{
		{"absolute run dir", &domain.WorkflowSpec{RunDirectory: absRun}, filepath.Join(absRun, "run")},
		{"relative under root", &domain.WorkflowSpec{RootDir: "root", RunDirectory: "sim"}, filepath.Join(wd, "root", "sim", "run")},
		{"relative to working dir", &domain.WorkflowSpec{RunDirectory: "sim"}, filepath.Join(wd, "sim", "run")},
		{"fallback", &domain.WorkflowSpec{}, filepath.Join(dir, "run")},
		{"nil spec", nil, filepath.Join(dir, "run")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ResolveRunDir(tt.spec, dir))
		})
	}
}

func TestResolveRunDir_AbsoluteAndIdempotent(t *testing.T) {
	r, wd := newResolver(t)
	segment := rapid.StringMatching(`[a-z]{1,8}`)

	rapid.Check(t, func(t *rapid.T) {
		spec := &domain.WorkflowSpec{}
		if rapid.Bool().Draw(t, "hasRoot") {
			spec.RootDir = segment.Draw(t, "root")
			if rapid.Bool().Draw(t, "absRoot") {
				spec.RootDir = filepath.Join(wd, spec.RootDir)
			}
		}
		if rapid.Bool().Draw(t, "hasRun") {
			spec.RunDirectory = segment.Draw(t, "run")
			if rapid.Bool().Draw(t, "absRun") {
				spec.RunDirectory = filepath.Join(wd, spec.RunDirectory)
			}
		}
		dir := segment.Draw(t, "dir")

		first := r.ResolveRunDir(spec, dir)
		second := r.ResolveRunDir(spec, dir)
		if !filepath.IsAbs(first) {
			t.Fatalf("run dir %q is not absolute", first)
		}
		if first != second {
			t.Fatalf("not idempotent: %q != %q", first, second)
		}
	})
}
