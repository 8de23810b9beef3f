package energyplus

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aretw0/studioflow/pkg/domain"
)

var (
	excludedExt   = map[string]bool{".pdf": true, ".app": true, ".html": true, ".gif": true, ".txt": true, ".xlsx": true}
	energyplusExe = regexp.MustCompile(`(?i)^energyplus.{0,4}$`)
	expandExe     = regexp.MustCompile(`(?i)expandobjects`)
)

// Install is the result of staging an engine installation into a run directory.
type Install struct {
	EnergyPlus    string
	ExpandObjects string
	Staged        []string
}

// Stage copies every regular file of enginePath into runDir, following
// symlinks and skipping documentation and other excluded extensions. The installation must contain
// exactly one EnergyPlus and exactly one ExpandObjects executable.
func Stage(runDir, enginePath string) (*Install, error) {
	entries, err := os.ReadDir(enginePath)
	if err != nil {
		return nil, domain.NewError(domain.EngineError, enginePath, fmt.Errorf("%w: %v", domain.ErrEngineInstall, err))
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, domain.NewError(domain.IOError, runDir, err)
	}

	inst := &Install{}
	var eplus, expand []string
	for _, e := range entries {
		name := e.Name()
		// Installs link energyplus to a versioned binary; stage the target under the link's name.
		info, err := os.Stat(filepath.Join(enginePath, name))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if excludedExt[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		dest := filepath.Join(runDir, name)
		if err := copyFile(filepath.Join(enginePath, name), dest); err != nil {
			return inst, domain.NewError(domain.IOError, dest, err)
		}
		inst.Staged = append(inst.Staged, dest)

		switch {
		case energyplusExe.MatchString(name):
			eplus = append(eplus, dest)
		case expandExe.MatchString(name):
			expand = append(expand, dest)
		}
	}

	if len(eplus) != 1 {
		return inst, domain.NewError(domain.EngineError, enginePath,
			fmt.Errorf("%w: found %d EnergyPlus executables", domain.ErrEngineInstall, len(eplus)))
	}
	if len(expand) != 1 {
		return inst, domain.NewError(domain.EngineError, enginePath,
			fmt.Errorf("%w: found %d ExpandObjects executables", domain.ErrEngineInstall, len(expand)))
	}
	inst.EnergyPlus = eplus[0]
	inst.ExpandObjects = expand[0]
	return inst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
