package energyplus

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/studioflow/pkg/domain"
)

const (
	EndFile   = "eplusout.end"
	ErrFile   = "eplusout.err"
	fatalMark = "EnergyPlus Terminated--Fatal Error Detected"
)

var (
	warningCount = regexp.MustCompile(`(\d+)\s*Warning`)
	severeCount  = regexp.MustCompile(`(\d+)\s*Severe Errors`)
)

// Status summarizes the solver's own end-of-run report.
type Status struct {
	ExitCode int  `json:"exit_code"`
	Warnings int  `json:"warnings"`
	Severe   int  `json:"severe"`
	Fatal    bool `json:"fatal"`
}

// CheckEnding inspects eplusout.end and eplusout.err in runDir. A missing end
// file is fatal whatever the exit code was, as is the fatal-error marker in
// either file.
func CheckEnding(runDir string) (Status, error) {
	var st Status
	endPath := filepath.Join(runDir, EndFile)
	data, err := os.ReadFile(endPath)
	if err != nil {
		if os.IsNotExist(err) {
			return st, domain.NewError(domain.EngineError, endPath, domain.ErrNoEndFile)
		}
		return st, domain.NewError(domain.IOError, endPath, err)
	}
	end := string(data)
	if m := warningCount.FindStringSubmatch(end); m != nil {
		st.Warnings, _ = strconv.Atoi(m[1])
	}
	if m := severeCount.FindStringSubmatch(end); m != nil {
		st.Severe, _ = strconv.Atoi(m[1])
	}

	errPath := filepath.Join(runDir, ErrFile)
	errLog, err := os.ReadFile(errPath)
	if err != nil && !os.IsNotExist(err) {
		return st, domain.NewError(domain.IOError, errPath, err)
	}

	if strings.Contains(end, fatalMark) || strings.Contains(string(errLog), fatalMark) {
		st.Fatal = true
		return st, domain.NewError(domain.EngineError, runDir,
			fmt.Errorf("%w: %d warnings, %d severe errors", domain.ErrFatalSolver, st.Warnings, st.Severe))
	}
	return st, nil
}
