package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	gio "io"
	"os"
	"strings"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/io"
	"github.com/olekukonko/tablewriter"
	"github.com/prosopo/obce/pkg/config"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Status is the scenario run verdict.
type Status string

// Scenario run statuses.
const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// Outcome is the result of a single scenario run.
type Outcome struct {
	// Name is the scenario name with run index appended if scenarios are
	// run multiple times.
	Name     string        `json:"name" yaml:"name"`
	Run      int           `json:"run" yaml:"run"`
	Status   Status        `json:"status" yaml:"status"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	// State is the last state reached, it's StateClosed for passed runs.
	State State  `json:"state" yaml:"state"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	err error
}

func newOutcome(j job, state State, d time.Duration, err error) Outcome {
	o := Outcome{
		Name:     j.name,
		Run:      j.run,
		Status:   StatusPass,
		Duration: d,
		State:    state,
		err:      err,
	}
	if err != nil {
		o.Status = StatusFail
		o.Error = err.Error()
	}
	return o
}

// Err returns the scenario run error.
func (o Outcome) Err() error {
	return o.err
}

// Report is the result of scenario runner.
type Report struct {
	Passed    int       `json:"passed" yaml:"passed"`
	Failed    int       `json:"failed" yaml:"failed"`
	Scenarios []Outcome `json:"scenarios" yaml:"scenarios"`
}

func newReport(outcomes []Outcome) *Report {
	r := &Report{Scenarios: outcomes}
	for _, o := range outcomes {
		if o.Status == StatusPass {
			r.Passed++
		} else {
			r.Failed++
		}
	}
	return r
}

// Err combines errors of all failed scenario runs, it's nil if all of them
// passed.
func (r *Report) Err() error {
	var err error
	for _, o := range r.Scenarios {
		if o.Status != StatusFail {
			continue
		}
		e := o.err
		if e == nil {
			e = errors.New(o.Error)
		}
		err = multierr.Append(err, fmt.Errorf("%s: %w", o.Name, e))
	}
	return err
}

// Encode writes the report in the format given.
func (r *Report) Encode(w gio.Writer, format config.ReportFormat) error {
	switch format {
	case config.ReportJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(r)
	case config.ReportYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err := enc.Encode(r)
		if err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// WriteFile writes the report to the file configured, nothing is done if
// there is no path.
func (r *Report) WriteFile(cfg config.Report) (err error) {
	if cfg.Path == "" {
		return nil
	}
	if err := io.MakeDirForFile(cfg.Path, "report"); err != nil {
		return err
	}
	f, err := os.Create(cfg.Path)
	if err != nil {
		return fmt.Errorf("can't create report file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return r.Encode(f, cfg.Format)
}

// ReadFile reads the report written by WriteFile. Decoded outcomes only have
// error text, Outcome.Err is nil for them.
func ReadFile(cfg config.Report) (*Report, error) {
	raw, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("can't read report file: %w", err)
	}
	r := new(Report)
	switch cfg.Format {
	case config.ReportJSON, "":
		err = json.Unmarshal(raw, r)
	case config.ReportYAML:
		err = yaml.Unmarshal(raw, r)
	default:
		return nil, fmt.Errorf("unsupported report format: %s", cfg.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("can't decode report: %w", err)
	}
	return r, nil
}

// Summary renders the report as a table, only the first line of every error
// is shown.
func (r *Report) Summary(w gio.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Scenario", "Status", "State", "Duration", "Error"})
	table.SetAutoWrapText(false)
	for _, o := range r.Scenarios {
		errLine, _, _ := strings.Cut(o.Error, "\n")
		table.Append([]string{
			o.Name,
			string(o.Status),
			o.State.String(),
			o.Duration.Round(time.Millisecond).String(),
			errLine,
		})
	}
	table.SetFooter([]string{"", "", "", "passed", fmt.Sprintf("%d/%d", r.Passed, len(r.Scenarios))})
	table.Render()
}
