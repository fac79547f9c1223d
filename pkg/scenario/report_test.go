package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prosopo/obce/pkg/config"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func testReport() *Report {
	return newReport([]Outcome{
		newOutcome(job{name: SuccessfulMethodName}, StateClosed, 1500*time.Millisecond, nil),
		newOutcome(job{name: MultiArgMethodName}, StateCalled, 250*time.Millisecond, &MismatchError{
			What:     "multiArgMethod(100, 300)",
			Expected: "Ok(400)",
			Actual:   "Ok(401), weight 10000",
		}),
	})
}

func TestReportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testReport().Encode(&buf, config.ReportJSON))

	g := goldie.New(t)
	g.Assert(t, "report_json", buf.Bytes())
}

func TestReportYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testReport().Encode(&buf, config.ReportYAML))
	require.Contains(t, buf.String(), "state: CLOSED")
	require.Contains(t, buf.String(), "duration: 1.5s")
	require.Contains(t, buf.String(), "passed: 1")

	require.Error(t, testReport().Encode(&buf, "xml"))
}

func TestReportErr(t *testing.T) {
	rep := testReport()
	require.Equal(t, 1, rep.Passed)
	require.Equal(t, 1, rep.Failed)

	err := rep.Err()
	require.Len(t, multierr.Errors(err), 1)
	var me *MismatchError
	require.ErrorAs(t, err, &me)
	require.ErrorContains(t, err, "multi-arg-method: multiArgMethod(100, 300): expected Ok(400)")

	// Decoded reports keep error text only.
	var decoded Report
	raw, err := json.Marshal(rep)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, StateCalled, decoded.Scenarios[1].State)
	require.ErrorContains(t, decoded.Err(), "expected Ok(400)")

	require.NoError(t, newReport([]Outcome{newOutcome(job{name: "x"}, StateClosed, 0, nil)}).Err())
	require.NoError(t, newReport(nil).Err())
}

func TestReportWriteFile(t *testing.T) {
	rep := testReport()
	require.NoError(t, rep.WriteFile(config.Report{}))

	path := filepath.Join(t.TempDir(), "reports", "run.json")
	require.NoError(t, rep.WriteFile(config.Report{Path: path, Format: config.ReportJSON}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, 1, decoded.Passed)
	require.Len(t, decoded.Scenarios, 2)
}

func TestReadFile(t *testing.T) {
	rep := testReport()
	dir := t.TempDir()
	for _, format := range []config.ReportFormat{config.ReportJSON, config.ReportYAML} {
		t.Run(string(format), func(t *testing.T) {
			cfg := config.Report{Path: filepath.Join(dir, "report."+string(format)), Format: format}
			require.NoError(t, rep.WriteFile(cfg))

			decoded, err := ReadFile(cfg)
			require.NoError(t, err)
			require.Equal(t, rep.Passed, decoded.Passed)
			require.Equal(t, rep.Failed, decoded.Failed)
			require.Len(t, decoded.Scenarios, 2)
			require.Equal(t, StateClosed, decoded.Scenarios[0].State)
			require.Equal(t, StateCalled, decoded.Scenarios[1].State)
			require.Equal(t, 1500*time.Millisecond, decoded.Scenarios[0].Duration)
			require.Equal(t, rep.Scenarios[1].Error, decoded.Scenarios[1].Error)
			require.Nil(t, decoded.Scenarios[1].Err())
		})
	}

	_, err := ReadFile(config.Report{Path: filepath.Join(dir, "nonexistent.json")})
	require.ErrorContains(t, err, "can't read report file")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"scenarios": [{"state": "FLYING"}]}`), 0o644))
	_, err = ReadFile(config.Report{Path: bad, Format: config.ReportJSON})
	require.ErrorContains(t, err, `unknown state "FLYING"`)

	_, err = ReadFile(config.Report{Path: bad, Format: "xml"})
	require.Error(t, err)
}

func TestReportSummary(t *testing.T) {
	rep := testReport()
	rep.Scenarios[1].Error = "first line\nsecond line"

	var buf bytes.Buffer
	rep.Summary(&buf)
	out := buf.String()
	require.Contains(t, out, SuccessfulMethodName)
	require.Contains(t, out, MultiArgMethodName)
	require.Contains(t, out, "first line")
	require.NotContains(t, out, "second line")
	require.Contains(t, out, "1.5s")
	require.Contains(t, out, "1/2")
}

func TestMismatchError(t *testing.T) {
	err := error(&MismatchError{What: "call", Expected: "Ok", Actual: "Trap"})
	require.EqualError(t, err, "call: expected Ok, got Trap")
	var me *MismatchError
	require.True(t, errors.As(err, &me))
}
