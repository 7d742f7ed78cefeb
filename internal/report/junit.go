package report

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stew/internal/ci"
)

// JUnit XML as consumed by CI servers. encoding/xml from the standard
// library is used directly; the format is small and fixed.

type junitTestSuites struct {
	XMLName  xml.Name         `xml:"testsuites"`
	Name     string           `xml:"name,attr"`
	Tests    int              `xml:"tests,attr"`
	Failures int              `xml:"failures,attr"`
	Errors   int              `xml:"errors,attr"`
	Time     string           `xml:"time,attr"`
	Suites   []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Errors   int             `xml:"errors,attr"`
	Skipped  int             `xml:"skipped,attr"`
	Time     string          `xml:"time,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Error     *junitFailure `xml:"error,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",cdata"`
}

type junitSkipped struct {
	Message string `xml:"message,attr"`
}

func junitSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

// BuildJUnit maps one project's results onto a testsuites document. Each
// environment becomes a suite; each task becomes a case within it.
func BuildJUnit(projectName string, results []*ci.Result, elapsed time.Duration) junitTestSuites {
	byEnv := make(map[string][]*ci.Result)
	var envOrder []string
	for _, r := range results {
		key := "unknown"
		if r.Environment != nil {
			key = r.Environment.String()
		}
		if _, seen := byEnv[key]; !seen {
			envOrder = append(envOrder, key)
		}
		byEnv[key] = append(byEnv[key], r)
	}

	doc := junitTestSuites{
		Name: projectName,
		Time: junitSeconds(elapsed),
	}
	for _, env := range envOrder {
		suite := junitTestSuite{
			Name: fmt.Sprintf("%s (%s)", projectName, env),
		}
		var suiteTime time.Duration
		for _, r := range byEnv[env] {
			suiteTime += r.Duration
			tc := junitTestCase{
				Name:      r.Name,
				Classname: projectName,
				Time:      junitSeconds(r.Duration),
			}
			switch r.Status {
			case ci.CheckFailed:
				suite.Failures++
				tc.Failure = &junitFailure{
					Message: fmt.Sprintf("%s exited with code %d", r.Name, r.ExitCode),
					Body:    r.OutputString(),
				}
			case ci.Error:
				suite.Errors++
				body := r.OutputString()
				message := "check crashed"
				if r.Err != nil {
					message = r.Err.Error()
				}
				tc.Error = &junitFailure{Message: message, Body: body}
			case ci.Cancelled, ci.NotRan:
				suite.Skipped++
				tc.Skipped = &junitSkipped{Message: r.Status.String()}
			}
			suite.Cases = append(suite.Cases, tc)
			suite.Tests++
		}
		suite.Time = junitSeconds(suiteTime)

		doc.Tests += suite.Tests
		doc.Failures += suite.Failures
		doc.Errors += suite.Errors
		doc.Suites = append(doc.Suites, suite)
	}
	return doc
}

// WriteJUnit renders the document to <dir>/<project>.xml, creating dir as
// needed.
func WriteJUnit(dir, projectName string, results []*ci.Result, elapsed time.Duration) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create junit dir: %w", err)
	}

	doc := BuildJUnit(projectName, results, elapsed)
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal junit report: %w", err)
	}

	path := filepath.Join(dir, projectName+".xml")
	payload := append([]byte(xml.Header), data...)
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write junit report: %w", err)
	}
	return path, nil
}
