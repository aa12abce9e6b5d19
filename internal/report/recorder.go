// Package report records scenario steps, parameters and attachments and writes
// them to a results directory as report.json plus one file per attachment.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// Status of a step or of the whole scenario
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Attachment is a named blob stored next to report.json
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	File     string `json:"file"`
}

// Step is one recorded action; steps nest when Step is called inside Step
type Step struct {
	Name        string       `json:"name"`
	Status      Status       `json:"status"`
	Start       time.Time    `json:"start"`
	Stop        time.Time    `json:"stop"`
	Error       string       `json:"error,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Steps       []*Step      `json:"steps,omitempty"`
}

// Report is the serialised form of a finished scenario
type Report struct {
	RunID       string            `json:"run_id"`
	Name        string            `json:"name"`
	Status      Status            `json:"status"`
	Start       time.Time         `json:"start"`
	Stop        time.Time         `json:"stop"`
	Labels      map[string]string `json:"labels,omitempty"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	Steps       []*Step           `json:"steps"`
}

// Recorder collects the report for one scenario. A nil *Recorder is valid and
// records nothing, so components can hold one unconditionally.
type Recorder struct {
	mu     sync.Mutex
	dir    string
	logger arbor.ILogger
	report Report
	stack  []*Step
	seq    int
}

// New creates a recorder writing into dir (created on Finish)
func New(runID, name, dir string, logger arbor.ILogger) *Recorder {
	return &Recorder{
		dir:    dir,
		logger: logger,
		report: Report{
			RunID:      runID,
			Name:       name,
			Start:      time.Now(),
			Labels:     map[string]string{},
			Parameters: map[string]string{},
		},
	}
}

// Dir returns the results directory of this recorder
func (r *Recorder) Dir() string {
	if r == nil {
		return ""
	}
	return r.dir
}

// Label sets a classification label (epic, feature, story)
func (r *Recorder) Label(key, value string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Labels[key] = value
}

// Parameter records a named input of the scenario
func (r *Recorder) Parameter(key, value string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Parameters[key] = value
}

// Step runs fn as a named step. A failing step gets an "Error Details"
// attachment and its error is returned unchanged.
func (r *Recorder) Step(name string, fn func() error) error {
	if r == nil {
		return fn()
	}

	step := r.begin(name)
	err := fn()
	r.end(step, err)
	return err
}

// StepValue is Step for functions that return a value
func StepValue[T any](r *Recorder, name string, fn func() (T, error)) (T, error) {
	var out T
	err := r.Step(name, func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}

func (r *Recorder) begin(name string) *Step {
	r.mu.Lock()
	defer r.mu.Unlock()

	step := &Step{Name: name, Start: time.Now()}
	if n := len(r.stack); n > 0 {
		parent := r.stack[n-1]
		parent.Steps = append(parent.Steps, step)
	} else {
		r.report.Steps = append(r.report.Steps, step)
	}
	r.stack = append(r.stack, step)

	if r.logger != nil {
		r.logger.Debug().Str("step", name).Int("depth", len(r.stack)).Msg("Step started")
	}
	return step
}

func (r *Recorder) end(step *Step, err error) {
	if err != nil {
		r.AttachText("Error Details", err.Error())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	step.Stop = time.Now()
	step.Status = StatusPassed
	if err != nil {
		step.Status = StatusFailed
		step.Error = err.Error()
	}

	// pop this step (and anything left open beneath it)
	for i := len(r.stack) - 1; i >= 0; i-- {
		if r.stack[i] == step {
			r.stack = r.stack[:i]
			break
		}
	}

	if r.logger == nil {
		return
	}
	if err != nil {
		r.logger.Warn().Err(err).Str("step", step.Name).Msg("Step failed")
	} else {
		r.logger.Debug().Str("step", step.Name).Dur("duration", step.Stop.Sub(step.Start)).Msg("Step finished")
	}
}

// AttachText attaches plain text to the current step (or the scenario)
func (r *Recorder) AttachText(name, content string) {
	r.AttachFile(name, "text/plain", ".txt", []byte(content))
}

// AttachJSON attaches a JSON document, pretty-printed when it parses
func (r *Recorder) AttachJSON(name string, data []byte) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err == nil {
		if pretty, err := json.MarshalIndent(v, "", "  "); err == nil {
			data = pretty
		}
	}
	r.AttachFile(name, "application/json", ".json", data)
}

// AttachFile stores data under the results directory and links it to the current step
func (r *Recorder) AttachFile(name, mimeType, ext string, data []byte) {
	if r == nil {
		return
	}

	r.mu.Lock()
	r.seq++
	fileName := fmt.Sprintf("%03d_%s%s", r.seq, sanitizeName(name), ext)
	attachment := Attachment{Name: name, MimeType: mimeType, File: fileName}
	if n := len(r.stack); n > 0 {
		r.stack[n-1].Attachments = append(r.stack[n-1].Attachments, attachment)
	} else {
		r.report.Attachments = append(r.report.Attachments, attachment)
	}
	r.mu.Unlock()

	if err := r.write(fileName, data); err != nil && r.logger != nil {
		r.logger.Warn().Err(err).Str("attachment", name).Msg("Failed to write attachment")
	}
}

// Finish stamps the final status and writes report.json
func (r *Recorder) Finish(status Status) error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	r.report.Status = status
	r.report.Stop = time.Now()
	data, err := json.MarshalIndent(&r.report, "", "  ")
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := r.write("report.json", data); err != nil {
		return err
	}
	return nil
}

// Snapshot returns a copy of the report as recorded so far
func (r *Recorder) Snapshot() Report {
	if r == nil {
		return Report{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.report
	out.Steps = append([]*Step(nil), r.report.Steps...)
	out.Attachments = append([]Attachment(nil), r.report.Attachments...)
	return out
}

func (r *Recorder) write(fileName string, data []byte) error {
	if r.dir == "" {
		return nil
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.dir, fileName), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", fileName, err)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// sanitizeName converts a name to a safe filename format
func sanitizeName(name string) string {
	return strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(name), "_"), "_")
}
