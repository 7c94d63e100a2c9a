// Package fossology drives a FOSSology server through its web console as
// if it were an API: logging in, resolving folders and uploads, starting
// scanning agents, polling their jobs, and retrieving generated reports.
//
// The console hands back no machine-readable identifiers synchronously, so
// most operations are a form submission followed by a scan of a listing
// page. Response bodies are decoded by the parse package; request plumbing
// and retry live in the transport package.
package fossology

import (
	"fmt"
	"strings"
)

// License is a license entry known to the server.
type License struct {
	ID   int64
	Name string
}

// Job is one invocation of a scanning agent against an upload. Status is
// whatever string the console reports; only terminal classification is
// interpreted here.
type Job struct {
	ID       int64
	Agent    string
	Status   string
	ReportID int64
}

// Done reports whether the job has reached a terminal status: Completed,
// or any status containing "killed". Everything else is in progress.
func (j Job) Done() bool {
	return j.Status == "Completed" || strings.Contains(j.Status, "killed")
}

// ReportFormat selects a report-generating agent.
type ReportFormat string

// FormatSPDX2TV is the SPDX tag-value report format.
const FormatSPDX2TV ReportFormat = "spdx2tv"

// Action is a bulk text match verb: add or remove a license.
type Action string

// The two verbs the console accepts.
const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// ParseAction converts a string into an Action, rejecting unknown verbs.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionAdd, ActionRemove:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown bulk text match action %q", s)
}

// BulkTextMatchAction is one requested reclassification in a bulk text
// match: add or remove a license for the matched scope.
type BulkTextMatchAction struct {
	LicenseID   int64
	LicenseName string
	Action      Action
}

// NewBulkTextMatchAction builds an action for the given license, rejecting
// unknown verbs at construction rather than leaving them to the server.
func NewBulkTextMatchAction(lic License, action Action) (BulkTextMatchAction, error) {
	if action != ActionAdd && action != ActionRemove {
		return BulkTextMatchAction{}, fmt.Errorf("unknown bulk text match action %q", action)
	}
	return BulkTextMatchAction{
		LicenseID:   lic.ID,
		LicenseName: lic.Name,
		Action:      action,
	}, nil
}

// NotFoundError indicates a name or job lookup had no match. Callers that
// treat absence as a normal outcome check for it with errors.As.
type NotFoundError struct {
	Kind string // "folder", "upload", "license", "job"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// PendingError indicates an agent wait ended by cancellation or deadline
// while the job was still in a non-terminal state.
type PendingError struct {
	UploadID int64
	Agent    string
	Err      error
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("agent %s for upload %d still pending: %v", e.Agent, e.UploadID, e.Err)
}

func (e *PendingError) Unwrap() error { return e.Err }

// FindLicense scans a license list for an exact name match.
func FindLicense(licenses []License, name string) (License, error) {
	for _, lic := range licenses {
		if lic.Name == name {
			return lic, nil
		}
	}
	return License{}, &NotFoundError{Kind: "license", Name: name}
}
