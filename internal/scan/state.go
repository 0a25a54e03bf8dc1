// Package scan runs the three phase search for a person's media and holds
// the results while the user reviews them.
//
// A run moves through idle -> scanning -> review -> complete. Unrecoverable
// failures end in error, a denied provider ends in unauthorized. A new run
// may start from idle, review, error or unauthorized; complete must be reset
// to idle first.
package scan

import (
	"github.com/dmitrijs2005/exeraser/internal/models"
)

type Status string

const (
	StatusIdle         Status = "idle"
	StatusScanning     Status = "scanning"
	StatusReview       Status = "review"
	StatusComplete     Status = "complete"
	StatusError        Status = "error"
	StatusUnauthorized Status = "unauthorized"
)

// CanStart reports whether a new run may begin from s.
func (s Status) CanStart() bool {
	switch s {
	case StatusIdle, StatusReview, StatusError, StatusUnauthorized:
		return true
	}
	return false
}

// State is a snapshot of the orchestrator. Only the fields belonging to
// Status are meaningful: Progress and Phase while scanning, Results in
// review, Summary when complete and Message for error and unauthorized.
type State struct {
	Status   Status
	Progress float64
	Phase    models.ScanPhase
	Results  []models.MatchCandidate
	// Aborted is set in review when the run was cancelled and Results are
	// partial.
	Aborted bool
	Summary models.CleanupSummary
	Message string
}

func (s State) clone() State {
	if s.Results != nil {
		s.Results = append([]models.MatchCandidate(nil), s.Results...)
	}
	return s
}

func idle() State { return State{Status: StatusIdle} }

func scanning(progress float64, phase models.ScanPhase) State {
	return State{Status: StatusScanning, Progress: progress, Phase: phase}
}

func review(results []models.MatchCandidate, aborted bool) State {
	return State{Status: StatusReview, Results: results, Aborted: aborted}
}

func failed(status Status, msg string) State {
	return State{Status: status, Message: msg}
}
