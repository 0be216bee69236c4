// Package upload models one upload flow as an explicit state machine:
// Idle -> FileSelected -> Parsed -> InsightsRequested -> InsightsReady | Failed.
// Only valid transitions are exposed; in particular a second request cannot
// start while one is outstanding.
package upload

import (
	"errors"
	"fmt"

	"insulight/internal/csvdata"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFileSelected
	PhaseParsed
	PhaseInsightsRequested
	PhaseInsightsReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFileSelected:
		return "file_selected"
	case PhaseParsed:
		return "parsed"
	case PhaseInsightsRequested:
		return "insights_requested"
	case PhaseInsightsReady:
		return "insights_ready"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// ErrRequestOutstanding rejects re-submission while a generation call is in
// flight.
var ErrRequestOutstanding = errors.New("upload: insight request already outstanding")

// Session is single-goroutine state for one user's upload flow.
type Session struct {
	phase    Phase
	fileName string
	readings []csvdata.Reading
	insights string
	failure  error
}

func NewSession() *Session {
	return &Session{phase: PhaseIdle}
}

func (s *Session) Phase() Phase                { return s.phase }
func (s *Session) FileName() string            { return s.fileName }
func (s *Session) Readings() []csvdata.Reading { return s.readings }
func (s *Session) Insights() (string, bool)    { return s.insights, s.phase == PhaseInsightsReady }
func (s *Session) Failure() error              { return s.failure }

// SelectFile starts (or restarts) the flow with a new file. Allowed from any
// phase except while a request is outstanding; previous parse results and
// insights are discarded.
func (s *Session) SelectFile(fileName string) error {
	if s.phase == PhaseInsightsRequested {
		return ErrRequestOutstanding
	}
	s.phase = PhaseFileSelected
	s.fileName = fileName
	s.readings = nil
	s.insights = ""
	s.failure = nil
	return nil
}

// Parse validates and normalizes the selected file's content. A validation
// failure moves the session to Failed; the flow restarts with SelectFile.
func (s *Session) Parse(content string) error {
	if s.phase != PhaseFileSelected {
		return s.invalidTransition("parse")
	}
	rows, headers, err := csvdata.ParseCSV(content)
	if err != nil {
		s.phase = PhaseFailed
		s.failure = err
		return err
	}
	s.readings = csvdata.Normalize(rows, headers, "Imported from "+s.fileName)
	s.phase = PhaseParsed
	return nil
}

// RequestInsights marks the single outstanding generation call.
func (s *Session) RequestInsights() error {
	if s.phase == PhaseInsightsRequested {
		return ErrRequestOutstanding
	}
	if s.phase != PhaseParsed {
		return s.invalidTransition("request insights")
	}
	s.phase = PhaseInsightsRequested
	return nil
}

// CompleteInsights records the generated narrative.
func (s *Session) CompleteInsights(text string) error {
	if s.phase != PhaseInsightsRequested {
		return s.invalidTransition("complete insights")
	}
	s.insights = text
	s.phase = PhaseInsightsReady
	return nil
}

// FailInsights records a generation failure. The parsed readings stay
// available so the action can be re-invoked manually.
func (s *Session) FailInsights(err error) error {
	if s.phase != PhaseInsightsRequested {
		return s.invalidTransition("fail insights")
	}
	s.failure = err
	s.phase = PhaseFailed
	return nil
}

// Retry re-arms a failed session that still holds parsed readings.
func (s *Session) Retry() error {
	if s.phase != PhaseFailed || len(s.readings) == 0 {
		return s.invalidTransition("retry")
	}
	s.failure = nil
	s.phase = PhaseParsed
	return nil
}

func (s *Session) invalidTransition(action string) error {
	return fmt.Errorf("upload: cannot %s from phase %s", action, s.phase)
}
