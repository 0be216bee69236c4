// Package insight turns an anonymized dataset and a target range into a
// persisted narrative insight via the external completion service.
package insight

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"insulight/internal/artifact"
	"insulight/internal/csvdata"
	"insulight/internal/identity"
	"insulight/internal/insight/archive"
	"insulight/internal/llm"
	"insulight/internal/profile"
)

var (
	// ErrMissingData rejects an empty payload before any network call.
	ErrMissingData = errors.New("CSV data is required")
	// ErrMissingRange rejects a request without a target range.
	ErrMissingRange = errors.New("Target range is required")
	// ErrInvalidRange rejects a range whose min does not sit below max.
	ErrInvalidRange = errors.New("target range min must be below max")
	// ErrTimeout marks a completion call that exceeded the configured bound.
	ErrTimeout = errors.New("insight generation timed out")
)

// emptyCompletionFallback is persisted and returned when the provider
// answers successfully but without text.
const emptyCompletionFallback = "No insights were generated. Please try again."

// GenerateInput is one orchestration request.
type GenerateInput struct {
	UserID      string
	CSVData     string
	TargetRange profile.TargetRange
	SourceLabel string
}

// Result carries the generated narrative. PersistErr is set when the insight
// was produced but could not be archived; generation success is never masked
// by a later storage failure.
type Result struct {
	Insights   string
	Record     archive.Record
	PersistErr error
}

// Orchestrator wires the completion client to the archive. One call, one
// record; no retries, no idempotency.
type Orchestrator struct {
	llm       llm.Client
	archive   archive.Store
	artifacts artifact.Store
	timeout   time.Duration
	now       func() time.Time
}

func NewOrchestrator(client llm.Client, store archive.Store, artifacts artifact.Store, timeout time.Duration) *Orchestrator {
	if artifacts == nil {
		artifacts = artifact.NoopStore{}
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Orchestrator{
		llm:       client,
		archive:   store,
		artifacts: artifacts,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Generate validates the input, performs the single-shot completion call and
// appends the resulting record. All validation happens before the network
// boundary is crossed.
func (o *Orchestrator) Generate(ctx context.Context, in GenerateInput) (*Result, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, identity.ErrUnauthorized
	}
	if strings.TrimSpace(in.CSVData) == "" {
		return nil, ErrMissingData
	}
	rng := applyRangeDefaults(in.TargetRange)
	if !rng.Valid() {
		return nil, ErrInvalidRange
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	text, err := o.llm.GenerateText(callCtx, buildSystemPrompt(rng.Min, rng.Max), buildUserMessage(in.CSVData))
	switch {
	case errors.Is(err, llm.ErrEmptyCompletion):
		text = emptyCompletionFallback
	case errors.Is(err, context.DeadlineExceeded):
		return nil, ErrTimeout
	case err != nil:
		return nil, err
	}

	start, end := timeframeBounds(in.CSVData)
	record := archive.Record{
		UserID:             in.UserID,
		Insights:           text,
		DataTimeframeStart: start,
		DataTimeframeEnd:   end,
		Title:              buildTitle(in.SourceLabel),
		CreatedAt:          o.now().UTC(),
	}

	result := &Result{Insights: text}
	stored, err := o.archive.Append(ctx, record)
	if err != nil {
		log.Printf("insight generated but not persisted for user %s: %v", in.UserID, err)
		result.Record = record
		result.PersistErr = err
		return result, nil
	}
	result.Record = stored

	if err := o.artifacts.Put(ctx, stored.ID, []byte(in.CSVData)); err != nil {
		log.Printf("artifact retention failed for insight %s: %v", stored.ID, err)
	}
	return result, nil
}

func applyRangeDefaults(r profile.TargetRange) profile.TargetRange {
	if r.Min == 0 {
		r.Min = profile.DefaultRangeMin
	}
	if r.Max == 0 {
		r.Max = profile.DefaultRangeMax
	}
	return r
}

func buildTitle(sourceLabel string) string {
	label := strings.TrimSpace(sourceLabel)
	if label == "" {
		label = "uploaded data"
	}
	return "Insights from " + label
}

// timeframeBounds re-reads the anonymized CSV and returns the min/max parsed
// timestamp. Rows whose timestamp does not parse are skipped; when nothing
// parses both bounds are zero.
func timeframeBounds(csvText string) (time.Time, time.Time) {
	rows, headers, err := csvdata.ParseCSV(csvText)
	if err != nil {
		return time.Time{}, time.Time{}
	}
	var start, end time.Time
	for _, reading := range csvdata.Normalize(rows, headers, "") {
		when, ok := parseWhen(reading.Timestamp)
		if !ok {
			continue
		}
		if start.IsZero() || when.Before(start) {
			start = when
		}
		if end.IsZero() || when.After(end) {
			end = when
		}
	}
	return start, end
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
}

func parseWhen(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
