package upload

import (
	"errors"
	"testing"

	"insulight/internal/csvdata"
	"insulight/internal/tester"
)

const goodCSV = "Timestamp (YYYY-MM-DDThh:mm:ss),Glucose Value (mg/dL),Insulin Value (u)\n" +
	"\"2024-01-01T08:00:00\",\"120\",\"2.5\"\n"

func TestSession_HappyPath(t *testing.T) {
	s := NewSession()
	tester.Eq(t, s.Phase(), PhaseIdle)

	tester.NoErr(t, s.SelectFile("export.csv"))
	tester.Eq(t, s.Phase(), PhaseFileSelected)

	tester.NoErr(t, s.Parse(goodCSV))
	tester.Eq(t, s.Phase(), PhaseParsed)
	tester.Eq(t, len(s.Readings()), 1)
	tester.Eq(t, s.Readings()[0].SourceLabel, "Imported from export.csv")

	tester.NoErr(t, s.RequestInsights())
	tester.NoErr(t, s.CompleteInsights("narrative"))

	text, ok := s.Insights()
	tester.True(t, ok)
	tester.Eq(t, text, "narrative")
}

func TestSession_ParseFromIdleRejected(t *testing.T) {
	s := NewSession()
	tester.Err(t, s.Parse(goodCSV))
	tester.Eq(t, s.Phase(), PhaseIdle)
}

func TestSession_ValidationFailureMovesToFailed(t *testing.T) {
	s := NewSession()
	tester.NoErr(t, s.SelectFile("bad.csv"))

	err := s.Parse("notes,device\nx,y\n")
	var verr *csvdata.ValidationError
	tester.True(t, errors.As(err, &verr))
	tester.Eq(t, s.Phase(), PhaseFailed)
	tester.Err(t, s.Failure())
}

func TestSession_ResubmissionWhileOutstandingRejected(t *testing.T) {
	s := NewSession()
	tester.NoErr(t, s.SelectFile("export.csv"))
	tester.NoErr(t, s.Parse(goodCSV))
	tester.NoErr(t, s.RequestInsights())

	tester.Err(t, s.RequestInsights(), ErrRequestOutstanding)
	tester.Err(t, s.SelectFile("another.csv"), ErrRequestOutstanding)
}

func TestSession_FailThenRetry(t *testing.T) {
	s := NewSession()
	tester.NoErr(t, s.SelectFile("export.csv"))
	tester.NoErr(t, s.Parse(goodCSV))
	tester.NoErr(t, s.RequestInsights())
	tester.NoErr(t, s.FailInsights(errors.New("quota")))
	tester.Eq(t, s.Phase(), PhaseFailed)

	tester.NoErr(t, s.Retry())
	tester.Eq(t, s.Phase(), PhaseParsed)
	tester.NoErr(t, s.RequestInsights())
}

func TestSession_SelectFileResetsState(t *testing.T) {
	s := NewSession()
	tester.NoErr(t, s.SelectFile("one.csv"))
	tester.NoErr(t, s.Parse(goodCSV))

	tester.NoErr(t, s.SelectFile("two.csv"))
	tester.Eq(t, s.Phase(), PhaseFileSelected)
	tester.Eq(t, len(s.Readings()), 0)
	tester.Eq(t, s.FileName(), "two.csv")
}

func TestSession_CompleteWithoutRequestRejected(t *testing.T) {
	s := NewSession()
	tester.Err(t, s.CompleteInsights("x"))
	tester.Err(t, s.FailInsights(errors.New("x")))
}
