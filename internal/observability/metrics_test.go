package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordAcquisitionBySource(t *testing.T) {
	before := testutil.ToFloat64(acquisitionCounter.WithLabelValues("static"))
	RecordAcquisition("static")
	RecordAcquisition("static")
	require.Equal(t, before+2, testutil.ToFloat64(acquisitionCounter.WithLabelValues("static")))
}

func TestRecordSourceFailureByKind(t *testing.T) {
	before := testutil.ToFloat64(sourceFailureCounter.WithLabelValues("remote", "transport"))
	RecordSourceFailure("remote", "transport")
	require.Equal(t, before+1, testutil.ToFloat64(sourceFailureCounter.WithLabelValues("remote", "transport")))
}

func TestRecordRefreshIgnoresZeroTime(t *testing.T) {
	ts := time.Unix(1_700_000_000, 0)
	RecordRefresh(ts)
	RecordRefresh(time.Time{})
	require.Equal(t, float64(ts.Unix()), testutil.ToFloat64(refreshGauge))
}

func TestRecordCardIssuesSkipsNonPositive(t *testing.T) {
	before := testutil.ToFloat64(cardIssueCounter)
	RecordCardIssues(0)
	RecordCardIssues(-1)
	RecordCardIssues(3)
	require.Equal(t, before+3, testutil.ToFloat64(cardIssueCounter))
}

func TestRecordRecordsServed(t *testing.T) {
	RecordRecordsServed(6)
	require.Equal(t, float64(6), testutil.ToFloat64(recordsServedGauge))
}
