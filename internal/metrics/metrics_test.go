package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFetch(t *testing.T) {
	r := NewRegistry()
	r.RecordFetch("sina", "ok")
	r.RecordFetch("sina", "ok")
	r.RecordFetch("eastmoney", "error")

	if got := testutil.ToFloat64(r.fetchTotal.WithLabelValues("sina", "ok")); got != 2 {
		t.Errorf("sina ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.fetchTotal.WithLabelValues("eastmoney", "error")); got != 1 {
		t.Errorf("eastmoney error count = %v, want 1", got)
	}
}

func TestRecordPollCycle(t *testing.T) {
	r := NewRegistry()
	r.RecordPollCycle(0.05)
	r.RecordPollCycle(0.07)
	r.RecordPollCycleError()

	if got := testutil.ToFloat64(r.pollCycles); got != 2 {
		t.Errorf("poll cycles = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.pollCycleErrors); got != 1 {
		t.Errorf("poll cycle errors = %v, want 1", got)
	}
}

func TestSetPositionsTracked(t *testing.T) {
	r := NewRegistry()
	r.SetPositionsTracked(3)
	if got := testutil.ToFloat64(r.positionsTracked); got != 3 {
		t.Errorf("positions tracked = %v, want 3", got)
	}
	r.SetPositionsTracked(1)
	if got := testutil.ToFloat64(r.positionsTracked); got != 1 {
		t.Errorf("positions tracked = %v, want 1", got)
	}
}

func TestRecordCommand(t *testing.T) {
	r := NewRegistry()
	r.RecordCommand("update", "ok")
	if got := testutil.ToFloat64(r.commandsTotal.WithLabelValues("update", "ok")); got != 1 {
		t.Errorf("command count = %v, want 1", got)
	}
}
