package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestJobLifecycleCounters(t *testing.T) {
	before := testutil.ToFloat64(jobsTotal.WithLabelValues("completed"))
	active := testutil.ToFloat64(jobsActive)

	JobStarted()
	if got := testutil.ToFloat64(jobsActive); got != active+1 {
		t.Fatalf("active = %v, want %v", got, active+1)
	}
	JobFinished("Completed", 2*time.Second)

	if got := testutil.ToFloat64(jobsTotal.WithLabelValues("completed")); got != before+1 {
		t.Errorf("completed = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(jobsActive); got != active {
		t.Errorf("active = %v, want %v", got, active)
	}
}

func TestStepFailedDefaultsLabel(t *testing.T) {
	before := testutil.ToFloat64(stepFailures.WithLabelValues("unknown"))
	StepFailed("")
	if got := testutil.ToFloat64(stepFailures.WithLabelValues("unknown")); got != before+1 {
		t.Errorf("unknown = %v, want %v", got, before+1)
	}
}

func TestMustRegisterIdempotent(t *testing.T) {
	MustRegister()
	MustRegister()
}
