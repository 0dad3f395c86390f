package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveWorkerTaskCounts(t *testing.T) {
	before := testutil.ToFloat64(workerTasks.WithLabelValues("Testing", "Completed"))
	ObserveWorkerTask("Testing", "Completed")
	ObserveWorkerTask("Testing", "Completed")
	after := testutil.ToFloat64(workerTasks.WithLabelValues("Testing", "Completed"))
	if after-before != 2 {
		t.Fatalf("counter moved by %v, want 2", after-before)
	}
}

func TestWSSubscriberGauge(t *testing.T) {
	before := testutil.ToFloat64(wsSubscribers)
	WSSubscriberConnected()
	WSSubscriberConnected()
	WSSubscriberGone()
	after := testutil.ToFloat64(wsSubscribers)
	if after-before != 1 {
		t.Fatalf("gauge moved by %v, want 1", after-before)
	}
}

func TestObserveTransferLabels(t *testing.T) {
	before := testutil.ToFloat64(transfersTotal.WithLabelValues("denied"))
	ObserveTransfer("denied")
	after := testutil.ToFloat64(transfersTotal.WithLabelValues("denied"))
	if after-before != 1 {
		t.Fatalf("denied counter moved by %v, want 1", after-before)
	}
}
