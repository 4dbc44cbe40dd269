package watcher

import (
	"testing"
	"time"
)

const testInterval = 50 * time.Millisecond

func receiveBatch(t *testing.T, d *Debouncer, timeout time.Duration) []DebouncedEvent {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for debouncer batch")
		return nil
	}
}

func Test_Debouncer_SingleEvent(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("report.pdf", OpWrite)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 1 {
		t.Fatalf("expected 1 event, got %d", len(batch))
	}
	if batch[0].Path != "report.pdf" {
		t.Errorf("expected path 'report.pdf', got '%s'", batch[0].Path)
	}
	if batch[0].Op != OpWrite {
		t.Errorf("expected OpWrite, got %s", batch[0].Op)
	}
}

func Test_Debouncer_EventCollapsing(t *testing.T) {
	d := NewDebouncer(testInterval)

	// Same path twice collapses to one event with the latest op
	d.Add("report.pdf", OpCreate)
	d.Add("report.pdf", OpWrite)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 1 {
		t.Fatalf("expected 1 event (collapsed), got %d", len(batch))
	}
	if batch[0].Op != OpWrite {
		t.Errorf("expected latest op OpWrite, got %s", batch[0].Op)
	}
}

func Test_Debouncer_MultiplePathsSorted(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("notes.txt", OpWrite)
	d.Add("contract.docx", OpCreate)
	d.Add("archive.pdf", OpRemove)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 3 {
		t.Fatalf("expected 3 events, got %d", len(batch))
	}
	expectedPaths := []string{"archive.pdf", "contract.docx", "notes.txt"}
	for i, expected := range expectedPaths {
		if batch[i].Path != expected {
			t.Errorf("event[%d]: expected path '%s', got '%s'", i, expected, batch[i].Path)
		}
	}
}

func Test_Debouncer_TimerReset(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("report.pdf", OpWrite)

	// Wait less than the interval, then add another event: the timer restarts
	time.Sleep(testInterval / 2)
	d.Add("notes.txt", OpWrite)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 2 {
		t.Fatalf("expected 2 events in single batch, got %d", len(batch))
	}
}

func Test_Debouncer_SlowConsumerMergesBatches(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("a.txt", OpWrite)
	time.Sleep(3 * testInterval) // first batch sits unread in the buffer
	d.Add("b.txt", OpWrite)
	time.Sleep(3 * testInterval) // second flush finds the buffer full and retries

	first := receiveBatch(t, d, 500*time.Millisecond)
	if len(first) != 1 || first[0].Path != "a.txt" {
		t.Fatalf("unexpected first batch: %v", first)
	}
	second := receiveBatch(t, d, 500*time.Millisecond)
	if len(second) != 1 || second[0].Path != "b.txt" {
		t.Fatalf("unexpected second batch: %v", second)
	}
}

func Test_Debouncer_StopClosesOutput(t *testing.T) {
	d := NewDebouncer(testInterval)
	d.Add("a.txt", OpWrite)
	d.Stop()
	d.Add("b.txt", OpWrite)

	select {
	case _, ok := <-d.Output():
		if ok {
			t.Fatal("expected closed channel without pending batch")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("output not closed")
	}
}
