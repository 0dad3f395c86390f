package worker

import "testing"

func TestPrioritize_DropsTailDeterministicallyByType(t *testing.T) {
	tasks := []TaskInstruction{
		{TaskID: "doc-1", TaskType: TaskDocumentation},
		{TaskID: "impl-1", TaskType: TaskCodeImplementation},
		{TaskID: "test-1", TaskType: TaskTesting},
		{TaskID: "impl-2", TaskType: TaskCodeImplementation},
	}

	kept, dropped := Prioritize(tasks, 3)

	if len(kept) != 3 {
		t.Fatalf("kept = %d, want 3", len(kept))
	}
	wantOrder := []string{"impl-1", "impl-2", "test-1"}
	for i, id := range wantOrder {
		if kept[i].TaskID != id {
			t.Errorf("kept[%d] = %q, want %q", i, kept[i].TaskID, id)
		}
	}
	if len(dropped) != 1 || dropped[0].TaskID != "doc-1" {
		t.Fatalf("dropped = %+v, want [doc-1]", dropped)
	}
}

func TestPrioritize_KeepsEverythingUnderTheCap(t *testing.T) {
	tasks := []TaskInstruction{
		{TaskID: "impl-1", TaskType: TaskCodeImplementation},
		{TaskID: "doc-1", TaskType: TaskDocumentation},
	}
	kept, dropped := Prioritize(tasks, 3)
	if len(kept) != 2 || len(dropped) != 0 {
		t.Fatalf("kept=%d dropped=%d, want 2/0", len(kept), len(dropped))
	}
}
