package logging

import (
	"path/filepath"
	"testing"
)

func openTestLog(t *testing.T) *CallLog {
	t.Helper()
	log, err := Open(filepath.Join(t.TempDir(), "calls.db"))
	if err != nil {
		t.Fatalf("opening call log: %v", err)
	}
	t.Cleanup(func() { log.Close() })
	return log
}

func TestRecordAndRecent(t *testing.T) {
	log := openTestLog(t)

	calls := []Call{
		{
			RunID:        "run-1",
			Operation:    "narrator.speak",
			Model:        "gemma3:4b",
			SystemPrompt: "system",
			UserPrompt:   "user",
			Response:     "砂嵐が基地を包んだ。",
			DurationMS:   120,
		},
		{
			RunID:      "run-1",
			Operation:  "critic.speak",
			Model:      "gemma3:4b",
			Response:   "それで？",
			DurationMS: 80,
		},
		{
			RunID:      "run-2",
			Operation:  "context.generate",
			Model:      "gemma3:12b",
			DurationMS: 900,
			Error:      "chat completion failed: connection refused",
		},
	}
	for _, c := range calls {
		if err := log.Record(c); err != nil {
			t.Fatalf("recording call: %v", err)
		}
	}

	got, err := log.Recent(10)
	if err != nil {
		t.Fatalf("reading recent calls: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d calls, want 3", len(got))
	}

	// Newest first.
	if got[0].Operation != "context.generate" || got[2].Operation != "narrator.speak" {
		t.Errorf("unexpected order: %s, %s, %s", got[0].Operation, got[1].Operation, got[2].Operation)
	}

	if got[0].Error != "chat completion failed: connection refused" {
		t.Errorf("error = %q", got[0].Error)
	}
	if got[1].Error != "" {
		t.Errorf("successful call has error %q", got[1].Error)
	}
	if got[2].Response != "砂嵐が基地を包んだ。" {
		t.Errorf("response = %q", got[2].Response)
	}
	if got[2].ID == 0 {
		t.Error("ID not assigned by the database")
	}
	if got[2].Timestamp.IsZero() {
		t.Error("timestamp not assigned by the database")
	}
}

func TestRecentLimit(t *testing.T) {
	log := openTestLog(t)

	for i := 0; i < 5; i++ {
		if err := log.Record(Call{RunID: "run", Operation: "narrator.speak", Model: "m"}); err != nil {
			t.Fatalf("recording call: %v", err)
		}
	}

	got, err := log.Recent(2)
	if err != nil {
		t.Fatalf("reading recent calls: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d calls, want 2", len(got))
	}
}

func TestRecentEmpty(t *testing.T) {
	log := openTestLog(t)

	got, err := log.Recent(10)
	if err != nil {
		t.Fatalf("reading recent calls: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d calls, want 0", len(got))
	}
}

func TestOpenDefaultPathInTempDir(t *testing.T) {
	// Relative default path; chdir keeps the artifact inside the test dir.
	t.Chdir(t.TempDir())

	log, err := Open("")
	if err != nil {
		t.Fatalf("opening call log: %v", err)
	}
	defer log.Close()

	if err := log.Record(Call{RunID: "run", Operation: "check.trial", Model: "m"}); err != nil {
		t.Errorf("recording call: %v", err)
	}
}
