package assoc

import "testing"

func TestAssociateTaskAndTake(t *testing.T) {
	tbl, err := New(0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := tbl.AssociateTask("C1", "NymX", "T1"); err != nil {
		t.Fatalf("AssociateTask: %v", err)
	}

	a, ok := tbl.TakeTask("T1")
	if !ok {
		t.Fatal("expected task association to be present")
	}
	if a.Connection != "C1" || a.Nym != "NymX" {
		t.Fatalf("unexpected association: %+v", a)
	}

	if _, ok := tbl.TakeTask("T1"); ok {
		t.Fatal("expected task association to be gone after take")
	}
}

func TestAssociateTaskRejectsEmptyFields(t *testing.T) {
	tbl, _ := New(0)
	cases := []struct{ conn, nym, task string }{
		{"", "NymX", "T1"},
		{"C1", "", "T1"},
		{"C1", "NymX", ""},
	}
	for _, c := range cases {
		if err := tbl.AssociateTask(c.conn, c.nym, c.task); err == nil {
			t.Fatalf("expected error for %+v", c)
		}
	}
}

func TestTakeTaskUnknown(t *testing.T) {
	tbl, _ := New(0)
	if _, ok := tbl.TakeTask("nope"); ok {
		t.Fatal("expected unknown task to be absent")
	}
}

func TestAssociateNymFirstWriterWins(t *testing.T) {
	tbl, _ := New(0)
	if err := tbl.AssociateNym("C1", "N1"); err != nil {
		t.Fatalf("AssociateNym: %v", err)
	}
	if err := tbl.AssociateNym("C2", "N1"); err != nil {
		t.Fatalf("AssociateNym (second writer): %v", err)
	}

	conn, ok := tbl.LookupNym("N1")
	if !ok {
		t.Fatal("expected nym association to be present")
	}
	if conn != "C1" {
		t.Fatalf("expected first writer C1 to win, got %q", conn)
	}
}

func TestLookupNymDoesNotRemove(t *testing.T) {
	tbl, _ := New(0)
	_ = tbl.AssociateNym("C1", "N1")
	for i := 0; i < 3; i++ {
		conn, ok := tbl.LookupNym("N1")
		if !ok || conn != "C1" {
			t.Fatalf("lookup %d: got (%q, %v)", i, conn, ok)
		}
	}
}

func TestTaskCacheEvictsOldest(t *testing.T) {
	tbl, err := New(2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = tbl.AssociateTask("C1", "N1", "T1")
	_ = tbl.AssociateTask("C1", "N1", "T2")
	_ = tbl.AssociateTask("C1", "N1", "T3") // evicts T1

	if _, ok := tbl.TakeTask("T1"); ok {
		t.Fatal("expected T1 to have been evicted")
	}
	if _, ok := tbl.TakeTask("T2"); !ok {
		t.Fatal("expected T2 to still be present")
	}
}
