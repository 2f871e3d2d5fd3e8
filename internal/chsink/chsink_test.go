package chsink

import "testing"

func TestInsertStatement(t *testing.T) {
	got := insertStatement("orders", []string{"id", "name", "qty"})
	want := "INSERT INTO orders (`id`, `name`, `qty`)"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestInsertStatementSingleColumn(t *testing.T) {
	got := insertStatement("orders", []string{"id"})
	want := "INSERT INTO orders (`id`)"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
