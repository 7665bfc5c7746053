package sqlcommon

import "testing"

func TestDollarsRebind(t *testing.T) {
	cases := []struct{ in, want string }{
		{"SELECT * FROM job WHERE id = ?", "SELECT * FROM job WHERE id = $1"},
		{"UPDATE job SET status = ?, exit_code = ? WHERE id = ?", "UPDATE job SET status = $1, exit_code = $2 WHERE id = $3"},
		{"SELECT 1", "SELECT 1"},
	}
	for _, tc := range cases {
		if got := Dollars.Rebind(tc.in); got != tc.want {
			t.Fatalf("Rebind(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestQuestionsRebindIsIdentity(t *testing.T) {
	q := "SELECT * FROM job WHERE id = ? AND status = ?"
	if got := Questions.Rebind(q); got != q {
		t.Fatalf("Rebind changed query: %q", got)
	}
	if Questions.ForUpdate != "" || Questions.UseReturning {
		t.Fatalf("sqlite dialect must not lock rows or use RETURNING")
	}
}

func TestInFragment(t *testing.T) {
	if got := in("status", 3); got != "status IN (?,?,?)" {
		t.Fatalf("in = %q", got)
	}
	if got := in("id", 1); got != "id IN (?)" {
		t.Fatalf("in = %q", got)
	}
}
