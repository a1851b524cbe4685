package identifier

import "testing"

func TestFormat(t *testing.T) {
	if got := Format("BL", "040929", 1); got != "BL-040929-001" {
		t.Errorf("unexpected identifier: %s", got)
	}
	if got := Format("TFO", "040929", 42); got != "TFO-040929-042" {
		t.Errorf("unexpected identifier: %s", got)
	}
	// Sequences past the padding width keep all digits.
	if got := Format("SP", "040929", 1042); got != "SP-040929-1042" {
		t.Errorf("unexpected identifier: %s", got)
	}
}

func TestPattern(t *testing.T) {
	if got := Pattern("CR", "040929"); got != "CR-040929-" {
		t.Errorf("unexpected pattern: %s", got)
	}
}

func TestParseSeq(t *testing.T) {
	cases := []struct {
		id   string
		want int
		ok   bool
	}{
		{"BL-040929-001", 1, true},
		{"BL-040929-099", 99, true},
		{"PS-040929-123", 123, true},
		{"BL-040929-", 0, false},
		{"BL-040929-abc", 0, false},
		{"garbage", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseSeq(c.id)
		if got != c.want || ok != c.ok {
			t.Errorf("ParseSeq(%q) = (%d, %v), want (%d, %v)", c.id, got, ok, c.want, c.ok)
		}
	}
}

func TestLexicographicEqualsNumericWithinPadding(t *testing.T) {
	prev := ""
	for i := 1; i < 200; i++ {
		id := Format("BL", "040929", i)
		if prev != "" && !(id > prev) {
			t.Fatalf("identifier %s not lexicographically above %s", id, prev)
		}
		prev = id
	}
}
