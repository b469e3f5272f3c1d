package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAddMonthsClamped(t *testing.T) {
	cases := []struct {
		name string
		in   Date
		n    int
		want Date
	}{
		{"jan 31 to leap feb", NewDate(2024, 1, 31), 1, NewDate(2024, 2, 29)},
		{"jan 31 to common feb", NewDate(2025, 1, 31), 1, NewDate(2025, 2, 28)},
		{"mar 31 to apr", NewDate(2025, 3, 31), 1, NewDate(2025, 4, 30)},
		{"dec to next year", NewDate(2025, 12, 15), 1, NewDate(2026, 1, 15)},
		{"plain", NewDate(2025, 6, 10), 1, NewDate(2025, 7, 10)},
		{"twelve months", NewDate(2024, 2, 29), 12, NewDate(2025, 2, 28)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.AddMonthsClamped(tc.n)
			if got.Compare(tc.want) != 0 {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDateOfTruncatesTime(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	d := DateOf(time.Date(2025, 5, 1, 23, 30, 0, 0, loc))
	if d.String() != "2025-05-01" {
		t.Fatalf("expected local calendar day, got %s", d)
	}
	if d.Hour() != 0 || d.Location() != time.UTC {
		t.Fatalf("expected UTC midnight, got %v", d.Time)
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct{ D Date }{NewDate(2025, 7, 4)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"D":"2025-07-04"}` {
		t.Fatalf("unexpected json %s", b)
	}

	var out struct{ D Date }
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.D.Compare(NewDate(2025, 7, 4)) != 0 {
		t.Fatalf("unexpected date %s", out.D)
	}

	if err := json.Unmarshal([]byte(`{"D":"04/07/2025"}`), &out); err == nil {
		t.Fatal("expected parse error for foreign layout")
	}
}

func TestDaysIn(t *testing.T) {
	if DaysIn(2024, 2) != 29 || DaysIn(2025, 2) != 28 || DaysIn(2025, 12) != 31 {
		t.Fatal("unexpected month lengths")
	}
}
