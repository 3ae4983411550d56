package cards

import (
	"testing"
)

func TestNewCard(t *testing.T) {
	testCases := []struct {
		in        string
		baseValue int
		isAce     bool
	}{
		{"AS", 11, true},
		{"2C", 2, false},
		{"9H", 9, false},
		{"TD", 10, false},
		{"JS", 10, false},
		{"QC", 10, false},
		{"KH", 10, false},
		{"ad", 11, true},
	}

	for i, tc := range testCases {
		c, err := NewCard(tc.in)
		if err != nil {
			t.Fatalf("Test case %d in: %s returned error: %v", i, tc.in, err)
		}
		if c.BaseValue() != tc.baseValue {
			t.Errorf("Test case %d in: %s, expected base value: %d, actual: %d", i, tc.in, tc.baseValue, c.BaseValue())
		}
		if c.IsAce() != tc.isAce {
			t.Errorf("Test case %d in: %s, expected ace: %v", i, tc.in, tc.isAce)
		}
		if c.CountedLow() {
			t.Errorf("Test case %d in: %s, new card is counted low", i, tc.in)
		}
	}
}

func TestNewCardInvalid(t *testing.T) {
	for _, in := range []string{"", "A", "1S", "AX", "10S", "ZZ"} {
		if _, err := NewCard(in); err == nil {
			t.Errorf("NewCard(%q) expected error", in)
		}
	}
}

func TestCardString(t *testing.T) {
	if s := MustNewCard("th").String(); s != "TH" {
		t.Errorf("String() = %s; expected TH", s)
	}
}

func TestDerank(t *testing.T) {
	ace := MustNewCard("AS")
	if !ace.Derank() {
		t.Fatal("first Derank on an ace should succeed")
	}
	if ace.Value() != 1 {
		t.Errorf("deranked ace value = %d; expected 1", ace.Value())
	}
	if ace.Derank() {
		t.Error("second Derank on the same ace should be a no-op")
	}
	if !ace.CountedLow() {
		t.Error("ace reverted to high")
	}

	king := MustNewCard("KS")
	if king.Derank() {
		t.Error("Derank on a non-ace should fail")
	}
	if king.Value() != 10 {
		t.Errorf("king value = %d; expected 10", king.Value())
	}
}
