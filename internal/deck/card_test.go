package deck

import (
	"encoding/json"
	"testing"
)

func TestParseCards(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Card
		wantErr  bool
	}{
		{
			name:  "royal flush",
			input: "AsKsQsJsTs",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Spades, Rank: King},
				{Suit: Spades, Rank: Queen},
				{Suit: Spades, Rank: Jack},
				{Suit: Spades, Rank: Ten},
			},
		},
		{
			name:  "mixed suits",
			input: "AhKdQcJs9s",
			expected: []Card{
				{Suit: Hearts, Rank: Ace},
				{Suit: Diamonds, Rank: King},
				{Suit: Clubs, Rank: Queen},
				{Suit: Spades, Rank: Jack},
				{Suit: Spades, Rank: Nine},
			},
		},
		{
			name:  "case insensitive",
			input: "asKHqDjc",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Hearts, Rank: King},
				{Suit: Diamonds, Rank: Queen},
				{Suit: Clubs, Rank: Jack},
			},
		},
		{
			name:    "invalid rank",
			input:   "XsKs",
			wantErr: true,
		},
		{
			name:    "invalid suit",
			input:   "AsKx",
			wantErr: true,
		},
		{
			name:    "odd length",
			input:   "AsK",
			wantErr: true,
		},
		{
			name:     "empty string",
			input:    "",
			expected: []Card{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCards(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseCards() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !cardsEqual(got, tt.expected) {
				t.Errorf("ParseCards() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCardCodeRoundTrip(t *testing.T) {
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			card := NewCard(suit, rank)
			parsed, err := Parse(card.Code())
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", card.Code(), err)
			}
			if parsed != card {
				t.Errorf("Parse(%q) = %v, want %v", card.Code(), parsed, card)
			}
		}
	}
}

func TestCardJSON(t *testing.T) {
	card := MustParse("Td")

	data, err := json.Marshal(card)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"Td"` {
		t.Errorf("marshal = %s, want %q", data, `"Td"`)
	}

	var back Card
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back != card {
		t.Errorf("round trip = %v, want %v", back, card)
	}

	if err := json.Unmarshal([]byte(`"Zz"`), &back); err == nil {
		t.Error("expected error for invalid card code")
	}
}

func TestMustParseCardsPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustParseCards() should panic on invalid input")
		}
	}()
	MustParseCards("invalid")
}

func TestHandPercentile(t *testing.T) {
	aces := MustParseCards("AsAh")
	trash := MustParseCards("7s2h")

	if got := GetHandPercentile(aces); got != 1.0 {
		t.Errorf("aces percentile = %v, want 1.0", got)
	}
	if got := GetHandPercentile(trash); got != 0.0 {
		t.Errorf("72o percentile = %v, want 0.0", got)
	}
	if GetHandPercentile(MustParseCards("AsKs")) <= GetHandPercentile(MustParseCards("AsKh")) {
		t.Error("suited AK should outrank offsuit AK")
	}
}

func cardsEqual(a, b []Card) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Rank != b[i].Rank || a[i].Suit != b[i].Suit {
			return false
		}
	}
	return true
}
