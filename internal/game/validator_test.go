package game

import (
	"strings"
	"testing"
)

func hasAction(legal []LegalAction, a Action) (LegalAction, bool) {
	for _, la := range legal {
		if la.Action == a {
			return la, true
		}
	}
	return LegalAction{}, false
}

func TestLegalActionsUnopenedPot(t *testing.T) {
	t.Parallel()

	p := &Player{Seat: 0, Stack: 1000}
	legal := legalActions(p, 0, 100, true)

	if _, ok := hasAction(legal, Fold); !ok {
		t.Error("fold must always be legal")
	}
	if _, ok := hasAction(legal, Check); !ok {
		t.Error("check must be legal when facing no bet")
	}
	if _, ok := hasAction(legal, Call); ok {
		t.Error("call must not be offered when nothing is owed")
	}
	bet, ok := hasAction(legal, Bet)
	if !ok {
		t.Fatal("bet must be legal when facing no bet")
	}
	if bet.Min != 1 || bet.Max != 1000 {
		t.Errorf("bet range = [%d, %d], want [1, 1000]", bet.Min, bet.Max)
	}
	if _, ok := hasAction(legal, Raise); ok {
		t.Error("raise requires an existing bet")
	}
}

func TestLegalActionsFacingBet(t *testing.T) {
	t.Parallel()

	// Facing a bet of 300 with 100 already committed.
	p := &Player{Seat: 1, Stack: 900, CurrentBet: 100}
	legal := legalActions(p, 300, 200, true)

	if _, ok := hasAction(legal, Check); ok {
		t.Error("check must not be legal facing a bet")
	}
	if _, ok := hasAction(legal, Call); !ok {
		t.Error("call must be legal facing a bet")
	}
	if _, ok := hasAction(legal, Bet); ok {
		t.Error("bet must not be offered once the pot is opened")
	}
	raise, ok := hasAction(legal, Raise)
	if !ok {
		t.Fatal("raise must be legal with chips behind")
	}
	if raise.Min != 500 {
		t.Errorf("raise floor = %d, want high 300 + min raise 200 = 500", raise.Min)
	}
	if raise.Max != 1000 {
		t.Errorf("raise max = %d, want all-in total 1000", raise.Max)
	}
}

func TestLegalActionsShortStackAllInRaise(t *testing.T) {
	t.Parallel()

	// All-in total of 380 is below the raise floor of 500, so the only
	// raise offered is the all-in itself.
	p := &Player{Seat: 1, Stack: 280, CurrentBet: 100}
	legal := legalActions(p, 300, 200, true)

	raise, ok := hasAction(legal, Raise)
	if !ok {
		t.Fatal("all-in raise for less must still be offered")
	}
	if raise.Min != 380 || raise.Max != 380 {
		t.Errorf("short all-in raise range = [%d, %d], want [380, 380]", raise.Min, raise.Max)
	}
}

func TestLegalActionsRaiseBarred(t *testing.T) {
	t.Parallel()

	p := &Player{Seat: 1, Stack: 900, CurrentBet: 100}
	legal := legalActions(p, 300, 200, false)

	if _, ok := hasAction(legal, Raise); ok {
		t.Error("raise must not be offered after an incomplete all-in closed it")
	}
	if _, ok := hasAction(legal, Call); !ok {
		t.Error("call survives when raising is barred")
	}
}

func TestLegalActionsCallCoversShortStack(t *testing.T) {
	t.Parallel()

	// Stack cannot cover the bet; the short call is still legal.
	p := &Player{Seat: 1, Stack: 150, CurrentBet: 0}
	legal := legalActions(p, 500, 100, true)

	if _, ok := hasAction(legal, Call); !ok {
		t.Error("short call for the full stack must be legal")
	}
	if _, ok := hasAction(legal, Raise); ok {
		t.Error("all-in below the current bet can never be a raise")
	}
}

func TestValidateDecision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		player   *Player
		high     int
		minRaise int
		mayRaise bool
		decision Decision
		wantErr  string
	}{
		{
			name:     "fold is always accepted",
			player:   &Player{Stack: 1000},
			high:     0,
			minRaise: 100,
			mayRaise: true,
			decision: Decision{Action: Fold},
		},
		{
			name:     "check facing a bet",
			player:   &Player{Stack: 900, CurrentBet: 100},
			high:     300,
			minRaise: 200,
			mayRaise: true,
			decision: Decision{Action: Check},
			wantErr:  "not available",
		},
		{
			name:     "call with nothing owed",
			player:   &Player{Stack: 1000},
			high:     0,
			minRaise: 100,
			mayRaise: true,
			decision: Decision{Action: Call},
			wantErr:  "not available",
		},
		{
			name:     "bet of one chip",
			player:   &Player{Stack: 1000},
			high:     0,
			minRaise: 100,
			mayRaise: true,
			decision: Decision{Action: Bet, Amount: 1},
		},
		{
			name:     "bet above stack",
			player:   &Player{Stack: 1000},
			high:     0,
			minRaise: 100,
			mayRaise: true,
			decision: Decision{Action: Bet, Amount: 1001},
			wantErr:  "only 1000 remain",
		},
		{
			name:     "bet of zero",
			player:   &Player{Stack: 1000},
			high:     0,
			minRaise: 100,
			mayRaise: true,
			decision: Decision{Action: Bet, Amount: 0},
			wantErr:  "must be positive",
		},
		{
			name:     "raise to exactly the floor",
			player:   &Player{Stack: 900, CurrentBet: 100},
			high:     300,
			minRaise: 200,
			mayRaise: true,
			decision: Decision{Action: Raise, Amount: 500},
		},
		{
			name:     "raise below the floor",
			player:   &Player{Stack: 900, CurrentBet: 100},
			high:     300,
			minRaise: 200,
			mayRaise: true,
			decision: Decision{Action: Raise, Amount: 450},
			wantErr:  "at least 500",
		},
		{
			name:     "raise amount is a total not a delta",
			player:   &Player{Stack: 50, CurrentBet: 10},
			high:     10,
			minRaise: 10,
			mayRaise: true,
			decision: Decision{Action: Raise, Amount: 60},
		},
		{
			name:     "raise beyond the stack",
			player:   &Player{Stack: 900, CurrentBet: 100},
			high:     300,
			minRaise: 200,
			mayRaise: true,
			decision: Decision{Action: Raise, Amount: 1100},
			wantErr:  "only 900 remain",
		},
		{
			name:     "raise when barred",
			player:   &Player{Stack: 900, CurrentBet: 100},
			high:     300,
			minRaise: 200,
			mayRaise: false,
			decision: Decision{Action: Raise, Amount: 500},
			wantErr:  "not available",
		},
		{
			name:     "all-in raise for less matches its only amount",
			player:   &Player{Stack: 280, CurrentBet: 100},
			high:     300,
			minRaise: 200,
			mayRaise: true,
			decision: Decision{Action: Raise, Amount: 380},
		},
		{
			name:     "all-in raise for less rejects other amounts",
			player:   &Player{Stack: 280, CurrentBet: 100},
			high:     300,
			minRaise: 200,
			mayRaise: true,
			decision: Decision{Action: Raise, Amount: 350},
			wantErr:  "380",
		},
		{
			name:     "call ignores a stray amount",
			player:   &Player{Stack: 900, CurrentBet: 100},
			high:     300,
			minRaise: 200,
			mayRaise: true,
			decision: Decision{Action: Call, Amount: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			legal := legalActions(tt.player, tt.high, tt.minRaise, tt.mayRaise)
			err := validateDecision(tt.player, legal, tt.decision)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected rejection: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected rejection containing %q, got none", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestFallbackDecision(t *testing.T) {
	t.Parallel()

	p := &Player{Seat: 0, Stack: 1000}
	fb := fallbackDecision(legalActions(p, 0, 100, true))
	if fb.Action != Check {
		t.Errorf("fallback with no bet to face = %v, want check", fb.Action)
	}

	p = &Player{Seat: 1, Stack: 900, CurrentBet: 100}
	fb = fallbackDecision(legalActions(p, 300, 200, true))
	if fb.Action != Fold {
		t.Errorf("fallback facing a bet = %v, want fold", fb.Action)
	}
}
