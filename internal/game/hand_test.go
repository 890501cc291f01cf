package game

import (
	"testing"

	"github.com/chipbench/chipbench/internal/randutil"
)

func TestHandBlindFoldEndsHand(t *testing.T) {
	t.Parallel()

	// Big blind acts first preflop and checks its option, small blind
	// folds to end the hand with no cards on the board.
	bb := queued(Decision{Action: Check})
	sb := queued(Decision{Action: Fold})

	res := mustPlay(t, testConfig(), sb, bb,
		WithDeck(stackedDeck(t, "As Ah", "Kd Kh", "")))

	if got := [2]int{9950, 10050}; res.FinalStacks != got {
		t.Errorf("final stacks = %v, want %v", res.FinalStacks, got)
	}
	if res.FinalPot != 150 {
		t.Errorf("final pot = %d, want the blinds only", res.FinalPot)
	}
	if res.Winner != 1 {
		t.Errorf("winner = %d, want seat 1", res.Winner)
	}
	if res.Showdown {
		t.Error("a fold must not produce a showdown")
	}
	if len(res.Board) != 0 {
		t.Errorf("board = %v, want none dealt after a preflop fold", res.Board)
	}

	if len(res.Actions) != 2 {
		t.Fatalf("actions = %d, want big blind check then small blind fold", len(res.Actions))
	}
	first, second := res.Actions[0], res.Actions[1]
	if first.Seat != 1 || first.Action != Check {
		t.Errorf("first action = seat %d %v, want seat 1 check", first.Seat, first.Action)
	}
	if first.Stack != 9900 || first.Pot != 150 {
		t.Errorf("first record stack/pot = %d/%d, want 9900/150", first.Stack, first.Pot)
	}
	if second.Seat != 0 || second.Action != Fold {
		t.Errorf("second action = seat %d %v, want seat 0 fold", second.Seat, second.Action)
	}
	if second.Stack != 9950 || second.Pot != 150 {
		t.Errorf("second record stack/pot = %d/%d, want 9950/150", second.Stack, second.Pot)
	}

	if len(res.Awards) != 1 || res.Awards[0].Amount != 150 {
		t.Fatalf("awards = %+v, want a single 150 chip award", res.Awards)
	}
	if res.Awards[0].WinningRank != "" {
		t.Error("an uncontested pot must not carry a showdown rank")
	}
}

func TestHandCheckdownToShowdown(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.SmallBlind = 10
	cfg.BigBlind = 20
	cfg.Stacks = [2]int{1000, 1000}

	// Seat 1 opens every street as big blind preflop, seat 0 leads the
	// rest as the button.
	sb := queued(
		Decision{Action: Call},
		Decision{Action: Check},
		Decision{Action: Check},
		Decision{Action: Check},
	)
	bb := queued(
		Decision{Action: Check},
		Decision{Action: Check},
		Decision{Action: Check},
		Decision{Action: Check},
	)

	res := mustPlay(t, cfg, sb, bb,
		WithDeck(stackedDeck(t, "As Ah", "Kd Kh", "2c 7d 9h 3s 5c")))

	if !res.Showdown {
		t.Fatal("a checked-down hand must reach showdown")
	}
	if len(res.Board) != 5 {
		t.Fatalf("board = %v, want all five cards", res.Board)
	}
	if res.Winner != 0 {
		t.Errorf("winner = %d, want the pair of aces in seat 0", res.Winner)
	}
	if got := [2]int{1020, 980}; res.FinalStacks != got {
		t.Errorf("final stacks = %v, want %v", res.FinalStacks, got)
	}
	if len(res.Awards) != 1 || res.Awards[0].WinningRank != "Pair" {
		t.Errorf("awards = %+v, want a single award won with Pair", res.Awards)
	}

	if len(res.Actions) != 8 {
		t.Fatalf("actions = %d, want two per street", len(res.Actions))
	}
	if res.Actions[0].Seat != 1 {
		t.Errorf("preflop opens with seat %d, want the big blind in seat 1", res.Actions[0].Seat)
	}
	var flopFirst *ActionRecord
	for i := range res.Actions {
		if res.Actions[i].Street == Flop {
			flopFirst = &res.Actions[i]
			break
		}
	}
	if flopFirst == nil || flopFirst.Seat != 0 {
		t.Errorf("flop must open with the button in seat 0, got %+v", flopFirst)
	}
}

func TestHandAllInRunout(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Stacks = [2]int{10000, 300}

	sb := queued(Decision{Action: Call})
	bb := queued(Decision{Action: Raise, Amount: 300})

	res := mustPlay(t, cfg, sb, bb,
		WithDeck(stackedDeck(t, "Qc Qd", "As Ks", "Ah 7c 2d 9s 3h")))

	if !res.Showdown {
		t.Fatal("an all-in call must still produce a showdown")
	}
	if len(res.Board) != 5 {
		t.Fatalf("board = %v, want a full runout despite no further betting", res.Board)
	}
	if got := [2]int{9700, 600}; res.FinalStacks != got {
		t.Errorf("final stacks = %v, want %v", res.FinalStacks, got)
	}
	if res.Winner != 1 {
		t.Errorf("winner = %d, want the doubled-up short stack", res.Winner)
	}

	if len(res.Actions) != 2 {
		t.Fatalf("actions = %v, want only the preflop shove and call", res.Actions)
	}
	if !res.Actions[0].AllIn {
		t.Error("the shove must be flagged all-in")
	}
	if res.Actions[0].Action != Raise || res.Actions[0].Amount != 300 {
		t.Errorf("shove recorded as %v %d, want raise to 300", res.Actions[0].Action, res.Actions[0].Amount)
	}
}

func TestHandSidePotAllInForLess(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Stacks = [2]int{200, 500}

	sb := queued(Decision{Action: Call})
	bb := queued(Decision{Action: Raise, Amount: 500})

	res := mustPlay(t, cfg, sb, bb,
		WithDeck(stackedDeck(t, "As Ad", "Ks Kd", "2c 7h 9d 3s Jc")))

	if len(res.Awards) != 2 {
		t.Fatalf("awards = %+v, want a main pot and a side layer", res.Awards)
	}
	main, side := res.Awards[0], res.Awards[1]
	if main.Amount != 400 {
		t.Errorf("main pot = %d, want 400 (200 from each)", main.Amount)
	}
	if len(main.Winners) != 1 || main.Winners[0] != 0 {
		t.Errorf("main pot winners = %v, want seat 0's aces", main.Winners)
	}
	if main.WinningRank != "Pair" {
		t.Errorf("main pot rank = %q, want Pair", main.WinningRank)
	}
	if side.Amount != 300 || len(side.Winners) != 1 || side.Winners[0] != 1 {
		t.Errorf("side layer = %+v, want 300 returned to seat 1", side)
	}
	if side.WinningRank != "" {
		t.Error("an uncontested side layer must not carry a rank")
	}

	if got := [2]int{400, 300}; res.FinalStacks != got {
		t.Errorf("final stacks = %v, want %v", res.FinalStacks, got)
	}
	if got := [2]int{200, -200}; res.Net != got {
		t.Errorf("net = %v, want %v", res.Net, got)
	}
}

func TestHandFallbackAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	bb := &failingAgent{}
	sb := queued(Decision{Action: Fold})

	res := mustPlay(t, testConfig(), sb, bb,
		WithDeck(stackedDeck(t, "As Ah", "Kd Kh", "")))

	if bb.calls != 3 {
		t.Errorf("failing agent asked %d times, want exactly 3 attempts", bb.calls)
	}
	if len(res.Actions) == 0 {
		t.Fatal("expected a fallback action to be recorded")
	}
	fb := res.Actions[0]
	if fb.Seat != 1 || fb.Action != Check {
		t.Errorf("fallback = seat %d %v, want seat 1 check", fb.Seat, fb.Action)
	}
	if !fb.IsFallback {
		t.Error("fallback action must be flagged")
	}
	if res.Winner != 1 {
		t.Errorf("winner = %d, the hand must still finish normally", res.Winner)
	}
}

func TestHandInvalidActionRetriesWithError(t *testing.T) {
	t.Parallel()

	// First attempt raises below the floor, the retry fixes it.
	bb := queued(
		Decision{Action: Raise, Amount: 150},
		Decision{Action: Raise, Amount: 300},
	)
	sb := queued(Decision{Action: Fold})

	res := mustPlay(t, testConfig(), sb, bb,
		WithDeck(stackedDeck(t, "As Ah", "Kd Kh", "")))

	if len(bb.requests) != 2 {
		t.Fatalf("agent prompted %d times, want an initial attempt and one retry", len(bb.requests))
	}
	if bb.requests[0].PriorError != "" {
		t.Errorf("first prompt carried prior error %q, want none", bb.requests[0].PriorError)
	}
	if bb.requests[1].PriorError == "" {
		t.Error("retry prompt must describe the rejected action")
	}

	if res.Actions[0].Action != Raise || res.Actions[0].Amount != 300 {
		t.Errorf("recorded %v %d, want the corrected raise to 300", res.Actions[0].Action, res.Actions[0].Amount)
	}
	if res.Actions[0].IsFallback {
		t.Error("a successful retry is not a fallback")
	}
}

func TestHandIncompleteRaiseBarsReraise(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Stacks = [2]int{10000, 380}

	sb := queued(
		Decision{Action: Raise, Amount: 300},
		Decision{Action: Call},
	)
	bb := queued(
		Decision{Action: Check},
		Decision{Action: Raise, Amount: 380},
	)

	res := mustPlay(t, cfg, sb, bb,
		WithDeck(stackedDeck(t, "Ah Kh", "Qs Qd", "2c 7h 9d 3s 5c")))

	if len(sb.requests) != 2 {
		t.Fatalf("seat 0 prompted %d times, want 2", len(sb.requests))
	}
	facing := sb.requests[1].Legal
	if _, ok := hasAction(facing, Raise); ok {
		t.Error("incomplete all-in raise must not reopen raising for seat 0")
	}
	if _, ok := hasAction(facing, Call); !ok {
		t.Error("seat 0 must still be offered the call")
	}

	wantActions := []struct {
		seat   int
		action Action
		amount int
	}{
		{1, Check, 0},
		{0, Raise, 300},
		{1, Raise, 380},
		{0, Call, 380},
	}
	if len(res.Actions) != len(wantActions) {
		t.Fatalf("actions = %+v, want %d entries", res.Actions, len(wantActions))
	}
	for i, want := range wantActions {
		got := res.Actions[i]
		if got.Seat != want.seat || got.Action != want.action || got.Amount != want.amount {
			t.Errorf("action %d = seat %d %v %d, want seat %d %v %d",
				i, got.Seat, got.Action, got.Amount, want.seat, want.action, want.amount)
		}
	}
	if !res.Actions[2].AllIn {
		t.Error("the short raise must be flagged all-in")
	}

	if got := [2]int{9620, 760}; res.FinalStacks != got {
		t.Errorf("final stacks = %v, want %v", res.FinalStacks, got)
	}
}

func TestHandUnderbetKeepsRaiseOpen(t *testing.T) {
	t.Parallel()

	sb := queued(
		Decision{Action: Call},
		Decision{Action: Bet, Amount: 40},
	)
	bb := queued(
		Decision{Action: Check},
		Decision{Action: Fold},
	)

	res := mustPlay(t, testConfig(), sb, bb,
		WithDeck(stackedDeck(t, "As Ah", "Kd Kh", "2c 7d 9h")))

	facing := bb.requests[1].Legal
	raise, ok := hasAction(facing, Raise)
	if !ok {
		t.Fatal("a voluntary underbet must leave the raise open")
	}
	if raise.Min != 140 {
		t.Errorf("raise floor over a 40 underbet = %d, want 40 + big blind 100", raise.Min)
	}
	if got := [2]int{10100, 9900}; res.FinalStacks != got {
		t.Errorf("final stacks = %v, want %v", res.FinalStacks, got)
	}
}

func TestHandShortBlindAllIn(t *testing.T) {
	t.Parallel()

	// The big blind can only post 40 of the 100. Both blinds are all-in
	// before any action, so the hand runs out with no prompts at all.
	cfg := testConfig()
	cfg.Stacks = [2]int{50, 40}

	res := mustPlay(t, cfg, &failingAgent{}, &failingAgent{},
		WithDeck(stackedDeck(t, "2c 7d", "As Ah", "Kd 9h 3s 5c 8d")))

	if len(res.Actions) != 0 {
		t.Fatalf("actions = %+v, want none when both blinds are all-in", res.Actions)
	}
	if !res.Showdown {
		t.Fatal("both players live means a showdown")
	}
	// Seat 1's aces win the 80 chip main layer, seat 0's extra 10 comes
	// straight back.
	if got := [2]int{10, 80}; res.FinalStacks != got {
		t.Errorf("final stacks = %v, want %v", res.FinalStacks, got)
	}
}

func TestHandSplitPot(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.SmallBlind = 10
	cfg.BigBlind = 20
	cfg.Stacks = [2]int{1000, 1000}

	sb := queued(
		Decision{Action: Call},
		Decision{Action: Check},
		Decision{Action: Check},
		Decision{Action: Check},
	)
	bb := queued(
		Decision{Action: Check},
		Decision{Action: Check},
		Decision{Action: Check},
		Decision{Action: Check},
	)

	// The board plays: both hold a worthless kicker under a board straight.
	res := mustPlay(t, cfg, sb, bb,
		WithDeck(stackedDeck(t, "2c 2d", "3c 3d", "5h 6s 7d 8c 9h")))

	if res.Winner != SplitPot {
		t.Errorf("winner = %d, want a split", res.Winner)
	}
	if got := [2]int{1000, 1000}; res.FinalStacks != got {
		t.Errorf("final stacks = %v, want the blinds returned", res.FinalStacks)
	}
	if len(res.Awards) != 1 || len(res.Awards[0].Winners) != 2 {
		t.Errorf("awards = %+v, want one layer split both ways", res.Awards)
	}
	if res.Awards[0].WinningRank != "Straight" {
		t.Errorf("rank = %q, want Straight", res.Awards[0].WinningRank)
	}
}

func TestHandConservationAcrossRandomPlay(t *testing.T) {
	t.Parallel()

	for seed := int64(0); seed < 60; seed++ {
		rng := randutil.New(seed)
		cfg := Config{
			Names:      [2]string{"A", "B"},
			SmallBlind: 50,
			BigBlind:   100,
			Stacks:     [2]int{1 + rng.IntN(3000), 1 + rng.IntN(3000)},
			Button:     int(seed % 2),
		}

		h, err := NewHand(randutil.New(randutil.DeriveSeed(seed, 0)), cfg, [2]Agent{
			&randomAgent{rng: randutil.New(randutil.DeriveSeed(seed, 1))},
			&randomAgent{rng: randutil.New(randutil.DeriveSeed(seed, 2))},
		})
		if err != nil {
			t.Fatalf("seed %d: NewHand: %v", seed, err)
		}
		res, err := h.Play(t.Context())
		if err != nil {
			t.Fatalf("seed %d: Play: %v", seed, err)
		}

		if got, want := res.FinalStacks[0]+res.FinalStacks[1], cfg.Stacks[0]+cfg.Stacks[1]; got != want {
			t.Fatalf("seed %d: chips not conserved: %d != %d", seed, got, want)
		}
		if res.Net[0]+res.Net[1] != 0 {
			t.Fatalf("seed %d: nets do not cancel: %v", seed, res.Net)
		}
		awarded := 0
		for _, a := range res.Awards {
			awarded += a.Amount
		}
		if awarded != res.FinalPot {
			t.Fatalf("seed %d: awards %d != pot %d", seed, awarded, res.FinalPot)
		}
		switch {
		case res.Net[0] > 0 && res.Winner != 0:
			t.Fatalf("seed %d: seat 0 profited but winner is %d", seed, res.Winner)
		case res.Net[1] > 0 && res.Winner != 1:
			t.Fatalf("seed %d: seat 1 profited but winner is %d", seed, res.Winner)
		case res.Net[0] == 0 && res.Winner != SplitPot:
			t.Fatalf("seed %d: even nets but winner is %d", seed, res.Winner)
		}
	}
}

func TestNewHandRejectsBadConfig(t *testing.T) {
	t.Parallel()

	base := testConfig()

	bad := base
	bad.SmallBlind = 0
	if _, err := NewHand(randutil.New(1), bad, [2]Agent{queued(), queued()}); err == nil {
		t.Error("zero small blind must be rejected")
	}

	bad = base
	bad.BigBlind = 40
	if _, err := NewHand(randutil.New(1), bad, [2]Agent{queued(), queued()}); err == nil {
		t.Error("big blind below small blind must be rejected")
	}

	bad = base
	bad.Button = 2
	if _, err := NewHand(randutil.New(1), bad, [2]Agent{queued(), queued()}); err == nil {
		t.Error("button outside the two seats must be rejected")
	}

	bad = base
	bad.Stacks[1] = 0
	if _, err := NewHand(randutil.New(1), bad, [2]Agent{queued(), queued()}); err == nil {
		t.Error("empty stack must be rejected")
	}

	if _, err := NewHand(nil, base, [2]Agent{queued(), queued()}); err == nil {
		t.Error("nil rng without a prepared deck must be rejected")
	}

	if _, err := NewHand(randutil.New(1), base, [2]Agent{queued(), nil}); err == nil {
		t.Error("missing agent must be rejected")
	}
}
