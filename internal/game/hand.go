package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chipbench/chipbench/internal/deck"
	"github.com/chipbench/chipbench/internal/evaluator"
)

// maxAttempts is how many times an agent is asked before the engine falls
// back to check-or-fold.
const maxAttempts = 3

// Hand drives one heads-up hand from blinds to completion. It owns the
// deck and both players' state for the duration of the hand and emits a
// single immutable Result. A Hand is single-use and not safe for
// concurrent use; independent hands share nothing.
type Hand struct {
	cfg     Config
	id      string
	players [2]*Player
	agents  [2]Agent
	deck    *deck.Deck

	street       Street
	board        []deck.Card
	betting      bettingRound
	potCollected int
	records      []ActionRecord
	showdown     bool
	startTotal   int

	script   []ActionRecord
	scripted bool

	log zerolog.Logger
}

// NewHand builds a hand for the given configuration. The rng shuffles the
// deck; it may be nil when WithDeck supplies one. Agents may only be nil
// when the hand is script-driven.
func NewHand(rng *rand.Rand, cfg Config, agents [2]Agent, opts ...HandOption) (*Hand, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("hand config: %w", err)
	}

	h := &Hand{
		cfg:        cfg,
		agents:     agents,
		street:     Blinds,
		startTotal: cfg.Stacks[0] + cfg.Stacks[1],
		log:        zerolog.Nop(),
	}
	for seat := range h.players {
		name := cfg.Names[seat]
		if name == "" {
			name = fmt.Sprintf("seat-%d", seat)
		}
		h.players[seat] = &Player{Seat: seat, Name: name, Stack: cfg.Stacks[seat]}
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.id == "" {
		h.id = uuid.NewString()
	}
	if h.deck == nil {
		if rng == nil {
			return nil, errors.New("hand needs an rng or a prepared deck")
		}
		h.deck = deck.New(rng)
	}
	if !h.scripted {
		for seat, a := range agents {
			if a == nil {
				return nil, fmt.Errorf("seat %d has no agent", seat)
			}
		}
	}
	return h, nil
}

// ID returns the hand id.
func (h *Hand) ID() string {
	return h.id
}

// Play runs the hand to completion and returns its result. Once started
// the hand always finishes: recoverable agent failures resolve into
// fallback actions, and only engine defects (deck exhaustion, conservation
// violations, broken replay scripts) abort with an error. The context is
// passed through to agents; a cancelled context surfaces as agent failures
// and the hand still completes via fallbacks.
func (h *Hand) Play(ctx context.Context) (*Result, error) {
	if h.street != Blinds {
		return nil, errors.New("hand already played")
	}

	h.postBlinds()
	if err := h.checkConservation(); err != nil {
		return nil, err
	}
	if err := h.dealHoleCards(); err != nil {
		return nil, err
	}
	h.log.Debug().
		Str("hand_id", h.id).
		Int("button", h.cfg.Button).
		Ints("stacks", []int{h.cfg.Stacks[0], h.cfg.Stacks[1]}).
		Msg("hand started")

	for _, street := range []Street{Preflop, Flop, Turn, River} {
		if h.liveCount() < 2 {
			break
		}
		if street != Preflop {
			h.collectBets()
			if err := h.dealBoard(street); err != nil {
				return nil, err
			}
		}
		h.street = street
		if err := h.runStreet(ctx); err != nil {
			return nil, err
		}
	}

	h.collectBets()
	h.showdown = h.liveCount() > 1
	if h.showdown {
		h.street = Showdown
	}
	awards := h.resolve()
	if err := h.checkConservation(); err != nil {
		return nil, err
	}
	h.street = Complete

	res := h.buildResult(awards)
	h.log.Debug().
		Str("hand_id", h.id).
		Int("pot", res.FinalPot).
		Int("winner", res.Winner).
		Bool("showdown", res.Showdown).
		Msg("hand complete")
	return res, nil
}

// postBlinds applies the forced blind contributions. The dealer posts the
// small blind. Blinds are never validated as actions; a short stack simply
// posts all-in for less.
func (h *Hand) postBlinds() {
	sb := h.players[h.cfg.Button]
	bb := h.players[1-h.cfg.Button]
	sb.ApplyContribution(h.cfg.SmallBlind)
	bb.ApplyContribution(h.cfg.BigBlind)
	h.log.Debug().
		Str("hand_id", h.id).
		Int("small_blind", sb.CurrentBet).
		Int("big_blind", bb.CurrentBet).
		Msg("blinds posted")
}

func (h *Hand) dealHoleCards() error {
	for _, p := range h.players {
		cards, err := h.deck.Deal(2)
		if err != nil {
			return fmt.Errorf("dealing hole cards: %w", err)
		}
		p.HoleCards = cards
	}
	return nil
}

func (h *Hand) dealBoard(street Street) error {
	n := 1
	if street == Flop {
		n = 3
	}
	cards, err := h.deck.Deal(n)
	if err != nil {
		return fmt.Errorf("dealing %s: %w", street, err)
	}
	h.board = append(h.board, cards...)
	h.log.Debug().
		Str("hand_id", h.id).
		Stringer("street", street).
		Strs("board", deck.Codes(h.board)).
		Msg("board dealt")
	return nil
}

// runStreet sequences one betting round. Preflop the non-dealer acts
// first, on later streets the dealer does. Players who are folded or
// all-in are skipped, and the round keeps rotating until betting closes or
// a fold leaves a single live player.
func (h *Hand) runStreet(ctx context.Context) error {
	h.betting = newBettingRound(h.cfg.BigBlind)
	turn := h.cfg.Button
	if h.street == Preflop {
		turn = 1 - h.cfg.Button
	}
	for h.liveCount() > 1 && !h.betting.closed(h.players, h.highBet()) {
		if !h.players[turn].CanAct() {
			turn = 1 - turn
			continue
		}
		if err := h.promptSeat(ctx, turn); err != nil {
			return err
		}
		turn = 1 - turn
	}
	return nil
}

// promptSeat obtains one action for the seat and applies it. Agent
// failures and invalid actions re-prompt with the error attached; after
// maxAttempts the engine applies the fallback action instead, which is
// legal by construction.
func (h *Hand) promptSeat(ctx context.Context, seat int) error {
	p := h.players[seat]
	legal := legalActions(p, h.highBet(), h.betting.minRaise, h.betting.mayRaise[seat])

	if h.scripted {
		return h.applyScripted(seat, legal)
	}

	priorErr := ""
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		d, err := h.agents[seat].RequestAction(ctx, h.request(seat, legal, priorErr))
		if err != nil {
			aerr := &AgentError{Seat: seat, Err: err}
			priorErr = aerr.Error()
			h.log.Warn().
				Str("hand_id", h.id).
				Int("seat", seat).
				Int("attempt", attempt).
				Err(err).
				Msg("agent failed")
			continue
		}
		if verr := validateDecision(p, legal, d); verr != nil {
			priorErr = verr.Error()
			h.log.Warn().
				Str("hand_id", h.id).
				Int("seat", seat).
				Int("attempt", attempt).
				Str("reason", verr.Reason).
				Msg("invalid action")
			continue
		}
		return h.apply(seat, d, false)
	}

	fb := fallbackDecision(legal)
	h.log.Warn().
		Str("hand_id", h.id).
		Int("seat", seat).
		Stringer("action", fb.Action).
		Msg("fallback action")
	return h.apply(seat, fb, true)
}

func (h *Hand) applyScripted(seat int, legal []LegalAction) error {
	if len(h.script) == 0 {
		return fmt.Errorf("seat %d to act: %w", seat, ErrScriptExhausted)
	}
	rec := h.script[0]
	h.script = h.script[1:]
	if rec.Seat != seat {
		return fmt.Errorf("replay: seat %d to act but record is for seat %d", seat, rec.Seat)
	}
	d := Decision{Action: rec.Action, Amount: rec.Amount, Reasoning: rec.Reasoning}
	if verr := validateDecision(h.players[seat], legal, d); verr != nil {
		return fmt.Errorf("replay: %w", verr)
	}
	return h.apply(seat, d, rec.IsFallback)
}

// apply mutates state for a validated decision, appends its action record
// and re-checks chip conservation.
func (h *Hand) apply(seat int, d Decision, isFallback bool) error {
	p := h.players[seat]
	prevHigh := h.highBet()

	switch d.Action {
	case Fold:
		p.Folded = true
	case Check:
		// No chips move.
	case Call:
		p.ApplyContribution(prevHigh)
	case Bet, Raise:
		p.ApplyContribution(d.Amount)
		h.betting.applyAggression(seat, p.AllIn, prevHigh, p.CurrentBet)
	}
	h.betting.acted[seat] = true

	amount := 0
	if d.Action == Call || d.Action == Bet || d.Action == Raise {
		amount = p.CurrentBet
	}
	rec := ActionRecord{
		Seat:       seat,
		Street:     h.street,
		Action:     d.Action,
		Amount:     amount,
		AllIn:      p.AllIn,
		Stack:      p.Stack,
		Pot:        h.potTotal(),
		IsFallback: isFallback,
		Reasoning:  d.Reasoning,
	}
	h.records = append(h.records, rec)

	h.log.Debug().
		Str("hand_id", h.id).
		Int("seat", seat).
		Stringer("street", h.street).
		Stringer("action", d.Action).
		Int("amount", amount).
		Int("pot", rec.Pot).
		Bool("all_in", rec.AllIn).
		Bool("fallback", isFallback).
		Msg("action applied")
	return h.checkConservation()
}

// request builds the prompt for an agent, with a defensive copy of the
// action history.
func (h *Hand) request(seat int, legal []LegalAction, priorErr string) ActionRequest {
	p := h.players[seat]
	view := HandView{
		HandID:     h.id,
		Seat:       seat,
		Names:      [2]string{h.players[0].Name, h.players[1].Name},
		Street:     h.street,
		HoleCards:  append([]deck.Card(nil), p.HoleCards...),
		Board:      append([]deck.Card(nil), h.board...),
		Pot:        h.potTotal(),
		Stacks:     [2]int{h.players[0].Stack, h.players[1].Stack},
		Bets:       [2]int{h.players[0].CurrentBet, h.players[1].CurrentBet},
		SmallBlind: h.cfg.SmallBlind,
		BigBlind:   h.cfg.BigBlind,
		Button:     h.cfg.Button,
		History:    append([]ActionRecord(nil), h.records...),
	}
	return ActionRequest{
		View:       view,
		Legal:      legal,
		ToCall:     h.highBet() - p.CurrentBet,
		PriorError: priorErr,
	}
}

// collectBets sweeps the street's bets into the collected pot at the end
// of each street.
func (h *Hand) collectBets() {
	for _, p := range h.players {
		h.potCollected += p.CurrentBet
		p.CurrentBet = 0
	}
}

// resolve builds the pot layers from total contributions and pays each
// layer out: outright when one player is eligible, otherwise to the best
// hand at showdown with ties split. Ties give any odd chip to the lowest
// winning seat.
func (h *Hand) resolve() []PotAward {
	layers := buildLayers(h.players[:])
	var ranks map[int]evaluator.HandRank

	awards := make([]PotAward, 0, len(layers))
	for _, layer := range layers {
		award := PotAward{Amount: layer.Amount}
		if len(layer.Eligible) == 1 {
			award.Winners = layer.Eligible
		} else {
			if ranks == nil {
				ranks = h.showdownRanks()
			}
			var best evaluator.HandRank
			for _, seat := range layer.Eligible {
				r := ranks[seat]
				switch {
				case len(award.Winners) == 0 || evaluator.Compare(r, best) > 0:
					best = r
					award.Winners = []int{seat}
				case evaluator.Compare(r, best) == 0:
					award.Winners = append(award.Winners, seat)
				}
			}
			award.WinningRank = best.String()
		}
		splitLayer(award.Amount, award.Winners, func(seat, chips int) {
			h.players[seat].Stack += chips
		})
		awards = append(awards, award)
	}
	h.potCollected = 0
	return awards
}

// showdownRanks evaluates each live player's best hand. Only called when a
// layer is contested, which implies a full board.
func (h *Hand) showdownRanks() map[int]evaluator.HandRank {
	ranks := make(map[int]evaluator.HandRank, 2)
	for _, p := range h.players {
		if !p.Live() {
			continue
		}
		cards := make([]deck.Card, 0, 7)
		cards = append(cards, p.HoleCards...)
		cards = append(cards, h.board...)
		ranks[p.Seat] = evaluator.MustEvaluate(cards)
	}
	return ranks
}

func (h *Hand) buildResult(awards []PotAward) *Result {
	finalPot := 0
	for _, a := range awards {
		finalPot += a.Amount
	}
	stacks := [2]int{h.players[0].Stack, h.players[1].Stack}
	net := [2]int{stacks[0] - h.cfg.Stacks[0], stacks[1] - h.cfg.Stacks[1]}
	winner := SplitPot
	if net[0] > 0 {
		winner = 0
	} else if net[1] > 0 {
		winner = 1
	}
	return &Result{
		HandID: h.id,
		Config: h.cfg,
		HoleCards: [2][]deck.Card{
			append([]deck.Card(nil), h.players[0].HoleCards...),
			append([]deck.Card(nil), h.players[1].HoleCards...),
		},
		Board:       append([]deck.Card(nil), h.board...),
		Awards:      awards,
		FinalPot:    finalPot,
		FinalStacks: stacks,
		Net:         net,
		Winner:      winner,
		Showdown:    h.showdown,
		Actions:     h.records,
	}
}

// highBet returns the street's highest current bet among live players.
func (h *Hand) highBet() int {
	high := 0
	for _, p := range h.players {
		if p.Live() && p.CurrentBet > high {
			high = p.CurrentBet
		}
	}
	return high
}

// liveCount counts non-folded players. All-in players are live: they
// cannot act but still contend for the pot.
func (h *Hand) liveCount() int {
	n := 0
	for _, p := range h.players {
		if p.Live() {
			n++
		}
	}
	return n
}

func (h *Hand) potTotal() int {
	total := h.potCollected
	for _, p := range h.players {
		total += p.CurrentBet
	}
	return total
}

// checkConservation verifies that stacks, street bets and the collected
// pot still sum to the chips the hand started with.
func (h *Hand) checkConservation() error {
	total := h.potCollected
	for _, p := range h.players {
		total += p.Stack + p.CurrentBet
	}
	if total != h.startTotal {
		return fmt.Errorf("%w: have %d, want %d", ErrChipConservation, total, h.startTotal)
	}
	return nil
}
