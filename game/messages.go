package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Williamxu98/Blackjack-Server/cards"
)

// Line prefixes of the table protocol. One event per line.
const (
	PrefixStatus    string = "%"
	PrefixCard      string = "#"
	PrefixOutcome   string = "&"
	PrefixStandings string = "+"
)

// Status messages
const (
	StatusNewRound    string = "NEWROUND"
	StatusShuffle     string = "SHUFFLE"
	StatusFormatError string = "FORMATERROR"
	StatusTurn        string = "turn"
	StatusSeat        string = "SEAT"
	StatusSpectator   string = "SPECTATOR"
	StatusRemoved     string = "REMOVED"
)

type Outcome string

const (
	OutcomeBlackjack Outcome = "blackjack"
	OutcomeBust      Outcome = "bust"
	OutcomeStand     Outcome = "stand"
)

const (
	DealerSeat  uint32 = 0
	maskedCard  string = "X X"
	maskedValue string = "X"
)

func NewRoundMsg() string {
	return PrefixStatus + " " + StatusNewRound
}

func ShuffleMsg() string {
	return PrefixStatus + " " + StatusShuffle
}

func FormatErrorMsg() string {
	return PrefixStatus + " " + StatusFormatError
}

func TurnMsg(seatNo uint32) string {
	return fmt.Sprintf("%s %d %s", PrefixStatus, seatNo, StatusTurn)
}

func SeatMsg(seatNo uint32) string {
	return fmt.Sprintf("%s %s %d", PrefixStatus, StatusSeat, seatNo)
}

func SpectatorMsg() string {
	return PrefixStatus + " " + StatusSpectator
}

func RemovedMsg(reason RemoveReason) string {
	return fmt.Sprintf("%s %s %s", PrefixStatus, StatusRemoved, reason)
}

func CardMsg(seatNo uint32, card *cards.Card) string {
	return fmt.Sprintf("%s %d %s", PrefixCard, seatNo, card.String())
}

func HiddenDealerCardMsg() string {
	return fmt.Sprintf("%s %d %s", PrefixCard, DealerSeat, maskedCard)
}

func OutcomeMsg(seatNo uint32, outcome Outcome, balance int) string {
	return fmt.Sprintf("%s %d %s %d", PrefixOutcome, seatNo, outcome, balance)
}

func DealerOutcomeMsg(outcome Outcome) string {
	return fmt.Sprintf("%s %d %s %s", PrefixOutcome, DealerSeat, outcome, maskedValue)
}

func StandingsMsg(standings []Standing) string {
	var b strings.Builder
	b.WriteString(PrefixStandings)
	for _, s := range standings {
		fmt.Fprintf(&b, " %d %d", s.SeatNo, s.Balance)
	}
	return b.String()
}

type CommandKind int

const (
	CommandBet CommandKind = iota + 1
	CommandDecision
	CommandQuit
)

// Command is one parsed line sent by a client.
type Command struct {
	Kind     CommandKind
	Amount   int
	Decision Decision
}

// ParseCommand understands "bet <n>", "hit", "stand", "doubledown" and "quit".
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, InvalidCommandError{Command: line}
	}
	verb := strings.ToLower(fields[0])
	switch {
	case verb == "bet" && len(fields) == 2:
		amount, err := strconv.Atoi(fields[1])
		if err != nil {
			return Command{}, InvalidCommandError{Command: line}
		}
		return Command{Kind: CommandBet, Amount: amount}, nil
	case verb == "quit" && len(fields) == 1:
		return Command{Kind: CommandQuit}, nil
	case len(fields) == 1:
		if d, ok := ParseDecision(verb); ok {
			return Command{Kind: CommandDecision, Decision: d}, nil
		}
	}
	return Command{}, InvalidCommandError{Command: line}
}
