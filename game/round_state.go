package game

import "github.com/looplab/fsm"

const (
	RoundState__IDLE          string = "IDLE"
	RoundState__BETTING       string = "BETTING"
	RoundState__INITIAL_DEAL  string = "INITIAL_DEAL"
	RoundState__PLAYER_TURNS  string = "PLAYER_TURNS"
	RoundState__DEALER_PLAY   string = "DEALER_PLAY"
	RoundState__SETTLEMENT    string = "SETTLEMENT"
	RoundState__STANDINGS     string = "STANDINGS"
	RoundState__CLEANUP       string = "CLEANUP"
	RoundState__SHUFFLE_CHECK string = "SHUFFLE_CHECK"
	RoundState__GAME_OVER     string = "GAME_OVER"

	RoundEvent__OPEN_BETTING   string = "OPEN_BETTING"
	RoundEvent__DEAL           string = "DEAL"
	RoundEvent__START_TURNS    string = "START_TURNS"
	RoundEvent__DEALER_PLAY    string = "DEALER_PLAY"
	RoundEvent__SETTLE         string = "SETTLE"
	RoundEvent__POST_STANDINGS string = "POST_STANDINGS"
	RoundEvent__CLEANUP        string = "CLEANUP"
	RoundEvent__CHECK_SHUFFLE  string = "CHECK_SHUFFLE"
	RoundEvent__END_GAME       string = "END_GAME"
)

func newRoundFSM(enterState func(e *fsm.Event)) *fsm.FSM {
	return fsm.NewFSM(
		RoundState__IDLE,
		fsm.Events{
			{
				Name: RoundEvent__OPEN_BETTING,
				Src:  []string{RoundState__IDLE, RoundState__SHUFFLE_CHECK},
				Dst:  RoundState__BETTING,
			},
			{
				Name: RoundEvent__DEAL,
				Src:  []string{RoundState__BETTING},
				Dst:  RoundState__INITIAL_DEAL,
			},
			{
				Name: RoundEvent__START_TURNS,
				Src:  []string{RoundState__INITIAL_DEAL},
				Dst:  RoundState__PLAYER_TURNS,
			},
			{
				Name: RoundEvent__DEALER_PLAY,
				Src:  []string{RoundState__PLAYER_TURNS},
				Dst:  RoundState__DEALER_PLAY,
			},
			{
				Name: RoundEvent__SETTLE,
				Src:  []string{RoundState__DEALER_PLAY},
				Dst:  RoundState__SETTLEMENT,
			},
			{
				Name: RoundEvent__POST_STANDINGS,
				Src:  []string{RoundState__SETTLEMENT},
				Dst:  RoundState__STANDINGS,
			},
			{
				// nobody bet in time skips straight to cleanup
				Name: RoundEvent__CLEANUP,
				Src:  []string{RoundState__STANDINGS, RoundState__BETTING},
				Dst:  RoundState__CLEANUP,
			},
			{
				Name: RoundEvent__CHECK_SHUFFLE,
				Src:  []string{RoundState__CLEANUP},
				Dst:  RoundState__SHUFFLE_CHECK,
			},
			{
				Name: RoundEvent__END_GAME,
				Src:  []string{RoundState__IDLE, RoundState__SHUFFLE_CHECK},
				Dst:  RoundState__GAME_OVER,
			},
		},
		fsm.Callbacks{
			"enter_state": enterState,
		},
	)
}
