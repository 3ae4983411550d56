package player

const (
	BotState__NOT_IN_GAME         string = "NOT_IN_GAME"
	BotState__OBSERVING           string = "OBSERVING"
	BotState__SEATED              string = "SEATED"
	BotState__BETTING             string = "BETTING"
	BotState__WAITING_FOR_MY_TURN string = "WAITING_FOR_MY_TURN"
	BotState__MY_TURN             string = "MY_TURN"
	BotState__ACTED               string = "ACTED"

	BotEvent__RECEIVE_SEAT        string = "RECEIVE_SEAT"
	BotEvent__RECEIVE_SPECTATOR   string = "RECEIVE_SPECTATOR"
	BotEvent__NEW_ROUND           string = "NEW_ROUND"
	BotEvent__SEND_BET            string = "SEND_BET"
	BotEvent__RECEIVE_YOUR_ACTION string = "RECEIVE_YOUR_ACTION"
	BotEvent__SEND_MY_ACTION      string = "SEND_MY_ACTION"
	BotEvent__TURN_OVER           string = "TURN_OVER"
	BotEvent__ROUND_OVER          string = "ROUND_OVER"
	BotEvent__REMOVED             string = "REMOVED"
)
