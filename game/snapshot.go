package game

import "time"

// Snapshot is the table as a display client would draw it. The hidden
// dealer card is masked.
type Snapshot struct {
	TableCode           string           `json:"tableCode"`
	RoundNo             uint32           `json:"roundNo"`
	Phase               string           `json:"phase"`
	ActiveSeat          uint32           `json:"activeSeat"`
	BettingRemainingSec float64          `json:"bettingRemainingSec"`
	Dealer              HandSnapshot     `json:"dealer"`
	Players             []PlayerSnapshot `json:"players"`
	Spectators          int              `json:"spectators"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

type HandSnapshot struct {
	Cards []string `json:"cards"`
	Total int      `json:"total"`
}

type PlayerSnapshot struct {
	PlayerID string       `json:"playerId"`
	Name     string       `json:"name"`
	SeatNo   uint32       `json:"seatNo"`
	Balance  int          `json:"balance"`
	Bet      int          `json:"bet"`
	Hand     HandSnapshot `json:"hand"`
}

type Standing struct {
	SeatNo   uint32 `json:"seatNo"`
	PlayerID string `json:"playerId"`
	Balance  int    `json:"balance"`
}

func snapshotPlayers(players []*Player) []PlayerSnapshot {
	ret := make([]PlayerSnapshot, 0, len(players))
	for _, p := range players {
		p.lock.Lock()
		ret = append(ret, PlayerSnapshot{
			PlayerID: p.ID,
			Name:     p.Name,
			SeatNo:   p.SeatNo(),
			Balance:  p.balance,
			Bet:      p.bet,
			Hand: HandSnapshot{
				Cards: p.hand.CardStrings(),
				Total: p.hand.Total(),
			},
		})
		p.lock.Unlock()
	}
	return ret
}

func standingsOf(players []*Player) []Standing {
	ret := make([]Standing, 0, len(players))
	for _, p := range players {
		ret = append(ret, Standing{
			SeatNo:   p.SeatNo(),
			PlayerID: p.ID,
			Balance:  p.Balance(),
		})
	}
	return ret
}
