package nats

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Williamxu98/Blackjack-Server/game"
	"github.com/Williamxu98/Blackjack-Server/logging"
)

var natsLogger = log.With().Str("logger_name", "nats::publisher").Logger()

var json = jsoniter.ConfigCompatibleWithStandardLibrary

/**
Every table mirrors its broadcast stream on two subjects.
table.<code>.events    : every protocol line, as sent to the clients
table.<code>.standings : JSON standings at the end of each round
*/

func EventsSubject(tableCode string) string {
	return fmt.Sprintf("table.%s.events", tableCode)
}

func StandingsSubject(tableCode string) string {
	return fmt.Sprintf("table.%s.standings", tableCode)
}

type StandingsMessage struct {
	TableCode string          `json:"tableCode"`
	RoundNo   uint32          `json:"roundNo"`
	Standings []game.Standing `json:"standings"`
	SentAt    time.Time       `json:"sentAt"`
}

// Publisher is the NATS side of the table event mirror. Publish errors are
// logged and never stall the round.
type Publisher struct {
	nc *natsgo.Conn
}

func NewPublisher(url string) (*Publisher, error) {
	nc, err := natsgo.Connect(url, natsgo.Name("blackjack-table"), natsgo.MaxReconnects(-1))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to connect to nats server at %s", url)
	}
	return NewPublisherWithConn(nc), nil
}

func NewPublisherWithConn(nc *natsgo.Conn) *Publisher {
	return &Publisher{nc: nc}
}

func (p *Publisher) PublishEvent(tableCode string, line string) {
	err := p.nc.Publish(EventsSubject(tableCode), []byte(line))
	if err != nil {
		natsLogger.Warn().Err(err).Str(logging.TableCodeKey, tableCode).Msg("Failed to publish table event")
	}
}

func (p *Publisher) PublishStandings(tableCode string, roundNo uint32, standings []game.Standing) {
	data, err := encodeStandings(tableCode, roundNo, standings, time.Now().UTC())
	if err != nil {
		natsLogger.Error().Err(err).Str(logging.TableCodeKey, tableCode).Msg("Could not encode standings")
		return
	}
	err = p.nc.Publish(StandingsSubject(tableCode), data)
	if err != nil {
		natsLogger.Warn().Err(err).Str(logging.TableCodeKey, tableCode).Msg("Failed to publish standings")
	}
}

func encodeStandings(tableCode string, roundNo uint32, standings []game.Standing, sentAt time.Time) ([]byte, error) {
	if standings == nil {
		standings = []game.Standing{}
	}
	data, err := json.Marshal(&StandingsMessage{
		TableCode: tableCode,
		RoundNo:   roundNo,
		Standings: standings,
		SentAt:    sentAt,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "Table %s round %d", tableCode, roundNo)
	}
	return data, nil
}

func (p *Publisher) Close() {
	p.nc.Drain()
}
