package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Publisher is the subset of *amqp.Channel the relay needs.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Relay publishes ledger writes to a topic exchange for an external relayer
// that owns the contract keys. It has no read path: queries report nothing.
type Relay struct {
	publisher Publisher
	exchange  string
	contract  string
	chainID   int64
	now       func() time.Time
	logger    *zap.Logger
}

// RelayEvent is the JSON body of every published message.
type RelayEvent struct {
	Type      string         `json:"type"`
	Player    string         `json:"player"`
	Contract  string         `json:"contract,omitempty"`
	ChainID   int64          `json:"chainId,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewRelay(publisher Publisher, exchange, contract string, chainID int64, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		publisher: publisher,
		exchange:  exchange,
		contract:  contract,
		chainID:   chainID,
		now:       time.Now,
		logger:    logger,
	}
}

// DialRelay connects to the broker and declares the topic exchange.
// The returned close function releases the channel and connection.
func DialRelay(url, exchange, contract string, chainID int64, logger *zap.Logger) (*Relay, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	closeFn := func() {
		_ = ch.Close()
		_ = conn.Close()
	}
	return NewRelay(ch, exchange, contract, chainID, logger), closeFn, nil
}

func (r *Relay) publish(ctx context.Context, eventType, player string, payload map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(RelayEvent{
		Type:      eventType,
		Player:    player,
		Contract:  r.contract,
		ChainID:   r.chainID,
		Payload:   payload,
		Timestamp: r.now().UTC(),
	})
	if err != nil {
		return err
	}
	r.logger.Debug("relaying ledger event", zap.String("type", eventType), zap.String("player", player))
	return r.publisher.Publish(r.exchange, "ledger."+eventType, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (r *Relay) RegisterPlayer(ctx context.Context, player string) error {
	return r.publish(ctx, "register", player, nil)
}

func (r *Relay) StartGame(ctx context.Context, player string) error {
	return r.publish(ctx, "startGame", player, nil)
}

func (r *Relay) SubmitAnswer(ctx context.Context, player string, quizID int, answer string) (*AnswerReceipt, error) {
	return nil, r.publish(ctx, "submitAnswer", player, map[string]any{"quizId": quizID, "answer": answer})
}

func (r *Relay) RetryRoom(ctx context.Context, player string) error {
	return r.publish(ctx, "retryRoom", player, nil)
}

func (r *Relay) RequestHint(ctx context.Context, player string, roomID, level int, signature []byte) (*HintReceipt, error) {
	return nil, r.publish(ctx, "requestHint", player, map[string]any{
		"roomId":    roomID,
		"hintLevel": level,
		"signature": signature,
	})
}

func (r *Relay) CheckTimeExpiry(ctx context.Context, player string) error {
	return r.publish(ctx, "checkTimeExpiry", player, nil)
}

func (r *Relay) PlayerStats(context.Context, string) (*PlayerStats, error) {
	return nil, nil
}

func (r *Relay) RoomState(context.Context, string, int) (*RoomSnapshot, error) {
	return nil, nil
}

func (r *Relay) Rankings(context.Context) ([]RankEntry, error) {
	return []RankEntry{}, nil
}

func (r *Relay) IsRegistered(context.Context, string) (bool, error) {
	return false, nil
}
