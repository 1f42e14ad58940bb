package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"escape-room-service/internal/app"
	"escape-room-service/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendBuffer    = 16
	updatesBuffer = 16
)

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewWSHandler(service *app.GameService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Name string `json:"name"`
}

type optionPayload struct {
	Option *int `json:"option"`
}

type leaderboardPayload struct {
	Limit int `json:"limit"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// sessionPayload introduces the game to the client. Correct answers are withheld.
type sessionPayload struct {
	ID    string       `json:"id"`
	Rules domain.Rules `json:"rules"`
	Rooms []roomView   `json:"rooms"`
}

type roomView struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Questions   []questionView `json:"questions"`
}

type questionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// statePayload is the client's view of a GameState. Its roomStates shadow the
// embedded ones so per-question correctness stays hidden.
type statePayload struct {
	domain.GameState
	RoomStates []roomStateView `json:"roomStates"`
	IsWarning  bool            `json:"isWarning"`
}

// roomStateView withholds correctAnswers until a reveal hint was bought for the completed room.
type roomStateView struct {
	RoomID               int                `json:"roomId"`
	Answers              map[string]int     `json:"answers"`
	CorrectAnswers       map[string]bool    `json:"correctAnswers,omitempty"`
	CurrentQuestionIndex int                `json:"currentQuestionIndex"`
	HintsUsedInRoom      int                `json:"hintsUsedInRoom"`
	EliminatedOptions    map[string][]int   `json:"eliminatedOptions"`
	EndOfRoomHint        *domain.HintResult `json:"endOfRoomHintResult,omitempty"`
	RetryCount           int                `json:"retryCount"`
	Completed            bool               `json:"completed"`
	Passed               bool               `json:"passed"`
}

func newRoomStateView(rs domain.RoomState) roomStateView {
	view := roomStateView{
		RoomID:               rs.RoomID,
		Answers:              rs.Answers,
		CurrentQuestionIndex: rs.CurrentQuestionIndex,
		HintsUsedInRoom:      rs.HintsUsedInRoom,
		EliminatedOptions:    rs.EliminatedOptions,
		EndOfRoomHint:        rs.EndOfRoomHint,
		RetryCount:           rs.RetryCount,
		Completed:            rs.Completed,
		Passed:               rs.Passed,
	}
	if rs.Completed && rs.EndOfRoomHintUsed() {
		view.CorrectAnswers = rs.CorrectAnswers
	}
	return view
}

// ServeWS upgrades HTTP requests to websockets and runs one game per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session, err := h.service.Open(r.Context())
	if err != nil {
		h.logger.Error("open session failed", zap.Error(err))
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Close(session.ID())

	updates := make(chan domain.GameState, updatesBuffer)
	unsubscribe := session.Subscribe(func(state domain.GameState) {
		pushDropOldest(updates, state)
	})
	defer unsubscribe()

	send := make(chan outboundMessage[any], sendBuffer)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	rules := session.Rules()
	catalog := session.Catalog()
	send <- outboundMessage[any]{Type: "session", Payload: newSessionPayload(session.ID(), rules, catalog)}
	send <- outboundMessage[any]{Type: "state", Payload: newStatePayload(session.GetState(), rules)}

	go func() {
		defer close(updatesDone)
		lastScreen := domain.Screen("")
		for {
			select {
			case state := <-updates:
				msgs := []outboundMessage[any]{{Type: "state", Payload: newStatePayload(state, rules)}}
				if state.Screen == domain.ScreenGameOver && lastScreen != domain.ScreenGameOver {
					msgs = append(msgs, outboundMessage[any]{Type: "summary", Payload: domain.Summarize(state, catalog, rules)})
				}
				lastScreen = state.Screen
				for _, msg := range msgs {
					select {
					case send <- msg:
					case <-writerDone:
						return
					case <-closeSignals:
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	enqueue := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		reply, err := h.dispatch(session, inbound)
		if err != nil {
			reply = &outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
		if reply != nil && !enqueue(*reply) {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

var (
	errUnsupportedType = errors.New("unsupported message type")
	errInvalidPayload  = errors.New("invalid payload")
)

// dispatch applies one client message. State changes reach the client through the subscription.
func (h *WSHandler) dispatch(session *app.Session, msg inboundMessage) (*outboundMessage[any], error) {
	switch msg.Type {
	case "start":
		var payload startPayload
		if err := decodePayload(msg.Payload, &payload); err != nil {
			return nil, err
		}
		name, err := domain.ValidatePlayerName(payload.Name)
		if err != nil {
			return nil, err
		}
		session.StartGame(name)
	case "signIn":
		var identity domain.Identity
		if err := decodePayload(msg.Payload, &identity); err != nil {
			return nil, err
		}
		session.SignIn(identity)
	case "select", "confirmImmediate":
		var payload optionPayload
		if err := decodePayload(msg.Payload, &payload); err != nil {
			return nil, err
		}
		if payload.Option == nil {
			return nil, errInvalidPayload
		}
		if msg.Type == "select" {
			session.SelectAnswer(*payload.Option)
		} else {
			session.ConfirmAnswerImmediate(*payload.Option)
		}
	case "confirm":
		session.ConfirmAnswer()
	case "next":
		session.NextQuestion()
	case "proceed":
		session.ProceedToNextRoom()
	case "hint":
		session.UseQuestionHint()
	case "revealHint":
		session.UseEndOfRoomHint()
	case "retry":
		session.RetryRoom()
	case "reset":
		session.ResetGame()
	case "stopTimer":
		session.StopTimer()
	case "leaderboard":
		var payload leaderboardPayload
		if len(msg.Payload) > 0 {
			if err := decodePayload(msg.Payload, &payload); err != nil {
				return nil, err
			}
		}
		return &outboundMessage[any]{Type: "leaderboard", Payload: h.service.Leaderboard(payload.Limit)}, nil
	default:
		return nil, errUnsupportedType
	}
	return nil, nil
}

func decodePayload(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return errInvalidPayload
	}
	return nil
}

// pushDropOldest never blocks the publishing session: a slow reader loses its oldest snapshot.
func pushDropOldest(ch chan domain.GameState, state domain.GameState) {
	for {
		select {
		case ch <- state:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func newStatePayload(state domain.GameState, rules domain.Rules) statePayload {
	rooms := make([]roomStateView, 0, len(state.RoomStates))
	for _, rs := range state.RoomStates {
		rooms = append(rooms, newRoomStateView(rs))
	}
	return statePayload{
		GameState:  state,
		RoomStates: rooms,
		IsWarning:  state.IsTimerRunning && rules.IsWarning(state.TimeRemaining),
	}
}

func newSessionPayload(id string, rules domain.Rules, catalog domain.Catalog) sessionPayload {
	rooms := make([]roomView, 0, len(catalog.Rooms))
	for _, room := range catalog.Rooms {
		questions := make([]questionView, 0, len(room.Questions))
		for _, q := range room.Questions {
			questions = append(questions, questionView{ID: q.ID, Text: q.Text, Options: q.Options})
		}
		rooms = append(rooms, roomView{
			ID:          room.ID,
			Name:        room.Name,
			Slug:        room.Slug,
			Description: room.Description,
			Questions:   questions,
		})
	}
	return sessionPayload{ID: id, Rules: rules, Rooms: rooms}
}
