// Package bot implements the conversation layer: per-chat session states,
// command routing and reply construction. It is transport-agnostic; the
// Telegram adapter in bot/telegram delivers inbound text and renders the
// replies this package produces.
package bot

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/fueltrack/fueltrack-bot/internal/messages"
	"github.com/fueltrack/fueltrack-bot/internal/refill"
	"github.com/fueltrack/fueltrack-bot/internal/stats"
)

// State is the per-chat conversation state.
type State int

const (
	// StateIdle routes input as commands or menu buttons.
	StateIdle State = iota
	// StateAwaitingRefill expects an "amount cost odometer" line.
	StateAwaitingRefill
	// StateAwaitingResetConfirm expects the yes/no confirmation token.
	StateAwaitingResetConfirm
)

// Keyboard selects which quick-reply keyboard accompanies a reply.
type Keyboard int

const (
	// KeyboardMain is the persistent four-button menu.
	KeyboardMain Keyboard = iota
	// KeyboardConfirm is the one-time yes/no keyboard.
	KeyboardConfirm
)

// Reply is one outbound message for the transport to render.
type Reply struct {
	Text     string
	Keyboard Keyboard
}

// Handler owns conversation state and turns inbound messages into replies.
// Different users may be handled concurrently; the session map is the only
// shared mutable state.
type Handler struct {
	store   refill.Store
	engine  *stats.Engine
	catalog *messages.Catalog
	logger  *log.Logger

	mu       sync.Mutex
	sessions map[int64]State
}

// New constructs a handler. logger may be nil to discard diagnostics.
func New(store refill.Store, engine *stats.Engine, catalog *messages.Catalog, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(log.Writer(), "[bot] ", log.LstdFlags)
	}
	return &Handler{
		store:    store,
		engine:   engine,
		catalog:  catalog,
		logger:   logger,
		sessions: make(map[int64]State),
	}
}

func (h *Handler) state(userID int64) State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[userID]
}

func (h *Handler) setState(userID int64, s State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s == StateIdle {
		delete(h.sessions, userID)
		return
	}
	h.sessions[userID] = s
}

// HandleMessage routes one inbound message and returns the reply to send.
// userName is only used for the greeting. Every failure path returns a
// catalog text; this method never panics across the transport boundary.
func (h *Handler) HandleMessage(ctx context.Context, userID int64, userName, text string) Reply {
	trimmed := strings.TrimSpace(text)

	// Commands interrupt whatever state the session is in.
	if strings.HasPrefix(trimmed, "/") {
		return h.handleCommand(ctx, userID, userName, trimmed)
	}

	switch h.state(userID) {
	case StateAwaitingRefill:
		return h.handleRefillInput(ctx, userID, trimmed)
	case StateAwaitingResetConfirm:
		return h.handleResetConfirm(ctx, userID, trimmed)
	}

	switch trimmed {
	case h.catalog.ButtonRefill:
		return h.startRefill(userID)
	case h.catalog.ButtonStats:
		return h.handleStats(ctx, userID)
	case h.catalog.ButtonReset:
		return h.startReset(userID)
	case h.catalog.ButtonHelp:
		return h.reply(h.catalog.Help)
	}
	return h.reply(h.catalog.Help)
}

func (h *Handler) handleCommand(ctx context.Context, userID int64, userName, command string) Reply {
	h.setState(userID, StateIdle)
	// "/stats@botname" arrives in group chats.
	if at := strings.IndexByte(command, '@'); at > 0 {
		command = command[:at]
	}
	switch command {
	case "/start":
		return h.reply(messages.Render(h.catalog.Greeting, map[string]string{"name": userName}))
	case "/help":
		return h.reply(h.catalog.Help)
	case "/refill":
		return h.startRefill(userID)
	case "/stats":
		return h.handleStats(ctx, userID)
	case "/reset":
		return h.startReset(userID)
	case "/cancel":
		return h.reply(h.catalog.Cancelled)
	}
	return h.reply(h.catalog.Help)
}

func (h *Handler) startRefill(userID int64) Reply {
	h.setState(userID, StateAwaitingRefill)
	return h.reply(h.catalog.RefillPrompt)
}

func (h *Handler) handleRefillInput(ctx context.Context, userID int64, text string) Reply {
	input, err := ParseRefillInput(text)
	if err != nil {
		// Stay in the refill state so the user can correct the line.
		var verr *ValidationError
		if errors.As(err, &verr) && verr.Reason == InvalidTokenCount {
			return h.reply(h.catalog.RefillBadFormat)
		}
		return h.reply(h.catalog.RefillBadNumbers)
	}

	record, err := h.store.Append(ctx, userID, input.Amount, input.Cost, input.Odometer)
	if err != nil {
		h.logger.Printf("append refill user=%d: %v", userID, err)
		h.setState(userID, StateIdle)
		return h.reply(h.catalog.RefillSaveFailed)
	}

	h.setState(userID, StateIdle)
	return h.reply(messages.Render(h.catalog.RefillSaved, map[string]string{
		"amount":   strconv.FormatFloat(record.Amount, 'f', -1, 64),
		"cost":     strconv.FormatFloat(record.Cost, 'f', -1, 64),
		"odometer": strconv.FormatInt(record.Odometer, 10),
		"price":    FormatPrice(record.PricePerLiter()),
	}))
}

func (h *Handler) handleStats(ctx context.Context, userID int64) Reply {
	current, err := h.engine.CurrentConsumption(ctx, userID)
	if err != nil {
		h.logger.Printf("current consumption user=%d: %v", userID, err)
		return h.reply(h.catalog.StatsEmpty)
	}
	monthly, err := h.engine.MonthlyStatistics(ctx, userID)
	if err != nil {
		h.logger.Printf("monthly statistics user=%d: %v", userID, err)
		return h.reply(h.catalog.StatsEmpty)
	}

	if current == nil && len(monthly) == 0 {
		return h.reply(h.catalog.StatsEmpty)
	}

	var b strings.Builder
	b.WriteString(h.catalog.StatsHeader)
	b.WriteString("\n\n")

	if current != nil {
		b.WriteString(messages.Render(h.catalog.StatsConsumption, map[string]string{
			"consumption": current.FormatPerHundred(),
			"distance":    strconv.FormatInt(current.Distance, 10),
			"fuel":        strconv.FormatFloat(current.FuelUsed, 'f', -1, 64),
		}))
		b.WriteString("\n\n")
	}

	if len(monthly) > 0 {
		b.WriteString(h.catalog.StatsMonthlyHeader)
		b.WriteString("\n")
		for _, m := range monthly {
			b.WriteString(messages.Render(h.catalog.StatsMonthlyLine, map[string]string{
				"month":  h.catalog.MonthLabel(m.Year, m.Month),
				"liters": m.FormatLiters(),
				"cost":   m.FormatCost(),
				"price":  m.FormatAvgPrice(),
			}))
			b.WriteString("\n")
		}
	}
	return h.reply(strings.TrimRight(b.String(), "\n"))
}

func (h *Handler) startReset(userID int64) Reply {
	h.setState(userID, StateAwaitingResetConfirm)
	return Reply{Text: h.catalog.ResetPrompt, Keyboard: KeyboardConfirm}
}

func (h *Handler) handleResetConfirm(ctx context.Context, userID int64, text string) Reply {
	h.setState(userID, StateIdle)
	if !h.catalog.IsAffirmative(text) {
		return h.reply(h.catalog.ResetCancelled)
	}
	if err := h.store.DeleteAll(ctx, userID); err != nil {
		h.logger.Printf("delete history user=%d: %v", userID, err)
		return h.reply(h.catalog.ResetFailed)
	}
	return h.reply(h.catalog.ResetDone)
}

func (h *Handler) reply(text string) Reply {
	return Reply{Text: text, Keyboard: KeyboardMain}
}
