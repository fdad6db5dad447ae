package tui

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/Danondso/squeak/internal/config"
	"github.com/Danondso/squeak/internal/reply"
	"github.com/Danondso/squeak/internal/translator"
)

// Translator runs utterances for the model.
type Translator interface {
	Translate(ctx context.Context, req translator.Request) (*translator.Result, error)
	Level() float64
	SetAnalysisEnabled(on bool)
	AnalysisEnabled() bool
}

// State represents the application state. The first four mirror
// translator.State.
type State int

const (
	StateIdle State = iota
	StateThinking
	StateSpeaking
	StateFinalizing
	StateError
)

func fromTranslator(s translator.State) State {
	switch s {
	case translator.StateThinking:
		return StateThinking
	case translator.StateSpeaking:
		return StateSpeaking
	case translator.StateFinalizing:
		return StateFinalizing
	default:
		return StateIdle
	}
}

// Messages sent through the Bubble Tea update loop.

// StateMsg reports a translator lifecycle transition.
type StateMsg struct {
	State translator.State
}

type TranslationResultMsg struct {
	Result *translator.Result
	Reply  reply.Reply
}

type TranslationErrorMsg struct {
	Err error
}

type errorTimeoutMsg struct{}

type levelTickMsg struct{}

type copiedMsg struct {
	Err error
}

// DebugEntry is a structured debug log entry.
type DebugEntry struct {
	Time     string // e.g. "11:27:53"
	Category string // zerolog component, or the level when there is none
	Message  string
}

// DebugLogMsg carries a structured debug log entry into the TUI.
type DebugLogMsg struct {
	Entry DebugEntry
}

const maxDebugLines = 50

// Model is the Bubble Tea model for the Squeak TUI.
type Model struct {
	State        State
	Input        textinput.Model
	LastResult   *translator.Result
	LastReply    reply.Reply
	LastError    string
	Notice       string
	Config       *config.Config
	Translator   Translator
	Replies      []reply.Reply
	Rand         *rand.Rand
	Logger       zerolog.Logger
	ThemeName    string
	DebugMode    bool
	DebugEntries []DebugEntry
	Level        float64
}

// NewModel creates a new TUI model.
func NewModel(cfg *config.Config, t Translator, replies []reply.Reply, rng *rand.Rand, logger zerolog.Logger, debug bool) Model {
	in := textinput.New()
	in.Placeholder = "say something to the creature"
	in.Prompt = "> "
	in.CharLimit = 200
	in.Width = panelContentWidth - 4
	in.Focus()

	RegisterCustomThemes(cfg.CustomThemes)
	theme := LoadTheme(cfg.Theme)
	applyTheme(theme)

	return Model{
		State:      StateIdle,
		Input:      in,
		Config:     cfg,
		Translator: t,
		Replies:    replies,
		Rand:       rng,
		Logger:     logger.With().Str("component", "tui").Logger(),
		ThemeName:  strings.ToLower(theme.Name),
		DebugMode:  debug,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and transitions state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.submit()
		case "ctrl+a":
			on := !m.Translator.AnalysisEnabled()
			m.Translator.SetAnalysisEnabled(on)
			m.Logger.Debug().Bool("enabled", on).Msg("analysis toggled")
			return m, nil
		case "ctrl+y":
			return m, m.copyCmd()
		case "ctrl+t":
			theme := NextTheme(m.ThemeName)
			applyTheme(theme)
			m.ThemeName = strings.ToLower(theme.Name)
			return m, nil
		}
		var cmd tea.Cmd
		m.Input, cmd = m.Input.Update(msg)
		return m, cmd

	case StateMsg:
		if m.State == StateError {
			return m, nil
		}
		prev := m.State
		m.State = fromTranslator(msg.State)
		if m.State == StateSpeaking && prev != StateSpeaking {
			return m, levelTickCmd()
		}
		return m, nil

	case levelTickMsg:
		if m.State == StateSpeaking && m.Translator != nil {
			m.Level = m.Translator.Level()
			return m, levelTickCmd()
		}
		m.Level = 0
		return m, nil

	case TranslationResultMsg:
		m.State = StateIdle
		m.Level = 0
		m.LastResult = msg.Result
		m.LastReply = msg.Reply
		m.Notice = ""
		return m, nil

	case TranslationErrorMsg:
		if errors.Is(msg.Err, translator.ErrBusy) {
			return m, nil
		}
		m.State = StateError
		m.Level = 0
		m.LastError = msg.Err.Error()
		return m, scheduleErrorTimeout()

	case errorTimeoutMsg:
		if m.State == StateError {
			m.State = StateIdle
		}
		m.LastError = ""

	case copiedMsg:
		if msg.Err != nil {
			m.Notice = "copy failed: " + msg.Err.Error()
		} else {
			m.Notice = "copied"
		}

	case DebugLogMsg:
		m.DebugEntries = append(m.DebugEntries, msg.Entry)
		if len(m.DebugEntries) > maxDebugLines {
			m.DebugEntries = m.DebugEntries[len(m.DebugEntries)-maxDebugLines:]
		}
	}

	return m, nil
}

// submit picks a reply for the typed text and starts an utterance. Input
// while an utterance is running is dropped.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.Input.Value())
	if text == "" || (m.State != StateIdle && m.State != StateError) {
		return m, nil
	}
	r, ok := reply.Select(text, m.Replies, m.Rand)
	if !ok {
		return m, nil
	}
	m.Input.Reset()
	m.State = StateThinking
	m.LastError = ""
	m.Notice = ""
	m.Logger.Debug().Int("reply", r.ID).Str("clip", r.Clip).Msg("reply selected")
	return m, m.translateCmd(text, r)
}

func (m Model) translateCmd(text string, r reply.Reply) tea.Cmd {
	t := m.Translator
	req := translator.Request{Input: text, Clip: r.Clip, Hint: r.Hint()}
	return func() tea.Msg {
		res, err := t.Translate(context.Background(), req)
		if err != nil {
			return TranslationErrorMsg{Err: err}
		}
		return TranslationResultMsg{Result: res, Reply: r}
	}
}

// copyText is what ctrl+y puts on the clipboard.
func (m Model) copyText() string {
	if m.LastResult == nil {
		return ""
	}
	parts := []string{m.LastReply.Caption}
	if m.LastResult.Onomatopoeia != "" {
		parts = append(parts, fmt.Sprintf("(%s %s)", m.LastResult.Onomatopoeia, m.LastResult.Phrase))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func (m Model) copyCmd() tea.Cmd {
	text := m.copyText()
	if text == "" {
		return nil
	}
	return func() tea.Msg {
		return copiedMsg{Err: clipboard.WriteAll(text)}
	}
}

func scheduleErrorTimeout() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return errorTimeoutMsg{}
	})
}

const levelTickInterval = 100 * time.Millisecond

func levelTickCmd() tea.Cmd {
	return tea.Tick(levelTickInterval, func(time.Time) tea.Msg {
		return levelTickMsg{}
	})
}
