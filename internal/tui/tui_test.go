package tui

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/Danondso/squeak/internal/config"
	"github.com/Danondso/squeak/internal/grain"
	"github.com/Danondso/squeak/internal/intent"
	"github.com/Danondso/squeak/internal/reply"
	"github.com/Danondso/squeak/internal/translator"
)

type mockTranslator struct {
	result   *translator.Result
	err      error
	level    float64
	analysis bool
	lastReq  translator.Request
}

func (m *mockTranslator) Translate(_ context.Context, req translator.Request) (*translator.Result, error) {
	m.lastReq = req
	return m.result, m.err
}

func (m *mockTranslator) Level() float64             { return m.level }
func (m *mockTranslator) SetAnalysisEnabled(on bool) { m.analysis = on }
func (m *mockTranslator) AnalysisEnabled() bool      { return m.analysis }

func sampleResult() *translator.Result {
	return &translator.Result{
		Input:    "hello",
		Clip:     "builtin:greeting",
		Duration: 1.0,
		Timeline: []grain.TimelineEntry{
			{Index: 0, Start: 0, Duration: 0.4},
			{Index: 1, Start: 0.5, Duration: 0.5, Skipped: true},
		},
		Intent:       &intent.Result{Intent: intent.Greeting, Confidence: 0.8},
		Phrase:       "Hello there!",
		Onomatopoeia: "chirp",
		Analyzed:     true,
	}
}

func newTestModel() (Model, *mockTranslator) {
	cfg := config.Default()
	tr := &mockTranslator{result: sampleResult(), analysis: true}
	m := NewModel(cfg, tr, reply.FromConfig(cfg.Replies), rand.New(rand.NewPCG(1, 1)), zerolog.Nop(), false)
	return m, tr
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func TestInitialState(t *testing.T) {
	m, _ := newTestModel()
	if m.State != StateIdle {
		t.Errorf("expected StateIdle, got %d", m.State)
	}
	if m.LastResult != nil {
		t.Error("expected no result")
	}
}

func TestSubmitStartsTranslation(t *testing.T) {
	m, tr := newTestModel()
	m.Input.SetValue("hello friend")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.State != StateThinking {
		t.Errorf("expected StateThinking, got %d", m.State)
	}
	if m.Input.Value() != "" {
		t.Errorf("expected input cleared, got %q", m.Input.Value())
	}
	if cmd == nil {
		t.Fatal("expected translate command")
	}
	msg, ok := cmd().(TranslationResultMsg)
	if !ok {
		t.Fatalf("expected TranslationResultMsg")
	}
	if tr.lastReq.Clip != "builtin:greeting" {
		t.Errorf("expected greeting clip, got %q", tr.lastReq.Clip)
	}
	if tr.lastReq.Hint != grain.HintGreeting {
		t.Errorf("expected greeting hint, got %s", tr.lastReq.Hint)
	}
	if msg.Reply.ID != 3 {
		t.Errorf("expected reply 3, got %d", msg.Reply.ID)
	}
}

func TestSubmitIgnoredWhenEmptyOrBusy(t *testing.T) {
	m, _ := newTestModel()
	if _, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("expected no command for empty input")
	}
	m.Input.SetValue("hello")
	m.State = StateSpeaking
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("expected no command while speaking")
	}
	if m.Input.Value() != "hello" {
		t.Error("expected input kept while speaking")
	}
}

func TestStateMsgMirrorsTranslator(t *testing.T) {
	m, _ := newTestModel()
	m, _ = update(t, m, StateMsg{State: translator.StateThinking})
	if m.State != StateThinking {
		t.Errorf("expected StateThinking, got %d", m.State)
	}
	m, cmd := update(t, m, StateMsg{State: translator.StateSpeaking})
	if m.State != StateSpeaking {
		t.Errorf("expected StateSpeaking, got %d", m.State)
	}
	if cmd == nil {
		t.Error("expected level tick on speaking")
	}
	m, _ = update(t, m, StateMsg{State: translator.StateFinalizing})
	if m.State != StateFinalizing {
		t.Errorf("expected StateFinalizing, got %d", m.State)
	}
}

func TestLevelTickUpdatesLevel(t *testing.T) {
	m, tr := newTestModel()
	tr.level = 0.42
	m.State = StateSpeaking
	m, cmd := update(t, m, levelTickMsg{})
	if m.Level != 0.42 {
		t.Errorf("expected Level 0.42, got %f", m.Level)
	}
	if cmd == nil {
		t.Error("expected another tick while speaking")
	}
}

func TestLevelTickStopsWhenNotSpeaking(t *testing.T) {
	m, tr := newTestModel()
	tr.level = 0.42
	m.Level = 0.5
	m, cmd := update(t, m, levelTickMsg{})
	if m.Level != 0 {
		t.Errorf("expected Level 0, got %f", m.Level)
	}
	if cmd != nil {
		t.Error("expected no tick when idle")
	}
}

func TestResultTransition(t *testing.T) {
	m, _ := newTestModel()
	m.State = StateFinalizing
	r := reply.FromConfig(config.DefaultReplies())[2]
	m, _ = update(t, m, TranslationResultMsg{Result: sampleResult(), Reply: r})
	if m.State != StateIdle {
		t.Errorf("expected StateIdle, got %d", m.State)
	}
	if m.LastReply.Caption != r.Caption {
		t.Errorf("expected caption %q, got %q", r.Caption, m.LastReply.Caption)
	}
}

func TestErrorTransition(t *testing.T) {
	m, _ := newTestModel()
	m.State = StateThinking
	m, cmd := update(t, m, TranslationErrorMsg{Err: fmt.Errorf("load clip: no such file")})
	if m.State != StateError {
		t.Errorf("expected StateError, got %d", m.State)
	}
	if m.LastError != "load clip: no such file" {
		t.Errorf("unexpected error text %q", m.LastError)
	}
	if cmd == nil {
		t.Error("expected error timeout command")
	}

	m, _ = update(t, m, errorTimeoutMsg{})
	if m.State != StateIdle || m.LastError != "" {
		t.Errorf("expected error cleared, got state %d error %q", m.State, m.LastError)
	}
}

func TestBusyErrorIgnored(t *testing.T) {
	m, _ := newTestModel()
	m.State = StateSpeaking
	m, cmd := update(t, m, TranslationErrorMsg{Err: fmt.Errorf("wrapped: %w", translator.ErrBusy)})
	if m.State != StateSpeaking {
		t.Errorf("expected StateSpeaking, got %d", m.State)
	}
	if cmd != nil {
		t.Error("expected no command for busy")
	}
}

func TestToggleAnalysis(t *testing.T) {
	m, tr := newTestModel()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	if tr.analysis {
		t.Error("expected analysis disabled")
	}
	if !strings.Contains(m.View(), "off") {
		t.Error("expected status bar to show analysis off")
	}
	update(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	if !tr.analysis {
		t.Error("expected analysis enabled again")
	}
}

func TestCycleTheme(t *testing.T) {
	m, _ := newTestModel()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.ThemeName != "bamboo" {
		t.Errorf("expected bamboo, got %q", m.ThemeName)
	}
}

func TestCopyText(t *testing.T) {
	m, _ := newTestModel()
	if m.copyCmd() != nil {
		t.Error("expected no copy command without a result")
	}
	m.LastResult = sampleResult()
	m.LastReply = reply.Reply{Caption: "Hello!"}
	if got := m.copyText(); got != "Hello! (chirp Hello there!)" {
		t.Errorf("unexpected copy text %q", got)
	}
}

func TestViewContainsTitleAndIdle(t *testing.T) {
	m, _ := newTestModel()
	view := m.View()
	if !strings.Contains(view, "SQUEAK") {
		t.Error("expected view to contain 'SQUEAK'")
	}
	if !strings.Contains(view, "Idle") {
		t.Error("expected view to contain 'Idle'")
	}
	if strings.Contains(view, "Debug") {
		t.Error("expected no debug panel without entries")
	}
}

func TestViewShowsResult(t *testing.T) {
	m, _ := newTestModel()
	m.LastResult = sampleResult()
	m.LastReply = reply.Reply{Caption: "Hello! I'm feeling great"}
	view := m.View()
	for _, want := range []string{"feeling great", "greeting", "0.80", "▬", "x"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestMeterOnlyWhileSpeaking(t *testing.T) {
	m, _ := newTestModel()
	m.Level = 0.5
	if strings.Contains(m.View(), "Out  ") {
		t.Error("expected no meter when idle")
	}
	m.State = StateSpeaking
	if !strings.Contains(m.View(), "Out  ") {
		t.Error("expected meter while speaking")
	}
}

func TestTimelineCells(t *testing.T) {
	entries := []grain.TimelineEntry{
		{Start: 0, Duration: 0.25},
		{Start: 0.5, Duration: 0.25, Skipped: true},
	}
	cells := timelineCells(entries, 1, 8)
	want := []int{cellGrain, cellGrain, cellEmpty, cellEmpty, cellSkipped, cellSkipped, cellEmpty, cellEmpty}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("cell %d: expected %d, got %d", i, want[i], cells[i])
		}
	}
	if got := timelineCells(entries, 0, 4); got[0] != cellEmpty {
		t.Error("expected empty strip for zero duration")
	}
}

func TestDebugLogTruncatesToMax(t *testing.T) {
	m, _ := newTestModel()
	for i := 0; i < maxDebugLines+10; i++ {
		m, _ = update(t, m, DebugLogMsg{Entry: DebugEntry{Category: "debug", Message: fmt.Sprintf("line %d", i)}})
	}
	if len(m.DebugEntries) != maxDebugLines {
		t.Errorf("expected %d debug entries, got %d", maxDebugLines, len(m.DebugEntries))
	}
	if m.DebugEntries[0].Message != "line 10" {
		t.Errorf("expected oldest message to be 'line 10', got %q", m.DebugEntries[0].Message)
	}
	if !strings.Contains(m.View(), "Debug") {
		t.Error("expected debug panel")
	}
}

func TestParseLineZerolog(t *testing.T) {
	entry := parseLine(`{"level":"debug","component":"grain","grains":3,"time":"2026-01-02T11:27:53Z","message":"utterance started"}`)
	if entry.Time != "11:27:53" {
		t.Errorf("expected time '11:27:53', got %q", entry.Time)
	}
	if entry.Category != "grain" {
		t.Errorf("expected category 'grain', got %q", entry.Category)
	}
	if entry.Message != "utterance started grains=3" {
		t.Errorf("unexpected message %q", entry.Message)
	}
}

func TestParseLineFallbacks(t *testing.T) {
	entry := parseLine(`{"level":"warn","message":"no component"}`)
	if entry.Category != "warn" {
		t.Errorf("expected level as category, got %q", entry.Category)
	}
	entry = parseLine("plain text")
	if entry.Category != "debug" || entry.Message != "plain text" {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestThemes(t *testing.T) {
	if LoadTheme("GRUVBOX").Name != "Gruvbox" {
		t.Error("expected case-insensitive lookup")
	}
	if LoadTheme("nope").Name != "Synthwave" {
		t.Error("expected synthwave fallback")
	}
	RegisterCustomThemes([]config.CustomTheme{{Name: "Panda", Primary: "#000000"}, {Name: "gruvbox"}, {Name: ""}})
	if LoadTheme("panda").Name != "Panda" {
		t.Error("expected custom theme registered")
	}
	if LoadTheme("gruvbox").Name != "Gruvbox" {
		t.Error("expected builtin theme kept")
	}
	names := ThemeNames()
	if NextTheme(names[len(names)-1]).Name != "Synthwave" {
		t.Error("expected cycle to wrap")
	}
}
