package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"memochat/internal/conversation"
	"memochat/internal/decision"
)

type stubDecider struct {
	envelope decision.Envelope
}

func (d stubDecider) Auto(context.Context, string, decision.AutoOptions) (decision.Envelope, error) {
	return d.envelope, nil
}

func retrieveStub(texts ...string) stubDecider {
	candidates := make([]any, len(texts))
	for i, text := range texts {
		candidates[i] = map[string]any{"text": text}
	}
	return stubDecider{envelope: decision.Envelope{OK: true, Status: 200, Body: map[string]any{
		"action": "retrieve",
		"result": map[string]any{"candidates": candidates},
	}}}
}

func TestOverflowLabel(t *testing.T) {
	t.Parallel()
	if got := overflowLabel(2); got != "Also found 2 more" {
		t.Errorf("overflowLabel(2) = %q", got)
	}
	if got := overflowLabel(1); got != "Also found 1 more" {
		t.Errorf("overflowLabel(1) = %q", got)
	}
}

func TestLatestClarifyID(t *testing.T) {
	t.Parallel()

	msgs := []conversation.Message{
		{ID: "a", Kind: conversation.KindClarify, Status: conversation.StatusResolved},
		{ID: "b", Kind: conversation.KindPlain, Status: conversation.StatusResolved},
		{ID: "c", Kind: conversation.KindClarify, Status: conversation.StatusResolved},
		{ID: "d", Kind: conversation.KindClarify, Status: conversation.StatusPending},
	}
	if got := latestClarifyID(msgs); got != "c" {
		t.Errorf("latestClarifyID = %q, want %q (newest resolved clarify)", got, "c")
	}
	if got := latestClarifyID(nil); got != "" {
		t.Errorf("latestClarifyID(nil) = %q", got)
	}
}

func TestLatestOverflowID(t *testing.T) {
	t.Parallel()

	msgs := []conversation.Message{
		{ID: "a", Kind: conversation.KindRetrieve, More: []conversation.Candidate{{Text: "x"}}},
		{ID: "b", Kind: conversation.KindRetrieve}, // single hit, nothing to expand
	}
	if got := latestOverflowID(msgs); got != "a" {
		t.Errorf("latestOverflowID = %q, want %q", got, "a")
	}
}

// drive runs one submit through a model backed by a stub decider and waits
// for the resolution event to reach the update loop.
func drive(t *testing.T, decider conversation.Decider, input string) Model {
	t.Helper()

	orch := conversation.New(decider, conversation.Options{})
	t.Cleanup(orch.Shutdown)

	m := NewModel(Config{Orchestrator: orch})
	sized, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = sized.(Model)

	m.textarea.SetValue(input)
	submitted, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = submitted.(Model)

	select {
	case ev := <-orch.Events():
		resolved, _ := m.Update(conversationMsg(ev))
		return resolved.(Model)
	case <-time.After(5 * time.Second):
		t.Fatal("no resolution event")
		return m
	}
}

func TestRenderHistory_OverflowOrder(t *testing.T) {
	m := drive(t, retrieveStub("top shelf", "drawer", "laundry"), "where is the shirt")

	history := m.renderHistory()
	if !strings.Contains(history, "top shelf") {
		t.Error("primary answer missing from history")
	}
	if !strings.Contains(history, "Also found 2 more") {
		t.Errorf("overflow label missing:\n%s", history)
	}
	if strings.Contains(history, "drawer") {
		t.Error("overflow shown before expanding")
	}

	// Expand via Ctrl+E and confirm original order.
	expanded, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	m = expanded.(Model)
	history = m.renderHistory()
	drawerAt := strings.Index(history, "drawer")
	laundryAt := strings.Index(history, "laundry")
	if drawerAt == -1 || laundryAt == -1 || drawerAt > laundryAt {
		t.Errorf("expanded candidates wrong or out of order:\n%s", history)
	}
}

func TestRenderHistory_PendingPlaceholder(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	decider := blockingDecider{block: block}

	orch := conversation.New(decider, conversation.Options{})
	t.Cleanup(orch.Shutdown)

	m := NewModel(Config{Orchestrator: orch})
	sized, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = sized.(Model)
	m.textarea.SetValue("anyone seen my glasses")
	submitted, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = submitted.(Model)

	if !strings.Contains(m.renderHistory(), conversation.PlaceholderText) {
		t.Error("pending bubble does not show the placeholder")
	}
	if !m.orch.Busy() {
		t.Error("primary input should be disabled while pending")
	}
}

type blockingDecider struct {
	block chan struct{}
}

func (d blockingDecider) Auto(context.Context, string, decision.AutoOptions) (decision.Envelope, error) {
	<-d.block
	return decision.Envelope{OK: false, Status: 0, Body: map[string]any{"error": "network"}}, nil
}
