package orchestrator

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chitralabs/chitra/internal/capability"
	"github.com/chitralabs/chitra/internal/config"
	"github.com/chitralabs/chitra/internal/db"
	"github.com/chitralabs/chitra/internal/llm"
	"github.com/chitralabs/chitra/internal/logging"
	"github.com/chitralabs/chitra/internal/persona"
	"github.com/chitralabs/chitra/internal/store"
	"github.com/chitralabs/chitra/internal/voiceio"
)

func init() {
	logging.Disable()
}

// scriptedProvider replays canned model outputs and records every request.
type scriptedProvider struct {
	outputs  []string
	err      error
	requests []*llm.ChatRequest
}

func (p *scriptedProvider) ID() string { return "scripted" }

func (p *scriptedProvider) Complete(_ context.Context, req *llm.ChatRequest) (string, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return "", p.err
	}
	if len(p.outputs) == 0 {
		return "", errors.New("no scripted output")
	}
	i := len(p.requests) - 1
	if i >= len(p.outputs) {
		i = len(p.outputs) - 1
	}
	return p.outputs[i], nil
}

func (p *scriptedProvider) Close() error { return nil }

// scriptedDevice feeds canned utterances and records everything shown or
// spoken to the user.
type scriptedDevice struct {
	inputs    []string
	displayed []string
	spoken    []string
	mode      string
}

func (d *scriptedDevice) Listen(context.Context) (*voiceio.Utterance, error) {
	if len(d.inputs) == 0 {
		return nil, io.EOF
	}
	text := d.inputs[0]
	d.inputs = d.inputs[1:]
	return &voiceio.Utterance{Text: text, Confidence: 1.0}, nil
}

func (d *scriptedDevice) Display(userText, assistantText string) error {
	d.displayed = append(d.displayed, assistantText)
	return nil
}

func (d *scriptedDevice) Speak(_ context.Context, text string) error {
	d.spoken = append(d.spoken, text)
	return nil
}

func (d *scriptedDevice) SetInputMode(mode string) error {
	if mode != "text" && mode != "voice" {
		return errors.New("invalid mode")
	}
	d.mode = mode
	return nil
}

func (d *scriptedDevice) InputMode() string { return d.mode }

type testHarness struct {
	core     *Core
	provider *scriptedProvider
	device   *scriptedDevice
	stores   capability.Stores
}

func newTestHarness(t *testing.T, outputs ...string) *testHarness {
	t.Helper()

	dataDir := t.TempDir()
	database, err := db.Open(filepath.Join(dataDir, "chitra.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	stores := capability.Stores{
		Contacts:  store.NewContacts(database),
		Calendar:  store.NewCalendar(database),
		Reminders: store.NewReminders(database),
		Tasks:     store.NewTasks(database),
		Memory:    store.NewMemory(database),
	}

	provider := &scriptedProvider{outputs: outputs}
	gateway := llm.NewGateway(provider, time.Minute)
	t.Cleanup(func() { gateway.Close() })

	device := &scriptedDevice{mode: "text"}
	registry := capability.BuildRegistry(stores, device)

	identity := persona.NewLoader(dataDir)
	t.Cleanup(func() { identity.Close() })
	assembler := NewAssembler(identity, stores.Memory, stores.Calendar, stores.Reminders)

	cfg := &config.Config{MaxHistoryTurns: 10}
	core := NewCore(cfg, gateway, registry, assembler, stores, device)

	return &testHarness{core: core, provider: provider, device: device, stores: stores}
}

func TestHandleInputCreatesTaskAndReturnsFollowup(t *testing.T) {
	h := newTestHarness(t,
		`{"intent":"task_create","action":{"capability":"tasks","action":"create","params":{"title":"Buy groceries","priority":"high"}},"response":"Let me add that.","memory_store":[]}`,
		`{"intent":"task_create","action":null,"response":"Added 'Buy groceries' as a high-priority task.","memory_store":[]}`,
	)

	got := h.core.HandleInput(context.Background(), "add buy groceries to my tasks, it's urgent")
	assert.Equal(t, "Added 'Buy groceries' as a high-priority task.", got)

	// Two model calls: the decision and the followup.
	require.Len(t, h.provider.requests, 2)

	// The followup embeds the dispatch result and restates the user text.
	followup := h.provider.requests[1].Messages
	last := followup[len(followup)-1].Content
	assert.Contains(t, last, "Buy groceries")
	assert.Contains(t, last, "add buy groceries to my tasks")

	pending, err := h.stores.Tasks.List("pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Buy groceries", pending[0].Title)
	assert.Equal(t, "high", pending[0].Priority)
}

func TestHandleInputPlainChatSkipsDispatch(t *testing.T) {
	h := newTestHarness(t, `{"intent":"chat","action":null,"response":"Good morning, Bala.","memory_store":[]}`)

	got := h.core.HandleInput(context.Background(), "good morning")
	assert.Equal(t, "Good morning, Bala.", got)
	assert.Len(t, h.provider.requests, 1)

	history := h.core.History()
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "good morning", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, "Good morning, Bala.", history[1].Content)
}

func TestHandleInputUnknownCapabilitySkipsFollowup(t *testing.T) {
	h := newTestHarness(t, `{"intent":"weather","action":{"capability":"weather","action":"get","params":{}},"response":"Checking the weather.","memory_store":[]}`)

	got := h.core.HandleInput(context.Background(), "what's the weather")
	// Dispatch returns nil for an unknown capability; the first response
	// stands and no second call happens.
	assert.Equal(t, "Checking the weather.", got)
	assert.Len(t, h.provider.requests, 1)
}

func TestHandleInputStoresMemoriesFromBothCalls(t *testing.T) {
	h := newTestHarness(t,
		`{"intent":"contact_create","action":{"capability":"contacts","action":"create","params":{"name":"Ravi"}},"response":"Adding Ravi.","memory_store":[{"category":"relationship","subject":"ravi","content":"Ravi is a college friend","confidence":1.0,"source":"stated"}]}`,
		`{"intent":"contact_create","action":null,"response":"Ravi is in your contacts now.","memory_store":[{"category":"observation","subject":"social","content":"The user is expanding their circle","confidence":0.6,"source":"inferred"}]}`,
	)

	h.core.HandleInput(context.Background(), "add my friend Ravi to contacts")

	first, err := h.stores.Memory.Search("college friend")
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := h.stores.Memory.Search("expanding")
	require.NoError(t, err)
	assert.Len(t, second, 1)
}

func TestHandleInputSurvivesBadMemoryDrafts(t *testing.T) {
	h := newTestHarness(t, `{"intent":"chat","action":null,"response":"Noted.","memory_store":[{"category":"opinion","subject":"x","content":"bad category"},{"category":"fact","subject":"good","content":"This one lands","confidence":0.9,"source":"stated"}]}`)

	got := h.core.HandleInput(context.Background(), "remember this")
	assert.Equal(t, "Noted.", got)

	stored, err := h.stores.Memory.Search("lands")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestHandleInputDraftConfidenceDefaults(t *testing.T) {
	h := newTestHarness(t, `{"intent":"chat","action":null,"response":"Noted.","memory_store":[{"category":"fact","subject":"city","content":"Lives in Chennai","source":"stated"},{"category":"observation","subject":"hunch","content":"Might be a night owl","confidence":0.0,"source":"inferred"}]}`)

	h.core.HandleInput(context.Background(), "remember where I live")

	// A draft with no confidence field lands at 1.0.
	defaulted, err := h.stores.Memory.Search("Chennai")
	require.NoError(t, err)
	require.Len(t, defaulted, 1)
	assert.Equal(t, 1.0, defaulted[0].Confidence)

	// An explicit zero is written as zero, not promoted.
	explicit, err := h.stores.Memory.Search("night owl")
	require.NoError(t, err)
	require.Len(t, explicit, 1)
	assert.Equal(t, 0.0, explicit[0].Confidence)
}

func TestHandleInputFallbackOnTransportFailure(t *testing.T) {
	h := newTestHarness(t)
	h.provider.err = errors.New("connection refused")

	got := h.core.HandleInput(context.Background(), "hello?")
	assert.Contains(t, got, "trouble processing")
}

func TestUpdateHistoryTrimsToWindow(t *testing.T) {
	h := newTestHarness(t)
	h.core.maxHistoryTurns = 2

	for _, turn := range []string{"one", "two", "three"} {
		h.core.updateHistory(turn, "re: "+turn)
	}

	history := h.core.History()
	require.Len(t, history, 4)
	assert.Equal(t, "two", history[0].Content)
	assert.Equal(t, "re: two", history[1].Content)
	assert.Equal(t, "three", history[2].Content)
	assert.Equal(t, "re: three", history[3].Content)
}

func TestHistoryReturnsIsolatedCopy(t *testing.T) {
	h := newTestHarness(t)
	h.core.updateHistory("one", "re: one")

	snapshot := h.core.History()
	h.core.updateHistory("two", "re: two")

	// The snapshot must not see appends made after it was taken.
	require.Len(t, snapshot, 2)
	assert.Equal(t, "one", snapshot[0].Content)
	assert.Len(t, h.core.History(), 4)
}

func TestHistoryConcurrentReadersAndWriter(t *testing.T) {
	h := newTestHarness(t)
	h.core.maxHistoryTurns = 2

	// A foreground turn appending while a proactive tick reads. The race
	// detector covers the slice header; the assertions cover torn windows.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			h.core.updateHistory("ping", "pong")
		}
	}()
	for i := 0; i < 200; i++ {
		if msgs := h.core.History(); len(msgs)%2 != 0 {
			t.Errorf("history window has %d messages, want whole turns", len(msgs))
		}
	}
	<-done
}

func TestHistoryReachesTheModel(t *testing.T) {
	h := newTestHarness(t,
		`{"intent":"chat","action":null,"response":"first reply","memory_store":[]}`,
		`{"intent":"chat","action":null,"response":"second reply","memory_store":[]}`,
	)

	ctx := context.Background()
	h.core.HandleInput(ctx, "first question")
	h.core.HandleInput(ctx, "second question")

	require.Len(t, h.provider.requests, 2)
	msgs := h.provider.requests[1].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "first question", msgs[0].Content)
	assert.Equal(t, "first reply", msgs[1].Content)
	assert.Equal(t, "second question", msgs[2].Content)
}

func TestFollowupEmbedsResultJSON(t *testing.T) {
	h := newTestHarness(t)
	resp := h.core.followupCall(context.Background(), "system", nil, "user text",
		map[string]any{"title": "Buy groceries"})
	// Fallback path is fine here; what matters is the outgoing message.
	_ = resp

	require.Len(t, h.provider.requests, 1)
	msg := h.provider.requests[0].Messages[0].Content
	assert.Contains(t, msg, `"title": "Buy groceries"`)
	assert.True(t, strings.Contains(msg, `"user text"`))
}
