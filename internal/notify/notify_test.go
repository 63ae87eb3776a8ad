package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"skipdetect/internal/logging"
)

type fakeTrigger struct {
	mu        sync.Mutex
	scheduled int
	immediate int
	removed   []uuid.UUID
}

func (t *fakeTrigger) Schedule(context.Context) {
	t.mu.Lock()
	t.scheduled++
	t.mu.Unlock()
}

func (t *fakeTrigger) TriggerNow(context.Context) {
	t.mu.Lock()
	t.immediate++
	t.mu.Unlock()
}

func (t *fakeTrigger) OnItemRemoved(_ context.Context, itemID uuid.UUID) {
	t.mu.Lock()
	t.removed = append(t.removed, itemID)
	t.mu.Unlock()
}

func postNotification(t *testing.T, trigger Trigger, opts Options, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(context.Background(), trigger, opts, logging.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestItemAddedSchedulesDebouncedPass(t *testing.T) {
	trigger := &fakeTrigger{}
	rec := postNotification(t, trigger, Options{RunOnLibraryChange: true},
		`{"NotificationType":"ItemAdded","ItemId":"`+uuid.NewString()+`"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d, want 204", rec.Code)
	}
	if trigger.scheduled != 1 || trigger.immediate != 0 {
		t.Fatalf("scheduled=%d immediate=%d, want one debounced pass", trigger.scheduled, trigger.immediate)
	}
}

func TestItemAddedHonorsToggle(t *testing.T) {
	trigger := &fakeTrigger{}
	rec := postNotification(t, trigger, Options{RunOnLibraryChange: false},
		`{"NotificationType":"ItemAdded","ItemId":"`+uuid.NewString()+`"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d, want 204", rec.Code)
	}
	if trigger.scheduled != 0 {
		t.Fatal("disabled run_on_library_change must not schedule a pass")
	}
}

func TestItemDeletedForgetsItemAndSchedules(t *testing.T) {
	itemID := uuid.New()
	trigger := &fakeTrigger{}
	postNotification(t, trigger, Options{RunOnLibraryChange: true},
		`{"NotificationType":"ItemDeleted","ItemId":"`+itemID.String()+`"}`)
	if len(trigger.removed) != 1 || trigger.removed[0] != itemID {
		t.Fatalf("removed %v, want [%s]", trigger.removed, itemID)
	}
	if trigger.scheduled != 1 {
		t.Fatal("deletion should also schedule a pass")
	}
}

func TestItemDeletedWithBadIDStillSchedules(t *testing.T) {
	trigger := &fakeTrigger{}
	postNotification(t, trigger, Options{RunOnLibraryChange: true},
		`{"NotificationType":"ItemDeleted","ItemId":"not-a-uuid"}`)
	if len(trigger.removed) != 0 {
		t.Fatalf("removed %v, want nothing for an unparseable id", trigger.removed)
	}
	if trigger.scheduled != 1 {
		t.Fatal("an unparseable id must not suppress the scheduled pass")
	}
}

func TestScanCompleteTriggersImmediatePass(t *testing.T) {
	trigger := &fakeTrigger{}
	postNotification(t, trigger, Options{RunAfterLibraryScan: true},
		`{"NotificationType":"LibraryScanCompleted"}`)
	if trigger.immediate != 1 || trigger.scheduled != 0 {
		t.Fatalf("immediate=%d scheduled=%d, want one immediate pass", trigger.immediate, trigger.scheduled)
	}

	off := &fakeTrigger{}
	postNotification(t, off, Options{RunAfterLibraryScan: false},
		`{"NotificationType":"LibraryScanCompleted"}`)
	if off.immediate != 0 {
		t.Fatal("disabled run_after_library_scan must not trigger a pass")
	}
}

func TestUnknownNotificationIgnored(t *testing.T) {
	trigger := &fakeTrigger{}
	rec := postNotification(t, trigger, Options{RunOnLibraryChange: true, RunAfterLibraryScan: true},
		`{"NotificationType":"PlaybackStart"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d, want 204", rec.Code)
	}
	if trigger.scheduled != 0 || trigger.immediate != 0 || len(trigger.removed) != 0 {
		t.Fatal("unrelated notifications must not touch the runner")
	}
}

func TestMalformedPayloadRejected(t *testing.T) {
	trigger := &fakeTrigger{}
	rec := postNotification(t, trigger, Options{RunOnLibraryChange: true}, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	if trigger.scheduled != 0 {
		t.Fatal("malformed payloads must not schedule a pass")
	}
}
