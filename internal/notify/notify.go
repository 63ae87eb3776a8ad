package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"skipdetect/internal/logging"
)

// Notification types as sent by the media server's webhook plugin.
const (
	eventItemAdded    = "ItemAdded"
	eventItemDeleted  = "ItemDeleted"
	eventScanComplete = "LibraryScanCompleted"
)

// Trigger is the slice of the analysis runner the webhook drives.
type Trigger interface {
	// Schedule requests a debounced analysis pass.
	Schedule(ctx context.Context)
	// TriggerNow requests an immediate analysis pass.
	TriggerNow(ctx context.Context)
	// OnItemRemoved forgets stored state for a deleted item.
	OnItemRemoved(ctx context.Context, itemID uuid.UUID)
}

// Options select which notifications start an analysis pass.
type Options struct {
	RunOnLibraryChange  bool
	RunAfterLibraryScan bool
}

// Server listens for library-change webhooks and forwards them to the
// runner. Point the media server's webhook plugin at POST /notify with a
// JSON template carrying NotificationType and ItemId.
type Server struct {
	addr    string
	trigger Trigger
	opts    Options
	logger  *slog.Logger
}

// New constructs a webhook server bound to addr.
func New(addr string, trigger Trigger, opts Options, logger *slog.Logger) *Server {
	return &Server{
		addr:    addr,
		trigger: trigger,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "notify"),
	}
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           NewHandler(ctx, s.trigger, s.opts, s.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("webhook listener started", logging.String("addr", s.addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// NewHandler routes webhook notifications onto the trigger. runCtx bounds
// the analysis passes the notifications start; it must outlive any single
// request, so the daemon's lifetime context goes here, not a request one.
func NewHandler(runCtx context.Context, trigger Trigger, opts Options, logger *slog.Logger) http.Handler {
	h := &handler{
		runCtx:  runCtx,
		trigger: trigger,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "notify"),
	}
	router := chi.NewRouter()
	router.Post("/notify", h.handleNotify)
	return router
}

type handler struct {
	runCtx  context.Context
	trigger Trigger
	opts    Options
	logger  *slog.Logger
}

type notification struct {
	NotificationType string `json:"NotificationType"`
	ItemID           string `json:"ItemId"`
}

func (h *handler) handleNotify(w http.ResponseWriter, r *http.Request) {
	var note notification
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		http.Error(w, "invalid notification payload", http.StatusBadRequest)
		return
	}

	switch note.NotificationType {
	case eventItemAdded:
		if h.opts.RunOnLibraryChange {
			h.logger.Debug("item added, scheduling analysis pass",
				logging.String("item_id", note.ItemID))
			h.trigger.Schedule(h.runCtx)
		}
	case eventItemDeleted:
		if itemID, err := uuid.Parse(note.ItemID); err == nil {
			h.logger.Debug("item deleted, forgetting stored state",
				logging.String("item_id", note.ItemID))
			h.trigger.OnItemRemoved(h.runCtx, itemID)
		}
		if h.opts.RunOnLibraryChange {
			h.trigger.Schedule(h.runCtx)
		}
	case eventScanComplete:
		if h.opts.RunAfterLibraryScan {
			h.logger.Info("library scan completed, triggering analysis pass")
			h.trigger.TriggerNow(h.runCtx)
		}
	default:
		h.logger.Debug("ignoring notification",
			logging.String("type", note.NotificationType))
	}
	w.WriteHeader(http.StatusNoContent)
}
