// Package health serves the monitor state over HTTP.
// The handler only reads status snapshots; it never touches the session.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tamzrod/taskwatch/internal/status"
)

// Report is the JSON body of GET /health.
type Report struct {
	OK                   bool    `json:"ok"`
	Time                 string  `json:"time"`
	Health               string  `json:"health"`
	LastTaskCount        int     `json:"last_task_count"`
	LastNotificationTime *string `json:"last_notification_time"`
	Cycles               uint64  `json:"cycles"`
	LastCycleTime        *string `json:"last_cycle_time"`
	LastError            string  `json:"last_error,omitempty"`
	SecondsInError       uint16  `json:"seconds_in_error"`
}

// StateReader is the read side of status.State.
type StateReader interface {
	Snapshot() status.Snapshot
}

// NewReport builds a report from snap. ok is process liveness: if this
// runs, the process is up, regardless of monitor health.
func NewReport(snap status.Snapshot, now time.Time) Report {
	r := Report{
		OK:             true,
		Time:           now.UTC().Format(time.RFC3339Nano),
		Health:         status.HealthName(snap.Health),
		LastTaskCount:  snap.LastTaskCount,
		Cycles:         snap.Cycles,
		LastError:      snap.LastCycleErr,
		SecondsInError: snap.SecondsInError(now),
	}
	if snap.LastNotificationAt != nil {
		s := snap.LastNotificationAt.UTC().Format(time.RFC3339)
		r.LastNotificationTime = &s
	}
	if !snap.LastCycleAt.IsZero() {
		s := snap.LastCycleAt.UTC().Format(time.RFC3339)
		r.LastCycleTime = &s
	}
	return r
}

// Handler serves /health.
func Handler(state StateReader, now func() time.Time) http.Handler {
	if now == nil {
		now = time.Now
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(NewReport(state.Snapshot(), now()))
	})
	return mux
}

// Serve listens on addr until ctx ends.
func Serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info("health_listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
