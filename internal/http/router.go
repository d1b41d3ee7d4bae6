package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// Pinger reports storage reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Members    *MemberHandler
	Rotation   *RotationHandler
	Sessions   *SessionHandler
	Feed       *FeedHandler
	Storage    Pinger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Members != nil {
		mux.HandleFunc("/members", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Members.List(w, r)
			case http.MethodPost:
				cfg.Members.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/members/", func(w http.ResponseWriter, r *http.Request) {
			id, ok := trailingID(r.URL.Path, "/members/")
			if !ok {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithMemberID(r.Context(), id))
			switch r.Method {
			case http.MethodPut:
				cfg.Members.Update(w, r)
			case http.MethodDelete:
				cfg.Members.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Rotation != nil {
		mux.HandleFunc("/rotation/generate", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Rotation.Generate(w, r)
		})
		mux.HandleFunc("/rotation/set-from-date", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Rotation.SetFromDate(w, r)
		})
		mux.HandleFunc("/rotation/leader", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Rotation.Leader(w, r)
		})
		mux.HandleFunc("/rotation/assignments", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Rotation.ListAssignments(w, r)
		})
	}

	if cfg.Sessions != nil {
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Sessions.List(w, r)
			case http.MethodPost:
				cfg.Sessions.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/sessions/", func(w http.ResponseWriter, r *http.Request) {
			id, ok := trailingID(r.URL.Path, "/sessions/")
			if !ok {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithSessionID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				cfg.Sessions.Get(w, r)
			case http.MethodPut:
				cfg.Sessions.Update(w, r)
			case http.MethodDelete:
				cfg.Sessions.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Feed != nil {
		mux.HandleFunc("/calendar.ics", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Feed.Calendar(w, r)
		})
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		status := http.StatusOK
		payload := map[string]string{"status": "ok"}
		if cfg.Storage != nil {
			if err := cfg.Storage.Ping(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				payload = map[string]string{"status": "degraded", "storage": err.Error()}
			}
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	})

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func trailingID(path, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
