package handler

import (
	"encoding/gob"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/mweigel/agentportal/internal/view"
)

func init() {
	// CookieStore serializes session values with gob.
	gob.Register(view.Flash{})
}

// FlashStore holds one-shot notices in a signed cookie session, shown
// on the next page render and then discarded.
type FlashStore struct {
	store *sessions.CookieStore
}

// NewFlashStore creates a FlashStore signing its cookie with the given
// secret.
func NewFlashStore(secret string, secure bool) *FlashStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &FlashStore{store: store}
}

// Add queues a flash message for the next rendered page.
func (f *FlashStore) Add(w http.ResponseWriter, r *http.Request, category, message string) {
	session, _ := f.store.Get(r, "flash")
	session.AddFlash(view.Flash{Category: category, Message: message})
	if err := session.Save(r, w); err != nil {
		slog.Error("save flash session", "error", err)
	}
}

// Pop returns and clears any queued flash messages.
func (f *FlashStore) Pop(w http.ResponseWriter, r *http.Request) []view.Flash {
	session, _ := f.store.Get(r, "flash")
	raw := session.Flashes()
	if len(raw) > 0 {
		if err := session.Save(r, w); err != nil {
			slog.Error("save flash session", "error", err)
		}
	}

	flashes := make([]view.Flash, 0, len(raw))
	for _, v := range raw {
		if fl, ok := v.(view.Flash); ok {
			flashes = append(flashes, fl)
		}
	}
	return flashes
}
