package handler

import (
	"log/slog"
	"net/http"

	"github.com/mweigel/agentportal/internal/service"
	"github.com/mweigel/agentportal/internal/view"
)

// SearchHandler serves the premium-gated search feature.
type SearchHandler struct {
	search *service.SearchService
	views  *view.Renderer
	flash  *FlashStore
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(search *service.SearchService, views *view.Renderer, flash *FlashStore) *SearchHandler {
	return &SearchHandler{search: search, views: views, flash: flash}
}

// HandleSearch proxies the query upstream and renders the results.
// Upstream failure renders the page with an empty result list and the
// error message instead of failing the request.
// GET /search, POST /search
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	query := r.FormValue("query")
	if query == "" {
		h.flash.Add(w, r, "warning", "Please enter a search term.")
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	page := view.Page{
		Title:     "Search results",
		Email:     user.Email,
		LoggedIn:  true,
		IsPremium: user.IsPremium,
		Query:     query,
	}

	results, err := h.search.Search(r.Context(), query)
	if err != nil {
		slog.Warn("search upstream failed", "query", query, "error", err)
		page.Error = err.Error()
	}
	page.Results = results

	page.Flashes = h.flash.Pop(w, r)
	if err := h.views.Render(w, "search_results.html", page); err != nil {
		slog.Error("render page", "template", "search_results.html", "error", err)
	}
}
