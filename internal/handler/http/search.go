package http

import (
	"net/http"
	"strconv"

	"github.com/w-h-a/tutor/internal/fault"
	"github.com/w-h-a/tutor/internal/service/search"
)

type SearchHandler struct {
	search *search.Service
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	limit, err := intParam(values.Get("limit"), search.DefaultLimit)
	if err != nil {
		writeError(w, r, fault.New(fault.KindInvalidInput, "http.search", "limit must be an integer"))
		return
	}

	offset, err := intParam(values.Get("offset"), 0)
	if err != nil {
		writeError(w, r, fault.New(fault.KindInvalidInput, "http.search", "offset must be an integer"))
		return
	}

	res, err := h.search.Search(r.Context(), search.Query{
		Text:   values.Get("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func intParam(raw string, def int) (int, error) {
	if len(raw) == 0 {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func NewSearchHandler(s *search.Service) *SearchHandler {
	return &SearchHandler{search: s}
}
