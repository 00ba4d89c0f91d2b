package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sealbin/pkg/domain"
	"sealbin/svc/util"
)

const (
	defaultPage    = 1
	defaultPerPage = 20
)

// ListReports pages through open reports newest-first. page and perPage are
// optional query parameters; malformed values are a 400, not silently
// clamped.
func (h *Hdl) ListReports(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	page, err := queryInt(r, "page", defaultPage)
	if err != nil {
		writeErr(w, domain.ErrInvalidPage, requestID)
		return
	}
	perPage, err := queryInt(r, "perPage", defaultPerPage)
	if err != nil {
		writeErr(w, domain.ErrInvalidPage, requestID)
		return
	}
	resp, err := h.reports.List(r.Context(), page, perPage)
	if err != nil {
		writeErr(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Hdl) GetReport(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErr(w, domain.ErrReportNotFound, requestID)
		return
	}
	report, err := h.reports.Get(r.Context(), id)
	if err != nil {
		writeErr(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Hdl) DeleteReport(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErr(w, domain.ErrReportNotFound, requestID)
		return
	}
	if err := h.reports.Delete(r.Context(), id); err != nil {
		writeErr(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminDeletePaste removes a paste without a deletion key. Filed reports
// stay behind so the moderation trail is not erased with the content.
func (h *Hdl) AdminDeletePaste(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.pastes.DeleteByAdmin(r.Context(), id); err != nil {
		writeErr(w, err, util.GetRequestID(r.Context()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, fallback int64) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
