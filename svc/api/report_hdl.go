package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sealbin/pkg/domain"
	"sealbin/svc/util"
)

type reportPasteReq struct {
	DecryptionKey string `json:"decryptionKey"`
	Reason        string `json:"reason"`
}

func (h *Hdl) ReportPaste(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	if !isJSON(r) {
		writeErr(w, domain.ErrInvalidRequest, requestID)
		return
	}
	pasteID := chi.URLParam(r, "id")
	var req reportPasteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, domain.ErrInvalidRequest, requestID)
		return
	}
	if _, err := h.reports.Create(r.Context(), pasteID, req.DecryptionKey, req.Reason); err != nil {
		writeErr(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type configResp struct {
	Paste  pasteConfig  `json:"paste"`
	Report reportConfig `json:"report"`
}
type pasteConfig struct {
	MaxSizeBytes   int64 `json:"maxSizeBytes"`
	ExpiryRequired bool  `json:"expiryRequired"`
	MaxExpirySecs  int64 `json:"maxExpirySecs"`
}
type reportConfig struct {
	Enabled   bool `json:"enabled"`
	MinLength int  `json:"minLength"`
}

// Config publishes the instance limits clients need before they encrypt and
// submit anything. It is the one unauthenticated endpoint besides the probes.
func (h *Hdl) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, configResp{
		Paste: pasteConfig{
			MaxSizeBytes:   h.cfg.MaxPasteSize,
			ExpiryRequired: h.cfg.ExpiryRequired,
			MaxExpirySecs:  h.cfg.MaxExpirySecs,
		},
		Report: reportConfig{
			Enabled:   h.cfg.ReportsEnabled,
			MinLength: h.cfg.ReportMinLength,
		},
	})
}

type statisticsResp struct {
	TotalPastes int64 `json:"totalPastes"`
}

func (h *Hdl) Statistics(w http.ResponseWriter, r *http.Request) {
	total, err := h.pastes.Count(r.Context())
	if err != nil {
		writeErr(w, err, util.GetRequestID(r.Context()))
		return
	}
	writeJSON(w, http.StatusOK, statisticsResp{TotalPastes: total})
}
