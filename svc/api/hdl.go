package api

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sealbin/pkg/domain"
	"sealbin/svc/svc"
	"sealbin/svc/util"
)

// Hdl holds the HTTP handlers. Validation beyond basic request-shape checks
// lives in the service layer; handlers only translate between the wire and
// domain types.
type Hdl struct {
	pastes  *svc.Paste
	reports *svc.Report
	cfg     cfgView
}

// cfgView is the slice of configuration the handlers expose via GET /config.
type cfgView struct {
	MaxPasteSize    int64
	ExpiryRequired  bool
	MaxExpirySecs   int64
	ReportsEnabled  bool
	ReportMinLength int
}

func NewHdl(pastes *svc.Paste, reports *svc.Report, view cfgView) *Hdl {
	if pastes == nil || reports == nil {
		panic("handler: nil service dependency")
	}
	return &Hdl{pastes: pastes, reports: reports, cfg: view}
}

type createPasteReq struct {
	EncryptedTitle      string `json:"encryptedTitle"`
	EncryptedContent    string `json:"encryptedContent"`
	EncryptedSyntaxType string `json:"encryptedSyntaxType"`
	ExpiresAt           *int64 `json:"expiresAt"`
}

type createPasteResp struct {
	ID          string `json:"id"`
	DeletionKey string `json:"deletionKey"`
}

func (h *Hdl) CreatePaste(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	if !isJSON(r) {
		writeErr(w, domain.ErrInvalidRequest, requestID)
		return
	}
	// The body cap is generous relative to MAX_PASTE_SIZE: base64 and JSON
	// framing inflate the ciphertext before the service measures it.
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxPasteSize*2+4096)
	var req createPasteReq
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			writeErr(w, domain.ErrPasteTooLarge, requestID)
			return
		}
		writeErr(w, domain.ErrInvalidRequest, requestID)
		return
	}
	paste, deletionKey, err := h.pastes.Create(r.Context(), domain.CreateParams{
		EncryptedTitle:      req.EncryptedTitle,
		EncryptedContent:    req.EncryptedContent,
		EncryptedSyntaxType: req.EncryptedSyntaxType,
		ExpiresAt:           req.ExpiresAt,
	})
	if err != nil {
		writeErr(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, createPasteResp{ID: paste.ID, DeletionKey: deletionKey})
}

func (h *Hdl) GetPaste(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	paste, err := h.pastes.Get(r.Context(), id)
	if err != nil {
		writeErr(w, err, util.GetRequestID(r.Context()))
		return
	}
	writeJSON(w, http.StatusOK, paste)
}

type deletePasteReq struct {
	DeletionKey string `json:"deletionKey"`
}

func (h *Hdl) DeletePaste(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")
	var req deletePasteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeletionKey == "" {
		writeErr(w, domain.ErrInvalidRequest, requestID)
		return
	}
	if err := h.pastes.DeleteBySecret(r.Context(), id, req.DeletionKey); err != nil {
		writeErr(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	return err == nil && mediaType == "application/json"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		util.Error().Err(err).Msg("failed to encode response")
	}
}

// writeErr renders domain errors as plain-text bodies. Anything that is not
// a domain.Err collapses to a generic 500 so internals never leak.
func writeErr(w http.ResponseWriter, err error, requestID string) {
	status := domain.Status(err)
	msg := domain.Message(err)
	if status >= http.StatusInternalServerError {
		util.Error().Err(err).Str("request_id", requestID).Msg("request failed")
		msg = domain.ErrInternalServer.Msg
	}
	http.Error(w, msg, status)
}
