package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Review handlers. Callers reach these through the admin subrouter; the
// acting admin is the authenticated user.

func (h *Handler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	userID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	if err := h.svc.ApproveUser(r.Context(), userID, adminID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (h *Handler) ApproveCardApplication(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	appID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid application id", http.StatusBadRequest)
		return
	}
	card, err := h.svc.ApproveCardApplication(r.Context(), appID, adminID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

func (h *Handler) RejectCardApplication(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	appID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid application id", http.StatusBadRequest)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.svc.RejectCardApplication(r.Context(), appID, adminID, req.Reason); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (h *Handler) ApproveLoan(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	loanID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid loan id", http.StatusBadRequest)
		return
	}
	loan, err := h.svc.ApproveLoan(r.Context(), loanID, adminID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

func (h *Handler) RejectLoan(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	loanID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid loan id", http.StatusBadRequest)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	loan, err := h.svc.RejectLoan(r.Context(), loanID, adminID, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

func (h *Handler) DisburseLoan(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	loanID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid loan id", http.StatusBadRequest)
		return
	}
	loan, err := h.svc.DisburseLoan(r.Context(), loanID, adminID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

func (h *Handler) ApproveProfileUpdate(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	updateID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid update id", http.StatusBadRequest)
		return
	}
	if err := h.svc.ApproveProfileUpdate(r.Context(), updateID, adminID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (h *Handler) RejectProfileUpdate(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.authedUser(w, r)
	if !ok {
		return
	}
	updateID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid update id", http.StatusBadRequest)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.svc.RejectProfileUpdate(r.Context(), updateID, adminID, req.Reason); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}
