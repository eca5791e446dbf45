/**
 * @description
 * HTTP handlers for the dunning service.
 */
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Phoenixarjun/CredFlow/internal/app"
	"github.com/Phoenixarjun/CredFlow/internal/store"
)

// Handler holds the application service that handlers will interact with.
type Handler struct {
	service *app.Service
}

// NewHandler creates a new Handler with the given service.
func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) handleRunDunningProcess(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RunDunningProcess(r.Context())
	if err != nil {
		log.Printf("Error running dunning process: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.LatestRun(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			http.Error(w, "No engine runs recorded yet", http.StatusNotFound)
			return
		}
		log.Printf("Error fetching latest engine run: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, run)
}

type recordPaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
}

func (h *Handler) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
		return
	}

	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	result, err := h.service.RecordPayment(r.Context(), invoiceID, req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvoiceNotFound):
			http.Error(w, "Invoice not found", http.StatusNotFound)
		case errors.Is(err, app.ErrInvoiceAlreadyPaid):
			http.Error(w, "Invoice is already paid", http.StatusConflict)
		default:
			log.Printf("Error recording payment for invoice %s: %v", invoiceID, err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

type manualCureRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleManualCure(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	actor, ok := AdminActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req manualCureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		http.Error(w, "A reason is required for a manual cure", http.StatusBadRequest)
		return
	}

	result, err := h.service.ManualCureCustomer(r.Context(), customerID, actor, req.Reason)
	if err != nil {
		log.Printf("Error manually curing customer %s: %v", customerID, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// respondWithJSON writes JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
