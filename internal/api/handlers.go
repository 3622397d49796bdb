package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/susu3304/finbot/internal/ledger"
)

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), a.storeTimeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	if err := a.store.Ping(ctx); err != nil {
		log.Printf("api: health check failed: %v", err)
		status, code = "database unavailable", http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (a *API) handleChatReminders(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chat_id"]
	if chatID == "" {
		http.Error(w, "invalid chat_id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.storeTimeout)
	defer cancel()
	reminders, err := a.store.PendingReminders(ctx, chatID)
	if err != nil {
		log.Printf("api: failed to list reminders for %s: %v", chatID, err)
		http.Error(w, "failed to list reminders", http.StatusInternalServerError)
		return
	}
	if claims, ok := r.Context().Value(claimsKey).(*Claims); ok {
		log.Printf("api: %s listed %d reminders for chat %s", claims.Subject, len(reminders), chatID)
	}
	if reminders == nil {
		reminders = []ledger.Reminder{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reminders)
}
