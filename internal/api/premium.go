package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mizan-app/mizan/internal/app/subscription"
	"github.com/mizan-app/mizan/internal/domain"
)

// paywall returns nil for premium users, else the structured reason.
func paywall(user *domain.User, now time.Time, feature string) *domain.PaywallReason {
	return subscription.PaywallReason(user, now, feature)
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	user, err := s.db.GetUser(userID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	decision, err := s.premium.Decide(user, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleMintToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan string `json:"plan"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.Plan == "" {
		req.Plan = "yearly"
	}

	token, err := s.premium.MintToken(userID(r), req.Plan, "user", s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.Token == "" {
		writeDomainError(w, &domain.ValidationError{Field: "token", Reason: "must not be empty"})
		return
	}

	user, err := s.premium.Redeem(req.Token, userID(r), s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":       user,
		"is_premium": user.IsPremium(s.now()),
	})
}

// handleStripeWebhook mints an activation token when a checkout completes.
// This is the only payment confirmation path: premium is never granted
// directly, only through the token the user then redeems.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	var event struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ClientReferenceID string `json:"client_reference_id"`
				Plan              string `json:"plan"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := decodeJSON(r, &event); err != nil {
		writeDomainError(w, err)
		return
	}

	if event.Type != "checkout.session.completed" {
		// Unhandled event types are acknowledged so the provider stops
		// retrying them.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	id, err := strconv.ParseInt(event.Data.Object.ClientReferenceID, 10, 64)
	if err != nil {
		writeDomainError(w, &domain.ValidationError{Field: "client_reference_id", Reason: "must be a user id"})
		return
	}
	if _, err := s.db.GetUser(id); err != nil {
		writeDomainError(w, err)
		return
	}

	plan := event.Data.Object.Plan
	if plan == "" {
		plan = "yearly"
	}
	token, err := s.premium.MintToken(id, plan, "stripe", s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"token": token.Token})
}
