package api

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"lovepage-backend/internal/domain"
	red "lovepage-backend/internal/infra/redis"
)

// Explicit request/response schemas, decoded at the boundary before any
// business logic runs.

type createCheckoutRequest struct {
	GiftPageID string `json:"giftPageId"`
	Slug       string `json:"slug"`
	Email      string `json:"email,omitempty"`
}

type createCheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

type createPaymentIntentRequest struct {
	GiftPageID    string `json:"giftPageId"`
	Slug          string `json:"slug"`
	Email         string `json:"email,omitempty"`
	PromotionCode string `json:"promotionCode,omitempty"`
}

type appliedPromotion struct {
	Code       string  `json:"code"`
	PercentOff float64 `json:"percentOff,omitempty"`
	AmountOff  int64   `json:"amountOff,omitempty"`
}

type createPaymentIntentResponse struct {
	ClientSecret     string            `json:"clientSecret"`
	Amount           int64             `json:"amount"`
	AppliedPromotion *appliedPromotion `json:"appliedPromotion"`
}

type activateGiftPageRequest struct {
	SessionID  string `json:"sessionId"`
	GiftPageID string `json:"giftPageId"`
}

type validateCodeRequest struct {
	Code       string `json:"code"`
	GiftPageID string `json:"giftPageId"`
}

type validateCodeResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type sweepResponse struct {
	Message          string   `json:"message"`
	Processed        int      `json:"processed"`
	DeactivatedPages []string `json:"deactivatedPages,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req createCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "invalid request body"})
		return
	}
	res, err := s.checkoutUC.CreateCheckout(r.Context(), req.GiftPageID, req.Slug, req.Email)
	if err != nil {
		s.fail(w, r, "create-checkout", err)
		return
	}
	writeJSON(w, http.StatusOK, createCheckoutResponse{URL: res.URL, SessionID: res.SessionID})
}

func (s *Server) handleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req createPaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "invalid request body"})
		return
	}
	res, err := s.checkoutUC.CreatePaymentIntent(r.Context(), req.GiftPageID, req.Slug, req.Email, req.PromotionCode)
	if err != nil {
		s.fail(w, r, "create-payment-intent", err)
		return
	}
	resp := createPaymentIntentResponse{ClientSecret: res.ClientSecret, Amount: res.Amount}
	if res.Applied != nil {
		resp.AppliedPromotion = &appliedPromotion{
			Code:       res.Applied.Code,
			PercentOff: res.Applied.PercentOff,
			AmountOff:  res.Applied.AmountOff,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleActivateGiftPage(w http.ResponseWriter, r *http.Request) {
	var req activateGiftPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "invalid request body"})
		return
	}
	if err := s.activationUC.ConfirmCheckoutSession(r.Context(), req.SessionID, req.GiftPageID); err != nil {
		s.fail(w, r, "activate-gift-page", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to read body"})
		return
	}
	_, err = s.activationUC.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid signature"})
			return
		}
		s.fail(w, r, "stripe-webhook", err)
		return
	}
	// Ignored events are acknowledged too; the processor must not retry them.
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (s *Server) handleValidateActivationCode(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ok, err := s.limiter.Allow(r.Context(), red.CodeAttemptKey(host), s.codeAttempts, s.codeWindow)
		if err != nil {
			// Fail open: the code space is large and availability wins.
			s.log.Warn().Err(err).Msg("rate limiter unavailable")
		} else if !ok {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many attempts"})
			return
		}
	}

	var req validateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "invalid request body"})
		return
	}

	err := s.codeUC.Redeem(r.Context(), req.Code, req.GiftPageID)
	if err != nil {
		// Business rejections are expected user outcomes: 200 with
		// valid=false, not transport errors.
		if reason, ok := rejectionReason(err); ok {
			writeJSON(w, http.StatusOK, validateCodeResponse{Valid: false, Error: reason})
			return
		}
		s.fail(w, r, "validate-activation-code", err)
		return
	}
	writeJSON(w, http.StatusOK, validateCodeResponse{Valid: true, Message: "gift page activated"})
}

func rejectionReason(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrCodeNotFound):
		return "invalid or inactive code", true
	case errors.Is(err, domain.ErrCodeExpired):
		return "code has expired", true
	case errors.Is(err, domain.ErrCodeExhausted):
		return "no uses remaining", true
	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		return "page already has a code activated", true
	}
	return "", false
}

func (s *Server) handleCheckExpired(w http.ResponseWriter, r *http.Request) {
	res, err := s.sweepUC.Sweep(r.Context())
	if err != nil {
		s.fail(w, r, "check-expired-subscriptions", err)
		return
	}
	msg := "no expired subscriptions"
	if res.Processed > 0 {
		msg = "expired subscriptions processed"
	}
	writeJSON(w, http.StatusOK, sweepResponse{
		Message:          msg,
		Processed:        res.Processed,
		DeactivatedPages: res.DeactivatedPages,
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, step string, err error) {
	s.log.Error().Err(err).Str("step", step).Str("path", r.URL.Path).Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
