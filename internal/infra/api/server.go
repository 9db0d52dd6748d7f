package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	red "lovepage-backend/internal/infra/redis"
	"lovepage-backend/internal/usecase"
)

// Server wires the activation endpoints to their use cases.
type Server struct {
	checkoutUC   usecase.CheckoutUseCase
	activationUC usecase.ActivationUseCase
	codeUC       usecase.CodeUseCase
	sweepUC      usecase.SweepUseCase

	limiter      *red.RateLimiter
	codeAttempts int
	codeWindow   time.Duration

	adminAPIKey string
	log         *zerolog.Logger
}

type ServerOpts struct {
	Limiter      *red.RateLimiter
	CodeAttempts int
	CodeWindow   time.Duration
	AdminAPIKey  string
}

func NewServer(
	checkoutUC usecase.CheckoutUseCase,
	activationUC usecase.ActivationUseCase,
	codeUC usecase.CodeUseCase,
	sweepUC usecase.SweepUseCase,
	opts ServerOpts,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "api").Logger()
	return &Server{
		checkoutUC:   checkoutUC,
		activationUC: activationUC,
		codeUC:       codeUC,
		sweepUC:      sweepUC,
		limiter:      opts.Limiter,
		codeAttempts: opts.CodeAttempts,
		codeWindow:   opts.CodeWindow,
		adminAPIKey:  opts.AdminAPIKey,
		log:          &l,
	}
}

// Router builds the chi mux with the full middleware chain.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	wrap := func(h http.Handler) http.Handler {
		return Chain(h,
			Recover(s.log),
			TraceID(s.log),
			RequestLog(s.log),
			CORS(),
			Timeout(30*time.Second),
		)
	}

	r.Method(http.MethodPost, "/api/v1/create-checkout", wrap(http.HandlerFunc(s.handleCreateCheckout)))
	r.Method(http.MethodOptions, "/api/v1/create-checkout", wrap(noop()))
	r.Method(http.MethodPost, "/api/v1/create-payment-intent", wrap(http.HandlerFunc(s.handleCreatePaymentIntent)))
	r.Method(http.MethodOptions, "/api/v1/create-payment-intent", wrap(noop()))
	r.Method(http.MethodPost, "/api/v1/activate-gift-page", wrap(http.HandlerFunc(s.handleActivateGiftPage)))
	r.Method(http.MethodOptions, "/api/v1/activate-gift-page", wrap(noop()))
	r.Method(http.MethodPost, "/api/v1/stripe-webhook", wrap(http.HandlerFunc(s.handleStripeWebhook)))
	r.Method(http.MethodOptions, "/api/v1/stripe-webhook", wrap(noop()))
	r.Method(http.MethodPost, "/api/v1/validate-activation-code", wrap(http.HandlerFunc(s.handleValidateActivationCode)))
	r.Method(http.MethodOptions, "/api/v1/validate-activation-code", wrap(noop()))
	r.Method(http.MethodPost, "/api/v1/check-expired-subscriptions", wrap(s.adminGuard(http.HandlerFunc(s.handleCheckExpired))))
	r.Method(http.MethodOptions, "/api/v1/check-expired-subscriptions", wrap(noop()))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func noop() http.Handler {
	// CORS middleware answers the preflight; this never runs.
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// adminGuard protects the manual sweep trigger with a static bearer
// key. An empty configured key leaves the endpoint open.
func (s *Server) adminGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminAPIKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] != s.adminAPIKey {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
