package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	stripe "github.com/stripe/stripe-go/v72"

	"nova-ai-bot/internal/handlers"
	"nova-ai-bot/internal/payments"
	"nova-ai-bot/pkg/logger"
	"nova-ai-bot/types"
)

// Server receives Stripe webhooks. Card payments confirm only through
// this path, so the webhook is what actually credits the purchase.
type Server struct {
	server   *http.Server
	stripe   *payments.StripeClient
	handlers *handlers.Handlers
	bot      *bot.Bot
	log      *logger.Logger
}

func New(port string, stripeClient *payments.StripeClient, h *handlers.Handlers, b *bot.Bot, log *logger.Logger) *Server {
	s := &Server{
		stripe:   stripeClient,
		handlers: h,
		bot:      b,
		log:      log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/stripe", s.handleStripeWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.log.Infow("starting http server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("stopping http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<16))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	event, err := s.stripe.VerifyWebhook(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		s.log.Errorw("webhook signature verification failed", "error", err)
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			s.log.Errorw("parsing checkout session failed", "error", err)
			http.Error(w, "Failed to parse event data", http.StatusBadRequest)
			return
		}
		if session.ClientReferenceID == "" {
			s.log.Errorw("checkout session missing client reference", "session_id", session.ID)
			http.Error(w, "Missing client reference ID", http.StatusBadRequest)
			return
		}
		// Settle in the background so Stripe is not kept waiting.
		go s.settleSession(session)

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err == nil {
			s.log.Errorw("stripe payment failed", "payment_id", intent.ID)
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Webhook received"))
}

func (s *Server) settleSession(session stripe.CheckoutSession) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	payload := session.ClientReferenceID
	userID, err := s.handlers.PayloadUserID(ctx, payload)
	if err != nil {
		s.log.Errorw("resolving stripe payload failed", "session_id", session.ID, "error", err)
		return
	}

	charge := session.ID
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		charge = session.PaymentIntent.ID
	}
	p := types.Payment{
		UserID:                userID,
		Method:                types.PaymentStripe,
		Currency:              types.USD,
		TotalAmount:           float64(session.AmountTotal) / 100,
		InvoicePayload:        payload,
		ProviderPaymentCharge: charge,
		CreatedAt:             time.Now().UTC(),
	}
	if err := s.handlers.SettlePayment(ctx, s.bot, p); err != nil {
		s.log.Errorw("settling stripe payment failed", "session_id", session.ID, "error", err)
	}
}
