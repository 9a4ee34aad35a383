package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/loja-checkout/internal/adapter/backend"
	"github.com/seu-repo/loja-checkout/internal/adapter/external/payment"
	"github.com/seu-repo/loja-checkout/internal/domain"
	"github.com/seu-repo/loja-checkout/internal/service/auth"
	"github.com/seu-repo/loja-checkout/internal/service/checkout"
)

var (
	backendURL    = flag.String("backend", "http://localhost:8080", "Merchant backend base URL")
	amount        = flag.Float64("amount", 49.90, "Charge amount in major currency units")
	currency      = flag.String("currency", "brl", "ISO currency code")
	paymentMethod = flag.String("pm", "pm_card_visa", "Stripe test payment method id (e.g. pm_card_visa, pm_card_chargeDeclined)")
	userID        = flag.String("user", "checkout-sim", "User id to issue the bearer token for")
	environment   = flag.String("env", "development", "Deployment environment (fallback key is refused in production)")
	fallbackKey   = flag.String("fallback-key", "", "Fallback publishable key for when the config fetch fails")
	timeout       = flag.Duration("timeout", 90*time.Second, "Overall deadline for the payment attempt")
	verbose       = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	secretKey := os.Getenv("STRIPE_SECRET_KEY")
	if secretKey == "" {
		fmt.Fprintln(os.Stderr, "STRIPE_SECRET_KEY must be set: the simulator confirms intents directly with the processor")
		os.Exit(1)
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET must be set (same secret as the backend)")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Issue a bearer token the way the backend would after login.
	authService := auth.NewService(jwtSecret, "loja-checkout", logger)
	token, err := authService.IssueToken(*userID, time.Hour)
	if err != nil {
		logger.Fatal("Failed to issue token", zap.Error(err))
	}

	api := backend.NewClient(*backendURL, 15*time.Second, logger)
	gateway := payment.NewStripeGateway(secretKey, logger)

	sessions := checkout.NewSessionInitializer(api, *environment, *fallbackKey, logger)
	intents := checkout.NewIntentRequester(api, logger)
	confirmer := checkout.NewConfirmationCoordinator(gateway, checkout.DefaultConfirmTimeout, logger)
	reporter := checkout.NewRecorderReporter()

	orchestrator := checkout.NewOrchestrator(
		sessions, intents, confirmer, api, staticToken(token), reporter, logger,
	)

	session, err := sessions.Initialize(ctx)
	if err != nil {
		logger.Fatal("Processor session initialization failed", zap.Error(err))
	}
	fmt.Printf("Processor session ready (publishable key %s...)\n", truncate(session.PublishableKey, 12))

	sub := checkout.NewSubmission()
	card := domain.CardInput{PaymentMethodID: *paymentMethod}

	err = orchestrator.Submit(ctx, sub, *amount, *currency, card)
	switch {
	case err == nil:
		fmt.Printf("Payment succeeded: intent %s, %.2f %s\n", sub.IntentID(), *amount, *currency)
	case checkout.IsDeclined(err):
		fmt.Printf("Card declined: %s\n", sub.ErrorMessage())
		os.Exit(1)
	default:
		var confirmErr *checkout.ConfirmationError
		if errors.As(err, &confirmErr) {
			fmt.Printf("Payment not completed (%s): %s\n", confirmErr.Reason, confirmErr.UserMessage())
		} else {
			fmt.Printf("Payment failed: %s\n", sub.ErrorMessage())
		}
		os.Exit(1)
	}
}

// staticToken is a TokenSource for a single pre-issued bearer token.
type staticToken string

func (t staticToken) Token() string { return string(t) }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
