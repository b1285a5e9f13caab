// cmd/server/main.go
package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/brightfund/email-backend/internal/auth"
	"github.com/brightfund/email-backend/internal/controller"
	"github.com/brightfund/email-backend/internal/db"
	"github.com/brightfund/email-backend/internal/handler"
	"github.com/brightfund/email-backend/internal/mailer"
	"github.com/brightfund/email-backend/internal/repository"
	"github.com/brightfund/email-backend/internal/service"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found, relying on OS environment variables")
	}

	db.Init()

	sequenceRepo := &repository.SequenceRepository{DB: db.DB}
	templateRepo := &repository.TemplateRepository{DB: db.DB}
	queueRepo := &repository.QueueRepository{DB: db.DB}
	recipientRepo := &repository.RecipientRepository{DB: db.DB}
	logRepo := &repository.EmailLogRepository{DB: db.DB}

	sender := newSender()

	dispatch := &service.DispatchService{
		SequenceRepo:  sequenceRepo,
		TemplateRepo:  templateRepo,
		QueueRepo:     queueRepo,
		RecipientRepo: recipientRepo,
	}
	delivery := &service.DeliveryService{
		QueueRepo:    queueRepo,
		TemplateRepo: templateRepo,
		LogRepo:      logRepo,
		Sender:       sender,
	}
	analytics := &service.AnalyticsService{
		QueueRepo:    queueRepo,
		LogRepo:      logRepo,
		SequenceRepo: sequenceRepo,
		TemplateRepo: templateRepo,
	}
	sweep := &service.SweepService{
		RecipientRepo: recipientRepo,
		TemplateRepo:  templateRepo,
		LogRepo:       logRepo,
		Dispatch:      dispatch,
		Sender:        sender,
	}

	dispatchController := &controller.DispatchController{
		Dispatch: dispatch,
		Sweep:    sweep,
	}
	analyticsHandler := &handler.AnalyticsHandler{
		Analytics: analytics,
		Delivery:  delivery,
		LogRepo:   logRepo,
	}

	authorizer := &auth.Authorizer{
		Verifier: auth.NewHTTPVerifier(os.Getenv("AUTH_VERIFY_URL")),
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Post("/emails/trigger", dispatchController.Trigger)
	r.Post("/emails/events", analyticsHandler.RecordEvent)
	r.Post("/emails/broadcast", authorizer.RequireAdmin(dispatchController.Broadcast))
	r.Post("/emails/welcome-sweep", authorizer.RequireAdmin(dispatchController.WelcomeSweep))
	r.Get("/emails/analytics", authorizer.RequireAdmin(analyticsHandler.GetReport))
	r.Get("/emails/queue/due", authorizer.RequireAdmin(analyticsHandler.ListDue))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Msg("server running")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newSender() mailer.Sender {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		log.Warn().Msg("SENDGRID_API_KEY not set, using mock sender")
		return &mailer.MockSender{}
	}
	return mailer.NewSendGridSender(apiKey, os.Getenv("FROM_NAME"), os.Getenv("FROM_EMAIL"))
}
