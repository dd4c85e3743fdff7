// README: Entry point; loads config, wires stores and services, starts HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vilamourachauffeurs/dispatch/internal/ai"
	"github.com/vilamourachauffeurs/dispatch/internal/config"
	httptransport "github.com/vilamourachauffeurs/dispatch/internal/http"
	"github.com/vilamourachauffeurs/dispatch/internal/http/handlers"
	"github.com/vilamourachauffeurs/dispatch/internal/infra"
	"github.com/vilamourachauffeurs/dispatch/internal/maps"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/aiquota"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/booking"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/fleet"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/notification"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/report"
)

// onlineDriverLister exposes the fleet's online drivers to the AI assistant.
type onlineDriverLister struct {
	fleet *fleet.Service
}

func (l onlineDriverLister) AvailableDrivers(ctx context.Context) ([]ai.AvailableDriver, error) {
	drivers, err := l.fleet.AvailableDrivers(ctx, true)
	if err != nil {
		return nil, err
	}
	out := make([]ai.AvailableDriver, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, ai.AvailableDriver{
			ID:          string(d.ID),
			Name:        d.Name,
			VehicleType: string(d.VehicleType),
			Online:      d.Online,
		})
	}
	return out, nil
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("DISPATCH_FIREBASE_PROJECT_ID is required")
	}
	app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatalf("firebase: %v", err)
	}
	verifier, err := infra.NewTokenVerifier(ctx, app)
	if err != nil {
		log.Fatalf("firebase auth: %v", err)
	}
	messagingClient, err := infra.NewMessaging(ctx, app)
	if err != nil {
		log.Fatalf("firebase messaging: %v", err)
	}

	db, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	rdb := infra.NewRedis(cfg.Redis.Addr)
	defer rdb.Close()

	presence := fleet.NewPresence(rdb, time.Duration(cfg.Presence.TTLSeconds)*time.Second)
	fleetSvc := fleet.NewService(fleet.NewStore(db), presence)

	notificationSvc := notification.NewService(notification.NewStore(db), notification.NewFCMSender(messagingClient))

	bookingSvc := booking.NewService(booking.NewStore(db), notificationSvc, fleetSvc)

	quotaSvc := aiquota.NewService(aiquota.NewStore(db, cfg.AI.MonthlyCalls))
	reportSvc := report.NewService(report.NewStore(db))

	var estimator handlers.Estimator
	if cfg.AI.MapsKey != "" {
		routes, err := maps.NewRouteService(cfg.AI.MapsKey)
		if err != nil {
			log.Fatalf("maps: %v", err)
		}
		estimator = routes
	} else {
		log.Println("MAPS_API_KEY not set, travel estimates disabled")
	}

	var aiHandler *handlers.AIHandler
	if cfg.AI.GeminiKey != "" {
		assistant, err := ai.NewGeminiAssistant(ctx, cfg.AI.GeminiKey, onlineDriverLister{fleet: fleetSvc})
		if err != nil {
			log.Fatalf("gemini: %v", err)
		}
		defer assistant.Close()
		aiHandler = handlers.NewAIHandler(assistant, quotaSvc, estimator)
	} else {
		log.Println("GEMINI_API_KEY not set, AI endpoints disabled")
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Verifier:      verifier,
		Booking:       bookingSvc,
		Fleet:         fleetSvc,
		Notifications: notificationSvc,
		Reports:       reportSvc,
		AI:            aiHandler,
	})

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("dispatch-api listening on %s", cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
}
