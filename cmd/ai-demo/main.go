// README: Standalone demo for the Gemini driver suggestion flow, no server needed.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vilamourachauffeurs/dispatch/internal/ai"
)

// staticDrivers feeds the assistant a fixed pool so the demo runs without a database.
type staticDrivers struct{}

func (staticDrivers) AvailableDrivers(_ context.Context) ([]ai.AvailableDriver, error) {
	return []ai.AvailableDriver{
		{ID: "drv-ana", Name: "Ana Costa", VehicleType: "sedan", Online: true},
		{ID: "drv-rui", Name: "Rui Martins", VehicleType: "minivan", Online: true},
	}, nil
}

func main() {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable not set")
	}

	ctx := context.Background()
	assistant, err := ai.NewGeminiAssistant(ctx, apiKey, staticDrivers{})
	if err != nil {
		log.Fatalf("Failed to initialize assistant: %v", err)
	}
	defer assistant.Close()

	req := ai.SuggestRequest{
		Pickup:     "Faro Airport",
		Dropoff:    "Vilamoura Marina",
		PickupTime: time.Now().Add(3 * time.Hour),
		Pax:        6,
		Notes:      "Golf clubs, two large suitcases",
	}
	fmt.Printf("Request: %d pax, %s to %s\n", req.Pax, req.Pickup, req.Dropoff)

	suggestion, err := assistant.SuggestDriver(ctx, req)
	if err != nil {
		log.Fatalf("Error suggesting driver: %v", err)
	}

	fmt.Printf("Suggested driver: %s\n", suggestion.DriverID)
	fmt.Printf("Reason: %s\n", suggestion.Reason)
}
