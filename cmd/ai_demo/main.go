package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"cotizador/internal/ai"
)

func main() {
	message := flag.String("m", "Necesito mover 3 toneladas de Monterrey a Guadalajara el próximo lunes", "request to parse")
	flag.Parse()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	provider, err := ai.NewGeminiProvider(ctx, apiKey)
	if err != nil {
		log.Fatalf("Failed to initialize AI provider: %v", err)
	}
	defer provider.Close()

	currentContext := map[string]string{
		"current_date": time.Now().Format("2006-01-02 (Monday)"),
	}

	fmt.Printf("User: %s\n", *message)

	result, err := provider.ParseQuoteIntent(ctx, *message, currentContext)
	if err != nil {
		log.Fatalf("Error parsing intent: %v", err)
	}

	fmt.Printf("AI Reply: %s\n", result.Reply)
	fmt.Printf("Service: %s\n", result.Service)
	fmt.Printf("Route: %s -> %s\n", result.Origin, result.Destination)
	if result.WeightTons > 0 {
		fmt.Printf("Weight: %.2f t\n", result.WeightTons)
	}
	if result.LengthCm > 0 {
		fmt.Printf("Dimensions: %.0f x %.0f x %.0f cm\n", result.LengthCm, result.WidthCm, result.HeightCm)
	}
	if result.ServiceDate != "" {
		fmt.Printf("Date: %s\n", result.ServiceDate)
	}
	if missing := result.MissingFields(); len(missing) > 0 {
		fmt.Printf("Missing: %s\n", strings.Join(missing, ", "))
	}
}
