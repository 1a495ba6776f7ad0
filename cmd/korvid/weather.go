package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/korvid-ai/korvid-core/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type weatherParams struct {
	Latitude  float64 `json:"latitude" jsonschema_description:"Latitude of the location"`
	Longitude float64 `json:"longitude" jsonschema_description:"Longitude of the location"`
	Place     string  `json:"place" jsonschema_description:"Human-readable name of the location"`
}

type weatherResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

// weatherTool looks up current conditions from the Open-Meteo public API.
func weatherTool() llms.Tool {
	client := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	return llms.NewTool("get_weather", "Get the current weather at a location given its coordinates",
		func(ctx context.Context, params weatherParams) (string, error) {
			url := fmt.Sprintf(
				"https://api.open-meteo.com/v1/forecast?latitude=%.4f&longitude=%.4f&current=temperature_2m,wind_speed_10m",
				params.Latitude, params.Longitude,
			)

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return "", fmt.Errorf("failed to build weather request: %w", err)
			}

			resp, err := client.Do(req)
			if err != nil {
				return "", fmt.Errorf("failed to fetch weather: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("weather service responded with %s", resp.Status)
			}

			var weather weatherResponse
			if err := json.NewDecoder(resp.Body).Decode(&weather); err != nil {
				return "", fmt.Errorf("failed to decode weather response: %w", err)
			}

			place := params.Place
			if place == "" {
				place = fmt.Sprintf("%.2f, %.2f", params.Latitude, params.Longitude)
			}
			return fmt.Sprintf("Current weather in %s: %.1f degrees Celsius, wind %.1f km/h.",
				place, weather.Current.Temperature, weather.Current.WindSpeed), nil
		})
}
