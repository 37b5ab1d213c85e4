// meteoctl uploads a CSV file of station readings to a running meteo-monitor
// server and prints the import summary.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cretemeteo/meteo-monitor/internal/models"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8081", "base URL of the meteo-monitor server")
	token := flag.String("token", os.Getenv("SERVER_AUTH_TOKEN"), "API auth token")
	stationID := flag.String("station", "", "ID of the station the file belongs to")
	stationName := flag.String("station-name", "", "station display name (informational)")
	filePath := flag.String("file", "", "path to the CSV file to import")
	timeout := flag.Duration("timeout", 2*time.Minute, "request timeout")
	flag.Parse()

	if *stationID == "" || *filePath == "" {
		fmt.Fprintln(os.Stderr, "both -station and -file are required")
		flag.Usage()
		os.Exit(2)
	}

	csvData, err := os.ReadFile(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", *filePath, err)
		os.Exit(1)
	}

	payload, err := json.Marshal(map[string]string{
		"stationId":   *stationID,
		"stationName": *stationName,
		"csvData":     string(csvData),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode request: %v\n", err)
		os.Exit(1)
	}

	req, err := http.NewRequest(http.MethodPost, *serverURL+"/api/import", bytes.NewReader(payload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+*token)

	client := &http.Client{Timeout: *timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			fmt.Fprintf(os.Stderr, "import failed (%s): %s\n", resp.Status, apiErr.Error)
		} else {
			fmt.Fprintf(os.Stderr, "import failed: %s\n", resp.Status)
		}
		os.Exit(1)
	}

	var summary models.ImportSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		fmt.Fprintf(os.Stderr, "failed to decode response: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(summary.Message)
	fmt.Printf("  parsed rows: %d\n", summary.TotalRows)
	fmt.Printf("  inserted:    %d\n", summary.Inserted)
	fmt.Printf("  errors:      %d\n", summary.Errors)
	fmt.Printf("  skipped:     %d\n", summary.Skipped)

	if summary.Errors > 0 {
		os.Exit(1)
	}
}
