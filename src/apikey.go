package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

var errEmptyAPIKey = errors.New("api key file is empty")

// readAPIKey returns the trimmed contents of the CommAPIKey file
func readAPIKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read api key: %w", err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", errEmptyAPIKey
	}
	return key, nil
}

// waitForAPIKey polls path until the game has written a key or ctx is done.
// The file only appears once the game has been started with -HTTPAPI.
func waitForAPIKey(ctx context.Context, path string, interval time.Duration) (string, error) {
	for {
		key, err := readAPIKey(path)
		if err == nil {
			log.Println("Loaded TSW CommAPIKey")
			return key, nil
		}
		log.Printf("Waiting for TSW CommAPIKey at %s: %v\n", path, err)

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
