package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-faker/faker/v4"
)

// Request shape must match what the storefront's purchase endpoint expects
type PurchaseRequest struct {
	LineItems []LineItem `json:"line_items"`
}

type LineItem struct {
	OfferID  string `json:"offer_id"`
	Quantity int    `json:"quantity"`
}

func main() {
	// 1. Setting up flags
	targetURL := flag.String("target", "http://localhost:8080/api/v1/purchases", "Target URL for sending purchases")
	rps := flag.Int("rps", 10, "Requests per second")
	offers := flag.Int("offers", 5, "Number of distinct offer ids to draw from")
	flag.Parse()

	log.Printf("Starting generator: target=%s, rps=%d\n", *targetURL, *rps)

	// 2. Managing the request frequency via ticker
	ticker := time.NewTicker(time.Second / time.Duration(*rps))
	defer ticker.Stop()

	// 3. Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Main loop
	for {
		select {
		case <-ticker.C:
			// Start sending in a goroutine so as not to block the ticker
			go sendRequest(*targetURL, *offers)
		case <-ctx.Done():
			log.Println("Shutting down generator...")
			return
		}
	}
}

func sendRequest(url string, offerCount int) {
	reqData := PurchaseRequest{
		LineItems: []LineItem{{
			OfferID:  "offer-" + strconv.Itoa(rand.Intn(offerCount)+1),
			Quantity: rand.Intn(10) + 1,
		}},
	}

	body, err := json.Marshal(reqData)
	if err != nil {
		log.Printf("ERROR: failed to marshal request: %v", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		log.Printf("ERROR: failed to build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Customer-ID", faker.Username())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("ERROR: failed to send request: %v", err)
		return
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close response body : %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		log.Printf("WARN: received non-200 status code: %d", resp.StatusCode)
	} else {
		log.Printf("INFO: purchase sent successfully, status: %d", resp.StatusCode)
	}
}
