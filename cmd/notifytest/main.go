// Package main provides a load tool for the owner notification socket. It
// connects listeners as a property owner and submits anonymous inquiries on
// one of their listings, counting what arrives over the websocket.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the test results
type Metrics struct {
	ConnectionsAttempted  int64
	ConnectionsSuccess    int64
	ConnectionsFailed     int64
	InquiriesSent         int64
	NotificationsReceived int64
	Errors                int64
}

var metrics Metrics

var httpClient = &http.Client{Timeout: 5 * time.Second}

func main() {
	host := flag.String("host", "localhost:8080", "API server host")
	email := flag.String("email", "admin@realestate.local", "Owner account email")
	password := flag.String("password", "", "Owner account password")
	propertyID := flag.String("property", "", "Owned property to send inquiries to")
	clients := flag.Int("clients", 10, "Number of concurrent listeners")
	interval := flag.Duration("interval", 2*time.Second, "Delay between inquiries")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	flag.Parse()

	if *propertyID == "" {
		log.Fatal("-property is required")
	}

	log.Printf("Target: %s, listeners: %d, duration: %v", *host, *clients, *duration)

	token, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runListener(*host, token, &wg, stopChan)
		time.Sleep(50 * time.Millisecond) // Stagger connections to allow ticket issuance
	}

	wg.Add(1)
	go runSender(*host, *propertyID, *interval, &wg, stopChan)

	select {
	case <-time.After(*duration):
		log.Println("test duration reached")
	case <-interrupt:
		log.Println("interrupted")
	}

	close(stopChan)
	wg.Wait()

	printMetrics(*clients)
}

func postJSON(rawURL, token string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return httpClient.Do(req)
}

func login(host, email, password string) (string, error) {
	resp, err := postJSON(fmt.Sprintf("http://%s/api/auth/login", host), "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func getTicket(host, token string) (string, error) {
	resp, err := postJSON(fmt.Sprintf("http://%s/api/ws/ticket", host), token, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ticket issuance failed with status %d", resp.StatusCode)
	}

	var result struct {
		Ticket string `json:"ticket"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Ticket, nil
}

func runListener(host, token string, wg *sync.WaitGroup, stopChan <-chan struct{}) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	// Each connection needs a fresh single-use ticket.
	ticket, err := getTicket(host, token)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: "ticket=" + ticket}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	go func() {
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				return
			}
			var event struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(raw, &event) == nil && event.Type == "inquiry_received" {
				atomic.AddInt64(&metrics.NotificationsReceived, 1)
			}
		}
	}()

	<-stopChan
	_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func runSender(host, propertyID string, interval time.Duration, wg *sync.WaitGroup, stopChan <-chan struct{}) {
	defer wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 1; ; n++ {
		select {
		case <-stopChan:
			return
		case <-ticker.C:
			resp, err := postJSON(fmt.Sprintf("http://%s/api/inquiries", host), "", map[string]string{
				"propertyId": propertyID,
				"name":       fmt.Sprintf("Load Tester %d", n),
				"email":      fmt.Sprintf("load%d@example.net", n),
				"message":    "Is this listing still available?",
			})
			if err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				continue
			}
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				atomic.AddInt64(&metrics.Errors, 1)
				continue
			}
			atomic.AddInt64(&metrics.InquiriesSent, 1)
		}
	}
}

func printMetrics(listeners int) {
	sent := atomic.LoadInt64(&metrics.InquiriesSent)
	log.Println("Test Results")
	log.Println("============")
	log.Printf("Connections Attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("Connections Successful: %d", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	log.Printf("Connections Failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("Inquiries Sent: %d", sent)
	log.Printf("Notifications Received: %d (expected up to %d)",
		atomic.LoadInt64(&metrics.NotificationsReceived), sent*int64(listeners))
	log.Printf("Total Errors: %d", atomic.LoadInt64(&metrics.Errors))
}
