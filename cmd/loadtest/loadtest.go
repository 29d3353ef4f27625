//nolint:all
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/wook219/pyeonjip-support/internal/chatclient"
	"github.com/wook219/pyeonjip-support/internal/model"
)

// Drives one user through the full support flow against a running
// server: signup, login, open a waiting room, and (when ADMIN_TOKEN is
// set) activate it and exchange a few messages.
func main() {
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	email := fmt.Sprintf("loadtest-%s@test.com", uuid.NewString()[:8])
	password := "loadtest-password"

	if err := post(ctx, base+"/api/account/signup", map[string]string{
		"username": "loadtest",
		"email":    email,
		"password": password,
	}, nil); err != nil {
		log.Fatalf("signup failed: %v", err)
	}

	var login struct {
		AccessToken string `json:"accessToken"`
	}
	if err := post(ctx, base+"/api/account/login", map[string]string{
		"email":    email,
		"password": password,
	}, &login); err != nil {
		log.Fatalf("login failed: %v", err)
	}

	api := chatclient.NewAPI(base, login.AccessToken)
	session := chatclient.NewSession(api, email)
	defer session.Leave()

	if err := session.SelectCategory(ctx, model.CategoryDelivery); err != nil {
		log.Fatalf("failed to create waiting room: %v", err)
	}
	room := session.Room()
	log.Printf("waiting room %d created", room.ID)

	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		log.Printf("ADMIN_TOKEN not set; stopping at the waiting room")
		return
	}

	admin := chatclient.NewDashboard(chatclient.NewAPI(base, adminToken), "ADMIN")
	if _, err := admin.Activate(ctx, room.ID); err != nil {
		log.Fatalf("failed to activate room %d: %v", room.ID, err)
	}

	// Wait for the activation frame to flip the session.
	deadline := time.Now().Add(10 * time.Second)
	for session.State() != chatclient.StateActive {
		if time.Now().After(deadline) {
			log.Fatalf("room %d never became active", room.ID)
		}
		time.Sleep(200 * time.Millisecond)
		_ = session.RefreshRoom(ctx)
	}

	for i := range 5 {
		if err := session.Send(fmt.Sprintf("loadtest message %d", i)); err != nil {
			log.Fatalf("send failed: %v", err)
		}
	}

	time.Sleep(time.Second)
	confirmed := 0
	for _, m := range session.Messages() {
		if !m.Temp {
			confirmed++
		}
	}
	log.Printf("done: %d confirmed messages in room %d", confirmed, room.ID)
}

func post(ctx context.Context, url string, body, out any) error {
	p, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(p))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", res.StatusCode, url)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
