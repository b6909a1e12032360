package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vogiaan1904/sessiongate/config"
	"github.com/vogiaan1904/sessiongate/internal/auth"
	"github.com/vogiaan1904/sessiongate/internal/models"
)

var (
	baseURL     = flag.String("url", "http://localhost:8080", "sessiongate HTTP base URL")
	sessionID   = flag.String("session", "", "Session ID (required)")
	sessionType = flag.String("type", "", "Session type: academic, quran or interactive (optional)")
	userID      = flag.String("user", "student-1", "User ID placed in the token subject")
	role        = flag.String("role", "student", "Role claim: teacher or student")
	secret      = flag.String("secret", "jwt-secret", "JWT signing secret")
	issuer      = flag.String("issuer", "", "JWT issuer")
	concurrency = flag.Int("n", 50, "Number of concurrent join requests")
	leave       = flag.Bool("leave", false, "Leave the meeting after joining")
)

type joinResult struct {
	status  int
	eventID string
	created bool
	err     error
}

func main() {
	flag.Parse()

	if *sessionID == "" {
		fmt.Println("Error: --session flag is required")
		flag.Usage()
		os.Exit(1)
	}

	token, err := auth.Sign(
		config.JWTConfig{Secret: *secret, Issuer: *issuer},
		auth.Principal{UserID: *userID, Role: models.Role(*role)},
		time.Hour,
	)
	if err != nil {
		fmt.Printf("Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cli := &http.Client{Timeout: 10 * time.Second}

	fmt.Printf("🚀 Sending %d concurrent joins for session %s as %s (%s)\n", *concurrency, *sessionID, *userID, *role)
	start := time.Now()
	results := make([]joinResult, *concurrency)

	var wg sync.WaitGroup
	for i := range results {
		wg.Go(func() {
			results[i] = post(ctx, cli, token, "join")
		})
	}
	wg.Wait()

	byStatus := map[int]int{}
	events := map[string]int{}
	created := 0
	for _, r := range results {
		if r.err != nil {
			fmt.Printf("   request error: %v\n", r.err)
			continue
		}
		byStatus[r.status]++
		if r.eventID != "" {
			events[r.eventID]++
		}
		if r.created {
			created++
		}
	}

	fmt.Printf("\n✅ Done in %v\n", time.Since(start))
	fmt.Printf("📊 Responses by status: %v\n", byStatus)
	fmt.Printf("🎯 Distinct attendance events: %d (created flag set %d times)\n", len(events), created)
	if len(events) > 1 || created > 1 {
		fmt.Println("❌ Join is not idempotent")
		os.Exit(2)
	}

	if *leave {
		r := post(ctx, cli, token, "leave")
		if r.err != nil {
			fmt.Printf("Failed to leave: %v\n", r.err)
			os.Exit(1)
		}
		fmt.Printf("👋 Leave returned %d for event %s\n", r.status, r.eventID)
	}
}

func post(ctx context.Context, cli *http.Client, token, action string) joinResult {
	url := fmt.Sprintf("%s/api/v1/sessions/%s/%s", *baseURL, *sessionID, action)
	if *sessionType != "" {
		url += "?type=" + *sessionType
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return joinResult{err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-Id", uuid.NewString())

	res, err := cli.Do(req)
	if err != nil {
		return joinResult{err: err}
	}
	defer res.Body.Close()

	var body struct {
		Created bool `json:"created"`
		Event   struct {
			ID string `json:"id"`
		} `json:"attendance_event"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return joinResult{status: res.StatusCode, err: err}
	}

	return joinResult{status: res.StatusCode, eventID: body.Event.ID, created: body.Created}
}
