// Command oauth-init runs the OAuth consent flow once and stores the token the
// report mirror worker uses to write to Google Sheets.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/oauth2"

	"receipts/internal/cli"
	applog "receipts/internal/log"
	gsheet "receipts/internal/sheets/google"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentSheets)

	clientJSON := os.Getenv("GOOGLE_OAUTH_CLIENT_JSON")
	clientFile := os.Getenv("GOOGLE_OAUTH_CLIENT_FILE")
	var b []byte
	switch {
	case clientJSON != "":
		b = []byte(clientJSON)
	case clientFile != "":
		var err error
		b, err = os.ReadFile(clientFile)
		if err != nil {
			cli.Fatal(fmt.Errorf("read client file: %w", err))
		}
	default:
		cli.Fatal(errors.New("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE"))
	}

	cfg, err := gsheet.OAuthConfig(b)
	if err != nil {
		cli.Fatal(err)
	}

	// The redirect URI must be listed in the OAuth client's authorized
	// redirect URIs.
	redirectPort := os.Getenv("OAUTH_REDIRECT_PORT")
	if redirectPort == "" {
		redirectPort = "8085"
	}
	cfg.RedirectURL = "http://localhost:" + redirectPort + "/callback"

	state := newState()
	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	srv := &http.Server{Addr: ":" + redirectPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if errStr := q.Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		if q.Get("state") != state {
			http.Error(w, "OAuth state mismatch", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		select {
		case codeCh <- q.Get("code"):
		default:
		}
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Callback server failed", "error", err, "port", redirectPort)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	fmt.Printf("Open this URL to authorize:\n%s\n", cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)

	select {
	case code := <-codeCh:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		tok, err := cfg.Exchange(ctx, code)
		if err != nil {
			cli.Fatal(fmt.Errorf("token exchange: %w", err))
		}
		outFile := os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")
		if outFile == "" {
			outFile = "token.json"
		}
		if err := gsheet.SaveToken(outFile, tok); err != nil {
			cli.Fatal(err)
		}
		logger.Info("Saved OAuth token", "path", outFile, "expiry", tok.Expiry)
	case <-time.After(5 * time.Minute):
		cli.Fatal(errors.New("authorization timed out"))
	case <-interrupted:
		cli.Fatal(errors.New("interrupted"))
	}
}

func newState() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "receipts-oauth"
	}
	return hex.EncodeToString(buf[:])
}
