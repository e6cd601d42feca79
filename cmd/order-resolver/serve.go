package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/orderdocs/order-resolver/pkg/logging"
	"github.com/orderdocs/order-resolver/pkg/resolver"
	"github.com/orderdocs/order-resolver/pkg/search"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the resolution HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildResolver()
		if err != nil {
			return err
		}
		return runServer(eng, viper.GetString("serve.addr"))
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
}

// engine is the resolution surface the HTTP layer needs.
type engine interface {
	Resolve(ctx context.Context, rawText, token string) (*resolver.Result, error)
}

// resolveRequest is the POST /v1/resolve body.
type resolveRequest struct {
	// Input is the raw identifier list exactly as pasted by the user.
	Input string `json:"input"`

	// Token is the upstream bearer token; the Authorization header wins
	// when both are present.
	Token string `json:"token,omitempty"`
}

func runServer(eng engine, addr string) error {
	logger := logging.NewLogger("server")

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/resolve", resolveHandler(eng))

	server := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Starting resolution service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func resolveHandler(eng engine) http.HandlerFunc {
	logger := logging.NewLogger("server")

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req resolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}

		token := req.Token
		if auth := r.Header.Get("Authorization"); auth != "" {
			token = strings.TrimPrefix(auth, "Bearer ")
		}

		result, err := eng.Resolve(r.Context(), req.Input, token)
		if err != nil {
			if errors.Is(err, search.ErrUnauthorized) {
				// The caller owns re-authentication.
				http.Error(w, "upstream rejected authorization token", http.StatusUnauthorized)
				return
			}
			logger.Error().Err(err).Msg("Resolution failed")
			http.Error(w, fmt.Sprintf("resolution failed: %v", err), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			logger.Error().Err(err).Msg("Failed to write response")
		}
	}
}
