package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"tuneflow/internal/api"
	"tuneflow/internal/store"
)

// tuneflow-server is the standalone registry endpoint, for deployments
// where the launch CLI runs on training hosts and dashboards talk to a
// central service.
//
// Endpoints:
// - GET  /healthz
// - POST /rpc   (minimal JSON-RPC handler)
//
// Run history is persisted in PostgreSQL when DATABASE_URL is provided;
// without it the server still validates and plans experiment specs.
func main() {
	var addr string
	flag.StringVar(&addr, "addr", "", "listen address (default :$PORT or :8080)")
	flag.Parse()

	if addr == "" {
		if p := os.Getenv("PORT"); p != "" {
			addr = ":" + p
		} else {
			addr = ":8080"
		}
	}

	dsn := os.Getenv("DATABASE_URL")
	var st *store.Store
	if dsn != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := store.Open(ctx, dsn)
		if err != nil {
			fmt.Fprintln(os.Stderr, "db connect:", err)
			os.Exit(1)
		}
		st = s
		defer st.Close()
	}

	srv := api.NewServer(api.ServerOptions{Store: st})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/rpc", srv)

	fmt.Println("listening on", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
