package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tuneflow/internal/api"
	"tuneflow/internal/store"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON-RPC HTTP server (validate/plan/run history)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				if p := os.Getenv("PORT"); p != "" {
					addr = ":" + p
				} else {
					addr = ":8080"
				}
			}

			var st *store.Store
			if rf.DSN != "" {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				s, err := store.Open(ctx, rf.DSN)
				if err != nil {
					return err
				}
				st = s
				defer st.Close()
			}

			srv := api.NewServer(api.ServerOptions{Store: st})

			mux := http.NewServeMux()
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			mux.Handle("/rpc", srv)

			fmt.Println("listening on", addr)
			return http.ListenAndServe(addr, mux)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen addr (default :8080, or :$PORT)")
	return cmd
}
