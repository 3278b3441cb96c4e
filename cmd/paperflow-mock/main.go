package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/adrianliechti/paperflow/server/mock"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	addrFlag := flag.String("addr", "localhost:8080", "listen address")
	tokenFlag := flag.String("token", "", "required bearer token")
	pendingFlag := flag.Int("pending", 2, "pending polls per job")
	chunkedFlag := flag.Bool("chunked", false, "omit content length on downloads")

	flag.Parse()

	handler := mock.New(mock.Options{
		Token: *tokenFlag,

		PendingPolls:     *pendingFlag,
		ChunkedDownloads: *chunkedFlag,
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	handler.Attach(r)

	slog.Info("mock service listening", "addr", *addrFlag)

	if err := http.ListenAndServe(*addrFlag, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
