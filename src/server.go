package main

import (
	"context"
	"embed"
	"errors"
	"log"
	"net"
	"net/http"
	"time"
)

//go:embed static/index.html static/default.css
var staticFiles embed.FS

// newRouter builds the dashboard's routes
func newRouter(streamHandler, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", serveStatic("static/index.html", "text/html; charset=utf-8"))
	mux.HandleFunc("GET /default.css", serveStatic("static/default.css", "text/css; charset=utf-8"))
	mux.Handle("GET /stream", streamHandler)
	mux.Handle("GET /metrics", metricsHandler)
	return mux
}

func serveStatic(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := staticFiles.ReadFile(name)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	}
}

// httpServerWorker serves the dashboard until ctx is done
func httpServerWorker(ctx context.Context, addr string, handler http.Handler) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// Request contexts end with ctx so open streams close on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
	}()

	log.Printf("HTTP server listening on %s\n", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
	log.Println("HTTP server stopped")
}

// lanAddress returns the first non-loopback IPv4 address of this machine
func lanAddress() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}

// logBanner prints where the dashboard can be reached
func logBanner(addr string) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return
	}
	log.Printf("Server running locally at http://localhost:%s\n", port)
	if ip := lanAddress(); ip != "" {
		log.Printf("Server accessible on local network at http://%s:%s\n", ip, port)
	}
}
