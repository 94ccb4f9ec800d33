package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"

	"github.com/sohan181204/collaborative-canvas/internal/api"
	"github.com/sohan181204/collaborative-canvas/internal/config"
	"github.com/sohan181204/collaborative-canvas/internal/ws"
)

func main() {
	cfg := config.Load()

	hub := ws.NewHub(cfg)
	go hub.Run()

	apiHandler := api.New(hub)

	router := mux.NewRouter()
	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r)
	})
	router.HandleFunc("/health", apiHandler.HealthHandler).Methods("GET")
	router.HandleFunc("/api/stats", apiHandler.StatsHandler).Methods("GET")

	handler := corsMiddleware(router)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		hub.Stop()
		os.Exit(0)
	}()

	log.Printf("Canvas relay starting on :%s", cfg.Server.Port)
	log.Println("Endpoints:")
	log.Println("  - WebSocket: /ws")
	log.Println("  - Health:    GET /health")
	log.Println("  - Stats:     GET /api/stats")

	if err := http.ListenAndServe(":"+cfg.Server.Port, handler); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
