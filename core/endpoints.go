package core

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	m "olps/models"
)

const (
	DefaultAddr = ":8080"
)

func GetHttpServer(sc *ServiceContext, addr string) *http.Server {
	if addr == "" {
		addr = DefaultAddr
	}

	server := &http.Server{
		Addr:           addr,
		Handler:        GetRouter(sc),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return server
}

func GetRouter(sc *ServiceContext) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/ping", sc.ping)
		r.Get("/weights", sc.weights)
		r.Get("/wealth", sc.wealth)
		r.Get("/summary", sc.summary)
		r.Get("/target", sc.target)
		r.Get("/charts/wealth.png", sc.wealthChart)
		r.Get("/charts/weights.png", sc.weightsChart)
	})

	return router
}

func (sc *ServiceContext) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}

func (sc *ServiceContext) weights(w http.ResponseWriter, r *http.Request) {
	weights := sc.Driver.Snapshot().Weights
	writeJSON(w, http.StatusOK, ok(sc, &weights))
}

func (sc *ServiceContext) wealth(w http.ResponseWriter, r *http.Request) {
	wealth := sc.Driver.Snapshot().Wealth
	writeJSON(w, http.StatusOK, ok(sc, &wealth))
}

func (sc *ServiceContext) summary(w http.ResponseWriter, r *http.Request) {
	summary := sc.Driver.Summary()
	writeJSON(w, http.StatusOK, ok(sc, &summary))
}

// target is the allocation the next live epoch will be realized with
func (sc *ServiceContext) target(w http.ResponseWriter, r *http.Request) {
	b, err := sc.Driver.Target()
	if err != nil {
		writeJSON(w, http.StatusConflict, fail(sc, err))
		return
	}

	universe := sc.Driver.Universe()
	target := make(map[string]float64, len(b))
	for i, symbol := range universe {
		target[symbol] = b[i]
	}
	writeJSON(w, http.StatusOK, ok(sc, &target))
}

func (sc *ServiceContext) wealthChart(w http.ResponseWriter, r *http.Request) {
	buf, err := RenderWealthChart(sc.Driver.Snapshot(), sc.Strategy.DisplayName())
	sc.writePNG(w, buf, err)
}

func (sc *ServiceContext) weightsChart(w http.ResponseWriter, r *http.Request) {
	buf, err := RenderWeightsChart(sc.Driver.Snapshot(), sc.Strategy.DisplayName())
	sc.writePNG(w, buf, err)
}

func (sc *ServiceContext) writePNG(w http.ResponseWriter, buf []byte, err error) {
	if err != nil {
		log.Printf("Error rendering chart: %v", err)
		writeJSON(w, http.StatusUnprocessableEntity, fail(sc, err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf); err != nil {
		log.Printf("Error writing chart: %v", err)
	}
}

func ok[T any](sc *ServiceContext, data *T) m.ServiceResponse[T] {
	return m.GetServiceResponseOk(sc.Driver.Optimizer().Name(), sc.Driver.Tracker().Epochs(), data)
}

func fail(sc *ServiceContext, err error) m.ServiceResponse[any] {
	return m.GetServiceResponseError(sc.Driver.Optimizer().Name(), sc.Driver.Tracker().Epochs(), err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}
