package rest

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"surveyhub/internal/service"
	"surveyhub/internal/transport/rest/handler"
	"surveyhub/internal/transport/rest/middleware"
	"surveyhub/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	SurveyService  *service.SurveyService
	TakeService    *service.TakeService
	ResultsService *service.ResultsService
	TokenService   *service.TokenService
	WSHub          *ws.Hub
	CORSOrigins    []string
	Logger         *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	surveyHandler := handler.NewSurveyHandler(c.SurveyService, c.Logger)
	takeHandler := handler.NewTakeHandler(c.TakeService, c.Logger)
	resultsHandler := handler.NewResultsHandler(c.ResultsService, c.Logger)
	wsHandler := ws.NewHandler(c.WSHub, c.SurveyService, c.CORSOrigins, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.TokenService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSOrigins))
	r.Use(middleware.RequestLogger(c.Logger))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/take/{surveyId}/sessions", takeHandler.Open).Methods("POST", "OPTIONS")

	// WebSocket routes (operator account in header or query param)
	v1.HandleFunc("/ws/surveys/{id}/results", wsHandler.ResultsWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Respondent routes (require take-session token)
	sessionRoutes := v1.PathPrefix("/take/sessions").Subrouter()
	sessionRoutes.Use(authMW.RequireSession)

	sessionRoutes.HandleFunc("", takeHandler.Get).Methods("GET", "OPTIONS")
	sessionRoutes.HandleFunc("/start", takeHandler.Start).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/answers/{questionId}", takeHandler.SetAnswer).Methods("PUT", "OPTIONS")
	sessionRoutes.HandleFunc("/personal-info", takeHandler.SetPersonalInfo).Methods("PUT", "OPTIONS")
	sessionRoutes.HandleFunc("/next", takeHandler.Next).Methods("POST", "OPTIONS")

	// Operator routes (require account header)
	operatorRoutes := v1.PathPrefix("/surveys").Subrouter()
	operatorRoutes.Use(authMW.RequireOperator)

	operatorRoutes.HandleFunc("", surveyHandler.Create).Methods("POST", "OPTIONS")
	operatorRoutes.HandleFunc("", surveyHandler.List).Methods("GET", "OPTIONS")
	operatorRoutes.HandleFunc("/{id}", surveyHandler.Get).Methods("GET", "OPTIONS")
	operatorRoutes.HandleFunc("/{id}", surveyHandler.Update).Methods("PUT", "OPTIONS")
	operatorRoutes.HandleFunc("/{id}", surveyHandler.Delete).Methods("DELETE", "OPTIONS")
	operatorRoutes.HandleFunc("/{id}/status", surveyHandler.SetStatus).Methods("PUT", "OPTIONS")

	// Results routes (operator only)
	operatorRoutes.HandleFunc("/{id}/responses", resultsHandler.Responses).Methods("GET", "OPTIONS")
	operatorRoutes.HandleFunc("/{id}/results", resultsHandler.Summary).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(origins []string) mux.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.TrimSpace(o)] = struct{}{}
	}
	_, wildcard := allowed["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case len(allowed) == 0 || wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "":
				if _, ok := allowed[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.AccountHeader)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
