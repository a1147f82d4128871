package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/autopilot/logger"
	"github.com/mohitkumar/autopilot/service"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port            int
	patternService  *service.PatternService
	workflowService *service.WorkflowService
}

func NewServer(httpPort int, patternService *service.PatternService, workflowService *service.WorkflowService) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		patternService:  patternService,
		workflowService: workflowService,
		Port:            httpPort,
	}

	router := mux.NewRouter()
	router.HandleFunc("/pattern", s.HandleLearnPattern).Methods(http.MethodPost)
	router.HandleFunc("/pattern/match", s.HandleMatchPattern).Methods(http.MethodPost)
	router.HandleFunc("/pattern/execute", s.HandleExecutePattern).Methods(http.MethodPost)
	router.HandleFunc("/pattern/{id}", s.HandleGetPattern).Methods(http.MethodGet)
	router.HandleFunc("/pattern/{id}", s.HandleDeletePattern).Methods(http.MethodDelete)
	router.HandleFunc("/pattern/{id}/reliability", s.HandleGetReliability).Methods(http.MethodGet)

	router.HandleFunc("/workflow", s.HandleCreateFlow).Methods(http.MethodPost)
	router.HandleFunc("/workflow/execute", s.HandleRunFlow).Methods(http.MethodPost)
	router.HandleFunc("/workflow/run/{id}", s.HandleGetRun).Methods(http.MethodGet)
	router.HandleFunc("/workflow/{name}", s.HandleGetFlow).Methods(http.MethodGet)

	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Error("error shutting down http server", zap.Error(err))
		return err
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI, zap.String("method", r.Method))
		next.ServeHTTP(w, r)
	})
}

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message map[string]any) {
	respondWithJSON(w, http.StatusOK, message)
}

func respondOKWithoutBody(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
