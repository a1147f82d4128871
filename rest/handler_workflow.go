package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/autopilot/logger"
	"github.com/mohitkumar/autopilot/model"
	"go.uber.org/zap"
)

func (s *Server) HandleCreateFlow(w http.ResponseWriter, r *http.Request) {
	var def model.WorkflowDefinition
	if err := decode(r, &def); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := s.workflowService.Register(def); err != nil {
		logger.Error("error creating workflow", zap.String("name", def.Name), zap.Error(err))
		respondWithServiceError(w, err)
		return
	}
	respondOK(w, map[string]any{"created": true})
}

func (s *Server) HandleGetFlow(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	wf, err := s.workflowService.Get(name)
	if err != nil {
		logger.Info("workflow does not exist", zap.String("name", name))
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, wf.Definition())
}

func (s *Server) HandleRunFlow(w http.ResponseWriter, r *http.Request) {
	var runReq model.WorkflowRunRequest
	if err := decode(r, &runReq); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if r.URL.Query().Get("async") == "true" {
		id, err := s.workflowService.RunAsync(runReq)
		if err != nil {
			logger.Error("error queueing workflow", zap.String("name", runReq.Name), zap.Error(err))
			respondWithServiceError(w, err)
			return
		}
		respondWithJSON(w, http.StatusAccepted, map[string]any{"runId": id})
		return
	}
	run, err := s.workflowService.Run(r.Context(), runReq)
	if err != nil {
		logger.Error("error running workflow", zap.String("name", runReq.Name), zap.Error(err))
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, run)
}

func (s *Server) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, ok := s.workflowService.GetRun(id)
	if !ok {
		respondWithError(w, http.StatusNotFound, "workflow run not found")
		return
	}
	respondWithJSON(w, http.StatusOK, run)
}
