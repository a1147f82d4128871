package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/autopilot/logger"
	"github.com/mohitkumar/autopilot/model"
	"github.com/mohitkumar/autopilot/service"
	"go.uber.org/zap"
)

type matchResponse struct {
	PatternId string                        `json:"patternId"`
	Criteria  model.PatternMatchingCriteria `json:"criteria"`
}

func (s *Server) HandleLearnPattern(w http.ResponseWriter, r *http.Request) {
	var req service.LearnRequest
	if err := decode(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := s.patternService.Learn(req)
	if err != nil {
		logger.Error("error learning pattern", zap.String("messageType", string(req.MessageType)), zap.Error(err))
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, p.Data())
}

func (s *Server) HandleGetPattern(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, err := s.patternService.Get(id)
	if err != nil {
		logger.Info("pattern not found", zap.String("id", id), zap.Error(err))
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p.Data())
}

func (s *Server) HandleDeletePattern(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.patternService.Delete(id); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleGetReliability(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	report, err := s.patternService.Reliability(id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

func (s *Server) HandleMatchPattern(w http.ResponseWriter, r *http.Request) {
	var req model.AutomationRequest
	if err := decode(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	candidates, err := s.patternService.Match(req)
	if err != nil {
		logger.Error("error matching patterns", zap.String("host", req.Context.Hostname), zap.Error(err))
		respondWithServiceError(w, err)
		return
	}
	out := make([]matchResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, matchResponse{
			PatternId: c.Pattern.Id(),
			Criteria:  c.Criteria,
		})
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) HandleExecutePattern(w http.ResponseWriter, r *http.Request) {
	var req model.AutomationRequest
	if err := decode(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := s.patternService.Execute(r.Context(), req)
	if err != nil {
		logger.Error("error executing pattern", zap.String("messageType", string(req.MessageType)), zap.String("host", req.Context.Hostname), zap.Error(err))
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}
