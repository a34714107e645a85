package bot

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type statusPayload struct {
	LastFetchedDate string `json:"last_fetched_date"`
	LastPostedDate  string `json:"last_posted_date"`
	Subscribers     int    `json:"subscribers"`
}

// Routes mounts the operational HTTP endpoints.
func (s *Service) Routes(router *mux.Router) {
	router.Methods(http.MethodGet).Path("/healthz").HandlerFunc(s.handleHealth)
	router.Methods(http.MethodGet).Path("/status").HandlerFunc(s.handleStatus)
}

func (s *Service) handleHealth(writer http.ResponseWriter, _ *http.Request) {
	if _, err := writer.Write([]byte("ok")); err != nil {
		logrus.Debugf("unable to write health response: %v", err.Error())
	}
}

func (s *Service) handleStatus(writer http.ResponseWriter, _ *http.Request) {
	channels, err := s.channels.Load()
	if err != nil {
		logrus.Errorf("unable to load channels for status: %v", err.Error())
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}
	payload := statusPayload{
		LastFetchedDate: s.apod.LastDate(),
		LastPostedDate:  s.LastPosted(),
		Subscribers:     len(channels),
	}
	writer.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(writer).Encode(payload); err != nil {
		logrus.Errorf("unable to encode status response: %v", err.Error())
	}
}
