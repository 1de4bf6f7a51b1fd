package server

import (
	"net/http"

	"github.com/raterudder/apsystems-sensor/pkg/types"
)

type valueResponse struct {
	types.Reading
	Unit string `json:"unit"`
	// Lux is the value mapped into the accessory's light sensor range.
	Lux float64 `json:"lux"`
}

func (s *Server) handleValue(w http.ResponseWriter, r *http.Request) {
	reading := s.poller.Poll(r.Context())
	info := s.poller.Info()
	writeJSON(w, valueResponse{
		Reading: reading,
		Unit:    reading.Kind.Unit(),
		Lux:     info.Lux.Clamp(reading.Value),
	})
}

func (s *Server) handleAccessory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.poller.Info())
}
