package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/kwv/pinmesh/mesh"
	"github.com/rs/cors"
)

// apiError is the JSON body of every non-2xx response.
type apiError struct {
	Error string `json:"error"`
}

type addPointRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}

// newHTTPServer creates the HTTP API for a session. hub and metrics may be nil.
func newHTTPServer(session *mesh.Session, scene *mesh.Scene, config *mesh.Config, metrics *mesh.Metrics, hub *Hub) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			Points    int       `json:"points"`
			Groups    int       `json:"groups"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			Points:    len(session.Points()),
			Groups:    len(session.Groups()),
		}
		writeJSON(w, http.StatusOK, status)
	}).Methods(http.MethodGet)

	router.HandleFunc("/points", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, session.Points())
	}).Methods(http.MethodGet)

	router.HandleFunc("/points", func(w http.ResponseWriter, r *http.Request) {
		var req addPointRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Lat == nil || req.Lng == nil {
			writeError(w, http.StatusBadRequest, "lat and lng are required")
			return
		}
		if err := mesh.ValidateLatLng(*req.Lat, *req.Lng); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		p, err := session.AddPoint(*req.Lat, *req.Lng)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}).Methods(http.MethodPost)

	router.HandleFunc("/points", func(w http.ResponseWriter, r *http.Request) {
		session.ClearAll()
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)

	router.HandleFunc("/points/{id}", func(w http.ResponseWriter, r *http.Request) {
		p, ok := session.Point(mux.Vars(r)["id"])
		if !ok {
			writeError(w, http.StatusNotFound, "point not found")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}).Methods(http.MethodGet)

	router.HandleFunc("/points/{id}/rename", func(w http.ResponseWriter, r *http.Request) {
		p, ok := session.RenamePoint(mux.Vars(r)["id"])
		if !ok {
			writeError(w, http.StatusNotFound, "point not found")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}).Methods(http.MethodPost)

	router.HandleFunc("/groups", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, session.Groups())
	}).Methods(http.MethodGet)

	router.HandleFunc("/groups.geojson", func(w http.ResponseWriter, r *http.Request) {
		data, err := session.FeatureCollection().MarshalJSON()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.Write(data)
	}).Methods(http.MethodGet)

	router.HandleFunc("/groups/{id}/recolor", func(w http.ResponseWriter, r *http.Request) {
		g, ok, err := session.RecolorGroup(mux.Vars(r)["id"])
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		writeJSON(w, http.StatusOK, g)
	}).Methods(http.MethodPost)

	router.HandleFunc("/boundaries", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, session.Boundaries())
	}).Methods(http.MethodGet)

	router.HandleFunc("/recluster", func(w http.ResponseWriter, r *http.Request) {
		if err := session.Recluster(); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, session.Groups())
	}).Methods(http.MethodPost)

	router.HandleFunc("/commands/{command}", func(w http.ResponseWriter, r *http.Request) {
		var payload json.RawMessage
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
		}
		err := session.Execute(mux.Vars(r)["command"], payload)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, mesh.ErrNotFound), errors.Is(err, mesh.ErrUnknownCommand):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, mesh.ErrInconsistentState):
			writeError(w, http.StatusInternalServerError, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
	}).Methods(http.MethodPost)

	renderer := mesh.NewVectorRenderer(scene, config.Map)

	router.HandleFunc("/map.svg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToSVG(w); err != nil {
			log.Errorf("Error rendering map SVG: %v", err)
		}
	}).Methods(http.MethodGet)

	router.HandleFunc("/map.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToPNG(w); err != nil {
			log.Errorf("Error rendering map PNG: %v", err)
		}
	}).Methods(http.MethodGet)

	if hub != nil {
		router.Handle("/ws", hub)
	}
	router.Handle("/metrics", metrics.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(router)
}
