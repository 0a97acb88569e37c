package web

// This file describes the JSON API server for cardledger.
//
// Each endpoint handler is a constructor returning an http.Handler, as
// discussed in Mat Ryer's post at
//
//	https://grafana.com/blog/how-i-write-http-services-in-go-after-13-years/
//
// which allows per-endpoint initialisation (for example embedding the
// fallback dashboard payload) outside the request path.
//
// Helper functions, such as `ServerError` and `clientError`, are at the end
// of the file.

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"cardledger/apiclients/homefinder"
	"cardledger/apiclients/investeasy"
	"cardledger/category"
	"cardledger/config"
	"cardledger/db"
	"cardledger/ingest"
)

// WebApp is the configuration object for the web server.
type WebApp struct {
	log        *log.Logger
	cfg        *config.Config
	db         *db.DB
	ingestor   *ingest.Ingestor
	classifier *category.Classifier
	investEasy *investeasy.Client
	homeFinder *homefinder.Client
	sessions   *scs.SessionManager
	server     *http.Server
}

// New initialises a WebApp. The investeasy and homefinder clients may be
// nil: the house search reports it is not configured, and the house analysis
// skips the portfolio simulation.
func New(
	logger *log.Logger,
	cfg *config.Config,
	db *db.DB,
	ingestor *ingest.Ingestor,
	classifier *category.Classifier,
	investEasy *investeasy.Client,
	homeFinder *homefinder.Client,
) (*WebApp, error) {

	sessions := scs.New()
	sessions.Lifetime = 24 * time.Hour
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.SameSite = http.SameSiteLaxMode

	server := &http.Server{
		Addr:              cfg.Web.ListenAddress,
		ReadHeaderTimeout: time.Duration(30 * time.Second),
		WriteTimeout:      time.Duration(90 * time.Second), // uploads wait on the extractor
		MaxHeaderBytes:    1 << 19,
	}

	webApp := &WebApp{
		log:        logger,
		cfg:        cfg,
		db:         db,
		ingestor:   ingestor,
		classifier: classifier,
		investEasy: investEasy,
		homeFinder: homeFinder,
		sessions:   sessions,
		server:     server,
	}
	return webApp, nil
}

// StartServer starts a WebApp.
func (web *WebApp) StartServer() error {
	web.server.Handler = web.routes()
	web.log.Info("starting server", "address", web.cfg.Web.ListenAddress)
	return web.server.ListenAndServe()
}

// routes connects all of the endpoints and provides middleware.
func (web *WebApp) routes() http.Handler {

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.Handle("/statements/upload", web.handleStatementUpload()).Methods("POST")
	api.Handle("/statements", web.handleStatementsList()).Methods("GET")
	api.Handle("/statements/{id:[a-f0-9]{40}}", web.handleStatementDetail()).Methods("GET")

	api.Handle("/dashboard", web.handleDashboard()).Methods("GET")

	api.Handle("/session", web.handleSessionGet()).Methods("GET")
	api.Handle("/session", web.handleSessionPut()).Methods("POST")

	api.Handle("/house-analysis", web.handleHouseAnalysis()).Methods("POST")
	api.Handle("/house-search", web.handleHouseSearch()).Methods("POST")

	logging := handlers.LoggingHandler(os.Stdout, r)
	return web.sessions.LoadAndSave(logging)
}

// userID resolves the tenant for a request: the session's user id if one has
// been set, otherwise the configured default.
func (web *WebApp) userID(r *http.Request) string {
	if id := web.sessions.GetString(r.Context(), "user_id"); id != "" {
		return id
	}
	return web.cfg.DefaultUserID
}

// handleSessionGet reports the tenant in use for this session.
func (web *WebApp) handleSessionGet() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		web.respondJSON(w, r, http.StatusOK, map[string]string{
			"user_id": web.userID(r),
		})
	})
}

// handleSessionPut sets the tenant for this session.
func (web *WebApp) handleSessionPut() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			web.clientError(w, r, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if payload.UserID == "" {
			web.clientError(w, r, "user_id is required", http.StatusBadRequest)
			return
		}
		web.sessions.Put(r.Context(), "user_id", payload.UserID)
		web.respondJSON(w, r, http.StatusOK, map[string]string{
			"user_id": payload.UserID,
		})
	})
}

// respondJSON writes v as a JSON response.
func (web *WebApp) respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		web.log.Error("response encoding error", "path", r.URL.Path, "error", err)
	}
}

// ServerError logs the error and reports an opaque 500 to the client.
func (web *WebApp) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	web.log.Error("server error", "path", r.URL.Path, "error", err)
	web.respondJSON(w, r, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

// clientError reports a client-caused error with the given status.
func (web *WebApp) clientError(w http.ResponseWriter, r *http.Request, message string, status int) {
	web.respondJSON(w, r, status, map[string]string{
		"error": message,
	})
}
