// Package server wires the door API, the picker pages and the static assets
// into one HTTP handler.
package server

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-door/internal/api"
	"github.com/joeblew999/plat-door/internal/api/picker"
	"github.com/joeblew999/plat-door/internal/config"
	"github.com/joeblew999/plat-door/internal/db"
	"github.com/joeblew999/plat-door/internal/service"
	"github.com/joeblew999/plat-door/internal/store"
	"github.com/joeblew999/plat-door/internal/templates"
	"github.com/joeblew999/plat-door/pkg/doorclient"
	"github.com/joeblew999/plat-door/web"
)

// Config holds the server configuration.
type Config struct {
	Host string
	Port string
	DB   db.Config
	// Settings is the loaded settings file.
	Settings config.Settings
	// APIURL is where the picker submits buildings. Empty means this server.
	APIURL string
	// WebDir serves templates and static files from disk instead of the
	// embedded copy, re-reading templates on every page load.
	WebDir string
	Log    logrus.FieldLogger
}

// Server is the door HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	db       *db.DB
	services *api.Services
	sessions *service.SessionService
	bus      *service.EventBus
	log      logrus.FieldLogger
}

// New builds the server. The database is opened but not contacted; call
// Start before serving.
func New(cfg Config) (*Server, error) {
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	conn, err := db.Open(cfg.DB)
	if err != nil {
		return nil, err
	}

	var assets fs.FS = web.FS
	if cfg.WebDir != "" {
		assets = os.DirFS(cfg.WebDir)
	}
	renderer, err := templates.New(assets)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("load templates: %w", err)
	}

	baseURL := fmt.Sprintf("http://%s:%s", displayHost(cfg.Host), cfg.Port)
	if cfg.APIURL == "" {
		cfg.APIURL = baseURL
	}

	mux := http.NewServeMux()
	humaAPI := humago.New(mux, api.NewConfig(baseURL))
	humaAPI.UseMiddleware(api.CORS)
	humaAPI.UseMiddleware(api.RequestLogger(cfg.Log))

	bus := service.NewEventBus()
	st := cfg.Settings
	services := &api.Services{
		Door: service.NewDoorService(store.NewBuildingStore(conn), service.Settings{
			TerritoryID:        st.TerritoryID,
			CongregationAppID:  st.CongregationAppID,
			CongregationLangID: st.CongregationLangID,
		}, bus, cfg.Log),
		Tile: service.NewTileService(st.Tiles),
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		db:       conn,
		services: services,
		sessions: service.NewSessionService(st.SessionTTL, cfg.Log),
		bus:      bus,
		log:      cfg.Log,
	}

	if err := s.routes(renderer, assets); err != nil {
		conn.Close()
		return nil, err
	}

	var h http.Handler = mux
	if cfg.WebDir != "" {
		h = reloadPages(h, renderer, assets, cfg.Log)
	}
	// preflights are answered here; plain OPTIONS /door reaches huma
	s.handler = cors.New(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:       []string{"*"},
		OptionsSuccessStatus: http.StatusNoContent,
	}).Handler(h)
	return s, nil
}

// reloadPages re-parses the templates before every page request.
func reloadPages(next http.Handler, r *templates.Renderer, assets fs.FS, log logrus.FieldLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet && !strings.HasPrefix(req.URL.Path, "/api/") && !strings.HasPrefix(req.URL.Path, "/static/") {
			if err := r.Reload(assets); err != nil {
				log.WithError(err).Warn("Template reload failed, keeping previous templates")
			}
		}
		next.ServeHTTP(w, req)
	})
}

func displayHost(host string) string {
	if host == "" || host == "0.0.0.0" {
		return "localhost"
	}
	return host
}

func (s *Server) routes(renderer *templates.Renderer, assets fs.FS) error {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.services))
	api.NewBuildingsHandler(s.services.Door).RegisterRoutes(s.humaAPI)
	api.NewInfoHandler(string(s.db.Driver), s.config.DB.DataDir, func(ctx context.Context) bool {
		return s.db.PingContext(ctx) == nil
	}).RegisterRoutes(s.humaAPI)

	// Picker SSE routes and pages
	ph := picker.NewHandler(picker.Deps{
		Sessions:  s.sessions,
		Buildings: s.services.Door,
		Bus:       s.bus,
		Submit:    doorclient.New(s.config.APIURL, doorclient.WithTimeout(s.config.Settings.SubmitTimeout)),
		Settings:  s.config.Settings,
		Renderer:  renderer,
		Log:       s.log,
	})
	ph.RegisterRoutes(s.humaAPI)
	ph.RegisterPages(s.mux)

	static, err := fs.Sub(assets, "static")
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	return nil
}

// Start connects to the database, creates the schema and begins sweeping
// idle picker sessions until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if err := s.db.Connect(ctx, s.config.DB.ConnectTimeout, s.log); err != nil {
		return fmt.Errorf("connect %s: %w", s.db.Driver, err)
	}
	if err := s.db.Migrate(ctx); err != nil {
		return err
	}
	go s.sessions.Run(ctx)

	s.log.WithFields(logrus.Fields{
		"driver":  s.db.Driver,
		"api_url": s.config.APIURL,
	}).Info("Server ready")
	return nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// HTTPServer returns an http.Server for addr with conservative header
// timeouts. SSE streams need no write timeout.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// DB exposes the database for the migrate subcommand.
func (s *Server) DB() *db.DB {
	return s.db
}

// Close closes server resources.
func (s *Server) Close() error {
	return s.db.Close()
}
