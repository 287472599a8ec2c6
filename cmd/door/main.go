package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-door/internal/config"
	"github.com/joeblew999/plat-door/internal/db"
	"github.com/joeblew999/plat-door/internal/logging"
	"github.com/joeblew999/plat-door/internal/server"
	"github.com/joeblew999/plat-door/pkg/doorclient"
)

// Options defines all CLI flags and env vars for the door server.
// Flags: --host, --port, --db-driver, --db-dsn, --data-dir, --config, --api-url, --web-dir
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DB_DRIVER, ...
type Options struct {
	Host     string `doc:"Host to bind to" default:"0.0.0.0"`
	Port     int    `doc:"Port to listen on" short:"p" default:"3001"`
	DBDriver string `name:"db-driver" doc:"Database driver: duckdb, sqlite or postgres" default:"duckdb"`
	DBDSN    string `name:"db-dsn" doc:"Database DSN, required for postgres"`
	DataDir  string `name:"data-dir" doc:"Directory for database files" default:".data"`
	Config   string `doc:"Path to the YAML settings file" short:"c" default:"door.yaml"`
	APIURL   string `name:"api-url" doc:"Door API base URL the picker submits to (default: this server)"`
	WebDir   string `name:"web-dir" doc:"Serve templates and static files from this web/ directory instead of the embedded copy"`
}

func newServer(opts *Options) (*server.Server, error) {
	settings, found, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	if !found {
		logging.Logger.WithField("path", opts.Config).Debug("No settings file, using defaults")
	}

	return server.New(server.Config{
		Host: opts.Host,
		Port: strconv.Itoa(opts.Port),
		DB: db.Config{
			Driver:         db.Driver(opts.DBDriver),
			DSN:            opts.DBDSN,
			DataDir:        opts.DataDir,
			ConnectTimeout: 30 * time.Second,
		},
		Settings: settings,
		APIURL:   opts.APIURL,
		WebDir:   opts.WebDir,
		Log:      logging.Logger,
	})
}

func mustServer(opts *Options) *server.Server {
	srv, err := newServer(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return srv
}

func main() {
	envErr := godotenv.Load()
	logging.Init("door")
	log := logging.Logger
	if envErr != nil {
		log.WithError(envErr).Warn("No .env loaded")
	}

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var (
			srv     *server.Server
			httpSrv *http.Server
			cancel  context.CancelFunc
		)

		hooks.OnStart(func() {
			srv = mustServer(opts)

			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			if err := srv.Start(ctx); err != nil {
				log.WithError(err).Fatal("Startup failed")
			}

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-door server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  DB:      %s\n", opts.DBDriver)
			fmt.Println()
			fmt.Printf("  Picker:  %s/\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			httpSrv = srv.HTTPServer(addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Fatal("Server error")
			}
		})

		hooks.OnStop(func() {
			if cancel != nil {
				cancel()
			}
			if httpSrv != nil {
				ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				if err := httpSrv.Shutdown(ctx); err != nil {
					log.WithError(err).Warn("Shutdown")
				}
			}
			if srv != nil {
				srv.Close()
			}
		})
	})

	cli.Root().Use = "door"
	cli.Root().Short = "Pin buildings on a map and record their doors"
	cli.Root().Version = "1.0.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := mustServer(opts)
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// migrate subcommand: create the schema and exit
	cli.Root().AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := mustServer(opts)
			defer srv.Close()
			ctx := cmd.Context()
			if err := srv.DB().Connect(ctx, 30*time.Second, log); err != nil {
				log.WithError(err).Fatal("Connect failed")
			}
			if err := srv.DB().Migrate(ctx); err != nil {
				log.WithError(err).Fatal("Migration failed")
			}
			log.WithField("driver", opts.DBDriver).Info("Schema ready")
		}),
	})

	// latest subcommand: print the newest building from a running server
	cli.Root().AddCommand(&cobra.Command{
		Use:   "latest",
		Short: "Print the most recent building",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			url := opts.APIURL
			if url == "" {
				url = fmt.Sprintf("http://localhost:%d", opts.Port)
			}
			b, err := doorclient.New(url).Latest(cmd.Context())
			if errors.Is(err, doorclient.ErrNotFound) {
				fmt.Println("No buildings found")
				return
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			out, _ := json.MarshalIndent(b, "", "  ")
			fmt.Println(string(out))
		}),
	})

	cli.Run()
}
