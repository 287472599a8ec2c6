package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	driver  string
	dataDir string
	dbOK    func(context.Context) bool
}

// NewInfoHandler reports the running configuration. dbOK is asked on every
// request.
func NewInfoHandler(driver, dataDir string, dbOK func(context.Context) bool) *InfoHandler {
	return &InfoHandler{driver: driver, dataDir: dataDir, dbOK: dbOK}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	Driver   string   `json:"driver" doc:"Database driver" example:"duckdb"`
	DataDir  string   `json:"data_dir" doc:"Data directory path"`
	DB       bool     `json:"db" doc:"Whether database is reachable"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	ok := h.dbOK != nil && h.dbOK(ctx)
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "plat-door",
		Version:  Version,
		Driver:   h.driver,
		DataDir:  h.dataDir,
		DB:       ok,
		Features: []string{"door", "pins", "picker", h.driver},
	}}, nil
}
