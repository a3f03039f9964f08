package mock

import (
	"context"
	"fmt"

	"github.com/ccastromar/qa-forge-fintech/internal/config"
	"github.com/ccastromar/qa-forge-fintech/internal/logx"
)

// App is the standalone mock-fintech service.
type App struct {
	env     *config.EnvVars
	catalog *config.Catalog
	server  *Server
	http    *HTTPServer
}

func New(env *config.EnvVars) (*App, error) {
	catalog, err := config.LoadCatalog(env.DefinitionsDir)
	if err != nil {
		return nil, err
	}
	if !catalog.Complete() {
		return nil, fmt.Errorf("scenario catalog %s: every operation needs at least one scenario", env.DefinitionsDir)
	}
	logx.Info("Config", "loaded %d scenarios from %s", catalog.Len(), env.DefinitionsDir)

	srv := NewServer(catalog)
	return &App{
		env:     env,
		catalog: catalog,
		server:  srv,
		http:    NewHTTPServer(env.Port, srv.Handler(), env.ReadTimeout, env.WriteTimeout),
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	for _, op := range config.Operations {
		logx.Debug("Mock", "%s scenarios: %v", op, a.catalog.Scenarios(op))
	}
	return a.http.Start(ctx)
}
