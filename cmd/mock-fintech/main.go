package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ccastromar/qa-forge-fintech/internal/config"
	"github.com/ccastromar/qa-forge-fintech/internal/logx"
	"github.com/ccastromar/qa-forge-fintech/internal/mock"
)

// runner is the minimal interface the mock app must satisfy for running.
type runner interface{ Run(context.Context) error }

// appCtor is a constructor indirection to enable testing without binding a port.
var appCtor = func(env *config.EnvVars) (runner, error) { return mock.New(env) }

// fatalf indirection allows testing fatal paths without exiting the test process.
var fatalf = log.Fatalf

func run(ctx context.Context, env *config.EnvVars) {
	a, err := appCtor(env)
	if err != nil {
		fatalf("error initializing mock-fintech: %v", err)
		return
	}
	if err := a.Run(ctx); err != nil {
		fatalf("error running mock-fintech: %v", err)
		return
	}
}

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		fatalf("error loading env: %v", err)
		return
	}

	port := flag.Int("port", env.Port, "HTTP port to listen on")
	defs := flag.String("definitions", env.DefinitionsDir, "directory with scenario YAML files")
	flag.Parse()
	env.Port = *port
	env.DefinitionsDir = *defs
	logx.SetEnv(env.AppEnv)
	logx.SetLevel(env.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	run(ctx, env)
}
