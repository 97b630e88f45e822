package main

import (
	"fmt"
	"os"

	"github.com/lhtools/tb-pivot-export-go/internal/adapter/driven/auth"
	"github.com/lhtools/tb-pivot-export-go/internal/adapter/driven/config"
	"github.com/lhtools/tb-pivot-export-go/internal/adapter/driven/export"
	"github.com/lhtools/tb-pivot-export-go/internal/adapter/driven/thingsboard"
	"github.com/lhtools/tb-pivot-export-go/internal/adapter/driving/cli"
	"github.com/lhtools/tb-pivot-export-go/internal/application/usecase"
	"github.com/lhtools/tb-pivot-export-go/internal/shared/types"
	"github.com/lhtools/tb-pivot-export-go/pkg/console"
	"github.com/lhtools/tb-pivot-export-go/pkg/version"
)

func main() {
	// Inicializa o aplicativo CLI
	app := cli.NewCLIApp(version.Version)

	// Inicializa os repositórios
	exportRepo := export.NewExportRepository()
	configRepo := config.NewConfigRepository()
	consoleImpl := console.NewConsole()

	app.SetConfigRepository(configRepo)
	app.SetConsole(consoleImpl)

	// O repositório de telemetria depende das credenciais mescladas entre
	// flags e arquivo de configuração, então é construído tardiamente.
	app.SetUseCaseBuilder(func(args *types.CLIArgs) (*usecase.ExportUseCase, error) {
		tokens := auth.NewTokenProvider(args.BaseURL, args.TenantID, args.Username, args.Password, ".cache")
		telemetryRepo := thingsboard.NewTelemetryRepository(args.BaseURL, tokens)
		return usecase.NewExportUseCase(telemetryRepo, exportRepo, configRepo, consoleImpl), nil
	})

	// Executa o aplicativo
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
