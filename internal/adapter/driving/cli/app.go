package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lhtools/tb-pivot-export-go/pkg/version"

	"github.com/lhtools/tb-pivot-export-go/internal/adapter/driving/api"
	"github.com/lhtools/tb-pivot-export-go/internal/application/usecase"
	"github.com/lhtools/tb-pivot-export-go/internal/domain/repository"
	"github.com/lhtools/tb-pivot-export-go/internal/shared/types"
	"github.com/spf13/cobra"
)

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd       *cobra.Command
	exportUseCase *usecase.ExportUseCase
	configRepo    repository.ConfigRepository
	console       types.ConsoleInterface
	version       string

	// buildUseCase late-binds the use case once credentials are known, since
	// the ThingsBoard URL and account may come from the config file.
	buildUseCase func(args *types.CLIArgs) (*usecase.ExportUseCase, error)
}

// NewCLIApp cria uma nova aplicação CLI.
func NewCLIApp(versionStr string) *CLIApp {
	app := &CLIApp{
		version: versionStr,
	}

	formattedVersion := version.FormatVersion()

	rootCmd := &cobra.Command{
		Use:     "tb-pivot-export",
		Short:   "ThingsBoard telemetry pivot exporter",
		Version: formattedVersion,
		RunE:    app.runCommand,
	}

	rootCmd.SetVersionTemplate(`{{printf "tb-pivot-export version: %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	rootCmd.PersistentFlags().StringP("payload", "p", "", "Path to a widget payload JSON file")
	rootCmd.PersistentFlags().StringP("tenant", "t", "", "Tenant identifier used for token caching")
	rootCmd.PersistentFlags().StringP("url", "u", "", "ThingsBoard base URL, e.g. https://tb.example.com")
	rootCmd.PersistentFlags().String("username", "", "ThingsBoard account username")
	rootCmd.PersistentFlags().String("password", "", "ThingsBoard account password")
	rootCmd.PersistentFlags().StringP("report-name", "n", "", "Base name for the report files (without extension)")
	rootCmd.PersistentFlags().StringSliceP("report-type", "y", []string{"xlsx"}, "Report types: xlsx, csv, json, pdf")
	rootCmd.PersistentFlags().StringP("dir", "d", "", "Directory to save the report files (default: current directory)")
	rootCmd.PersistentFlags().StringP("order", "o", "", "Row order override: ASC or DESC")
	rootCmd.PersistentFlags().Bool("serve", false, "Run as an HTTP server accepting widget payloads")
	rootCmd.PersistentFlags().String("listen", ":8080", "Listen address in serve mode")

	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	return app.rootCmd.Execute()
}

// parseArgs parses command-line arguments into a CLIArgs struct.
func (app *CLIApp) parseArgs() (*types.CLIArgs, error) {
	configFile, _ := app.rootCmd.Flags().GetString("config-file")
	payloadFile, _ := app.rootCmd.Flags().GetString("payload")
	tenantID, _ := app.rootCmd.Flags().GetString("tenant")
	baseURL, _ := app.rootCmd.Flags().GetString("url")
	username, _ := app.rootCmd.Flags().GetString("username")
	password, _ := app.rootCmd.Flags().GetString("password")
	reportName, _ := app.rootCmd.Flags().GetString("report-name")
	reportType, _ := app.rootCmd.Flags().GetStringSlice("report-type")
	dir, _ := app.rootCmd.Flags().GetString("dir")
	order, _ := app.rootCmd.Flags().GetString("order")
	serve, _ := app.rootCmd.Flags().GetBool("serve")
	listen, _ := app.rootCmd.Flags().GetString("listen")

	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = cwd
	} else {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		dir = absDir
	}

	args := &types.CLIArgs{
		ConfigFile:  configFile,
		PayloadFile: payloadFile,
		TenantID:    tenantID,
		BaseURL:     baseURL,
		Username:    username,
		Password:    password,
		ReportName:  reportName,
		ReportType:  reportType,
		Dir:         dir,
		Order:       order,
		Serve:       serve,
		ListenAddr:  listen,
	}

	return args, nil
}

// mergeConfigFile fills in the args the command line left empty from the
// config file. Explicit flags always win.
func (app *CLIApp) mergeConfigFile(args *types.CLIArgs) error {
	if args.ConfigFile == "" {
		return nil
	}
	cfg, err := app.configRepo.LoadConfigFile(args.ConfigFile)
	if err != nil {
		return err
	}

	if args.BaseURL == "" {
		args.BaseURL = cfg.BaseURL
	}
	if args.TenantID == "" {
		args.TenantID = cfg.TenantID
	}
	if args.Username == "" {
		args.Username = cfg.Username
	}
	if args.Password == "" {
		args.Password = cfg.Password
	}
	if args.PayloadFile == "" {
		args.PayloadFile = cfg.Payload
	}
	if args.ReportName == "" {
		args.ReportName = cfg.ReportName
	}
	if !app.rootCmd.Flags().Changed("report-type") && len(cfg.ReportType) > 0 {
		args.ReportType = cfg.ReportType
	}
	if !app.rootCmd.Flags().Changed("dir") && cfg.Dir != "" {
		absDir, err := filepath.Abs(cfg.Dir)
		if err != nil {
			return err
		}
		args.Dir = absDir
	}
	if !app.rootCmd.Flags().Changed("listen") && cfg.ListenAddr != "" {
		args.ListenAddr = cfg.ListenAddr
	}
	return nil
}

// runCommand é o ponto de entrada principal para o comando CLI.
func (app *CLIApp) runCommand(cmd *cobra.Command, args []string) error {
	displayWelcomeBanner(app.version)

	go version.CheckLatestVersion(app.version)

	cliArgs, err := app.parseArgs()
	if err != nil {
		return err
	}

	if err := app.mergeConfigFile(cliArgs); err != nil {
		return err
	}

	if cliArgs.BaseURL == "" {
		return fmt.Errorf("no ThingsBoard URL given, use --url or a config file")
	}

	uc := app.exportUseCase
	if uc == nil && app.buildUseCase != nil {
		uc, err = app.buildUseCase(cliArgs)
		if err != nil {
			return err
		}
	}

	if cliArgs.Serve {
		server := api.NewServer(uc, app.console)
		app.console.LogInfo("Listening on %s", cliArgs.ListenAddr)
		return server.Run(cliArgs.ListenAddr)
	}

	if cliArgs.PayloadFile == "" {
		return fmt.Errorf("no payload given, use --payload or a config file")
	}
	payload, err := loadPayload(cliArgs.PayloadFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return uc.RunExport(ctx, cliArgs, payload)
}

// loadPayload reads a widget payload from a JSON file.
func loadPayload(path string) (*types.WidgetPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading payload file: %w", err)
	}
	var payload types.WidgetPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("error parsing payload file: %w", err)
	}
	return &payload, nil
}

// SetExportUseCase sets a prebuilt export use case for the CLI app.
func (app *CLIApp) SetExportUseCase(useCase *usecase.ExportUseCase) {
	app.exportUseCase = useCase
}

// SetUseCaseBuilder sets the factory used to build the use case from the
// merged CLI arguments.
func (app *CLIApp) SetUseCaseBuilder(build func(args *types.CLIArgs) (*usecase.ExportUseCase, error)) {
	app.buildUseCase = build
}

// SetConfigRepository sets the config repository used for --config-file.
func (app *CLIApp) SetConfigRepository(repo repository.ConfigRepository) {
	app.configRepo = repo
}

// SetConsole sets the console used for CLI output.
func (app *CLIApp) SetConsole(console types.ConsoleInterface) {
	app.console = console
}
