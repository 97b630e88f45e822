package types

// CLIArgs represents the command-line arguments.
type CLIArgs struct {
	ConfigFile  string
	PayloadFile string
	TenantID    string
	BaseURL     string
	Username    string
	Password    string
	ReportName  string
	ReportType  []string
	Dir         string
	Order       string
	Serve       bool
	ListenAddr  string
}
