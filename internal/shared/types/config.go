package types

// Config represents the application configuration that can be loaded from a
// TOML, YAML, or JSON file.
type Config struct {
	BaseURL    string   `json:"base_url" yaml:"base_url" toml:"base_url"`
	TenantID   string   `json:"tenant_id" yaml:"tenant_id" toml:"tenant_id"`
	Username   string   `json:"username" yaml:"username" toml:"username"`
	Password   string   `json:"password" yaml:"password" toml:"password"`
	Payload    string   `json:"payload" yaml:"payload" toml:"payload"`
	ReportName string   `json:"report_name" yaml:"report_name" toml:"report_name"`
	ReportType []string `json:"report_type" yaml:"report_type" toml:"report_type"`
	Dir        string   `json:"dir" yaml:"dir" toml:"dir"`
	ListenAddr string   `json:"listen_addr" yaml:"listen_addr" toml:"listen_addr"`
}
