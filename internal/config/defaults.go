package config

const (
	defaultConfigPath  = "~/.config/asmref/config.toml"
	projectConfigName  = "asmref.toml"
	defaultExtension   = ".dll"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
	defaultRetention   = 30
	defaultExportDB    = "~/.local/share/asmref/inventory.db"
	dotnetRootEnv      = "DOTNET_ROOT"
	dotnetSharedSubdir = "shared"
	dotnetPacksSubdir  = "packs"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Search: Search{
			Extensions: []string{defaultExtension},
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetention,
		},
		Export: Export{
			Database: defaultExportDB,
		},
	}
}
