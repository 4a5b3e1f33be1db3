package config

import (
	"os"
	"path/filepath"

	"github.com/castwave/castwave/lib/util"
	"github.com/castwave/castwave/lib/util/logger"
	"github.com/spf13/viper"
)

var (
	CfgFile string
	log     = logger.GetCastwaveLogger()
)

const CASTWAVE_BASE_DIR = ".castwave"

// InitConfig points viper at the launch file and reads it, creating a
// default one on first run.
func InitConfig() {
	if CfgFile != "" {
		// Use launch file from the flag
		viper.SetConfigFile(CfgFile)
	} else {
		// Set up viper to use the default launch file $HOME/.castwave/castwave.yaml
		viper.AddConfigPath(BuildCastwaveDirPath())
		viper.SetConfigName("castwave")
		viper.SetConfigType("yaml")
	}

	// Load defaults
	setDefaults()

	// handle launch file creating it if needed
	handleConfigFile()
}

func setDefaults() {
	defaults := DefaultLaunchConfig()
	viper.SetDefault("base_dir", defaults.BaseDir)
	viper.SetDefault("log_level", defaults.LogLevel)
	viper.SetDefault("watch_config", defaults.WatchConfig)
}

// NewLaunchConfigFromViper creates a new LaunchConfig from current viper
// settings. This is the preferred way to read launch state instead of
// querying viper keys all over the tree.
func NewLaunchConfigFromViper() *LaunchConfig {
	return &LaunchConfig{
		BaseDir:     viper.GetString("base_dir"),
		LogLevel:    viper.GetString("log_level"),
		WatchConfig: viper.GetBool("watch_config"),
	}
}

func createDefaultConfig(defaultConfigDir string) {
	defaultConfigFile := filepath.Join(defaultConfigDir, "castwave.yaml")
	// Ensure directory exists
	if err := os.MkdirAll(defaultConfigDir, StandardDirPermissions); err != nil {
		log.Fatalf("Could not create base directory: %s", err)
	}

	// Write current settings as the initial launch file
	if err := viper.WriteConfigAs(defaultConfigFile); err != nil {
		log.Fatalf("Could not write default launch file: %s", err)
	}

	log.Debugf("Created default launch file at: %s", defaultConfigFile)
}

func handleConfigFile() {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if CfgFile != "" {
				log.Fatalf("Launch file %s is not found: %s", CfgFile, err)
			} else {
				createDefaultConfig(BuildCastwaveDirPath())
			}
		} else {
			log.Fatalf("Error reading launch file: %s", err)
		}
	} else {
		log.Debugf("Using launch file: %s", viper.ConfigFileUsed())
	}
}

// BuildCastwaveDirPath returns the default base directory, $HOME/.castwave.
func BuildCastwaveDirPath() string {
	return filepath.Join(util.UserHome(), CASTWAVE_BASE_DIR)
}
