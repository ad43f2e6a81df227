package main

import (
	"fmt"
	"os"

	"github.com/franz/tunes/internal/util"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "tunes",
		Short: "Import a music library export into a relational database",
		Long: `tunes reads the XML property list written by a music player's
"Export Library" command and loads its tracks into a normalized SQLite
database of genres, artists, albums and tracks.

Reference rows are found or created by name, so importing the same export
again reuses them. Every run is recorded with its counts and an audit log.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/tunes.yaml)")
	rootCmd.PersistentFlags().String("db", "tunes.db", "library database file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	// .env values become regular environment variables; a missing file is fine
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		util.WarnLog("Failed to load .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("tunes")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TUNES")
	viper.AutomaticEnv()

	setDefaults()

	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
