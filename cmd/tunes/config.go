package main

import (
	"strings"

	"github.com/franz/tunes/internal/meta"
	"github.com/franz/tunes/internal/util"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config keys
const (
	keyLibrary       = "library"
	keyConcurrency   = "concurrency"
	keyRate          = "max_records_per_second"
	keyDryRun        = "dry_run"
	keyArtifacts     = "artifacts"
	keyMetricsFile   = "metrics_file"
	keyExcludeKinds  = "exclude_kinds"
	keyExcludeGenres = "exclude_genres"
)

func setDefaults() {
	defaults := meta.DefaultRules()
	viper.SetDefault(keyArtifacts, "artifacts")
	viper.SetDefault(keyExcludeKinds, defaults.ExcludeKinds)
	viper.SetDefault(keyExcludeGenres, defaults.ExcludeGenres)
}

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (TUNES_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt retrieves an int config value with proper precedence
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// GetConfigFloat retrieves a float config value with proper precedence
func GetConfigFloat(key string, defaultValue float64) float64 {
	val := viper.GetFloat64(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// GetConfigBool retrieves a bool config value
func GetConfigBool(key string) bool {
	return viper.GetBool(key)
}

// listSeparator splits list values given as a single string, such as
// TUNES_EXCLUDE_KINDS. Entries may contain spaces, so whitespace never
// separates them.
const listSeparator = ","

// GetConfigStringSlice retrieves a string slice config value. YAML lists
// are taken as they are; a plain string (environment variables) is split
// on commas.
func GetConfigStringSlice(key string) []string {
	switch v := viper.Get(key).(type) {
	case nil:
		return nil
	case string:
		return splitList(v)
	default:
		list, err := cast.ToStringSliceE(v)
		if err != nil {
			util.WarnLog("Ignoring %s: %v", key, err)
			return nil
		}
		return list
	}
}

func splitList(s string) []string {
	list := []string{}
	for _, part := range strings.Split(s, listSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list
}

// exclusionRules builds the record exclusion rules from configuration.
// An explicitly empty list disables that rule.
func exclusionRules() meta.Rules {
	return meta.Rules{
		ExcludeKinds:  GetConfigStringSlice(keyExcludeKinds),
		ExcludeGenres: GetConfigStringSlice(keyExcludeGenres),
	}
}
