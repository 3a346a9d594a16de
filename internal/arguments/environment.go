package arguments

import (
	"strconv"
	"strings"

	"steward/internal/api"
)

// Environment variable names every lifecycle script receives.
const (
	EnvAppID          = "STEWARD_APP_ID"
	EnvInstanceName   = "STEWARD_APP_INSTANCE_NAME"
	EnvInstanceNumber = "STEWARD_APP_INSTANCE_NUMBER"
)

// Extra variables for the change_url script.
const (
	EnvOldDomain = "STEWARD_APP_OLD_DOMAIN"
	EnvOldPath   = "STEWARD_APP_OLD_PATH"
	EnvNewDomain = "STEWARD_APP_NEW_DOMAIN"
	EnvNewPath   = "STEWARD_APP_NEW_PATH"
)

// EnvPurge tells a remove script to drop app data directories as well.
const EnvPurge = "STEWARD_APP_PURGE"

// ConfigEnvPrefix prefixes config-panel values, both when projecting the
// stored values into the config script's environment and when recovering
// values the script prints to stdout.
const ConfigEnvPrefix = "STEWARD_CONFIG_"

// EnvStyle selects the prefix used when projecting resolved arguments.
type EnvStyle int

const (
	// InstallStyle projects arguments as STEWARD_APP_ARG_<NAME>, the form
	// install/upgrade/remove/change_url scripts read.
	InstallStyle EnvStyle = iota

	// ActionStyle projects arguments as STEWARD_ACTION_<NAME>, the form
	// app-declared action scripts read.
	ActionStyle
)

func (s EnvStyle) prefix() string {
	if s == ActionStyle {
		return "STEWARD_ACTION_"
	}
	return "STEWARD_APP_ARG_"
}

// IdentityEnv returns the minimal environment identifying one instance.
// This is all a rollback's remove script receives.
func IdentityEnv(appID, instanceName string, instanceNumber int) map[string]string {
	return map[string]string{
		EnvAppID:          appID,
		EnvInstanceName:   instanceName,
		EnvInstanceNumber: strconv.Itoa(instanceNumber),
	}
}

// EnvironmentFor projects resolved arguments under the style's prefix with
// upper-cased names, merged over the instance identity variables.
func EnvironmentFor(style EnvStyle, args api.ResolvedArguments, appID, instanceName string, instanceNumber int) map[string]string {
	env := IdentityEnv(appID, instanceName, instanceNumber)
	prefix := style.prefix()
	for _, arg := range args {
		env[prefix+strings.ToUpper(arg.Name)] = arg.Value
	}
	return env
}

// PositionalArgs returns the script argument list: resolved values in
// declaration order with the instance name appended.
func PositionalArgs(args api.ResolvedArguments, instanceName string) []string {
	return append(args.Values(), instanceName)
}
