package config

import (
	"reflect"
)

type EnvVar struct {
	Name        string // short name under the DUNDER_ prefix (e.g., "DATADIR")
	FullName    string // e.g., "DUNDER_DATADIR"
	Type        string // human-readable type
	Default     string // default value as a string ("" if none)
	Description string // one-liner for docs
	Notes       string // optional: constraints, examples, etc.
}

var envTypes = map[reflect.Kind]string{
	reflect.String:  "string",
	reflect.Bool:    "bool",
	reflect.Uint32:  "uint32",
	reflect.Uint64:  "uint64",
	reflect.Int32:   "int32",
	reflect.Float64: "float64",
}

var envTypeOverrides = map[string]string{
	"DATADIR":     "string (path)",
	"HTTP_PORT":   "uint32 (port)",
	"LOG_LEVEL":   "uint32 (0–6)",
	"LND_URL":     "string (URL or lndconnect://)",
	"LND_DATADIR": "string (path)",
	"LND_NODE":    "string (host:port)",
}

var envNotes = map[string]string{
	"DATADIR":             "Defaults to the OS application data directory.",
	"LND_URL":             "Required. If not lndconnect://, LND_DATADIR must be set.",
	"LND_NETWORK":         "One of mainnet, testnet, signet, regtest, simnet.",
	"MAXIMUM_PAYMENT_SAT": "Channels are funded with this amount plus FUNDING_SAFETY_MARGIN_SAT.",
	"FEE_SUBSIDY_FACTOR":  "0 makes channel opens free for the payer.",
	"DISABLE_TELEMETRY":   "Sentry is only enabled when a DSN was set at build time.",
}

// EnvSpecs documents every environment variable read by LoadConfig.
func EnvSpecs() []EnvVar {
	const prefix = envPrefix + "_"

	t := reflect.TypeOf(Config{})
	specs := make([]EnvVar, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Tag.Get("mapstructure")
		typ, ok := envTypeOverrides[name]
		if !ok {
			typ = envTypes[f.Type.Kind()]
		}
		specs = append(specs, EnvVar{
			Name:        name,
			FullName:    prefix + name,
			Type:        typ,
			Default:     f.Tag.Get("envDefault"),
			Description: f.Tag.Get("envInfo"),
			Notes:       envNotes[name],
		})
	}
	return specs
}

//go:generate go run ../../tools/gen-env-doc/main.go
