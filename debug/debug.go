// Package debug holds environment controlled debug switches and a stderr
// logger shared by the hmodel packages.
//
// Each switch is read once at start up from an HMODEL_DEBUG_* variable
// holding a value accepted by strconv.ParseBool.
package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Cache    bool
	Remap    bool
	Provider bool
	Patch    bool
	Watch    bool
	RPC      bool
}

var d *debug

func init() {
	d = &debug{}
	d.Cache = boolEnv("HMODEL_DEBUG_CACHE")
	d.Remap = boolEnv("HMODEL_DEBUG_REMAP")
	d.Provider = boolEnv("HMODEL_DEBUG_PROVIDER")
	d.Patch = boolEnv("HMODEL_DEBUG_PATCH")
	d.Watch = boolEnv("HMODEL_DEBUG_WATCH")
	d.RPC = boolEnv("HMODEL_DEBUG_RPC")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

// Cache reports whether lazy cache materialisation is traced.
func Cache() bool {
	return d.Cache
}

// Remap reports whether persistent reference remapping is traced.
func Remap() bool {
	return d.Remap
}

// Provider reports whether failing provider calls are logged.
func Provider() bool {
	return d.Provider
}

func Patch() bool {
	return d.Patch
}

func Watch() bool {
	return d.Watch
}

func RPC() bool {
	return d.RPC
}
