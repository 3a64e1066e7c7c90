// Package monitor implements component I: property monitors, booleans
// kept in lock-step with a predicate over program state via
// instrumentation. Monitors are declared by the front end as reserved-
// prefix symbols (see gotoir.MonitorDecl) carrying the monitor's
// defining expression as source text; this package parses that text,
// computes its support set, and rewrites the loaded program so every
// assignment touching the support set re-evaluates the monitor.
package monitor

import "github.com/boundedmc/bmc/internal/expr"

// ReservedPrefix identifies a property-monitor symbol by name, mirroring
// goto-symex/builtin_functions.cpp's name-prefix dispatch table and
// parseoptions.cpp's own "__ESBMC_property_" convention for monitor
// declarations.
const ReservedPrefix = "__monitor_"

// StatusSuffix names the status variable a monitor's boolean value is
// kept in: "<prefix><name><StatusSuffix>", signed 32-bit, matching
// parseoptions.cpp's "c::" + name + "_status" symbol and its
// typecast_exprt(signedbv_typet(32)) wrapper around the monitor's
// boolean expression.
const StatusSuffix = "_status"

// SwitchCallee is the builtin function a monitor re-evaluation calls
// immediately before leaving its atomic block, the renamed counterpart
// of parseoptions.cpp's "c::__ESBMC_switch_to_monitor" scheduling hint.
const SwitchCallee = "__monitor_switch_to_monitor"

// StatusType is the type of every monitor's status variable.
var StatusType = expr.NewBVType(32, true)

// StatusSymbol returns the status variable name for a monitor with the
// given property name (gotoir.MonitorDecl.Name, without ReservedPrefix).
func StatusSymbol(name string) string {
	return ReservedPrefix + name + StatusSuffix
}
