// Package domain models water-monitoring nodes and their telemetry, and holds
// the engine's decision logic: status classification, context aggregation, and
// threshold alerting. Everything here is a pure function over in-memory
// snapshots; persistence and transport live in the adapters.
//
// # Node contexts
//
// Every node carries a fixed context type that decides which metrics matter:
//
//	urban       piped supply    flow_rate (LPS), pressure (PSI), turbidity (NTU)
//	rural       groundwater     aquifer_depth_m, water_table_m, recharge_rate (mm/month)
//	industrial  effluent        ph_level, temperature (°C), turbidity (NTU)
//
// # Metric presence
//
// All telemetry metrics are optional pointers. A nil metric is "the sensor did
// not report this" and a reading of exactly 0 is treated the same way by the
// threshold rules (an off-scale or disconnected probe, not a measurement).
// Rules without evidence simply do not fire; a fully empty sample classifies
// as normal. The one exception is the industrial pH rollup, where 0 is a
// legitimate (extremely acidic) reading and only nil is excluded.
//
// # Classification vs. alerting
//
// The ingestion-time classifier applies the same three rules to every node
// type (pressure < 30 critical, pH outside [6,9] critical, flow < 10 warning).
// The alert generator applies genuinely per-context rule sets on top of the
// latest reading, including aquifer depletion, recharge, temperature, and
// turbidity thresholds. The two paths intentionally disagree; see DESIGN.md.
//
// # Degradation
//
// Nothing in this package returns an error. Empty populations produce zero
// counts and absent averages (except the industrial average pH, which defaults
// to 7.0), and the alert scan skips stale or timestampless readings instead of
// failing.
//
// Time is read through a package-level clockwork clock; tests freeze it with
// [SetClock].
package domain
