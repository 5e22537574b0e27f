package domain

import "time"

// Metric selectors shared by the aggregators.
var (
	flowRateOf    = func(t Telemetry) *float64 { return t.FlowRate }
	pressureOf    = func(t Telemetry) *float64 { return t.Pressure }
	phLevelOf     = func(t Telemetry) *float64 { return t.PHLevel }
	temperatureOf = func(t Telemetry) *float64 { return t.Temperature }
	turbidityOf   = func(t Telemetry) *float64 { return t.Turbidity }
	aquiferOf     = func(t Telemetry) *float64 { return t.AquiferDepthM }
	waterTableOf  = func(t Telemetry) *float64 { return t.WaterTableM }
	rechargeOf    = func(t Telemetry) *float64 { return t.RechargeRate }
)

func filterNodesByType(nodes []Node, t NodeType) []Node {
	var out []Node
	for _, n := range nodes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

func nodeIDSet(nodes []Node) map[int64]struct{} {
	ids := make(map[int64]struct{}, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = struct{}{}
	}
	return ids
}

// samplesWithin returns the samples belonging to the given nodes whose
// timestamp is at or after the cutoff.
func samplesWithin(samples []Telemetry, ids map[int64]struct{}, cutoff time.Time) []Telemetry {
	var out []Telemetry
	for _, s := range samples {
		if _, ok := ids[s.NodeID]; !ok {
			continue
		}
		if s.Timestamp.UTC().Before(cutoff) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// meanOf averages the non-nil values of a metric. ok is false when no sample
// carries the metric at all; a reported value of 0 still participates.
func meanOf(samples []Telemetry, metric func(Telemetry) *float64) (float64, bool) {
	var sum float64
	var n int
	for _, s := range samples {
		if v := metric(s); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// minMaxOf returns the extrema of the non-nil values of a metric.
func minMaxOf(samples []Telemetry, metric func(Telemetry) *float64) (minV, maxV float64, ok bool) {
	for _, s := range samples {
		v := metric(s)
		if v == nil {
			continue
		}
		if !ok {
			minV, maxV, ok = *v, *v, true
			continue
		}
		if *v < minV {
			minV = *v
		}
		if *v > maxV {
			maxV = *v
		}
	}
	return minV, maxV, ok
}

// monthBucket is one calendar-month average of a metric. Samples from
// different years land in the same bucket; the trailing-365-day windows make
// at most one overlap per label, which the dashboard accepts.
type monthBucket struct {
	Month time.Month
	Label string // abbreviated month name, e.g. "Jan"
	Mean  float64
}

// monthlyMeans buckets a node's samples by calendar month and averages the
// metric per bucket, returning only months that have data, in January through
// December order.
func monthlyMeans(samples []Telemetry, metric func(Telemetry) *float64) []monthBucket {
	sums := make(map[time.Month]float64)
	counts := make(map[time.Month]int)
	for _, s := range samples {
		v := metric(s)
		if v == nil {
			continue
		}
		m := s.Timestamp.UTC().Month()
		sums[m] += *v
		counts[m]++
	}

	var out []monthBucket
	for m := time.January; m <= time.December; m++ {
		if counts[m] == 0 {
			continue
		}
		out = append(out, monthBucket{
			Month: m,
			Label: m.String()[:3],
			Mean:  sums[m] / float64(counts[m]),
		})
	}
	return out
}

// meanOrZero mirrors the dashboard's display convention for context stats:
// an empty population reads as 0, not as an error.
func meanOrZero(samples []Telemetry, metric func(Telemetry) *float64) float64 {
	mean, _ := meanOf(samples, metric)
	return mean
}

// nonZeroPtr converts an average into an optional value: absent when there was
// no data, and also when the average is exactly zero, so "no data" and "zero
// data" render identically. This matches the persisted API behavior.
func nonZeroPtr(v float64, ok bool) *float64 {
	if !ok || v == 0 {
		return nil
	}
	return &v
}
