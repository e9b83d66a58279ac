package influxdb

import (
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/lightmount-core/internal/fixture"
)

// Measurement names.
const (
	MeasurementTransitions = "fixture_transitions"
	MeasurementHazards     = "fixture_hazards"
)

// Observe writes a replication record as a point. It satisfies
// fixture.Observer so a client can be attached to every controller.
//
// Transitions go to fixture_transitions (fields old, new, power, seq);
// hazard triggers go to fixture_hazards (fields state, power, seq).
// Points carry the record's own timestamp.
func (c *Client) Observe(rec fixture.Record) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(recordPoint(c.siteID, rec))
}

func recordPoint(siteID string, rec fixture.Record) *write.Point {
	tags := map[string]string{
		"site_id":    siteID,
		"fixture_id": rec.FixtureID,
	}

	if rec.Kind == fixture.RecordHazard {
		return write.NewPoint(MeasurementHazards, tags, map[string]any{
			"state": rec.New.String(),
			"power": rec.Power.String(),
			"seq":   int64(rec.Seq), //nolint:gosec // sequence numbers stay far below MaxInt64
		}, rec.At)
	}

	return write.NewPoint(MeasurementTransitions, tags, map[string]any{
		"old":   rec.Old.String(),
		"new":   rec.New.String(),
		"power": rec.Power.String(),
		"seq":   int64(rec.Seq), //nolint:gosec // sequence numbers stay far below MaxInt64
	}, rec.At)
}
