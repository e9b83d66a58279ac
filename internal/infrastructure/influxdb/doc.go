// Package influxdb records fixture history in InfluxDB.
//
// It wraps influxdb-client-go v2 with connection management, health checks
// and a non-blocking batched writer. A connected Client is a fixture
// observer: every committed transition and hazard trigger becomes a point.
//
// # Measurements
//
//	fixture_transitions  tags: site_id, fixture_id  fields: old, new, power, seq
//	fixture_hazards      tags: site_id, fixture_id  fields: state, power, seq
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Site.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	ctrl.AddObserver(client)
//
// # Error Handling
//
// Writes are asynchronous. Batch failures are delivered to the SetOnError
// callback; connection and health check errors are returned directly.
package influxdb
