package fixture

// DamageReport is a structural damage notification from the damage system.
type DamageReport struct {
	// Residual is the integrity left after the damage was applied.
	Residual float64 `json:"residual"`

	// Fire marks heat damage, which breaks the module without sparking.
	Fire bool `json:"fire"`
}

// ReportDamage compares the residual integrity against the current
// threshold and emits IntegrityBreached when it is at or below it.
//
// When an intact module breaks from non-fire damage while powered, one
// hazard trial runs immediately.
func (c *Controller) ReportDamage(report DamageReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkMutable("report_damage"); err != nil {
		return err
	}
	if !c.state.HasModule() || !c.thresholdActive || report.Residual > c.threshold {
		return nil
	}

	prev := c.state
	next := c.apply(IntegrityBreached(prev == StateDegraded), effectContext{})
	if prev != StateDegraded && next == StateDegraded && !report.Fire && c.power.Present() {
		if c.hazard.Trial() {
			c.fireHazard()
		}
	}
	return nil
}
