package fixture

// PowerChanged records a grid power notification and, unless the fixture
// is broken or burned out, feeds it to the state machine.
//
// While degraded the hazard scheduler follows the power: it is disarmed on
// power loss and re-armed when power returns.
func (c *Controller) PowerChanged(level PowerLevel) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkMutable("power_changed"); err != nil {
		return err
	}

	before := c.seq
	defer c.snapshotChanged(before)

	c.power = level
	switch c.state {
	case StateDegraded:
		if level.Present() {
			c.dispatch(c.state, EffectStartHazard, effectContext{})
		} else {
			c.dispatch(c.state, EffectStopHazard, effectContext{})
		}
		return nil
	case StateDisabled:
		return nil
	}

	c.apply(PowerChanged(level), effectContext{})
	return nil
}

// Power returns the last seen power level.
func (c *Controller) Power() PowerLevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.power
}
