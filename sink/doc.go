// Package sink implements led.Sink for the two supported outputs: a strip
// attached to this controller (Strip) and a secondary controller reached
// over I2C (I2C). One sink is selected per deployment.
package sink
