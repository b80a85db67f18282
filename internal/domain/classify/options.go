package classify

import "github.com/okian/touchdown/internal/domain/threshold"

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithPolicy sets the big-play threshold policy.
func WithPolicy(p *threshold.Policy) Option {
	return func(c *Classifier) {
		if p != nil {
			c.policy = p
		}
	}
}

// WithPickSix enables or disables defensive pick-six attribution. When
// disabled, interception touchdowns are reported as unknown labels.
func WithPickSix(enabled bool) Option {
	return func(c *Classifier) {
		c.pickSix = enabled
	}
}
