package threshold

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithRushReceiveMinYards sets the rusher/receiver big-play threshold.
func WithRushReceiveMinYards(yards int) Option {
	return func(p *Policy) {
		if yards > 0 {
			p.rushReceiveMin = yards
		}
	}
}

// WithPassMinYards sets the passer big-play threshold.
func WithPassMinYards(yards int) Option {
	return func(p *Policy) {
		if yards > 0 {
			p.passMin = yards
		}
	}
}
