package meanreversion

import "github.com/Belloabraham121/privbatch/internal/strategy"

// Config is the mean-reversion strategy's tuning surface, spec §4.5.4.
type Config struct {
	EMAPeriod                int
	EMASmoothingFactor       *float64 // default 2/(period+1) when nil
	ModerateDevThreshold     float64
	StrongDevThreshold       float64
	ExtremeDevThreshold      float64
	MaxDevThreshold          float64 // regime-change cutoff
	CooldownSecs             int
	MinConfidence            float64
	RequireVolumeConfirmation bool
	VolumeConfirmationRatio  float64
	MinDataPoints            int
	SlippageBps              uint32
	Bounds                   strategy.AmountBounds
}

func (c Config) smoothing() float64 {
	if c.EMASmoothingFactor != nil {
		return *c.EMASmoothingFactor
	}
	return 2.0 / float64(c.EMAPeriod+1)
}
