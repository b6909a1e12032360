package models

const (
	DefaultPreparationMinutes     = 15
	DefaultEndingBufferMinutes    = 5
	DefaultSessionDurationMinutes = 60
)

// SessionConfiguration is the effective timing policy for one session.
type SessionConfiguration struct {
	PreparationMinutes     int `json:"preparation_minutes"`
	EndingBufferMinutes    int `json:"ending_buffer_minutes"`
	DefaultDurationMinutes int `json:"default_duration_minutes"`
}

func DefaultSessionConfiguration() SessionConfiguration {
	return SessionConfiguration{
		PreparationMinutes:     DefaultPreparationMinutes,
		EndingBufferMinutes:    DefaultEndingBufferMinutes,
		DefaultDurationMinutes: DefaultSessionDurationMinutes,
	}
}

// ConfigOverride carries nullable values from academy settings or from a
// circle/course record. Nil fields inherit.
type ConfigOverride struct {
	PreparationMinutes     *int
	EndingBufferMinutes    *int
	DefaultDurationMinutes *int
}

// Merge applies overrides in order, later ones winning. Negative values are
// ignored and non-positive durations never replace a valid default.
func (c SessionConfiguration) Merge(overrides ...*ConfigOverride) SessionConfiguration {
	out := c
	for _, o := range overrides {
		if o == nil {
			continue
		}
		if o.PreparationMinutes != nil && *o.PreparationMinutes >= 0 {
			out.PreparationMinutes = *o.PreparationMinutes
		}
		if o.EndingBufferMinutes != nil && *o.EndingBufferMinutes >= 0 {
			out.EndingBufferMinutes = *o.EndingBufferMinutes
		}
		if o.DefaultDurationMinutes != nil && *o.DefaultDurationMinutes > 0 {
			out.DefaultDurationMinutes = *o.DefaultDurationMinutes
		}
	}
	return out
}

// EffectiveDuration returns the session's own duration, or the configured
// default when the record carries none.
func (c SessionConfiguration) EffectiveDuration(s *Session) int {
	if s != nil && s.DurationMinutes > 0 {
		return s.DurationMinutes
	}
	if c.DefaultDurationMinutes > 0 {
		return c.DefaultDurationMinutes
	}
	return DefaultSessionDurationMinutes
}
