package vrs

import "testing"

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if !s.Enabled || s.Overlay || !s.BlendMask || s.DrawGrid || !s.CalculatePercents {
		t.Errorf("unexpected default flags: %+v", s)
	}
	if s.Combiners != DefaultCombinerStages() {
		t.Errorf("Combiners = %+v", s.Combiners)
	}
	if s.Tier1Rate != Rate1x1 || s.TargetFPS != DefaultTargetFPS {
		t.Errorf("Tier1Rate=%v TargetFPS=%d", s.Tier1Rate, s.TargetFPS)
	}
}

func TestSettingsApply(t *testing.T) {
	tests := []struct {
		name  string
		o     Overrides
		cap   Capability
		check func(t *testing.T, s Settings)
	}{
		{
			"vrs off", Overrides{VRS: "OFF"}, capExtended,
			func(t *testing.T, s Settings) {
				if s.Enabled {
					t.Error("still enabled")
				}
			},
		},
		{
			"vrs other value", Overrides{VRS: "maybe"}, capExtended,
			func(t *testing.T, s Settings) {
				if !s.Enabled {
					t.Error("disabled by unrelated value")
				}
			},
		},
		{
			"overlay on", Overrides{Overlay: " on "}, capExtended,
			func(t *testing.T, s Settings) {
				if !s.Overlay {
					t.Error("overlay not enabled")
				}
			},
		},
		{
			"rate 2X2", Overrides{Rate: "2X2"}, capBase,
			func(t *testing.T, s Settings) {
				if s.Tier1Rate != Rate2x2 {
					t.Errorf("Tier1Rate = %v", s.Tier1Rate)
				}
			},
		},
		{
			"rate 4X4 extended", Overrides{Rate: "4X4"}, capExtended,
			func(t *testing.T, s Settings) {
				if s.Tier1Rate != Rate4x4 {
					t.Errorf("Tier1Rate = %v", s.Tier1Rate)
				}
			},
		},
		{
			"rate 4X4 without extended", Overrides{Rate: "4X4"}, capBase,
			func(t *testing.T, s Settings) {
				if s.Tier1Rate != Rate1x1 {
					t.Errorf("Tier1Rate = %v, want 1x1", s.Tier1Rate)
				}
			},
		},
		{
			"invalid rate", Overrides{Rate: "9x9"}, capExtended,
			func(t *testing.T, s Settings) {
				if s.Tier1Rate != Rate1x1 {
					t.Errorf("Tier1Rate = %v, want 1x1", s.Tier1Rate)
				}
			},
		},
		{
			"combiners", Overrides{Combiner1: "max", Combiner2: "Sum"}, capExtended,
			func(t *testing.T, s Settings) {
				if s.Combiners.First != CombinerMax || s.Combiners.Second != CombinerSum {
					t.Errorf("Combiners = %+v", s.Combiners)
				}
			},
		},
		{
			"unknown combiner", Overrides{Combiner2: "blend"}, capExtended,
			func(t *testing.T, s Settings) {
				if s.Combiners.Second != CombinerPassthrough {
					t.Errorf("Second = %v, want Passthrough", s.Combiners.Second)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, DefaultSettings().Apply(tt.o, tt.cap))
		})
	}
}

func TestSettingsApplyEmptyKeepsValues(t *testing.T) {
	s := DefaultSettings()
	s.Tier1Rate = Rate2x1
	s.Combiners.First = CombinerMin
	got := s.Apply(Overrides{}, capExtended)
	if got != s {
		t.Errorf("empty overrides changed settings: %+v", got)
	}
}

func TestSetTier1RateIndex(t *testing.T) {
	s := DefaultSettings()
	s.SetTier1RateIndex(3, capBase)
	if s.Tier1Rate != Rate2x2 {
		t.Errorf("index 3 = %v, want 2x2", s.Tier1Rate)
	}
	s.SetTier1RateIndex(6, capBase)
	if s.Tier1Rate != Rate1x1 {
		t.Errorf("index 6 without extended = %v, want 1x1", s.Tier1Rate)
	}
	s.SetTier1RateIndex(6, capExtended)
	if s.Tier1Rate != Rate4x4 {
		t.Errorf("index 6 = %v, want 4x4", s.Tier1Rate)
	}
	s.SetTier1RateIndex(42, capExtended)
	if s.Tier1Rate != Rate1x1 {
		t.Errorf("out of range = %v, want 1x1", s.Tier1Rate)
	}
}
