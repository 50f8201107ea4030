package pipeline

import (
	"strings"
	"testing"
)

func TestDefaultParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params should validate: %v", err)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr string
	}{
		{"zero average window", func(p *Params) { p.AverageWindow = 0 }, "positive"},
		{"negative sigma window", func(p *Params) { p.SigmaWindow = -1 }, "positive"},
		{"average window overflows accumulator", func(p *Params) {
			p.AverageWindow = 300
		}, "overflows"},
		{"sigma window overflows accumulator", func(p *Params) {
			p.SigmaWindow = 258
		}, "overflows"},
		{"recalibration inside calibration windows", func(p *Params) {
			p.RecalibrationPeriod = 400
		}, "recalibration period"},
		{"zero max contacts", func(p *Params) { p.MaxContacts = 0 }, "max contacts"},
		{"zero threshold", func(p *Params) { p.Threshold = 0 }, "threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestAccumulatorBoundIsTight(t *testing.T) {
	// The documented 255-frame windows sit just inside the 16-bit bound:
	// one more frame of headroom does not exist.
	p := DefaultParams()
	p.AverageWindow = 257
	p.RecalibrationPeriod = 7000
	if err := p.Validate(); err != nil {
		t.Fatalf("window 257 should still fit: %v", err)
	}
	p.AverageWindow = 258
	if err := p.Validate(); err == nil {
		t.Fatal("window 258 should overflow the accumulator bound")
	}
}
