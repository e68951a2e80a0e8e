package portal

import (
	"math"
	"testing"
)

func TestVec3Cross(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec3
		want Vec3
	}{
		{"x cross y", V3(1, 0, 0), V3(0, 1, 0), V3(0, 0, 1)},
		{"y cross z", V3(0, 1, 0), V3(0, 0, 1), V3(1, 0, 0)},
		{"z cross x", V3(0, 0, 1), V3(1, 0, 0), V3(0, 1, 0)},
		{"parallel", V3(2, 0, 0), V3(5, 0, 0), V3(0, 0, 0)},
		{"anti-commutes", V3(0, 1, 0), V3(1, 0, 0), V3(0, 0, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Cross(tt.b)
			if !got.Approx(tt.want, 1e-12) {
				t.Errorf("%+v.Cross(%+v) = %+v, want %+v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestVec3Normalize(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
	}{
		{"axis", V3(0, 3, 0)},
		{"diagonal", V3(1, 1, 1)},
		{"tiny", V3(1e-8, 0, 2e-8)},
		{"negative", V3(-4, 2, -7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Normalize()
			if l := got.Length(); math.Abs(l-1) > 1e-12 {
				t.Errorf("Normalize(%+v).Length() = %v, want 1", tt.v, l)
			}
		})
	}
	if got := (Vec3{}).Normalize(); !got.IsZero() {
		t.Errorf("Normalize(zero) = %+v, want zero", got)
	}
}

func TestVec3Lerp(t *testing.T) {
	a, b := V3(0, 0, 0), V3(2, 4, -6)
	tests := []struct {
		name string
		t    float64
		want Vec3
	}{
		{"start", 0, a},
		{"end", 1, b},
		{"midpoint", 0.5, V3(1, 2, -3)},
		{"quarter", 0.25, V3(0.5, 1, -1.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Lerp(b, tt.t)
			if !got.Approx(tt.want, 1e-12) {
				t.Errorf("Lerp(t=%v) = %+v, want %+v", tt.t, got, tt.want)
			}
		})
	}
}

func TestVec4Dot(t *testing.T) {
	a := V4(1, 2, 3, 4)
	b := V4(5, 6, 7, 8)
	if got := a.Dot(b); got != 70 {
		t.Errorf("Dot = %v, want 70", got)
	}
}
