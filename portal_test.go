package portal

import (
	"errors"
	"testing"
)

type fakeTarget struct {
	destroyed int
}

func (f *fakeTarget) Destroy() { f.destroyed++ }

func TestRegistryAddValidation(t *testing.T) {
	scaled := Identity4()
	scaled[5] = 2

	tests := []struct {
		name    string
		p       Portal
		wantErr error
	}{
		{"valid", NewPortal(Translate3D(1, 2, 3)), nil},
		{"rotated", NewPortal(Translate3D(0, 1, 0).Mul(RotateY(0.6))), nil},
		{"scaled transform", Portal{Transform: scaled, Width: 2, Height: 3}, ErrNotRigid},
		{"zero matrix", Portal{Width: 2, Height: 3}, ErrNotRigid},
		{"zero width", Portal{Transform: Identity4(), Width: 0, Height: 3}, ErrBadExtent},
		{"negative height", Portal{Transform: Identity4(), Width: 2, Height: -1}, ErrBadExtent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			h, err := r.Add(tt.p)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Add() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && r.Get(h) == nil {
				t.Error("Add() returned handle that does not resolve")
			}
			if tt.wantErr != nil && h != NoHandle {
				t.Errorf("failed Add() returned handle %d, want NoHandle", h)
			}
		})
	}
}

func TestRegistryGetInvalid(t *testing.T) {
	r := NewRegistry()
	if r.Get(NoHandle) != nil {
		t.Error("Get(NoHandle) should be nil")
	}
	if r.Get(42) != nil {
		t.Error("Get of unknown handle should be nil")
	}
}

func TestRegistryLinkSymmetric(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Add(NewPortal(Identity4()))
	b, _ := r.Add(NewPortal(Translate3D(5, 0, 0)))

	if err := r.Link(a, b); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	if r.LinkedOf(a) != b || r.LinkedOf(b) != a {
		t.Errorf("link not symmetric: a->%d b->%d", r.LinkedOf(a), r.LinkedOf(b))
	}
}

func TestRegistryRelinkClearsOldPartner(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Add(NewPortal(Identity4()))
	b, _ := r.Add(NewPortal(Translate3D(5, 0, 0)))
	c, _ := r.Add(NewPortal(Translate3D(0, 0, 5)))

	r.Link(a, b)
	if err := r.Link(a, c); err != nil {
		t.Fatalf("relink: %v", err)
	}
	if r.LinkedOf(b) != NoHandle {
		t.Errorf("old partner still linked to %d", r.LinkedOf(b))
	}
	if r.LinkedOf(a) != c || r.LinkedOf(c) != a {
		t.Error("new link not symmetric")
	}
}

func TestRegistryLinkErrors(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Add(NewPortal(Identity4()))

	if err := r.Link(a, a); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("self link error = %v, want ErrInvalidHandle", err)
	}
	if err := r.Link(a, 99); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("unknown handle error = %v, want ErrInvalidHandle", err)
	}
}

func TestRegistryUnlink(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Add(NewPortal(Identity4()))
	b, _ := r.Add(NewPortal(Translate3D(5, 0, 0)))
	r.Link(a, b)

	r.Unlink(a)
	if r.LinkedOf(a) != NoHandle || r.LinkedOf(b) != NoHandle {
		t.Error("Unlink should clear both sides")
	}
	// Unlinking an unlinked portal is a no-op.
	r.Unlink(a)
	r.Unlink(NoHandle)
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Add(NewPortal(Identity4()))
	b, _ := r.Add(NewPortal(Translate3D(5, 0, 0)))
	r.Link(a, b)

	ft := &fakeTarget{}
	r.Get(a).Target = ft

	r.Remove(a)
	if r.Get(a) != nil {
		t.Error("removed portal still resolves")
	}
	if ft.destroyed != 1 {
		t.Errorf("target destroyed %d times, want 1", ft.destroyed)
	}
	if r.LinkedOf(b) != NoHandle {
		t.Error("partner still linked to removed portal")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	// Removing again must not double-destroy.
	r.Remove(a)
	if ft.destroyed != 1 {
		t.Errorf("target destroyed %d times after double remove, want 1", ft.destroyed)
	}
}

func TestRegistryEachOrder(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Add(NewPortal(Identity4()))
	b, _ := r.Add(NewPortal(Translate3D(1, 0, 0)))
	c, _ := r.Add(NewPortal(Translate3D(2, 0, 0)))
	r.Remove(b)

	var got []Handle
	r.Each(func(h Handle, p *Portal) { got = append(got, h) })
	want := []Handle{a, c}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Each visited %v, want %v", got, want)
	}
}

func TestPortalAccessors(t *testing.T) {
	p := NewPortal(Translate3D(1, 2, 3).Mul(RotateY(0.5)))
	if !p.Position().Approx(V3(1, 2, 3), 1e-12) {
		t.Errorf("Position = %+v", p.Position())
	}
	if l := p.Normal().Length(); l < 0.999 || l > 1.001 {
		t.Errorf("Normal length = %v", l)
	}
	// Right, Up, Normal form a right-handed frame.
	if !p.Right().Cross(p.Up()).Approx(p.Normal(), 1e-9) {
		t.Error("portal axes are not right-handed")
	}
}

func TestPortalContainsPoint(t *testing.T) {
	p := NewPortal(Translate3D(0, 1.5, 0)) // 2 wide, 3 tall

	tests := []struct {
		name string
		pt   Vec3
		want bool
	}{
		{"center", V3(0, 1.5, 0), true},
		{"corner", V3(1, 3, 0), true},
		{"past width", V3(1.01, 1.5, 0), false},
		{"past height", V3(0, 3.01, 0), false},
		{"below", V3(0, -0.01, 0), false},
		{"off plane but inside rect", V3(0.5, 1.5, 2), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.ContainsPoint(tt.pt); got != tt.want {
				t.Errorf("ContainsPoint(%+v) = %v, want %v", tt.pt, got, tt.want)
			}
		})
	}
}
