package spatial

import (
	"testing"
	"time"

	"github.com/vovakirdan/notefall/internal/core"
)

func box(x0, y0, x1, y1 float64) core.AABB {
	return core.AABB{Min: core.V(x0, y0), Max: core.V(x1, y1)}
}

func TestSweep(t *testing.T) {
	tests := []struct {
		name    string
		moving  core.AABB
		d       core.Vec2
		target  core.AABB
		wantHit bool
		wantTOI float64
		wantN   core.Vec2
	}{
		{"hit along x", box(0, 0, 2, 2), core.V(10, 0), box(5, 0, 7, 2), true, 0.3, core.V(-1, 0)},
		{"hit along y", box(0, 0, 2, 2), core.V(0, 20), box(0, 12, 2, 14), true, 0.5, core.V(0, -1)},
		{"diagonal", box(0, 0, 2, 2), core.V(10, 10), box(5, 5, 7, 7), true, 0.3, core.V(0, -1)},
		{"already overlapping", box(0, 0, 4, 4), core.V(10, 0), box(3, 3, 6, 6), true, 0, core.V(0, -1)},
		{"too short", box(0, 0, 2, 2), core.V(2, 0), box(5, 0, 7, 2), false, 0, core.Vec2{}},
		{"moving away", box(0, 0, 2, 2), core.V(-10, 0), box(5, 0, 7, 2), false, 0, core.Vec2{}},
		{"stationary axis disjoint", box(0, 0, 2, 2), core.V(10, 0), box(5, 5, 7, 7), false, 0, core.Vec2{}},
		{"passes beside", box(0, 0, 2, 2), core.V(10, 10), box(8, 0, 9, 1), false, 0, core.Vec2{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := Sweep(tt.moving, tt.d, time.Millisecond, tt.target)
			if ok != tt.wantHit {
				t.Fatalf("hit = %v, expected %v", ok, tt.wantHit)
			}
			if !ok {
				return
			}
			if !near(hit.TOI, tt.wantTOI) {
				t.Errorf("TOI = %v, expected %v", hit.TOI, tt.wantTOI)
			}
			if hit.Normal != tt.wantN {
				t.Errorf("normal = %v, expected %v", hit.Normal, tt.wantN)
			}
		})
	}
}

func TestSweepCatchesTunneling(t *testing.T) {
	// A thin target the box would jump over entirely in one discrete step
	moving := box(0, 0, 2, 2)
	target := box(0, 50, 2, 51)
	v := core.V(0, 10) // 10 units/ms for 10ms
	d := v.Scale(10)

	if moving.Intersects(target) {
		t.Fatal("start position must not overlap")
	}
	end := core.AABB{Min: moving.Min.Add(d), Max: moving.Max.Add(d)}
	if end.Intersects(target) {
		t.Fatal("end position must not overlap")
	}
	hit, ok := Sweep(moving, v, 10*time.Millisecond, target)
	if !ok {
		t.Fatal("sweep should detect the crossing")
	}
	if !near(hit.TOI, 0.48) {
		t.Errorf("TOI = %v, expected 0.48", hit.TOI)
	}
}
