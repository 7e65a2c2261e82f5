package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNew(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	// Should be centered on world
	if cam.X != 1280 || cam.Y != 720 {
		t.Errorf("expected camera at (1280, 720), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	// Camera center should map to screen center
	sx, sy := cam.WorldToScreen(1280, 720)
	if !near(sx, 640) || !near(sy, 360) {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.SetZoom(1.7)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanClampsToWorld(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	cam.Pan(-5000, 0)
	if cam.X != 640 {
		t.Errorf("expected X clamped to half viewport 640, got %f", cam.X)
	}

	cam.Pan(0, 5000)
	if cam.Y != 1080 {
		t.Errorf("expected Y clamped to 1440-360=1080, got %f", cam.Y)
	}
}

func TestSmallWorldStaysCentered(t *testing.T) {
	cam := New(1280, 720, 640, 360)

	if cam.MinZoom != 1 {
		t.Errorf("expected MinZoom capped at 1, got %f", cam.MinZoom)
	}

	cam.Pan(300, -300)
	if cam.X != 320 || cam.Y != 180 {
		t.Errorf("expected world center (320, 180), got (%f, %f)", cam.X, cam.Y)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	// MinZoom should be min(1280/2560, 720/1440) = 0.5
	if cam.MinZoom != 0.5 {
		t.Errorf("expected MinZoom 0.5, got %f", cam.MinZoom)
	}

	cam.SetZoom(0.1) // Below min
	if cam.Zoom != 0.5 {
		t.Errorf("expected zoom clamped to 0.5, got %f", cam.Zoom)
	}

	cam.SetZoom(10.0) // Above max
	if cam.Zoom != 4.0 {
		t.Errorf("expected zoom clamped to 4.0, got %f", cam.Zoom)
	}
}

func TestMinZoomFitsWorld(t *testing.T) {
	cam := New(800, 600, 1600, 800)

	// MinZoom should be min(800/1600, 600/800) = 0.5
	if !near(cam.MinZoom, 0.5) {
		t.Errorf("expected MinZoom 0.5, got %f", cam.MinZoom)
	}

	// At min zoom the limiting dimension shows the whole world
	cam.SetZoom(cam.MinZoom)
	visibleW := cam.ViewportW / cam.Zoom
	if !near(visibleW, cam.WorldW) {
		t.Errorf("at min zoom, visible width %f should equal world width %f", visibleW, cam.WorldW)
	}
}

func TestZoomAtKeepsPointUnderCursor(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	wx, wy := cam.ScreenToWorld(800, 400)
	cam.ZoomAt(800, 400, 2)

	if cam.Zoom != 2 {
		t.Fatalf("expected zoom 2, got %f", cam.Zoom)
	}
	gx, gy := cam.ScreenToWorld(800, 400)
	if !near(gx, wx) || !near(gy, wy) {
		t.Errorf("point moved: (%f,%f) -> (%f,%f)", wx, wy, gx, gy)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	// Visible range in world coords: (640, 360) to (1920, 1080)

	if !cam.IsVisible(1280, 720, 10) {
		t.Error("center should be visible")
	}

	if cam.IsVisible(2400, 1300, 10) {
		t.Error("far point should not be visible")
	}

	// Point near edge with large radius should be visible
	if !cam.IsVisible(600, 720, 100) {
		t.Error("edge point with large radius should be visible")
	}
}

func TestReset(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.X = 500
	cam.Y = 500
	cam.Zoom = 2.5

	cam.Reset()

	if cam.X != 1280 || cam.Y != 720 {
		t.Errorf("expected position (1280, 720), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}
