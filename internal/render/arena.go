// Package render draws top-down arena frames for the debug endpoint.
// The renderer only consumes immutable snapshots, so it never blocks the
// simulation and is safe to call from any HTTP handler goroutine.
package render

import (
	"fmt"
	"hash/fnv"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"arena-fps/internal/game"

	"github.com/fogleman/gg"
)

// DefaultImageSize is the edge length in pixels of a square arena frame.
const DefaultImageSize = 640

// arenaMargin keeps the boundary square off the image edge so HUD text and
// out-of-bounds players stay visible.
const arenaMargin = 40.0

// playerPalette colors players deterministically by id hash; a player keeps
// the same color across frames without the server tracking one.
var playerPalette = []color.RGBA{
	{83, 255, 69, 255},
	{69, 170, 255, 255},
	{255, 149, 0, 255},
	{255, 69, 180, 255},
	{255, 226, 69, 255},
	{69, 255, 226, 255},
	{186, 104, 255, 255},
	{255, 120, 86, 255},
}

// Arena renders match frames onto a fixed-size canvas.
type Arena struct {
	width    int
	height   int
	fontPath string
	scale    float64 // world units -> pixels
	centerX  float64
	centerY  float64
}

// NewArena creates a renderer for a width x height canvas. The world square
// [-ArenaHalfExtent, +ArenaHalfExtent] on the ground plane is fit inside it.
func NewArena(width, height int) *Arena {
	half := math.Min(float64(width), float64(height))/2 - arenaMargin
	return &Arena{
		width:    width,
		height:   height,
		fontPath: findFontPath(),
		scale:    half / game.ArenaHalfExtent,
		centerX:  float64(width) / 2,
		centerY:  float64(height) / 2,
	}
}

// RenderPNG draws frame onto a fresh canvas and PNG-encodes it to w.
// A nil frame still produces the empty arena with its spawn markers.
func (a *Arena) RenderPNG(w io.Writer, frame *game.GameSnapshot, spawns []game.Vec3) error {
	dc := gg.NewContext(a.width, a.height)

	a.drawBackground(dc)
	a.drawGrid(dc)
	a.drawBoundary(dc)
	a.drawSpawns(dc, spawns)

	hasFont := a.fontPath != "" && dc.LoadFontFace(a.fontPath, 13) == nil

	if frame != nil {
		// Dead first so alive players draw on top of corpses.
		for _, p := range frame.Players {
			if !p.IsAlive {
				a.drawDeadPlayer(dc, p)
			}
		}
		for _, p := range frame.Players {
			if p.IsAlive {
				a.drawPlayer(dc, p, hasFont)
			}
		}
		a.drawHUD(dc, frame, hasFont)
	}

	return dc.EncodePNG(w)
}

// worldToPixel maps a ground-plane position (X east, Z north) to the canvas.
// The Z axis flips because image Y grows downward.
func (a *Arena) worldToPixel(p game.Vec3) (float64, float64) {
	return a.centerX + p.X*a.scale, a.centerY - p.Z*a.scale
}

func (a *Arena) drawBackground(dc *gg.Context) {
	dc.SetColor(color.RGBA{12, 12, 28, 255})
	dc.DrawRectangle(0, 0, float64(a.width), float64(a.height))
	dc.Fill()

	// Deterministic star field, same positions every frame.
	dc.SetColor(color.White)
	for i := 0; i < 30; i++ {
		x := float64((i * 67) % a.width)
		y := float64((i * 47) % a.height)
		dc.DrawCircle(x, y, 1)
		dc.Fill()
	}
}

func (a *Arena) drawGrid(dc *gg.Context) {
	dc.SetColor(color.RGBA{30, 30, 45, 255})
	dc.SetLineWidth(1)

	// One line per 10 world units.
	step := 10.0 * a.scale
	for x := a.centerX; x < float64(a.width); x += step {
		dc.DrawLine(x, 0, x, float64(a.height))
		dc.Stroke()
	}
	for x := a.centerX - step; x > 0; x -= step {
		dc.DrawLine(x, 0, x, float64(a.height))
		dc.Stroke()
	}
	for y := a.centerY; y < float64(a.height); y += step {
		dc.DrawLine(0, y, float64(a.width), y)
		dc.Stroke()
	}
	for y := a.centerY - step; y > 0; y -= step {
		dc.DrawLine(0, y, float64(a.width), y)
		dc.Stroke()
	}
}

func (a *Arena) drawBoundary(dc *gg.Context) {
	min := game.Vec3{X: -game.ArenaHalfExtent, Z: game.ArenaHalfExtent}
	x, y := a.worldToPixel(min)
	side := 2 * game.ArenaHalfExtent * a.scale

	dc.SetColor(color.RGBA{90, 90, 130, 255})
	dc.SetLineWidth(2)
	dc.DrawRectangle(x, y, side, side)
	dc.Stroke()
}

func (a *Arena) drawSpawns(dc *gg.Context, spawns []game.Vec3) {
	dc.SetColor(color.RGBA{60, 200, 160, 160})
	dc.SetLineWidth(1.5)
	for _, s := range spawns {
		x, y := a.worldToPixel(s)
		dc.DrawCircle(x, y, 5)
		dc.Stroke()
		dc.DrawLine(x-3, y, x+3, y)
		dc.Stroke()
		dc.DrawLine(x, y-3, x, y+3)
		dc.Stroke()
	}
}

func (a *Arena) drawPlayer(dc *gg.Context, p game.PlayerSnapshot, hasFont bool) {
	x, y := a.worldToPixel(p.Position)
	radius := 12.0

	// Shadow
	dc.SetColor(color.RGBA{0, 0, 0, 128})
	dc.DrawCircle(x, y+3, radius)
	dc.Fill()

	// Body
	dc.SetColor(colorForID(p.ID))
	dc.DrawCircle(x, y, radius)
	dc.Fill()

	// Border
	dc.SetColor(color.White)
	dc.SetLineWidth(2)
	dc.DrawCircle(x, y, radius)
	dc.Stroke()

	// Facing tick from yaw; 0 degrees looks north (+Z).
	yaw := p.Rotation.Y * math.Pi / 180
	dc.SetLineWidth(2)
	dc.DrawLine(x, y, x+math.Sin(yaw)*radius*1.8, y-math.Cos(yaw)*radius*1.8)
	dc.Stroke()

	// Health bar
	hpBarWidth := 40.0
	hpBarHeight := 5.0
	hpPercent := float64(p.Health) / float64(game.MaxHealth)

	dc.SetColor(color.RGBA{51, 51, 51, 255})
	dc.DrawRectangle(x-hpBarWidth/2, y-radius-14, hpBarWidth, hpBarHeight)
	dc.Fill()

	if hpPercent > 0.5 {
		dc.SetColor(color.RGBA{83, 255, 69, 255})
	} else if hpPercent > 0.25 {
		dc.SetColor(color.RGBA{255, 149, 0, 255})
	} else {
		dc.SetColor(color.RGBA{255, 62, 62, 255})
	}
	dc.DrawRectangle(x-hpBarWidth/2, y-radius-14, hpBarWidth*hpPercent, hpBarHeight)
	dc.Fill()

	if hasFont {
		dc.SetColor(color.RGBA{230, 232, 240, 255})
		dc.DrawStringAnchored(p.DisplayName, x, y+radius+12, 0.5, 0.5)
	}
}

func (a *Arena) drawDeadPlayer(dc *gg.Context, p game.PlayerSnapshot) {
	x, y := a.worldToPixel(p.Position)
	radius := 12.0

	c := colorForID(p.ID)
	c.A = 90
	dc.SetColor(c)
	dc.DrawCircle(x, y, radius)
	dc.Fill()

	// X for dead
	dc.SetColor(color.RGBA{255, 0, 0, 255})
	dc.SetLineWidth(2)
	dc.DrawLine(x-6, y-6, x+6, y+6)
	dc.Stroke()
	dc.DrawLine(x+6, y-6, x-6, y+6)
	dc.Stroke()
}

func (a *Arena) drawHUD(dc *gg.Context, frame *game.GameSnapshot, hasFont bool) {
	// Match state dot, green when a match is running.
	if frame.MatchActive {
		dc.SetColor(color.RGBA{83, 255, 69, 255})
	} else {
		dc.SetColor(color.RGBA{255, 62, 62, 255})
	}
	dc.DrawCircle(16, 16, 6)
	dc.Fill()

	if !hasFont {
		return
	}

	dc.SetColor(color.RGBA{230, 232, 240, 255})
	lines := []string{
		fmt.Sprintf("tick %d", frame.TickNumber),
		fmt.Sprintf("players %d  alive %d", frame.PlayerCount, frame.AliveCount),
		fmt.Sprintf("kills %d", frame.TotalKills),
		fmt.Sprintf("time %.1fs", frame.GameTime),
	}
	for i, line := range lines {
		dc.DrawStringAnchored(line, 30, 16+float64(i)*16, 0, 0.5)
	}
}

func colorForID(id string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(id))
	return playerPalette[h.Sum32()%uint32(len(playerPalette))]
}

func findFontPath() string {
	paths := []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/System/Library/Fonts/Helvetica.ttc",
		"C:\\Windows\\Fonts\\arial.ttf",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	matches, _ := filepath.Glob("*.ttf")
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}
