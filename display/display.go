// Package display is a front end for raw programs that follow the
// 0x0200 framebuffer convention: a 32x32 one-byte-per-pixel screen in
// pages 0x02-0x05, last keypress at 0x00FF, fresh entropy at 0x00FE.
package display

import (
	"image/color"
	"math/rand"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"famigo/mos6502"
)

const (
	FRAME_BASE   = 0x0200
	FRAME_WIDTH  = 32
	FRAME_HEIGHT = 32

	INPUT_ADDR = 0x00FF
	RAND_ADDR  = 0x00FE

	scale = 10
)

var (
	black   = color.RGBA{0, 0, 0, 255}
	white   = color.RGBA{255, 255, 255, 255}
	grey    = color.RGBA{128, 128, 128, 255}
	red     = color.RGBA{255, 0, 0, 255}
	green   = color.RGBA{0, 255, 0, 255}
	blue    = color.RGBA{0, 0, 255, 255}
	magenta = color.RGBA{255, 0, 255, 255}
	yellow  = color.RGBA{255, 255, 0, 255}
	cyan    = color.RGBA{0, 255, 255, 255}
)

// pixelColor maps a framebuffer byte to the conventional 16-color
// palette (colors 9-14 repeat 2-7).
func pixelColor(b uint8) color.RGBA {
	switch b {
	case 0:
		return black
	case 1:
		return white
	case 2, 9:
		return grey
	case 3, 10:
		return red
	case 4, 11:
		return green
	case 5, 12:
		return blue
	case 6, 13:
		return magenta
	case 7, 14:
		return yellow
	default:
		return cyan
	}
}

// keymap translates held keys to the ASCII bytes programs poll for.
var keymap = []struct {
	key  ebiten.Key
	code uint8
}{
	{ebiten.KeyW, 'w'},
	{ebiten.KeyA, 'a'},
	{ebiten.KeyS, 's'},
	{ebiten.KeyD, 'd'},
	{ebiten.KeyArrowUp, 'w'},
	{ebiten.KeyArrowLeft, 'a'},
	{ebiten.KeyArrowDown, 's'},
	{ebiten.KeyArrowRight, 'd'},
}

type Game struct {
	cpu  *mos6502.CPU
	done chan error
}

// Update is called by ebiten roughly every 1/60s. The CPU runs in its
// own goroutine; all we do here is feed input and notice termination.
func (g *Game) Update() error {
	select {
	case err := <-g.done:
		if err != nil {
			return err
		}
		return ebiten.Termination
	default:
	}

	for _, k := range keymap {
		if ebiten.IsKeyPressed(k.key) {
			g.cpu.Write(INPUT_ADDR, k.code)
		}
	}
	return nil
}

// Draw repaints the window from the framebuffer pages.
func (g *Game) Draw(screen *ebiten.Image) {
	for y := 0; y < FRAME_HEIGHT; y++ {
		for x := 0; x < FRAME_WIDTH; x++ {
			b := g.cpu.Read(FRAME_BASE + uint16(y*FRAME_WIDTH+x))
			screen.Set(x, y, pixelColor(b))
		}
	}
}

// Layout returns the constant framebuffer resolution, forcing ebiten
// to scale the display when the window size changes.
func (g *Game) Layout(w, h int) (int, int) {
	return FRAME_WIDTH, FRAME_HEIGHT
}

// Play executes an already-loaded CPU under the framebuffer front
// end, returning when the program BRKs, fails, or the window closes.
func Play(c *mos6502.CPU) error {
	g := &Game{cpu: c, done: make(chan error, 1)}

	go func() {
		g.done <- c.RunWithCallback(func(c *mos6502.CPU) {
			// entropy before every instruction, the way the
			// framebuffer games expect it
			c.Write(RAND_ADDR, uint8(rand.Intn(15)+1))
			// pace the interpreter down toward hardware speed
			time.Sleep(70 * time.Microsecond)
		})
	}()

	ebiten.SetWindowSize(FRAME_WIDTH*scale, FRAME_HEIGHT*scale)
	ebiten.SetWindowTitle("famigo")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	return ebiten.RunGame(g)
}
