// Package app hosts the console in an Ebitengine window: one emulated
// frame per Update, keyboard state latched into the controller ports.
package app

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"nescore/internal/input"
	"nescore/internal/nes"
	"nescore/internal/ppu"
)

// keyBinding maps one keyboard key to one controller button.
type keyBinding struct {
	key    ebiten.Key
	button input.Button
}

var defaultBindings = []keyBinding{
	{ebiten.KeyZ, input.ButtonA},
	{ebiten.KeyX, input.ButtonB},
	{ebiten.KeyShiftRight, input.ButtonSelect},
	{ebiten.KeyEnter, input.ButtonStart},
	{ebiten.KeyArrowUp, input.ButtonUp},
	{ebiten.KeyArrowDown, input.ButtonDown},
	{ebiten.KeyArrowLeft, input.ButtonLeft},
	{ebiten.KeyArrowRight, input.ButtonRight},
}

// Game drives the console from the Ebitengine loop.
type Game struct {
	console *nes.Nes
	config  *Config

	frameImage *ebiten.Image
	pixels     []byte

	paused    bool
	pauseHeld bool
	resetHeld bool
}

// NewGame creates the host around a loaded console.
func NewGame(console *nes.Nes, config *Config) *Game {
	return &Game{
		console:    console,
		config:     config,
		frameImage: ebiten.NewImage(ppu.FrameWidth, ppu.FrameHeight),
		pixels:     make([]byte, ppu.FrameWidth*ppu.FrameHeight*4),
	}
}

// Run opens the window and enters the Ebitengine main loop.
func (g *Game) Run(title string) error {
	scale := g.config.WindowScale
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(ppu.FrameWidth*scale, ppu.FrameHeight*scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(g.config.Vsync)
	if g.config.Fullscreen {
		ebiten.SetFullscreen(true)
	}
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("running game loop: %w", err)
	}
	return nil
}

// Update advances the console by one frame.
func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if ebiten.IsKeyPressed(ebiten.KeyP) {
		if !g.pauseHeld {
			g.paused = !g.paused
		}
		g.pauseHeld = true
	} else {
		g.pauseHeld = false
	}
	if ebiten.IsKeyPressed(ebiten.KeyR) {
		if !g.resetHeld {
			g.console.Reset()
		}
		g.resetHeld = true
	} else {
		g.resetHeld = false
	}
	if g.paused {
		return nil
	}

	buttons := pollButtons()
	g.console.UpdateControllerOne(&buttons)
	g.console.Frame()
	return nil
}

// Draw copies the frame buffer to the screen, scaled to fit.
func (g *Game) Draw(screen *ebiten.Image) {
	frame := g.console.FrameBuffer()
	for i, argb := range frame {
		g.pixels[i*4+0] = uint8(argb >> 16)
		g.pixels[i*4+1] = uint8(argb >> 8)
		g.pixels[i*4+2] = uint8(argb)
		g.pixels[i*4+3] = uint8(argb >> 24)
	}
	g.frameImage.WritePixels(g.pixels)

	bounds := screen.Bounds()
	scaleX := float64(bounds.Dx()) / float64(ppu.FrameWidth)
	scaleY := float64(bounds.Dy()) / float64(ppu.FrameHeight)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scaleX, scaleY)
	screen.DrawImage(g.frameImage, op)
}

// Layout reports the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ppu.FrameWidth, ppu.FrameHeight
}

// pollButtons samples the keyboard into a controller byte.
func pollButtons() uint8 {
	var buttons uint8
	for _, binding := range defaultBindings {
		if ebiten.IsKeyPressed(binding.key) {
			buttons |= uint8(binding.button)
		}
	}
	return buttons
}
