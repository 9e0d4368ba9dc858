package gfx

import (
	"errors"
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"pebl/internal/vm"
)

var errNoMachine = errors.New("gfx host has no machine to run")

type Options struct {
	Width         int
	Height        int
	Title         string
	StepsPerFrame int
}

// Host owns the window. Each frame it collects input into Queue and then
// steps the machine until the frame's budget is spent or the event loop
// yields; the window closes when the machine runs out of work.
type Host struct {
	Queue  *Queue
	Device *Device

	opts Options

	mu          sync.Mutex
	width       int
	height      int
	commands    []command
	clear       color.RGBA
	shouldClose bool
}

func NewHost(opts Options) *Host {
	if opts.Width <= 0 {
		opts.Width = 640
	}
	if opts.Height <= 0 {
		opts.Height = 480
	}
	if opts.Title == "" {
		opts.Title = "PEBL"
	}
	if opts.StepsPerFrame <= 0 {
		opts.StepsPerFrame = 10000
	}
	dev := &Device{start: time.Now()}
	return &Host{
		Queue:  newQueue(dev),
		Device: dev,
		opts:   opts,
		width:  opts.Width,
		height: opts.Height,
		clear:  color.RGBA{A: 255},
	}
}

type command interface {
	draw(dst *ebiten.Image)
}

type rectCmd struct {
	x, y, w, h float32
	c          color.RGBA
}

func (r rectCmd) draw(dst *ebiten.Image) {
	vector.DrawFilledRect(dst, r.x, r.y, r.w, r.h, r.c, false)
}

// Run opens the window and drives m until it finishes, the window is closed
// or a fatal error stops it.
func Run(h *Host, m *vm.Machine) error {
	if m == nil {
		return errNoMachine
	}
	ebiten.SetWindowSize(h.opts.Width, h.opts.Height)
	ebiten.SetWindowTitle(h.opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(&ebitenGame{host: h, machine: m})
}

type ebitenGame struct {
	host    *Host
	machine *vm.Machine
}

func (g *ebitenGame) Update() error {
	h := g.host
	h.Queue.collect()

	more, err := g.machine.RunFrame(h.opts.StepsPerFrame)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.shouldClose = h.shouldClose || !more || ebiten.IsWindowBeingClosed()
	closing := h.shouldClose
	h.mu.Unlock()
	if closing {
		return ebiten.Termination
	}
	return nil
}

func (g *ebitenGame) Draw(screen *ebiten.Image) {
	h := g.host
	h.mu.Lock()
	clear := h.clear
	cmds := append([]command(nil), h.commands...)
	h.mu.Unlock()

	screen.Fill(clear)
	for _, cmd := range cmds {
		cmd.draw(screen)
	}
}

func (g *ebitenGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	h := g.host
	h.mu.Lock()
	defer h.mu.Unlock()
	if outsideWidth != h.width || outsideHeight != h.height {
		h.width, h.height = outsideWidth, outsideHeight
		h.Queue.resized(outsideWidth, outsideHeight)
	}
	return h.width, h.height
}

// Close asks the window to close after the current frame.
func (h *Host) Close() {
	h.mu.Lock()
	h.shouldClose = true
	h.mu.Unlock()
}
