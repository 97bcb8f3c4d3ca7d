package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/takosim/internal/config"
	"github.com/san-kum/takosim/internal/input"
	"github.com/san-kum/takosim/internal/lifecycle"
	"github.com/san-kum/takosim/internal/sim"
)

const (
	canvasWidth     = 40
	canvasHeight    = 20
	historyCapacity = 240
	fps             = 60

	spinStep    = 0.5
	tiltStep    = 5.0
	maxTilt     = 60.0
	tempStep    = 10.0
	jiggleForce = 0.2
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(46)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#d99a3d")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// gauge eases a displayed value toward its target.
type gauge struct {
	spring   harmonica.Spring
	pos, vel float64
}

func newGauge() gauge {
	return gauge{spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.8)}
}

func (g *gauge) update(target float64) {
	g.pos, g.vel = g.spring.Update(g.pos, g.vel, target)
}

// Model is a live play session. The keyboard stands in for the gyro and the
// stove; every frame advances the session by the wall-clock delta.
type Model struct {
	runner *sim.Runner
	cfg    *config.Config
	canvas *Canvas
	camera *Camera

	running  bool
	showHelp bool
	last     time.Time

	spin         float64
	tiltX, tiltZ float64
	temp         float64
	lifted       bool
	jiggle       float64
	phase        int

	sample    sim.Sample
	cookHist  []float64
	pulseHist []float64
	cook      gauge
	progress  gauge
	mastery   gauge
	lastKind  string
}

// NewModel wraps a session for interactive play using cfg's pan temperature
// and run clamp.
func NewModel(s *sim.Session, cfg *config.Config) Model {
	r := sim.NewRunner(s)
	r.SetConfig(cfg.Run)
	return Model{
		runner:   r,
		cfg:      cfg,
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		camera:   NewCamera(),
		running:  true,
		temp:     cfg.Input.Synthetic.PanTemperature,
		phase:    input.DerivePhase,
		sample:   s.Sample(),
		cookHist: make([]float64, 0, historyCapacity),
		cook:     newGauge(),
		progress: newGauge(),
		mastery:  newGauge(),
	}
}

func (m Model) Init() tea.Cmd { return tick() }

// Sample is the latest recorded tick.
func (m Model) Sample() sim.Sample { return m.sample }

func (m Model) Runner() *sim.Runner { return m.runner }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
			m.last = time.Time{}
		case "up":
			m.spin += spinStep
		case "down":
			m.spin = math.Max(0, m.spin-spinStep)
		case "left":
			m.tiltZ = math.Max(-maxTilt, m.tiltZ-tiltStep)
		case "right":
			m.tiltZ = math.Min(maxTilt, m.tiltZ+tiltStep)
		case "w":
			m.tiltX = math.Min(maxTilt, m.tiltX+tiltStep)
		case "s":
			m.tiltX = math.Max(-maxTilt, m.tiltX-tiltStep)
		case "j":
			m.jiggle = jiggleForce
		case "n":
			next := min(lifecycle.Finished, m.runner.Session().State()+1)
			m.phase = next.Phase()
		case "h":
			m.lifted = !m.lifted
		case "+", "=":
			m.temp += tempStep
		case "-", "_":
			m.temp = math.Max(0, m.temp-tempStep)
		case "r":
			m.reset()
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		now := time.Time(msg)
		if m.running {
			dt := 1.0 / fps
			if !m.last.IsZero() {
				dt = now.Sub(m.last).Seconds()
			}
			m.step(dt)
			m.last = now
		}
		m.cook.update(m.sample.Cook)
		m.progress.update(m.sample.Progress)
		m.mastery.update(m.sample.Mastery)
		return m, tick()
	}
	return m, nil
}

func (m Model) frame() input.Frame {
	return input.Frame{
		AngularVelocity: mgl64.Vec3{0, m.spin, 0},
		Tilt:            input.TiltFromDegrees(m.tiltX, m.tiltZ),
		PanTemperature:  m.temp,
		InHole:          !m.lifted,
		Phase:           m.phase,
		Jiggle:          m.jiggle,
	}
}

// step runs one tick; one-shot inputs are consumed only if it ran.
func (m *Model) step(dt float64) {
	before := len(m.runner.Session().Events())
	s, ok := m.runner.Step(dt, m.frame())
	if !ok {
		return
	}
	m.sample = s
	m.jiggle = 0
	m.phase = input.DerivePhase

	if evs := m.runner.Session().Events(); len(evs) > before {
		m.lastKind = evs[len(evs)-1].Kind.String()
	}
	m.cookHist = appendCapped(m.cookHist, s.Cook)
	m.pulseHist = appendCapped(m.pulseHist, s.Pulse)
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m *Model) reset() {
	m.runner.Session().Reset()
	m.sample = m.runner.Session().Sample()
	m.cookHist = m.cookHist[:0]
	m.pulseHist = m.pulseHist[:0]
	m.spin, m.tiltX, m.tiltZ = 0, 0, 0
	m.lifted = false
	m.jiggle = 0
	m.phase = input.DerivePhase
	m.lastKind = ""
	m.last = time.Time{}
}

func (m Model) status() string {
	switch {
	case m.sample.State == lifecycle.Finished:
		return StatusServed.Render("SERVED")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	}
	return StatusRunning.Render(strings.ToUpper(m.sample.State.String()))
}

func (m Model) View() string {
	sess := m.runner.Session()
	m.canvas.Clear()
	DrawBall(m.canvas, m.camera, sess.Ball(), sess.Mesh())
	canvasView := lipgloss.NewStyle().Padding(1, 2).Render(m.canvas.Render(CookStyle))

	s := m.sample
	var b strings.Builder
	b.WriteString(headerStyle.Render(GradientText("TAKOSIM", CurrentTheme.Primary, CurrentTheme.Secondary)) + "\n")
	b.WriteString(m.status() + "  " + Subtle.Render(sess.Shaper().Name()) + "\n\n")

	if len(m.cookHist) > 1 {
		chart := asciigraph.Plot(m.cookHist, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("cook"))
		b.WriteString(graphStyle.Render(chart) + "\n")
	}

	row := func(label, value string) {
		b.WriteString(MetricLabel.Render(label) + value + "\n")
	}
	row("time", MetricValue.Render(fmt.Sprintf("%.1fs", s.Time)))
	row("spin", MetricValue.Render(fmt.Sprintf("%.1f rad/s", s.Spin)))
	row("pan", MetricValue.Render(fmt.Sprintf("%.0f°", m.temp)))
	row("tilt", MetricValue.Render(fmt.Sprintf("x %+.0f  z %+.0f", m.tiltX, m.tiltZ)))
	b.WriteString("\n")
	row("cook", CookBar(m.cook.pos, 20)+MetricValue.Render(fmt.Sprintf(" %.2f", s.Cook)))
	row("shape", ProgressBar(m.progress.pos, 20)+MetricValue.Render(fmt.Sprintf(" %.0f%%", s.Progress*100)))
	row("mastery", ProgressBar(m.mastery.pos, 20))
	row("combo", MetricValue.Render(fmt.Sprintf("%d", s.Combo)))
	row("harmony", MetricValue.Render(fmt.Sprintf("%.2f", s.Harmony)))
	row("rhythm", SparklineChart(m.pulseHist, 24))
	if m.lifted {
		row("hole", StatusPaused.Render("lifted"))
	}
	if m.lastKind != "" {
		row("event", KeyHint.Render(m.lastKind))
	}

	if score, ok := sess.Score(); ok {
		b.WriteString("\n" + StatusServed.Render(fmt.Sprintf("score %d", score.Final)) + "\n")
		b.WriteString(Subtle.Render(lifecycle.Comment(score)) + "\n")
	}

	b.WriteString(helpStyle.Render(Separator(30) + "\nSP:Pause R:New ball Q:Quit\n↑↓:Spin ←→/WS:Tilt ?:Help"))
	view := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(b.String()))
	if m.showHelp {
		return GlassPanel.Render(helpText) + "\n" + view
	}
	return view
}

const helpText = `KEYBOARD SHORTCUTS
Space  pause/resume
↑/↓    spin faster/slower
←/→    tilt the pan about Z
W/S    tilt the pan about X
J      jiggle the ball
N      force the next phase
H      lift out of the hole
+/-    pan temperature
R      new ball
T      cycle themes
?      toggle this help`

// RunPlay opens a live session for cfg.
func RunPlay(cfg *config.Config) error {
	s, err := sim.NewSession(cfg.SessionOptions())
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(NewModel(s, cfg), tea.WithAltScreen()).Run()
	return err
}
