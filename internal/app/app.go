package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"rover-radar.klederson.com/internal/bluetooth"
	"rover-radar.klederson.com/internal/command"
	"rover-radar.klederson.com/internal/config"
	"rover-radar.klederson.com/internal/logging"
	"rover-radar.klederson.com/internal/radar"
	"rover-radar.klederson.com/internal/session"
	"rover-radar.klederson.com/internal/ui"
)

// Options wires the model to the session it presents.
type Options struct {
	Context    context.Context
	Driver     bluetooth.Driver
	Controller *session.Controller
	Mapper     *radar.Mapper
	Speed      int
	Adapter    string
	Demo       bool
	Logger     *zap.Logger
}

// promptRelay forwards dispatcher prompts into the running program.
type promptRelay struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (r *promptRelay) attach(send func(tea.Msg)) {
	r.mu.Lock()
	r.send = send
	r.mu.Unlock()
}

func (r *promptRelay) Prompt(p command.Prompt) {
	r.mu.Lock()
	send := r.send
	r.mu.Unlock()
	if send != nil {
		send(PromptMsg(p))
	}
}

// shared holds state shared between the Bubble Tea model copies and main.go.
// Because Bubble Tea uses value receivers, pointer fields ensure all copies
// see the same underlying data.
type shared struct {
	ctx        context.Context
	driver     bluetooth.Driver
	controller *session.Controller
	dispatcher *command.Dispatcher
	mapper     *radar.Mapper
	sweep      *radar.Sweep
	history    *SignalHistory
	relay      *promptRelay
	log        *zap.Logger
}

// Model is the root Bubble Tea model.
type Model struct {
	width  int
	height int

	adapter   string
	demo      bool
	cursor    int
	radarMode bool
	prompt    *command.Prompt
	notice    string

	keys KeyMap
	help help.Model

	shared *shared

	// Cached snapshots
	peripherals     []bluetooth.Peripheral
	registryVersion uint64
	state           session.State
	marks           []radar.Classification
	sampleVersion   uint64
}

// New creates the model and the dispatcher it drives.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	relay := &promptRelay{}
	return Model{
		adapter: opts.Adapter,
		demo:    opts.Demo,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		marks:   radar.ClassifyAll(nil),
		shared: &shared{
			ctx:        ctx,
			driver:     opts.Driver,
			controller: opts.Controller,
			dispatcher: command.NewDispatcher(opts.Controller, opts.Driver, relay, opts.Speed, opts.Logger),
			mapper:     opts.Mapper,
			sweep:      radar.NewSweep(),
			history:    NewSignalHistory(config.SignalHistoryLen),
			relay:      relay,
			log:        logging.Component(opts.Logger, "app"),
		},
	}
}

// Start subscribes the session and radar to driver events and routes
// prompts into p. Must be called before p.Run(); the returned function
// undoes both and must run on every exit path.
func (m Model) Start(p *tea.Program) (stop func()) {
	return m.subscribe(p.Send)
}

func (m Model) subscribe(send func(tea.Msg)) func() {
	m.shared.relay.attach(send)
	unsubscribe := m.shared.driver.Subscribe(func(ev bluetooth.Event) {
		m.shared.controller.HandleEvent(ev)
		m.shared.mapper.HandleEvent(ev)
		send(EventMsg(ev))
	})
	return func() {
		unsubscribe()
		m.shared.relay.attach(nil)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.scanCmd(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		m.shared.sweep.Update()
		m.refresh()
		return m, tickCmd()

	case EventMsg:
		m.handleEvent(bluetooth.Event(msg))
		return m, nil

	case PromptMsg:
		p := command.Prompt(msg)
		m.prompt = &p
		return m, nil

	case scanStartedMsg:
		if !msg.started {
			m.notice = "scan already running"
			return m, nil
		}
		m.notice = "scanning"
		m.radarMode = false
		return m, nil

	case connectResultMsg:
		switch {
		case msg.err == nil:
			m.notice = "connected to " + msg.id
		case errors.Is(msg.err, session.ErrAlreadyConnected):
			m.notice = "already connected to a device"
		default:
			m.notice = "connect failed: " + msg.err.Error()
		}
		m.refresh()
		return m, nil

	case disconnectResultMsg:
		m.radarMode = false
		if msg.err != nil {
			m.notice = "disconnect: " + msg.err.Error()
		} else {
			m.notice = "disconnected"
		}
		return m, nil

	case dispatchResultMsg:
		if msg.radar {
			m.radarMode = true
			m.shared.sweep.Kick()
			m.notice = "radar sweep sent"
		}
		return m, nil

	case pollResultMsg:
		if msg.err != nil {
			m.notice = "read failed: " + msg.err.Error()
		} else {
			m.refresh()
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleEvent(ev bluetooth.Event) {
	switch ev.Kind {
	case bluetooth.EventNotification:
		m.refresh()
	case bluetooth.EventScanStopped:
		if ev.Err != nil {
			m.notice = "scan stopped: " + ev.Err.Error()
		} else {
			m.notice = fmt.Sprintf("scan finished, %d peripherals", m.shared.controller.Registry().Count())
		}
	case bluetooth.EventDisconnected:
		if ev.PeripheralID != "" && ev.PeripheralID == m.state.ActiveID {
			m.radarMode = false
			m.notice = "link lost"
		}
	}
}

// refresh pulls new snapshots when their versions moved.
func (m *Model) refresh() {
	snap := m.shared.controller.Registry().Snapshot()
	if snap.Version != m.registryVersion {
		if len(snap.Records) == 0 {
			m.shared.history.Reset()
		}
		m.peripherals = snap.Records
		m.registryVersion = snap.Version
		m.shared.history.Record(snap.Records)
	}
	if m.cursor >= len(m.peripherals) {
		m.cursor = max(0, len(m.peripherals)-1)
	}

	m.state = m.shared.controller.State()

	if v := m.shared.mapper.Version(); v != m.sampleVersion {
		m.marks = m.shared.mapper.Classifications()
		m.sampleVersion = v
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != nil {
		switch {
		case key.Matches(msg, m.keys.Accept):
			p := *m.prompt
			m.prompt = nil
			return m, m.acceptCmd(p)
		case key.Matches(msg, m.keys.Decline):
			m.prompt = nil
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Escape):
		m.radarMode = false

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.peripherals)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Scan):
		return m, m.scanCmd()

	case key.Matches(msg, m.keys.Connect):
		if p := m.selected(); p != nil {
			return m, m.connectCmd(p.ID)
		}

	case key.Matches(msg, m.keys.Disconnect):
		return m, m.disconnectCmd()

	case key.Matches(msg, m.keys.Radar):
		return m, m.dispatchCmd(command.RadarSweep)

	case key.Matches(msg, m.keys.Poll):
		return m, m.pollCmd()

	case key.Matches(msg, m.keys.Forward):
		return m, m.dispatchCmd(command.Move(command.Forward))

	case key.Matches(msg, m.keys.Backward):
		return m, m.dispatchCmd(command.Move(command.Backward))

	case key.Matches(msg, m.keys.Left):
		return m, m.dispatchCmd(command.Move(command.Left))

	case key.Matches(msg, m.keys.Right):
		return m, m.dispatchCmd(command.Move(command.Right))

	case key.Matches(msg, m.keys.Faster):
		m.notice = fmt.Sprintf("speed %d", m.shared.dispatcher.Adjust(1))

	case key.Matches(msg, m.keys.Slower):
		m.notice = fmt.Sprintf("speed %d", m.shared.dispatcher.Adjust(-1))
	}

	return m, nil
}

func (m Model) selected() *bluetooth.Peripheral {
	if m.cursor < 0 || m.cursor >= len(m.peripherals) {
		return nil
	}
	p := m.peripherals[m.cursor]
	return &p
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing " + config.AppName + "..."
	}
	if m.prompt != nil {
		return ui.RenderPrompt(m.width, m.height, m.prompt.Message, m.prompt.Accept)
	}

	helpLine := m.help.View(m.keys)
	bodyH := m.height - 2 - lipgloss.Height(helpLine)
	if bodyH < 8 {
		bodyH = 8
	}

	mainW := m.width * 3 / 5
	if mainW < 36 {
		mainW = 36
	}
	listW := m.width - mainW
	if listW < 20 {
		listW = 20
		mainW = m.width - listW
	}

	menuBar := ui.RenderMenuBar(m.width, m.adapter, m.demo, m.state.Scanning, m.state.Connected)

	var mainPanel string
	if m.radarMode {
		innerW := mainW - 4
		innerH := bodyH - 4 // border, header and legend
		radarContent := radar.Render(innerW, innerH, m.marks, m.shared.sweep)
		legend := radar.RenderLegend(innerW)
		mainPanel = ui.RenderRadarPanel(mainW, bodyH, radarContent, legend, m.shared.mapper.Updated())
	} else {
		sel := m.selected()
		var hist []float64
		if sel != nil {
			hist = m.shared.history.Values(sel.ID)
		}
		mainPanel = ui.RenderDetailPanel(sel, mainW, bodyH, hist, m.shared.dispatcher.Speed())
	}

	deviceList := ui.RenderDeviceList(m.peripherals, listW, bodyH, m.cursor, m.state.Scanning)

	connecting := 0
	for i := range m.peripherals {
		if m.peripherals[i].State == bluetooth.StateConnecting {
			connecting++
		}
	}
	statusBar := ui.RenderStatusBar(m.width, ui.Status{
		Scanning:    m.state.Scanning,
		Connected:   m.state.Connected,
		Peripherals: len(m.peripherals),
		Connecting:  connecting,
		Speed:       m.shared.dispatcher.Speed(),
		SweepDeg:    m.shared.sweep.Angle,
		Notice:      m.notice,
	})

	return ui.ComposeLayout(menuBar, mainPanel, deviceList, statusBar, helpLine)
}

func (m Model) scanCmd() tea.Cmd {
	s := m.shared
	return func() tea.Msg {
		return scanStartedMsg{started: s.controller.StartScan(s.ctx)}
	}
}

func (m Model) connectCmd(id string) tea.Cmd {
	s := m.shared
	return func() tea.Msg {
		return connectResultMsg{id: id, err: s.controller.Connect(s.ctx, id)}
	}
}

func (m Model) disconnectCmd() tea.Cmd {
	s := m.shared
	return func() tea.Msg {
		return disconnectResultMsg{err: s.controller.Disconnect(s.ctx)}
	}
}

func (m Model) dispatchCmd(intent command.Intent) tea.Cmd {
	s := m.shared
	return func() tea.Msg {
		return dispatchResultMsg{intent: intent, radar: s.dispatcher.Dispatch(s.ctx, intent)}
	}
}

func (m Model) pollCmd() tea.Cmd {
	s := m.shared
	return func() tea.Msg {
		data, err := s.dispatcher.Poll(s.ctx)
		if err != nil {
			return pollResultMsg{err: err}
		}
		s.mapper.OnNotification(data)
		return pollResultMsg{}
	}
}

func (m Model) acceptCmd(p command.Prompt) tea.Cmd {
	s := m.shared
	return func() tea.Msg {
		if p.OnAccept == nil {
			return nil
		}
		return scanStartedMsg{started: p.OnAccept(s.ctx)}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(config.TargetFPS), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
