package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kb9vty/catmux/pkg/catproto"
	"github.com/kb9vty/catmux/pkg/config"
	"github.com/kb9vty/catmux/pkg/ioendpoint"
	"github.com/kb9vty/catmux/pkg/logging"
	"github.com/kb9vty/catmux/pkg/mux"
	"github.com/kb9vty/catmux/pkg/portscan"
	"github.com/kb9vty/catmux/pkg/storage"
	"github.com/kb9vty/catmux/pkg/transport"
	"github.com/kb9vty/catmux/pkg/translate"
	"github.com/kb9vty/catmux/pkg/virtualradio"
)

// Daemon is catmuxd's process: one mux.Actor, the I/O tasks bridging it to
// real and virtual radios and the amplifier, the roster store, and the
// control API's HTTP server. There is no separate socket-facing core
// engine process here; the actor already runs in its own goroutine, so the
// control API talks to it directly.
type Daemon struct {
	config     *config.Config
	configPath string
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	actor   *mux.Actor
	roster  *storage.RosterStore
	scanner *portscan.Scanner

	tasksMu    sync.Mutex
	radioTasks map[catproto.RadioHandle]*ioendpoint.RadioTask
	ampTask    *ioendpoint.AmpTask

	apiServer *http.Server
}

// NewDaemon builds a daemon from loaded configuration. It does not start
// any I/O; call Start for that.
func NewDaemon(cfg *config.Config, configPath string) (*Daemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	roster, err := storage.NewRosterStore(cfg.Storage.DatabasePath)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open roster store: %w", err)
	}

	translateCfg := translate.DefaultConfig()
	if cfg.Translation.FrequencyPrecisionHz > 0 {
		translateCfg.FrequencyPrecisionHz = cfg.Translation.FrequencyPrecisionHz
	}

	d := &Daemon{
		config:     cfg,
		configPath: configPath,
		ctx:        ctx,
		cancel:     cancel,
		actor:      mux.NewActor(int64(cfg.Switching.LockoutMs), translateCfg),
		roster:     roster,
		radioTasks: make(map[catproto.RadioHandle]*ioendpoint.RadioTask),
		scanner: portscan.NewScanner(portscan.ScannerConfig{
			BaudRates:    []uint32{38400, 19200, 9600, 4800, 115200},
			SkipPatterns: []string{"Bluetooth", "debug"},
		}, portscan.NewProber(portscan.ProbeConfig{
			Timeout:         time.Duration(cfg.Scanner.ProbeTimeoutMs) * time.Millisecond,
			InterProbeDelay: time.Duration(cfg.Scanner.InterProbeDelayMs) * time.Millisecond,
		})),
	}

	switch cfg.Switching.Mode {
	case "frequency_triggered":
		d.actor.SetSwitchingMode(ctx, mux.FrequencyTriggered)
	case "automatic":
		d.actor.SetSwitchingMode(ctx, mux.Automatic)
	}

	if err := d.setupAPIServer(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to set up control API: %w", err)
	}

	return d, nil
}

// Start runs the actor loop, replays the persisted roster (plus any
// config-declared radios and virtual radios), connects the amplifier if
// configured, and starts the control API's HTTP server.
func (d *Daemon) Start() error {
	logging.Info("daemon", "starting catmux daemon")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.actor.Run(d.ctx)
	}()

	if err := d.bringUpConfiguredRadios(); err != nil {
		logging.Warn("daemon", fmt.Sprintf("failed to bring up configured radios: %v", err))
	}
	if err := d.bringUpVirtualRadios(); err != nil {
		logging.Warn("daemon", fmt.Sprintf("failed to bring up virtual radios: %v", err))
	}
	if err := d.bringUpAmplifier(); err != nil {
		logging.Warn("daemon", fmt.Sprintf("failed to connect amplifier: %v", err))
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		addr := fmt.Sprintf("%s:%d", d.config.API.BindAddress, d.config.API.Port)
		logging.Info("daemon", fmt.Sprintf("control API listening on %s", addr))
		if err := d.apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("daemon", fmt.Sprintf("control API server error: %v", err))
		}
	}()

	return nil
}

// Stop shuts down the HTTP server (waiting up to 5 seconds), asks every
// I/O task to stop without waiting on each, then cancels the daemon
// context and waits for all tracked goroutines, the actor's included.
func (d *Daemon) Stop() error {
	logging.Info("daemon", "stopping catmux daemon")

	if d.apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.apiServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn("daemon", fmt.Sprintf("control API shutdown error: %v", err))
		}
	}

	d.tasksMu.Lock()
	for _, t := range d.radioTasks {
		t.Shutdown()
	}
	if d.ampTask != nil {
		d.ampTask.Shutdown()
	}
	d.tasksMu.Unlock()

	d.cancel()
	d.wg.Wait()

	if err := d.roster.Close(); err != nil {
		logging.Warn("daemon", fmt.Sprintf("roster store close error: %v", err))
	}

	logging.Info("daemon", "catmux daemon stopped")
	return nil
}

// bringUpConfiguredRadios replays the persisted roster, falling back to
// config.yaml's configured_radios on a freshly initialized store, opening
// each one's serial port and registering it with the actor.
func (d *Daemon) bringUpConfiguredRadios() error {
	saved, err := d.roster.ListRadios()
	if err != nil {
		return fmt.Errorf("failed to list roster radios: %w", err)
	}
	if len(saved) == 0 {
		for _, r := range d.config.Radios {
			proto, ok := config.ProtocolFromName(r.Protocol)
			if !ok {
				continue
			}
			meta := catproto.RadioChannelMeta{DisplayName: r.DisplayName, PortName: r.PortName, Protocol: proto}
			if r.CivAddress != "" {
				meta.CivAddress = parseCivAddress(r.CivAddress)
			}
			if _, err := d.roster.SaveRadio(meta); err != nil {
				logging.Warn("daemon", fmt.Sprintf("failed to persist configured radio %q: %v", r.DisplayName, err))
				continue
			}
		}
		saved, err = d.roster.ListRadios()
		if err != nil {
			return fmt.Errorf("failed to list roster radios after seeding: %w", err)
		}
	}

	for _, r := range saved {
		baud := 9600
		for _, rc := range d.config.Radios {
			if rc.PortName == r.Meta.PortName {
				baud = rc.BaudRate
				break
			}
		}
		if err := d.connectRealRadio(r.Meta, baud); err != nil {
			logging.Warn("daemon", fmt.Sprintf("failed to connect radio %q on %s: %v", r.Meta.DisplayName, r.Meta.PortName, err))
		}
	}
	return nil
}

func (d *Daemon) connectRealRadio(meta catproto.RadioChannelMeta, baud int) error {
	stream, err := transport.OpenSerial(meta.PortName, baud)
	if err != nil {
		return err
	}

	handle, err := d.actor.RegisterRadio(d.ctx, meta)
	if err != nil {
		stream.Close()
		return err
	}

	task := ioendpoint.NewRadioTask(handle, stream, d.actor)
	d.tasksMu.Lock()
	d.radioTasks[handle] = task
	d.tasksMu.Unlock()

	init := buildInitSequence(meta.Protocol, meta.CivAddress)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		task.Run(d.ctx, init)
	}()

	return nil
}

// bringUpVirtualRadios spins up an in-process virtualradio.Radio for every
// config-declared virtual entry, wired the same way a real radio's I/O
// task is, over an in-memory duplex pipe instead of a serial port.
func (d *Daemon) bringUpVirtualRadios() error {
	for _, v := range d.config.VirtualRadios {
		proto, ok := config.ProtocolFromName(v.Protocol)
		if !ok {
			continue
		}
		meta := catproto.RadioChannelMeta{DisplayName: v.DisplayName, Protocol: proto, Virtual: true}
		handle, err := d.actor.RegisterRadio(d.ctx, meta)
		if err != nil {
			logging.Warn("daemon", fmt.Sprintf("failed to register virtual radio %q: %v", v.DisplayName, err))
			continue
		}

		daemonSide, radioSide := transport.NewDuplexPipe()
		vr := virtualradio.New(proto, catproto.RadioModel{}, nil, radioSide)
		if v.InitialFreqHz > 0 {
			vr.Commands() <- virtualradio.Command{Kind: virtualradio.CmdSetFrequency, FrequencyHz: v.InitialFreqHz}
		}

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			vr.Run(d.ctx)
		}()

		task := ioendpoint.NewRadioTask(handle, daemonSide, d.actor)
		d.tasksMu.Lock()
		d.radioTasks[handle] = task
		d.tasksMu.Unlock()

		init := buildInitSequence(proto, nil)
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			task.Run(d.ctx, init)
		}()
	}
	return nil
}

// bringUpAmplifier connects the persisted (or config-seeded) amplifier, if
// any.
func (d *Daemon) bringUpAmplifier() error {
	meta, ok, err := d.roster.LoadAmplifier()
	if err != nil {
		return fmt.Errorf("failed to load amplifier config: %w", err)
	}
	if !ok {
		if d.config.Amplifier.Connection == "" {
			return nil
		}
		proto, protoOK := config.ProtocolFromName(d.config.Amplifier.Protocol)
		if !protoOK {
			return nil
		}
		meta = catproto.AmplifierChannelMeta{
			Protocol: proto,
			BaudRate: uint32(d.config.Amplifier.BaudRate),
			Virtual:  d.config.Amplifier.Connection == "simulated",
		}
		if d.config.Amplifier.CivAddress != "" {
			meta.CivAddress = parseCivAddress(d.config.Amplifier.CivAddress)
		}
		if err := d.roster.SaveAmplifier(meta); err != nil {
			logging.Warn("daemon", fmt.Sprintf("failed to persist seeded amplifier config: %v", err))
		}
	}

	return d.connectAmplifier(meta)
}

func (d *Daemon) connectAmplifier(meta catproto.AmplifierChannelMeta) error {
	var stream transport.Stream
	if meta.Virtual {
		a, b := transport.NewDuplexPipe()
		vr := virtualradio.New(meta.Protocol, catproto.RadioModel{}, meta.CivAddress, b)
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			vr.Run(d.ctx)
		}()
		stream = a
	} else {
		var err error
		stream, err = transport.OpenSerial(d.config.Amplifier.PortName, int(meta.BaudRate))
		if err != nil {
			return err
		}
	}

	task := ioendpoint.NewAmpTask(stream, d.actor)
	d.tasksMu.Lock()
	d.ampTask = task
	d.tasksMu.Unlock()

	if err := d.actor.ConnectAmplifier(d.ctx, meta, task.Writer()); err != nil {
		task.Shutdown()
		return err
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		task.Run(d.ctx)
	}()

	return nil
}

// buildInitSequence constructs the startup handshake spec §4.D requires,
// in each protocol's own wire format: an ID query, an initial
// frequency/mode query, and (where the protocol has one) a command that
// enables unsolicited state reports, so the actor's shadow state and the
// control API don't have to wait on the first live command from the
// user.
func buildInitSequence(proto catproto.Protocol, civAddress *uint8) ioendpoint.InitSequence {
	init := ioendpoint.InitSequence{
		SettleDelay: 250 * time.Millisecond,
		CivAddress:  civAddress,
	}

	switch proto {
	case catproto.Kenwood, catproto.Elecraft, catproto.YaesuAscii, catproto.FlexRadio:
		init.IDQuery = []byte("ID;")
		init.FrequencyQuery = []byte("FA;")
		init.ModeQuery = []byte("MD;")
		init.EnableAutoInfo = []byte("AI2;")
	case catproto.IcomCIV:
		addr := uint8(0)
		if civAddress != nil {
			addr = *civAddress
		}
		init.IDQuery = catproto.ProbeCommandIcomReadID(addr)
		init.FrequencyQuery = catproto.ProbeCommandIcom(addr)
		init.ModeQuery = catproto.ProbeCommandIcomReadMode(addr)
		init.EnableAutoInfo = catproto.CivEnableTransceiveCommand(addr)
	case catproto.Yaesu:
		// Yaesu's binary dialect has no unsolicited-report command; the
		// ID query doubles as the initial frequency/mode query, and the
		// mux actor's heartbeat re-issues it periodically in place of
		// auto-info (see sendHeartbeat).
		init.IDQuery = catproto.ProbeCommandYaesu()
	}

	return init
}

func parseCivAddress(s string) *uint8 {
	var v uint8
	if _, err := fmt.Sscanf(s, "0x%x", &v); err == nil {
		return &v
	}
	if _, err := fmt.Sscanf(s, "%d", &v); err == nil {
		return &v
	}
	return nil
}

// setupAPIServer wires the control API's gin router; route handlers live
// in handlers.go.
func (d *Daemon) setupAPIServer() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	api := router.Group("/api/v1")
	{
		api.GET("/radios", d.handleListRadios)
		api.POST("/radios", d.handleAddRadio)
		api.DELETE("/radios/:handle", d.handleRemoveRadio)
		api.POST("/radios/:handle/active", d.handleSetActiveRadio)
		api.GET("/radios/:handle/state", d.handleGetRadioState)
		api.POST("/amplifier", d.handleSetAmplifier)
		api.DELETE("/amplifier", d.handleRemoveAmplifier)
		api.GET("/switching", d.handleGetSwitching)
		api.PUT("/switching", d.handleSetSwitching)
		api.GET("/scan", d.handleScan)
	}
	router.GET("/ws/events", d.handleEventsWebSocket)

	addr := fmt.Sprintf("%s:%d", d.config.API.BindAddress, d.config.API.Port)
	d.apiServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}
	return nil
}
