package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kb9vty/catmux/pkg/catproto"
	"github.com/kb9vty/catmux/pkg/config"
	"github.com/kb9vty/catmux/pkg/logging"
	"github.com/kb9vty/catmux/pkg/mux"
	"github.com/kb9vty/catmux/pkg/portscan"
	"github.com/kb9vty/catmux/pkg/transport"
)

// radioStateJSON is the wire shape for a RadioState in every response
// that reports one.
type radioStateJSON struct {
	Handle      catproto.RadioHandle `json:"handle"`
	DisplayName string               `json:"display_name"`
	PortName    string               `json:"port_name,omitempty"`
	Protocol    string               `json:"protocol"`
	Virtual     bool                 `json:"virtual"`
	FrequencyHz *uint64              `json:"frequency_hz,omitempty"`
	Mode        string               `json:"mode,omitempty"`
	Ptt         *bool                `json:"ptt,omitempty"`
}

func stateToJSON(s mux.RadioState) radioStateJSON {
	out := radioStateJSON{
		Handle:      s.Handle,
		DisplayName: s.Meta.DisplayName,
		PortName:    s.Meta.PortName,
		Protocol:    s.Meta.Protocol.String(),
		Virtual:     s.Meta.Virtual,
		FrequencyHz: s.FrequencyHz,
		Ptt:         s.Ptt,
	}
	if s.Mode != nil {
		out.Mode = s.Mode.String()
	}
	return out
}

// handleListRadios returns every registered radio's current state.
func (d *Daemon) handleListRadios(c *gin.Context) {
	states, err := d.actor.QueryRegistry(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]radioStateJSON, 0, len(states))
	for _, s := range states {
		out = append(out, stateToJSON(s))
	}
	c.JSON(http.StatusOK, gin.H{"radios": out})
}

type addRadioRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	PortName    string `json:"port_name"`
	Protocol    string `json:"protocol" binding:"required"`
	BaudRate    int    `json:"baud_rate"`
	CivAddress  string `json:"civ_address,omitempty"`
	Virtual     bool   `json:"virtual"`
}

// handleAddRadio registers a radio, persists it to the roster, and (for a
// real, non-virtual radio) opens its serial port and starts an I/O task.
// Virtual radios registered this way are only persisted; bringing one up
// in-process happens via the config file's virtual_radios list.
func (d *Daemon) handleAddRadio(c *gin.Context) {
	var req addRadioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proto, ok := config.ProtocolFromName(req.Protocol)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown protocol " + req.Protocol})
		return
	}
	if !req.Virtual && req.PortName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "port_name is required for a non-virtual radio"})
		return
	}

	meta := catproto.RadioChannelMeta{
		DisplayName: req.DisplayName,
		PortName:    req.PortName,
		Protocol:    proto,
		Virtual:     req.Virtual,
	}
	if req.CivAddress != "" {
		meta.CivAddress = parseCivAddress(req.CivAddress)
	}

	if _, err := d.roster.SaveRadio(meta); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if req.Virtual {
		c.JSON(http.StatusOK, gin.H{"status": "saved"})
		return
	}

	baud := req.BaudRate
	if baud == 0 {
		baud = 9600
	}
	if err := d.connectRealRadio(meta, baud); err != nil {
		logging.Warn("api", "failed to connect newly added radio: "+err.Error())
		c.JSON(http.StatusAccepted, gin.H{"status": "saved", "warning": "could not open port: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "connected"})
}

func parseHandleParam(c *gin.Context) (catproto.RadioHandle, bool) {
	raw := c.Param("handle")
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid handle " + raw})
		return 0, false
	}
	return catproto.RadioHandle(n), true
}

// handleRemoveRadio unregisters a radio from the mux and shuts down its
// I/O task, but leaves the roster row alone for the caller to delete
// separately if desired.
func (d *Daemon) handleRemoveRadio(c *gin.Context) {
	handle, ok := parseHandleParam(c)
	if !ok {
		return
	}
	if err := d.actor.UnregisterRadio(c.Request.Context(), handle); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	d.tasksMu.Lock()
	if t, ok := d.radioTasks[handle]; ok {
		t.Shutdown()
		delete(d.radioTasks, handle)
	}
	d.tasksMu.Unlock()

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// handleSetActiveRadio makes a registered radio the active one, subject to
// the configured switching mode and lockout.
func (d *Daemon) handleSetActiveRadio(c *gin.Context) {
	handle, ok := parseHandleParam(c)
	if !ok {
		return
	}
	if err := d.actor.SetActiveRadio(c.Request.Context(), handle); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "active"})
}

// handleGetRadioState returns one radio's current state.
func (d *Daemon) handleGetRadioState(c *gin.Context) {
	handle, ok := parseHandleParam(c)
	if !ok {
		return
	}
	state, err := d.actor.QueryRadioState(c.Request.Context(), handle)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if state == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such radio"})
		return
	}
	c.JSON(http.StatusOK, stateToJSON(*state))
}

type setAmplifierRequest struct {
	Protocol   string `json:"protocol" binding:"required"`
	PortName   string `json:"port_name"`
	BaudRate   int    `json:"baud_rate"`
	CivAddress string `json:"civ_address,omitempty"`
	Virtual    bool   `json:"virtual"`
}

// handleSetAmplifier persists and connects the amplifier channel, tearing
// down any previous amplifier connection first.
func (d *Daemon) handleSetAmplifier(c *gin.Context) {
	var req setAmplifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proto, ok := config.ProtocolFromName(req.Protocol)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown protocol " + req.Protocol})
		return
	}

	baud := req.BaudRate
	if baud == 0 {
		baud = 9600
	}
	meta := catproto.AmplifierChannelMeta{Protocol: proto, BaudRate: uint32(baud), Virtual: req.Virtual}
	if req.CivAddress != "" {
		meta.CivAddress = parseCivAddress(req.CivAddress)
	}

	d.tasksMu.Lock()
	if d.ampTask != nil {
		d.ampTask.Shutdown()
		d.ampTask = nil
	}
	d.tasksMu.Unlock()
	d.actor.DisconnectAmplifier(c.Request.Context())

	d.config.Amplifier.PortName = req.PortName

	if err := d.roster.SaveAmplifier(meta); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := d.connectAmplifier(meta); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "connected"})
}

// handleRemoveAmplifier disconnects and forgets the amplifier.
func (d *Daemon) handleRemoveAmplifier(c *gin.Context) {
	d.tasksMu.Lock()
	if d.ampTask != nil {
		d.ampTask.Shutdown()
		d.ampTask = nil
	}
	d.tasksMu.Unlock()

	if err := d.actor.DisconnectAmplifier(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := d.roster.DeleteAmplifier(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// handleGetSwitching reports the currently configured switching mode.
func (d *Daemon) handleGetSwitching(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"switching_mode": d.config.Switching.Mode})
}

type setSwitchingRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// handleSetSwitching updates the switching policy the actor applies to
// subsequent radio traffic.
func (d *Daemon) handleSetSwitching(c *gin.Context) {
	var req setSwitchingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var mode mux.SwitchingMode
	switch req.Mode {
	case "manual":
		mode = mux.Manual
	case "frequency_triggered":
		mode = mux.FrequencyTriggered
	case "automatic":
		mode = mux.Automatic
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unrecognized switching mode " + req.Mode})
		return
	}

	if err := d.actor.SetSwitchingMode(c.Request.Context(), mode); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	d.config.Switching.Mode = req.Mode
	c.JSON(http.StatusOK, gin.H{"switching_mode": req.Mode})
}

// handleScan runs a port scan and returns every radio it found, without
// registering any of them; the caller decides which to add via
// handleAddRadio.
func (d *Daemon) handleScan(c *gin.Context) {
	detected := d.scanner.Scan(func(device string, baud int) (portscan.ReadWriteCloser, error) {
		return transport.OpenSerial(device, baud)
	})

	out := make([]gin.H, 0, len(detected))
	for _, det := range detected {
		entry := gin.H{
			"device":    det.Port.Device,
			"protocol":  det.Result.Protocol.String(),
			"baud_rate": det.BaudRate,
		}
		if det.Result.Model != nil {
			entry["manufacturer"] = det.Result.Model.Manufacturer
			entry["model"] = det.Result.Model.Model
		}
		if det.Result.CivAddress != nil {
			entry["civ_address"] = *det.Result.CivAddress
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"detected": out})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleEventsWebSocket streams every mux.Event as JSON to a connected
// websocket client, one goroutine draining the actor's event channel into
// the socket, matching the shape of the teacher's audio-streaming
// handler.
func (d *Daemon) handleEventsWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn("api", "websocket upgrade failed: "+err.Error())
		return
	}
	defer conn.Close()

	events := d.actor.Events()
	for {
		select {
		case <-d.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(eventToJSON(ev)); err != nil {
				return
			}
		}
	}
}

func eventToJSON(ev mux.Event) gin.H {
	out := gin.H{"kind": ev.Kind.String()}
	if ev.Handle != 0 {
		out["handle"] = ev.Handle
	}
	if ev.FrequencyHz != nil {
		out["frequency_hz"] = *ev.FrequencyHz
	}
	if ev.Mode != nil {
		out["mode"] = ev.Mode.String()
	}
	if ev.Ptt != nil {
		out["ptt"] = *ev.Ptt
	}
	if ev.From != 0 || ev.To != 0 {
		out["from"] = ev.From
		out["to"] = ev.To
	}
	if ev.RemainingMs != 0 {
		out["remaining_ms"] = ev.RemainingMs
		out["requested"] = ev.Requested
		out["current"] = ev.Current
	}
	if len(ev.Bytes) > 0 {
		out["bytes"] = ev.Bytes
	}
	if ev.Message != "" {
		out["source"] = ev.Source
		out["message"] = ev.Message
	}
	return out
}
