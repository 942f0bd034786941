package portscan

import (
	"time"

	"github.com/kb9vty/catmux/pkg/catproto"
)

// ProbeResult is what a successful probe determined about the radio on
// the other end of a stream.
type ProbeResult struct {
	Protocol   catproto.Protocol
	Model      *catproto.RadioModel
	CivAddress *uint8
	RawID      []byte
}

// icomProbeAddresses are the CI-V addresses tried, in the same priority
// order as the original scanner: newest/most common Icom radios first.
var icomProbeAddresses = []uint8{0x94, 0xA4, 0x98, 0x70, 0x76, 0x88, 0x7C}

// ProbeConfig controls per-attempt timing.
type ProbeConfig struct {
	Timeout         time.Duration
	InterProbeDelay time.Duration
}

func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{Timeout: 500 * time.Millisecond, InterProbeDelay: 100 * time.Millisecond}
}

// Prober tries each CAT protocol against a stream in priority order:
// Elecraft K3 extensions, then the shared ASCII ID query (which answers
// for FlexRadio, YaesuAscii, and Kenwood alike), then Icom CI-V addresses,
// and finally the Yaesu binary frequency/mode readback as a last resort
// since it has no reliable self-identification.
type Prober struct {
	cfg ProbeConfig
}

func NewProber(cfg ProbeConfig) *Prober { return &Prober{cfg: cfg} }

// Probe returns the detected protocol and (if identifiable) model, or
// ok=false if nothing answered any probe within cfg.Timeout.
func (p *Prober) Probe(stream ReadWriteCloser) (ProbeResult, bool) {
	if result, ok := p.probeElecraftK3(stream); ok {
		return result, true
	}
	time.Sleep(p.cfg.InterProbeDelay)

	if result, ok := p.probeAsciiID(stream); ok {
		return result, true
	}
	time.Sleep(p.cfg.InterProbeDelay)

	if result, ok := p.probeIcom(stream); ok {
		return result, true
	}
	time.Sleep(p.cfg.InterProbeDelay)

	return p.probeYaesu(stream)
}

// readWithTimeout performs a single blocking Read on a goroutine and
// returns its result, or ok=false if cfg.Timeout elapses first. The
// goroutine may outlive the timeout (the stream has no cancellable read),
// but its result is simply discarded since nothing else observes it.
func readWithTimeout(stream ReadWriteCloser, buf []byte, timeout time.Duration) (int, bool) {
	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := stream.Read(buf)
		ch <- result{n, err}
	}()
	select {
	case res := <-ch:
		if res.err != nil || res.n == 0 {
			return 0, false
		}
		return res.n, true
	case <-time.After(timeout):
		return 0, false
	}
}

func (p *Prober) probeElecraftK3(stream ReadWriteCloser) (ProbeResult, bool) {
	if _, err := stream.Write([]byte("K3;")); err != nil {
		return ProbeResult{}, false
	}
	buf := make([]byte, 64)
	n, ok := readWithTimeout(stream, buf, p.cfg.Timeout)
	if !ok {
		return ProbeResult{}, false
	}
	idStr, ok := catproto.IsElecraftResponse(buf[:n])
	if !ok {
		return ProbeResult{}, false
	}
	model, _ := catproto.LookupByElecraftID(idStr)
	return ProbeResult{Protocol: catproto.Elecraft, Model: modelPtr(model)}, true
}

func (p *Prober) probeAsciiID(stream ReadWriteCloser) (ProbeResult, bool) {
	if _, err := stream.Write(catproto.ProbeCommandKenwood()); err != nil {
		return ProbeResult{}, false
	}
	buf := make([]byte, 64)
	n, ok := readWithTimeout(stream, buf, p.cfg.Timeout)
	if !ok {
		return ProbeResult{}, false
	}
	response := buf[:n]

	if catproto.IsValidFlexIDResponse(response) {
		idStr := idDigits(response)
		model, _ := catproto.LookupByFlexID(idStr)
		return ProbeResult{Protocol: catproto.FlexRadio, Model: modelPtr(model), RawID: response}, true
	}
	if catproto.IsValidYaesuAsciiIDResponse(response) {
		idStr := idDigits(response)
		model, _ := catproto.LookupByYaesuAsciiID(idStr)
		return ProbeResult{Protocol: catproto.YaesuAscii, Model: modelPtr(model), RawID: response}, true
	}
	if catproto.IsValidKenwoodIDResponse(response) {
		idStr := idDigits(response)
		model, _ := catproto.LookupByKenwoodID(idStr)
		return ProbeResult{Protocol: catproto.Kenwood, Model: modelPtr(model), RawID: response}, true
	}
	return ProbeResult{}, false
}

// idDigits strips the "ID" prefix and trailing ";" from an ID response,
// leaving the bare numeric model code.
func idDigits(response []byte) string {
	s := string(response)
	if len(s) < 3 {
		return s
	}
	s = s[2:]
	if len(s) > 0 && s[len(s)-1] == ';' {
		s = s[:len(s)-1]
	}
	return s
}

func (p *Prober) probeIcom(stream ReadWriteCloser) (ProbeResult, bool) {
	for _, addr := range icomProbeAddresses {
		if _, err := stream.Write(catproto.ProbeCommandIcom(addr)); err != nil {
			return ProbeResult{}, false
		}
		buf := make([]byte, 64)
		n, ok := readWithTimeout(stream, buf, p.cfg.Timeout)
		if ok && catproto.IsValidCivFrame(buf[:n]) {
			if srcAddr, found := catproto.ExtractSourceAddress(buf[:n]); found {
				model, _ := catproto.LookupByCivAddress(srcAddr)
				a := srcAddr
				return ProbeResult{Protocol: catproto.IcomCIV, Model: modelPtr(model), CivAddress: &a, RawID: buf[:n]}, true
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return ProbeResult{}, false
}

func (p *Prober) probeYaesu(stream ReadWriteCloser) (ProbeResult, bool) {
	if _, err := stream.Write(catproto.ProbeCommandYaesu()); err != nil {
		return ProbeResult{}, false
	}
	buf := make([]byte, 5)
	n, ok := readWithTimeout(stream, buf, p.cfg.Timeout)
	if !ok || n < 5 {
		return ProbeResult{}, false
	}
	// Real Yaesu mode bytes never exceed 0x0C; anything higher means this
	// wasn't actually a Yaesu radio answering.
	if buf[4] > 0x0C {
		return ProbeResult{}, false
	}
	return ProbeResult{Protocol: catproto.Yaesu, RawID: append([]byte(nil), buf...)}, true
}

func modelPtr(m catproto.RadioModel) *catproto.RadioModel {
	if m.Model == "" {
		return nil
	}
	return &m
}
