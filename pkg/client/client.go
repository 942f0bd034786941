// Package client implements catmuxctl's connection to a running catmuxd's
// control API: one HTTP method call per route, plus a websocket stream
// for live mux events.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

// Client represents a connection to catmuxd's control API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new control API client against baseURL (e.g.
// "http://127.0.0.1:7373").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// apiError mirrors the {"error": "..."} shape every handler returns on
// failure.
type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(method, path string, body interface{}, out interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// RadioState is the client-side view of one registered radio.
type RadioState struct {
	Handle      uint32  `json:"handle"`
	DisplayName string  `json:"display_name"`
	PortName    string  `json:"port_name,omitempty"`
	Protocol    string  `json:"protocol"`
	Virtual     bool    `json:"virtual"`
	FrequencyHz *uint64 `json:"frequency_hz,omitempty"`
	Mode        string  `json:"mode,omitempty"`
	Ptt         *bool   `json:"ptt,omitempty"`
}

// ListRadios returns every registered radio's current state.
func (c *Client) ListRadios() ([]RadioState, error) {
	var out struct {
		Radios []RadioState `json:"radios"`
	}
	if err := c.do(http.MethodGet, "/api/v1/radios", nil, &out); err != nil {
		return nil, err
	}
	return out.Radios, nil
}

// AddRadioRequest is the payload for registering a radio.
type AddRadioRequest struct {
	DisplayName string `json:"display_name"`
	PortName    string `json:"port_name,omitempty"`
	Protocol    string `json:"protocol"`
	BaudRate    int    `json:"baud_rate,omitempty"`
	CivAddress  string `json:"civ_address,omitempty"`
	Virtual     bool   `json:"virtual,omitempty"`
}

// AddRadio registers and persists a radio.
func (c *Client) AddRadio(req AddRadioRequest) error {
	return c.do(http.MethodPost, "/api/v1/radios", req, nil)
}

// RemoveRadio unregisters a radio by its handle.
func (c *Client) RemoveRadio(handle uint32) error {
	return c.do(http.MethodDelete, "/api/v1/radios/"+strconv.FormatUint(uint64(handle), 10), nil, nil)
}

// Activate makes handle the active radio.
func (c *Client) Activate(handle uint32) error {
	return c.do(http.MethodPost, "/api/v1/radios/"+strconv.FormatUint(uint64(handle), 10)+"/active", nil, nil)
}

// RadioStateByHandle returns one radio's current state.
func (c *Client) RadioStateByHandle(handle uint32) (*RadioState, error) {
	var out RadioState
	if err := c.do(http.MethodGet, "/api/v1/radios/"+strconv.FormatUint(uint64(handle), 10)+"/state", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetAmplifierRequest is the payload for connecting the amplifier.
type SetAmplifierRequest struct {
	Protocol   string `json:"protocol"`
	PortName   string `json:"port_name,omitempty"`
	BaudRate   int    `json:"baud_rate,omitempty"`
	CivAddress string `json:"civ_address,omitempty"`
	Virtual    bool   `json:"virtual,omitempty"`
}

// SetAmplifier persists and connects the amplifier channel.
func (c *Client) SetAmplifier(req SetAmplifierRequest) error {
	return c.do(http.MethodPost, "/api/v1/amplifier", req, nil)
}

// RemoveAmplifier disconnects and forgets the amplifier.
func (c *Client) RemoveAmplifier() error {
	return c.do(http.MethodDelete, "/api/v1/amplifier", nil, nil)
}

// SwitchingMode returns the currently configured switching mode.
func (c *Client) SwitchingMode() (string, error) {
	var out struct {
		Mode string `json:"switching_mode"`
	}
	if err := c.do(http.MethodGet, "/api/v1/switching", nil, &out); err != nil {
		return "", err
	}
	return out.Mode, nil
}

// SetSwitchingMode updates the switching policy.
func (c *Client) SetSwitchingMode(mode string) error {
	return c.do(http.MethodPut, "/api/v1/switching", struct {
		Mode string `json:"mode"`
	}{Mode: mode}, nil)
}

// DetectedRadio is one port scan result.
type DetectedRadio struct {
	Device       string `json:"device"`
	Protocol     string `json:"protocol"`
	BaudRate     uint32 `json:"baud_rate"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	CivAddress   *uint8 `json:"civ_address,omitempty"`
}

// Scan triggers a port scan and returns every radio found.
func (c *Client) Scan() ([]DetectedRadio, error) {
	var out struct {
		Detected []DetectedRadio `json:"detected"`
	}
	if err := c.do(http.MethodGet, "/api/v1/scan", nil, &out); err != nil {
		return nil, err
	}
	return out.Detected, nil
}

// StreamEvents connects to the events websocket and delivers each decoded
// event to onEvent until the returned close function is called or a
// connection error occurs. Call the returned close function to tear the
// socket down.
func (c *Client) StreamEvents(onEvent func(map[string]interface{})) (func() error, error) {
	wsURL := "ws" + c.baseURL[len("http"):] + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to event stream: %w", err)
	}

	go func() {
		for {
			var ev map[string]interface{}
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			onEvent(ev)
		}
	}()

	return conn.Close, nil
}
