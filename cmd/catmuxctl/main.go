package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/kb9vty/catmux/pkg/client"
)

var (
	apiAddr = flag.String("api", "http://127.0.0.1:7373", "catmuxd control API base URL")
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		showHelp()
		return
	}

	c := client.NewClient(*apiAddr)
	cmd := args[0]
	rest := args[1:]

	var err error
	switch cmd {
	case "list":
		err = runList(c)
	case "add-radio":
		err = runAddRadio(c, rest)
	case "remove-radio":
		err = runRemoveRadio(c, rest)
	case "activate":
		err = runActivate(c, rest)
	case "set-amp":
		err = runSetAmp(c, rest)
	case "scan":
		err = runScan(c)
	case "switching-mode":
		err = runSwitchingMode(c, rest)
	case "events":
		err = runEvents(c)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runList(c *client.Client) error {
	radios, err := c.ListRadios()
	if err != nil {
		return err
	}
	for _, r := range radios {
		freq := "-"
		if r.FrequencyHz != nil {
			freq = strconv.FormatUint(*r.FrequencyHz, 10)
		}
		ptt := "-"
		if r.Ptt != nil {
			ptt = strconv.FormatBool(*r.Ptt)
		}
		fmt.Printf("%3d  %-20s %-10s %-12s freq=%-12s mode=%-6s ptt=%s\n",
			r.Handle, r.DisplayName, r.Protocol, r.PortName, freq, r.Mode, ptt)
	}
	return nil
}

func runAddRadio(c *client.Client, args []string) error {
	fs := flag.NewFlagSet("add-radio", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	port := fs.String("port", "", "serial port")
	protocol := fs.String("protocol", "", "kenwood, elecraft, icom_civ, yaesu, yaesu_ascii, flex")
	baud := fs.Int("baud", 9600, "baud rate")
	civ := fs.String("civ", "", "CI-V address, e.g. 0x94")
	virtual := fs.Bool("virtual", false, "register as a virtual radio")
	fs.Parse(args)

	if *name == "" || *protocol == "" {
		return fmt.Errorf("-name and -protocol are required")
	}
	return c.AddRadio(client.AddRadioRequest{
		DisplayName: *name,
		PortName:    *port,
		Protocol:    *protocol,
		BaudRate:    *baud,
		CivAddress:  *civ,
		Virtual:     *virtual,
	})
}

func runRemoveRadio(c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: remove-radio <handle>")
	}
	handle, err := parseHandle(args[0])
	if err != nil {
		return err
	}
	return c.RemoveRadio(handle)
}

func runActivate(c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: activate <handle>")
	}
	handle, err := parseHandle(args[0])
	if err != nil {
		return err
	}
	return c.Activate(handle)
}

func runSetAmp(c *client.Client, args []string) error {
	fs := flag.NewFlagSet("set-amp", flag.ExitOnError)
	port := fs.String("port", "", "serial port")
	protocol := fs.String("protocol", "", "kenwood, elecraft, icom_civ, yaesu, yaesu_ascii, flex")
	baud := fs.Int("baud", 9600, "baud rate")
	civ := fs.String("civ", "", "CI-V address, e.g. 0x58")
	virtual := fs.Bool("virtual", false, "connect a simulated amplifier instead of a real one")
	fs.Parse(args)

	if *protocol == "" {
		return fmt.Errorf("-protocol is required")
	}
	return c.SetAmplifier(client.SetAmplifierRequest{
		PortName:   *port,
		Protocol:   *protocol,
		BaudRate:   *baud,
		CivAddress: *civ,
		Virtual:    *virtual,
	})
}

func runScan(c *client.Client) error {
	detected, err := c.Scan()
	if err != nil {
		return err
	}
	if len(detected) == 0 {
		fmt.Println("no radios detected")
		return nil
	}
	for _, d := range detected {
		model := d.Model
		if model == "" {
			model = "unknown model"
		}
		fmt.Printf("%-16s %-10s %-6d %s %s\n", d.Device, d.Protocol, d.BaudRate, d.Manufacturer, model)
	}
	return nil
}

func runSwitchingMode(c *client.Client, args []string) error {
	if len(args) == 0 {
		mode, err := c.SwitchingMode()
		if err != nil {
			return err
		}
		fmt.Println(mode)
		return nil
	}
	return c.SetSwitchingMode(args[0])
}

func runEvents(c *client.Client) error {
	closeFn, err := c.StreamEvents(func(ev map[string]interface{}) {
		data, _ := json.Marshal(ev)
		fmt.Println(string(data))
	})
	if err != nil {
		return err
	}
	defer closeFn()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	return nil
}

func parseHandle(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid handle %q", s)
	}
	return uint32(n), nil
}

func showHelp() {
	fmt.Println("catmuxctl - catmuxd control tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s [-api <url>] <command> [args]\n", os.Args[0])
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  list                                  List registered radios")
	fmt.Println("  add-radio -name N -protocol P [...]   Register a radio")
	fmt.Println("  remove-radio <handle>                 Unregister a radio")
	fmt.Println("  activate <handle>                     Make a radio the active one")
	fmt.Println("  set-amp -protocol P [...]              Connect the amplifier")
	fmt.Println("  scan                                  Probe serial ports for radios")
	fmt.Println("  switching-mode [manual|frequency_triggered|automatic]")
	fmt.Println("                                         Get or set the switching mode")
	fmt.Println("  events                                 Stream mux events to stdout")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  %s list\n", os.Args[0])
	fmt.Printf("  %s add-radio -name \"Main\" -protocol icom_civ -port /dev/ttyUSB0 -civ 0x94\n", os.Args[0])
	fmt.Printf("  %s switching-mode automatic\n", os.Args[0])
}
