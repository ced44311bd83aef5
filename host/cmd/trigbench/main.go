package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Zazins/rusefi/host/bench"
	"github.com/Zazins/rusefi/host/serial"
)

var (
	device = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud   = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
)

func main() {
	flag.Parse()

	client := bench.NewClient()

	fmt.Printf("Connecting to trigger emulator on %s...\n", *device)
	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	if err := client.ConnectWithConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Println("Connected. Type 'help' for available commands, 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		switch parts[0] {
		case "quit", "exit", "q":
			return

		case "help", "?":
			printHelp()

		case "rpm":
			if len(parts) != 2 {
				fmt.Println("usage: rpm <value>")
				continue
			}
			value, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Printf("bad rpm %q\n", parts[1])
				continue
			}
			report(client.SetRPM(value))

		case "self":
			report(client.EnableSelfStimulation())

		case "ext":
			report(client.EnableExternalStimulation())

		case "stop":
			report(client.DisableStimulation())

		case "status":
			status, err := client.Status()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			fmt.Println(status)

		case "raw":
			reply, err := client.Command(strings.TrimSpace(strings.TrimPrefix(line, "raw")))
			for _, respLine := range reply {
				fmt.Println(respLine)
			}
			report(err)

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", parts[0])
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func report(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	} else {
		fmt.Println("ok")
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  rpm <value>  - Set emulated target speed")
	fmt.Println("  self         - Enable self-stimulation")
	fmt.Println("  ext          - Enable external stimulation (output pins)")
	fmt.Println("  stop         - Stop the emulator")
	fmt.Println("  status       - Print emulator status")
	fmt.Println("  raw <line>   - Send a raw console line")
	fmt.Println("  quit/exit/q  - Exit the program")
	fmt.Println()
}
