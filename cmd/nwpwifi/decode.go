package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/soypat/nwpwifi/nwp"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode hex encoded NWP async event frames, one per line",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		hexDump, _ := cmd.Flags().GetBool("hex-dump")
		return decodeFrames(cmd.OutOrStdout(), r, hexDump)
	},
}

func init() {
	decodeCmd.Flags().Bool("hex-dump", false, "print a full hex dump of each frame")
	rootCmd.AddCommand(decodeCmd)
}

func decodeFrames(w io.Writer, r io.Reader, hexDump bool) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		frame, err := hex.DecodeString(strings.ReplaceAll(text, " ", ""))
		if err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		ev, err := nwp.ParseEvent(nwp.FrameOrder, frame)
		if err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		fmt.Fprintln(w, formatEvent(ev))
		if hexDump {
			fmt.Fprint(w, hex.Dump(frame))
		}
	}
	return sc.Err()
}

func formatEvent(ev nwp.Event) string {
	s := fmt.Sprintf("%-13s status=%d", ev.Type, ev.Status)
	switch ev.Type {
	case nwp.EvIPAcquired:
		s += fmt.Sprintf(" ip=%s gw=%s dns=%s", ev.Info.IP, ev.Info.Gateway, ev.Info.DNS)
	case nwp.EvIPLeased, nwp.EvIPReleased:
		s += fmt.Sprintf(" ip=%s mac=%s", ev.Info.IP, net.HardwareAddr(ev.PeerMAC[:]))
	case nwp.EvSTAAdded, nwp.EvSTARemoved:
		s += fmt.Sprintf(" mac=%s", net.HardwareAddr(ev.PeerMAC[:]))
	}
	return s
}
