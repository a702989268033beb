// Package console turns operator keystrokes on stdin into engine commands.
// Reading happens on its own goroutine; commands are delivered over a
// channel and applied by the loop, so the simulator never blocks on a
// slow or absent terminal.
package console

import (
	"bufio"
	"io"

	"github.com/firatmio/cardioguard-mg/internal/engine"
)

// Parse maps a single keystroke to a command. Letters are accepted in
// either case. The bool is false for keys with no binding, including
// whitespace from line-buffered terminals.
func Parse(b byte) (engine.Command, bool) {
	switch b {
	case 'b', 'B':
		return engine.CmdShowRate, true
	case 'a', 'A':
		return engine.CmdToggleEctopic, true
	case 'r', 'R':
		return engine.CmdResetBattery, true
	case '+':
		return engine.CmdRateUp, true
	case '-':
		return engine.CmdRateDown, true
	case 'h', 'H', '?':
		return engine.CmdHelp, true
	}
	return 0, false
}

// Watch reads r byte by byte and emits parsed commands. The channel is
// closed when r reaches EOF or fails.
func Watch(r io.Reader) <-chan engine.Command {
	cmds := make(chan engine.Command, 8)
	go func() {
		defer close(cmds)
		br := bufio.NewReader(r)
		for {
			b, err := br.ReadByte()
			if err != nil {
				return
			}
			if cmd, ok := Parse(b); ok {
				cmds <- cmd
			}
		}
	}()
	return cmds
}
