package engine

import (
	"log"
	"time"
)

// Command is a discrete operator command, produced by the console reader
// and applied on the loop goroutine.
type Command int

const (
	CmdShowRate Command = iota
	CmdToggleEctopic
	CmdResetBattery
	CmdRateUp
	CmdRateDown
	CmdHelp
)

// Apply executes a command. Like Tick, it must run on the loop goroutine.
func (e *Engine) Apply(cmd Command, now time.Time) {
	switch cmd {
	case CmdShowRate:
		log.Printf("rate: %.1f BPM, R-R %.0f samples", e.gen.Rate(), e.gen.RR())

	case CmdToggleEctopic:
		// Toggling while active restarts the window; toggling it on
		// mid-run behaves the same as the hardware trigger.
		e.setEctopic(!e.ectopic, now)
		if e.ectopic {
			log.Printf("ecg: ectopic mode on")
		} else {
			log.Printf("ecg: ectopic mode off")
		}

	case CmdResetBattery:
		e.battery = e.cfg.BatteryStart
		log.Printf("battery: reset to %d%%", e.battery)

	case CmdRateUp:
		e.setRate(e.gen.Rate() + e.cfg.RateStepBPM)
		log.Printf("rate: %.0f BPM", e.gen.Rate())

	case CmdRateDown:
		e.setRate(e.gen.Rate() - e.cfg.RateStepBPM)
		log.Printf("rate: %.0f BPM", e.gen.Rate())

	case CmdHelp:
		log.Printf("commands: b=show rate, a=toggle ectopic, r=reset battery, +=rate up, -=rate down, h=help")
	}
}
