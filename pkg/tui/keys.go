//go:build linux

package tui

// action is the abstract input event the engine consumes; the key bindings
// below are the only place terminal input is interpreted.
type action int

const (
	actNone action = iota
	actQuit
	actCyclePage
	actSelectPrev
	actSelectNext
	actSelectPageUp
	actSelectPageDown
	actSortByCPU
	actSortByMemory
	actTerminate
	actToggleStop
	actNiceUp   // -1 nice: higher scheduling priority
	actNiceDown // +1 nice: lower scheduling priority
	actAddPriority
	actRemovePriority
	actToggleGovernor
	actResumeAll
)

// pageJump is how many rows page-up/down moves the selection.
const pageJump = 10

// actionFor maps a termui key id to an abstract action.
func actionFor(key string) action {
	switch key {
	case "q", "Q", "<C-c>", "<Escape>":
		return actQuit
	case "<Tab>":
		return actCyclePage
	case "<Up>", "k":
		return actSelectPrev
	case "<Down>", "j":
		return actSelectNext
	case "<PageUp>":
		return actSelectPageUp
	case "<PageDown>":
		return actSelectPageDown
	case "c":
		return actSortByCPU
	case "m":
		return actSortByMemory
	case "K":
		return actTerminate
	case "S":
		return actToggleStop
	case "+":
		return actNiceUp
	case "-":
		return actNiceDown
	case "a", "A":
		return actAddPriority
	case "d", "D":
		return actRemovePriority
	case "t", "T":
		return actToggleGovernor
	case "r", "R":
		return actResumeAll
	default:
		return actNone
	}
}
