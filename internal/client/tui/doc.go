// Package tui implements the interactive board screen.
//
// Board items are drawn at their canvas positions scaled to the terminal.
// A left press picks an item up, motion moves it locally, and the release
// drops it: inside the board that persists the new position once, outside
// it the drag is abandoned and the board is re-fetched. Notices raised by
// the board page show up in the status bar and fade after a few seconds.
package tui
