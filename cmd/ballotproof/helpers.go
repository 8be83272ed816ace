package main

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var countPrinter = message.NewPrinter(language.English)

// formatCount renders n with thousands separators for terminal output.
// Artifact files never go through this; their numbers stay bare.
func formatCount(n int) string {
	return countPrinter.Sprintf("%d", n)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// shortRunID trims a journal run id to its leading hex group for table
// display.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
