package main

import (
	"testing"

	"github.com/fatih/color"
)

func TestConfigureColorWithoutTTY(t *testing.T) {
	if isTTY() {
		t.Skip("requires a non-tty stdout")
	}

	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	color.NoColor = false
	configureColor()
	if !color.NoColor {
		t.Fatal("colored output must be disabled when stdout is not a terminal")
	}
}

func TestConfigureColorRespectsExplicitDisable(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	color.NoColor = true
	configureColor()
	if !color.NoColor {
		t.Fatal("configureColor must never re-enable color")
	}
}
