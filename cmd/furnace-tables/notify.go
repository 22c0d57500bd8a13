package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/provide-io/furnace/go/furnace/pkg/tables"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed, color.Bold)
)

func notifyArtifact(a *tables.Artifact) {
	if a == nil {
		return
	}
	successColor.Printf("✅ %s written\n", a.Label)
	fmt.Printf("   file:     %s\n", a.Path)
	fmt.Printf("   size:     %d bytes\n", a.Size)
	fmt.Printf("   checksum: 0x%02X\n", a.Checksum)
}

func notifyWarn(err error) {
	warnColor.Fprintf(os.Stderr, "⚠️  %v\n", err)
}

func notifyFail(err error) {
	failColor.Fprintf(os.Stderr, "%v\n", err)
}
