//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// statementsDir holds the documents Convert processes.
const statementsDir = "statements"

// Convert builds the CLI and converts every statement in statements/.
// Set UNIT to choose the target unit (default Lakhs).
func Convert() error {
	mg.Deps(Build)

	entries, err := os.ReadDir(statementsDir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", statementsDir, err)
	}
	args := []string{"convert"}
	if unit := os.Getenv("UNIT"); unit != "" {
		args = append(args, "--unit", unit)
	}
	n := 0
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".xlsx", ".xlsm", ".xls", ".pdf":
			args = append(args, filepath.Join(statementsDir, e.Name()))
			n++
		}
	}
	if n == 0 {
		fmt.Printf("[convert] No statements found in %s/.\n", statementsDir)
		return nil
	}
	return sh.RunV(filepath.Join(binDir, binName), args...)
}
