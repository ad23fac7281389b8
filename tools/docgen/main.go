// Package main generates CLI reference documentation from the
// fundgrube-watcher command tree.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/donaldgifford/fundgrube-watcher/cmd/fundgrube-watcher/cmd"
)

func main() {
	output := flag.String("output", "docs/cli", "output directory")
	format := flag.String("format", "markdown", "output format: markdown, man, or rest")
	flag.Parse()

	if err := generate(cmd.Root(), *format, *output); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("CLI %s docs generated in %s/\n", *format, *output)
}

func generate(root *cobra.Command, format, dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	root.DisableAutoGenTag = true

	var err error
	switch format {
	case "markdown":
		err = doc.GenMarkdownTree(root, dir)
	case "man":
		err = doc.GenManTree(root, &doc.GenManHeader{
			Title:   "FUNDGRUBE-WATCHER",
			Section: "1",
			Source:  "fundgrube-watcher " + cmd.Version,
			Manual:  "fundgrube-watcher manual",
		}, dir)
	case "rest":
		err = doc.GenReSTTree(root, dir)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return fmt.Errorf("generating %s docs: %w", format, err)
	}
	return nil
}
