// Command mcschem is a small CLI over schemcore: inspect a schematic's
// size and metadata, list the formats this core supports, or convert one
// schematic file into another format by extension.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/oriumgames/schemcore"
	"github.com/oriumgames/schemcore/ir"
)

func main() {
	root := &cobra.Command{
		Use:   "mcschem",
		Short: "Inspect and convert Minecraft schematic files",
	}
	root.AddCommand(seeCmd(), printCmd(), convertCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func seeCmd() *cobra.Command {
	var all, showSize, showMetadata bool
	cmd := &cobra.Command{
		Use:   "see <file>",
		Short: "Load a schematic and print its size or metadata",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s, err := schemcore.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "load failed: %v\n", err)
				os.Exit(1)
			}
			if all || showSize {
				printSize(s)
			}
			if all || showMetadata {
				printMetadata(s)
			}
			if !all && !showSize && !showMetadata {
				printSize(s)
			}
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print both size and metadata")
	cmd.Flags().BoolVar(&showSize, "size", false, "print region count and volume")
	cmd.Flags().BoolVar(&showMetadata, "metadata", false, "print format-specific metadata")
	return cmd
}

func printSize(s *ir.Schematic) {
	fmt.Printf("regions: %d\n", len(s.Regions))
	fmt.Printf("enclosing size: %d x %d x %d\n", s.EnclosingSize[0], s.EnclosingSize[1], s.EnclosingSize[2])
	for _, r := range s.Regions {
		sx, sy, sz := r.Size()
		fmt.Printf("  %s: %dx%dx%d (%d blocks)\n", r.Name, sx, sy, sz, r.TotalBlocks(true))
	}
}

func printMetadata(s *ir.Schematic) {
	fmt.Printf("data version: %d\n", s.DataVersion)
	switch m := s.Metadata.(type) {
	case ir.LitematicaMetadata:
		fmt.Printf("litematica: name=%q author=%q description=%q\n", m.Name, m.Author, m.Description)
	case ir.WorldEdit13Metadata:
		fmt.Printf("worldedit13: schema version=%d\n", m.SchemaVersion)
	default:
		fmt.Println("no format-specific metadata")
	}
}

func printCmd() *cobra.Command {
	var supported, loadable, savable bool
	cmd := &cobra.Command{
		Use:   "print",
		Short: "List the formats this core supports",
		Run: func(cmd *cobra.Command, args []string) {
			if !supported && !loadable && !savable {
				supported = true
			}
			if supported {
				printFormats("supported", schemcore.Formats())
			}
			if loadable {
				printFormats("loadable", schemcore.LoadableFormats())
			}
			if savable {
				printFormats("savable", schemcore.SavableFormats())
			}
		},
	}
	cmd.Flags().BoolVar(&supported, "supported-formats", false, "list every recognised format")
	cmd.Flags().BoolVar(&loadable, "loadable-formats", false, "list formats that can be loaded")
	cmd.Flags().BoolVar(&savable, "savable-formats", false, "list formats that can be saved")
	return cmd
}

func printFormats(label string, formats []schemcore.Format) {
	fmt.Printf("%s:\n", label)
	for _, f := range formats {
		fmt.Printf("  %-16s %s\n", f, f.Extension())
	}
}

func convertCmd() *cobra.Command {
	var output string
	var benchmark bool
	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Load a schematic and save it in another format",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			input := args[0]
			if output == "" {
				output = "out.litematic"
			}

			start := time.Now()
			s, err := schemcore.ReadFile(input)
			loadElapsed := time.Since(start)
			if err != nil {
				fmt.Fprintf(os.Stderr, "load failed: %v\n", err)
				os.Exit(1)
			}

			saveStart := time.Now()
			if err := schemcore.WriteFile(output, s); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
				os.Exit(2)
			}
			saveElapsed := time.Since(saveStart)

			if benchmark {
				total := loadElapsed + saveElapsed
				fmt.Printf("load: %.3fs\nsave: %.3fs\ntotal: %.3fs\n", loadElapsed.Seconds(), saveElapsed.Seconds(), total.Seconds())
			}
			fmt.Printf("wrote %s\n", filepath.Clean(output))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default out.litematic)")
	cmd.Flags().BoolVar(&benchmark, "benchmark", false, "print load/save/total wall-clock seconds")
	return cmd
}
