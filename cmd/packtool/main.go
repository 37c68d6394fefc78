// Command packtool materializes a dimension's generator pack directory
// offline, without running the game server, by resolving free-form text
// the same way the portal book-resolution path does (spec.md §4.D/§4.K)
// and then invoking the same pack.Materialize the live server uses
// (spec.md §4.F).
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/endlessdimensions/core/bootstrap"
	"github.com/endlessdimensions/core/customkey"
	"github.com/endlessdimensions/core/datalock"
	"github.com/endlessdimensions/core/dimension"
	"github.com/endlessdimensions/core/pack"
	"github.com/endlessdimensions/core/portal"
)

var (
	dataDir      = flag.String("data", "data", "Data directory (holds custom-dimensions.json, dimensions/*.json)")
	resourcesDir = flag.String("resources", "", "Packaged resource directory to sync into -data before running (optional)")
	templatesDir = flag.String("templates", "data/templates", "Packaged generator template tree to copy from")
	packsRoot    = flag.String("packs", "data/base-packs", "Directory generated pack trees are written under")
	text         = flag.String("text", "", "Free-form book text to resolve (required)")
	shellFlag    = flag.String("shell", "OVERWORLD_OPEN", "ShellType to use for a freshly generated dimension")
	register     = flag.Bool("register", false, "Persist the resolved dimension to the definition registry instead of a dry run")
	verbose      = flag.Bool("verbose", false, "Print the resolved dimension id, seed, and biome/palette assignment")
)

func main() {
	flag.Parse()

	if *text == "" {
		fmt.Fprintln(os.Stderr, "packtool: -text is required")
		flag.Usage()
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(log); err != nil {
		fmt.Fprintf(os.Stderr, "packtool: %v\n", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	shell, ok := dimension.ShellTypeFromString(*shellFlag)
	if !ok {
		return fmt.Errorf("unknown -shell %q", *shellFlag)
	}

	// A running server may hold the data directory's lock; packtool takes
	// it too so the two never interleave writes to the same JSON stores.
	lock, err := datalock.Acquire(*dataDir)
	if err != nil {
		return fmt.Errorf("acquire data directory lock: %w", err)
	}
	defer lock.Close()

	if *resourcesDir != "" {
		if err := bootstrap.SyncDir(*resourcesDir, *dataDir, log); err != nil {
			return fmt.Errorf("sync packaged resources: %w", err)
		}
	}

	customKeys, err := customkey.Load(*dataDir, log)
	if err != nil {
		return fmt.Errorf("load custom-dimensions.json: %w", err)
	}
	registry, err := dimension.LoadRegistry(*dataDir, log)
	if err != nil {
		return fmt.Errorf("load dimension registry: %w", err)
	}
	resolver := dimension.NewResolver(customKeys)
	defs := dimension.NewDefinitionService(registry, customKeys, resolver)

	resolved := defs.Resolve(*text)

	def, ok := defs.ResolveExisting(resolved.DimensionID)
	if !ok {
		if resolved.Type == dimension.Custom {
			return fmt.Errorf("dimension %s is registered as a custom key but has no stored definition", resolved.DimensionID)
		}
		biomes, palettes := portal.DeriveBiomesAndPalettes(shell, resolved.Seed)
		if *register {
			def, _, err = defs.ResolveOrCreate(*text, shell, biomes, palettes)
			if err != nil {
				return fmt.Errorf("register dimension: %w", err)
			}
		} else {
			def, err = dimension.New(resolved.DimensionID, resolved.Seed, shell, biomes, palettes)
			if err != nil {
				return fmt.Errorf("derive dimension: %w", err)
			}
		}
	}

	if *verbose {
		fmt.Printf("text:      %q\n", *text)
		fmt.Printf("type:      %s\n", resolved.Type)
		fmt.Printf("dimension: %s\n", def.DimensionID)
		fmt.Printf("seed:      %d\n", def.Seed)
		fmt.Printf("shell:     %s\n", def.Shell)
		fmt.Printf("biomes:    %d (palette slots: %d)\n", len(def.Biomes), len(def.Palettes))
	}

	packDir, err := pack.Materialize(*templatesDir, *packsRoot, def)
	if err != nil {
		return fmt.Errorf("materialize pack: %w", err)
	}
	fmt.Println(packDir)
	return nil
}
