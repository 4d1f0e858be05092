// Command edat unpacks, rebuilds, and packs EDat archives.
//
// Default mode parses the archive, extracts its payloads beneath the
// output directory, and writes an XML listing next to them:
//
//	edat Data.dat -o out/
//
// Rebuild mode re-encodes the archive from extracted content, either
// to a new file or atomically in place:
//
//	edat Data.dat -r -o out/
//	edat Data.dat -r -i -o out/
//
// Pack mode reads an XML listing and content beneath the output
// directory and produces a fresh archive:
//
//	edat Data.dat.xml -p -o out/
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"github.com/orcaman/writerseeker"

	"github.com/wgmod/eugen/edat"
)

func main() {
	var (
		output        string
		rebuild       bool
		inPlace       bool
		pack          bool
		verbose       bool
		dontReadFiles bool
	)
	flag.StringVar(&output, "o", "out", "output directory")
	flag.StringVar(&output, "output", "out", "output directory")
	flag.BoolVar(&rebuild, "r", false, "rebuild the archive from extracted content")
	flag.BoolVar(&rebuild, "rebuild", false, "rebuild the archive from extracted content")
	flag.BoolVar(&inPlace, "i", false, "rewrite the input archive in place")
	flag.BoolVar(&inPlace, "in-place", false, "rewrite the input archive in place")
	flag.BoolVar(&pack, "p", false, "pack an XML listing into an archive")
	flag.BoolVar(&pack, "pack", false, "pack an XML listing into an archive")
	flag.BoolVar(&verbose, "v", false, "verbose output")
	flag.BoolVar(&verbose, "verbose", false, "verbose output")
	flag.BoolVar(&dontReadFiles, "dont-read-files", false, "only read the dictionary, not file contents")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: edat [flags] input")
		flag.PrintDefaults()
		os.Exit(1)
	}
	input := flag.Arg(0)

	log.SetFlags(0)
	if !verbose {
		log.SetOutput(io.Discard)
	}

	a := edat.New()
	a.OutPath = output
	a.ReadFiles = !dontReadFiles

	var err error
	switch {
	case pack:
		err = runPack(a, input)
	case rebuild || inPlace:
		err = runRebuild(a, input, inPlace)
	default:
		err = runUnpack(a, input)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "edat: %v\n", err)
		os.Exit(1)
	}
}

func runUnpack(a *edat.Archive, input string) error {
	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := a.Parse(f); err != nil {
		return err
	}
	log.Printf("parsed %s: %d entries, sector size %d", input, a.Len(), a.SectorSize)

	listing := filepath.Join(a.OutPath, filepath.Base(input)+".xml")
	if err := os.MkdirAll(filepath.Dir(listing), 0o755); err != nil {
		return err
	}
	lf, err := os.Create(listing)
	if err != nil {
		return err
	}
	defer lf.Close()
	if err := a.WriteXML(lf); err != nil {
		return err
	}
	return lf.Close()
}

func runRebuild(a *edat.Archive, input string, inPlace bool) error {
	f, err := os.Open(input)
	if err != nil {
		return err
	}
	if err := a.Parse(f); err != nil {
		f.Close()
		return err
	}
	f.Close()
	log.Printf("parsed %s: %d entries", input, a.Len())

	// Rebuild always reads content back from the extraction root.
	a.ReadFiles = true

	if inPlace {
		// Stage in memory, then swap in atomically.
		stage := &writerseeker.WriterSeeker{}
		if err := a.Build(stage); err != nil {
			return err
		}
		raw, err := io.ReadAll(stage.Reader())
		if err != nil {
			return err
		}
		log.Printf("rebuilt %s in place (%d bytes)", input, len(raw))
		return renameio.WriteFile(input, raw, 0o644)
	}

	dest := filepath.Join(a.OutPath, filepath.Base(input))
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := a.Build(out); err != nil {
		return err
	}
	log.Printf("rebuilt %s", dest)
	return out.Close()
}

func runPack(a *edat.Archive, input string) error {
	lf, err := os.Open(input)
	if err != nil {
		return err
	}
	defer lf.Close()
	if err := a.ReadXML(lf); err != nil {
		return err
	}
	log.Printf("listing %s: %d entries", input, a.Len())

	dest := strings.TrimSuffix(input, ".xml")
	if dest == input {
		dest = input + ".dat"
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := a.Build(out); err != nil {
		return err
	}
	log.Printf("packed %s", dest)
	return out.Close()
}
