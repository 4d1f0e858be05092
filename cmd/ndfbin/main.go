// Command ndfbin converts NDFBin object graphs between the binary
// format and their XML surface.
//
//	ndfbin input.ndfbin outdir        # binary -> outdir/input.xml
//	ndfbin -p input.xml outdir        # XML -> outdir/input.ndfbin
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgmod/eugen/ndf"
)

func main() {
	var (
		pack    bool
		verbose bool
	)
	flag.BoolVar(&pack, "p", false, "pack an XML graph into an NDFBin file")
	flag.BoolVar(&pack, "pack", false, "pack an XML graph into an NDFBin file")
	flag.BoolVar(&verbose, "v", false, "verbose output")
	flag.BoolVar(&verbose, "verbose", false, "verbose output")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: ndfbin [flags] input output")
		flag.PrintDefaults()
		os.Exit(1)
	}
	input, output := flag.Arg(0), flag.Arg(1)

	log.SetFlags(0)
	if !verbose {
		log.SetOutput(io.Discard)
	}

	var err error
	if pack {
		err = runPack(input, output)
	} else {
		err = runUnpack(input, output)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ndfbin: %v\n", err)
		os.Exit(1)
	}
}

func outName(input, output, ext string) string {
	base := filepath.Base(input)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return filepath.Join(output, base+ext)
}

func runUnpack(input, output string) error {
	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	g, err := ndf.Decode(f)
	if err != nil {
		return err
	}
	log.Printf("decoded %s: %d objects, %d strings", input, g.Len(), len(g.Strings))

	if err := os.MkdirAll(output, 0o755); err != nil {
		return err
	}
	dest := outName(input, output, ".xml")
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := g.WriteXML(out); err != nil {
		return err
	}
	log.Printf("wrote %s", dest)
	return out.Close()
}

func runPack(input, output string) error {
	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	g, err := ndf.ReadXML(f)
	if err != nil {
		return err
	}
	log.Printf("parsed %s: %d objects", input, g.Len())

	if err := os.MkdirAll(output, 0o755); err != nil {
		return err
	}
	dest := outName(input, output, ".ndfbin")
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := g.Encode(out); err != nil {
		return err
	}
	log.Printf("wrote %s", dest)
	return out.Close()
}
