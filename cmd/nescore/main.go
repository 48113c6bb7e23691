// Package main implements the nescore NES emulator executable.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"nescore/internal/app"
	"nescore/internal/nes"
	"nescore/internal/ppu"
	"nescore/internal/version"
)

func main() {
	var (
		romFile     = flag.String("rom", "", "path to an iNES ROM file")
		configFile  = flag.String("config", "", "path to the JSON configuration file")
		nogui       = flag.Bool("nogui", false, "run headless and dump frames as PPM images")
		frames      = flag.Int("frames", 60, "frames to run in headless mode")
		outPrefix   = flag.String("out", "frame", "output file prefix for headless frame dumps")
		showVersion = flag.Bool("version", false, "print version information and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *romFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	console, err := nes.LoadFile(*romFile)
	if err != nil {
		log.Fatalf("nescore: %v", err)
	}
	log.Printf("loaded %s (mapper %d)", filepath.Base(*romFile), console.Cartridge().MapperID())

	if *nogui {
		if err := runHeadless(console, *frames, *outPrefix); err != nil {
			log.Fatalf("nescore: %v", err)
		}
		return
	}

	config, err := app.LoadConfig(configPath(*configFile))
	if err != nil {
		log.Fatalf("nescore: %v", err)
	}
	game := app.NewGame(console, config)
	if err := game.Run("nescore - " + filepath.Base(*romFile)); err != nil {
		log.Fatalf("nescore: %v", err)
	}
}

func configPath(override string) string {
	if override != "" {
		return override
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "nescore.json"
	}
	return filepath.Join(dir, "nescore", "config.json")
}

// runHeadless runs the console for a number of frames with both
// controllers disconnected and writes the final frame as a PPM image.
func runHeadless(console *nes.Nes, frames int, prefix string) error {
	for i := 0; i < frames; i++ {
		console.Frame()
	}
	name := fmt.Sprintf("%s_%04d.ppm", prefix, frames)
	if err := writePPM(name, console.FrameBuffer()); err != nil {
		return err
	}
	log.Printf("ran %d frames, wrote %s", frames, name)
	return nil
}

// writePPM dumps a frame buffer as a plain-text PPM image.
func writePPM(path string, frame []uint32) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "P3\n%d %d\n255\n", ppu.FrameWidth, ppu.FrameHeight)
	for y := 0; y < ppu.FrameHeight; y++ {
		for x := 0; x < ppu.FrameWidth; x++ {
			pixel := frame[y*ppu.FrameWidth+x]
			fmt.Fprintf(w, "%d %d %d ", pixel>>16&0xFF, pixel>>8&0xFF, pixel&0xFF)
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
