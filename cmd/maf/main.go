// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"maps"
	"os"

	"github.com/ezrec/maf/config"
	"github.com/ezrec/maf/emulator"
	"github.com/ezrec/maf/image"
	"github.com/ezrec/maf/internal"
	"github.com/ezrec/maf/translate"
)

func main() {
	var conf string
	var compile string
	var input string
	var save string
	var listing bool
	var verbose bool
	var budget int

	flag.StringVar(&conf, "f", "", "maf.toml configuration file")
	flag.StringVar(&compile, "c", "", ".maf file to compile")
	flag.StringVar(&input, "i", "", "Program image to run, instead of compiling")
	flag.StringVar(&save, "s", "", "Save program image, do not execute")
	flag.BoolVar(&listing, "l", false, "Print the instruction listing")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.IntVar(&budget, "n", -1, "Instruction budget (0 for no limit)")

	flag.Parse()

	switch {
	case flag.NArg() == 1 && len(compile) == 0:
		compile = flag.Arg(0)
	case flag.NArg() != 0:
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(compile) == 0 && len(input) == 0 {
		compile = "sample.maf"
	}

	cfg := config.Default()
	if len(conf) != 0 {
		var err error
		cfg, err = config.Load(conf)
		if err != nil {
			log.Fatalf("%v: %v", conf, err)
		}
	}

	if budget >= 0 {
		cfg.Machine.Budget = budget
	}

	if verbose {
		cfg.Assembler.Verbose = true
		cfg.Machine.Verbose = true
		log.Printf("maf: messages in %v", translate.Language())
	}

	emu, err := emulator.NewEmulator(cfg.Assembler.CodeSize)
	if err != nil {
		log.Fatal(err)
	}
	emu.Equates = cfg.Assembler.Equates
	emu.Budget = cfg.Machine.Budget

	if verbose {
		for name, value := range internal.Sorted(maps.Collect(emu.Defines())) {
			log.Printf("maf: .equ %v %v", name, value)
		}
	}

	if len(input) != 0 {
		data, err := os.ReadFile(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		prog, err := image.Unmarshal(data)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		err = emu.Load(prog)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
	} else {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		emu.Verbose = cfg.Assembler.Verbose
		err = emu.Assemble(inf)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	}

	if listing {
		err = emu.Program.Listing(os.Stdout)
		if err != nil {
			log.Fatal(err)
		}
	}

	if len(save) != 0 {
		data, err := image.Marshal(emu.Program)
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
		err = os.WriteFile(save, data, 0o644)
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
		return
	}

	emu.Verbose = cfg.Machine.Verbose
	emu.Reset()
	res := emu.Run()

	fmt.Println(emu.Machine.Registers())
	fmt.Printf("res: %v\n", res)
	if res != nil {
		os.Exit(1)
	}
}
