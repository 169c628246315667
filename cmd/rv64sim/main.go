// Package main provides the entry point for rv64sim.
// rv64sim is a user-space RV64GC emulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/rv64sim/emu"
	"github.com/sarchlab/rv64sim/loader"
	"github.com/sarchlab/rv64sim/timing/cache"
)

var (
	trace           = flag.Bool("trace", false, "Print each executed instruction to stderr")
	cacheStats      = flag.Bool("cache-stats", false, "Model L1 caches and report statistics")
	cacheConfigPath = flag.String("cache-config", "", "Path to cache configuration JSON file")
	maxInstructions = flag.Uint64("max-instructions", 0, "Stop after this many instructions (0 = unlimited)")
	verbose         = flag.Bool("v", false, "Verbose output")
)

// brkRegionSize is the amount of address space reserved for the
// program break above the loaded image.
const brkRegionSize = 256 * 1024 * 1024

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: rv64sim [options] <program.elf>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Entry point: 0x%X\n", prog.EntryPoint)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
		fmt.Printf("Program break: 0x%X\n", prog.BrkBase)
	}

	os.Exit(int(run(prog, programPath)))
}

func run(prog *loader.Program, programPath string) int64 {
	memory := emu.NewMemory()
	loadSegments(memory, prog)

	opts := []emu.EmulatorOption{
		emu.WithMemory(memory),
		emu.WithStackPointer(prog.InitialSP),
	}
	if *trace {
		opts = append(opts, emu.WithTrace(os.Stderr))
	}
	if *maxInstructions > 0 {
		opts = append(opts, emu.WithMaxInstructions(*maxInstructions))
	}

	var hierarchy *cache.Hierarchy
	if *cacheStats {
		config := cache.DefaultHierarchyConfig()
		if *cacheConfigPath != "" {
			var err error
			config, err = cache.LoadHierarchyConfig(*cacheConfigPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading cache config: %v\n", err)
				os.Exit(1)
			}
		}
		hierarchy = cache.NewHierarchy(config.L1I, config.L1D)
		opts = append(opts, emu.WithMemoryObserver(hierarchy))
	}

	emulator := emu.NewEmulator(opts...)
	emulator.RegFile().PC = prog.EntryPoint

	if handler, ok := emulator.SyscallHandler().(*emu.DefaultSyscallHandler); ok {
		handler.SetStdin(os.Stdin)
		handler.SetBrk(prog.BrkBase, prog.BrkBase+brkRegionSize)
	}

	exitCode := emulator.Run()

	if *verbose {
		fmt.Printf("\nProgram: %s\n", programPath)
		fmt.Printf("Exit code: %d\n", exitCode)
		fmt.Printf("Instructions executed: %d\n", emulator.InstructionCount())
	}

	if hierarchy != nil {
		fmt.Printf("\n")
		hierarchy.Report(os.Stdout)
	}

	return exitCode
}

// loadSegments writes the program image into memory, zero-filling the
// BSS tail of each segment.
func loadSegments(memory *emu.Memory, prog *loader.Program) {
	for _, seg := range prog.Segments {
		memory.WriteBytes(seg.VirtAddr, seg.Data)

		if bss := seg.MemSize - uint64(len(seg.Data)); bss > 0 {
			memory.WriteBytes(seg.VirtAddr+uint64(len(seg.Data)), make([]byte, bss))
		}
	}
}
