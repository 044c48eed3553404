// Package profiler captures pprof profiles for ucp-schema runs. The flags
// are hidden on the CLI; they exist to diagnose resolution and bundling
// performance on very large schema sets.
package profiler

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/pflag"
)

// Profiler writes CPU and snapshot profiles around a CLI run. The zero
// value has all profiles disabled.
type Profiler struct {
	cpuFile *os.File

	// Output paths (empty = disabled).
	CPUProfile  string
	HeapProfile string
}

// RegisterFlags adds hidden profiling flags to the given [*pflag.FlagSet].
func (p *Profiler) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&p.CPUProfile, "cpu-profile", "", "write CPU profile to file")
	flags.StringVar(&p.HeapProfile, "heap-profile", "", "write heap profile to file")

	for _, name := range []string{"cpu-profile", "heap-profile"} {
		_ = flags.MarkHidden(name)
	}
}

// Start begins CPU profiling if enabled. Call [Profiler.Stop] when the run
// completes to write all profiles.
func (p *Profiler) Start() error {
	if p.CPUProfile == "" {
		return nil
	}

	f, err := os.Create(p.CPUProfile) //nolint:gosec // Profile path from CLI flag is expected.
	if err != nil {
		return fmt.Errorf("creating CPU profile: %w", err)
	}

	err = pprof.StartCPUProfile(f)
	if err != nil {
		_ = f.Close()

		return fmt.Errorf("starting CPU profile: %w", err)
	}

	p.cpuFile = f

	return nil
}

// Stop stops CPU profiling and writes the heap snapshot if enabled.
func (p *Profiler) Stop() error {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()

		err := p.cpuFile.Close()
		if err != nil {
			return fmt.Errorf("closing CPU profile: %w", err)
		}

		p.cpuFile = nil
	}

	if p.HeapProfile == "" {
		return nil
	}

	f, err := os.Create(p.HeapProfile) //nolint:gosec // Profile path from CLI flag is expected.
	if err != nil {
		return fmt.Errorf("creating heap profile: %w", err)
	}
	defer f.Close() //nolint:errcheck

	err = pprof.Lookup("heap").WriteTo(f, 0)
	if err != nil {
		return fmt.Errorf("writing heap profile: %w", err)
	}

	return nil
}
