// Package main times the kmetrics CLI over one or more extraction output
// directories. Every command runs first with the checkpoint cache disabled and
// then against a SQLite checkpoint, where the first run is cold and the rest
// are averaged as warm. Results are written to a CSV file.
//
// Prerequisites:
// - kmetrics binary installed and available in PATH
// - Extraction output directories (output-linux layout) under the base directory
//
// Usage: go run benchmark/main.go [output-base-dir]
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the timings of one command on one output directory.
type BenchmarkResult struct {
	OutputDir   string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	BaseDir     string
	Timeout     time.Duration
	NoCacheRuns int
	CacheRuns   int
	OutputDirs  []string
	Commands    []benchmarkCommand
}

// benchmarkCommand is a kmetrics subcommand and the phrase its successful output ends with.
type benchmarkCommand struct {
	Name       string
	Args       []string
	Completion string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [output-base-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		BaseDir:     os.Args[1],
		Timeout:     30 * time.Minute,
		NoCacheRuns: 2,
		CacheRuns:   4,
		Commands: []benchmarkCommand{
			{Name: "features", Completion: "Described"},
			{Name: "counts", Completion: "Normalized"},
			{Name: "run", Args: []string{"--metrics-document", filepath.Join(os.TempDir(), "kmetrics-benchmark.json")}, Completion: "Run completed in"},
		},
	}

	dirs, err := discoverOutputDirs(config.BaseDir)
	if err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}
	config.OutputDirs = dirs

	if _, err := exec.LookPath("kmetrics"); err != nil {
		fmt.Printf("Prerequisites check failed: kmetrics binary not found in PATH\n")
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// discoverOutputDirs returns the directories under base that hold a kconfig stage output.
func discoverOutputDirs(base string) ([]string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(base, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, "kconfig", "output.csv")); err == nil {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no extraction output directories found under %s", base)
	}
	return dirs, nil
}

// runBenchmarks executes every command on every output directory.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d output dirs, %v timeout, no-cache: %d runs, cache: %d runs\n",
		len(config.OutputDirs), config.Timeout, config.NoCacheRuns, config.CacheRuns)

	for _, dir := range config.OutputDirs {
		fmt.Printf("Benchmarking %s\n", dir)

		// Start from an empty checkpoint so the first cached run is cold
		clearCmd := exec.Command("kmetrics", "cache", "clear", "--cache-backend", "sqlite", "--output-dir", dir)
		if output, err := clearCmd.CombinedOutput(); err != nil {
			fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
		}

		for _, command := range config.Commands {
			results = append(results, runBenchmarkSuite(config, dir, command))
		}
	}

	return results
}

// runBenchmarkSuite runs the no-cache and cache phases of one command.
func runBenchmarkSuite(config BenchmarkConfig, dir string, command benchmarkCommand) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command.Name, dir)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, dir, command, cacheBackend, numRuns)
		if len(times) == 0 {
			return cold, "TIMEOUT"
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return cold, fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		OutputDir:   filepath.Base(dir),
		Command:     command.Name,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark runs a command numRuns times and returns the cold time and the warm times.
func runBenchmark(config BenchmarkConfig, dir string, command benchmarkCommand, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := append([]string{command.Name, "--output-dir", dir, "--cache-backend", cacheBackend}, command.Args...)

	var times []float64
	for range numRuns {
		start := time.Now()
		cmd := exec.Command("kmetrics", args...)

		done := make(chan struct{})
		var output []byte
		var cmdErr error
		go func() {
			output, cmdErr = cmd.CombinedOutput()
			close(done)
		}()

		select {
		case <-done:
			if cmdErr == nil && strings.Contains(string(output), command.Completion) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	filename := fmt.Sprintf("/tmp/kmetrics_benchmark_%s.csv", time.Now().Format("20060102_150405"))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"output_dir", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.OutputDir, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the results grouped by command
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range config.Commands {
		fmt.Printf("%s:\n", command.Name)
		for _, result := range results {
			if result.Command == command.Name {
				fmt.Printf("  %-20s: No-cache: %s, Cold: %s, Warm: %s\n", result.OutputDir, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
