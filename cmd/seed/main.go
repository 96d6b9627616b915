package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/bncc/internal/domain/model"
	"github.com/okian/bncc/internal/seed"
	"github.com/okian/bncc/pkg/logger"
)

const (
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
	defaultRunTime = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", seed.DefaultBaseURL, "Base URL of the service")
		records    = flag.Int("records", seed.DefaultRecords, "Number of records to generate")
		schools    = flag.Int("schools", seed.DefaultSchools, "Number of schools")
		keys       = flag.Int("keys", seed.DefaultKeys, "Skills or constructors per school")
		days       = flag.Int("days", seed.DefaultDays, "Distinct assessment days")
		variant    = flag.String("variant", string(model.VariantSkill), "skill or constructor")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		seedValue  = flag.Uint64("seed", 0, "Generator seed, 0 picks one")
		timeout    = flag.Duration("timeout", seed.DefaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Write generated records to this JSON file")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	v, err := model.ParseVariant(*variant)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTime)
	defer cancel()

	_, err = seed.Run(ctx, seed.Config{
		BaseURL:    *baseURL,
		Schools:    *schools,
		Keys:       *keys,
		Days:       *days,
		Records:    *records,
		Workers:    *workers,
		Seed:       *seedValue,
		Variant:    v,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	})
	if err != nil {
		_, _ = os.Stderr.WriteString("seed run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
