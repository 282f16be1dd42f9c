package main

import (
	"flag"
	"fmt"
	"os"
)

type Config struct {
	Host          string
	Port          int
	MetricsPort   int
	LogLevel      string
	LogFormat     string
	Epsilon       float64
	Delta         float64
	K             int
	NoiseEpsilon  float64
	Seed          int64
	EnableMetrics bool
	Version       bool
}

func ParseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.Host, "host", "0.0.0.0", "Server host")
	flag.IntVar(&config.Port, "port", 8080, "Server port")
	flag.IntVar(&config.MetricsPort, "metrics-port", 9090, "Prometheus metrics port")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&config.LogFormat, "log-format", "json", "Log format (json, text)")
	flag.Float64Var(&config.Epsilon, "epsilon", 1.0, "Global privacy budget epsilon per budget key")
	flag.Float64Var(&config.Delta, "delta", 1e-5, "Global privacy budget delta per budget key")
	flag.IntVar(&config.K, "k", 5, "Minimum k-anonymity group size")
	flag.Float64Var(&config.NoiseEpsilon, "noise-epsilon", 0.1, "Epsilon reserved per noise application")
	flag.Int64Var(&config.Seed, "seed", 1, "Random seed (fixed seed reproduces outputs)")
	flag.BoolVar(&config.EnableMetrics, "enable-metrics", true, "Enable the Prometheus metrics server")
	flag.BoolVar(&config.Version, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPrivacy-Preserving Synthetic Data Engine\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if config.Version {
		info := GetBuildInfo()
		fmt.Printf("Version: %s\n", info.Version)
		fmt.Printf("Git Commit: %s\n", info.GitCommit)
		fmt.Printf("Build Date: %s\n", info.BuildDate)
		fmt.Printf("Go Version: %s\n", info.GoVersion)
		fmt.Printf("Platform: %s\n", info.Platform)
		os.Exit(0)
	}

	return config
}
