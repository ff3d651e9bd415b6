// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/decred/slog"
	"github.com/decred/trng/internal/version"
	"github.com/decred/trng/sampleconfig"
	"github.com/decred/trng/source/chacha"
	"github.com/decred/trng/source/httpsource"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "trng.conf"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "trng.log"
	defaultLogLevel       = "info"
	defaultSource         = "chacha"
	defaultValueType      = "bytes"
	defaultEncoding       = "hex"
	defaultCount          = 1
	defaultLength         = 32
	defaultTimeout        = 30 * time.Second
)

var (
	defaultHomeDir    = dcrutil.AppDataDir("trng", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
)

// config defines the configuration options for trng.
//
// See loadConfig for details on the configuration load process.
type config struct {
	// General application behavior.
	ShowVersion   bool   `short:"V" long:"version" description:"Display version information and exit"`
	HomeDir       string `short:"A" long:"appdata" description:"Path to application home directory"`
	ConfigFile    string `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir        string `long:"logdir" description:"Directory to log output"`
	NoFileLogging bool   `long:"nofilelogging" description:"Disable file logging"`
	Profile       string `long:"profile" description:"Enable HTTP profiling on given [addr:]port -- NOTE port must be between 1024 and 65535 and the address must be a loopback address"`
	DebugLevel    string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`

	// Entropy source.
	Source    string        `short:"s" long:"source" description:"Entropy source {chacha, system, http, ws}"`
	Seed      string        `long:"seed" description:"Hex encoded 32 byte seed making the chacha source deterministic"`
	URL       string        `short:"u" long:"url" description:"Entropy provider URL for the http and ws sources"`
	Format    string        `long:"format" description:"Response format of the http source {plain, json}"`
	UserAgent string        `long:"useragent" description:"User agent sent by the http source"`
	Request   string        `long:"wsrequest" description:"Text message sent before each read by the ws source"`
	Timeout   time.Duration `long:"timeout" description:"Timeout for each request to a remote source"`
	Proxy     string        `long:"proxy" description:"Connect to the http source via a SOCKS5 proxy (eg. 127.0.0.1:9050)"`
	ProxyUser string        `long:"proxyuser" description:"Username for proxy server"`
	ProxyPass string        `long:"proxypass" default-mask:"-" description:"Password for proxy server"`
	PoolSize  int           `long:"poolsize" description:"Number of bytes preallocated for the entropy pool"`

	// Output.
	Type     string `short:"t" long:"type" description:"Type of value to generate {bytes, bool, byte, int, long, double, range, shuffle}"`
	Count    int    `short:"n" long:"count" description:"Number of values to generate"`
	Length   int    `short:"l" long:"length" description:"Number of bytes per value for the bytes type"`
	Min      uint64 `long:"min" description:"Inclusive lower bound for the range type"`
	Max      uint64 `long:"max" description:"Exclusive upper bound for the range type"`
	Encoding string `short:"e" long:"encoding" description:"Output encoding for the bytes type {hex, base64, raw}"`
	Force    bool   `short:"f" long:"force" description:"Write raw output even when stdout is a terminal"`

	// seed is the decoded Seed option.
	seed *[chacha.SeedSize]byte

	// format is the parsed Format option.
	format httpsource.Format
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.Replace(path, "~", home, 1)
		}
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	_, ok := slog.LevelFromString(logLevel)
	return ok
}

// supportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func supportedSubsystems() []string {
	// Convert the subsystemLoggers map keys to a slice.
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}

	// Sort the subsystems for stable display.
	sort.Strings(subsystems)
	return subsystems
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimiters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		// Validate debug log level.
		if !validLogLevel(debugLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, debugLevel)
		}

		// Change the logging level for all subsystems.
		setLogLevels(debugLevel)
		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "the specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		// Extract the specified subsystem and log level.
		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		// Validate subsystem.
		if _, exists := subsystemLoggers[subsysID]; !exists {
			str := "the specified subsystem [%v] is invalid -- " +
				"supported subsystems %v"
			return fmt.Errorf(str, subsysID, supportedSubsystems())
		}

		// Validate log level.
		if !validLogLevel(logLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, logLevel)
		}

		setLogLevel(subsysID, logLevel)
	}

	return nil
}

// fileExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// createDefaultConfigFile creates the default config file at the passed path
// from the embedded sample config.
func createDefaultConfigFile(destPath string) error {
	// Create the destination directory if it does not exist.
	err := os.MkdirAll(filepath.Dir(destPath), 0700)
	if err != nil {
		return err
	}
	return os.WriteFile(destPath, []byte(sampleconfig.Trng()), 0600)
}

// errSuppressUsage wraps errors that should not be followed by the usage
// message.
type errSuppressUsage string

func (e errSuppressUsage) Error() string {
	return string(e)
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in trng functioning properly without any config settings
// while still allowing the user to override settings with config files and
// command line options.  Command line options always take precedence.
func loadConfig(args []string) (*config, error) {
	// Default config.
	cfg := config{
		HomeDir:    defaultHomeDir,
		ConfigFile: defaultConfigFile,
		LogDir:     defaultLogDir,
		DebugLevel: defaultLogLevel,
		Source:     defaultSource,
		URL:        httpsource.DefaultURL,
		Format:     httpsource.FormatPlain.String(),
		Timeout:    defaultTimeout,
		Type:       defaultValueType,
		Count:      defaultCount,
		Length:     defaultLength,
		Encoding:   defaultEncoding,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.  Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if preCfg.ShowVersion {
		fmt.Printf("%s version %s (Go version %s %s/%s)\n", appName,
			version.String(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	// Update the home directory for trng if specified.  Since the home
	// directory is updated, other variables need to be updated to reflect
	// the new changes.
	if preCfg.HomeDir != defaultHomeDir {
		cfg.HomeDir = cleanAndExpandPath(preCfg.HomeDir)
		if preCfg.ConfigFile == defaultConfigFile {
			cfg.ConfigFile = filepath.Join(cfg.HomeDir, defaultConfigFilename)
		} else {
			cfg.ConfigFile = cleanAndExpandPath(preCfg.ConfigFile)
		}
		if preCfg.LogDir == defaultLogDir {
			cfg.LogDir = filepath.Join(cfg.HomeDir, defaultLogDirname)
		}
	} else if preCfg.ConfigFile != defaultConfigFile {
		cfg.ConfigFile = cleanAndExpandPath(preCfg.ConfigFile)
	}

	// Create a default config file when one does not exist and the user did
	// not specify an override.
	if cfg.ConfigFile == filepath.Join(cfg.HomeDir, defaultConfigFilename) &&
		!fileExists(cfg.ConfigFile) {

		if err := createDefaultConfigFile(cfg.ConfigFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating a default config file: "+
				"%v\n", err)
		}
	}

	// Load additional config from file.
	var configFileError error
	parser := flags.NewParser(&cfg, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(cfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, errSuppressUsage(err.Error())
	}
	if len(remainingArgs) > 0 {
		return nil, fmt.Errorf("unexpected arguments %v", remainingArgs)
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Initialize log rotation.  After log rotation has been initialized, the
	// logger variables may be used.
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	if !cfg.NoFileLogging {
		initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Warn about missing config file only after all other configuration is
	// done.  This prevents the warning on help messages and invalid options.
	if configFileError != nil {
		mainLog.Warnf("%v", configFileError)
	}

	return &cfg, nil
}

// validate checks the source and output options for consistency and decodes
// the options that have a parsed form.
func (cfg *config) validate() error {
	if cfg.Profile != "" {
		err := validateProfileAddr(portToLocalHostAddr(cfg.Profile))
		if err != nil {
			return fmt.Errorf("invalid --profile: %w", err)
		}
	}

	switch cfg.Source {
	case "chacha", "system", "http", "ws":
	default:
		return fmt.Errorf("unknown entropy source %q", cfg.Source)
	}

	if cfg.Seed != "" {
		if cfg.Source != "chacha" {
			return errors.New("--seed may only be used with the chacha " +
				"source")
		}
		b, err := hex.DecodeString(cfg.Seed)
		if err != nil || len(b) != chacha.SeedSize {
			return fmt.Errorf("--seed must be %d hex encoded bytes",
				chacha.SeedSize)
		}
		var seed [chacha.SeedSize]byte
		copy(seed[:], b)
		cfg.seed = &seed
	}

	format, err := httpsource.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	cfg.format = format

	if cfg.Source == "ws" && cfg.URL == httpsource.DefaultURL {
		return errors.New("the ws source requires --url")
	}
	if cfg.Timeout <= 0 {
		return errors.New("--timeout must be positive")
	}
	if cfg.PoolSize < 0 {
		return errors.New("--poolsize may not be negative")
	}

	switch cfg.Type {
	case "bytes", "bool", "byte", "int", "long", "double", "range", "shuffle":
	default:
		return fmt.Errorf("unknown value type %q", cfg.Type)
	}
	switch cfg.Encoding {
	case "hex", "base64", "raw":
	default:
		return fmt.Errorf("unknown output encoding %q", cfg.Encoding)
	}
	if cfg.Count <= 0 {
		return errors.New("--count must be positive")
	}
	if cfg.Type == "bytes" && cfg.Length <= 0 {
		return errors.New("--length must be positive")
	}
	if cfg.Type == "range" && cfg.Min >= cfg.Max {
		return fmt.Errorf("--min (%d) must be less than --max (%d)", cfg.Min,
			cfg.Max)
	}
	return nil
}
