package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses configuration flags from args.
//
// Flags:
//
//	-app-code application code
//	-jwt user JWT for user data calls
//	-app-version host application version
//	-a push backend base URL
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-d archive sqlite DSN
//	-k keychain file path
//	-s device secret for encryption at rest
//	-retry-limit re-attempts after retriable failures
//	-retry-backoff first retry delay
//	-max-retry-backoff retry delay cap
//	-depersonalize-failure-limit failed depersonalizations before giving up
//	-sync-interval periodic sync interval
//	-probe-interval reachability probe interval
//	-stub run the in-process stub backend
//	-stub-address stub listen address in format [host]:[port]
//	-c/-config json file path with configs
func ParseFlags(args []string) (*StructuredConfig, error) {
	fs := flag.NewFlagSet("pushsync", flag.ContinueOnError)

	var (
		appCode, jwt, appVersion    string
		baseURL                     string
		requestTimeout              time.Duration
		archiveDSN, keychainPath    string
		secret                      string
		retryLimit, failureLimit    int
		retryBackoff, maxBackoff    time.Duration
		syncInterval, probeInterval time.Duration
		stubEnabled                 bool
		stubAddress                 NetAddress
		jsonConfigPath              string
	)

	fs.StringVar(&appCode, "app-code", "", "Application code")
	fs.StringVar(&jwt, "jwt", "", "User JWT for user data calls")
	fs.StringVar(&appVersion, "app-version", "", "Host application version")
	fs.StringVar(&baseURL, "a", "", "Push backend base URL")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.StringVar(&archiveDSN, "d", "", "Archive sqlite DSN")
	fs.StringVar(&keychainPath, "k", "", "Keychain file path")
	fs.StringVar(&secret, "s", "", "Device secret")
	fs.IntVar(&retryLimit, "retry-limit", 0, "Re-attempts after retriable failures")
	fs.DurationVar(&retryBackoff, "retry-backoff", 0, "First retry delay")
	fs.DurationVar(&maxBackoff, "max-retry-backoff", 0, "Retry delay cap")
	fs.IntVar(&failureLimit, "depersonalize-failure-limit", 0, "Failed depersonalizations before giving up")
	fs.DurationVar(&syncInterval, "sync-interval", 0, "Periodic sync interval")
	fs.DurationVar(&probeInterval, "probe-interval", 0, "Reachability probe interval")
	fs.BoolVar(&stubEnabled, "stub", false, "Run the in-process stub backend")
	fs.Var(&stubAddress, "stub-address", "Stub listen address host:port")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &StructuredConfig{
		App: App{
			Code:    appCode,
			JWT:     jwt,
			Version: appVersion,
		},
		Storage: Storage{
			ArchiveDSN:   archiveDSN,
			KeychainPath: keychainPath,
			Secret:       secret,
		},
		Adapter: Adapter{
			BaseURL:        baseURL,
			RequestTimeout: requestTimeout,
		},
		Sync: Sync{
			RetryLimit:                retryLimit,
			RetryBackoff:              retryBackoff,
			MaxRetryBackoff:           maxBackoff,
			DepersonalizeFailureLimit: failureLimit,
		},
		Workers: Workers{
			SyncInterval:  syncInterval,
			ProbeInterval: probeInterval,
		},
		Stub: Stub{
			Enabled: stubEnabled,
			Address: stubAddress.String(),
		},
		JSONFilePath: jsonConfigPath,
	}, nil
}

// String returns a canonical host:port string for a NetAddress.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
