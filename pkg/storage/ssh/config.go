package ssh

import (
	"fmt"
	"net"
	"strconv"

	"github.com/williamokano/s3transfer/pkg/storage"
)

type Config struct {
	Host          string
	Port          int    // Default: 22
	User          string // Key pair access key, or the "user" option
	Password      string // Key pair secret key
	KeyPath       string // Optional: path to private key
	KeyPassphrase string // Optional
	KnownHosts    string // Optional: known_hosts file for host key verification
	RemotePath    string // Bucket: base directory on remote server
}

func parseConfig(cfg storage.Config) (*Config, error) {
	sshCfg := &Config{
		Port:       22,
		User:       cfg.Credentials.Keys.AccessKey,
		Password:   cfg.Credentials.Keys.SecretKey,
		RemotePath: cfg.Bucket,
	}

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: missing endpoint (host[:port])", storage.ErrInvalidConfig)
	}
	host, port, err := net.SplitHostPort(cfg.Endpoint)
	if err != nil {
		sshCfg.Host = cfg.Endpoint
	} else {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid port %q", storage.ErrInvalidConfig, port)
		}
		sshCfg.Host = host
		sshCfg.Port = p
	}

	if v, ok := cfg.Options["user"].(string); ok && v != "" {
		sshCfg.User = v
	}
	if v, ok := cfg.Options["key_path"].(string); ok {
		sshCfg.KeyPath = v
	}
	if v, ok := cfg.Options["key_passphrase"].(string); ok {
		sshCfg.KeyPassphrase = v
	}
	if v, ok := cfg.Options["known_hosts"].(string); ok {
		sshCfg.KnownHosts = v
	}

	if sshCfg.User == "" {
		return nil, fmt.Errorf("%w: missing ssh user", storage.ErrInvalidConfig)
	}
	if sshCfg.RemotePath == "" {
		return nil, fmt.Errorf("%w: missing remote path (bucket)", storage.ErrInvalidConfig)
	}
	if sshCfg.Password == "" && sshCfg.KeyPath == "" {
		return nil, fmt.Errorf("%w: ssh needs a password or key_path", storage.ErrInvalidConfig)
	}

	return sshCfg, nil
}
