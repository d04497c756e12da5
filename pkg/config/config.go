package config

import (
	"net"
	"strconv"

	"github.com/williamokano/s3transfer/pkg/auth"
	"github.com/williamokano/s3transfer/pkg/notify"
	"github.com/williamokano/s3transfer/pkg/storage"
)

const (
	DefaultRegion       = "ap-northeast-1"
	DefaultProfile      = auth.DefaultProfile
	DefaultLogPath      = "/var/log/s3transfer.log"
	DefaultRolloverSize = 104857600
	DefaultLogHandler   = HandlerRotation
	DefaultLogLevel     = "info"
)

// Log handlers
const (
	HandlerConsole  = "console"
	HandlerFile     = "file"
	HandlerRotation = "rotation"
)

// Handlers lists the accepted log handler names
var Handlers = []string{HandlerConsole, HandlerFile, HandlerRotation}

// General holds settings shared by every component
type General struct {
	Region string `json:"region,omitempty"` // AWS region (default: ap-northeast-1)
}

// Log configures where and how the tool logs
type Log struct {
	Path         string `json:"log_path,omitempty"`         // file and rotation handlers
	RolloverSize int64  `json:"log_rolloversize,omitempty"` // bytes before the rotation handler rolls over
	Handler      string `json:"log_handler,omitempty"`      // console, file, rotation (default: rotation)
	Level        string `json:"log_level,omitempty"`        // debug, info, warn, error (default: info)
	Format       string `json:"log_format,omitempty"`       // json, console (default: json)
}

// Credential selects how the storage client authenticates.
// A complete key pair wins over the profile.
type Credential struct {
	Profile   string `json:"profile,omitempty"`
	AccessKey string `json:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
}

// Storage describes the upload destination
type Storage struct {
	Type           string                 `json:"type,omitempty"` // s3 (default), local, backblaze, ssh
	Bucket         string                 `json:"bucket,omitempty"`
	Endpoint       string                 `json:"endpoint,omitempty"`
	Prefix         string                 `json:"prefix,omitempty"`
	ForcePathStyle bool                   `json:"force_path_style,omitempty"`
	SkipVerify     bool                   `json:"skip_verify,omitempty"`
	Options        map[string]interface{} `json:"options,omitempty"`
}

// Notification configures the operator e-mail
type Notification struct {
	Enabled      bool     `json:"enabled,omitempty"`
	Transport    string   `json:"transport,omitempty"` // smtp (default) or ses
	SMTPServer   string   `json:"smtp_server,omitempty"`
	SMTPPort     int      `json:"smtp_port,omitempty"`
	From         string   `json:"from,omitempty"`
	To           []string `json:"to,omitempty"`
	Cc           []string `json:"cc,omitempty"`
	SESAccessKey string   `json:"ses_access_key,omitempty"`
	SESSecretKey string   `json:"ses_secret_key,omitempty"`
}

// Transfer holds per-run defaults that flags may override
type Transfer struct {
	ArchiveName  string `json:"archive_name,omitempty"`
	KeyName      string `json:"key_name,omitempty"`
	RemoveSource *bool  `json:"remove_source,omitempty"` // unset: workflow default
}

// Config is the root configuration structure. It is built once and passed
// by value.
type Config struct {
	General      General      `json:"general"`
	Log          Log          `json:"log"`
	Credential   Credential   `json:"credential"`
	Storage      Storage      `json:"storage"`
	Notification Notification `json:"notification"`
	Transfer     Transfer     `json:"transfer"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		General: General{Region: DefaultRegion},
		Log: Log{
			Path:         DefaultLogPath,
			RolloverSize: DefaultRolloverSize,
			Handler:      DefaultLogHandler,
			Level:        DefaultLogLevel,
		},
		Credential: Credential{Profile: DefaultProfile},
		Storage:    Storage{Type: storage.DefaultType},
	}
}

// ValidHandler reports whether name is a known log handler
func ValidHandler(name string) bool {
	for _, h := range Handlers {
		if h == name {
			return true
		}
	}
	return false
}

// Credentials returns the storage credentials
func (c Config) Credentials() auth.Credentials {
	return auth.Credentials{
		Profile: c.Credential.Profile,
		Keys:    auth.KeyPair{AccessKey: c.Credential.AccessKey, SecretKey: c.Credential.SecretKey},
	}
}

// StorageConfig returns the storage client configuration
func (c Config) StorageConfig() storage.Config {
	return storage.Config{
		Type:           c.Storage.Type,
		Bucket:         c.Storage.Bucket,
		Region:         c.General.Region,
		Endpoint:       c.Storage.Endpoint,
		Prefix:         c.Storage.Prefix,
		ForcePathStyle: c.Storage.ForcePathStyle,
		SkipVerify:     c.Storage.SkipVerify,
		Credentials:    c.Credentials(),
		Options:        c.Storage.Options,
	}
}

// NotifySettings returns the notifier settings. The SES key pair is the only
// credential source; without it SMTP relays unauthenticated and the SES API
// uses the default chain.
func (c Config) NotifySettings() notify.Settings {
	server := c.Notification.SMTPServer
	if server != "" && c.Notification.SMTPPort > 0 {
		server = net.JoinHostPort(server, strconv.Itoa(c.Notification.SMTPPort))
	}

	return notify.Settings{
		Transport:  c.Notification.Transport,
		SMTPServer: server,
		From:       c.Notification.From,
		To:         c.Notification.To,
		Cc:         c.Notification.Cc,
		Region:     c.General.Region,
		Credentials: auth.Credentials{
			Keys: auth.KeyPair{AccessKey: c.Notification.SESAccessKey, SecretKey: c.Notification.SESSecretKey},
		},
	}
}
