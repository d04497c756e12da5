package ssh

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/williamokano/s3transfer/pkg/storage"
)

type Backend struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
	remotePath string
	retry      storage.RetryConfig
}

func init() {
	storage.RegisterBackend("ssh", func(ctx context.Context, cfg storage.Config) (storage.Client, error) {
		return New(cfg)
	})
}

func buildClientConfig(sshCfg *Config) (*ssh.ClientConfig, error) {
	clientConfig := &ssh.ClientConfig{
		User:            sshCfg.User,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	}

	if sshCfg.KnownHosts != "" {
		callback, err := knownhosts.New(sshCfg.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
		clientConfig.HostKeyCallback = callback
	}

	if sshCfg.Password != "" {
		clientConfig.Auth = append(clientConfig.Auth, ssh.Password(sshCfg.Password))
	}

	if sshCfg.KeyPath != "" {
		key, err := os.ReadFile(sshCfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read SSH key: %w", err)
		}

		var signer ssh.Signer
		if sshCfg.KeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(sshCfg.KeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(key)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse SSH key: %w", err)
		}

		clientConfig.Auth = append(clientConfig.Auth, ssh.PublicKeys(signer))
	}

	return clientConfig, nil
}

// New creates a new SSH/SFTP backend; the bucket is the remote base directory
func New(cfg storage.Config) (*Backend, error) {
	sshCfg, err := parseConfig(cfg)
	if err != nil {
		return nil, err
	}

	clientConfig, err := buildClientConfig(sshCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidConfig, err)
	}

	addr := net.JoinHostPort(sshCfg.Host, strconv.Itoa(sshCfg.Port))
	sshClient, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, storage.WrapError(addr, "connect", fmt.Errorf("%w: %w", storage.ErrConnFailed, err))
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, storage.WrapError(addr, "sftp init", err)
	}

	if err := sftpClient.MkdirAll(sshCfg.RemotePath); err != nil {
		sftpClient.Close()
		sshClient.Close()
		return nil, storage.WrapError(addr, "mkdir", err)
	}

	return &Backend{
		sshClient:  sshClient,
		sftpClient: sftpClient,
		remotePath: sshCfg.RemotePath,
		retry:      storage.LogRetries(storage.DefaultRetryConfig(), cfg.Logger, "ssh"),
	}, nil
}

func (b *Backend) Type() string   { return "ssh" }
func (b *Backend) Bucket() string { return b.remotePath }

// Upload copies a file via SFTP
func (b *Backend) Upload(ctx context.Context, localPath, key string) error {
	return storage.WithRetry(ctx, b.retry, func() error {
		localFile, err := storage.OpenLocal(localPath)
		if err != nil {
			return err
		}
		defer localFile.Close()

		remotePath := path.Join(b.remotePath, key)

		if err := b.sftpClient.MkdirAll(path.Dir(remotePath)); err != nil {
			return storage.WrapError(b.remotePath, "mkdir", err)
		}

		remoteFile, err := b.sftpClient.Create(remotePath)
		if err != nil {
			return storage.WrapError(b.remotePath, "create", err)
		}
		defer remoteFile.Close()

		if _, err := io.Copy(remoteFile, localFile); err != nil {
			return storage.WrapError(b.remotePath, "upload", fmt.Errorf("%w: %w", storage.ErrConnFailed, err))
		}

		return nil
	})
}

// Close releases resources
func (b *Backend) Close() error {
	if b.sftpClient != nil {
		b.sftpClient.Close()
	}
	if b.sshClient != nil {
		b.sshClient.Close()
	}
	return nil
}
