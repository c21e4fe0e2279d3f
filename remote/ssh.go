package remote

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alexhunt7/ssher"
	"github.com/m-manu/ftp-sidekick/fmte"
	"github.com/m-manu/ftp-sidekick/transport"
	"github.com/m-manu/ftp-sidekick/transport/sftpconn"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHOptions controls how SFTP logins authenticate the server and the user
type SSHOptions struct {
	// ConfigFile is an ssh_config file; empty means ~/.ssh/config
	ConfigFile string
	// KnownHostsFile is checked for the server's host key; empty means ~/.ssh/known_hosts
	KnownHostsFile        string
	InsecureIgnoreHostKey bool
}

// SSHClientConfig returns the configuration builder handed to the SFTP dialer.
//
// Identity keys and the default user come from the ssh_config entry of the host, when
// there is one. An explicit user replaces the configured one and a non-empty password
// is added as an extra auth method.
func SSHClientConfig(opts SSHOptions) sftpconn.ClientConfigFunc {
	return func(endpoint transport.Endpoint, user, password string) (*ssh.ClientConfig, error) {
		config, _, err := ssher.ClientConfig(endpoint.Host, opts.ConfigFile)
		if err != nil || config == nil {
			fmte.PrintfV("no usable ssh config for %s: %v\n", endpoint.Host, err)
			config = &ssh.ClientConfig{}
		}
		if user != "" {
			config.User = user
		}
		if password != "" {
			config.Auth = append(config.Auth, ssh.Password(password))
		}
		if config.Timeout == 0 {
			config.Timeout = endpoint.Timeout
		}
		hostKeyCallback, err := opts.hostKeyCallback()
		if err != nil {
			return nil, err
		}
		config.HostKeyCallback = hostKeyCallback
		return config, nil
	}
}

// SSHAddress resolves a host alias through the ssh_config file. The entry's HostName
// replaces the host and its Port applies unless the location names another port than
// 22. Hosts without a usable entry are dialed as given.
func SSHAddress(opts SSHOptions) sftpconn.AddressFunc {
	return func(endpoint transport.Endpoint) string {
		_, hostPort, err := ssher.ClientConfig(endpoint.Host, opts.ConfigFile)
		if err != nil {
			return endpoint.Address()
		}
		host, port, err := net.SplitHostPort(hostPort)
		if err != nil {
			return endpoint.Address()
		}
		if endpoint.Port != 0 && endpoint.Port != sftpconn.DefaultPort {
			port = strconv.Itoa(endpoint.Port)
		}
		address := net.JoinHostPort(host, port)
		if address != endpoint.Address() {
			fmte.PrintfV("%s resolves to %s\n", endpoint.Host, address)
		}
		return address
	}
}

func (o SSHOptions) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if o.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	file := o.KnownHostsFile
	if file == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot locate known_hosts: %w", err)
		}
		file = filepath.Join(home, ".ssh", "known_hosts")
	}
	callback, err := knownhosts.New(file)
	if err != nil {
		return nil, fmt.Errorf("cannot load known hosts from %s: %w", file, err)
	}
	return callback, nil
}
