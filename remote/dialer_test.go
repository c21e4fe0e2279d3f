package remote

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-manu/ftp-sidekick/transport"
	"github.com/m-manu/ftp-sidekick/transport/ftpconn"
	"github.com/m-manu/ftp-sidekick/transport/sftpconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDialer(t *testing.T) {
	tests := []struct {
		scheme Scheme
		port   int
		isFTP  bool
	}{
		{SchemeFTP, 21, true},
		{SchemeFTPS, 21, true},
		{SchemeSFTP, 22, false},
	}
	for _, tt := range tests {
		d, err := NewDialer(Location{Scheme: tt.scheme, Host: "h"}, DialOptions{})
		require.NoError(t, err, "scheme: %s", tt.scheme)
		assert.Equal(t, tt.port, d.DefaultPort(), "scheme: %s", tt.scheme)
		_, isFTP := d.(*ftpconn.Dialer)
		_, isSFTP := d.(*sftpconn.Dialer)
		assert.Equal(t, tt.isFTP, isFTP, "scheme: %s", tt.scheme)
		assert.Equal(t, !tt.isFTP, isSFTP, "scheme: %s", tt.scheme)
	}

	_, err := NewDialer(Location{Scheme: "gopher", Host: "h"}, DialOptions{})
	assert.Error(t, err)
}

func TestSSHClientConfig(t *testing.T) {
	dir := t.TempDir()
	sshConfig := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(sshConfig, []byte(""), 0600))
	endpoint := transport.Endpoint{Host: "files.example.com", Port: 22, Timeout: transport.DefaultTimeout}

	build := SSHClientConfig(SSHOptions{ConfigFile: sshConfig, InsecureIgnoreHostKey: true})
	config, err := build(endpoint, "bob", "secret")
	require.NoError(t, err)
	assert.Equal(t, "bob", config.User)
	assert.NotEmpty(t, config.Auth)
	assert.NotNil(t, config.HostKeyCallback)

	knownHosts := filepath.Join(dir, "known_hosts")
	require.NoError(t, os.WriteFile(knownHosts, []byte(""), 0600))
	build = SSHClientConfig(SSHOptions{ConfigFile: sshConfig, KnownHostsFile: knownHosts})
	config, err = build(endpoint, "bob", "")
	require.NoError(t, err)
	assert.NotNil(t, config.HostKeyCallback)

	build = SSHClientConfig(SSHOptions{ConfigFile: sshConfig, KnownHostsFile: filepath.Join(dir, "missing")})
	_, err = build(endpoint, "bob", "secret")
	assert.Error(t, err)
}

func TestSSHAddress(t *testing.T) {
	dir := t.TempDir()
	sshConfig := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(sshConfig, []byte(
		"Host myalias\n  HostName real.example.com\n  Port 2222\n\nHost nameonly\n  HostName 10.0.0.7\n"), 0600))

	tests := []struct {
		configFile string
		endpoint   transport.Endpoint
		want       string
	}{
		{sshConfig, transport.Endpoint{Host: "myalias", Port: 22}, "real.example.com:2222"},
		{sshConfig, transport.Endpoint{Host: "myalias", Port: 2200}, "real.example.com:2200"},
		{sshConfig, transport.Endpoint{Host: "nameonly", Port: 22}, "10.0.0.7:22"},
		{sshConfig, transport.Endpoint{Host: "other.example.com", Port: 22}, "other.example.com:22"},
		{filepath.Join(dir, "missing"), transport.Endpoint{Host: "myalias", Port: 22}, "myalias:22"},
	}
	for _, tt := range tests {
		resolve := SSHAddress(SSHOptions{ConfigFile: tt.configFile})
		assert.Equal(t, tt.want, resolve(tt.endpoint), "host: %s, port: %d", tt.endpoint.Host, tt.endpoint.Port)
	}
}
