package remote

import (
	"crypto/tls"
	"fmt"
	"io"

	"github.com/m-manu/ftp-sidekick/transport"
	"github.com/m-manu/ftp-sidekick/transport/ftpconn"
	"github.com/m-manu/ftp-sidekick/transport/sftpconn"
)

// DialOptions are the transport knobs a location can be dialed with
type DialOptions struct {
	DisableEPSV bool
	// InsecureSkipVerify turns off certificate checks for ftps
	InsecureSkipVerify bool
	// DebugOutput receives the FTP control dialogue
	DebugOutput io.Writer
	SSH         SSHOptions
}

// NewDialer picks the transport for the location's scheme
func NewDialer(loc Location, opts DialOptions) (transport.Dialer, error) {
	switch loc.Scheme {
	case SchemeFTP, SchemeFTPS:
		config := ftpconn.Config{
			DisableEPSV: opts.DisableEPSV,
			DebugOutput: opts.DebugOutput,
		}
		if loc.Scheme == SchemeFTPS {
			config.ExplicitTLS = true
			config.TLSConfig = &tls.Config{
				ServerName:         loc.Host,
				InsecureSkipVerify: opts.InsecureSkipVerify,
			}
		}
		return ftpconn.NewDialer(config), nil
	case SchemeSFTP:
		return sftpconn.NewDialer(SSHClientConfig(opts.SSH), SSHAddress(opts.SSH)), nil
	}
	return nil, fmt.Errorf("unsupported scheme %q", loc.Scheme)
}
