package remote

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Scheme is the protocol used to reach a remote location
type Scheme string

const (
	SchemeFTP  Scheme = "ftp"
	SchemeFTPS Scheme = "ftps"
	SchemeSFTP Scheme = "sftp"
)

// DefaultPort returns the well-known port of the scheme
func (s Scheme) DefaultPort() int {
	if s == SchemeSFTP {
		return 22
	}
	return 21
}

// Location is a remote path on some server.
type Location struct {
	Scheme   Scheme
	User     string // empty = anonymous (ftp) or current user (sftp)
	Password *string
	Host     string
	Port     int // 0 = scheme default
	Path     string
}

// ParseLocation parses a CLI argument into a Location.
//
// Accepted forms:
//   - ftp://[user[:password]@]host[:port][/path], same for ftps:// and sftp://
//   - [user@]host:[port:]path, which is sftp
func ParseLocation(arg string) (Location, error) {
	if arg == "" {
		return Location{}, fmt.Errorf("empty location")
	}
	if i := strings.Index(arg, "://"); i > 0 {
		return parseURL(arg, Scheme(strings.ToLower(arg[:i])))
	}
	return parseSCPStyle(arg)
}

func parseURL(arg string, scheme Scheme) (Location, error) {
	switch scheme {
	case SchemeFTP, SchemeFTPS, SchemeSFTP:
	default:
		return Location{}, fmt.Errorf("unsupported scheme %q in %q", scheme, arg)
	}
	u, err := url.Parse(arg)
	if err != nil {
		return Location{}, fmt.Errorf("invalid location %q: %w", arg, err)
	}
	loc := Location{Scheme: scheme, Host: u.Hostname(), Path: u.Path}
	if loc.Host == "" {
		return Location{}, fmt.Errorf("empty host in %q", arg)
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return Location{}, fmt.Errorf("invalid port %q in %q", p, arg)
		}
		loc.Port = port
	}
	if u.User != nil {
		loc.User = u.User.Username()
		if password, ok := u.User.Password(); ok {
			loc.Password = &password
		}
	}
	if loc.Path == "" {
		loc.Path = "/"
	}
	return loc, nil
}

func parseSCPStyle(arg string) (Location, error) {
	colonIdx := strings.Index(arg, ":")
	if colonIdx < 0 {
		return Location{}, fmt.Errorf("%q is not a remote location", arg)
	}
	hostPart := arg[:colonIdx]
	rest := arg[colonIdx+1:]
	if hostPart == "" {
		return Location{}, fmt.Errorf("empty host in remote path %q", arg)
	}

	loc := Location{Scheme: SchemeSFTP}
	if atIdx := strings.LastIndex(hostPart, "@"); atIdx >= 0 {
		loc.User = hostPart[:atIdx]
		loc.Host = hostPart[atIdx+1:]
	} else {
		loc.Host = hostPart
	}
	if loc.Host == "" {
		return Location{}, fmt.Errorf("empty host in remote path %q", arg)
	}

	// port:path
	if secondColon := strings.Index(rest, ":"); secondColon > 0 {
		if port, err := strconv.Atoi(rest[:secondColon]); err == nil && port > 0 && port <= 65535 {
			loc.Port = port
			rest = rest[secondColon+1:]
		}
	}
	if rest == "" {
		return Location{}, fmt.Errorf("empty path in remote location %q", arg)
	}
	loc.Path = rest
	return loc, nil
}

// EffectivePort is Port, or the scheme's default when unset
func (l Location) EffectivePort() int {
	if l.Port == 0 {
		return l.Scheme.DefaultPort()
	}
	return l.Port
}

// Addr returns host:port
func (l Location) Addr() string {
	return net.JoinHostPort(l.Host, strconv.Itoa(l.EffectivePort()))
}

// String renders the location as a URL, without the password
func (l Location) String() string {
	var sb strings.Builder
	sb.WriteString(string(l.Scheme))
	sb.WriteString("://")
	if l.User != "" {
		sb.WriteString(url.PathEscape(l.User))
		sb.WriteString("@")
	}
	sb.WriteString(l.Addr())
	if !strings.HasPrefix(l.Path, "/") {
		sb.WriteString("/")
	}
	sb.WriteString(l.Path)
	return sb.String()
}

// Join returns the location of name under l
func (l Location) Join(name string) Location {
	joined := l
	joined.Path = strings.TrimSuffix(l.Path, "/") + "/" + strings.TrimPrefix(name, "/")
	return joined
}
