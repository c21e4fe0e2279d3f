package ftpconn

import (
	"bytes"
	"testing"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/m-manu/ftp-sidekick/entity"
	"github.com/m-manu/ftp-sidekick/listing"
	"github.com/m-manu/ftp-sidekick/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryLinesParseBack(t *testing.T) {
	modTime := time.Date(2023, time.March, 14, 9, 26, 0, 0, time.UTC)
	entries := []*ftp.Entry{
		{Name: ".", Type: ftp.EntryTypeFolder, Time: modTime},
		{Name: "index.html", Type: ftp.EntryTypeFile, Size: 5120, Time: modTime},
		{Name: "images", Type: ftp.EntryTypeFolder, Time: modTime},
		{Name: "latest", Type: ftp.EntryTypeLink, Target: "releases/v2", Time: modTime},
		{Name: "..", Type: ftp.EntryTypeFolder, Time: modTime},
	}
	lines := entryLines(entries)
	require.Len(t, lines, 4)
	assert.Equal(t, "total 5", lines[0])

	var parsed []entity.DirEntry
	for _, line := range lines {
		if e := listing.ParseLine(line, entity.UnixStyle); e.Kind != entity.Invalid {
			parsed = append(parsed, e)
		}
	}
	assert.Equal(t, []entity.DirEntry{
		{Kind: entity.File, Size: 5120, Name: "index.html"},
		{Kind: entity.Directory, Size: 0, Name: "images"},
		{Kind: entity.Symlink, Size: 0, Name: "latest"},
	}, parsed)
}

func TestTransferType(t *testing.T) {
	assert.EqualValues(t, ftp.TransferTypeASCII, transferType(entity.Text))
	assert.EqualValues(t, ftp.TransferTypeBinary, transferType(entity.Binary))
	assert.EqualValues(t, ftp.TransferTypeBinary, transferType(entity.Auto))
}

func TestOptions(t *testing.T) {
	c := NewConn(nil, 45*time.Second)

	v, err := c.GetOption(transport.OptionTimeout)
	require.NoError(t, err)
	assert.Equal(t, 45, v)

	require.NoError(t, c.SetOption(transport.OptionAutoSeek, false))
	v, err = c.GetOption(transport.OptionAutoSeek)
	require.NoError(t, err)
	assert.Equal(t, false, v)

	assert.Error(t, c.SetOption(transport.Option(99), 1))
	_, err = c.GetOption(transport.Option(99))
	assert.Error(t, err)
}

func TestCommandsOverTLS(t *testing.T) {
	// no plaintext control connection, as after AUTH TLS
	c := NewConn(nil, time.Second)
	assert.ErrorIs(t, c.Site("CHMOD 644 x"), transport.ErrUnsupported)
	assert.ErrorIs(t, c.Chmod("x", 0644), transport.ErrUnsupported)
	_, err := c.Exec("ls")
	assert.ErrorIs(t, err, transport.ErrUnsupported)
	assert.ErrorIs(t, c.SetPassive(false), transport.ErrUnsupported)
	assert.NoError(t, c.SetPassive(true))

	systemType, err := c.SystemType()
	require.NoError(t, err)
	assert.Equal(t, entity.UnixStyle, entity.ListingStyleFromSystemType(systemType))
}

func TestDialOptions(t *testing.T) {
	plain := NewDialer(Config{})
	assert.Equal(t, 21, plain.DefaultPort())
	assert.Len(t, plain.dialOptions(nil, "h", time.Second), 2)

	everything := NewDialer(Config{ExplicitTLS: true, DisableEPSV: true, DebugOutput: &bytes.Buffer{}})
	assert.Len(t, everything.dialOptions(nil, "h", time.Second), 5)
}

func TestPassiveReplies(t *testing.T) {
	port, err := epsvPort("Entering Extended Passive Mode (|||6446|)")
	require.NoError(t, err)
	assert.Equal(t, 6446, port)

	host, port, err := pasvAddress("Entering Passive Mode (192,168,1,20,195,80).")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20", host)
	assert.Equal(t, 195*256+80, port)

	for _, bad := range []string{"Entering Extended Passive Mode", "(|||x|)", "(|||)"} {
		_, err := epsvPort(bad)
		assert.Error(t, err, bad)
	}
	for _, bad := range []string{"Entering Passive Mode", "(1,2,3,4,5)", "(1,2,3,4,x,6)"} {
		_, _, err := pasvAddress(bad)
		assert.Error(t, err, bad)
	}
}
