package transporttest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-manu/ftp-sidekick/entity"
	"github.com/m-manu/ftp-sidekick/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeBuilding(t *testing.T) {
	m := NewMemConn()
	m.AddFile("/a/b/c.txt", "abc")
	m.AddSymlink("/a/link", "b/c.txt")

	assert.True(t, m.IsDir("/a/b"))
	assert.False(t, m.IsDir("/a/b/c.txt"))
	assert.Equal(t, "abc", m.Content("/a/b/c.txt"))

	lines, err := m.RawList("/a")
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "total 2", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "d"), lines[1])
	assert.True(t, strings.HasSuffix(lines[2], "link -> b/c.txt"), lines[2])

	names, err := m.NameList("/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "link"}, names)
}

func TestRawListRecursive(t *testing.T) {
	m := NewMemConn()
	m.AddFile("/r/x", "1")
	m.AddFile("/r/s/y", "2")

	lines, err := m.RawListRecursive("/r")
	require.NoError(t, err)
	assert.Contains(t, lines, "/r/s:")
	assert.Equal(t, "total 1", lines[len(lines)-2])
}

func TestRelativePaths(t *testing.T) {
	m := NewMemConn()
	m.AddDir("/home/bob")
	require.NoError(t, m.ChangeDir("/home/bob"))
	require.NoError(t, m.Store("notes.txt", strings.NewReader("n"), entity.Text))
	assert.Equal(t, "n", m.Content("/home/bob/notes.txt"))
	assert.Equal(t, entity.Text, m.ModeOf("/home/bob/notes.txt"))

	require.NoError(t, m.ChangeDirToParent())
	dir, err := m.CurrentDir()
	require.NoError(t, err)
	assert.Equal(t, "/home", dir)
}

func TestRenameMovesSubtree(t *testing.T) {
	m := NewMemConn()
	m.AddFile("/old/deep/f", "f")
	m.AddDir("/new")
	require.NoError(t, m.Rename("/old", "/new/moved"))
	assert.False(t, m.Exists("/old"))
	assert.Equal(t, "f", m.Content("/new/moved/deep/f"))
	assert.EqualError(t, m.Rename("/missing", "/x"), "550 RNFR command failed.")
}

func TestRemoveDirNeedsEmptyDirectory(t *testing.T) {
	m := NewMemConn()
	m.AddFile("/d/f", "f")
	assert.EqualError(t, m.RemoveDir("/d"), "550 Remove directory operation failed.")
	assert.EqualError(t, m.Delete("/d"), "550 Delete operation failed.")
	require.NoError(t, m.Delete("/d/f"))
	require.NoError(t, m.RemoveDir("/d"))
	assert.False(t, m.Exists("/d"))
}

func TestFailuresAndCalls(t *testing.T) {
	m := NewMemConn()
	m.AddFile("/f", "f")
	boom := errors.New("421 Timeout.")
	m.FailOn("RETR", "/f", boom)
	m.Unsupported("SITE")

	assert.Equal(t, boom, m.Retrieve("/f", &bytes.Buffer{}, entity.Binary))
	assert.ErrorIs(t, m.Site("IDLE 60"), transport.ErrUnsupported)
	assert.Equal(t, []string{"/f"}, m.CallsOf("RETR"))
	assert.Equal(t, "SITE IDLE 60", m.Calls()[1].String())

	m.ResetCalls()
	assert.Empty(t, m.Calls())
}

func TestDialerReopens(t *testing.T) {
	m := NewMemConn()
	d := &Dialer{Conn: m}
	conn, err := d.Dial(context.Background(), transport.Endpoint{Host: "h", Port: d.DefaultPort()})
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	assert.True(t, m.IsClosed())
	_, err = conn.CurrentDir()
	assert.Error(t, err)

	_, err = d.Dial(context.Background(), transport.Endpoint{Host: "h", Port: 21})
	require.NoError(t, err)
	assert.False(t, m.IsClosed())
	assert.Len(t, d.Dialed, 2)

	d.DialErr = errors.New("connection refused")
	_, err = d.Dial(context.Background(), transport.Endpoint{Host: "h", Port: 21})
	assert.EqualError(t, err, "connection refused")
}
