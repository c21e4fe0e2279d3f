// Package service runs the recursive tree operations (upload, download, delete and
// size of whole directory trees) on top of a session.
package service

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-manu/ftp-sidekick/action"
	"github.com/m-manu/ftp-sidekick/entity"
	"github.com/m-manu/ftp-sidekick/fmte"
	"github.com/m-manu/ftp-sidekick/fs"
	"github.com/m-manu/ftp-sidekick/listing"
	"github.com/m-manu/ftp-sidekick/session"
)

// TreeOpPolicy decides what happens after the first per-entry failure
type TreeOpPolicy struct {
	// FailFast returns the first failure and abandons the remaining entries.
	// Otherwise every entry is attempted and failures are reported together.
	FailFast bool
}

// Engine walks directory trees entry by entry. It is as sequential as its session.
type Engine struct {
	s      *session.Session
	local  fs.FileSystem
	dryRun bool
	plan   *Plan
}

func NewEngine(s *session.Session) *Engine {
	return &Engine{s: s, local: s.LocalFS(), plan: NewPlan()}
}

// SetDryRun makes the engine record mutating actions in its plan instead of performing
// them. Listings are still read from the server.
func (e *Engine) SetDryRun(dryRun bool) {
	e.dryRun = dryRun
}

func (e *Engine) DryRun() bool {
	return e.dryRun
}

// Plan returns what a dry run collected
func (e *Engine) Plan() *Plan {
	return e.plan
}

func (e *Engine) perform(a action.TreeAction) error {
	if e.dryRun {
		e.plan.Add(a)
		return nil
	}
	fmte.PrintfV("%s\n", a)
	return a.Perform(e.s)
}

// failures collects per-entry errors according to a policy
type failures struct {
	policy  TreeOpPolicy
	partial *session.PartialTreeError
}

func newFailures(policy TreeOpPolicy, message string) *failures {
	return &failures{policy: policy, partial: session.NewPartialTreeError(message)}
}

// record returns err itself when the walk must stop now
func (f *failures) record(err error) error {
	if f.policy.FailFast {
		return err
	}
	f.partial.Add(err)
	return nil
}

func (f *failures) result() error {
	if f.partial.HasFailures() {
		return f.partial
	}
	return nil
}

func remoteJoin(dir, name string) string {
	return strings.TrimSuffix(dir, "/") + "/" + name
}

func isDotEntry(name string) bool {
	return name == "." || name == ".."
}

// UploadTree copies the local directory tree under the remote directory, which must exist.
// A subdirectory that can't be created on the server is skipped as a whole.
func (e *Engine) UploadTree(local, remote string, mode entity.TransferMode, policy TreeOpPolicy) error {
	const op = "UploadTree"
	if err := e.s.Precondition(op); err != nil {
		return err
	}
	if !e.local.IsReadableDirectory(local) {
		return session.NewError(session.NotADirectoryError, op, fmt.Sprintf("directory '%s' is not directory", local), nil)
	}
	names, err := e.local.ReadDirNames(local)
	if err != nil {
		return session.NewError(session.LocalIOError, op, fmt.Sprintf("could not open the directory '%s'", local), err)
	}
	e.s.Trace(op, fmt.Sprintf("copying '%s' to '%s'", local, remote))

	fails := newFailures(policy, "unable to copy folder to server")
	for _, name := range names {
		if isDotEntry(name) {
			continue
		}
		childLocal, childRemote := filepath.Join(local, name), remoteJoin(remote, name)
		if err := e.uploadEntry(childLocal, childRemote, mode, policy); err != nil {
			if stop := fails.record(err); stop != nil {
				return stop
			}
		}
	}
	return fails.result()
}

func (e *Engine) uploadEntry(local, remote string, mode entity.TransferMode, policy TreeOpPolicy) error {
	info, err := e.local.Lstat(local)
	if err != nil {
		return session.NewError(session.LocalIOError, "UploadTree", fmt.Sprintf("could not stat '%s'", local), err)
	}
	if !info.IsDir {
		return e.perform(action.UploadFileAction{LocalPath: local, RemotePath: remote, Mode: mode})
	}
	if err := e.perform(action.MakeDirectoryAction{Path: remote}); err != nil {
		return err
	}
	return e.UploadTree(local, remote, mode, policy)
}

// DownloadTree copies the remote directory tree into the local directory, creating it
// when missing
func (e *Engine) DownloadTree(local, remote string, mode entity.TransferMode, policy TreeOpPolicy) error {
	const op = "DownloadTree"
	if err := e.s.Precondition(op); err != nil {
		return err
	}
	if e.local.Exists(local) {
		if !e.local.IsReadableDirectory(local) {
			return session.NewError(session.NotADirectoryError, op, fmt.Sprintf("local path '%s' is no directory", local), nil)
		}
	} else if err := e.perform(action.MakeDirectoryAction{Path: local, Local: true}); err != nil {
		return session.NewError(session.LocalIOError, op, fmt.Sprintf("could not create local directory '%s'", local), err)
	}
	snapshot, err := e.s.DirList(remote)
	if err != nil {
		return err
	}
	e.s.Trace(op, fmt.Sprintf("copying '%s' to '%s'", remote, local))

	fails := newFailures(policy, "unable to copy folder from server")
	for _, entry := range snapshot {
		if isDotEntry(entry.Name) {
			continue
		}
		childLocal, childRemote := filepath.Join(local, entry.Name), remoteJoin(remote, entry.Name)
		if entry.IsDir() {
			err = e.DownloadTree(childLocal, childRemote, mode, policy)
		} else {
			err = e.perform(action.DownloadFileAction{RemotePath: childRemote, LocalPath: childLocal, Mode: mode})
		}
		if err != nil {
			if stop := fails.record(err); stop != nil {
				return stop
			}
		}
	}
	return fails.result()
}

// DeleteTree removes a remote directory. Without recursive it must be empty.
// Recursive deletion stops at the first error; whatever was deleted stays deleted.
func (e *Engine) DeleteTree(remote string, recursive bool) error {
	const op = "DeleteTree"
	if err := e.s.Precondition(op); err != nil {
		return err
	}
	if !recursive {
		return e.perform(action.RemoveDirectoryAction{RemotePath: remote})
	}
	lines, err := e.s.RawListRecursive(remote)
	if err != nil {
		return err
	}
	tree := listing.ParseRecursive(remote, lines)
	e.s.Trace(op, fmt.Sprintf("deleting %d files and %d folders below '%s'", len(tree.Files()), len(tree.Dirs()), remote))
	for _, file := range tree.Files() {
		if err := e.perform(action.DeleteFileAction{RemotePath: file}); err != nil {
			return err
		}
	}
	// descending order puts every folder before its parent
	dirs := append([]string(nil), tree.Dirs()...)
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, dir := range dirs {
		if err := e.DeleteTree(dir, true); err != nil {
			return err
		}
	}
	return e.perform(action.RemoveDirectoryAction{RemotePath: remote})
}

// DirSize adds up the sizes of all files below the remote directory. With failures under
// a best-effort policy, the partial total is returned along with the error.
func (e *Engine) DirSize(remote string, policy TreeOpPolicy) (int64, error) {
	const op = "DirSize"
	snapshot, err := e.s.DirList(remote)
	if err != nil {
		return 0, err
	}
	e.s.Trace(op, fmt.Sprintf("computing size of '%s'", remote))

	var total int64
	fails := newFailures(policy, "unable to get size of folder from server")
	for _, entry := range snapshot {
		if isDotEntry(entry.Name) {
			continue
		}
		child := remoteJoin(remote, entry.Name)
		var size int64
		if entry.IsDir() {
			size, err = e.DirSize(child, policy)
		} else {
			size, err = e.s.Size(child)
		}
		total += size
		if err != nil {
			if stop := fails.record(err); stop != nil {
				return total, stop
			}
		}
	}
	return total, fails.result()
}
