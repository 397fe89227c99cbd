// Package confedit implements idempotent, marker-delimited patching of
// text configuration files.
package confedit

import (
	"context"
	"fmt"
	"strings"

	"github.com/piforge/piforge/internal/domain/provision"
	"github.com/piforge/piforge/internal/ports"
)

// Block describes one marker-delimited region owned by a phase.
type Block struct {
	// Path is the target configuration file.
	Path string
	// BeginMarker and EndMarker delimit the region, each on its own line.
	BeginMarker string
	EndMarker   string
	// Content is the region body, without the markers.
	Content string
	// Owner is the phase that requested the mutation, recorded in logs.
	Owner string
}

// Archiver stores a pre-mutation snapshot of a file. backup.FileStore
// satisfies this.
type Archiver interface {
	Archive(ctx context.Context, path string, content []byte) error
}

// Mutator applies marker-delimited blocks to text files.
//
// Invariants it maintains:
//   - at most one region per (file, begin, end) triple;
//   - a timestamped backup of the pre-mutation content is taken before
//     every mutation, so each prior generation stays recoverable;
//   - writes are atomic, so a crash leaves the old or the new file,
//     never a truncated one.
type Mutator struct {
	fs       ports.FileSystem
	archiver Archiver
	logger   ports.Logger
}

// NewMutator creates a Mutator.
func NewMutator(fs ports.FileSystem, archiver Archiver, logger ports.Logger) *Mutator {
	return &Mutator{
		fs:       fs,
		archiver: archiver,
		logger:   logger,
	}
}

// UpsertBlock replaces or appends the block's region in its target file.
// Calling it twice with identical arguments yields an identical file
// (aside from one extra backup).
func (m *Mutator) UpsertBlock(ctx context.Context, block Block) error {
	if block.BeginMarker == "" || block.EndMarker == "" {
		return provision.NewConfigMutationError(block.Path, fmt.Errorf("empty marker"))
	}

	var original []byte
	if m.fs.Exists(block.Path) {
		data, err := m.fs.ReadFile(block.Path)
		if err != nil {
			return provision.NewConfigMutationError(block.Path, err)
		}
		original = data
	}

	if err := m.archive(ctx, block.Path, original); err != nil {
		return provision.NewConfigMutationError(block.Path, err)
	}

	updated, err := upsert(string(original), block)
	if err != nil {
		return provision.NewConfigMutationError(block.Path, err)
	}

	if err := m.fs.WriteFileAtomic(block.Path, []byte(updated), 0o644); err != nil {
		return provision.NewConfigMutationError(block.Path, err)
	}

	m.logger.Info(ctx, "config block applied",
		ports.F("file", block.Path),
		ports.F("marker", block.BeginMarker),
		ports.F("owner", block.Owner))
	return nil
}

// RemoveBlock excises the block's region if present. Removing an absent
// block is a no-op, so removal is idempotent too.
func (m *Mutator) RemoveBlock(ctx context.Context, block Block) error {
	if !m.fs.Exists(block.Path) {
		return nil
	}
	data, err := m.fs.ReadFile(block.Path)
	if err != nil {
		return provision.NewConfigMutationError(block.Path, err)
	}

	remainder, found, err := excise(string(data), block.BeginMarker, block.EndMarker)
	if err != nil {
		return provision.NewConfigMutationError(block.Path, err)
	}
	if !found {
		return nil
	}

	if err := m.archive(ctx, block.Path, data); err != nil {
		return provision.NewConfigMutationError(block.Path, err)
	}
	if err := m.fs.WriteFileAtomic(block.Path, []byte(remainder), 0o644); err != nil {
		return provision.NewConfigMutationError(block.Path, err)
	}

	m.logger.Info(ctx, "config block removed",
		ports.F("file", block.Path),
		ports.F("marker", block.BeginMarker))
	return nil
}

// archive snapshots the pre-mutation content. Mutation never proceeds
// without a backup of what it is about to overwrite.
func (m *Mutator) archive(ctx context.Context, path string, content []byte) error {
	if err := m.archiver.Archive(ctx, path, content); err != nil {
		return fmt.Errorf("backup before mutation: %w", err)
	}
	return nil
}

// upsert excises any existing region and appends a fresh one.
func upsert(original string, block Block) (string, error) {
	remainder, _, err := excise(original, block.BeginMarker, block.EndMarker)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(remainder)
	if remainder != "" && !strings.HasSuffix(remainder, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(block.BeginMarker)
	b.WriteString("\n")
	if block.Content != "" {
		b.WriteString(block.Content)
		if !strings.HasSuffix(block.Content, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString(block.EndMarker)
	b.WriteString("\n")
	return b.String(), nil
}

// excise removes the marker-delimited region from content.
// Returns the remainder and whether a region was found. A begin marker
// without a matching end marker is corruption and an error.
func excise(content, begin, end string) (string, bool, error) {
	lines := strings.Split(content, "\n")

	beginIdx := -1
	endIdx := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if beginIdx == -1 && trimmed == begin {
			beginIdx = i
			continue
		}
		if beginIdx != -1 && trimmed == end {
			endIdx = i
			break
		}
	}

	if beginIdx == -1 {
		return content, false, nil
	}
	if endIdx == -1 {
		return "", false, fmt.Errorf("begin marker %q has no matching end marker %q", begin, end)
	}

	remainder := append([]string{}, lines[:beginIdx]...)
	remainder = append(remainder, lines[endIdx+1:]...)

	out := strings.Join(remainder, "\n")
	// Collapse the hole left by the region so repeated upserts do not
	// accumulate blank lines.
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return out, true, nil
}
