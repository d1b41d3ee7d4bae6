// Package seed loads an initial roster from a YAML file so a fresh
// deployment can start rotating without manual member entry.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/swimteam-scheduler/internal/application"
)

// Roster is the slice of the roster service the seeder needs.
type Roster interface {
	ListMembers(ctx context.Context) ([]application.Member, error)
	CreateMember(ctx context.Context, input application.MemberInput) (application.Member, error)
}

// File is the YAML document shape.
type File struct {
	Members []MemberEntry `yaml:"members"`
}

// MemberEntry is one roster member in the seed file. A zero order means
// "after the previous entry".
type MemberEntry struct {
	Name  string `yaml:"name"`
	Order int    `yaml:"order"`
}

// Load reads and parses a seed file from disk.
func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a seed document from r.
func Parse(r io.Reader) (File, error) {
	var file File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return File{}, fmt.Errorf("parse seed file: %w", err)
	}

	order := 0
	for i := range file.Members {
		entry := &file.Members[i]
		entry.Name = strings.TrimSpace(entry.Name)
		if entry.Name == "" {
			return File{}, fmt.Errorf("parse seed file: member %d has no name", i+1)
		}
		if entry.Order < 1 {
			entry.Order = order + 1
		}
		order = entry.Order
	}
	return file, nil
}

// Apply creates the seeded members. It refuses to touch a roster that
// already has members so repeated runs stay safe.
func Apply(ctx context.Context, roster Roster, file File, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	existing, err := roster.ListMembers(ctx)
	if err != nil {
		return 0, fmt.Errorf("inspect roster: %w", err)
	}
	if len(existing) > 0 {
		logger.InfoContext(ctx, "roster already populated, skipping seed", "member_count", len(existing))
		return 0, nil
	}

	created := 0
	for _, entry := range file.Members {
		member, err := roster.CreateMember(ctx, application.MemberInput{Name: entry.Name, Order: entry.Order})
		if err != nil {
			return created, fmt.Errorf("seed member %q: %w", entry.Name, err)
		}
		logger.InfoContext(ctx, "seeded member", "member_id", member.ID, "name", member.Name, "order", member.Order)
		created++
	}
	return created, nil
}
