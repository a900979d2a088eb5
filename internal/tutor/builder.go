package tutor

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/sigma-teacher/tutor/internal/ai"
	"github.com/sigma-teacher/tutor/internal/oracle"
)

const (
	DefaultTopicCount = 5
	DefaultAudience   = "1° ano do ensino médio"
)

// BuildInput is the source material for a domain.
type BuildInput struct {
	Text       string
	Documents  []ai.Document
	TopicCount int
	Audience   string
}

// Normalized fills defaults.
func (in BuildInput) Normalized() BuildInput {
	if in.TopicCount <= 0 {
		in.TopicCount = DefaultTopicCount
	}
	if strings.TrimSpace(in.Audience) == "" {
		in.Audience = DefaultAudience
	}
	return in
}

// DocumentOracle is a Generator that can also take documents.
type DocumentOracle interface {
	Generator
	UploadDocuments(ctx context.Context, docs []ai.Document) ([]ai.FileHandle, error)
}

// Builder turns source material into a DomainModel.
type Builder struct {
	oracle DocumentOracle
}

// NewBuilder creates a Builder.
func NewBuilder(o DocumentOracle) *Builder {
	return &Builder{oracle: o}
}

type domainReply struct {
	Topics   []Topic  `json:"topics"`
	Sequence []string `json:"recommended_sequence"`
}

// Build asks the oracle for a domain. Unusable replies return an error
// matching oracle.ErrFormat; documents that cannot be uploaded are skipped.
func (b *Builder) Build(ctx context.Context, in BuildInput) (DomainModel, error) {
	in = in.Normalized()

	files, err := b.oracle.UploadDocuments(ctx, in.Documents)
	if err != nil {
		return DomainModel{}, fmt.Errorf("upload documents: %w", err)
	}

	raw, err := b.oracle.Generate(ctx, ai.TaskDomain, domainPrompt(in), files)
	if err != nil {
		return DomainModel{}, fmt.Errorf("build domain: %w", err)
	}

	var reply domainReply
	if err := oracle.Decode(raw, domainSchema, &reply); err != nil {
		slog.Warn("domain reply unusable", "error", err, "raw_len", len(raw))
		return DomainModel{}, fmt.Errorf("build domain: %w", err)
	}

	d := NewDomainModel(reply.Topics, reply.Sequence)
	if len(d.Topics) != in.TopicCount {
		slog.Warn("domain topic count differs from request", "requested", in.TopicCount, "got", len(d.Topics))
	}
	slog.Info("domain built",
		"topics", len(d.Topics),
		"documents", len(files),
		"sequence_repaired", !slices.Equal(reply.Sequence, d.Sequence),
	)
	return d, nil
}
