package tables

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	terrors "github.com/provide-io/furnace/go/furnace/pkg/tables/errors"
)

// Header is the fixed-layout block preceding the total table.
type Header struct {
	ConfigHex      string
	MotorHex       string
	Fields         [4]string // category fields in total-table order
	TotalLengthHex string
}

// Hex concatenates the header fields in layout order.
func (h Header) Hex() string {
	var b strings.Builder
	b.Grow(HeaderSize * 2)
	b.WriteString(h.ConfigHex)
	b.WriteString(h.MotorHex)
	for _, f := range h.Fields {
		b.WriteString(f)
	}
	b.WriteString(h.TotalLengthHex)
	return b.String()
}

// HeaderFromSession derives the header of s. A session without any
// collected category has no header and yields ErrEmptyContent.
func HeaderFromSession(s Session) (Header, error) {
	if !s.Collected() {
		return Header{}, fmt.Errorf("%w: collect at least one table before building the header", terrors.ErrEmptyContent)
	}
	total, err := EncodeTotalLength(s.TotalLength())
	if err != nil {
		return Header{}, err
	}
	h := Header{
		ConfigHex:      s.ConfigHex,
		MotorHex:       s.MotorHex,
		TotalLengthHex: total,
	}
	for _, c := range Categories {
		h.Fields[c] = s.Tables[c].EncodedLengthHex
	}
	return h, nil
}

// BuildHeader returns the header of s as hex.
func BuildHeader(s Session) (string, error) {
	h, err := HeaderFromSession(s)
	if err != nil {
		return "", err
	}
	return h.Hex(), nil
}

// BuildTotalTable concatenates static, action, dynamic and monitoring
// content in that order.
func BuildTotalTable(s Session) (string, error) {
	var b strings.Builder
	for _, c := range Categories {
		b.WriteString(s.Tables[c].ContentHex)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: every sub-table is empty", terrors.ErrEmptyContent)
	}
	return b.String(), nil
}

// BuildFinalArtifact appends the total table three times to the header.
func BuildFinalArtifact(headerHex, totalHex string) string {
	return headerHex + strings.Repeat(totalHex, TotalTableCopies)
}

// Assembler runs the collect and emit steps against a session.
type Assembler struct {
	matchers map[Category]Matcher
	labels   Labels
	emitter  *Emitter
	logger   hclog.Logger
}

// NewAssembler wires matchers, labels and an emitter for the total_bin directory.
func NewAssembler(matchers map[Category]Matcher, labels Labels, emitter *Emitter, logger hclog.Logger) *Assembler {
	if matchers == nil {
		matchers = DefaultMatchers()
	}
	return &Assembler{
		matchers: matchers,
		labels:   labels,
		emitter:  emitter,
		logger:   logger.Named("assembler"),
	}
}

// Collect reads the sub-table of category c from path and returns the
// updated session. An empty path means nothing was selected: the session
// is returned unchanged. Collecting a non-empty action or dynamic folder
// also archives the concatenated content as an artifact.
func (a *Assembler) Collect(s Session, c Category, path string) (Session, *Artifact, error) {
	if path == "" {
		a.logger.Info("No selection, nothing collected", "category", c)
		return s, nil, nil
	}

	m, ok := a.matchers[c]
	if !ok {
		return s, nil, fmt.Errorf("%w: no naming convention for %s", terrors.ErrValueRange, c)
	}

	var t SubTable
	var err error
	if FolderCategory(c) {
		t, err = CollectFolder(path, c, m, a.logger)
	} else {
		t, err = CollectSingleFile(path, c, m, a.logger)
	}
	if err != nil {
		return s, nil, err
	}

	next, err := s.WithSubTable(t)
	if err != nil {
		return s, nil, err
	}
	a.logger.Debug("🔢 Category field encoded",
		"category", c,
		"offset", next.Offset(c),
		"field", next.Tables[c].EncodedLengthHex)

	if !FolderCategory(c) || t.ContentHex == "" {
		return next, nil, nil
	}

	label := a.labels.ActionTotal
	if c == CategoryDynamic {
		label = a.labels.DynamicTotal
	}
	artifact, err := a.emitter.Emit(label, t.ContentHex)
	if err != nil {
		return next, nil, fmt.Errorf("archiving %s tables: %w", c, err)
	}
	return next, artifact, nil
}

// EmitHeader writes the header artifact.
func (a *Assembler) EmitHeader(s Session) (*Artifact, error) {
	h, err := BuildHeader(s)
	if err != nil {
		return nil, err
	}
	return a.emitter.Emit(a.labels.Header, h)
}

// EmitTotalTable writes the total table artifact.
func (a *Assembler) EmitTotalTable(s Session) (*Artifact, error) {
	total, err := BuildTotalTable(s)
	if err != nil {
		return nil, err
	}
	return a.emitter.Emit(a.labels.TotalTable, total)
}

// EmitFinal writes header followed by three copies of the total table,
// the image consumed by the controller loader.
func (a *Assembler) EmitFinal(s Session) (*Artifact, error) {
	total, err := BuildTotalTable(s)
	if err != nil {
		return nil, err
	}
	h, err := BuildHeader(s)
	if err != nil {
		return nil, err
	}
	return a.emitter.Emit(a.labels.Final, BuildFinalArtifact(h, total))
}
