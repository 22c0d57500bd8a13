package tables

import (
	"fmt"

	terrors "github.com/provide-io/furnace/go/furnace/pkg/tables/errors"
)

// SubTable is one collected category of the total table.
type SubTable struct {
	Category   Category `json:"category"`
	Length     uint32   `json:"length"`
	ContentHex string   `json:"content_hex"`
	// EncodedLengthHex is the triple-redundant header field of this
	// category: the load address plus the lengths of every earlier category.
	EncodedLengthHex string   `json:"encoded_length_hex"`
	Sources          []string `json:"sources,omitempty"`
	Collected        bool     `json:"collected"`
}

// Session is the accumulated state of one assembly run. It is a value:
// every operation that changes it returns a new Session.
type Session struct {
	LoadAddress uint32      `json:"load_address"`
	ConfigHex   string      `json:"config_hex"`
	MotorHex    string      `json:"motor_hex"`
	Tables      [4]SubTable `json:"tables"`
}

// NewSession returns an empty session with its length fields encoded.
func NewSession(loadAddress uint32, motorHex string) (Session, error) {
	if motorHex == "" {
		motorHex = DefaultMotorHex
	}
	if len(motorHex) != 4 {
		return Session{}, fmt.Errorf("%w: motor word %q must be 4 hex chars", terrors.ErrEncoding, motorHex)
	}
	if _, err := DecodeHex(motorHex); err != nil {
		return Session{}, err
	}
	s := Session{
		LoadAddress: loadAddress,
		ConfigHex:   ConfigHex,
		MotorHex:    motorHex,
	}
	for _, c := range Categories {
		s.Tables[c].Category = c
	}
	if err := s.encodeFields(); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Table returns the sub-table of category c.
func (s Session) Table(c Category) SubTable {
	return s.Tables[c]
}

// Offset returns the combined length of every category preceding c.
func (s Session) Offset(c Category) uint64 {
	var off uint64
	for _, prev := range Categories[:c] {
		off += uint64(s.Tables[prev].Length)
	}
	return off
}

// TotalLength is the byte length of the total table.
func (s Session) TotalLength() uint64 {
	return s.Offset(CategoryMonitoring) + uint64(s.Tables[CategoryMonitoring].Length)
}

// Collected reports whether any category has been collected.
func (s Session) Collected() bool {
	for _, t := range s.Tables {
		if t.Collected {
			return true
		}
	}
	return false
}

// WithSubTable stores t and re-encodes every category field so offsets stay
// consistent whatever order the categories were collected in.
func (s Session) WithSubTable(t SubTable) (Session, error) {
	if t.Category < CategoryStatic || t.Category > CategoryMonitoring {
		return s, fmt.Errorf("%w: category %d", terrors.ErrValueRange, t.Category)
	}
	next := s
	t.Collected = true
	next.Tables[t.Category] = t
	if err := next.encodeFields(); err != nil {
		return s, err
	}
	return next, nil
}

func (s *Session) encodeFields() error {
	for _, c := range Categories {
		field, err := EncodeLength(uint64(s.LoadAddress) + s.Offset(c))
		if err != nil {
			return fmt.Errorf("encoding %s field: %w", c, err)
		}
		s.Tables[c].EncodedLengthHex = field
	}
	return nil
}

// WithHeaderSettings replaces the load address and motor word and
// re-encodes the category fields.
func (s Session) WithHeaderSettings(loadAddress uint32, motorHex string) (Session, error) {
	fresh, err := NewSession(loadAddress, motorHex)
	if err != nil {
		return s, err
	}
	fresh.Tables = s.Tables
	if err := fresh.encodeFields(); err != nil {
		return s, err
	}
	return fresh, nil
}
