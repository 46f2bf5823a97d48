package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// Class names written into kind archives. A decoder accepts only its own
// class; the payload itself may only be a string.
const (
	BookStatusKindClass = "BookStatusTypeKind"
	BookSourceKindClass = "BookSourceTypeKind"
)

const archiveKindKey = "kind"

// ErrDisallowedClass is returned when an archive names a class other than
// the one the decoder was asked for.
var ErrDisallowedClass = errors.New("archive class not allowed")

type kindArchive struct {
	Class string          `json:"$class"`
	Kind  json.RawMessage `json:"kind,omitempty"`
}

func encodeKindArchive(class, raw string) ([]byte, error) {
	kind, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(kindArchive{Class: class, Kind: kind})
}

// decodeKindArchive returns the raw kind string stored under class. The
// second result is false when the archive carries no string kind.
func decodeKindArchive(class string, data []byte) (string, bool, error) {
	var archive kindArchive
	if err := json.Unmarshal(data, &archive); err != nil {
		return "", false, fmt.Errorf("decode %s archive: %w", class, err)
	}
	if archive.Class != class {
		return "", false, fmt.Errorf("%w: %q", ErrDisallowedClass, archive.Class)
	}
	if len(archive.Kind) == 0 {
		return "", false, nil
	}
	var raw string
	if err := json.Unmarshal(archive.Kind, &raw); err != nil {
		return "", false, nil
	}
	return raw, true, nil
}

// MarshalBinary encodes the status as a kind archive.
func (s BookStatus) MarshalBinary() ([]byte, error) {
	return encodeKindArchive(BookStatusKindClass, string(s))
}

// UnmarshalBinary decodes a kind archive. A missing or unknown kind falls
// back to DefaultBookStatus; only a malformed archive or a foreign class is
// an error.
func (s *BookStatus) UnmarshalBinary(data []byte) error {
	raw, ok, err := decodeKindArchive(BookStatusKindClass, data)
	if err != nil {
		return err
	}
	if !ok {
		log.Printf("[STORE] book status archive has no kind, using %s", DefaultBookStatus)
		*s = DefaultBookStatus
		return nil
	}
	*s = decodeBookStatus(raw)
	return nil
}

func (s BookSource) MarshalBinary() ([]byte, error) {
	return encodeKindArchive(BookSourceKindClass, string(s))
}

func (s *BookSource) UnmarshalBinary(data []byte) error {
	raw, ok, err := decodeKindArchive(BookSourceKindClass, data)
	if err != nil {
		return err
	}
	if !ok {
		log.Printf("[STORE] book source archive has no kind, using %s", DefaultBookSource)
		*s = DefaultBookSource
		return nil
	}
	*s = decodeBookSource(raw)
	return nil
}
