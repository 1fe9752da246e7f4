package fs

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bft-labs/copycat/internal/domain"
)

// formatVersion is written in the header line of every log file.
const formatVersion = 1

// header is the first JSON line of a command log file.
type header struct {
	Version   int       `json:"version"`
	SessionID string    `json:"session_id"`
	ArmedAt   time.Time `json:"armed_at"`
	Count     int       `json:"count"`
}

// record is one command line. Payload is base64 encoded by encoding/json and
// the offset is kept in integer nanoseconds so both round-trip losslessly.
// Both fields are pointers on decode so a missing key can be told apart from
// a zero value.
type record struct {
	OffsetNS *int64  `json:"offset_ns"`
	Payload  *[]byte `json:"payload"`
}

// encodeSequence writes seq as a header line followed by one line per command.
func encodeSequence(w io.Writer, seq domain.Sequence) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	h := header{
		Version:   formatVersion,
		SessionID: seq.Meta.ID,
		ArmedAt:   seq.Meta.ArmedAt.UTC(),
		Count:     seq.Len(),
	}
	if err := enc.Encode(h); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	for i := 0; i < seq.Len(); i++ {
		cmd, _ := seq.At(i)
		offset, payload := int64(cmd.Offset()), cmd.Payload()
		if payload == nil {
			payload = []byte{}
		}
		if err := enc.Encode(record{OffsetNS: &offset, Payload: &payload}); err != nil {
			return fmt.Errorf("encode command %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// decodeSequence parses a log written by encodeSequence.
// Any structural problem is reported as domain.ErrCorruptLog.
func decodeSequence(r io.Reader) (domain.Sequence, error) {
	dec := json.NewDecoder(bufio.NewReader(r))
	dec.DisallowUnknownFields()

	var h header
	if err := dec.Decode(&h); err != nil {
		return domain.Sequence{}, fmt.Errorf("%w: header: %v", domain.ErrCorruptLog, err)
	}
	if h.Version != formatVersion {
		return domain.Sequence{}, fmt.Errorf("%w: unsupported version %d", domain.ErrCorruptLog, h.Version)
	}
	if h.Count < 0 {
		return domain.Sequence{}, fmt.Errorf("%w: negative command count", domain.ErrCorruptLog)
	}

	// The header is not trusted for sizing; it is only checked after decoding.
	var commands []domain.Command
	for {
		var rec record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Sequence{}, fmt.Errorf("%w: command %d: %v", domain.ErrCorruptLog, len(commands), err)
		}
		if rec.OffsetNS == nil || rec.Payload == nil {
			return domain.Sequence{}, fmt.Errorf("%w: command %d is incomplete", domain.ErrCorruptLog, len(commands))
		}
		if *rec.OffsetNS < 0 {
			return domain.Sequence{}, fmt.Errorf("%w: command %d has negative offset", domain.ErrCorruptLog, len(commands))
		}
		if len(commands) == h.Count {
			return domain.Sequence{}, fmt.Errorf("%w: more commands than the %d declared", domain.ErrCorruptLog, h.Count)
		}
		commands = append(commands, domain.NewCommand(*rec.Payload, time.Duration(*rec.OffsetNS)))
	}
	if len(commands) != h.Count {
		return domain.Sequence{}, fmt.Errorf("%w: header declares %d commands, found %d",
			domain.ErrCorruptLog, h.Count, len(commands))
	}

	return domain.NewSequence(domain.SessionMeta{ID: h.SessionID, ArmedAt: h.ArmedAt}, commands)
}
