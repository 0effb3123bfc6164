package core

import (
	"fmt"
	"strings"

	"github.com/gofits/fits/internal/utils"
	"github.com/orcaman/writerseeker"
)

// RecordSize is the fixed width of one header record, in bytes.
const RecordSize = 80

// RecordsPerBlock is how many 80-byte records fit in one BlockSize block.
const RecordsPerBlock = BlockSize / RecordSize

// MaxHeaderRecords bounds how many records, END included, a single
// Header will hold. A header occupies exactly one block; it is never
// extended across a block boundary, matching the upstream fixtures this
// library stays binary-compatible with.
const MaxHeaderRecords = RecordsPerBlock

// Header holds the ordered keyword records of one HDU, plus the END
// sentinel once closed. Keyword lookup is case-insensitive; value
// formatting does not quote string values (see module notes on FITS
// string value escaping).
type Header struct {
	records  []string
	index    map[string]int // uppercased keyword -> index into records
	endIndex int             // -1 until EmitEnd has run
}

// NewHeader returns an empty, unclosed header.
func NewHeader() *Header {
	return &Header{
		index:    make(map[string]int),
		endIndex: -1,
	}
}

// Set writes keyword=value, updating an existing record in place or
// appending a new one. Once the header is closed (EmitEnd has run), Set
// reopens it by overwriting the END record with the new one and
// re-appending END immediately after. The header never holds a keyword
// record past its own END marker.
func (h *Header) Set(keyword, value string) error {
	key := normalizeKeyword(keyword)
	rec := formatRecord(key, value)

	if idx, ok := h.index[key]; ok {
		h.records[idx] = rec
		return nil
	}

	if h.endIndex >= 0 {
		if len(h.records) >= MaxHeaderRecords {
			return utils.New(utils.KindHeaderFull, fmt.Sprintf("header already holds %d records", MaxHeaderRecords))
		}
		h.records[h.endIndex] = rec
		h.index[key] = h.endIndex
		h.endIndex = -1
		return h.EmitEnd()
	}

	if len(h.records) >= MaxHeaderRecords {
		return utils.New(utils.KindHeaderFull, fmt.Sprintf("header already holds %d records", MaxHeaderRecords))
	}

	h.records = append(h.records, rec)
	h.index[key] = len(h.records) - 1
	return nil
}

// EmitEnd appends the END sentinel record if the header is not already
// closed. Calling it twice in a row is a no-op.
func (h *Header) EmitEnd() error {
	if h.endIndex >= 0 {
		return nil
	}

	if len(h.records) >= MaxHeaderRecords {
		return utils.New(utils.KindHeaderFull, fmt.Sprintf("header already holds %d records", MaxHeaderRecords))
	}

	h.records = append(h.records, formatEndRecord())
	h.endIndex = len(h.records) - 1
	return nil
}

// Lookup returns the value bound to keyword, case-insensitively.
func (h *Header) Lookup(keyword string) (string, bool) {
	idx, ok := h.index[normalizeKeyword(keyword)]
	if !ok {
		return "", false
	}
	return parseValue(h.records[idx]), true
}

// Closed reports whether EmitEnd has run.
func (h *Header) Closed() bool {
	return h.endIndex >= 0
}

// Count returns the number of keyword records written so far, not
// counting END. This is also the record slot END currently occupies (or
// will occupy once the header is closed), used to locate it for
// in-place updates.
func (h *Header) Count() int {
	if h.endIndex >= 0 {
		return h.endIndex
	}
	return len(h.records)
}

// Records returns a copy of the raw 80-byte records written so far, in
// order, including END if present.
func (h *Header) Records() []string {
	out := make([]string, len(h.records))
	copy(out, h.records)
	return out
}

// Bytes renders the header as a sequence of whole BlockSize blocks,
// padding with blank fill records after END. Panics if the header has
// not been closed with EmitEnd, since an unterminated header cannot be
// placed on disk.
func (h *Header) Bytes() []byte {
	if h.endIndex < 0 {
		panic("core: Header.Bytes called before EmitEnd")
	}

	ws := &writerseeker.WriterSeeker{}
	for _, rec := range h.records {
		ws.Write([]byte(rec))
	}

	fillerCount := (RecordsPerBlock - len(h.records)%RecordsPerBlock) % RecordsPerBlock
	filler := strings.Repeat(" ", RecordSize)
	for i := 0; i < fillerCount; i++ {
		ws.Write([]byte(filler))
	}

	reader := ws.Reader()
	buf := make([]byte, RoundUpBlock(uint64(len(h.records))*RecordSize))
	reader.Read(buf)
	return buf
}

// ParseHeader reads whole 80-byte records from data until it finds END,
// returning a closed Header. data is normally one or more whole
// BlockSize blocks read straight from a file.
func ParseHeader(data []byte) (*Header, error) {
	h := NewHeader()

	if len(data)%RecordSize != 0 {
		return nil, utils.New(utils.KindParseError, "header data is not a multiple of the record size")
	}

	count := len(data) / RecordSize
	for i := 0; i < count; i++ {
		rec := string(data[i*RecordSize : (i+1)*RecordSize])

		if strings.HasPrefix(strings.TrimRight(rec, " "), "END") && len(strings.TrimSpace(rec)) == 3 {
			h.records = append(h.records, formatEndRecord())
			h.endIndex = len(h.records) - 1
			return h, nil
		}

		keyword := strings.TrimSpace(rec[:8])
		if keyword == "" {
			continue // blank record, not a comment/history keyword we index
		}

		key := normalizeKeyword(keyword)
		h.records = append(h.records, rec)
		h.index[key] = len(h.records) - 1
	}

	return nil, utils.New(utils.KindParseError, "header data exhausted before END record")
}

func normalizeKeyword(keyword string) string {
	return strings.ToUpper(strings.TrimSpace(keyword))
}

func formatRecord(keyword, value string) string {
	kw := keyword
	if len(kw) > 8 {
		kw = kw[:8]
	}

	body := fmt.Sprintf("%-8s= %s", kw, value)
	if len(body) > RecordSize {
		body = body[:RecordSize]
	}

	return fmt.Sprintf("%-80s", body)
}

func formatEndRecord() string {
	return fmt.Sprintf("%-80s", "END")
}

func parseValue(record string) string {
	if len(record) < 10 || record[8] != '=' {
		return strings.TrimSpace(record)
	}

	value := record[10:]
	if idx := strings.Index(value, "/"); idx >= 0 {
		value = value[:idx]
	}

	return strings.TrimSpace(value)
}
