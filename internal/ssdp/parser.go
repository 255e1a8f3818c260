package ssdp

import (
	"errors"
	"strconv"
	"strings"

	"github.com/muurk/simplehome/internal/logging"
	"go.uber.org/zap"
)

// Request line and header values recognised by the parser
const (
	MethodSearch    = "M-SEARCH"
	SearchURI       = "*"
	SearchTargetAll = "ssdp:all"
)

// Scratch buffer bounds. Method and URI overflow aborts the datagram since
// neither can match anymore. Header names and values are truncated, except
// an overflowing ST value which aborts (it cannot equal any of our targets).
const (
	maxMethodLen = len(MethodSearch) + 1
	maxURILen    = len(SearchURI)
	maxKeyLen    = 63
	maxValueLen  = 127
)

// MaxMX caps the requested response delay in seconds, the upper end of the
// UPnP 1.0 MX range. Larger values, including ones that overflow int, are
// treated as MaxMX.
const MaxMX = 120

// TargetKind selects which identifier a search response echoes in ST
type TargetKind int

const (
	// TargetDeviceType echoes the device type (ssdp:all or a device type search)
	TargetDeviceType TargetKind = iota
	// TargetUUID echoes the device UUID (search for this specific device)
	TargetUUID
)

// String returns the name of the target kind
func (k TargetKind) String() string {
	if k == TargetUUID {
		return "uuid"
	}
	return "device_type"
}

// SearchRequest is the outcome of an accepted M-SEARCH datagram
type SearchRequest struct {
	Target TargetKind // Which identifier the response must echo
	ST     string     // Search target as received
	MX     int        // Maximum response delay in seconds, at most MaxMX (0 when missing or non-numeric)
	MAN    string     // MAN header, informational only
}

type parseState int

const (
	stateMethod parseState = iota
	stateURI
	stateProto
	stateKey
	stateValue
	stateAbort
)

func (s parseState) String() string {
	switch s {
	case stateMethod:
		return "method"
	case stateURI:
		return "uri"
	case stateProto:
		return "proto"
	case stateKey:
		return "key"
	case stateValue:
		return "value"
	case stateAbort:
		return "abort"
	default:
		return "unknown"
	}
}

type headerKind int

const (
	headerOther headerKind = iota
	headerMAN
	headerST
	headerMX
)

func classifyHeader(name string) headerKind {
	name = strings.ToUpper(name)
	switch {
	case strings.HasPrefix(name, "MA"):
		return headerMAN
	case name == "ST":
		return headerST
	case name == "MX":
		return headerMX
	default:
		return headerOther
	}
}

// Parser classifies inbound datagrams against one device identity.
// It holds no per-datagram state and is safe for concurrent use.
type Parser struct {
	deviceType string
	uuid       string
}

// NewParser creates a parser that accepts searches for deviceType or uuid
func NewParser(deviceType, uuid string) *Parser {
	return &Parser{deviceType: deviceType, uuid: uuid}
}

// Parse runs one datagram through the request state machine. It returns
// false for anything that is not an M-SEARCH this device must answer.
func (p *Parser) Parse(data []byte) (SearchRequest, bool) {
	sc := scan{parser: p, state: stateMethod}
	for _, c := range data {
		sc.feed(c)
		if sc.state == stateAbort || sc.done {
			break
		}
	}
	return sc.finish()
}

// scan is the transient state for a single datagram
type scan struct {
	parser *Parser
	state  parseState

	buf      []byte // Method, URI, header value accumulator
	key      []byte // Current header name
	overflow bool   // buf exceeded its bound since the last reset
	cr       int    // Consecutive CR/LF bytes

	req    SearchRequest
	stSeen bool
	done   bool // Blank line reached
}

func (s *scan) feed(c byte) {
	if c == '\r' || c == '\n' {
		s.cr++
	} else {
		s.cr = 0
	}

	switch s.state {
	case stateMethod:
		if c == ' ' {
			if string(s.buf) != MethodSearch {
				s.abort("method")
				return
			}
			s.reset(stateURI)
			return
		}
		if !s.push(c, maxMethodLen) {
			s.abort("method overflow")
		}

	case stateURI:
		if c == ' ' {
			if string(s.buf) != SearchURI {
				s.abort("uri")
				return
			}
			s.reset(stateProto)
			return
		}
		if !s.push(c, maxURILen) {
			s.abort("uri overflow")
		}

	case stateProto:
		if s.cr == 2 {
			s.reset(stateKey)
		}

	case stateKey:
		switch {
		case s.cr == 4:
			s.done = true
		case s.cr == 2:
			// Header line without a separator
			s.key = s.key[:0]
		case c == '\r' || c == '\n' || c == ' ' || c == '\t':
		case c == ':':
			s.reset(stateValue)
		case len(s.key) < maxKeyLen:
			s.key = append(s.key, c)
		}

	case stateValue:
		switch {
		case s.cr == 2:
			s.commit()
			if s.state != stateAbort {
				s.key = s.key[:0]
				s.reset(stateKey)
			}
		case c == '\r' || c == '\n':
		case len(s.buf) == 0 && (c == ' ' || c == '\t'):
		default:
			s.push(c, maxValueLen)
		}
	}
}

// push appends c to the scratch buffer, reporting false on overflow
func (s *scan) push(c byte, limit int) bool {
	if len(s.buf) >= limit {
		s.overflow = true
		return false
	}
	s.buf = append(s.buf, c)
	return true
}

func (s *scan) reset(next parseState) {
	s.state = next
	s.buf = s.buf[:0]
	s.overflow = false
}

func (s *scan) abort(reason string) {
	logging.Debug("SSDP datagram dropped",
		zap.String("state", s.state.String()),
		zap.String("reason", reason),
		zap.String("buffer", string(s.buf)),
	)
	s.state = stateAbort
}

// commit applies a completed header line to the request
func (s *scan) commit() {
	value := strings.TrimRight(string(s.buf), " \t")

	switch classifyHeader(string(s.key)) {
	case headerMAN:
		s.req.MAN = value
		logging.Debug("SSDP MAN header", zap.String("man", value))

	case headerST:
		if s.overflow {
			s.abort("st overflow")
			return
		}
		switch {
		case value == SearchTargetAll:
			s.req.Target = TargetDeviceType
		case s.parser.deviceType != "" && strings.EqualFold(value, s.parser.deviceType):
			s.req.Target = TargetDeviceType
		case s.parser.uuid != "" && strings.EqualFold(value, s.parser.uuid):
			s.req.Target = TargetUUID
		default:
			s.abort("st " + value)
			return
		}
		s.req.ST = value
		s.stSeen = true

	case headerMX:
		s.req.MX = parseMX(value)
	}
}

// parseMX returns the MX value clamped to [0, MaxMX]. Non-numeric and
// negative values are 0.
func parseMX(value string) int {
	mx, err := strconv.ParseUint(value, 10, 64)
	switch {
	case errors.Is(err, strconv.ErrRange):
		return MaxMX
	case err != nil:
		return 0
	case mx > MaxMX:
		return MaxMX
	}
	return int(mx)
}

func (s *scan) finish() (SearchRequest, bool) {
	if s.state == stateAbort {
		return SearchRequest{}, false
	}
	// Trailing header line without a final CRLF
	if s.state == stateValue && len(s.key) > 0 {
		s.commit()
		if s.state == stateAbort {
			return SearchRequest{}, false
		}
	}
	if s.state != stateKey && s.state != stateValue {
		return SearchRequest{}, false
	}
	if !s.stSeen {
		return SearchRequest{}, false
	}
	return s.req, true
}
