package api

import (
	"io"
	"strings"
)

// dataPrefix marks the payload lines of a server-sent-event stream.
const dataPrefix = "data: "

// doneSentinel is emitted by some router deployments before closing the
// connection. It is ignored; the transport-level end of stream is the
// authoritative terminator.
const doneSentinel = "[DONE]"

// sseScanner reassembles complete lines from an SSE byte stream. A chunk
// boundary from the transport never aligns reliably with a line boundary,
// so the trailing fragment of every read is buffered until the newline
// that completes it arrives.
type sseScanner struct {
	r       io.Reader
	readBuf []byte
	partial strings.Builder
	pending []string
	eof     bool
}

func newSSEScanner(r io.Reader) *sseScanner {
	return &sseScanner{
		r:       r,
		readBuf: make([]byte, 4096),
	}
}

// Next returns the next complete line. It returns io.EOF once the stream
// is exhausted, after flushing any final unterminated line.
func (s *sseScanner) Next() (string, error) {
	for {
		if len(s.pending) > 0 {
			line := s.pending[0]
			s.pending = s.pending[1:]
			return line, nil
		}

		if s.eof {
			if s.partial.Len() > 0 {
				line := s.partial.String()
				s.partial.Reset()
				return line, nil
			}
			return "", io.EOF
		}

		n, err := s.r.Read(s.readBuf)
		if n > 0 {
			s.split(string(s.readBuf[:n]))
		}
		if err != nil {
			if err == io.EOF {
				s.eof = true
				continue
			}
			return "", err
		}
	}
}

// split appends decoded text to the line buffer and moves every completed
// line into the pending queue, retaining the last fragment.
func (s *sseScanner) split(text string) {
	s.partial.WriteString(text)
	if !strings.Contains(s.partial.String(), "\n") {
		return
	}

	buffered := s.partial.String()
	s.partial.Reset()

	lines := strings.Split(buffered, "\n")
	for _, line := range lines[:len(lines)-1] {
		s.pending = append(s.pending, strings.TrimSuffix(line, "\r"))
	}
	// The final element is an incomplete fragment (possibly empty)
	s.partial.WriteString(lines[len(lines)-1])
}

// ssePayload extracts the data payload from a line, reporting whether the
// line carried one. The [DONE] sentinel is not a payload.
func ssePayload(line string) (string, bool) {
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	payload := strings.TrimPrefix(line, dataPrefix)
	if payload == doneSentinel {
		return "", false
	}
	return payload, true
}
