package process

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// OutputEncoding resolves an IANA charset name such as "ibm850" or
// "windows-1252" used to decode subprocess output. An empty name means the
// output is already UTF-8 and returns nil.
func OutputEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown output encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("output encoding %q is not supported", name)
	}
	return enc, nil
}

// decoderFor returns a line decoder for enc, or nil for UTF-8 passthrough.
// Each stream gets its own decoder since decoders carry state.
func decoderFor(enc encoding.Encoding) func(string) string {
	if enc == nil {
		return nil
	}
	d := enc.NewDecoder()
	return func(line string) string {
		decoded, err := d.String(line)
		if err != nil {
			return line
		}
		return decoded
	}
}
