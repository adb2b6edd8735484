// Package bundle implements self-host bundling: a chunk payload appended
// to a copy of the host executable, terminated by a fixed footer. At
// startup the reader maps the running executable and, when the footer is
// present, streams the payload into the chunk deserializer.
package bundle

import (
	"encoding/binary"
	"fmt"
	"os"
)

// FooterMagic terminates a bundled executable: "CBPACK1\0".
var FooterMagic = [8]byte{'C', 'B', 'P', 'A', 'C', 'K', '1', 0}

// footerSize is payloadSize (u64 LE) + magic.
const footerSize = 16

// ExeBundler is the default Bundler implementation.
type ExeBundler struct{}

// Bundle copies the host executable to outPath and appends
// {payload}{payloadSize u64 LE}{magic}.
func (ExeBundler) Bundle(hostPath, outPath string, payload []byte) error {
	host, err := os.ReadFile(hostPath)
	if err != nil {
		return fmt.Errorf("reading host executable: %w", err)
	}

	out := make([]byte, 0, len(host)+len(payload)+footerSize)
	out = append(out, host...)
	out = append(out, payload...)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(payload)))
	out = append(out, FooterMagic[:]...)

	if err := os.WriteFile(outPath, out, 0o755); err != nil {
		return fmt.Errorf("writing bundled executable: %w", err)
	}
	return nil
}

// Extract returns the payload embedded in the executable at path.
// Detection: read the last 16 bytes, verify the magic, then seek back
// payloadSize+16 bytes.
func (ExeBundler) Extract(path string) ([]byte, bool, error) {
	data, done, err := mapFile(path)
	if err != nil {
		return nil, false, err
	}
	defer done()

	if len(data) < footerSize {
		return nil, false, nil
	}
	tail := data[len(data)-footerSize:]
	if [8]byte(tail[8:16]) != FooterMagic {
		return nil, false, nil
	}
	payloadSize := binary.LittleEndian.Uint64(tail[:8])
	end := uint64(len(data) - footerSize)
	if payloadSize > end {
		return nil, false, fmt.Errorf("bundled payload size %d exceeds file", payloadSize)
	}

	payload := make([]byte, payloadSize)
	copy(payload, data[end-payloadSize:end])
	return payload, true, nil
}
