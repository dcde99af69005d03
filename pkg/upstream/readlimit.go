package upstream

import "io"

// maxUpstreamResponseBytes bounds how much of an upstream response body this
// client will buffer, independent of the gateway's own request-size cap
// (which governs inbound /mcp requests, not outbound upstream calls).
const maxUpstreamResponseBytes = 5 << 20

func readAllLimited(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxUpstreamResponseBytes))
}
