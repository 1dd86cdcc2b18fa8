package llm

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httputil"
	"regexp"

	"github.com/agenthub-x/agenthub/logger"
)

// loggingRT dumps LLM traffic at DEBUG with credentials redacted.
type loggingRT struct {
	base http.RoundTripper
	log  *logger.Logger
}

var (
	authRe   = regexp.MustCompile(`(?i)Authorization:\s*Bearer\s+[A-Za-z0-9\-\._~+/=]+`)
	apiKeyRe = regexp.MustCompile(`(?i)x-api-key:\s*\S+`)
)

const maxDump = 4096

func redact(b []byte) []byte {
	b = authRe.ReplaceAll(b, []byte("Authorization: Bearer ***REDACTED***"))
	return apiKeyRe.ReplaceAll(b, []byte("X-Api-Key: ***REDACTED***"))
}

func truncateDump(b []byte) []byte {
	if len(b) > maxDump {
		return append(b[:maxDump:maxDump], []byte("\n... (truncated) ...")...)
	}
	return b
}

func (l *loggingRT) logger() *logger.Logger {
	if l.log != nil {
		return l.log
	}
	return logger.GetLogger()
}

func (l *loggingRT) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(b))
		req.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(b)), nil }
		d, _ := httputil.DumpRequestOut(req, true)
		req.Body = io.NopCloser(bytes.NewReader(b))
		l.logger().WithField("direction", "outbound").Debugf("%s %s\n%s", req.Method, req.URL, truncateDump(redact(d)))
	}

	resp, err := l.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	if resp != nil && resp.Body != nil {
		b, _ := io.ReadAll(resp.Body)
		resp.Body = io.NopCloser(bytes.NewReader(b))
		d, _ := httputil.DumpResponse(resp, true)
		resp.Body = io.NopCloser(bytes.NewReader(b))
		l.logger().WithField("direction", "inbound").Debugf("%s %s\n%s", req.Method, req.URL, truncateDump(d))
	}
	return resp, nil
}
