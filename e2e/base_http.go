package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

type BaseHTTPSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment configuration before running tests.
// The whole suite is skipped when no server address is configured, so a
// plain `go test ./...` run stays green without infrastructure.
func (s *BaseHTTPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.BaseURL == "" {
		s.T().Skip("BASE_URL not set, skipping end-to-end suite")
	}
	s.client = &http.Client{Timeout: 30 * time.Second}
}

// Step prints a colorized header for a test step in logs
func (s *BaseHTTPSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Call performs a JSON request against the server and decodes the reply
// into out (which may be nil). The bearer token is attached when non-empty.
// Full bodies are logged when E2E_DEBUG_JSON is enabled.
func (s *BaseHTTPSuite) Call(method, path, token string, body any, out any) *http.Response {
	var reader io.Reader
	var requestJSON []byte
	if body != nil {
		var err error
		requestJSON, err = json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(requestJSON)
	}

	req, err := http.NewRequest(method, s.Config.BaseURL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	s.Require().NoError(err, "Failed to reach server at "+s.Config.BaseURL)
	defer resp.Body.Close()

	replyJSON, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	logBuilder := strings.Builder{}
	fmt.Fprintf(&logBuilder, "HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		fmt.Fprintln(&logBuilder, "\nREQUEST:")
		fmt.Fprintln(&logBuilder, indented(requestJSON))
		fmt.Fprintln(&logBuilder, "RESPONSE:")
		fmt.Fprintln(&logBuilder, indented(replyJSON))
	}
	s.T().Log(logBuilder.String())

	if out != nil && len(replyJSON) > 0 {
		s.Require().NoError(json.Unmarshal(replyJSON, out),
			"Could not decode response body: "+string(replyJSON))
	}
	return resp
}

func indented(raw []byte) string {
	if len(raw) == 0 {
		return "(empty)"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
