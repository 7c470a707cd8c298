package executor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/regrade/internal/capture"
	"github.com/felixgeelhaar/regrade/internal/compare"
	"github.com/felixgeelhaar/regrade/internal/errors"
	"github.com/felixgeelhaar/regrade/internal/suite"
)

// HTTPSpec is the parsed form of an HttpRequest step value:
//
//	METHOD|URL[|EXPECTED_STATUS[|EXPECTED_BODY_SUBSTRING]]
type HTTPSpec struct {
	Method        string
	URL           string
	ExpectStatus  string
	ExpectInBody  string
	HasExpectBody bool
}

// ParseHTTPSpec validates a pipe-separated request spec. Method and URL
// are mandatory; status and body expectations are optional.
func ParseHTTPSpec(value string) (HTTPSpec, error) {
	parts := strings.Split(value, "|")
	if len(parts) < 2 || len(parts) > 4 {
		return HTTPSpec{}, errors.Newf(errors.CodeHTTPSpecMalformed,
			"request spec needs 2 to 4 pipe-separated fields, got %d", len(parts))
	}
	spec := HTTPSpec{
		Method: strings.ToUpper(strings.TrimSpace(parts[0])),
		URL:    strings.TrimSpace(parts[1]),
	}
	if spec.Method == "" || spec.URL == "" {
		return HTTPSpec{}, errors.New(errors.CodeHTTPSpecMalformed, "request spec is missing method or URL")
	}
	if len(parts) >= 3 {
		spec.ExpectStatus = strings.TrimSpace(parts[2])
	}
	if len(parts) == 4 {
		spec.ExpectInBody = strings.TrimSpace(parts[3])
		spec.HasExpectBody = true
	}
	return spec, nil
}

// httpRequest issues one scripted request against the submission server,
// records the exchange in the capture store, and checks the optional
// status and body expectations under their grading toggles.
func (e *Executor) httpRequest(ctx context.Context, step suite.Step) stepOutcome {
	spec, err := ParseHTTPSpec(step.Value)
	if err != nil {
		return failOutcome(err)
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, e.absoluteURL(spec.URL), nil)
	if err != nil {
		return failOutcome(errors.Wrap(errors.CodeHTTPSpecMalformed, "failed to build request", err))
	}
	resp, err := e.opts.HTTPClient.Do(req)
	if err != nil {
		return failOutcome(errors.Wrap(errors.CodeHTTPRequestFailed, "request failed", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failOutcome(errors.Wrap(errors.CodeHTTPRequestFailed, "failed to read response body", err))
	}

	e.recordExchange(step, spec, resp, body)

	if spec.ExpectStatus != "" && e.opts.Config.Grading.IsEnabled(suite.ValidationStatusCode) {
		got := strconv.Itoa(resp.StatusCode)
		if verdict := compare.CompareStatusCode(spec.ExpectStatus, got); !verdict.Equal && !verdict.Ignored {
			return stepOutcome{
				ok:      false,
				code:    errors.CodeHTTPStatusUnexpected,
				message: fmt.Sprintf("expected status %s, got %s", spec.ExpectStatus, got),
			}
		}
	}
	if spec.HasExpectBody && spec.ExpectInBody != "" {
		if !strings.Contains(strings.ToLower(string(body)), strings.ToLower(spec.ExpectInBody)) {
			return stepOutcome{
				ok:      false,
				code:    errors.CodeHTTPRequestFailed,
				message: fmt.Sprintf("response body does not contain %q", spec.ExpectInBody),
			}
		}
	}
	return okOutcome(fmt.Sprintf("%s %s -> %d", spec.Method, spec.URL, resp.StatusCode))
}

// recordExchange mirrors what the relay captures for live traffic so
// scripted requests and relayed ones grade identically.
func (e *Executor) recordExchange(step suite.Step, spec HTTPSpec, resp *http.Response, body []byte) {
	question, stage := e.opts.Store.Current()
	if question == "" {
		question = step.QuestionCode
		stage = step.EffectiveStage()
	}

	reqKey := capture.Key{Question: question, Stage: stage, Channel: capture.ChannelServerRequest}
	respKey := capture.Key{Question: question, Stage: stage, Channel: capture.ChannelServerResponse}

	e.opts.Store.Set(reqKey, spec.Method+" "+spec.URL)
	e.opts.Store.Set(respKey, string(body))
	e.opts.Store.SetHTTPMetadata(respKey, capture.HTTPMetadata{
		Method:     spec.Method,
		StatusCode: strconv.Itoa(resp.StatusCode),
		ByteSize:   int64(len(body)),
	})
}

// absoluteURL resolves relative request paths against the submission
// server address.
func (e *Executor) absoluteURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return "http://" + e.opts.Config.ServerAddr() + raw
}
