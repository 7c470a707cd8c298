package relay

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"

	"github.com/felixgeelhaar/regrade/internal/capture"
)

// newHTTPProxy builds a reverse proxy that forwards to the target server
// and records each exchange into the store under the key that is current
// when the request arrives.
func (r *Relay) newHTTPProxy() *http.Server {
	target := &url.URL{Scheme: "http", Host: r.targetAddr}

	handler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		// One proxy per request so ModifyResponse can close over this
		// exchange's capture key without racing concurrent requests.
		proxy := httputil.NewSingleHostReverseProxy(target)
		var reqBody []byte
		if req.Body != nil {
			reqBody, _ = io.ReadAll(req.Body)
			req.Body = io.NopCloser(bytes.NewReader(reqBody))
		}

		question, stage := r.store.Current()
		reqKey := capture.Key{Question: question, Stage: stage, Channel: capture.ChannelServerRequest}
		respKey := capture.Key{Question: question, Stage: stage, Channel: capture.ChannelServerResponse}

		r.store.Set(reqKey, string(reqBody))
		r.store.SetHTTPMetadata(reqKey, capture.HTTPMetadata{
			Method:   req.Method,
			ByteSize: int64(len(reqBody)),
		})

		proxy.ModifyResponse = func(resp *http.Response) error {
			respBody, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			resp.Body = io.NopCloser(bytes.NewReader(respBody))

			r.store.Set(respKey, string(respBody))
			r.store.SetHTTPMetadata(respKey, capture.HTTPMetadata{
				Method:     req.Method,
				StatusCode: strconv.Itoa(resp.StatusCode),
				ByteSize:   int64(len(respBody)),
			})
			return nil
		}

		r.logger.Debug("relaying HTTP request", "method", req.Method, "path", req.URL.Path)
		proxy.ServeHTTP(w, req)
	})

	return &http.Server{Handler: handler}
}
